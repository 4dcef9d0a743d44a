package caseauth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountStore is the persistence contract the identity flows depend
// on. CreateAccount must be atomic with its uniqueness checks: the
// database constraints, not an application-level check-then-insert,
// decide the winner of a racing duplicate.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByExternalID(ctx context.Context, externalID string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	CreateAccount(ctx context.Context, record *Account) (*Account, error)
	UpdateAccount(ctx context.Context, record *Account) (*Account, error)
}

// Accounts extends the store contract with the bun repository surface
// used by transactional callers.
type Accounts interface {
	repository.Repository[*Account]
	AccountStore

	CreateAccountTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	FindByExternalIDTx(ctx context.Context, tx bun.IDB, externalID string) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts     = (*accounts)(nil)
	_ AccountStore = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *accounts) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	return a.findByColumn(ctx, tx, "email", normalizeEmail(email))
}

func (a *accounts) FindByExternalID(ctx context.Context, externalID string) (*Account, error) {
	return a.FindByExternalIDTx(ctx, a.db, externalID)
}

func (a *accounts) FindByExternalIDTx(ctx context.Context, tx bun.IDB, externalID string) (*Account, error) {
	return a.findByColumn(ctx, tx, "external_id", strings.TrimSpace(externalID))
}

func (a *accounts) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	if id == uuid.Nil {
		return nil, repository.NewRecordNotFound()
	}
	return a.findByColumn(ctx, a.db, "id", id.String())
}

func (a *accounts) findByColumn(ctx context.Context, tx bun.IDB, column, value string) (*Account, error) {
	if value == "" {
		return nil, repository.NewRecordNotFound()
	}

	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "account lookup failed")
	}

	return record, nil
}

// CreateAccount inserts the record in a single statement. Uniqueness
// races lose at the constraint and come back as the same conflict
// error a sequential duplicate would get.
func (a *accounts) CreateAccount(ctx context.Context, record *Account) (*Account, error) {
	return a.CreateAccountTx(ctx, a.db, record)
}

func (a *accounts) CreateAccountTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, mapConstraintError(err)
	}

	return created, nil
}

func (a *accounts) UpdateAccount(ctx context.Context, record *Account) (*Account, error) {
	updated, err := a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(record.ID.String()))
	if err != nil {
		return nil, mapConstraintError(err)
	}
	return updated, nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleLawyer
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = normalizeEmail(record.Email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// mapConstraintError folds driver-level unique violations into the
// conflict taxonomy. Anything else stays internal and generic.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	unique := strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")

	if !unique {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return richErr
		}
		return errors.Wrap(err, errors.CategoryInternal, "account persistence failed")
	}

	if strings.Contains(msg, "external_id") {
		return ErrIdentityTaken
	}

	return ErrEmailTaken
}
