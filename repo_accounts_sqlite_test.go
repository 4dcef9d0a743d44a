package caseauth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/goliatone/caseauth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

func setupAccountsRepo(t *testing.T) (caseauth.Accounts, func()) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	migrations := migrate.NewMigrations()
	require.NoError(t, migrations.Discover(caseauth.GetMigrationsFS()))

	migrator := migrate.NewMigrator(bunDB, migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = sqldb.Close()
	}

	return caseauth.NewAccountsRepository(bunDB), cleanup
}

func TestAccountsRepositoryCreateAndFind(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()

	created, err := repo.CreateAccount(ctx, &caseauth.Account{
		Email:       "Ada@Example.com",
		DisplayName: "Ada Paralegal",
		ExternalID:  "google-subject-1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, caseauth.RoleLawyer, created.Role)
	// stored lowercased
	assert.Equal(t, "ada@example.com", created.Email)

	byEmail, err := repo.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byExternal, err := repo.FindByExternalID(ctx, "google-subject-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byExternal.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.Error(t, err)
}

func TestAccountsRepositoryDuplicateEmail(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()

	_, err := repo.CreateAccount(ctx, &caseauth.Account{
		Email:       "ada@example.com",
		DisplayName: "Ada Paralegal",
	})
	require.NoError(t, err)

	_, err = repo.CreateAccount(ctx, &caseauth.Account{
		Email:       "ada@example.com",
		DisplayName: "Someone Else",
	})
	assert.True(t, goerrors.Is(err, caseauth.ErrEmailTaken))
}

func TestAccountsRepositoryDuplicateExternalID(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()

	_, err := repo.CreateAccount(ctx, &caseauth.Account{
		Email:       "ada@example.com",
		DisplayName: "Ada Paralegal",
		ExternalID:  "google-subject-1",
	})
	require.NoError(t, err)

	_, err = repo.CreateAccount(ctx, &caseauth.Account{
		Email:       "other@example.com",
		DisplayName: "Someone Else",
		ExternalID:  "google-subject-1",
	})
	assert.True(t, goerrors.Is(err, caseauth.ErrIdentityTaken))
}

func TestAccountsRepositoryManyLocalAccounts(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()

	// the external_id index is partial: any number of local-only
	// accounts may leave it empty
	for _, email := range []string{"one@example.com", "two@example.com", "three@example.com"} {
		_, err := repo.CreateAccount(ctx, &caseauth.Account{
			Email:        email,
			DisplayName:  "Local Account",
			PasswordHash: "$2a$14$placeholder",
		})
		require.NoError(t, err)
	}
}

func TestAccountsRepositoryConcurrentDuplicateCreate(t *testing.T) {
	race := func(t *testing.T, records [2]*caseauth.Account, wantConflict error) {
		t.Helper()

		repo, cleanup := setupAccountsRepo(t)
		defer cleanup()

		ctx := context.Background()
		errs := make([]error, 2)

		var wg sync.WaitGroup
		for i := range records {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.CreateAccount(ctx, records[i])
			}(i)
		}
		wg.Wait()

		// exactly one insert wins, whichever order the database picked
		var won, lost int
		for _, err := range errs {
			if err == nil {
				won++
			} else {
				lost++
				assert.True(t, goerrors.Is(err, wantConflict), "loser error: %v", err)
			}
		}
		assert.Equal(t, 1, won)
		assert.Equal(t, 1, lost)
	}

	t.Run("same email", func(t *testing.T) {
		race(t, [2]*caseauth.Account{
			{Email: "ada@example.com", DisplayName: "First"},
			{Email: "ada@example.com", DisplayName: "Second"},
		}, caseauth.ErrEmailTaken)
	})

	t.Run("same external id", func(t *testing.T) {
		race(t, [2]*caseauth.Account{
			{Email: "one@example.com", DisplayName: "First", ExternalID: "google-subject-1"},
			{Email: "two@example.com", DisplayName: "Second", ExternalID: "google-subject-1"},
		}, caseauth.ErrIdentityTaken)
	})
}
