package caseauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the account's role
type Role = string

const (
	// RoleLawyer is the default role for every new account
	RoleLawyer Role = "lawyer"
	// RoleAdmin can access the admin dashboard and aggregate views
	RoleAdmin Role = "admin"
)

// Account is the unified identity record. It is created exactly once,
// by local registration or by a delegated signup, and this package
// never deletes it or mutates its role afterwards.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`

	// ExternalID is the delegated provider's subject identifier. Empty
	// for local-only accounts; unique when present.
	ExternalID   string     `bun:"external_id,nullzero,unique" json:"external_id,omitempty"`
	DisplayName  string     `bun:"display_name,notnull" json:"display_name,omitempty"`
	Email        string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash string     `bun:"password_hash" json:"-"`
	Role         Role       `bun:"role,notnull" json:"role,omitempty"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt    *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasLocalCredential reports whether the account can log in with a
// password.
func (a *Account) HasLocalCredential() bool {
	return a != nil && a.PasswordHash != ""
}

// IsDelegated reports whether the account is bound to a delegated
// identity provider.
func (a *Account) IsDelegated() bool {
	return a != nil && a.ExternalID != ""
}

// Sanitized returns a copy safe to hand to clients: same record with
// the credential hash removed.
func (a *Account) Sanitized() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.PasswordHash = ""
	return &out
}

type accountIdentity struct {
	id          string
	displayName string
	email       string
	role        string
}

func (a accountIdentity) ID() string          { return a.id }
func (a accountIdentity) DisplayName() string { return a.displayName }
func (a accountIdentity) Email() string       { return a.email }
func (a accountIdentity) Role() string        { return a.role }

var _ Identity = accountIdentity{}

// NewIdentityFromAccount adapts an Account to the Identity consumed by
// the token service. Returns nil for a nil account.
func NewIdentityFromAccount(acc *Account) Identity {
	if acc == nil {
		return nil
	}
	return accountIdentity{
		id:          acc.ID.String(),
		displayName: acc.DisplayName,
		email:       acc.Email,
		role:        string(acc.Role),
	}
}
