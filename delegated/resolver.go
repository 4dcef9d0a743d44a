package delegated

import (
	"context"

	"github.com/goliatone/caseauth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Status tags the result of resolving a provider profile against the
// account store.
type Status int

const (
	// StatusAccepted means an existing delegated account matched.
	StatusAccepted Status = iota
	// StatusCreated means a new delegated account was provisioned.
	StatusCreated
	// StatusRejected means the flow was refused with a user-facing reason.
	StatusRejected
)

// Outcome is the three-way result of a resolution. Store or provider
// failures are reported through the error return instead, so callers
// can keep user-facing rejections apart from operational faults.
type Outcome struct {
	Status  Status
	Account *caseauth.Account
	// Reason is set only when Status is StatusRejected.
	Reason string
}

// Resolver maps a provider profile plus a declared intent onto a local
// account. Rejections never write to the store; a delegated identity is
// never attached to an existing local-credential account just because
// the emails match.
type Resolver struct {
	store  caseauth.AccountStore
	logger caseauth.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(logger caseauth.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver backed by the given account store.
func NewResolver(store caseauth.AccountStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:  store,
		logger: caseauth.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Resolve runs the intent state machine for a verified provider profile.
func (r *Resolver) Resolve(ctx context.Context, intent string, profile *Profile) (*Outcome, error) {
	if profile == nil || profile.SubjectID == "" {
		return nil, ErrProfileFailed
	}

	switch intent {
	case IntentSignup:
		return r.resolveSignup(ctx, profile)
	case IntentLogin:
		return r.resolveLogin(ctx, profile)
	default:
		r.logger.Warn("delegated auth: unknown intent %q for provider %s", intent, profile.Provider)
		return rejected(ReasonInvalidIntent), nil
	}
}

func (r *Resolver) resolveSignup(ctx context.Context, profile *Profile) (*Outcome, error) {
	if _, err := r.store.FindByExternalID(ctx, profile.SubjectID); err == nil {
		return rejected(ReasonAlreadyRegistered), nil
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "provider identity lookup failed")
	}

	if _, err := r.store.FindByEmail(ctx, profile.Email); err == nil {
		return rejected(ReasonEmailInUse), nil
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
	}

	account := &caseauth.Account{
		ExternalID:  profile.SubjectID,
		Email:       profile.Email,
		DisplayName: profile.Name,
		Role:        caseauth.RoleLawyer,
	}

	created, err := r.store.CreateAccount(ctx, account)
	if err != nil {
		// A lost race on a unique index reads the same as a
		// sequential duplicate.
		if goerrors.Is(err, caseauth.ErrIdentityTaken) {
			return rejected(ReasonAlreadyRegistered), nil
		}
		if goerrors.Is(err, caseauth.ErrEmailTaken) {
			return rejected(ReasonEmailInUse), nil
		}
		return nil, err
	}

	r.logger.Info("delegated auth: provisioned account %s via %s", created.ID, profile.Provider)

	return &Outcome{Status: StatusCreated, Account: created}, nil
}

func (r *Resolver) resolveLogin(ctx context.Context, profile *Profile) (*Outcome, error) {
	account, err := r.store.FindByExternalID(ctx, profile.SubjectID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return rejected(ReasonNotRegistered), nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "provider identity lookup failed")
	}

	return &Outcome{Status: StatusAccepted, Account: account}, nil
}

func rejected(reason string) *Outcome {
	return &Outcome{Status: StatusRejected, Reason: reason}
}
