// Package caseauth is the identity and access-control layer of the case
// management application. It reconciles two credential mechanisms, local
// email/password and a delegated identity provider, into a single Account
// model, issues signed expiring bearer tokens, and gates routes by role.
//
// Accounts:
//   - An Account is created exactly once, either by local registration or by
//     a delegated signup decision. Email is unique across both mechanisms and
//     a delegated identity (provider subject) maps to at most one account.
//     Both constraints live in the database so racing duplicate inserts
//     cannot both succeed.
//
// Delegated identity:
//   - The delegated package resolves a provider assertion plus a declared
//     intent (signup or login) into a three-way outcome: create a new
//     account, accept an existing one, or reject with a user-facing reason.
//     Intent is mandatory because the provider callback is otherwise
//     symmetric. The resolver never links a delegated identity to an
//     existing local account on email match alone.
//
// Authorization:
//   - middleware/guard validates the bearer cookie, checks the route's
//     permitted role set, and delegates failure presentation to a Presenter
//     so JSON API clients and server-rendered pages each get the failure
//     shape they expect.
package caseauth
