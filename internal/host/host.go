// Package host defines the interfaces the policy engine consumes from its
// environment: caller authorization, account existence and notification
// delivery. Implementations live in host/stub (fixed sets, recording) and
// host/sig (signature-verified authorization).
package host

import (
	"context"

	"coffee-ledger/internal/domain"
)

// Authorizer answers "has principal P authorized this call?".
type Authorizer interface {
	HasAuth(ctx context.Context, principal domain.Name) bool
}

// AccountRegistry answers "does account A exist?".
type AccountRegistry interface {
	IsAccount(ctx context.Context, account domain.Name) bool
}

// Notifier informs a principal that an operation touched it. Delivery is
// fire-and-forget: it must never influence ledger correctness.
type Notifier interface {
	Notify(ctx context.Context, account domain.Name, op string)
}

type authorizedKey struct{}

// WithAuthorized returns a context carrying the set of principals that
// authorized the current call.
func WithAuthorized(ctx context.Context, principals ...domain.Name) context.Context {
	set := make(map[domain.Name]struct{}, len(principals))
	for _, p := range principals {
		set[p] = struct{}{}
	}
	return context.WithValue(ctx, authorizedKey{}, set)
}

// ContextAuthorizer reads the authorized set installed by WithAuthorized.
// It is the per-request Authorizer used by the service harness.
type ContextAuthorizer struct{}

// HasAuth reports whether the principal is in the context's authorized set.
func (ContextAuthorizer) HasAuth(ctx context.Context, principal domain.Name) bool {
	set, ok := ctx.Value(authorizedKey{}).(map[domain.Name]struct{})
	if !ok {
		return false
	}
	_, ok = set[principal]
	return ok
}

var _ Authorizer = ContextAuthorizer{}
