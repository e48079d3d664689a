// Package stub provides fixed-set and recording host implementations for
// tests and the development harness.
package stub

import (
	"context"
	"sync"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/host"
)

// Authorizer authorizes a fixed set of principals.
type Authorizer struct {
	mu         sync.RWMutex
	authorized map[domain.Name]struct{}
}

// NewAuthorizer creates an Authorizer granting auth to the given principals.
func NewAuthorizer(principals ...domain.Name) *Authorizer {
	a := &Authorizer{authorized: make(map[domain.Name]struct{})}
	for _, p := range principals {
		a.authorized[p] = struct{}{}
	}
	return a
}

// Grant adds principals to the authorized set.
func (a *Authorizer) Grant(principals ...domain.Name) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range principals {
		a.authorized[p] = struct{}{}
	}
}

// Revoke removes principals from the authorized set.
func (a *Authorizer) Revoke(principals ...domain.Name) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range principals {
		delete(a.authorized, p)
	}
}

// HasAuth reports whether the principal is in the authorized set.
func (a *Authorizer) HasAuth(_ context.Context, principal domain.Name) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.authorized[principal]
	return ok
}

var _ host.Authorizer = (*Authorizer)(nil)

// Registry is a fixed set of existing accounts.
type Registry struct {
	mu       sync.RWMutex
	accounts map[domain.Name]struct{}
}

// NewRegistry creates a Registry containing the given accounts.
func NewRegistry(accounts ...domain.Name) *Registry {
	r := &Registry{accounts: make(map[domain.Name]struct{})}
	for _, a := range accounts {
		r.accounts[a] = struct{}{}
	}
	return r
}

// Add registers additional accounts.
func (r *Registry) Add(accounts ...domain.Name) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range accounts {
		r.accounts[a] = struct{}{}
	}
}

// IsAccount reports whether the account is registered.
func (r *Registry) IsAccount(_ context.Context, account domain.Name) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.accounts[account]
	return ok
}

var _ host.AccountRegistry = (*Registry)(nil)

// Notification is one recorded Notify call.
type Notification struct {
	Account domain.Name
	Op      string
}

// Notifier records notifications in call order, for assertions on both the
// recipients and the ordering of notification side effects.
type Notifier struct {
	mu    sync.Mutex
	calls []Notification
}

// NewNotifier creates an empty recording Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify records the call.
func (n *Notifier) Notify(_ context.Context, account domain.Name, op string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, Notification{Account: account, Op: op})
}

// Calls returns the recorded notifications in call order.
func (n *Notifier) Calls() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.calls))
	copy(out, n.calls)
	return out
}

// Reset discards recorded notifications.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = nil
}

var _ host.Notifier = (*Notifier)(nil)
