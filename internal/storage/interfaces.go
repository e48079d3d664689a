package storage

import (
	"context"

	"coffee-ledger/internal/domain"
)

// SupplyStore provides access to supply_stats storage, keyed by symbol code.
type SupplyStore interface {
	// Get retrieves the stat for a symbol code. Returns ErrNotFound if not exists.
	Get(ctx context.Context, code string) (*domain.SupplyStat, error)

	// Insert adds a new stat. Returns ErrDuplicateKey if the code exists.
	Insert(ctx context.Context, st *domain.SupplyStat) error

	// Update replaces the stat row for its symbol code. Returns ErrNotFound
	// if not exists.
	Update(ctx context.Context, st *domain.SupplyStat) error
}

// BalanceStore provides access to balances storage, keyed by (owner, symbol code).
type BalanceStore interface {
	// Get retrieves one balance row. Returns ErrNotFound if not exists.
	Get(ctx context.Context, owner domain.Name, code string) (*domain.Balance, error)

	// Insert adds a new balance row. Returns ErrDuplicateKey if the key exists.
	Insert(ctx context.Context, b *domain.Balance) error

	// Update replaces the balance row for its key. Returns ErrNotFound if
	// not exists. The row's original payer is preserved by callers.
	Update(ctx context.Context, b *domain.Balance) error

	// Delete removes one balance row. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, owner domain.Name, code string) error
}

// StakeStore provides access to stakes storage. Rows are keyed by account
// only, not by (account, symbol).
type StakeStore interface {
	// Get retrieves the stake row for an account. Returns ErrNotFound if not exists.
	Get(ctx context.Context, account domain.Name) (*domain.Stake, error)

	// Insert adds a new stake row. Returns ErrDuplicateKey if the account
	// already has one.
	Insert(ctx context.Context, s *domain.Stake) error

	// Update replaces the stake row for its account. Returns ErrNotFound if
	// not exists.
	Update(ctx context.Context, s *domain.Stake) error

	// Delete removes the stake row. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, account domain.Name) error
}

// BlacklistStore provides access to blacklist storage, keyed by account.
type BlacklistStore interface {
	// Contains reports whether the account has a blacklist entry.
	Contains(ctx context.Context, account domain.Name) (bool, error)

	// Insert adds an entry. Returns ErrDuplicateKey if already present.
	Insert(ctx context.Context, account domain.Name) error

	// Delete removes an entry. Returns ErrNotFound if not present.
	Delete(ctx context.Context, account domain.Name) error
}

// Tx is the view of the four ledger collections inside one transaction.
// Stores obtained from a Tx must not be used after the transaction ends.
type Tx interface {
	Supplies() SupplyStore
	Balances() BalanceStore
	Stakes() StakeStore
	Blacklist() BlacklistStore
}

// Ledger owns the four collections and provides transactional execution.
// Each operation of the policy engine runs inside exactly one InTx call:
// if fn returns an error every write made through the Tx is rolled back.
type Ledger interface {
	// InTx runs fn inside a transaction. The error from fn is returned
	// unchanged after rollback; commit errors are wrapped.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
