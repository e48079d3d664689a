package ledger

import (
	"context"
	"errors"
	"fmt"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/storage"
)

// GetSupply returns the supply stat for a symbol code.
func (e *Engine) GetSupply(ctx context.Context, code string) (*domain.SupplyStat, error) {
	var st *domain.SupplyStat
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		st, err = getSupplyStat(ctx, tx, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// GetBalance returns owner's balance for a symbol code.
func (e *Engine) GetBalance(ctx context.Context, owner domain.Name, code string) (*domain.Balance, error) {
	var b *domain.Balance
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		b, err = tx.Balances().Get(ctx, owner, code)
		if errors.Is(err, storage.ErrNotFound) {
			return notFound("%s holds no %s tokens", owner, code)
		}
		if err != nil {
			return fmt.Errorf("get balance of %s: %w", owner, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetStake returns the staked amount for an account, or nil if nothing is
// staked.
func (e *Engine) GetStake(ctx context.Context, account domain.Name) (*domain.Stake, error) {
	var s *domain.Stake
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		s, err = tx.Stakes().Get(ctx, account)
		if errors.Is(err, storage.ErrNotFound) {
			s = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("get stake of %s: %w", account, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// IsBlacklisted reports whether account is barred.
func (e *Engine) IsBlacklisted(ctx context.Context, account domain.Name) (bool, error) {
	var listed bool
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		listed, err = tx.Blacklist().Contains(ctx, account)
		if err != nil {
			return fmt.Errorf("check blacklist for %s: %w", account, err)
		}
		return nil
	})
	return listed, err
}
