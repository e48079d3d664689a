package ledger

import (
	"context"
	"errors"
	"fmt"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/storage"
)

// Open creates a zero balance row for owner in the given currency, charged
// to ramPayer. Opening an account that already holds a row is a no-op.
func (e *Engine) Open(ctx context.Context, owner domain.Name, symbol domain.Symbol, ramPayer domain.Name) error {
	payload := fmt.Sprintf("owner=%s symbol=%s ram_payer=%s", owner, symbol, ramPayer)
	return e.run(ctx, "open", &owner, payload, func(tx storage.Tx) error {
		if err := e.requireAuth(ctx, ramPayer); err != nil {
			return err
		}
		if err := e.requireNotBlacklisted(ctx, tx, owner); err != nil {
			return err
		}
		if err := e.requireNotBlacklisted(ctx, tx, ramPayer); err != nil {
			return err
		}
		if !e.accounts.IsAccount(ctx, owner) {
			return notFound("owner account %s does not exist", owner)
		}
		if err := symbol.Validate(); err != nil {
			return invalid("invalid symbol: %v", err)
		}

		st, err := getSupplyStat(ctx, tx, symbol.Code)
		if err != nil {
			return err
		}
		if !symbol.Equal(st.Supply.Symbol) {
			return invalid("symbol precision mismatch: %s vs %s", symbol, st.Supply.Symbol)
		}

		_, err = tx.Balances().Get(ctx, owner, symbol.Code)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("get balance of %s: %w", owner, err)
		}

		row := &domain.Balance{
			Owner:  owner,
			Amount: domain.Amount{Value: 0, Symbol: st.Supply.Symbol},
			Payer:  ramPayer,
		}
		if err := tx.Balances().Insert(ctx, row); err != nil {
			return fmt.Errorf("create balance of %s: %w", owner, err)
		}
		return nil
	})
}

// Close deletes owner's zero balance row for the given currency, releasing
// the storage charged to its payer.
func (e *Engine) Close(ctx context.Context, owner domain.Name, symbol domain.Symbol) error {
	payload := fmt.Sprintf("owner=%s symbol=%s", owner, symbol)
	return e.run(ctx, "close", &owner, payload, func(tx storage.Tx) error {
		if err := e.requireAuth(ctx, owner); err != nil {
			return err
		}
		if err := e.requireNotBlacklisted(ctx, tx, owner); err != nil {
			return err
		}
		if err := symbol.Validate(); err != nil {
			return invalid("invalid symbol: %v", err)
		}

		b, err := tx.Balances().Get(ctx, owner, symbol.Code)
		if errors.Is(err, storage.ErrNotFound) {
			return notFound("%s holds no %s balance to close", owner, symbol.Code)
		}
		if err != nil {
			return fmt.Errorf("get balance of %s: %w", owner, err)
		}
		if b.Amount.Value != 0 {
			return policy("cannot close %s balance of %s: %s remains", symbol.Code, owner, b.Amount)
		}

		if err := tx.Balances().Delete(ctx, owner, symbol.Code); err != nil {
			return fmt.Errorf("delete balance of %s: %w", owner, err)
		}
		return nil
	})
}
