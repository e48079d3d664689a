package ledger

import (
	"context"
	"errors"
	"fmt"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/storage"
)

// Transfer moves quantity from one account to another. Every transfer also
// debits the flat fee from the sender's balance in the fee currency and
// removes the fee from that currency's circulating and maximum supply.
// Staked tokens stay locked: the sender's balance after the fee must cover
// both the quantity and the staked amount.
func (e *Engine) Transfer(ctx context.Context, from, to domain.Name, quantity domain.Amount, memo string) error {
	payload := fmt.Sprintf("from=%s to=%s quantity=%s", from, to, quantity)
	return e.run(ctx, "transfer", &from, payload, func(tx storage.Tx) error {
		if from == to {
			return invalid("cannot transfer to self")
		}
		if err := e.requireAuth(ctx, from); err != nil {
			return err
		}
		if err := e.requireNotBlacklisted(ctx, tx, from); err != nil {
			return err
		}
		if err := e.requireNotBlacklisted(ctx, tx, to); err != nil {
			return err
		}
		if !e.accounts.IsAccount(ctx, to) {
			return notFound("to account %s does not exist", to)
		}
		if err := quantity.Symbol.Validate(); err != nil {
			return invalid("invalid symbol: %v", err)
		}

		st, err := getSupplyStat(ctx, tx, quantity.Symbol.Code)
		if err != nil {
			return err
		}

		e.notify(ctx, from, "transfer")
		e.notify(ctx, to, "transfer")

		if err := checkQuantity(quantity); err != nil {
			return err
		}
		if !quantity.Symbol.Equal(st.Supply.Symbol) {
			return invalid("symbol precision mismatch: %s vs %s", quantity.Symbol, st.Supply.Symbol)
		}
		if err := checkMemo(memo); err != nil {
			return err
		}

		payer := from
		if e.auth.HasAuth(ctx, to) {
			payer = to
		}

		if err := e.chargeFee(ctx, tx, from); err != nil {
			return err
		}
		if err := e.checkStakeLock(ctx, tx, from, quantity); err != nil {
			return err
		}
		if err := e.subBalance(ctx, tx, from, quantity); err != nil {
			return err
		}
		return e.addBalance(ctx, tx, to, quantity, payer)
	})
}

// chargeFee debits the flat fee from the sender and shrinks the fee
// currency's supply and ceiling, so fees leave circulation for good.
func (e *Engine) chargeFee(ctx context.Context, tx storage.Tx, from domain.Name) error {
	fee := e.cfg.Fee
	if err := e.subBalance(ctx, tx, from, fee); err != nil {
		if errors.Is(err, ErrNotFound) {
			return policy("%s holds no %s to cover the transfer fee", from, fee.Symbol.Code)
		}
		return err
	}

	st, err := getSupplyStat(ctx, tx, fee.Symbol.Code)
	if err != nil {
		return err
	}
	st.Supply, err = st.Supply.Sub(fee)
	if err != nil {
		return fromArithmetic(err)
	}
	st.MaxSupply, err = st.MaxSupply.Sub(fee)
	if err != nil {
		return fromArithmetic(err)
	}
	if err := tx.Supplies().Update(ctx, st); err != nil {
		return fmt.Errorf("update fee supply stat: %w", err)
	}
	return nil
}

// checkStakeLock verifies the sender's post-fee balance leaves the staked
// amount untouched after sending quantity.
func (e *Engine) checkStakeLock(ctx context.Context, tx storage.Tx, from domain.Name, quantity domain.Amount) error {
	stake, err := tx.Stakes().Get(ctx, from)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get stake of %s: %w", from, err)
	}

	bal, err := tx.Balances().Get(ctx, from, quantity.Symbol.Code)
	if errors.Is(err, storage.ErrNotFound) {
		return notFound("%s holds no %s tokens", from, quantity.Symbol.Code)
	}
	if err != nil {
		return fmt.Errorf("get balance of %s: %w", from, err)
	}

	if stake.Staked.Value > bal.Amount.Value-quantity.Value {
		return policy("%s has %s staked, only %s is transferable", from, stake.Staked,
			domain.Amount{Value: bal.Amount.Value - stake.Staked.Value, Symbol: bal.Amount.Symbol})
	}
	return nil
}
