package ledger

import (
	"context"
	"errors"
	"fmt"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/storage"
)

// Stake locks quantity of from's balance. Locked tokens remain on the
// balance but cannot be transferred until unstaked. Only the staking
// controller may call it.
//
// The stake table is keyed by account alone, so a second stake in a
// different currency accumulates into the same row.
func (e *Engine) Stake(ctx context.Context, from domain.Name, quantity domain.Amount) error {
	payload := fmt.Sprintf("from=%s quantity=%s", from, quantity)
	return e.run(ctx, "stake", &from, payload, func(tx storage.Tx) error {
		if err := e.requireAuth(ctx, e.cfg.StakingController); err != nil {
			return err
		}
		if err := checkQuantity(quantity); err != nil {
			return err
		}

		bal, err := tx.Balances().Get(ctx, from, quantity.Symbol.Code)
		if errors.Is(err, storage.ErrNotFound) {
			return notFound("%s holds no %s tokens", from, quantity.Symbol.Code)
		}
		if err != nil {
			return fmt.Errorf("get balance of %s: %w", from, err)
		}
		if bal.Amount.Value < quantity.Value {
			return policy("cannot stake %s: %s holds only %s", quantity, from, bal.Amount)
		}

		stake, err := tx.Stakes().Get(ctx, from)
		if errors.Is(err, storage.ErrNotFound) {
			row := &domain.Stake{Account: from, Staked: quantity}
			if err := tx.Stakes().Insert(ctx, row); err != nil {
				return fmt.Errorf("create stake of %s: %w", from, err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("get stake of %s: %w", from, err)
		}

		if bal.Amount.Value-stake.Staked.Value < quantity.Value {
			return policy("cannot stake %s: %s already has %s staked of %s", quantity, from, stake.Staked, bal.Amount)
		}
		stake.Staked, err = stake.Staked.Add(quantity)
		if err != nil {
			return fromArithmetic(err)
		}
		if err := tx.Stakes().Update(ctx, stake); err != nil {
			return fmt.Errorf("update stake of %s: %w", from, err)
		}
		return nil
	})
}

// Unstake releases quantity of from's locked tokens. Releasing the full
// staked amount removes the row. Only the staking controller may call it.
func (e *Engine) Unstake(ctx context.Context, from domain.Name, quantity domain.Amount) error {
	payload := fmt.Sprintf("from=%s quantity=%s", from, quantity)
	return e.run(ctx, "unstake", &from, payload, func(tx storage.Tx) error {
		if err := e.requireAuth(ctx, e.cfg.StakingController); err != nil {
			return err
		}
		if err := checkQuantity(quantity); err != nil {
			return err
		}

		stake, err := tx.Stakes().Get(ctx, from)
		if errors.Is(err, storage.ErrNotFound) {
			return notFound("%s has nothing staked", from)
		}
		if err != nil {
			return fmt.Errorf("get stake of %s: %w", from, err)
		}

		if stake.Staked.Value == quantity.Value {
			if err := tx.Stakes().Delete(ctx, from); err != nil {
				return fmt.Errorf("delete stake of %s: %w", from, err)
			}
			return nil
		}
		if stake.Staked.Value < quantity.Value {
			return policy("cannot unstake %s: %s has only %s staked", quantity, from, stake.Staked)
		}
		stake.Staked, err = stake.Staked.Sub(quantity)
		if err != nil {
			return fromArithmetic(err)
		}
		if err := tx.Stakes().Update(ctx, stake); err != nil {
			return fmt.Errorf("update stake of %s: %w", from, err)
		}
		return nil
	})
}
