package ledger

import (
	"context"
	"errors"
	"fmt"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/storage"
)

// Create registers a new token: a SupplyStat with zero supply, the given
// ceiling and the given issuer. Only the ledger's own principal may call it.
func (e *Engine) Create(ctx context.Context, issuer domain.Name, maxSupply domain.Amount) error {
	payload := fmt.Sprintf("issuer=%s max_supply=%s", issuer, maxSupply)
	return e.run(ctx, "create", &issuer, payload, func(tx storage.Tx) error {
		if err := e.requireAuth(ctx, e.cfg.Self); err != nil {
			return err
		}
		if err := maxSupply.Validate(); err != nil {
			return invalid("invalid max supply: %v", err)
		}
		if !maxSupply.IsPositive() {
			return invalid("max supply must be positive, got %s", maxSupply)
		}
		if err := issuer.Validate(); err != nil {
			return invalid("invalid issuer: %v", err)
		}

		code := maxSupply.Symbol.Code
		_, err := tx.Supplies().Get(ctx, code)
		if err == nil {
			return alreadyExists("token %s already exists", code)
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("get supply stat for %s: %w", code, err)
		}

		st := &domain.SupplyStat{
			Supply:    domain.Amount{Value: 0, Symbol: maxSupply.Symbol},
			MaxSupply: maxSupply,
			Issuer:    issuer,
		}
		if err := tx.Supplies().Insert(ctx, st); err != nil {
			return fmt.Errorf("insert supply stat for %s: %w", code, err)
		}
		return nil
	})
}

// Issue mints quantity to the issuer account, growing supply up to the
// ceiling. Tokens can only be issued to the issuer; the issuer must have
// authorized the call.
func (e *Engine) Issue(ctx context.Context, to domain.Name, quantity domain.Amount, memo string) error {
	payload := fmt.Sprintf("to=%s quantity=%s", to, quantity)
	return e.run(ctx, "issue", &to, payload, func(tx storage.Tx) error {
		if err := e.requireNotBlacklisted(ctx, tx, to); err != nil {
			return err
		}
		if err := quantity.Symbol.Validate(); err != nil {
			return invalid("invalid symbol: %v", err)
		}
		if err := checkMemo(memo); err != nil {
			return err
		}

		st, err := getSupplyStat(ctx, tx, quantity.Symbol.Code)
		if err != nil {
			return err
		}
		if to != st.Issuer {
			return invalid("tokens can only be issued to the issuer account %s", st.Issuer)
		}
		e.notify(ctx, to, "issue")
		if err := e.requireAuth(ctx, st.Issuer); err != nil {
			return err
		}
		if err := checkQuantity(quantity); err != nil {
			return err
		}
		if !quantity.Symbol.Equal(st.Supply.Symbol) {
			return invalid("symbol precision mismatch: %s vs %s", quantity.Symbol, st.Supply.Symbol)
		}
		if quantity.Value > st.MaxSupply.Value-st.Supply.Value {
			return policy("quantity %s exceeds available supply %s", quantity,
				domain.Amount{Value: st.MaxSupply.Value - st.Supply.Value, Symbol: st.Supply.Symbol})
		}

		st.Supply, err = st.Supply.Add(quantity)
		if err != nil {
			return fromArithmetic(err)
		}
		if err := tx.Supplies().Update(ctx, st); err != nil {
			return fmt.Errorf("update supply stat: %w", err)
		}
		return e.addBalance(ctx, tx, st.Issuer, quantity, st.Issuer)
	})
}

// Retire destroys quantity from the issuer's balance and shrinks supply.
// The ceiling is untouched, unlike Burn.
func (e *Engine) Retire(ctx context.Context, quantity domain.Amount, memo string) error {
	payload := fmt.Sprintf("quantity=%s", quantity)

	var actor domain.Name
	return e.run(ctx, "retire", &actor, payload, func(tx storage.Tx) error {
		if err := quantity.Symbol.Validate(); err != nil {
			return invalid("invalid symbol: %v", err)
		}
		if err := checkMemo(memo); err != nil {
			return err
		}

		st, err := getSupplyStat(ctx, tx, quantity.Symbol.Code)
		if err != nil {
			return err
		}
		actor = st.Issuer
		if err := e.requireAuth(ctx, st.Issuer); err != nil {
			return err
		}
		if err := checkQuantity(quantity); err != nil {
			return err
		}
		if !quantity.Symbol.Equal(st.Supply.Symbol) {
			return invalid("symbol precision mismatch: %s vs %s", quantity.Symbol, st.Supply.Symbol)
		}

		st.Supply, err = st.Supply.Sub(quantity)
		if err != nil {
			return fromArithmetic(err)
		}
		if err := tx.Supplies().Update(ctx, st); err != nil {
			return fmt.Errorf("update supply stat: %w", err)
		}
		return e.subBalance(ctx, tx, st.Issuer, quantity)
	})
}

// Burn destroys quantity of the burnable currency from sender's balance,
// permanently shrinking both supply and the ceiling. Only trusted bridge
// accounts may trigger it.
func (e *Engine) Burn(ctx context.Context, sender, from domain.Name, quantity domain.Amount, memo string) error {
	payload := fmt.Sprintf("sender=%s from=%s quantity=%s", sender, from, quantity)
	return e.run(ctx, "burn", &from, payload, func(tx storage.Tx) error {
		if !quantity.Symbol.Equal(e.cfg.BurnSymbol) {
			return invalid("only %s may be burned, got %s", e.cfg.BurnSymbol, quantity.Symbol)
		}
		if !e.cfg.isTrustedBurnSource(from) {
			return policy("%s is not a trusted burn source", from)
		}
		if err := e.requireAuth(ctx, from); err != nil {
			return err
		}

		st, err := getSupplyStat(ctx, tx, quantity.Symbol.Code)
		if err != nil {
			return err
		}

		e.notify(ctx, from, "burn")
		e.notify(ctx, sender, "burn")

		if err := checkQuantity(quantity); err != nil {
			return err
		}
		if !quantity.Symbol.Equal(st.Supply.Symbol) {
			return invalid("symbol precision mismatch: %s vs %s", quantity.Symbol, st.Supply.Symbol)
		}
		if err := checkMemo(memo); err != nil {
			return err
		}
		if st.MaxSupply.Value-quantity.Value < 0 {
			return policy("burn of %s exceeds remaining max supply %s", quantity, st.MaxSupply)
		}

		st.Supply, err = st.Supply.Sub(quantity)
		if err != nil {
			return fromArithmetic(err)
		}
		st.MaxSupply, err = st.MaxSupply.Sub(quantity)
		if err != nil {
			return fromArithmetic(err)
		}
		if err := tx.Supplies().Update(ctx, st); err != nil {
			return fmt.Errorf("update supply stat: %w", err)
		}
		return e.subBalance(ctx, tx, sender, quantity)
	})
}
