package ledger

import (
	"context"
	"fmt"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/storage"
)

// AddToBlacklist bars account from issue, transfer, open and close. Only the
// ledger's own principal may call it, and the principal cannot bar itself.
func (e *Engine) AddToBlacklist(ctx context.Context, account domain.Name) error {
	payload := fmt.Sprintf("account=%s", account)
	return e.run(ctx, "addblacklist", &account, payload, func(tx storage.Tx) error {
		if err := e.requireAuth(ctx, e.cfg.Self); err != nil {
			return err
		}
		if account == e.cfg.Self {
			return invalid("cannot blacklist %s itself", e.cfg.Self)
		}
		if err := account.Validate(); err != nil {
			return invalid("invalid account: %v", err)
		}

		e.notify(ctx, account, "addblacklist")

		listed, err := tx.Blacklist().Contains(ctx, account)
		if err != nil {
			return fmt.Errorf("check blacklist for %s: %w", account, err)
		}
		if listed {
			return alreadyExists("account %s is already blacklisted", account)
		}
		if err := tx.Blacklist().Insert(ctx, account); err != nil {
			return fmt.Errorf("blacklist %s: %w", account, err)
		}
		return nil
	})
}

// RemoveFromBlacklist restores a barred account.
func (e *Engine) RemoveFromBlacklist(ctx context.Context, account domain.Name) error {
	payload := fmt.Sprintf("account=%s", account)
	return e.run(ctx, "rmblacklist", &account, payload, func(tx storage.Tx) error {
		if err := e.requireAuth(ctx, e.cfg.Self); err != nil {
			return err
		}
		if err := account.Validate(); err != nil {
			return invalid("invalid account: %v", err)
		}

		e.notify(ctx, account, "rmblacklist")

		listed, err := tx.Blacklist().Contains(ctx, account)
		if err != nil {
			return fmt.Errorf("check blacklist for %s: %w", account, err)
		}
		if !listed {
			return notFound("account %s is not blacklisted", account)
		}
		if err := tx.Blacklist().Delete(ctx, account); err != nil {
			return fmt.Errorf("unblacklist %s: %w", account, err)
		}
		return nil
	})
}
