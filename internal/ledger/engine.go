// Package ledger implements the policy engine: the operations that read and
// write the four ledger collections under validation rules. Each operation
// validates, then mutates, inside exactly one storage transaction: a failure
// at any step rolls back every write of that operation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/host"
	"coffee-ledger/internal/journal"
	"coffee-ledger/internal/observability"
	"coffee-ledger/internal/storage"
)

// MaxMemoLen is the maximum memo length in bytes.
const MaxMemoLen = 256

// Deps are the collaborators the engine consumes from its host.
type Deps struct {
	Store    storage.Ledger
	Auth     host.Authorizer
	Accounts host.AccountRegistry
	Notifier host.Notifier

	// Journal receives an event per committed operation. Optional.
	Journal journal.Writer
	// Metrics records operation outcomes and latency. Optional.
	Metrics *observability.Metrics
	// Logger receives journal append failures. Optional.
	Logger *log.Logger
}

// Engine executes ledger operations.
type Engine struct {
	cfg      Config
	store    storage.Ledger
	auth     host.Authorizer
	accounts host.AccountRegistry
	notifier host.Notifier
	journal  journal.Writer
	metrics  *observability.Metrics
	logger   *log.Logger
	seq      atomic.Uint64
}

// New creates an Engine. Store, Auth, Accounts and Notifier are required.
func New(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ledger config: %w", err)
	}
	if deps.Store == nil || deps.Auth == nil || deps.Accounts == nil || deps.Notifier == nil {
		return nil, fmt.Errorf("ledger engine requires store, authorizer, account registry and notifier")
	}

	e := &Engine{
		cfg:      cfg,
		store:    deps.Store,
		auth:     deps.Auth,
		accounts: deps.Accounts,
		notifier: deps.Notifier,
		journal:  deps.Journal,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
	if e.journal == nil {
		e.journal = journal.Nop{}
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}
	return e, nil
}

// Config returns the engine's policy configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// run executes one named operation inside a transaction, records metrics and,
// on commit, appends a journal event attributed to actor. The actor is read
// after fn returns so operations that resolve it mid-transaction, such as
// Retire, can fill it from inside the closure.
func (e *Engine) run(ctx context.Context, op string, actor *domain.Name, payload string, fn func(tx storage.Tx) error) error {
	start := time.Now()
	err := e.store.InTx(ctx, fn)
	e.metrics.ObserveOperation(op, Kind(err), time.Since(start))
	if err != nil {
		return err
	}

	seq := e.seq.Add(1)
	if jerr := e.journal.Append(ctx, journal.NewEvent(op, *actor, payload, seq)); jerr != nil {
		// The journal is advisory; the operation has already committed.
		e.logger.Printf("journal append failed for %s seq %d: %v", op, seq, jerr)
		if e.metrics != nil {
			e.metrics.JournalErrors.Inc()
		}
	} else if e.metrics != nil {
		e.metrics.JournalEventsWritten.Inc()
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, account domain.Name, op string) {
	e.notifier.Notify(ctx, account, op)
	if e.metrics != nil {
		e.metrics.NotificationsSent.Inc()
	}
}

// requireAuth fails with Unauthorized unless principal authorized the call.
func (e *Engine) requireAuth(ctx context.Context, principal domain.Name) error {
	if !e.auth.HasAuth(ctx, principal) {
		return unauthorized("missing authorization of %s", principal)
	}
	return nil
}

// requireNotBlacklisted fails with PolicyViolation for blacklisted accounts.
func (e *Engine) requireNotBlacklisted(ctx context.Context, tx storage.Tx, account domain.Name) error {
	listed, err := tx.Blacklist().Contains(ctx, account)
	if err != nil {
		return fmt.Errorf("check blacklist for %s: %w", account, err)
	}
	if listed {
		return policy("account %s is blacklisted", account)
	}
	return nil
}

// checkQuantity validates that quantity has a well-formed symbol and a
// strictly positive value.
func checkQuantity(quantity domain.Amount) error {
	if err := quantity.Validate(); err != nil {
		return invalid("invalid quantity: %v", err)
	}
	if !quantity.IsPositive() {
		return invalid("quantity must be positive, got %s", quantity)
	}
	return nil
}

func checkMemo(memo string) error {
	if len(memo) > MaxMemoLen {
		return invalid("memo has %d bytes, maximum is %d", len(memo), MaxMemoLen)
	}
	return nil
}

// subBalance debits owner by value. Fails with NotFound if owner holds no
// row for that symbol and with PolicyViolation if the row would go negative.
// The row's original payer is retained.
func (e *Engine) subBalance(ctx context.Context, tx storage.Tx, owner domain.Name, value domain.Amount) error {
	b, err := tx.Balances().Get(ctx, owner, value.Symbol.Code)
	if errors.Is(err, storage.ErrNotFound) {
		return notFound("%s holds no %s tokens", owner, value.Symbol.Code)
	}
	if err != nil {
		return fmt.Errorf("get balance of %s: %w", owner, err)
	}

	if b.Amount.Value < value.Value {
		return policy("overdrawn balance: %s holds %s, needs %s", owner, b.Amount, value)
	}
	b.Amount, err = b.Amount.Sub(value)
	if err != nil {
		return fromArithmetic(err)
	}
	if err := tx.Balances().Update(ctx, b); err != nil {
		return fmt.Errorf("update balance of %s: %w", owner, err)
	}
	return nil
}

// addBalance credits owner by value, creating the row charged to payer if it
// does not exist. An existing row keeps its original payer.
func (e *Engine) addBalance(ctx context.Context, tx storage.Tx, owner domain.Name, value domain.Amount, payer domain.Name) error {
	b, err := tx.Balances().Get(ctx, owner, value.Symbol.Code)
	if errors.Is(err, storage.ErrNotFound) {
		row := &domain.Balance{Owner: owner, Amount: value, Payer: payer}
		if err := tx.Balances().Insert(ctx, row); err != nil {
			return fmt.Errorf("create balance of %s: %w", owner, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get balance of %s: %w", owner, err)
	}

	b.Amount, err = b.Amount.Add(value)
	if err != nil {
		return fromArithmetic(err)
	}
	if err := tx.Balances().Update(ctx, b); err != nil {
		return fmt.Errorf("update balance of %s: %w", owner, err)
	}
	return nil
}

// getSupplyStat loads the stat for a symbol code, mapping a missing row to
// the NotFound failure kind.
func getSupplyStat(ctx context.Context, tx storage.Tx, code string) (*domain.SupplyStat, error) {
	st, err := tx.Supplies().Get(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound("token %s does not exist", code)
	}
	if err != nil {
		return nil, fmt.Errorf("get supply stat for %s: %w", code, err)
	}
	return st, nil
}
