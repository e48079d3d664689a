package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/storage"
)

// Ledger implements storage.Ledger using PostgreSQL. Every InTx call runs in
// a SERIALIZABLE transaction so an operation's reads and writes are isolated
// from concurrent operations.
type Ledger struct {
	pool *Pool
}

// NewLedger creates a new postgres-backed ledger.
func NewLedger(pool *Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Compile-time interface check.
var _ storage.Ledger = (*Ledger)(nil)

// InTx runs fn inside one transaction; any error from fn rolls it back.
func (l *Ledger) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}

	if err := fn(&ledgerTx{ctxTx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

type ledgerTx struct {
	ctxTx pgx.Tx
}

func (t *ledgerTx) Supplies() storage.SupplyStore     { return &supplyStore{tx: t.ctxTx} }
func (t *ledgerTx) Balances() storage.BalanceStore    { return &balanceStore{tx: t.ctxTx} }
func (t *ledgerTx) Stakes() storage.StakeStore        { return &stakeStore{tx: t.ctxTx} }
func (t *ledgerTx) Blacklist() storage.BlacklistStore { return &blacklistStore{tx: t.ctxTx} }

var _ storage.Tx = (*ledgerTx)(nil)

// supplyStore implements storage.SupplyStore on one transaction.
type supplyStore struct {
	tx pgx.Tx
}

func (s *supplyStore) Get(ctx context.Context, code string) (*domain.SupplyStat, error) {
	query := `
		SELECT symbol_code, precision, supply, max_supply, issuer
		FROM supply_stats
		WHERE symbol_code = $1
	`

	var st domain.SupplyStat
	var symCode, issuer string
	var precision uint8
	err := s.tx.QueryRow(ctx, query, code).Scan(
		&symCode,
		&precision,
		&st.Supply.Value,
		&st.MaxSupply.Value,
		&issuer,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get supply stat: %w", err)
	}

	sym := domain.Symbol{Code: symCode, Precision: precision}
	st.Supply.Symbol = sym
	st.MaxSupply.Symbol = sym
	st.Issuer = domain.Name(issuer)
	return &st, nil
}

func (s *supplyStore) Insert(ctx context.Context, st *domain.SupplyStat) error {
	if st == nil || st.Supply.Symbol.Code == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO supply_stats (symbol_code, precision, supply, max_supply, issuer)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.tx.Exec(ctx, query,
		st.Supply.Symbol.Code,
		st.Supply.Symbol.Precision,
		st.Supply.Value,
		st.MaxSupply.Value,
		string(st.Issuer),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert supply stat: %w", err)
	}
	return nil
}

func (s *supplyStore) Update(ctx context.Context, st *domain.SupplyStat) error {
	if st == nil || st.Supply.Symbol.Code == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE supply_stats
		SET supply = $2, max_supply = $3, issuer = $4
		WHERE symbol_code = $1
	`
	tag, err := s.tx.Exec(ctx, query,
		st.Supply.Symbol.Code,
		st.Supply.Value,
		st.MaxSupply.Value,
		string(st.Issuer),
	)
	if err != nil {
		return fmt.Errorf("update supply stat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// balanceStore implements storage.BalanceStore on one transaction.
type balanceStore struct {
	tx pgx.Tx
}

func (s *balanceStore) Get(ctx context.Context, owner domain.Name, code string) (*domain.Balance, error) {
	query := `
		SELECT owner, symbol_code, precision, value, ram_payer
		FROM balances
		WHERE owner = $1 AND symbol_code = $2
	`

	var b domain.Balance
	var ownerStr, payer, symCode string
	var precision uint8
	err := s.tx.QueryRow(ctx, query, string(owner), code).Scan(
		&ownerStr,
		&symCode,
		&precision,
		&b.Amount.Value,
		&payer,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}

	b.Owner = domain.Name(ownerStr)
	b.Payer = domain.Name(payer)
	b.Amount.Symbol = domain.Symbol{Code: symCode, Precision: precision}
	return &b, nil
}

func (s *balanceStore) Insert(ctx context.Context, b *domain.Balance) error {
	if b == nil || b.Owner == "" || b.Amount.Symbol.Code == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO balances (owner, symbol_code, precision, value, ram_payer)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.tx.Exec(ctx, query,
		string(b.Owner),
		b.Amount.Symbol.Code,
		b.Amount.Symbol.Precision,
		b.Amount.Value,
		string(b.Payer),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert balance: %w", err)
	}
	return nil
}

func (s *balanceStore) Update(ctx context.Context, b *domain.Balance) error {
	if b == nil || b.Owner == "" || b.Amount.Symbol.Code == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE balances
		SET value = $3, ram_payer = $4
		WHERE owner = $1 AND symbol_code = $2
	`
	tag, err := s.tx.Exec(ctx, query,
		string(b.Owner),
		b.Amount.Symbol.Code,
		b.Amount.Value,
		string(b.Payer),
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *balanceStore) Delete(ctx context.Context, owner domain.Name, code string) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM balances WHERE owner = $1 AND symbol_code = $2`, string(owner), code)
	if err != nil {
		return fmt.Errorf("delete balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// stakeStore implements storage.StakeStore on one transaction.
type stakeStore struct {
	tx pgx.Tx
}

func (s *stakeStore) Get(ctx context.Context, account domain.Name) (*domain.Stake, error) {
	query := `
		SELECT account, symbol_code, precision, staked
		FROM stakes
		WHERE account = $1
	`

	var st domain.Stake
	var acct, symCode string
	var precision uint8
	err := s.tx.QueryRow(ctx, query, string(account)).Scan(
		&acct,
		&symCode,
		&precision,
		&st.Staked.Value,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get stake: %w", err)
	}

	st.Account = domain.Name(acct)
	st.Staked.Symbol = domain.Symbol{Code: symCode, Precision: precision}
	return &st, nil
}

func (s *stakeStore) Insert(ctx context.Context, st *domain.Stake) error {
	if st == nil || st.Account == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO stakes (account, symbol_code, precision, staked)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.tx.Exec(ctx, query,
		string(st.Account),
		st.Staked.Symbol.Code,
		st.Staked.Symbol.Precision,
		st.Staked.Value,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert stake: %w", err)
	}
	return nil
}

func (s *stakeStore) Update(ctx context.Context, st *domain.Stake) error {
	if st == nil || st.Account == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE stakes
		SET symbol_code = $2, precision = $3, staked = $4
		WHERE account = $1
	`
	tag, err := s.tx.Exec(ctx, query,
		string(st.Account),
		st.Staked.Symbol.Code,
		st.Staked.Symbol.Precision,
		st.Staked.Value,
	)
	if err != nil {
		return fmt.Errorf("update stake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *stakeStore) Delete(ctx context.Context, account domain.Name) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM stakes WHERE account = $1`, string(account))
	if err != nil {
		return fmt.Errorf("delete stake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// blacklistStore implements storage.BlacklistStore on one transaction.
type blacklistStore struct {
	tx pgx.Tx
}

func (s *blacklistStore) Contains(ctx context.Context, account domain.Name) (bool, error) {
	var exists bool
	err := s.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM blacklist WHERE account = $1)`, string(account)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

func (s *blacklistStore) Insert(ctx context.Context, account domain.Name) error {
	if account == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.tx.Exec(ctx, `INSERT INTO blacklist (account) VALUES ($1)`, string(account))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert blacklist entry: %w", err)
	}
	return nil
}

func (s *blacklistStore) Delete(ctx context.Context, account domain.Name) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM blacklist WHERE account = $1`, string(account))
	if err != nil {
		return fmt.Errorf("delete blacklist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
