package memory

import (
	"context"
	"sync"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/storage"
)

// Ledger is an in-memory implementation of storage.Ledger. A single mutex
// serializes transactions; rollback restores a snapshot taken at InTx entry.
type Ledger struct {
	mu    sync.Mutex
	state ledgerState
}

type balanceKey struct {
	owner domain.Name
	code  string
}

type ledgerState struct {
	supplies  map[string]domain.SupplyStat
	balances  map[balanceKey]domain.Balance
	stakes    map[domain.Name]domain.Stake
	blacklist map[domain.Name]struct{}
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{state: newLedgerState()}
}

func newLedgerState() ledgerState {
	return ledgerState{
		supplies:  make(map[string]domain.SupplyStat),
		balances:  make(map[balanceKey]domain.Balance),
		stakes:    make(map[domain.Name]domain.Stake),
		blacklist: make(map[domain.Name]struct{}),
	}
}

func (s ledgerState) clone() ledgerState {
	c := newLedgerState()
	for k, v := range s.supplies {
		c.supplies[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.stakes {
		c.stakes[k] = v
	}
	for k := range s.blacklist {
		c.blacklist[k] = struct{}{}
	}
	return c
}

// InTx runs fn against the ledger state. On error the pre-transaction
// snapshot is restored, so fn's writes are never partially visible.
func (l *Ledger) InTx(_ context.Context, fn func(tx storage.Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.state.clone()
	if err := fn(&ledgerTx{state: &l.state}); err != nil {
		l.state = snapshot
		return err
	}
	return nil
}

// ledgerTx exposes the four collections of one transaction.
type ledgerTx struct {
	state *ledgerState
}

func (t *ledgerTx) Supplies() storage.SupplyStore     { return &supplyStore{state: t.state} }
func (t *ledgerTx) Balances() storage.BalanceStore    { return &balanceStore{state: t.state} }
func (t *ledgerTx) Stakes() storage.StakeStore        { return &stakeStore{state: t.state} }
func (t *ledgerTx) Blacklist() storage.BlacklistStore { return &blacklistStore{state: t.state} }

// Compile-time interface checks.
var (
	_ storage.Ledger = (*Ledger)(nil)
	_ storage.Tx     = (*ledgerTx)(nil)
)

// supplyStore is the in-memory supply_stats collection.
type supplyStore struct {
	state *ledgerState
}

func (s *supplyStore) Get(_ context.Context, code string) (*domain.SupplyStat, error) {
	st, ok := s.state.supplies[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	// Return a copy to prevent external mutation.
	stCopy := st
	return &stCopy, nil
}

func (s *supplyStore) Insert(_ context.Context, st *domain.SupplyStat) error {
	if st == nil || st.Supply.Symbol.Code == "" {
		return storage.ErrInvalidInput
	}
	code := st.Supply.Symbol.Code
	if _, exists := s.state.supplies[code]; exists {
		return storage.ErrDuplicateKey
	}
	s.state.supplies[code] = *st
	return nil
}

func (s *supplyStore) Update(_ context.Context, st *domain.SupplyStat) error {
	if st == nil || st.Supply.Symbol.Code == "" {
		return storage.ErrInvalidInput
	}
	code := st.Supply.Symbol.Code
	if _, exists := s.state.supplies[code]; !exists {
		return storage.ErrNotFound
	}
	s.state.supplies[code] = *st
	return nil
}

// balanceStore is the in-memory balances collection.
type balanceStore struct {
	state *ledgerState
}

func (s *balanceStore) Get(_ context.Context, owner domain.Name, code string) (*domain.Balance, error) {
	b, ok := s.state.balances[balanceKey{owner, code}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	bCopy := b
	return &bCopy, nil
}

func (s *balanceStore) Insert(_ context.Context, b *domain.Balance) error {
	if b == nil || b.Owner == "" || b.Amount.Symbol.Code == "" {
		return storage.ErrInvalidInput
	}
	key := balanceKey{b.Owner, b.Amount.Symbol.Code}
	if _, exists := s.state.balances[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.state.balances[key] = *b
	return nil
}

func (s *balanceStore) Update(_ context.Context, b *domain.Balance) error {
	if b == nil || b.Owner == "" || b.Amount.Symbol.Code == "" {
		return storage.ErrInvalidInput
	}
	key := balanceKey{b.Owner, b.Amount.Symbol.Code}
	if _, exists := s.state.balances[key]; !exists {
		return storage.ErrNotFound
	}
	s.state.balances[key] = *b
	return nil
}

func (s *balanceStore) Delete(_ context.Context, owner domain.Name, code string) error {
	key := balanceKey{owner, code}
	if _, exists := s.state.balances[key]; !exists {
		return storage.ErrNotFound
	}
	delete(s.state.balances, key)
	return nil
}

// stakeStore is the in-memory stakes collection, keyed by account only.
type stakeStore struct {
	state *ledgerState
}

func (s *stakeStore) Get(_ context.Context, account domain.Name) (*domain.Stake, error) {
	st, ok := s.state.stakes[account]
	if !ok {
		return nil, storage.ErrNotFound
	}
	stCopy := st
	return &stCopy, nil
}

func (s *stakeStore) Insert(_ context.Context, st *domain.Stake) error {
	if st == nil || st.Account == "" {
		return storage.ErrInvalidInput
	}
	if _, exists := s.state.stakes[st.Account]; exists {
		return storage.ErrDuplicateKey
	}
	s.state.stakes[st.Account] = *st
	return nil
}

func (s *stakeStore) Update(_ context.Context, st *domain.Stake) error {
	if st == nil || st.Account == "" {
		return storage.ErrInvalidInput
	}
	if _, exists := s.state.stakes[st.Account]; !exists {
		return storage.ErrNotFound
	}
	s.state.stakes[st.Account] = *st
	return nil
}

func (s *stakeStore) Delete(_ context.Context, account domain.Name) error {
	if _, exists := s.state.stakes[account]; !exists {
		return storage.ErrNotFound
	}
	delete(s.state.stakes, account)
	return nil
}

// blacklistStore is the in-memory blacklist collection.
type blacklistStore struct {
	state *ledgerState
}

func (s *blacklistStore) Contains(_ context.Context, account domain.Name) (bool, error) {
	_, ok := s.state.blacklist[account]
	return ok, nil
}

func (s *blacklistStore) Insert(_ context.Context, account domain.Name) error {
	if account == "" {
		return storage.ErrInvalidInput
	}
	if _, exists := s.state.blacklist[account]; exists {
		return storage.ErrDuplicateKey
	}
	s.state.blacklist[account] = struct{}{}
	return nil
}

func (s *blacklistStore) Delete(_ context.Context, account domain.Name) error {
	if _, exists := s.state.blacklist[account]; !exists {
		return storage.ErrNotFound
	}
	delete(s.state.blacklist, account)
	return nil
}
