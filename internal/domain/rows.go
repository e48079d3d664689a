package domain

// SupplyStat tracks issuance of one symbol.
// Corresponds to supply_stats table in PostgreSQL; keyed by symbol code.
type SupplyStat struct {
	Supply    Amount // currently issued, minus retired/burned
	MaxSupply Amount // issuance ceiling; shrunk permanently by burns
	Issuer    Name   // the only principal allowed to issue and retire
}

// Balance is one account's holding of one symbol.
// Corresponds to balances table in PostgreSQL; keyed by (owner, symbol code).
type Balance struct {
	Owner  Name
	Amount Amount
	Payer  Name // principal charged for the storage row
}

// Stake is the amount an account has locked against transfer. There is one
// row per account regardless of symbol: stakes in different currencies
// accumulate into this single counter.
// Corresponds to stakes table in PostgreSQL; keyed by account.
type Stake struct {
	Account Name
	Staked  Amount
}

// BlacklistEntry marks an account as barred from token operations.
// Corresponds to blacklist table in PostgreSQL; presence is the signal.
type BlacklistEntry struct {
	Account Name
}
