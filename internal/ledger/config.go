package ledger

import (
	"fmt"

	"coffee-ledger/internal/domain"
)

// Config holds the privileged principals and protocol constants of the
// ledger. The original deployment hardcoded these; they are injected here so
// they stay testable and auditable.
type Config struct {
	// Self is the ledger's own principal: the only caller allowed to
	// create tokens and manage the blacklist.
	Self domain.Name

	// Fee is the fixed protocol fee debited from the sender on every
	// transfer, in the fee currency, regardless of the transfer's own
	// currency.
	Fee domain.Amount

	// BurnSymbol is the one currency that burn accepts.
	BurnSymbol domain.Symbol

	// TrustedBurnSources are the bridge accounts allowed to trigger burns.
	TrustedBurnSources []domain.Name

	// StakingController is the privileged principal that stakes and
	// unstakes on behalf of accounts.
	StakingController domain.Name
}

// DefaultConfig mirrors the original deployment's constants.
func DefaultConfig() Config {
	cff := domain.Symbol{Code: "CFF", Precision: 4}
	return Config{
		Self:               "coffe.token",
		Fee:                domain.Amount{Value: 10000, Symbol: cff}, // 1.0000 CFF
		BurnSymbol:         cff,
		TrustedBurnSources: []domain.Name{"swap.eos", "swap.cht", "swap.dice", "swap.pgl"},
		StakingController:  "coffe.hold",
	}
}

// Validate checks that every principal and constant is well formed.
func (c Config) Validate() error {
	if err := c.Self.Validate(); err != nil {
		return fmt.Errorf("self: %w", err)
	}
	if err := c.Fee.Validate(); err != nil {
		return fmt.Errorf("fee: %w", err)
	}
	if c.Fee.Value <= 0 {
		return fmt.Errorf("fee must be positive, got %s", c.Fee)
	}
	if err := c.BurnSymbol.Validate(); err != nil {
		return fmt.Errorf("burn symbol: %w", err)
	}
	if len(c.TrustedBurnSources) == 0 {
		return fmt.Errorf("at least one trusted burn source is required")
	}
	for _, src := range c.TrustedBurnSources {
		if err := src.Validate(); err != nil {
			return fmt.Errorf("trusted burn source: %w", err)
		}
	}
	if err := c.StakingController.Validate(); err != nil {
		return fmt.Errorf("staking controller: %w", err)
	}
	return nil
}

func (c Config) isTrustedBurnSource(account domain.Name) bool {
	for _, src := range c.TrustedBurnSources {
		if src == account {
			return true
		}
	}
	return false
}
