package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/host/stub"
	"coffee-ledger/internal/ledger"
	"coffee-ledger/internal/storage/memory"
)

var cffSym = domain.Symbol{Code: "CFF", Precision: 4}

func cff(v int64) domain.Amount {
	return domain.Amount{Value: v, Symbol: cffSym}
}

type harness struct {
	engine   *ledger.Engine
	auth     *stub.Authorizer
	registry *stub.Registry
	notifier *stub.Notifier
	journal  *memory.JournalStore
	cfg      ledger.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := ledger.DefaultConfig()
	h := &harness{
		auth:     stub.NewAuthorizer(),
		registry: stub.NewRegistry(),
		notifier: stub.NewNotifier(),
		journal:  memory.NewJournalStore(),
		cfg:      cfg,
	}
	eng, err := ledger.New(cfg, ledger.Deps{
		Store:    memory.NewLedger(),
		Auth:     h.auth,
		Accounts: h.registry,
		Notifier: h.notifier,
		Journal:  h.journal,
	})
	require.NoError(t, err)
	h.engine = eng
	return h
}

// seedToken creates the CFF token and issues the given amount to the issuer.
func (h *harness) seedToken(t *testing.T, issuer domain.Name, maxSupply, issued int64) {
	t.Helper()
	ctx := context.Background()
	h.auth.Grant(h.cfg.Self, issuer)
	require.NoError(t, h.engine.Create(ctx, issuer, cff(maxSupply)))
	if issued > 0 {
		require.NoError(t, h.engine.Issue(ctx, issuer, cff(issued), "seed"))
	}
	h.notifier.Reset()
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("records a zero supply stat", func(t *testing.T) {
		h := newHarness(t)
		h.auth.Grant(h.cfg.Self)
		require.NoError(t, h.engine.Create(ctx, "alice", cff(1_000_0000)))

		st, err := h.engine.GetSupply(ctx, "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(0), st.Supply.Value)
		require.Equal(t, int64(1_000_0000), st.MaxSupply.Value)
		require.Equal(t, domain.Name("alice"), st.Issuer)
	})

	t.Run("requires the ledger principal", func(t *testing.T) {
		h := newHarness(t)
		h.auth.Grant("alice")
		err := h.engine.Create(ctx, "alice", cff(100))
		require.ErrorIs(t, err, ledger.ErrUnauthorized)
	})

	t.Run("rejects a duplicate symbol", func(t *testing.T) {
		h := newHarness(t)
		h.auth.Grant(h.cfg.Self)
		require.NoError(t, h.engine.Create(ctx, "alice", cff(100)))
		err := h.engine.Create(ctx, "bob", cff(200))
		require.ErrorIs(t, err, ledger.ErrAlreadyExists)
	})

	t.Run("rejects a non-positive ceiling", func(t *testing.T) {
		h := newHarness(t)
		h.auth.Grant(h.cfg.Self)
		require.ErrorIs(t, h.engine.Create(ctx, "alice", cff(0)), ledger.ErrInvalidArgument)
		require.ErrorIs(t, h.engine.Create(ctx, "alice", cff(-5)), ledger.ErrInvalidArgument)
	})
}

func TestIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the issuer and grows supply", func(t *testing.T) {
		h := newHarness(t)
		h.seedToken(t, "alice", 1_000_0000, 100_0000)

		st, err := h.engine.GetSupply(ctx, "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(100_0000), st.Supply.Value)

		b, err := h.engine.GetBalance(ctx, "alice", "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(100_0000), b.Amount.Value)
	})

	t.Run("only to the issuer account", func(t *testing.T) {
		h := newHarness(t)
		h.seedToken(t, "alice", 1_000_0000, 0)
		err := h.engine.Issue(ctx, "bob", cff(10), "")
		require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	})

	t.Run("cannot exceed the ceiling", func(t *testing.T) {
		h := newHarness(t)
		h.seedToken(t, "alice", 100, 60)
		err := h.engine.Issue(ctx, "alice", cff(41), "")
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)
		require.NoError(t, h.engine.Issue(ctx, "alice", cff(40), ""))
	})

	t.Run("unknown symbol", func(t *testing.T) {
		h := newHarness(t)
		h.auth.Grant("alice")
		err := h.engine.Issue(ctx, "alice", cff(10), "")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("notifies the recipient even when authorization fails", func(t *testing.T) {
		h := newHarness(t)
		h.seedToken(t, "alice", 1_000_0000, 0)
		h.auth.Revoke("alice")

		err := h.engine.Issue(ctx, "alice", cff(10), "")
		require.ErrorIs(t, err, ledger.ErrUnauthorized)
		require.Equal(t, []stub.Notification{{Account: "alice", Op: "issue"}}, h.notifier.Calls())
	})

	t.Run("rejects an over-long memo", func(t *testing.T) {
		h := newHarness(t)
		h.seedToken(t, "alice", 1_000_0000, 0)
		memo := make([]byte, ledger.MaxMemoLen+1)
		err := h.engine.Issue(ctx, "alice", cff(10), string(memo))
		require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	})
}

func TestRetire(t *testing.T) {
	ctx := context.Background()

	t.Run("shrinks supply but not the ceiling", func(t *testing.T) {
		h := newHarness(t)
		h.seedToken(t, "alice", 1_000_0000, 100)
		require.NoError(t, h.engine.Retire(ctx, cff(40), "cleanup"))

		st, err := h.engine.GetSupply(ctx, "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(60), st.Supply.Value)
		require.Equal(t, int64(1_000_0000), st.MaxSupply.Value)

		b, err := h.engine.GetBalance(ctx, "alice", "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(60), b.Amount.Value)
	})

	t.Run("requires issuer authorization", func(t *testing.T) {
		h := newHarness(t)
		h.seedToken(t, "alice", 1_000_0000, 100)
		h.auth.Revoke("alice")
		require.ErrorIs(t, h.engine.Retire(ctx, cff(1), ""), ledger.ErrUnauthorized)
	})

	t.Run("cannot retire more than the issuer holds", func(t *testing.T) {
		h := newHarness(t)
		h.seedToken(t, "alice", 1_000_0000, 100)
		err := h.engine.Retire(ctx, cff(101), "")
		require.Error(t, err)

		// Nothing committed: supply unchanged.
		st, gerr := h.engine.GetSupply(ctx, "CFF")
		require.NoError(t, gerr)
		require.Equal(t, int64(100), st.Supply.Value)
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	fee := ledger.DefaultConfig().Fee.Value

	setup := func(t *testing.T, issued int64) *harness {
		h := newHarness(t)
		h.seedToken(t, "alice", 100_000_0000, issued)
		h.registry.Add("bob")
		return h
	}

	t.Run("moves tokens and charges the fee", func(t *testing.T) {
		h := setup(t, 100_0000)
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(25_0000), "latte"))

		a, err := h.engine.GetBalance(ctx, "alice", "CFF")
		require.NoError(t, err)
		require.Equal(t, 100_0000-25_0000-fee, a.Amount.Value)

		b, err := h.engine.GetBalance(ctx, "bob", "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(25_0000), b.Amount.Value)
	})

	t.Run("fee leaves circulation for good", func(t *testing.T) {
		h := setup(t, 100_0000)
		before, err := h.engine.GetSupply(ctx, "CFF")
		require.NoError(t, err)

		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(1_0000), ""))

		after, err := h.engine.GetSupply(ctx, "CFF")
		require.NoError(t, err)
		require.Equal(t, before.Supply.Value-fee, after.Supply.Value)
		require.Equal(t, before.MaxSupply.Value-fee, after.MaxSupply.Value)
	})

	t.Run("fails entirely when the balance cannot cover quantity plus fee", func(t *testing.T) {
		h := setup(t, 100_0000)
		// Drain alice down to less than quantity+fee.
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(98_0000), ""))

		err := h.engine.Transfer(ctx, "alice", "bob", cff(1_5000), "")
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)

		// No partial debit.
		a, gerr := h.engine.GetBalance(ctx, "alice", "CFF")
		require.NoError(t, gerr)
		require.Equal(t, 100_0000-98_0000-fee, a.Amount.Value)
		b, gerr := h.engine.GetBalance(ctx, "bob", "CFF")
		require.NoError(t, gerr)
		require.Equal(t, int64(98_0000), b.Amount.Value)
	})

	t.Run("fee is charged in the fee currency for any transfer", func(t *testing.T) {
		h := setup(t, 100_0000)
		kafSym := domain.Symbol{Code: "KAF", Precision: 4}
		kaf := func(v int64) domain.Amount { return domain.Amount{Value: v, Symbol: kafSym} }
		require.NoError(t, h.engine.Create(ctx, "alice", kaf(100_000_0000)))
		require.NoError(t, h.engine.Issue(ctx, "alice", kaf(10_0000), ""))
		h.auth.Grant("bob")
		h.registry.Add("carol")
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", kaf(5_0000), ""))

		// bob holds KAF but no CFF to cover the fee.
		err := h.engine.Transfer(ctx, "bob", "carol", kaf(1_0000), "")
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)
	})

	t.Run("rejects a self transfer", func(t *testing.T) {
		h := setup(t, 100_0000)
		err := h.engine.Transfer(ctx, "alice", "alice", cff(1), "")
		require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	})

	t.Run("recipient account must exist", func(t *testing.T) {
		h := setup(t, 100_0000)
		err := h.engine.Transfer(ctx, "alice", "carol", cff(1_0000), "")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("requires sender authorization", func(t *testing.T) {
		h := setup(t, 100_0000)
		h.auth.Revoke("alice")
		err := h.engine.Transfer(ctx, "alice", "bob", cff(1_0000), "")
		require.ErrorIs(t, err, ledger.ErrUnauthorized)
	})

	t.Run("recipient pays for its own row when authorized", func(t *testing.T) {
		h := setup(t, 100_0000)
		h.auth.Grant("bob")
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(1_0000), ""))
		b, err := h.engine.GetBalance(ctx, "bob", "CFF")
		require.NoError(t, err)
		require.Equal(t, domain.Name("bob"), b.Payer)
	})

	t.Run("sender pays for the recipient row otherwise", func(t *testing.T) {
		h := setup(t, 100_0000)
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(1_0000), ""))
		b, err := h.engine.GetBalance(ctx, "bob", "CFF")
		require.NoError(t, err)
		require.Equal(t, domain.Name("alice"), b.Payer)
	})

	t.Run("notifies sender then recipient", func(t *testing.T) {
		h := setup(t, 100_0000)
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(1_0000), ""))
		require.Equal(t, []stub.Notification{
			{Account: "alice", Op: "transfer"},
			{Account: "bob", Op: "transfer"},
		}, h.notifier.Calls())
	})
}

func TestTransferStakeLock(t *testing.T) {
	ctx := context.Background()
	fee := ledger.DefaultConfig().Fee.Value

	setup := func(t *testing.T) *harness {
		h := newHarness(t)
		h.seedToken(t, "alice", 100_000_0000, 100_0000)
		h.registry.Add("bob")
		h.auth.Grant(h.cfg.StakingController)
		require.NoError(t, h.engine.Stake(ctx, "alice", cff(50_0000)))
		return h
	}

	t.Run("staked tokens cannot leave", func(t *testing.T) {
		h := setup(t)
		transferable := 100_0000 - fee - 50_0000

		err := h.engine.Transfer(ctx, "alice", "bob", cff(transferable+1), "")
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)

		// Rolled back: the fee was not kept either.
		a, gerr := h.engine.GetBalance(ctx, "alice", "CFF")
		require.NoError(t, gerr)
		require.Equal(t, int64(100_0000), a.Amount.Value)
	})

	t.Run("the unstaked remainder transfers", func(t *testing.T) {
		h := setup(t)
		transferable := 100_0000 - fee - 50_0000
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(transferable), ""))

		a, err := h.engine.GetBalance(ctx, "alice", "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(50_0000), a.Amount.Value)
	})
}

func TestBurn(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *harness {
		h := newHarness(t)
		h.seedToken(t, "alice", 100_000_0000, 100_0000)
		h.registry.Add("swap.eos")
		h.auth.Grant("alice", "swap.eos")
		require.NoError(t, h.engine.Transfer(ctx, "alice", "swap.eos", cff(50_0000), "bridge out"))
		h.notifier.Reset()
		return h
	}

	t.Run("shrinks supply and ceiling", func(t *testing.T) {
		h := setup(t)
		before, err := h.engine.GetSupply(ctx, "CFF")
		require.NoError(t, err)

		require.NoError(t, h.engine.Burn(ctx, "swap.eos", "swap.eos", cff(20_0000), "bridged"))

		after, err := h.engine.GetSupply(ctx, "CFF")
		require.NoError(t, err)
		require.Equal(t, before.Supply.Value-20_0000, after.Supply.Value)
		require.Equal(t, before.MaxSupply.Value-20_0000, after.MaxSupply.Value)

		b, err := h.engine.GetBalance(ctx, "swap.eos", "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(30_0000), b.Amount.Value)
	})

	t.Run("only trusted sources may burn", func(t *testing.T) {
		h := setup(t)
		h.auth.Grant("alice")
		err := h.engine.Burn(ctx, "alice", "alice", cff(1), "")
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)
	})

	t.Run("only the burnable currency", func(t *testing.T) {
		h := setup(t)
		other := domain.Amount{Value: 1, Symbol: domain.Symbol{Code: "EOS", Precision: 4}}
		err := h.engine.Burn(ctx, "swap.eos", "swap.eos", other, "")
		require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	})

	t.Run("notifies source then sender", func(t *testing.T) {
		h := setup(t)
		h.registry.Add("coffe.hold")
		require.NoError(t, h.engine.Transfer(ctx, "alice", "coffe.hold", cff(10_0000), ""))
		h.notifier.Reset()

		require.NoError(t, h.engine.Burn(ctx, "coffe.hold", "swap.eos", cff(1_0000), ""))
		require.Equal(t, []stub.Notification{
			{Account: "swap.eos", Op: "burn"},
			{Account: "coffe.hold", Op: "burn"},
		}, h.notifier.Calls())
	})
}

func TestOpenClose(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *harness {
		h := newHarness(t)
		h.seedToken(t, "alice", 100_000_0000, 100_0000)
		h.registry.Add("bob")
		h.auth.Grant("bob")
		return h
	}

	t.Run("open creates a zero row charged to the payer", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.Open(ctx, "bob", cffSym, "bob"))

		b, err := h.engine.GetBalance(ctx, "bob", "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(0), b.Amount.Value)
		require.Equal(t, domain.Name("bob"), b.Payer)
	})

	t.Run("open is idempotent", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.Open(ctx, "bob", cffSym, "bob"))
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(5_0000), ""))
		require.NoError(t, h.engine.Open(ctx, "bob", cffSym, "bob"))

		b, err := h.engine.GetBalance(ctx, "bob", "CFF")
		require.NoError(t, err)
		require.Equal(t, int64(5_0000), b.Amount.Value)
	})

	t.Run("open requires the token to exist", func(t *testing.T) {
		h := setup(t)
		err := h.engine.Open(ctx, "bob", domain.Symbol{Code: "EOS", Precision: 4}, "bob")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("open rejects a precision mismatch", func(t *testing.T) {
		h := setup(t)
		err := h.engine.Open(ctx, "bob", domain.Symbol{Code: "CFF", Precision: 2}, "bob")
		require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	})

	t.Run("close removes a zero row", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.Open(ctx, "bob", cffSym, "bob"))
		require.NoError(t, h.engine.Close(ctx, "bob", cffSym))

		_, err := h.engine.GetBalance(ctx, "bob", "CFF")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("close refuses a non-zero row", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(1_0000), ""))
		err := h.engine.Close(ctx, "bob", cffSym)
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)
	})

	t.Run("close of a missing row", func(t *testing.T) {
		h := setup(t)
		err := h.engine.Close(ctx, "bob", cffSym)
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestStakeUnstake(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *harness {
		h := newHarness(t)
		h.seedToken(t, "alice", 100_000_0000, 100_0000)
		h.auth.Grant(h.cfg.StakingController)
		return h
	}

	t.Run("stake requires the controller", func(t *testing.T) {
		h := setup(t)
		h.auth.Revoke(h.cfg.StakingController)
		err := h.engine.Stake(ctx, "alice", cff(1_0000))
		require.ErrorIs(t, err, ledger.ErrUnauthorized)
	})

	t.Run("stake cannot exceed the balance", func(t *testing.T) {
		h := setup(t)
		err := h.engine.Stake(ctx, "alice", cff(100_0001))
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)
	})

	t.Run("stakes accumulate", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.Stake(ctx, "alice", cff(30_0000)))
		require.NoError(t, h.engine.Stake(ctx, "alice", cff(20_0000)))

		s, err := h.engine.GetStake(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, int64(50_0000), s.Staked.Value)

		err = h.engine.Stake(ctx, "alice", cff(50_0001))
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)
	})

	t.Run("partial unstake", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.Stake(ctx, "alice", cff(50_0000)))
		require.NoError(t, h.engine.Unstake(ctx, "alice", cff(20_0000)))

		s, err := h.engine.GetStake(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, int64(30_0000), s.Staked.Value)
	})

	t.Run("full unstake removes the row", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.Stake(ctx, "alice", cff(50_0000)))
		require.NoError(t, h.engine.Unstake(ctx, "alice", cff(50_0000)))

		s, err := h.engine.GetStake(ctx, "alice")
		require.NoError(t, err)
		require.Nil(t, s)
	})

	t.Run("cannot unstake more than staked", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.Stake(ctx, "alice", cff(50_0000)))
		err := h.engine.Unstake(ctx, "alice", cff(50_0001))
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)
	})

	t.Run("unstake with nothing staked", func(t *testing.T) {
		h := setup(t)
		err := h.engine.Unstake(ctx, "alice", cff(1))
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

// The stake table is keyed by account alone. A stake taken in one currency
// locks the same raw amount in every currency the account holds.
func TestStakeLocksAcrossCurrencies(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seedToken(t, "alice", 100_000_0000, 100_0000)

	kafSym := domain.Symbol{Code: "KAF", Precision: 4}
	kaf := func(v int64) domain.Amount { return domain.Amount{Value: v, Symbol: kafSym} }
	require.NoError(t, h.engine.Create(ctx, "alice", kaf(100_000_0000)))
	require.NoError(t, h.engine.Issue(ctx, "alice", kaf(10_0000), ""))

	h.registry.Add("bob")
	h.auth.Grant(h.cfg.StakingController)
	require.NoError(t, h.engine.Stake(ctx, "alice", kaf(8_0000)))

	// The KAF stake row also counts against alice's CFF transfers.
	err := h.engine.Transfer(ctx, "alice", "bob", cff(95_0000), "")
	require.ErrorIs(t, err, ledger.ErrPolicyViolation)
	require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(80_0000), ""))
}

func TestBlacklist(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *harness {
		h := newHarness(t)
		h.seedToken(t, "alice", 100_000_0000, 100_0000)
		h.registry.Add("bob")
		h.auth.Grant(h.cfg.Self, "bob")
		return h
	}

	t.Run("requires the ledger principal", func(t *testing.T) {
		h := setup(t)
		h.auth.Revoke(h.cfg.Self)
		err := h.engine.AddToBlacklist(ctx, "bob")
		require.ErrorIs(t, err, ledger.ErrUnauthorized)
	})

	t.Run("cannot bar the principal itself", func(t *testing.T) {
		h := setup(t)
		err := h.engine.AddToBlacklist(ctx, h.cfg.Self)
		require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	})

	t.Run("duplicate add and missing remove", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.AddToBlacklist(ctx, "bob"))
		require.ErrorIs(t, h.engine.AddToBlacklist(ctx, "bob"), ledger.ErrAlreadyExists)
		require.NoError(t, h.engine.RemoveFromBlacklist(ctx, "bob"))
		require.ErrorIs(t, h.engine.RemoveFromBlacklist(ctx, "bob"), ledger.ErrNotFound)
	})

	t.Run("bars participation until removed", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.AddToBlacklist(ctx, "bob"))

		require.ErrorIs(t, h.engine.Transfer(ctx, "alice", "bob", cff(1_0000), ""), ledger.ErrPolicyViolation)
		require.ErrorIs(t, h.engine.Open(ctx, "bob", cffSym, "bob"), ledger.ErrPolicyViolation)
		require.ErrorIs(t, h.engine.Close(ctx, "bob", cffSym), ledger.ErrPolicyViolation)

		require.NoError(t, h.engine.RemoveFromBlacklist(ctx, "bob"))
		require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(1_0000), ""))
	})

	t.Run("a barred issuer cannot be issued to", func(t *testing.T) {
		h := setup(t)
		require.NoError(t, h.engine.AddToBlacklist(ctx, "alice"))
		err := h.engine.Issue(ctx, "alice", cff(1), "")
		require.ErrorIs(t, err, ledger.ErrPolicyViolation)
	})
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seedToken(t, "alice", 100_000_0000, 100_0000)
	h.registry.Add("bob")
	require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(1_0000), ""))

	events := h.journal.All()
	require.Len(t, events, 3)
	require.Equal(t, "create", events[0].Op)
	require.Equal(t, "issue", events[1].Op)
	require.Equal(t, "transfer", events[2].Op)
	require.Equal(t, domain.Name("alice"), events[2].Actor)
	for i, ev := range events {
		require.Equal(t, uint64(i+1), ev.Seq)
		require.NotEmpty(t, ev.EventID)
	}

	// Failed operations leave no trace.
	require.Error(t, h.engine.Transfer(ctx, "alice", "alice", cff(1), ""))
	require.Len(t, h.journal.All(), 3)
}

// Over every successful history, issued minus retired minus burned minus
// fees equals the sum of balances, and equals the recorded supply.
func TestSupplyConservation(t *testing.T) {
	ctx := context.Background()
	fee := ledger.DefaultConfig().Fee.Value

	h := newHarness(t)
	h.seedToken(t, "alice", 100_000_0000, 100_0000)
	h.registry.Add("bob", "carol")

	require.NoError(t, h.engine.Transfer(ctx, "alice", "bob", cff(20_0000), ""))
	require.NoError(t, h.engine.Transfer(ctx, "alice", "carol", cff(10_0000), ""))
	require.NoError(t, h.engine.Retire(ctx, cff(5_0000), ""))

	st, err := h.engine.GetSupply(ctx, "CFF")
	require.NoError(t, err)

	var total int64
	for _, owner := range []domain.Name{"alice", "bob", "carol"} {
		b, err := h.engine.GetBalance(ctx, owner, "CFF")
		require.NoError(t, err)
		require.GreaterOrEqual(t, b.Amount.Value, int64(0))
		total += b.Amount.Value
	}
	require.Equal(t, st.Supply.Value, total)
	require.Equal(t, int64(100_0000-2*fee-5_0000), total)
}
