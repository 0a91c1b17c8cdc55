package game_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"tycoon/internal/game"
	"tycoon/internal/store/memory"
)

func newTestService(t *testing.T) (*game.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	market := game.NewMarket(game.BasePrices())
	market.Seed(1)
	svc := game.NewService(store, market, slog.New(slog.NewTextHandler(io.Discard, nil)))
	day := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return day })
	return svc, store
}

func onboard(t *testing.T, svc *game.Service, id string) *game.Player {
	t.Helper()
	out, err := svc.Onboard(context.Background(), id, "")
	if err != nil {
		t.Fatalf("onboard %s: %v", id, err)
	}
	return out.Player
}

func TestOnboardDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	onboard(t, svc, "alice")
	if _, err := svc.Onboard(ctx, "alice", ""); !errors.Is(err, game.ErrAlreadyOnboarded) {
		t.Fatalf("expected ErrAlreadyOnboarded, got %v", err)
	}
}

func TestOnboardReferral(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	referrer := onboard(t, svc, "alice")

	out, err := svc.Onboard(ctx, "bob", referrer.ReferralCode)
	if err != nil {
		t.Fatalf("onboard bob: %v", err)
	}
	if out.ReferralNotice == nil {
		t.Fatalf("expected a referral notice")
	}
	if out.ReferralNotice.ReferrerID != "alice" || out.ReferralNotice.Bonus != game.ReferralBonus {
		t.Fatalf("notice = %+v", out.ReferralNotice)
	}

	status, err := svc.StatusOf(ctx, "alice")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Balance != game.StartingBalance+game.ReferralBonus {
		t.Fatalf("referrer balance %d, want %d", status.Balance, game.StartingBalance+game.ReferralBonus)
	}

	ref, err := svc.ReferralStatusOf(ctx, "alice")
	if err != nil {
		t.Fatalf("referral status: %v", err)
	}
	if ref.Count != 1 || ref.BonusEarned != game.ReferralBonus {
		t.Fatalf("referral status = %+v", ref)
	}
}

func TestOnboardReferralIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	referrer := onboard(t, svc, "alice")
	onboardWithCode(t, svc, "bob", referrer.ReferralCode)

	// Direct ledger retry for the same referred id: no second credit.
	registered, err := store.RegisterReferral(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("register referral: %v", err)
	}
	if registered {
		t.Fatalf("repeated registration reported as inserted")
	}

	count, err := store.ReferralCount(ctx, "alice")
	if err != nil {
		t.Fatalf("referral count: %v", err)
	}
	if count != 1 {
		t.Fatalf("referral count %d, want 1", count)
	}
	status, err := svc.StatusOf(ctx, "alice")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Balance != game.StartingBalance+game.ReferralBonus {
		t.Fatalf("balance %d, bonus credited more than once", status.Balance)
	}
}

func onboardWithCode(t *testing.T, svc *game.Service, id, code string) {
	t.Helper()
	if _, err := svc.Onboard(context.Background(), id, code); err != nil {
		t.Fatalf("onboard %s: %v", id, err)
	}
}

func TestOnboardSelfReferral(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice := onboard(t, svc, "alice")
	if _, err := svc.Onboard(ctx, "alice", alice.ReferralCode); !errors.Is(err, game.ErrInvalidReferral) {
		t.Fatalf("expected ErrInvalidReferral, got %v", err)
	}
}

func TestOnboardUnknownCodeDropped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	out, err := svc.Onboard(ctx, "alice", "NOSUCHCD")
	if err != nil {
		t.Fatalf("unknown code should not fail onboarding: %v", err)
	}
	if out.ReferralNotice != nil {
		t.Fatalf("unknown code produced a notice: %+v", out.ReferralNotice)
	}
}

func TestBuyRigs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	// 2 rigs cost 6000, starting balance is 5000.
	if _, err := svc.BuyRigs(ctx, "alice", 2); !errors.Is(err, game.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	out, err := svc.BuyRigs(ctx, "alice", 1)
	if err != nil {
		t.Fatalf("buy rig: %v", err)
	}
	if out.Balance != game.StartingBalance-game.RigCost {
		t.Fatalf("balance %d, want %d", out.Balance, game.StartingBalance-game.RigCost)
	}
	if out.RigCount != 1 {
		t.Fatalf("rig count %d, want 1", out.RigCount)
	}

	if _, err := svc.BuyRigs(ctx, "alice", 0); !errors.Is(err, game.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.BuyRigs(ctx, "alice", game.MaxRigs); !errors.Is(err, game.ErrRigCapacityExceeded) {
		t.Fatalf("expected ErrRigCapacityExceeded, got %v", err)
	}
}

func TestAdvanceDay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	// Quest 1 (balance >= 5000) holds for a fresh player: +1000.
	out, err := svc.AdvanceDay(ctx, "alice")
	if err != nil {
		t.Fatalf("advance day: %v", err)
	}
	if out.QuestName != "Starting Capital" || out.QuestReward != 1000 {
		t.Fatalf("quest report = %+v", out)
	}
	if out.Day != 2 {
		t.Fatalf("day %d, want 2", out.Day)
	}
	if out.Balance != 6000 {
		t.Fatalf("balance %d, want 6000", out.Balance)
	}
	if !out.MarketTicked {
		t.Fatalf("first advance of the calendar day should tick the market")
	}

	// Quest 2 needs 2 rigs; alice has none.
	if _, err := svc.AdvanceDay(ctx, "alice"); !errors.Is(err, game.ErrQuestIncomplete) {
		t.Fatalf("expected ErrQuestIncomplete, got %v", err)
	}
}

func TestAdvanceDayMiningIncome(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	if _, err := svc.AdvanceDay(ctx, "alice"); err != nil {
		t.Fatalf("advance day 1: %v", err)
	}
	if _, err := svc.BuyRigs(ctx, "alice", 2); err != nil {
		t.Fatalf("buy rigs: %v", err)
	}

	out, err := svc.AdvanceDay(ctx, "alice")
	if err != nil {
		t.Fatalf("advance day 2: %v", err)
	}
	if out.QuestName != "First Rigs" || out.QuestReward != 500 {
		t.Fatalf("quest report = %+v", out)
	}
	if out.MiningIncome != 2*game.MiningIncomePerRig {
		t.Fatalf("mining income %d, want %d", out.MiningIncome, 2*game.MiningIncomePerRig)
	}
	// 6000 - 2*3000 + 500 + 70
	if out.Balance != 570 {
		t.Fatalf("balance %d, want 570", out.Balance)
	}
}

func TestAdvanceDayTickGate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")
	onboard(t, svc, "bob")

	out, err := svc.AdvanceDay(ctx, "alice")
	if err != nil {
		t.Fatalf("alice advance: %v", err)
	}
	if !out.MarketTicked {
		t.Fatalf("first advance should tick")
	}
	before := svc.Market().Prices()

	out, err = svc.AdvanceDay(ctx, "bob")
	if err != nil {
		t.Fatalf("bob advance: %v", err)
	}
	if out.MarketTicked {
		t.Fatalf("second advance on the same calendar day ticked again")
	}
	for c, p := range svc.Market().Prices() {
		if p != before[c] {
			t.Fatalf("price for %q moved without a tick", c)
		}
	}

	// Next calendar day: the gate opens again.
	next := time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return next })
	if _, err := svc.BuyRigs(ctx, "alice", 1); err != nil {
		t.Fatalf("buy rig: %v", err)
	}
	if _, err := svc.BuyRigs(ctx, "alice", 1); err != nil {
		t.Fatalf("buy rig: %v", err)
	}
	out, err = svc.AdvanceDay(ctx, "alice")
	if err != nil {
		t.Fatalf("alice advance next day: %v", err)
	}
	if !out.MarketTicked {
		t.Fatalf("new calendar day should tick")
	}
}

func TestShareRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	buy, err := svc.BuyShares(ctx, "alice", game.Tesla, 5)
	if err != nil {
		t.Fatalf("buy shares: %v", err)
	}
	if buy.Total != 5*250 {
		t.Fatalf("buy total %d, want 1250", buy.Total)
	}
	if buy.Held != 5 {
		t.Fatalf("held %d, want 5", buy.Held)
	}

	// Price unchanged between the two trades, so the round trip is lossless.
	sell, err := svc.SellShares(ctx, "alice", game.Tesla, 5)
	if err != nil {
		t.Fatalf("sell shares: %v", err)
	}
	if sell.Balance != game.StartingBalance {
		t.Fatalf("balance %d after round trip, want %d", sell.Balance, game.StartingBalance)
	}
	if sell.Held != 0 {
		t.Fatalf("held %d after sell, want 0", sell.Held)
	}
}

func TestShareErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	if _, err := svc.BuyShares(ctx, "alice", game.Company("Enron"), 1); !errors.Is(err, game.ErrUnknownCompany) {
		t.Fatalf("expected ErrUnknownCompany, got %v", err)
	}
	if _, err := svc.BuyShares(ctx, "alice", game.Tesla, 0); !errors.Is(err, game.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.BuyShares(ctx, "alice", game.BitcoinInc, 1000); !errors.Is(err, game.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := svc.SellShares(ctx, "alice", game.Tesla, 1); !errors.Is(err, game.ErrInsufficientShares) {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}

	// Failed operations leave the aggregate untouched.
	status, err := svc.StatusOf(ctx, "alice")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Balance != game.StartingBalance || status.PortfolioValue != 0 {
		t.Fatalf("failed trades mutated state: %+v", status)
	}
}

func TestStatusValuesHoldings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	if _, err := svc.BuyShares(ctx, "alice", game.AMD, 10); err != nil {
		t.Fatalf("buy shares: %v", err)
	}

	status, err := svc.StatusOf(ctx, "alice")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.PortfolioValue != 10*150 {
		t.Fatalf("portfolio value %d, want 1500", status.PortfolioValue)
	}
	if len(status.Holdings) != len(game.Companies()) {
		t.Fatalf("status holdings rows %d, want %d", len(status.Holdings), len(game.Companies()))
	}
}

func TestQuestStatusProgression(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	qs, err := svc.QuestStatusOf(ctx, "alice")
	if err != nil {
		t.Fatalf("quest status: %v", err)
	}
	if qs.Index != 0 || !qs.Satisfied || qs.AllComplete {
		t.Fatalf("fresh quest status = %+v", qs)
	}
	if qs.Quest == nil || qs.Quest.Name != "Starting Capital" {
		t.Fatalf("quest = %+v", qs.Quest)
	}

	if _, err := svc.AdvanceDay(ctx, "alice"); err != nil {
		t.Fatalf("advance day: %v", err)
	}
	qs, err = svc.QuestStatusOf(ctx, "alice")
	if err != nil {
		t.Fatalf("quest status: %v", err)
	}
	if qs.Index != 1 || qs.Satisfied {
		t.Fatalf("quest status after advance = %+v", qs)
	}
}

func TestPriceHistoryAppendsOnTick(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	if _, err := svc.AdvanceDay(ctx, "alice"); err != nil {
		t.Fatalf("advance day: %v", err)
	}

	rows, err := svc.PriceHistoryOf(ctx, game.Tesla, 10)
	if err != nil {
		t.Fatalf("price history: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("history rows %d, want 1", len(rows))
	}
	if rows[0].DayLabel != "2026-09-01" {
		t.Fatalf("history label %q", rows[0].DayLabel)
	}

	if _, err := svc.PriceHistoryOf(ctx, game.Company("Enron"), 10); !errors.Is(err, game.ErrUnknownCompany) {
		t.Fatalf("expected ErrUnknownCompany, got %v", err)
	}
}

func TestTradeQuantityOverflow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	// A count whose total wraps int64 must read as unaffordable, never as a
	// negative cost that credits the buyer.
	for _, count := range []int64{math.MaxInt64, math.MaxInt64 / 100} {
		if _, err := svc.BuyShares(ctx, "alice", game.Tesla, count); !errors.Is(err, game.ErrInsufficientFunds) {
			t.Fatalf("count=%d: expected ErrInsufficientFunds, got %v", count, err)
		}
	}

	if _, err := svc.BuyRigs(ctx, "alice", 1); err != nil {
		t.Fatalf("buy rig: %v", err)
	}
	if _, err := svc.BuyRigs(ctx, "alice", math.MaxInt64); !errors.Is(err, game.ErrRigCapacityExceeded) {
		t.Fatalf("expected ErrRigCapacityExceeded, got %v", err)
	}

	status, err := svc.StatusOf(ctx, "alice")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Balance != game.StartingBalance-game.RigCost {
		t.Fatalf("balance %d, want %d", status.Balance, game.StartingBalance-game.RigCost)
	}
	if status.RigCount != 1 {
		t.Fatalf("rig count %d, want 1", status.RigCount)
	}
	if status.PortfolioValue != 0 {
		t.Fatalf("portfolio value %d after rejected buys, want 0", status.PortfolioValue)
	}
}

func TestQuestCatalogExhaustion(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	onboard(t, svc, "alice")

	p, err := store.Player(ctx, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p.QuestProgress = len(game.DefaultQuests())
	if err := store.SavePlayer(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	qs, err := svc.QuestStatusOf(ctx, "alice")
	if err != nil {
		t.Fatalf("quest status: %v", err)
	}
	if !qs.AllComplete || qs.Quest != nil {
		t.Fatalf("exhausted catalog status = %+v", qs)
	}

	// Days keep advancing past the catalog, just with no quest reward.
	out, err := svc.AdvanceDay(ctx, "alice")
	if err != nil {
		t.Fatalf("advance day: %v", err)
	}
	if out.QuestName != "" || out.QuestReward != 0 {
		t.Fatalf("exhausted catalog still rewarded: %+v", out)
	}
	if out.Day != 2 {
		t.Fatalf("day %d, want 2", out.Day)
	}
	if out.Balance != game.StartingBalance {
		t.Fatalf("balance %d, want %d", out.Balance, game.StartingBalance)
	}
}

func TestPlayerNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StatusOf(ctx, "ghost"); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
	if _, err := svc.AdvanceDay(ctx, "ghost"); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
	if _, err := svc.BuyRigs(ctx, "ghost", 1); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}
