package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"
)

// Service orchestrates every player-mutating operation. Operations for one
// player id are serialized through a per-player lock; operations on different
// players run in parallel. All monetary checks happen before any mutation is
// persisted, and persistence is a single atomic aggregate replace.
type Service struct {
	store  Store
	market *Market
	quests []Quest
	log    *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store Store, market *Market, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		market: market,
		quests: DefaultQuests(),
		log:    logger,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// SetClock overrides the wall clock used for day labels. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Market() *Market {
	return s.market
}

func (s *Service) playerLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Service) dayLabel() string {
	return s.now().Format("2006-01-02")
}

// Onboard creates the default player for id. When referralCode names an
// existing player's invite code, the pair is recorded in the referral ledger
// and the referrer is credited the one-time bonus; unknown codes are dropped
// without surfacing an error to the new player.
func (s *Service) Onboard(ctx context.Context, id, referralCode string) (OnboardResult, error) {
	var out OnboardResult
	if id == "" {
		return out, fmt.Errorf("player id is required")
	}

	referrerID := ""
	if referralCode != "" {
		rid, err := s.store.PlayerIDByReferralCode(ctx, referralCode)
		switch {
		case errors.Is(err, ErrPlayerNotFound):
			s.log.Info("referral code unknown, dropped", "code", referralCode, "player", id)
		case err != nil:
			return out, err
		case rid == id:
			return out, ErrInvalidReferral
		default:
			referrerID = rid
		}
	}

	lock := s.playerLock(id)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.Player(ctx, id); err == nil {
		return out, ErrAlreadyOnboarded
	} else if !errors.Is(err, ErrPlayerNotFound) {
		return out, err
	}

	player := NewDefaultPlayer(id)
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return out, err
	}
	out.Player = player

	if referrerID != "" {
		notice, err := s.grantReferral(ctx, referrerID, id)
		if err != nil {
			return out, err
		}
		out.ReferralNotice = notice
	}

	s.log.Info("player onboarded", "player", id, "referred_by", referrerID)
	return out, nil
}

// grantReferral records the pair and credits the referrer exactly once. A
// repeated registration for the same referred id is a no-op with no bonus.
// Registration and the credit are two store writes: a crash between them
// drops the bonus, since the ledger entry blocks a re-credit on retry. The
// atomicity unit here is the single player aggregate, not the pair of them.
func (s *Service) grantReferral(ctx context.Context, referrerID, referredID string) (*ReferralNotice, error) {
	if referrerID == referredID {
		return nil, ErrInvalidReferral
	}
	registered, err := s.store.RegisterReferral(ctx, referrerID, referredID)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, nil
	}

	lock := s.playerLock(referrerID)
	lock.Lock()
	defer lock.Unlock()

	referrer, err := s.store.Player(ctx, referrerID)
	if err != nil {
		return nil, err
	}
	referrer = referrer.Clone()
	referrer.Balance += ReferralBonus
	if err := s.store.SavePlayer(ctx, referrer); err != nil {
		return nil, err
	}
	return &ReferralNotice{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Bonus:      ReferralBonus,
	}, nil
}

// AdvanceDay moves the player's clock one day forward: the pending quest must
// be satisfied, its reward is credited, mining income is applied, and the
// shared market tick runs if this calendar day has not been rolled yet.
func (s *Service) AdvanceDay(ctx context.Context, id string) (DayReport, error) {
	var out DayReport
	lock := s.playerLock(id)
	lock.Lock()
	defer lock.Unlock()

	player, err := s.store.Player(ctx, id)
	if err != nil {
		return out, err
	}
	player = player.Clone()

	snap, err := s.snapshotOf(ctx, player)
	if err != nil {
		return out, err
	}

	// Catalog exhaustion is not a gate: fully progressed players keep playing
	// with no further quest rewards.
	if player.QuestProgress < len(s.quests) {
		quest := s.quests[player.QuestProgress]
		if !quest.Satisfied(snap) {
			return out, ErrQuestIncomplete
		}
		player.Balance += quest.Reward
		player.QuestProgress++
		out.QuestName = quest.Name
		out.QuestReward = quest.Reward
	}

	income := player.RigCount * MiningIncomePerRig
	player.Balance += income
	player.Day++

	if err := s.store.SavePlayer(ctx, player); err != nil {
		return out, err
	}

	label := s.dayLabel()
	samples, ticked := s.market.AdvanceDay(label)
	if ticked {
		if err := s.store.AppendPriceHistory(ctx, samples); err != nil {
			// Prices already moved; history is derived data, so the day still
			// completes. The gap is visible in the graph, not in balances.
			s.log.Error("price history append failed", "day", label, "err", err)
		}
		s.log.Info("market ticked", "day", label, "companies", len(samples))
	}

	out.Day = player.Day
	out.MiningIncome = income
	out.Balance = player.Balance
	out.MarketTicked = ticked
	return out, nil
}

// BuyRigs debits count*RigCost and adds the rigs, bounded by MaxRigs.
func (s *Service) BuyRigs(ctx context.Context, id string, count int64) (TradeResult, error) {
	var out TradeResult
	if count <= 0 {
		return out, ErrInvalidQuantity
	}

	lock := s.playerLock(id)
	lock.Lock()
	defer lock.Unlock()

	player, err := s.store.Player(ctx, id)
	if err != nil {
		return out, err
	}
	player = player.Clone()

	// Compare against the remaining capacity so a huge count cannot wrap the
	// sum; MaxRigs bounds count from here on, so the cost product is safe.
	if count > MaxRigs-player.RigCount {
		return out, ErrRigCapacityExceeded
	}
	cost := count * RigCost
	if player.Balance < cost {
		return out, ErrInsufficientFunds
	}

	player.Balance -= cost
	player.RigCount += count
	if err := s.store.SavePlayer(ctx, player); err != nil {
		return out, err
	}

	out.Count = count
	out.Total = cost
	out.Balance = player.Balance
	out.RigCount = player.RigCount
	return out, nil
}

// BuyShares debits count*price and increments the holding.
func (s *Service) BuyShares(ctx context.Context, id string, company Company, count int64) (TradeResult, error) {
	var out TradeResult
	price, err := s.market.PriceOf(company)
	if err != nil {
		return out, err
	}
	if count <= 0 {
		return out, ErrInvalidQuantity
	}

	lock := s.playerLock(id)
	lock.Lock()
	defer lock.Unlock()

	player, err := s.store.Player(ctx, id)
	if err != nil {
		return out, err
	}
	player = player.Clone()

	// A total that does not fit int64 can never be paid, so it is the same
	// failure as any other unaffordable order.
	cost, ok := tradeTotal(count, price)
	if !ok || player.Balance < cost {
		return out, ErrInsufficientFunds
	}

	player.Balance -= cost
	player.Holdings[company] += count
	if err := s.store.SavePlayer(ctx, player); err != nil {
		return out, err
	}

	out.Company = company
	out.Count = count
	out.Price = price
	out.Total = cost
	out.Balance = player.Balance
	out.Held = player.Holdings[company]
	return out, nil
}

// SellShares credits count*price and decrements the holding.
func (s *Service) SellShares(ctx context.Context, id string, company Company, count int64) (TradeResult, error) {
	var out TradeResult
	price, err := s.market.PriceOf(company)
	if err != nil {
		return out, err
	}
	if count <= 0 {
		return out, ErrInvalidQuantity
	}

	lock := s.playerLock(id)
	lock.Lock()
	defer lock.Unlock()

	player, err := s.store.Player(ctx, id)
	if err != nil {
		return out, err
	}
	player = player.Clone()

	if player.Holdings[company] < count {
		return out, ErrInsufficientShares
	}

	proceeds, ok := tradeTotal(count, price)
	if !ok {
		return out, fmt.Errorf("trade total overflow")
	}
	player.Balance += proceeds
	player.Holdings[company] -= count
	if err := s.store.SavePlayer(ctx, player); err != nil {
		return out, err
	}

	out.Company = company
	out.Count = count
	out.Price = price
	out.Total = proceeds
	out.Balance = player.Balance
	out.Held = player.Holdings[company]
	return out, nil
}

// StatusOf returns the read-only aggregate: balance, rigs, holdings valued at
// live prices, and daily mining income. No mutation.
func (s *Service) StatusOf(ctx context.Context, id string) (Status, error) {
	var out Status
	player, err := s.store.Player(ctx, id)
	if err != nil {
		return out, err
	}

	prices := s.market.Prices()
	out.PlayerID = player.ID
	out.Day = player.Day
	out.Balance = player.Balance
	out.RigCount = player.RigCount
	out.DailyIncome = player.RigCount * MiningIncomePerRig
	for _, c := range Companies() {
		count := player.Holdings[c]
		price := prices[c]
		out.Holdings = append(out.Holdings, HoldingView{
			Company: c,
			Count:   count,
			Price:   price,
			Value:   count * price,
		})
		out.PortfolioValue += count * price
	}
	return out, nil
}

// QuestStatusOf reports the player's pending quest and whether its predicate
// already holds, or AllComplete once the catalog is exhausted.
func (s *Service) QuestStatusOf(ctx context.Context, id string) (QuestStatus, error) {
	var out QuestStatus
	player, err := s.store.Player(ctx, id)
	if err != nil {
		return out, err
	}

	out.Index = player.QuestProgress
	out.Total = len(s.quests)
	if player.QuestProgress >= len(s.quests) {
		out.AllComplete = true
		return out, nil
	}

	snap, err := s.snapshotOf(ctx, player)
	if err != nil {
		return out, err
	}
	quest := s.quests[player.QuestProgress]
	out.Quest = &quest
	out.Satisfied = quest.Satisfied(snap)
	return out, nil
}

// ReferralStatusOf backs the invite surface.
func (s *Service) ReferralStatusOf(ctx context.Context, id string) (ReferralStatus, error) {
	var out ReferralStatus
	player, err := s.store.Player(ctx, id)
	if err != nil {
		return out, err
	}
	count, err := s.store.ReferralCount(ctx, id)
	if err != nil {
		return out, err
	}
	out.ReferralCode = player.ReferralCode
	out.Count = count
	out.BonusEarned = count * ReferralBonus
	return out, nil
}

// PriceHistoryOf returns the most recent persisted samples for one company.
func (s *Service) PriceHistoryOf(ctx context.Context, company Company, limit int) ([]PriceSample, error) {
	if _, err := s.market.PriceOf(company); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 30
	}
	return s.store.PriceHistory(ctx, company, limit)
}

// tradeTotal computes count*price and reports whether the product fits int64.
func tradeTotal(count, price int64) (int64, bool) {
	v := new(big.Int).Mul(big.NewInt(count), big.NewInt(price))
	if !v.IsInt64() {
		return 0, false
	}
	return v.Int64(), true
}

func (s *Service) snapshotOf(ctx context.Context, player *Player) (Snapshot, error) {
	count, err := s.store.ReferralCount(ctx, player.ID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Balance:       player.Balance,
		RigCount:      player.RigCount,
		Holdings:      player.Holdings,
		ReferralCount: count,
	}, nil
}
