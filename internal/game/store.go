package game

import "context"

// Player is the persisted per-user aggregate. Holdings always carries every
// catalog company, defaulting to zero, so adapters never see missing keys.
type Player struct {
	ID            string            `json:"id"`
	Balance       int64             `json:"balance"`
	RigCount      int64             `json:"rig_count"`
	Holdings      map[Company]int64 `json:"holdings"`
	Day           int64             `json:"day"`
	QuestProgress int               `json:"quest_progress"`
	ReferralCode  string            `json:"referral_code"`
}

// NewDefaultPlayer builds the day-one aggregate for a fresh identity.
func NewDefaultPlayer(id string) *Player {
	holdings := make(map[Company]int64, len(Companies()))
	for _, c := range Companies() {
		holdings[c] = 0
	}
	return &Player{
		ID:           id,
		Balance:      StartingBalance,
		Holdings:     holdings,
		Day:          1,
		ReferralCode: NewReferralCode(),
	}
}

// Clone returns a deep copy so engine mutations never alias store state.
func (p *Player) Clone() *Player {
	cp := *p
	cp.Holdings = make(map[Company]int64, len(p.Holdings))
	for c, n := range p.Holdings {
		cp.Holdings[c] = n
	}
	return &cp
}

// Store is the durable persistence contract the engine runs against.
//
// SavePlayer replaces the whole aggregate, holdings included, atomically: a
// reader never observes a balance update without the holdings update from the
// same operation. RegisterReferral is idempotent on the referred id and
// reports whether this call inserted the pair.
type Store interface {
	Player(ctx context.Context, id string) (*Player, error)
	CreatePlayer(ctx context.Context, p *Player) error
	SavePlayer(ctx context.Context, p *Player) error
	PlayerIDByReferralCode(ctx context.Context, code string) (string, error)

	RegisterReferral(ctx context.Context, referrerID, referredID string) (bool, error)
	ReferralCount(ctx context.Context, referrerID string) (int64, error)

	AppendPriceHistory(ctx context.Context, samples []PriceSample) error
	PriceHistory(ctx context.Context, company Company, limit int) ([]PriceSample, error)
	LatestPrices(ctx context.Context) (map[Company]int64, error)
}
