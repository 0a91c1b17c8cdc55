package game

// OnboardResult reports the fresh player plus an optional referral notice the
// chat adapter should deliver. The engine credits the bonus itself; the notice
// is presentation only.
type OnboardResult struct {
	Player         *Player         `json:"player"`
	ReferralNotice *ReferralNotice `json:"referral_notice,omitempty"`
}

// ReferralNotice tells the adapter which referrer earned the one-time bonus
// for recruiting the new player.
type ReferralNotice struct {
	ReferrerID string `json:"referrer_id"`
	ReferredID string `json:"referred_id"`
	Bonus      int64  `json:"bonus"`
}

// DayReport is the outcome of a successful day advance.
type DayReport struct {
	Day          int64  `json:"day"`
	QuestName    string `json:"quest_name,omitempty"`
	QuestReward  int64  `json:"quest_reward"`
	MiningIncome int64  `json:"mining_income"`
	Balance      int64  `json:"balance"`
	MarketTicked bool   `json:"market_ticked"`
}

// TradeResult is the outcome of a rig or share purchase/sale.
type TradeResult struct {
	Company  Company `json:"company,omitempty"`
	Count    int64   `json:"count"`
	Price    int64   `json:"price,omitempty"`
	Total    int64   `json:"total"`
	Balance  int64   `json:"balance"`
	RigCount int64   `json:"rig_count,omitempty"`
	Held     int64   `json:"held,omitempty"`
}

type HoldingView struct {
	Company Company `json:"company"`
	Count   int64   `json:"count"`
	Price   int64   `json:"price"`
	Value   int64   `json:"value"`
}

// Status is the read-only per-player aggregate view.
type Status struct {
	PlayerID       string        `json:"player_id"`
	Day            int64         `json:"day"`
	Balance        int64         `json:"balance"`
	RigCount       int64         `json:"rig_count"`
	DailyIncome    int64         `json:"daily_income"`
	Holdings       []HoldingView `json:"holdings"`
	PortfolioValue int64         `json:"portfolio_value"`
}

// QuestStatus reports the player's current quest, or AllComplete when the
// catalog is exhausted.
type QuestStatus struct {
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	Quest       *Quest `json:"quest,omitempty"`
	Satisfied   bool   `json:"satisfied"`
	AllComplete bool   `json:"all_complete"`
}

// ReferralStatus backs the invite surface: the player's code, how many
// recruits it has landed, and the cumulative bonus those recruits earned.
type ReferralStatus struct {
	ReferralCode string `json:"referral_code"`
	Count        int64  `json:"count"`
	BonusEarned  int64  `json:"bonus_earned"`
}
