package game

// ConditionKind enumerates the quest predicate shapes. Quests are data, not
// closures, so the catalog is serializable and evaluable against a snapshot
// with no storage access.
type ConditionKind string

const (
	ConditionBalance   ConditionKind = "balance"
	ConditionRigs      ConditionKind = "rigs"
	ConditionShares    ConditionKind = "shares"
	ConditionReferrals ConditionKind = "referrals"
)

type Quest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Kind        ConditionKind `json:"kind"`
	Company     Company       `json:"company,omitempty"`
	Threshold   int64         `json:"threshold"`
	Reward      int64         `json:"reward"`
}

// Snapshot is the read-only player view quest predicates run against. The
// caller supplies ReferralCount; the catalog never touches storage.
type Snapshot struct {
	Balance       int64
	RigCount      int64
	Holdings      map[Company]int64
	ReferralCount int64
}

// Satisfied reports whether the quest predicate holds for the snapshot.
func (q Quest) Satisfied(s Snapshot) bool {
	switch q.Kind {
	case ConditionBalance:
		return s.Balance >= q.Threshold
	case ConditionRigs:
		return s.RigCount >= q.Threshold
	case ConditionShares:
		return s.Holdings[q.Company] >= q.Threshold
	case ConditionReferrals:
		return s.ReferralCount >= q.Threshold
	default:
		return false
	}
}

// DefaultQuests is the immutable ordered catalog. Progression is strictly
// sequential: a player is only ever evaluated against the quest at their
// current progress index.
func DefaultQuests() []Quest {
	return []Quest{
		{
			Name:        "Starting Capital",
			Description: "Hold a balance of 5000 CC",
			Kind:        ConditionBalance,
			Threshold:   5000,
			Reward:      1000,
		},
		{
			Name:        "First Rigs",
			Description: "Buy 2 mining rigs",
			Kind:        ConditionRigs,
			Threshold:   2,
			Reward:      500,
		},
		{
			Name:        "Tesla Investor",
			Description: "Buy 5 Tesla shares",
			Kind:        ConditionShares,
			Company:     Tesla,
			Threshold:   5,
			Reward:      300,
		},
		{
			Name:        "Invite Friends",
			Description: "Recruit 3 friends with your referral code",
			Kind:        ConditionReferrals,
			Threshold:   3,
			Reward:      1500,
		},
		{
			Name:        "Blockchain Magnate",
			Description: "Buy 3 BlockDAG Network shares",
			Kind:        ConditionShares,
			Company:     BlockDAG,
			Threshold:   3,
			Reward:      800,
		},
		{
			Name:        "Business Expansion",
			Description: "Own 5 mining rigs",
			Kind:        ConditionRigs,
			Threshold:   5,
			Reward:      2000,
		},
	}
}
