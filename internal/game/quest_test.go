package game

import "testing"

func TestQuestSatisfied(t *testing.T) {
	snap := Snapshot{
		Balance:       5000,
		RigCount:      2,
		Holdings:      map[Company]int64{Tesla: 5, BlockDAG: 1},
		ReferralCount: 3,
	}

	tests := []struct {
		name  string
		quest Quest
		want  bool
	}{
		{"balance met", Quest{Kind: ConditionBalance, Threshold: 5000}, true},
		{"balance short", Quest{Kind: ConditionBalance, Threshold: 5001}, false},
		{"rigs met", Quest{Kind: ConditionRigs, Threshold: 2}, true},
		{"rigs short", Quest{Kind: ConditionRigs, Threshold: 3}, false},
		{"shares met", Quest{Kind: ConditionShares, Company: Tesla, Threshold: 5}, true},
		{"shares short", Quest{Kind: ConditionShares, Company: BlockDAG, Threshold: 3}, false},
		{"shares unheld company", Quest{Kind: ConditionShares, Company: NVIDIA, Threshold: 1}, false},
		{"referrals met", Quest{Kind: ConditionReferrals, Threshold: 3}, true},
		{"referrals short", Quest{Kind: ConditionReferrals, Threshold: 4}, false},
		{"unknown kind", Quest{Kind: ConditionKind("bogus"), Threshold: 0}, false},
	}
	for _, tc := range tests {
		if got := tc.quest.Satisfied(snap); got != tc.want {
			t.Fatalf("%s: Satisfied = %t, want %t", tc.name, got, tc.want)
		}
	}
}

func TestDefaultQuestsOrder(t *testing.T) {
	quests := DefaultQuests()
	if len(quests) != 6 {
		t.Fatalf("catalog has %d quests, want 6", len(quests))
	}

	// The first quest must be satisfiable by a fresh player, otherwise nobody
	// can ever advance a day.
	fresh := NewDefaultPlayer("p")
	snap := Snapshot{Balance: fresh.Balance, RigCount: fresh.RigCount, Holdings: fresh.Holdings}
	if !quests[0].Satisfied(snap) {
		t.Fatalf("fresh player cannot satisfy the first quest %q", quests[0].Name)
	}

	for i, q := range quests {
		if q.Name == "" || q.Reward <= 0 {
			t.Fatalf("quest %d has name=%q reward=%d", i, q.Name, q.Reward)
		}
		if q.Kind == ConditionShares && q.Company == "" {
			t.Fatalf("share quest %q names no company", q.Name)
		}
	}
}
