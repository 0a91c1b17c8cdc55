package game

import "testing"

func TestMarketTickGate(t *testing.T) {
	m := NewMarket(BasePrices())
	m.Seed(1)

	samples, ticked := m.AdvanceDay("2026-09-01")
	if !ticked {
		t.Fatalf("first roll of the day should tick")
	}
	if len(samples) != len(Companies()) {
		t.Fatalf("got %d samples, want %d", len(samples), len(Companies()))
	}
	after := m.Prices()

	again, ticked := m.AdvanceDay("2026-09-01")
	if ticked {
		t.Fatalf("second roll for the same label must not tick")
	}
	if again != nil {
		t.Fatalf("no-op roll returned samples")
	}
	for c, p := range m.Prices() {
		if p != after[c] {
			t.Fatalf("price for %q moved on a no-op roll: %d -> %d", c, after[c], p)
		}
	}

	if _, ticked := m.AdvanceDay("2026-09-02"); !ticked {
		t.Fatalf("new label should tick again")
	}
}

func TestMarketFloor(t *testing.T) {
	m := NewMarket(map[Company]int64{Tesla: FloorPrice})
	m.Seed(42)
	for day := 0; day < 500; day++ {
		samples, ticked := m.AdvanceDay(dayName(day))
		if !ticked {
			t.Fatalf("day %d did not tick", day)
		}
		for _, s := range samples {
			if s.Price < FloorPrice {
				t.Fatalf("day %d: %q price %d fell below floor %d", day, s.Company, s.Price, FloorPrice)
			}
		}
	}
}

func TestMarketSamplesCarryLabel(t *testing.T) {
	m := NewMarket(BasePrices())
	m.Seed(7)
	samples, _ := m.AdvanceDay("2026-03-14")
	for _, s := range samples {
		if s.DayLabel != "2026-03-14" {
			t.Fatalf("sample for %q labeled %q", s.Company, s.DayLabel)
		}
		live, err := m.PriceOf(s.Company)
		if err != nil {
			t.Fatalf("PriceOf(%q): %v", s.Company, err)
		}
		if live != s.Price {
			t.Fatalf("sample price %d disagrees with live price %d for %q", s.Price, live, s.Company)
		}
	}
}

func TestMarketFloorsSeedPrices(t *testing.T) {
	m := NewMarket(map[Company]int64{Tesla: 1})
	p, err := m.PriceOf(Tesla)
	if err != nil {
		t.Fatalf("PriceOf: %v", err)
	}
	if p != FloorPrice {
		t.Fatalf("seed price below floor not clamped: got %d", p)
	}
}

func TestMarketUnknownCompany(t *testing.T) {
	m := NewMarket(BasePrices())
	if _, err := m.PriceOf(Company("Enron")); err != ErrUnknownCompany {
		t.Fatalf("expected ErrUnknownCompany, got %v", err)
	}
}

func dayName(i int) string {
	return "day-" + string(rune('A'+i/26)) + string(rune('A'+i%26))
}
