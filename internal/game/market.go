package game

import (
	"math/rand"
	"sync"
	"time"
)

// PriceSample is one appended row of a company's price history.
type PriceSample struct {
	Company  Company `json:"company"`
	DayLabel string  `json:"day_label"`
	Price    int64   `json:"price"`
}

// Market owns the live per-company prices. It is global shared mutable state
// and the only writer of price history, so every access goes through its
// mutex. The tick gate keys on the day label: the first AdvanceDay call for a
// not-yet-ticked day rolls every price exactly once, later calls for the same
// label observe the already-updated prices without re-rolling.
type Market struct {
	mu         sync.Mutex
	prices     map[Company]int64
	lastTicked string
	rand       *rand.Rand
}

func NewMarket(prices map[Company]int64) *Market {
	m := &Market{
		prices: make(map[Company]int64, len(prices)),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for c, p := range prices {
		if p < FloorPrice {
			p = FloorPrice
		}
		m.prices[c] = p
	}
	return m
}

// Seed re-seeds the internal generator. Tests use it for deterministic rolls.
func (m *Market) Seed(seed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rand = rand.New(rand.NewSource(seed))
}

func (m *Market) PriceOf(company Company) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[company]
	if !ok {
		return 0, ErrUnknownCompany
	}
	return p, nil
}

// Prices returns a copy of the live price table.
func (m *Market) Prices() map[Company]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Company]int64, len(m.prices))
	for c, p := range m.prices {
		out[c] = p
	}
	return out
}

// AdvanceDay applies one independent uniform multiplicative change in
// [-20%, +30%] to every company, floored at FloorPrice, and returns the new
// samples labeled with dayLabel. It is a no-op returning ticked=false when the
// label was already rolled.
func (m *Market) AdvanceDay(dayLabel string) (samples []PriceSample, ticked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if dayLabel == m.lastTicked {
		return nil, false
	}

	samples = make([]PriceSample, 0, len(m.prices))
	for _, c := range Companies() {
		price, ok := m.prices[c]
		if !ok {
			continue
		}
		change := -0.20 + m.rand.Float64()*0.50
		next := int64(float64(price) * (1 + change))
		if next < FloorPrice {
			next = FloorPrice
		}
		m.prices[c] = next
		samples = append(samples, PriceSample{Company: c, DayLabel: dayLabel, Price: next})
	}
	m.lastTicked = dayLabel
	return samples, true
}
