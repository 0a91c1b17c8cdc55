// Package memory is the in-process Store used by tests and database-less dev
// runs. Writes copy aggregates on the way in and out, so callers never share
// state with the store.
package memory

import (
	"context"
	"sync"

	"tycoon/internal/game"
)

type Store struct {
	mu        sync.RWMutex
	players   map[string]*game.Player
	referrals map[string]string // referred id -> referrer id
	history   map[game.Company][]game.PriceSample
}

func New() *Store {
	return &Store{
		players:   make(map[string]*game.Player),
		referrals: make(map[string]string),
		history:   make(map[game.Company][]game.PriceSample),
	}
}

func (s *Store) Player(ctx context.Context, id string) (*game.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, game.ErrPlayerNotFound
	}
	return p.Clone(), nil
}

func (s *Store) CreatePlayer(ctx context.Context, p *game.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; ok {
		return game.ErrAlreadyOnboarded
	}
	s.players[p.ID] = p.Clone()
	return nil
}

func (s *Store) SavePlayer(ctx context.Context, p *game.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; !ok {
		return game.ErrPlayerNotFound
	}
	s.players[p.ID] = p.Clone()
	return nil
}

func (s *Store) PlayerIDByReferralCode(ctx context.Context, code string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, p := range s.players {
		if p.ReferralCode == code {
			return id, nil
		}
	}
	return "", game.ErrPlayerNotFound
}

func (s *Store) RegisterReferral(ctx context.Context, referrerID, referredID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.referrals[referredID]; ok {
		return false, nil
	}
	s.referrals[referredID] = referrerID
	return true, nil
}

func (s *Store) ReferralCount(ctx context.Context, referrerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, rid := range s.referrals {
		if rid == referrerID {
			n++
		}
	}
	return n, nil
}

func (s *Store) AppendPriceHistory(ctx context.Context, samples []game.PriceSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sample := range samples {
		s.history[sample.Company] = append(s.history[sample.Company], sample)
	}
	return nil
}

func (s *Store) PriceHistory(ctx context.Context, company game.Company, limit int) ([]game.PriceSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.history[company]
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	out := make([]game.PriceSample, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Store) LatestPrices(ctx context.Context) (map[game.Company]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[game.Company]int64)
	for company, rows := range s.history {
		if len(rows) > 0 {
			out[company] = rows[len(rows)-1].Price
		}
	}
	return out, nil
}
