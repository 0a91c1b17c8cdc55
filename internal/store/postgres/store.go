// Package postgres is the durable Store. Every aggregate write runs in one
// transaction so the player row and its holdings rows replace together.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tycoon/internal/game"
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the game tables when they do not exist yet. The company
// column holds the closed catalog enumeration; uniqueness on referred_id is
// what makes referral registration idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			id             TEXT PRIMARY KEY,
			balance        BIGINT NOT NULL,
			rig_count      BIGINT NOT NULL,
			day            BIGINT NOT NULL,
			quest_progress INT NOT NULL,
			referral_code  TEXT NOT NULL UNIQUE,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS holdings (
			player_id TEXT NOT NULL REFERENCES players(id),
			company   TEXT NOT NULL,
			amount    BIGINT NOT NULL,
			PRIMARY KEY (player_id, company)
		);
		CREATE TABLE IF NOT EXISTS referrals (
			referrer_id TEXT NOT NULL,
			referred_id TEXT PRIMARY KEY,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS price_history (
			company   TEXT NOT NULL,
			day_label TEXT NOT NULL,
			price     BIGINT NOT NULL,
			id        BIGSERIAL PRIMARY KEY
		);
		CREATE INDEX IF NOT EXISTS price_history_company_idx
			ON price_history (company, id DESC);
	`)
	return err
}

func (s *Store) Player(ctx context.Context, id string) (*game.Player, error) {
	p := &game.Player{Holdings: make(map[game.Company]int64, len(game.Companies()))}
	err := s.db.QueryRow(ctx, `
		SELECT id, balance, rig_count, day, quest_progress, referral_code
		FROM players
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Balance, &p.RigCount, &p.Day, &p.QuestProgress, &p.ReferralCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrPlayerNotFound
		}
		return nil, err
	}

	for _, c := range game.Companies() {
		p.Holdings[c] = 0
	}
	rows, err := s.db.Query(ctx, `
		SELECT company, amount
		FROM holdings
		WHERE player_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var company string
		var amount int64
		if err := rows.Scan(&company, &amount); err != nil {
			return nil, err
		}
		p.Holdings[game.Company(company)] = amount
	}
	return p, rows.Err()
}

func (s *Store) CreatePlayer(ctx context.Context, p *game.Player) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		INSERT INTO players (id, balance, rig_count, day, quest_progress, referral_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.Balance, p.RigCount, p.Day, p.QuestProgress, p.ReferralCode)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return game.ErrAlreadyOnboarded
	}
	if err := replaceHoldings(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) SavePlayer(ctx context.Context, p *game.Player) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		UPDATE players
		SET balance = $1, rig_count = $2, day = $3, quest_progress = $4, updated_at = now()
		WHERE id = $5
	`, p.Balance, p.RigCount, p.Day, p.QuestProgress, p.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return game.ErrPlayerNotFound
	}
	if err := replaceHoldings(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceHoldings(ctx context.Context, tx pgx.Tx, p *game.Player) error {
	for _, c := range game.Companies() {
		_, err := tx.Exec(ctx, `
			INSERT INTO holdings (player_id, company, amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (player_id, company) DO UPDATE SET amount = $3
		`, p.ID, string(c), p.Holdings[c])
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) PlayerIDByReferralCode(ctx context.Context, code string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		SELECT id FROM players WHERE referral_code = $1
	`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", game.ErrPlayerNotFound
	}
	return id, err
}

func (s *Store) RegisterReferral(ctx context.Context, referrerID, referredID string) (bool, error) {
	cmd, err := s.db.Exec(ctx, `
		INSERT INTO referrals (referrer_id, referred_id)
		VALUES ($1, $2)
		ON CONFLICT (referred_id) DO NOTHING
	`, referrerID, referredID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (s *Store) ReferralCount(ctx context.Context, referrerID string) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM referrals WHERE referrer_id = $1
	`, referrerID).Scan(&n)
	return n, err
}

func (s *Store) AppendPriceHistory(ctx context.Context, samples []game.PriceSample) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, sample := range samples {
		_, err := tx.Exec(ctx, `
			INSERT INTO price_history (company, day_label, price)
			VALUES ($1, $2, $3)
		`, string(sample.Company), sample.DayLabel, sample.Price)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) PriceHistory(ctx context.Context, company game.Company, limit int) ([]game.PriceSample, error) {
	rows, err := s.db.Query(ctx, `
		SELECT company, day_label, price
		FROM (
			SELECT id, company, day_label, price
			FROM price_history
			WHERE company = $1
			ORDER BY id DESC
			LIMIT $2
		) recent
		ORDER BY id ASC
	`, string(company), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.PriceSample
	for rows.Next() {
		var sample game.PriceSample
		var name string
		if err := rows.Scan(&name, &sample.DayLabel, &sample.Price); err != nil {
			return nil, err
		}
		sample.Company = game.Company(name)
		out = append(out, sample)
	}
	return out, rows.Err()
}

// LatestPrices returns the last persisted price per company so a restarted
// process resumes the market where the previous one left it.
func (s *Store) LatestPrices(ctx context.Context) (map[game.Company]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (company) company, price
		FROM price_history
		ORDER BY company, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[game.Company]int64)
	for rows.Next() {
		var name string
		var price int64
		if err := rows.Scan(&name, &price); err != nil {
			return nil, err
		}
		out[game.Company(name)] = price
	}
	return out, rows.Err()
}
