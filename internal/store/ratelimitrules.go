package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RateLimitRule is the persisted form of spec §3's RateLimitRule. Per
// Open Question (c) these rows are configuration of record but are not
// yet read back into the in-memory limiter at runtime — see DESIGN.md.
type RateLimitRule struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	PathPattern string `db:"path_pattern"`
	LimitBy     string `db:"limit_by"`
	MaxRequests int    `db:"max_requests"`
	WindowSecs  int    `db:"window_secs"`
	Enabled     bool   `db:"enabled"`
}

type RateLimitRuleStore struct {
	db *sqlx.DB
}

func NewRateLimitRuleStore(db *sqlx.DB) *RateLimitRuleStore {
	return &RateLimitRuleStore{db: db}
}

func (s *RateLimitRuleStore) ListAll(ctx context.Context) ([]RateLimitRule, error) {
	var rows []RateLimitRule
	err := s.db.SelectContext(ctx, &rows, `SELECT id, name, path_pattern, limit_by, max_requests, window_secs, enabled FROM rate_limit_rules ORDER BY created_at ASC`)
	return rows, err
}

func (s *RateLimitRuleStore) Create(ctx context.Context, r RateLimitRule) (RateLimitRule, error) {
	id := uuid.New()
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rate_limit_rules (id, name, path_pattern, limit_by, max_requests, window_secs, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		id, r.Name, r.PathPattern, r.LimitBy, r.MaxRequests, r.WindowSecs, r.Enabled, now,
	)
	if err != nil {
		return RateLimitRule{}, err
	}
	r.ID = id.String()
	return r, nil
}

func (s *RateLimitRuleStore) Update(ctx context.Context, r RateLimitRule) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rate_limit_rules SET name = $1, path_pattern = $2, limit_by = $3, max_requests = $4, window_secs = $5, enabled = $6, updated_at = now()
		 WHERE id = $7`,
		r.Name, r.PathPattern, r.LimitBy, r.MaxRequests, r.WindowSecs, r.Enabled, r.ID,
	)
	return err
}

func (s *RateLimitRuleStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rate_limit_rules WHERE id = $1`, id)
	return err
}
