package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// StatsStore answers the aggregate counters the admin/external stats
// endpoints expose (§12.1): user counts and active refresh-token count.
// Per-route counts and total requests served come from internal/proxy's
// in-memory counters instead, since those are process state, not rows.
type StatsStore struct {
	db *sqlx.DB
}

func NewStatsStore(db *sqlx.DB) *StatsStore {
	return &StatsStore{db: db}
}

type Stats struct {
	TotalUsers         int64
	UsersLast24h       int64
	ActiveRefreshTokens int64
}

func (s *StatsStore) Load(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.GetContext(ctx, &stats.TotalUsers, `SELECT count(*) FROM users`); err != nil {
		return Stats{}, err
	}
	if err := s.db.GetContext(ctx, &stats.UsersLast24h,
		`SELECT count(*) FROM users WHERE created_at > $1`, time.Now().Add(-24*time.Hour)); err != nil {
		return Stats{}, err
	}
	if err := s.db.GetContext(ctx, &stats.ActiveRefreshTokens,
		`SELECT count(*) FROM refresh_tokens WHERE revoked = false AND expires_at > now()`); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
