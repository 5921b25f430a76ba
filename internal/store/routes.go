package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arcauth/gateway/internal/routecache"
)

// RouteStore persists the dynamic route table the control API manages and
// the route matcher reloads on every successful write (spec §4.1).
type RouteStore struct {
	db *sqlx.DB
}

func NewRouteStore(db *sqlx.DB) *RouteStore {
	return &RouteStore{db: db}
}

type routeRow struct {
	ID              uuid.UUID      `db:"id"`
	PathPrefix      string         `db:"path_prefix"`
	UpstreamAddress string         `db:"upstream_address"`
	RequireAuth     bool           `db:"require_auth"`
	StripPrefix     sql.NullString `db:"strip_prefix"`
	Enabled         bool           `db:"enabled"`
}

func (r routeRow) toDomain() routecache.Route {
	return routecache.Route{
		ID:              r.ID.String(),
		PathPrefix:      r.PathPrefix,
		UpstreamAddress: r.UpstreamAddress,
		RequireAuth:     r.RequireAuth,
		StripPrefix:     r.StripPrefix.String,
		Enabled:         r.Enabled,
	}
}

// ListAll returns every route in insertion order, the order the matcher
// scans in.
func (s *RouteStore) ListAll(ctx context.Context) ([]routecache.Route, error) {
	var rows []routeRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, path_prefix, upstream_address, require_auth, strip_prefix, enabled FROM proxy_routes ORDER BY created_at ASC`); err != nil {
		return nil, err
	}
	out := make([]routecache.Route, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *RouteStore) Create(ctx context.Context, r routecache.Route) (routecache.Route, error) {
	id := uuid.New()
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO proxy_routes (id, path_prefix, upstream_address, require_auth, strip_prefix, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		id, r.PathPrefix, r.UpstreamAddress, r.RequireAuth, nullableString(r.StripPrefix), r.Enabled, now,
	)
	if err != nil {
		return routecache.Route{}, err
	}
	r.ID = id.String()
	return r, nil
}

func (s *RouteStore) Update(ctx context.Context, r routecache.Route) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE proxy_routes SET path_prefix = $1, upstream_address = $2, require_auth = $3, strip_prefix = $4, enabled = $5, updated_at = now()
		 WHERE id = $6`,
		r.PathPrefix, r.UpstreamAddress, r.RequireAuth, nullableString(r.StripPrefix), r.Enabled, r.ID,
	)
	return err
}

func (s *RouteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM proxy_routes WHERE id = $1`, id)
	return err
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
