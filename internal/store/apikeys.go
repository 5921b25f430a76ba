package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/identity"
)

type ApiKeyStore struct {
	db *sqlx.DB
}

func NewApiKeyStore(db *sqlx.DB) *ApiKeyStore {
	return &ApiKeyStore{db: db}
}

type apiKeyRow struct {
	ID          uuid.UUID      `db:"id"`
	AdminID     uuid.UUID      `db:"admin_id"`
	Name        string         `db:"name"`
	KeyHash     string         `db:"key_hash"`
	KeyPrefix   string         `db:"key_prefix"`
	Permissions pq.StringArray `db:"permissions"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r apiKeyRow) toDomain() identity.ApiKey {
	return identity.ApiKey{
		ID: r.ID.String(), AdminID: r.AdminID.String(), Name: r.Name,
		KeyHash: r.KeyHash, KeyPrefix: r.KeyPrefix,
		Permissions: []string(r.Permissions), CreatedAt: r.CreatedAt,
	}
}

func (s *ApiKeyStore) Create(ctx context.Context, key identity.ApiKey) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, admin_id, name, key_hash, key_prefix, permissions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), key.AdminID, key.Name, key.KeyHash, key.KeyPrefix, pq.Array(key.Permissions), key.CreatedAt,
	)
	if err != nil {
		logx.Errorf("failed to create api key: %v", err)
	}
	return err
}

func (s *ApiKeyStore) ListByAdmin(ctx context.Context, adminID string) ([]identity.ApiKey, error) {
	var rows []apiKeyRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, admin_id, name, key_hash, key_prefix, permissions, created_at FROM api_keys WHERE admin_id = $1 ORDER BY created_at DESC`,
		adminID,
	)
	if err != nil {
		return nil, err
	}
	out := make([]identity.ApiKey, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *ApiKeyStore) Delete(ctx context.Context, id, adminID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1 AND admin_id = $2`, id, adminID)
	return err
}

func (s *ApiKeyStore) FindByHash(ctx context.Context, keyHash string) (*identity.ApiKey, error) {
	var row apiKeyRow
	err := s.db.GetContext(ctx, &row, `SELECT id, admin_id, name, key_hash, key_prefix, permissions, created_at FROM api_keys WHERE key_hash = $1`, keyHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	domain := row.toDomain()
	return &domain, nil
}
