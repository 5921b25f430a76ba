package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arcauth/gateway/internal/authority"
)

// RefreshTokenStore implements authority.RefreshTokenStore.
type RefreshTokenStore struct {
	db *sqlx.DB
}

func NewRefreshTokenStore(db *sqlx.DB) *RefreshTokenStore {
	return &RefreshTokenStore{db: db}
}

type refreshTokenRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	Revoked   bool      `db:"revoked"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *RefreshTokenStore) InsertRefreshToken(ctx context.Context, rec authority.RefreshTokenRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at) VALUES ($1, $2, $3, $4, false, $5)`,
		uuid.New(), rec.UserID, rec.TokenHash, rec.ExpiresAt, rec.CreatedAt,
	)
	return err
}

func (s *RefreshTokenStore) FindRefreshTokenByHash(ctx context.Context, hash string) (*authority.RefreshTokenRecord, error) {
	var row refreshTokenRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, user_id, token_hash, expires_at, revoked, created_at FROM refresh_tokens WHERE token_hash = $1`,
		hash,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &authority.RefreshTokenRecord{
		ID: row.ID.String(), UserID: row.UserID.String(), TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt, Revoked: row.Revoked, CreatedAt: row.CreatedAt,
	}, nil
}

func (s *RefreshTokenStore) RevokeRefreshTokenByHash(ctx context.Context, hash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = true WHERE token_hash = $1`, hash)
	return err
}

// CleanupExpiredOrRevoked deletes refresh tokens that are expired or
// already revoked; called by the 60-minute cleanup scheduler (§6).
func (s *RefreshTokenStore) CleanupExpiredOrRevoked(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < now() OR revoked = true`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
