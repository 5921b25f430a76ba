package authority

import (
	"context"
	"time"
)

// RefreshTokenRecord is the persisted row backing a refresh token: the
// token itself is never stored, only the HMAC hash computed under the
// signing secret active at issuance time.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// RefreshTokenStore is implemented by internal/store; the interface lives
// here so the token authority never imports the persistence layer.
type RefreshTokenStore interface {
	InsertRefreshToken(ctx context.Context, rec RefreshTokenRecord) error
	FindRefreshTokenByHash(ctx context.Context, hash string) (*RefreshTokenRecord, error)
	RevokeRefreshTokenByHash(ctx context.Context, hash string) error
}
