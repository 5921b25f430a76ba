// Package authority implements the token authority from spec §4.2: HS256
// access/refresh/admin token issuance and validation, refresh-token
// persistence keyed by an HMAC of the token rather than the token itself,
// and a hot-swappable signing secret read through a cached cell so
// rotation never blocks a validating request.
//
// Grounded on the teacher's shared/middleware/auth.go (HS256 + jwt/v5
// idiom) and pkg/gourdiantoken-master (claims shape, issuer convention),
// generalized from the teacher's fixed access/refresh secret pair to the
// spec's single rotating secret shared by all three token kinds.
package authority

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/arcauth/gateway/internal/apierr"
)

const tokenIssuer = "arc-gateway"

// Authority issues and validates the three token kinds the gateway knows
// about. A single process holds one Authority; the control API and the
// proxy data plane both read through it.
type Authority struct {
	secrets    *SecretCache
	store      RefreshTokenStore
	accessTTL  time.Duration
	refreshTTL time.Duration
	autoRefreshThreshold time.Duration
}

func New(secrets *SecretCache, store RefreshTokenStore, accessTTL, refreshTTL, autoRefreshThreshold time.Duration) *Authority {
	return &Authority{
		secrets:              secrets,
		store:                store,
		accessTTL:            accessTTL,
		refreshTTL:           refreshTTL,
		autoRefreshThreshold: autoRefreshThreshold,
	}
}

func newJTI() string { return uuid.NewString() }

// GenerateAccessToken issues a short-lived access token for userID/email.
func (a *Authority) GenerateAccessToken(userID, email string) (string, error) {
	now := time.Now()
	claims := AccessTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        newJTI(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.secrets.Get()))
}

// GenerateRefreshToken issues a refresh token and persists its HMAC hash
// under the secret active right now, per spec §4.2.
func (a *Authority) GenerateRefreshToken(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	expiresAt := now.Add(a.refreshTTL)
	claims := RefreshTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        newJTI(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secret := a.secrets.Get()
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	err = a.store.InsertRefreshToken(ctx, RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hmacHash(signed, secret),
		ExpiresAt: expiresAt,
		Revoked:   false,
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return signed, nil
}

// GenerateAdminToken mirrors GenerateAccessToken for the admin surface;
// admin tokens share the rotating signing secret (open question b, see
// DESIGN.md).
func (a *Authority) GenerateAdminToken(adminID, username string) (string, error) {
	now := time.Now()
	claims := AdminTokenClaims{
		Username: username,
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        newJTI(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.secrets.Get()))
}

func (a *Authority) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(a.secrets.Get()), nil
}

// ValidateAccessToken decodes and verifies an access token against the
// currently cached secret.
func (a *Authority) ValidateAccessToken(raw string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, a.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierr.TokenExpired()
		}
		return nil, apierr.InvalidToken()
	}
	return claims, nil
}

// ValidateAdminToken decodes and verifies an admin token.
func (a *Authority) ValidateAdminToken(raw string) (*AdminTokenClaims, error) {
	claims := &AdminTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, a.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierr.TokenExpired()
		}
		return nil, apierr.InvalidToken()
	}
	return claims, nil
}

// ValidateRefreshToken decodes the token, then looks it up by HMAC hash
// under the secret the token itself validates against. A hash miss or a
// structurally invalid token both report InvalidToken; a hash hit with
// Revoked=true reports TokenRevoked.
func (a *Authority) ValidateRefreshToken(ctx context.Context, raw string) (*RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, a.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierr.TokenExpired()
		}
		return nil, apierr.InvalidToken()
	}

	hash := hmacHash(raw, a.secrets.Get())
	rec, err := a.store.FindRefreshTokenByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apierr.InvalidToken()
	}
	if rec.Revoked {
		return nil, apierr.TokenRevoked()
	}
	return claims, nil
}

// RevokeRefreshToken marks the presented token's row revoked. It is
// idempotent: revoking an already-revoked or already-absent token is not
// an error (invariant 5 only requires that subsequent validation reports
// TokenRevoked, which it already does for a revoked row).
func (a *Authority) RevokeRefreshToken(ctx context.Context, raw string) error {
	hash := hmacHash(raw, a.secrets.Get())
	return a.store.RevokeRefreshTokenByHash(ctx, hash)
}

// ShouldRefresh reports whether an access token is close enough to expiry
// that the proxy should hint the client to refresh it.
func (a *Authority) ShouldRefresh(claims *AccessTokenClaims) bool {
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) < a.autoRefreshThreshold
}

func hmacHash(token, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewSigningSecret generates a fresh 64-character alphanumeric secret, used
// by the rotation scheduler per spec §4.2.
func NewSigningSecret() (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
