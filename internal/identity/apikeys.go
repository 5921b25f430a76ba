package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/arcauth/gateway/internal/apierr"
)

const apiKeyRawBytes = 32 // 64 hex chars
const apiKeyPrefixLen = 8

// ApiKeyService implements spec §4.6's ApiKey discipline: the raw key is
// shown exactly once; only its SHA-256 and an 8-char display prefix are
// ever persisted.
type ApiKeyService struct {
	repo ApiKeyRepository
}

func NewApiKeyService(repo ApiKeyRepository) *ApiKeyService {
	return &ApiKeyService{repo: repo}
}

// Create returns the raw key alongside the persisted record; the caller
// must surface rawKey to the admin now, because it is never retrievable
// again.
func (s *ApiKeyService) Create(ctx context.Context, adminID, name string, permissions []string) (rawKey string, key *ApiKey, err error) {
	buf := make([]byte, apiKeyRawBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, apierr.Internal()
	}
	raw := hex.EncodeToString(buf)
	digest := sha256.Sum256([]byte(raw))

	rec := ApiKey{
		ID:          uuid.NewString(),
		AdminID:     adminID,
		Name:        name,
		KeyHash:     hex.EncodeToString(digest[:]),
		KeyPrefix:   raw[:apiKeyPrefixLen],
		Permissions: permissions,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return "", nil, apierr.Internal()
	}
	return raw, &rec, nil
}

func (s *ApiKeyService) List(ctx context.Context, adminID string) ([]ApiKey, error) {
	keys, err := s.repo.ListByAdmin(ctx, adminID)
	if err != nil {
		return nil, apierr.Internal()
	}
	return keys, nil
}

func (s *ApiKeyService) Delete(ctx context.Context, id, adminID string) error {
	if err := s.repo.Delete(ctx, id, adminID); err != nil {
		return apierr.Internal()
	}
	return nil
}

// Authenticate resolves a raw API key presented via X-API-Key and checks
// it carries the required permission scope.
func (s *ApiKeyService) Authenticate(ctx context.Context, rawKey, requiredScope string) (*ApiKey, error) {
	digest := sha256.Sum256([]byte(rawKey))
	key, err := s.repo.FindByHash(ctx, hex.EncodeToString(digest[:]))
	if err != nil {
		return nil, apierr.Internal()
	}
	if key == nil {
		return nil, apierr.InvalidCredentials()
	}
	if requiredScope != "" && !key.HasPermission(requiredScope) {
		return nil, apierr.Forbidden("missing required scope: " + requiredScope)
	}
	return key, nil
}
