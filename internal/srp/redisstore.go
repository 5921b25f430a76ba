package srp

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs SRP sessions with Redis so a login in flight survives a
// gateway restart and can be completed by a different replica than the one
// that handled Init. Grounded on third_party/cache's go-redis client idiom.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "srp:session:"}
}

type wireSession struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	Salt          string `json:"salt"`
	Verifier      string `json:"verifier"`
	ServerPublic  string `json:"server_public"`
	ServerPrivate string `json:"server_private"`
	ClientPublic  string `json:"client_public"`
	ExpiresAt     int64  `json:"expires_at"`
}

func toWire(s Session) wireSession {
	return wireSession{
		UserID:        s.UserID,
		Email:         s.Email,
		Salt:          s.Salt,
		Verifier:      s.Verifier.Text(16),
		ServerPublic:  s.ServerPublic.Text(16),
		ServerPrivate: s.ServerPrivate.Text(16),
		ClientPublic:  s.ClientPublic.Text(16),
		ExpiresAt:     s.ExpiresAt.Unix(),
	}
}

func fromWire(w wireSession) Session {
	parse := func(hex string) *big.Int {
		n := new(big.Int)
		n.SetString(hex, 16)
		return n
	}
	return Session{
		UserID:        w.UserID,
		Email:         w.Email,
		Salt:          w.Salt,
		Verifier:      parse(w.Verifier),
		ServerPublic:  parse(w.ServerPublic),
		ServerPrivate: parse(w.ServerPrivate),
		ClientPublic:  parse(w.ClientPublic),
		ExpiresAt:     time.Unix(w.ExpiresAt, 0),
	}
}

func (r *RedisStore) Save(ctx context.Context, id string, s Session) error {
	payload, err := json.Marshal(toWire(s))
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return r.client.Set(ctx, r.prefix+id, payload, ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, bool, error) {
	payload, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var w wireSession
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, false, err
	}
	s := fromWire(w)
	if time.Now().After(s.ExpiresAt) {
		_ = r.Delete(ctx, id)
		return nil, false, nil
	}
	return &s, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}
