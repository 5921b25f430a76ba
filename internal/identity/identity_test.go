package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcauth/gateway/internal/apierr"
)

// fakeUserStore is a minimal in-memory stand-in for the sqlx-backed
// repositories internal/store implements; it reproduces just enough of
// the transactional redemption discipline to exercise UserService.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]User // by email
	codes map[string]VerificationCode
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]User{}, codes: map[string]VerificationCode{}}
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUserStore) ListPaged(_ context.Context, limit, offset int) ([]*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*User, 0, len(f.users))
	for _, u := range f.users {
		u := u
		out = append(out, &u)
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (f *fakeUserStore) Create(_ context.Context, code VerificationCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code.Email+":"+string(code.CodeType)] = code
	return nil
}

func (f *fakeUserStore) redeem(email, code string, codeType VerificationCodeType) error {
	key := email + ":" + string(codeType)
	row, ok := f.codes[key]
	if !ok || row.Used {
		return ErrCodeInvalid
	}
	if time.Now().After(row.ExpiresAt) {
		return ErrCodeInvalid
	}
	row.Attempts++
	if row.Attempts >= MaxVerificationAttempts {
		f.codes[key] = row
		return ErrTooManyAttempts
	}
	if row.Code != code {
		f.codes[key] = row
		return ErrCodeInvalid
	}
	row.Used = true
	f.codes[key] = row
	return nil
}

func (f *fakeUserStore) RedeemRegistration(_ context.Context, email, code, saltHex, verifierHex string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.redeem(email, code, CodeTypeRegister); err != nil {
		return nil, err
	}
	if _, exists := f.users[email]; exists {
		return nil, ErrEmailExists
	}
	u := User{
		ID:            uuid.NewString(),
		Email:         email,
		EmailVerified: true,
		SRPSalt:       saltHex,
		SRPVerifier:   verifierHex,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.users[email] = u
	return &u, nil
}

func (f *fakeUserStore) RedeemPasswordReset(_ context.Context, email, code, saltHex, verifierHex string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.redeem(email, code, CodeTypePasswordReset); err != nil {
		return nil, err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, ErrCodeInvalid
	}
	u.SRPSalt = saltHex
	u.SRPVerifier = verifierHex
	u.UpdatedAt = time.Now()
	f.users[email] = u
	return &u, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, email, code string, _ VerificationCodeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email+":"+code)
	return nil
}

func (m *fakeMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := m.sent[len(m.sent)-1]
	for i := len(last) - 1; i >= 0; i-- {
		if last[i] == ':' {
			return last[i+1:]
		}
	}
	return ""
}

func TestRegistrationRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	mailer := &fakeMailer{}
	svc := NewUserService(store, store, mailer, NewEmailValidator(nil))

	require.NoError(t, svc.RequestRegistration(ctx, "New@Example.com"))
	code := mailer.lastCode()
	require.NotEmpty(t, code)

	user, err := svc.VerifyRegistration(ctx, "new@example.com", code, "aabbcc", "112233")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.Equal(t, "new@example.com", user.Email)
}

func TestVerifyRegistrationTooManyAttempts(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	mailer := &fakeMailer{}
	svc := NewUserService(store, store, mailer, NewEmailValidator(nil))

	require.NoError(t, svc.RequestRegistration(ctx, "a@example.com"))
	for i := 0; i < MaxVerificationAttempts; i++ {
		_, err := svc.VerifyRegistration(ctx, "a@example.com", "000000", "s", "v")
		apiErr, ok := err.(*apierr.Error)
		require.True(t, ok)
		assert.Equal(t, "INVALID_CODE", apiErr.Code)
	}
}

func TestPasswordResetAlwaysSucceedsForUnknownEmail(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	mailer := &fakeMailer{}
	svc := NewUserService(store, store, mailer, NewEmailValidator(nil))

	assert.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, mailer.sent, "must not send mail or reveal existence for unknown email")
}

type fakeAdminStore struct {
	mu        sync.Mutex
	admins    map[string]Admin // by username
	tokens    map[string]bool  // raw token -> used
	tokenUser string
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{admins: map[string]Admin{}, tokens: map[string]bool{}}
}

func (f *fakeAdminStore) FindByUsername(_ context.Context, username string) (*Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[username]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeAdminStore) FindByID(_ context.Context, id string) (*Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeAdminStore) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.admins), nil
}

func (f *fakeAdminStore) CreateWithToken(_ context.Context, username, passwordHash, rawToken string) (*Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	used, issued := f.tokens[rawToken]
	if !issued || used {
		return nil, ErrTokenInvalid
	}
	if _, exists := f.admins[username]; exists {
		return nil, ErrEmailExists
	}
	f.tokens[rawToken] = true
	a := Admin{ID: uuid.NewString(), Username: username, PasswordHash: passwordHash, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.admins[username] = a
	return &a, nil
}

func (f *fakeAdminStore) UpdatePassword(_ context.Context, adminID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, a := range f.admins {
		if a.ID == adminID {
			a.PasswordHash = passwordHash
			f.admins[k] = a
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeAdminStore) CreateBootstrapToken(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw := uuid.NewString()
	f.tokens[raw] = false
	return raw, nil
}

func TestAdminBootstrapOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	store := newFakeAdminStore()
	svc := NewAdminService(store, store)

	token, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	admin, err := svc.CreateWithToken(ctx, "root", "Supersecret1", token)
	require.NoError(t, err)
	assert.Equal(t, "root", admin.Username)

	again, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Empty(t, again, "no bootstrap token once an admin exists")
}

func TestAdminCreateWithTokenRejectsReuse(t *testing.T) {
	ctx := context.Background()
	store := newFakeAdminStore()
	svc := NewAdminService(store, store)

	token, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	_, err = svc.CreateWithToken(ctx, "root", "Supersecret1", token)
	require.NoError(t, err)

	_, err = svc.CreateWithToken(ctx, "root2", "Supersecret1", token)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", apiErr.Code)
}

func TestAdminAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := newFakeAdminStore()
	svc := NewAdminService(store, store)
	token, _ := svc.Bootstrap(ctx)
	_, err := svc.CreateWithToken(ctx, "root", "Supersecret1", token)
	require.NoError(t, err)

	admin, err := svc.Authenticate(ctx, "root", "Supersecret1")
	require.NoError(t, err)
	assert.Equal(t, "root", admin.Username)

	_, err = svc.Authenticate(ctx, "root", "wrong-password")
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

type fakeApiKeyStore struct {
	mu   sync.Mutex
	keys map[string]ApiKey // by hash
}

func newFakeApiKeyStore() *fakeApiKeyStore { return &fakeApiKeyStore{keys: map[string]ApiKey{}} }

func (f *fakeApiKeyStore) Create(_ context.Context, key ApiKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key.KeyHash] = key
	return nil
}

func (f *fakeApiKeyStore) ListByAdmin(_ context.Context, adminID string) ([]ApiKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ApiKey
	for _, k := range f.keys {
		if k.AdminID == adminID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeApiKeyStore) Delete(_ context.Context, id, adminID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, k := range f.keys {
		if k.ID == id && k.AdminID == adminID {
			delete(f.keys, h)
		}
	}
	return nil
}

func (f *fakeApiKeyStore) FindByHash(_ context.Context, hash string) (*ApiKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.keys[hash]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func TestApiKeyLifecycleAndScopeCheck(t *testing.T) {
	ctx := context.Background()
	store := newFakeApiKeyStore()
	svc := NewApiKeyService(store)

	raw, key, err := svc.Create(ctx, "admin-1", "ci-bot", []string{"stats:read"})
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.Len(t, key.KeyPrefix, 8)

	authed, err := svc.Authenticate(ctx, raw, "stats:read")
	require.NoError(t, err)
	assert.Equal(t, key.ID, authed.ID)

	_, err = svc.Authenticate(ctx, raw, "users:read")
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", apiErr.Code)

	_, err = svc.Authenticate(ctx, "0000000000000000000000000000000000000000000000000000000000000", "stats:read")
	apiErr, ok = err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}
