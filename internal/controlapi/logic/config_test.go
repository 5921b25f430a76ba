package logic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcauth/gateway/internal/authority"
	"github.com/arcauth/gateway/internal/controlapi/svc"
	"github.com/arcauth/gateway/internal/controlapi/types"
	"github.com/arcauth/gateway/internal/routecache"
	"github.com/arcauth/gateway/internal/store"
	"github.com/arcauth/gateway/internal/systemconfig"
)

func TestToRouteResponseRoundTripsFields(t *testing.T) {
	route := routecache.Route{
		ID: "r1", PathPrefix: "/svc", UpstreamAddress: "http://upstream:8080",
		RequireAuth: true, StripPrefix: "/svc", Enabled: true,
	}
	resp := toRouteResponse(route)
	assert.Equal(t, types.RouteResponse{
		ID: "r1", PathPrefix: "/svc", UpstreamAddress: "http://upstream:8080",
		RequireAuth: true, StripPrefix: "/svc", Enabled: true,
	}, resp)
}

func TestToRateLimitResponseRoundTripsFields(t *testing.T) {
	rule := store.RateLimitRule{
		ID: "rl1", Name: "login", PathPattern: "/auth/*", LimitBy: "ip",
		MaxRequests: 10, WindowSecs: 60, Enabled: true,
	}
	resp := toRateLimitResponse(rule)
	assert.Equal(t, types.RateLimitRuleResponse{
		ID: "rl1", Name: "login", PathPattern: "/auth/*", LimitBy: "ip",
		MaxRequests: 10, WindowSecs: 60, Enabled: true,
	}, resp)
}

type fakeSystemConfigStore struct {
	cfg      systemconfig.SystemConfig
	rotated  int
	smtpCfgs []systemconfig.SystemConfig
}

func (f *fakeSystemConfigStore) Load(_ context.Context) (*systemconfig.SystemConfig, error) {
	cfg := f.cfg
	return &cfg, nil
}

func (f *fakeSystemConfigStore) RotateSecret(_ context.Context, newSecret string) error {
	f.rotated++
	f.cfg.JWTSecret = newSecret
	return nil
}

func (f *fakeSystemConfigStore) UpdateSMTP(_ context.Context, cfg systemconfig.SystemConfig) error {
	f.smtpCfgs = append(f.smtpCfgs, cfg)
	return nil
}

func TestRotateSecretLogicRejectsWrongConfirmation(t *testing.T) {
	store := &fakeSystemConfigStore{}
	mgr := systemconfig.New(store, authority.NewSecretCache("initial"), nil)
	svcCtx := &svc.ServiceContext{SystemConfig: mgr}

	l := NewRotateSecretLogic(context.Background(), svcCtx)
	_, err := l.Rotate(&types.SecretRotateRequest{Confirmation: "nope"})

	require.Error(t, err)
	assert.Equal(t, 0, store.rotated)
}

func TestRotateSecretLogicRotatesOnMatchingConfirmation(t *testing.T) {
	store := &fakeSystemConfigStore{}
	mgr := systemconfig.New(store, authority.NewSecretCache("initial"), nil)
	svcCtx := &svc.ServiceContext{SystemConfig: mgr}

	l := NewRotateSecretLogic(context.Background(), svcCtx)
	resp, err := l.Rotate(&types.SecretRotateRequest{Confirmation: systemconfig.RotationConfirmation})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, store.rotated)
}

func TestUpdateSMTPLogicWritesThroughManager(t *testing.T) {
	fakeStore := &fakeSystemConfigStore{}
	mgr := systemconfig.New(fakeStore, authority.NewSecretCache("initial"), nil)
	svcCtx := &svc.ServiceContext{SystemConfig: mgr}

	l := NewUpdateSMTPLogic(context.Background(), svcCtx)
	resp, err := l.Update(&types.SMTPConfigRequest{
		Host: "smtp.example.com", Port: 587, Username: "u", Password: "p",
		FromEmail: "noreply@example.com", FromName: "Arc Gateway",
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, fakeStore.smtpCfgs, 1)
	assert.Equal(t, "smtp.example.com", fakeStore.smtpCfgs[0].SMTPHost)
}
