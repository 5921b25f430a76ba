// Package svc assembles the control API's dependency graph the way the
// teacher's internal/svc.ServiceContext does: one struct holding every
// domain service and middleware a handler might need, built once at boot
// and passed by pointer to every logic constructor.
package svc

import (
	"github.com/zeromicro/go-zero/rest"

	"github.com/arcauth/gateway/internal/authority"
	"github.com/arcauth/gateway/internal/captcha"
	"github.com/arcauth/gateway/internal/config"
	"github.com/arcauth/gateway/internal/controlapi/middleware"
	"github.com/arcauth/gateway/internal/identity"
	"github.com/arcauth/gateway/internal/proxy"
	"github.com/arcauth/gateway/internal/ratelimit"
	"github.com/arcauth/gateway/internal/routecache"
	"github.com/arcauth/gateway/internal/srp"
	"github.com/arcauth/gateway/internal/store"
	"github.com/arcauth/gateway/internal/systemconfig"
)

type ServiceContext struct {
	Config *config.Config

	Authority *authority.Authority
	Srp       *srp.Engine
	Captcha   captcha.Generator

	Users  *identity.UserService
	Admins *identity.AdminService
	ApiKeys *identity.ApiKeyService

	SystemConfig *systemconfig.Manager
	Routes       *routecache.Cache
	RouteStore   *store.RouteStore
	RuleStore    *store.RateLimitRuleStore
	Stats        *store.StatsStore

	// Proxy is read-only from the control API's point of view: only its
	// in-memory counters (§12.1) are consulted.
	Proxy *proxy.Server

	AuthLimiter    *ratelimit.Limiter
	ApiKeyLimiter  *ratelimit.Limiter

	AdminAuth          *middleware.AdminAuth
	ExternalStatsAuth  rest.Middleware
	ExternalUsersAuth  rest.Middleware
	ExternalRoutesAuth rest.Middleware
	AuthRateLimit      rest.Middleware
	ApiKeyRateLimit    rest.Middleware
}

// New wires every dependency the control API's handlers need. It takes
// already-constructed domain services rather than building them itself,
// so cmd/gateway/main.go stays the single place that decides concrete
// storage/transport implementations.
func New(
	cfg *config.Config,
	auth *authority.Authority,
	srpEngine *srp.Engine,
	cap captcha.Generator,
	users *identity.UserService,
	admins *identity.AdminService,
	apiKeys *identity.ApiKeyService,
	sysConfig *systemconfig.Manager,
	routes *routecache.Cache,
	routeStore *store.RouteStore,
	ruleStore *store.RateLimitRuleStore,
	stats *store.StatsStore,
	proxySrv *proxy.Server,
	authLimiter *ratelimit.Limiter,
	apiKeyLimiter *ratelimit.Limiter,
	trusted *ratelimit.TrustedProxies,
) *ServiceContext {
	adminAuth := middleware.NewAdminAuth(auth)
	return &ServiceContext{
		Config:       cfg,
		Authority:    auth,
		Srp:          srpEngine,
		Captcha:      cap,
		Users:        users,
		Admins:       admins,
		ApiKeys:      apiKeys,
		SystemConfig: sysConfig,
		Routes:       routes,
		RouteStore:   routeStore,
		RuleStore:    ruleStore,
		Stats:        stats,
		Proxy:        proxySrv,
		AuthLimiter:   authLimiter,
		ApiKeyLimiter: apiKeyLimiter,
		AdminAuth:     adminAuth,

		ExternalStatsAuth:  middleware.NewApiKeyAuth(apiKeys, "stats:read").Handle,
		ExternalUsersAuth:  middleware.NewApiKeyAuth(apiKeys, "users:read").Handle,
		ExternalRoutesAuth: middleware.NewApiKeyAuth(apiKeys, "routes:read").Handle,
		AuthRateLimit:      middleware.NewRateLimit(authLimiter, trusted).Handle,
		ApiKeyRateLimit:    middleware.NewRateLimit(apiKeyLimiter, trusted).Handle,
	}
}
