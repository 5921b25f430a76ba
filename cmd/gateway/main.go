// Command gateway boots the reverse proxy's data plane and the control
// API's management plane as two listeners inside one process, the way
// growthapi.go wires a single ServiceContext and hands it to one
// rest.Server. Here the wiring additionally spans a second, raw
// net/http.Server for the proxy, since spec §2 keeps the two planes on
// separate ports.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/service"
	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/arcauth/gateway/internal/apierr"
	"github.com/arcauth/gateway/internal/authority"
	"github.com/arcauth/gateway/internal/captcha"
	"github.com/arcauth/gateway/internal/config"
	"github.com/arcauth/gateway/internal/controlapi/handler"
	"github.com/arcauth/gateway/internal/controlapi/svc"
	"github.com/arcauth/gateway/internal/identity"
	"github.com/arcauth/gateway/internal/mailer"
	"github.com/arcauth/gateway/internal/obslog"
	"github.com/arcauth/gateway/internal/proxy"
	"github.com/arcauth/gateway/internal/ratelimit"
	"github.com/arcauth/gateway/internal/routecache"
	"github.com/arcauth/gateway/internal/scheduler"
	"github.com/arcauth/gateway/internal/srp"
	"github.com/arcauth/gateway/internal/store"
	"github.com/arcauth/gateway/internal/systemconfig"
)

var configDir = flag.String("f", "config", "the configuration directory")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		logx.Must(err)
	}

	db, err := store.Open(cfg.Database.URL, cfg.Database.MaxConnections)
	if err != nil {
		logx.Must(err)
	}
	if err := store.Migrate(db); err != nil {
		logx.Must(err)
	}

	sysConfigStore := store.NewSystemConfigStore(db)
	initialSecret, err := randomSecret()
	if err != nil {
		logx.Must(err)
	}
	if err := sysConfigStore.EnsureSeeded(context.Background(), initialSecret); err != nil {
		logx.Must(err)
	}

	seed, err := sysConfigStore.Load(context.Background())
	if err != nil {
		logx.Must(err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	secretCache := authority.NewSecretCache(seed.JWTSecret)
	refreshTokenStore := store.NewRefreshTokenStore(db)
	auth := authority.New(secretCache, refreshTokenStore, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, cfg.JWT.AutoRefreshThreshold)

	sysConfigMgr := systemconfig.New(sysConfigStore, secretCache, redisClient)
	sysConfigMgr.Subscribe(context.Background())

	mailerSvc := mailer.New(smtpSettings{mgr: sysConfigMgr})

	userStore := store.NewUserStore(db)
	emailValidator := identity.NewEmailValidator(cfg.Email.AllowedDomains)
	userSvc := identity.NewUserService(userStore, userStore, mailerSvc, emailValidator)

	adminStore := store.NewAdminStore(db)
	adminSvc := identity.NewAdminService(adminStore, adminStore)

	apiKeyStore := store.NewApiKeyStore(db)
	apiKeySvc := identity.NewApiKeyService(apiKeyStore)

	var sessionStore srp.Store
	if cfg.SRP.SessionBackend == "redis" {
		if redisClient == nil {
			logx.Must(fmt.Errorf("srp.session_backend=redis requires redis.addr to be set"))
		}
		sessionStore = srp.NewRedisStore(redisClient)
	} else {
		sessionStore = srp.NewMemoryStore()
	}
	srpEngine := srp.New(userSvc, sessionStore)

	captchaGen := captcha.NewDigitGenerator()

	authUpstream := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.APIPort)
	staticRoutes := make([]routecache.Route, len(cfg.Routing.Routes))
	for i, r := range cfg.Routing.Routes {
		staticRoutes[i] = routecache.Route{
			PathPrefix:      r.PathPrefix,
			UpstreamAddress: r.UpstreamAddress,
			RequireAuth:     r.RequireAuth,
			StripPrefix:     r.StripPrefix,
			Enabled:         true,
		}
	}
	routes := routecache.New(authUpstream, cfg.Upstream.DefaultUpstream, staticRoutes)

	routeStore := store.NewRouteStore(db)
	dynamicRoutes, err := routeStore.ListAll(context.Background())
	if err != nil {
		logx.Must(err)
	}
	routes.SetDynamicRoutes(dynamicRoutes)

	ruleStore := store.NewRateLimitRuleStore(db)
	statsStore := store.NewStatsStore(db)
	cleanupStore := store.NewCleanupStore(db)

	trustedProxies, err := ratelimit.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logx.Must(err)
	}
	globalLimiter := ratelimit.New(cfg.RateLimits.Global.MaxRequests, cfg.RateLimits.Global.Window)
	authLimiter := ratelimit.New(cfg.RateLimits.Auth.MaxRequests, cfg.RateLimits.Auth.Window)
	apiKeyLimiter := ratelimit.New(cfg.RateLimits.APIKey.MaxRequests, cfg.RateLimits.APIKey.Window)

	proxySrv := proxy.New(routes, auth, globalLimiter, trustedProxies)

	svcCtx := svc.New(
		cfg, auth, srpEngine, captchaGen,
		userSvc, adminSvc, apiKeySvc,
		sysConfigMgr, routes, routeStore, ruleStore, statsStore, proxySrv,
		authLimiter, apiKeyLimiter, trustedProxies,
	)

	restConf := rest.RestConf{
		ServiceConf: service.ServiceConf{
			Name: "arc-gateway-control-api",
			Mode: "pro",
		},
		Host:         "127.0.0.1",
		Port:         cfg.Server.APIPort,
		MaxConns:     10000,
		Timeout:      3000,
		CpuThreshold: 900,
	}
	apiServer := rest.MustNewServer(restConf)
	defer apiServer.Stop()
	handler.RegisterHandlers(apiServer, svcCtx)
	httpx.SetErrorHandlerCtx(func(_ context.Context, err error) (int, any) {
		envelope, status := apierr.ToEnvelope(err)
		return status, envelope
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token, err := adminSvc.Bootstrap(ctx)
	if err != nil {
		logx.Must(err)
	}
	if token != "" {
		fmt.Printf("No admin account exists yet. Bootstrap registration token (valid 24h): %s\n", token)
	}

	scheduler.RunSecretRotation(ctx, sysConfigMgr)
	scheduler.RunCleanup(ctx, cleanupStore, refreshTokenStore)

	go func() {
		fmt.Printf("Control API listening on %s:%d...\n", restConf.Host, restConf.Port)
		apiServer.Start()
	}()

	gatewaySrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GatewayPort),
		Handler: proxySrv,
	}
	go func() {
		fmt.Printf("Reverse proxy listening on %s...\n", gatewaySrv.Addr)
		if err := gatewaySrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.Infra(context.Background(), "gateway listener stopped unexpectedly", err)
		}
	}()

	<-ctx.Done()
	fmt.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gatewaySrv.Shutdown(shutdownCtx); err != nil {
		obslog.Infra(shutdownCtx, "gateway shutdown did not complete cleanly", err)
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// smtpSettings adapts systemconfig.Manager to mailer.SettingsSource,
// reading the singleton row on every send.
type smtpSettings struct {
	mgr *systemconfig.Manager
}

func (s smtpSettings) CurrentSettings(ctx context.Context) (mailer.Settings, error) {
	cfg, err := s.mgr.Load(ctx)
	if err != nil {
		return mailer.Settings{}, err
	}
	return mailer.Settings{
		Host: cfg.SMTPHost, Port: cfg.SMTPPort, Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword, FromEmail: cfg.FromEmail, FromName: cfg.FromName,
	}, nil
}
