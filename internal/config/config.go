// Package config loads the gateway's configuration from a cascading set of
// files plus an environment overlay, the way the rest of this codebase's
// sibling reverse-proxy configs do it (viper, mapstructure tags, dotted
// keys). go-zero's own conf.MustLoad only reads a single file with
// per-field env tags; it has no notion of a default+local file cascade or
// a double-underscore environment overlay, so viper stands in for that one
// concern while go-zero's rest/logx stack covers everything downstream of
// config load.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Routing  RoutingConfig  `mapstructure:"routing"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	SRP      SRPConfig      `mapstructure:"srp"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Email    EmailConfig    `mapstructure:"email"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	GatewayPort int    `mapstructure:"gateway_port"`
	APIPort     int    `mapstructure:"api_port"`
}

type UpstreamConfig struct {
	DefaultUpstream string `mapstructure:"default_upstream"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	AccessTokenTTL      time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL     time.Duration `mapstructure:"refresh_token_ttl"`
	AutoRefreshThreshold time.Duration `mapstructure:"auto_refresh_threshold"`
}

type StaticRoute struct {
	PathPrefix      string `mapstructure:"path_prefix"`
	UpstreamAddress string `mapstructure:"upstream_address"`
	RequireAuth     bool   `mapstructure:"require_auth"`
	StripPrefix     string `mapstructure:"strip_prefix"`
}

type RoutingConfig struct {
	Routes []StaticRoute `mapstructure:"routes"`
}

type SMTPConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

type RateLimitScope struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type RateLimitsConfig struct {
	Global RateLimitScope `mapstructure:"global"`
	Auth   RateLimitScope `mapstructure:"auth"`
	APIKey RateLimitScope `mapstructure:"api_key"`
}

type SRPConfig struct {
	SessionBackend string `mapstructure:"session_backend"` // "memory" | "redis"
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EmailConfig holds the registration/password-reset address policy.
// AllowedDomains is empty by default, which accepts any structurally
// valid address; set it to restrict registration to an organization's
// own domains.
type EmailConfig struct {
	AllowedDomains []string `mapstructure:"allowed_domains"`
}

const envPrefix = "ARC_AUTH_"

// Load reads config/default.* then merges config/local.* on top if
// present, then applies the ARC_AUTH__ environment overlay
// (double-underscore separates nesting, matching section.key -> SECTION__KEY).
func Load(configDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("default")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read default config: %w", err)
	}

	local := viper.New()
	local.SetConfigName("local")
	local.SetConfigType("yaml")
	local.AddConfigPath(configDir)
	if err := local.ReadInConfig(); err == nil {
		if mergeErr := v.MergeConfigMap(local.AllSettings()); mergeErr != nil {
			return nil, fmt.Errorf("merge local config: %w", mergeErr)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.gateway_port", 8080)
	v.SetDefault("server.api_port", 3001)
	v.SetDefault("jwt.access_token_ttl", "15m")
	v.SetDefault("jwt.refresh_token_ttl", "720h")
	v.SetDefault("jwt.auto_refresh_threshold", "5m")
	v.SetDefault("rate_limits.global.max_requests", 100)
	v.SetDefault("rate_limits.global.window", "60s")
	v.SetDefault("rate_limits.auth.max_requests", 10)
	v.SetDefault("rate_limits.auth.window", "60s")
	v.SetDefault("rate_limits.api_key.max_requests", 30)
	v.SetDefault("rate_limits.api_key.window", "60s")
	v.SetDefault("trusted_proxies", []string{
		"127.0.0.1/32", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
	})
	v.SetDefault("srp.session_backend", "memory")
	v.SetDefault("email.allowed_domains", []string{})
}

func (c *Config) validate() error {
	if c.Upstream.DefaultUpstream == "" {
		return fmt.Errorf("config: upstream.default_upstream is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("config: database.url is required")
	}
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("config: database.max_connections must be positive")
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		return fmt.Errorf("config: jwt token TTLs must be positive")
	}
	return nil
}
