// Package config parses server configuration from flags and SYRJA_*
// environment variables. Flags win over env vars; validation happens after
// parsing so callers get a single error instead of a partial config.
package config

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds everything the rendezvous server needs to run.
type ServerConfig struct {
	Listen          string
	ListenChallenge string
	DBPath          string
	Domain          string
	CertCacheDir    string
	LogLevel        string

	RateLimitWindow time.Duration
	RateLimitQuota  int

	InviteTTL       time.Duration
	JanitorInterval time.Duration
	LimiterSweepAge time.Duration
}

const defaultListen = ":8080"
const defaultChallengeListen = ":8081"
const defaultDBPath = "./syrja.db"
const defaultCertCacheDir = "./cert"
const defaultRateLimitWindow = 60 * time.Second
const defaultRateLimitQuota = 20
const defaultInviteTTL = 24 * time.Hour
const defaultJanitorInterval = 10 * time.Minute
const defaultLimiterSweepAge = 15 * time.Minute

// ParseServerFlags builds a ServerConfig from env defaults overridden by
// command-line flags.
func ParseServerFlags(args []string) (ServerConfig, error) {
	cfg := ServerConfig{
		Listen:          envOrDefault("SYRJA_LISTEN", defaultListen),
		ListenChallenge: envOrDefault("SYRJA_LISTEN_HTTP_CHALLENGE", defaultChallengeListen),
		DBPath:          envOrDefault("SYRJA_DB_PATH", defaultDBPath),
		Domain:          envOrDefault("SYRJA_DOMAIN", ""),
		CertCacheDir:    envOrDefault("SYRJA_CERT_CACHE_DIR", defaultCertCacheDir),
		LogLevel:        envOrDefault("SYRJA_LOG_LEVEL", "info"),
		RateLimitWindow: envDurationOrDefault("SYRJA_RATE_LIMIT_WINDOW", defaultRateLimitWindow),
		RateLimitQuota:  envIntOrDefault("SYRJA_RATE_LIMIT_QUOTA", defaultRateLimitQuota),
		InviteTTL:       envDurationOrDefault("SYRJA_INVITE_TTL", defaultInviteTTL),
		JanitorInterval: defaultJanitorInterval,
		LimiterSweepAge: defaultLimiterSweepAge,
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "Listen address")
	fs.StringVar(&cfg.ListenChallenge, "http-challenge-listen", cfg.ListenChallenge, "HTTP-01 challenge listen address (TLS mode only)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Domain, "domain", cfg.Domain, "Public domain for automatic TLS (empty disables TLS)")
	fs.StringVar(&cfg.CertCacheDir, "cert-cache-dir", cfg.CertCacheDir, "TLS cert cache dir")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	fs.DurationVar(&cfg.RateLimitWindow, "rate-limit-window", cfg.RateLimitWindow, "Rate limit window per source address")
	fs.IntVar(&cfg.RateLimitQuota, "rate-limit-quota", cfg.RateLimitQuota, "Admitted events per source address per window")
	fs.DurationVar(&cfg.InviteTTL, "invite-ttl", cfg.InviteTTL, "Short invite link lifetime")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Domain = normalizeDomainHost(cfg.Domain)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.Listen == "" {
		return cfg, errors.New("missing --listen or SYRJA_LISTEN")
	}
	if cfg.RateLimitWindow <= 0 {
		return cfg, errors.New("rate limit window must be > 0")
	}
	if cfg.RateLimitQuota <= 0 {
		return cfg, errors.New("rate limit quota must be > 0")
	}
	if cfg.InviteTTL <= 0 {
		return cfg, errors.New("invite ttl must be > 0")
	}
	if cfg.Domain != "" && cfg.ListenChallenge == "" {
		return cfg, errors.New("TLS mode requires an HTTP-01 challenge listen address")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDurationOrDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func normalizeDomainHost(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimPrefix(v, "https://")
	v = strings.TrimPrefix(v, "http://")
	if idx := strings.Index(v, "/"); idx >= 0 {
		v = v[:idx]
	}
	if strings.Contains(v, ":") {
		parts := strings.Split(v, ":")
		v = parts[0]
	}
	return strings.TrimSuffix(v, ".")
}
