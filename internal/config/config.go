// Package config loads the xenos runtime configuration from the
// environment. Every variable is prefixed XENOS_ and carries a sensible
// default, so a bare `xenos` starts a working in-memory-only instance.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Remote cache drivers.
const (
	RemoteNone  = "none"
	RemoteRedis = "redis"
)

// KindPolicy is the raw per-kind cache policy before it is turned into a
// cache.Policy.
type KindPolicy struct {
	FreshTTL     time.Duration
	StaleHorizon time.Duration
	NegativeTTL  time.Duration
	Capacity     int64
}

// Config is the full runtime configuration.
type Config struct {
	GRPCAddr string
	HTTPAddr string
	LogLevel string

	// SignedProfiles makes rest profile lookups signed by default.
	SignedProfiles bool

	// BearerToken guards the rest api routes when non-empty.
	BearerToken string

	// MetricsUser and MetricsPass guard /metrics with basic auth when set.
	MetricsUser string
	MetricsPass string

	// Mojang client.
	MojangUUIDBaseURL    string
	MojangSessionBaseURL string
	MojangTimeout        time.Duration

	// Admission control.
	UpstreamMaxInFlight  int64
	UpstreamRate         int
	UpstreamRateInterval time.Duration
	UpstreamBurst        int

	// Remote cache tier.
	RemoteCache   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Per-kind cache policies. Signed profiles share the profile policy.
	UUIDCache    KindPolicy
	ProfileCache KindPolicy
	SkinCache    KindPolicy
	CapeCache    KindPolicy
	HeadCache    KindPolicy
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		GRPCAddr:       getEnv("XENOS_GRPC_ADDR", "0.0.0.0:50051"),
		HTTPAddr:       getEnv("XENOS_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:       getEnv("XENOS_LOG_LEVEL", "info"),
		SignedProfiles: getEnvBool("XENOS_SIGNED_PROFILES", false),
		BearerToken:    getEnv("XENOS_AUTH_TOKEN", ""),
		MetricsUser:    getEnv("XENOS_METRICS_USERNAME", ""),
		MetricsPass:    getEnv("XENOS_METRICS_PASSWORD", ""),

		MojangUUIDBaseURL:    getEnv("XENOS_MOJANG_UUID_URL", ""),
		MojangSessionBaseURL: getEnv("XENOS_MOJANG_SESSION_URL", ""),
		MojangTimeout:        getEnvDuration("XENOS_MOJANG_TIMEOUT", 5*time.Second),

		UpstreamMaxInFlight:  int64(getEnvInt("XENOS_UPSTREAM_MAX_IN_FLIGHT", 32)),
		UpstreamRate:         getEnvInt("XENOS_UPSTREAM_RATE", 500),
		UpstreamRateInterval: getEnvDuration("XENOS_UPSTREAM_RATE_INTERVAL", 10*time.Minute),
		UpstreamBurst:        getEnvInt("XENOS_UPSTREAM_BURST", 10),

		RemoteCache:   getEnv("XENOS_REMOTE_CACHE", RemoteNone),
		RedisAddr:     getEnv("XENOS_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("XENOS_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("XENOS_REDIS_DB", 0),

		UUIDCache:    kindPolicy("UUID", 24*time.Hour, 7*24*time.Hour, 5*time.Minute, 100_000),
		ProfileCache: kindPolicy("PROFILE", 24*time.Hour, 7*24*time.Hour, 5*time.Minute, 100_000),
		SkinCache:    kindPolicy("SKIN", 24*time.Hour, 30*24*time.Hour, 5*time.Minute, 50_000),
		CapeCache:    kindPolicy("CAPE", 24*time.Hour, 30*24*time.Hour, 5*time.Minute, 50_000),
		HeadCache:    kindPolicy("HEAD", 24*time.Hour, 30*24*time.Hour, 5*time.Minute, 50_000),
	}

	if cfg.RemoteCache != RemoteNone && cfg.RemoteCache != RemoteRedis {
		return nil, fmt.Errorf("config: unknown remote cache driver %q", cfg.RemoteCache)
	}
	if (cfg.MetricsUser == "") != (cfg.MetricsPass == "") {
		return nil, fmt.Errorf("config: metrics basic auth needs both username and password")
	}
	return cfg, nil
}

// kindPolicy reads the four policy knobs for one cache kind, e.g.
// XENOS_CACHE_UUID_FRESH_TTL.
func kindPolicy(kind string, fresh, stale, negative time.Duration, capacity int64) KindPolicy {
	prefix := "XENOS_CACHE_" + kind + "_"
	return KindPolicy{
		FreshTTL:     getEnvDuration(prefix+"FRESH_TTL", fresh),
		StaleHorizon: getEnvDuration(prefix+"STALE_HORIZON", stale),
		NegativeTTL:  getEnvDuration(prefix+"NEGATIVE_TTL", negative),
		Capacity:     int64(getEnvInt(prefix+"CAPACITY", int(capacity))),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
