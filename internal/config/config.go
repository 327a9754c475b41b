// Package config centraliza o carregamento de configurações da aplicação.
//
// Ordem: .env (opcional, via godotenv), variáveis de ambiente (viper) e
// defaults. A struct retornada é imutável por convenção: é passada por valor
// para os construtores e nada a altera depois da subida.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingRequestsPerSecond = errors.New("RATE_LIMIT_PER_SECOND is required")

const (
	keyListenAddr   = "listen_addr"
	keyMetricsAddr  = "metrics_addr"
	keyUpstreamURL  = "upstream_url"
	keyRatePerSec   = "rate_limit_per_second"
	keyWhitelist    = "rate_limit_whitelist"
	keyPolicy       = "rate_limit_failure_policy"
	keyTrustProxy   = "rate_limit_trust_proxy_headers"
	keyStore        = "rate_limit_store"
	keyRedisURL     = "redis_url"
	keyRedisPass    = "redis_password"
	keyRedisTimeout = "redis_timeout"
	keyBreakerOn    = "redis_breaker_enabled"
	keyBreakerFails = "redis_breaker_failures"
	keyBreakerOpen  = "redis_breaker_timeout"
	keyStatsBackend = "rate_stats_backend"
	keyStatsPrefix  = "rate_stats_prefix"
	keyStatsTTL     = "rate_stats_ttl"
	keyStatsKeys    = "rate_stats_track_keys"
	keyStatsTimeout = "rate_stats_timeout"
	keyStatsBuffer  = "rate_stats_buffer"
	keyConcMax      = "concurrency_max"
	keyConcTimeout  = "concurrency_timeout"
	keyLogLevel     = "log_level"
	keyLogFormat    = "log_format"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"

	StatsNone       = "none"
	StatsMemory     = "memory"
	StatsRedis      = "redis"
	StatsPrometheus = "prometheus"
)

type Config struct {
	Server      ServerConfig
	RateLimit   RateLimitConfig
	Redis       RedisConfig
	Breaker     BreakerConfig
	Stats       StatsConfig
	Concurrency ConcurrencyConfig
	Log         LogConfig
}

type ServerConfig struct {
	ListenAddr  string
	MetricsAddr string
	// UpstreamURL só é usado pelo binário gateway.
	UpstreamURL string
}

type RateLimitConfig struct {
	RequestsPerSecond int
	Whitelist         []string
	FailurePolicy     domain.FailurePolicy
	TrustProxyHeaders bool
	// Store é "redis" (padrão) ou "memory" para uma única instância.
	Store string
}

type RedisConfig struct {
	URL      string
	Password string
	Timeout  time.Duration
}

type BreakerConfig struct {
	Enabled  bool
	Failures uint32
	Timeout  time.Duration
}

type StatsConfig struct {
	Backend   string
	Prefix    string
	TTL       time.Duration
	TrackKeys bool
	// Timeout e Buffer valem só para o backend redis, gravado fora da requisição.
	Timeout time.Duration
	Buffer  int
}

type ConcurrencyConfig struct {
	Max     int
	Timeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func defaults(v *viper.Viper) {
	v.SetDefault(keyListenAddr, ":8080")
	v.SetDefault(keyMetricsAddr, ":9090")
	v.SetDefault(keyPolicy, string(domain.FailOpen))
	v.SetDefault(keyTrustProxy, true)
	v.SetDefault(keyStore, StoreRedis)
	v.SetDefault(keyRedisTimeout, 5*time.Second)
	v.SetDefault(keyBreakerOn, true)
	v.SetDefault(keyBreakerFails, 5)
	v.SetDefault(keyBreakerOpen, 10*time.Second)
	v.SetDefault(keyStatsBackend, StatsPrometheus)
	v.SetDefault(keyStatsPrefix, "ratelimit:stats")
	v.SetDefault(keyStatsTTL, 24*time.Hour)
	v.SetDefault(keyStatsKeys, false)
	v.SetDefault(keyStatsTimeout, 200*time.Millisecond)
	v.SetDefault(keyStatsBuffer, 1024)
	v.SetDefault(keyConcMax, 100)
	v.SetDefault(keyConcTimeout, time.Second)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "json")
}

// Load lê os arquivos .env informados (ou ./.env) e o ambiente.
// RATE_LIMIT_PER_SECOND ausente é erro fatal de configuração.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	rps, err := requestsPerSecond(v.GetString(keyRatePerSec))
	if err != nil {
		return Config{}, err
	}

	policy, err := domain.ParseFailurePolicy(v.GetString(keyPolicy))
	if err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT_FAILURE_POLICY: %w", err)
	}

	store := strings.ToLower(strings.TrimSpace(v.GetString(keyStore)))
	if store != StoreRedis && store != StoreMemory {
		return Config{}, fmt.Errorf("RATE_LIMIT_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, store)
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString(keyStatsBackend)))
	switch backend {
	case StatsNone, StatsMemory, StatsRedis, StatsPrometheus:
	default:
		return Config{}, fmt.Errorf("invalid RATE_STATS_BACKEND: %q", backend)
	}

	failures := v.GetInt(keyBreakerFails)
	if failures <= 0 {
		return Config{}, fmt.Errorf("REDIS_BREAKER_FAILURES must be > 0, got %d", failures)
	}

	concMax := v.GetInt(keyConcMax)
	if concMax < 0 {
		return Config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}

	return Config{
		Server: ServerConfig{
			ListenAddr:  v.GetString(keyListenAddr),
			MetricsAddr: v.GetString(keyMetricsAddr),
			UpstreamURL: strings.TrimSpace(v.GetString(keyUpstreamURL)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: rps,
			Whitelist:         ParseWhitelist(v.GetString(keyWhitelist)),
			FailurePolicy:     policy,
			TrustProxyHeaders: v.GetBool(keyTrustProxy),
			Store:             store,
		},
		Redis: RedisConfig{
			URL:      strings.TrimSpace(v.GetString(keyRedisURL)),
			Password: v.GetString(keyRedisPass),
			Timeout:  v.GetDuration(keyRedisTimeout),
		},
		Breaker: BreakerConfig{
			Enabled:  v.GetBool(keyBreakerOn),
			Failures: uint32(failures),
			Timeout:  v.GetDuration(keyBreakerOpen),
		},
		Stats: StatsConfig{
			Backend:   backend,
			Prefix:    v.GetString(keyStatsPrefix),
			TTL:       v.GetDuration(keyStatsTTL),
			TrackKeys: v.GetBool(keyStatsKeys),
			Timeout:   v.GetDuration(keyStatsTimeout),
			Buffer:    v.GetInt(keyStatsBuffer),
		},
		Concurrency: ConcurrencyConfig{
			Max:     concMax,
			Timeout: v.GetDuration(keyConcTimeout),
		},
		Log: LogConfig{
			Level:  v.GetString(keyLogLevel),
			Format: v.GetString(keyLogFormat),
		},
	}, nil
}

func requestsPerSecond(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMissingRequestsPerSecond
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid RATE_LIMIT_PER_SECOND %q: %w", raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: RATE_LIMIT_PER_SECOND must be > 0, got %d", domain.ErrInvalidConfig, n)
	}
	return n, nil
}

// ParseWhitelist aceita um array JSON de strings ou uma lista separada por
// vírgulas. Itens são aparados e vazios descartados; entrada vazia devolve
// lista vazia (nunca nil).
func ParseWhitelist(raw string) []string {
	out := []string{}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out
	}

	// "null" também decodifica em []string; só um array conta como JSON
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		items = strings.Split(raw, ",")
	}

	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
