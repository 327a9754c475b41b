package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhitelist(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{}},
		{"blank", "   ", []string{}},
		{"json", `["1.1.1.1", " 2.2.2.2 "]`, []string{"1.1.1.1", "2.2.2.2"}},
		{"json drops empty", `["1.1.1.1", ""]`, []string{"1.1.1.1"}},
		{"csv", "1.1.1.1, 2.2.2.2,,", []string{"1.1.1.1", "2.2.2.2"}},
		{"json object falls back to csv", `{"a":1}`, []string{`{"a":1}`}},
		{"broken json falls back to csv", `["1.1.1.1", `, []string{`["1.1.1.1"`}},
		{"json null falls back to csv", "null", []string{"null"}},
		{"json empty array", "[]", []string{}},
		{"cidr", "10.0.0.0/8", []string{"10.0.0.0/8"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseWhitelist(tc.raw)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoad_MissingRequestsPerSecond(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_SECOND", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.True(t, errors.Is(err, ErrMissingRequestsPerSecond))
}

func TestLoad_InvalidRequestsPerSecond(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_SECOND", "ten")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT_PER_SECOND", "0")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_SECOND", "10")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []string{}, cfg.RateLimit.Whitelist)
	assert.Equal(t, domain.FailOpen, cfg.RateLimit.FailurePolicy)
	assert.True(t, cfg.RateLimit.TrustProxyHeaders)
	assert.Equal(t, StoreRedis, cfg.RateLimit.Store)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
	assert.Equal(t, 5*time.Second, cfg.Redis.Timeout)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.Failures)
	assert.Equal(t, 10*time.Second, cfg.Breaker.Timeout)
	assert.Equal(t, StatsPrometheus, cfg.Stats.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Stats.TTL)
	assert.Equal(t, 200*time.Millisecond, cfg.Stats.Timeout)
	assert.Equal(t, 1024, cfg.Stats.Buffer)
	assert.Equal(t, 100, cfg.Concurrency.Max)
	assert.Equal(t, time.Second, cfg.Concurrency.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_SECOND", " 25 ")
	t.Setenv("RATE_LIMIT_WHITELIST", `["127.0.0.1","10.0.0.0/8"]`)
	t.Setenv("RATE_LIMIT_FAILURE_POLICY", "closed")
	t.Setenv("RATE_LIMIT_TRUST_PROXY_HEADERS", "false")
	t.Setenv("RATE_LIMIT_STORE", "memory")
	t.Setenv("REDIS_URL", "redis://cache:6380/1")
	t.Setenv("REDIS_TIMEOUT", "750ms")
	t.Setenv("REDIS_BREAKER_ENABLED", "false")
	t.Setenv("RATE_STATS_BACKEND", "redis")
	t.Setenv("RATE_STATS_TIMEOUT", "50ms")
	t.Setenv("RATE_STATS_BUFFER", "16")
	t.Setenv("CONCURRENCY_MAX", "0")
	t.Setenv("CONCURRENCY_TIMEOUT", "250ms")
	t.Setenv("UPSTREAM_URL", "http://calculator:8080")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []string{"127.0.0.1", "10.0.0.0/8"}, cfg.RateLimit.Whitelist)
	assert.Equal(t, domain.FailClosed, cfg.RateLimit.FailurePolicy)
	assert.False(t, cfg.RateLimit.TrustProxyHeaders)
	assert.Equal(t, StoreMemory, cfg.RateLimit.Store)
	assert.Equal(t, "redis://cache:6380/1", cfg.Redis.URL)
	assert.Equal(t, 750*time.Millisecond, cfg.Redis.Timeout)
	assert.False(t, cfg.Breaker.Enabled)
	assert.Equal(t, StatsRedis, cfg.Stats.Backend)
	assert.Equal(t, 50*time.Millisecond, cfg.Stats.Timeout)
	assert.Equal(t, 16, cfg.Stats.Buffer)
	assert.Equal(t, 0, cfg.Concurrency.Max)
	assert.Equal(t, 250*time.Millisecond, cfg.Concurrency.Timeout)
	assert.Equal(t, "http://calculator:8080", cfg.Server.UpstreamURL)
}

func TestLoad_RejectsUnknownValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_SECOND", "5")

	t.Setenv("RATE_LIMIT_FAILURE_POLICY", "maybe")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))

	t.Setenv("RATE_LIMIT_FAILURE_POLICY", "open")
	t.Setenv("RATE_STATS_BACKEND", "statsd")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	t.Setenv("RATE_STATS_BACKEND", "none")
	t.Setenv("RATE_LIMIT_STORE", "etcd")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_ReadsDotEnvFile(t *testing.T) {
	// godotenv não sobrescreve variáveis já definidas; garante que não existem.
	require.NoError(t, os.Unsetenv("RATE_LIMIT_PER_SECOND"))
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RATE_LIMIT_PER_SECOND=42\nRATE_LIMIT_WHITELIST=1.1.1.1,2.2.2.2\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("RATE_LIMIT_PER_SECOND")
		_ = os.Unsetenv("RATE_LIMIT_WHITELIST")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []string{"1.1.1.1", "2.2.2.2"}, cfg.RateLimit.Whitelist)
}
