package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStats_CountsByOutcome(t *testing.T) {
	s := NewMemoryStats(WithTrackKeys(true))
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Key: "1.1.1.1", Outcome: domain.OutcomeAllowed, Method: "GET", Path: "/a"})
	_ = s.Record(ctx, domain.StatsEvent{Key: "1.1.1.1", Outcome: domain.OutcomeDenied, Method: "GET", Path: "/a"})
	_ = s.Record(ctx, domain.StatsEvent{Key: "2.2.2.2", Outcome: domain.OutcomeWhitelisted, Method: "POST", Path: "/b"})

	total := s.Total()
	assert.Equal(t, int64(1), total[domain.OutcomeAllowed])
	assert.Equal(t, int64(1), total[domain.OutcomeDenied])
	assert.Equal(t, int64(1), total[domain.OutcomeWhitelisted])

	routes := s.ByRoute()
	assert.Equal(t, int64(1), routes["GET /a"][domain.OutcomeDenied])
	assert.Equal(t, int64(1), routes["POST /b"][domain.OutcomeWhitelisted])

	keys := s.ByKey()
	assert.Len(t, keys, 2)
	assert.Equal(t, int64(1), keys["1.1.1.1"][domain.OutcomeAllowed])
}

func TestMemoryStats_SnapshotsAreCopies(t *testing.T) {
	s := NewMemoryStats()
	_ = s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeAllowed})

	snap := s.Total()
	snap[domain.OutcomeAllowed] = 99

	assert.Equal(t, int64(1), s.Total()[domain.OutcomeAllowed])
	assert.Empty(t, s.ByKey())
}

func TestRedisStats_RecordPipelinesCounters(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	at := time.Date(2024, 5, 1, 12, 30, 15, 0, time.UTC)
	minute := "rl:minute:202405011230"

	mock.ExpectHIncrBy("rl:total", "denied", 1).SetVal(1)
	mock.ExpectHIncrBy(minute, "denied", 1).SetVal(1)
	mock.ExpectExpire(minute, time.Hour).SetVal(true)
	mock.ExpectHIncrBy("rl:route", "GET /api/scores:denied", 1).SetVal(1)
	mock.ExpectHIncrBy("rl:key:9.9.9.9", "denied", 1).SetVal(1)
	mock.ExpectExpire("rl:key:9.9.9.9", time.Hour).SetVal(true)

	s := NewRedisStats(rdb,
		WithStatsPrefix("rl:"),
		WithStatsTTL(time.Hour),
		WithStatsTrackKeys(true),
	)
	err := s.Record(context.Background(), domain.StatsEvent{
		Key:     "9.9.9.9",
		Outcome: domain.OutcomeDenied,
		Method:  "GET",
		Path:    "/api/scores",
		At:      at,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStats_WithoutBucketOrRoute(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectHIncrBy("ratelimit:stats:total", "store_error", 1).SetVal(1)

	s := NewRedisStats(rdb, WithStatsBucket("none"))
	err := s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeStoreError})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStats_NilClientIsNoop(t *testing.T) {
	s := NewRedisStats(nil)
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeAllowed}))
}

func TestPrometheusStats_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPrometheusStats(reg)
	require.NoError(t, err)

	ctx := context.Background()
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeDenied, Method: "GET"})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeDenied, Method: "GET"})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeAllowed, Method: "POST"})

	assert.Equal(t, 2.0, testutil.ToFloat64(s.decisions.WithLabelValues("denied", "GET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.decisions.WithLabelValues("allowed", "POST")))
}

func TestPrometheusStats_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusStats(reg)
	require.NoError(t, err)

	_, err = NewPrometheusStats(reg)
	assert.Error(t, err)
}

type failingStats struct{ err error }

func (f failingStats) Record(context.Context, domain.StatsEvent) error { return f.err }

func TestMultiStats_FansOutAndReturnsFirstError(t *testing.T) {
	mem := NewMemoryStats()
	boom := errors.New("boom")
	m := MultiStats{failingStats{err: boom}, mem, failingStats{err: errors.New("later")}}

	err := m.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeAllowed})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), mem.Total()[domain.OutcomeAllowed])
}
