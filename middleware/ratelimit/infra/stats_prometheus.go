package infra

import (
	"context"

	"nobra-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStats exporta as decisões como contador. Não rotula por IP nem
// por path para manter a cardinalidade sob controle.
type PrometheusStats struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStats(reg prometheus.Registerer) (*PrometheusStats, error) {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ratelimit",
		Name:      "decisions_total",
		Help:      "Rate limit decisions by outcome and HTTP method.",
	}, []string{"outcome", "method"})

	if err := reg.Register(decisions); err != nil {
		return nil, err
	}
	return &PrometheusStats{decisions: decisions}, nil
}

func (s *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	s.decisions.WithLabelValues(string(ev.Outcome), ev.Method).Inc()
	return nil
}

// MultiStats repassa o evento para vários stores e devolve o primeiro erro.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
