package domain

import (
	"context"
	"time"
)

// Outcome é o resultado de uma passagem pelo middleware.
type Outcome string

const (
	OutcomeAllowed     Outcome = "allowed"
	OutcomeDenied      Outcome = "denied"
	OutcomeWhitelisted Outcome = "whitelisted"
	// OutcomeStoreError cobre as decisões tomadas pela política de falha.
	OutcomeStoreError Outcome = "store_error"
)

// StatsEvent representa um evento de decisão do rate limit.
//
// Cuidado com cardinalidade: Key/Path sem controle podem explodir o número de
// séries no Prometheus ou de chaves no Redis.
type StatsEvent struct {
	Key     Key
	Outcome Outcome

	Method string
	Path   string

	At time.Time
}

// StatsStore persiste estatísticas. O middleware trata erro como best-effort.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
