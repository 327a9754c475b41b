package application

import (
	"context"
	"fmt"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"
)

// Service aplica a janela fixa de 1s sobre um CounterStore.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.CounterStore
	// Limit é o máximo de requisições por segundo por identidade.
	Limit int
	// Policy decide o comportamento quando o Store falha.
	Policy domain.FailurePolicy
	// Fallback só é usado com Policy = FailLocal.
	Fallback   domain.LimiterStore
	RetryAfter time.Duration
	Now        func() time.Time
}

// Validate é chamado na construção do middleware; erro aqui é fatal na subida.
func (s Service) Validate() error {
	if s.Limit <= 0 {
		return fmt.Errorf("%w: requests per second must be > 0, got %d", domain.ErrInvalidConfig, s.Limit)
	}
	if _, err := domain.ParseFailurePolicy(string(s.Policy)); err != nil {
		return err
	}
	if s.Policy == domain.FailLocal && s.Fallback == nil {
		return fmt.Errorf("%w: failure policy %q needs a fallback limiter", domain.ErrInvalidConfig, s.Policy)
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Decide conta a requisição na janela do segundo corrente.
//
// O contador nunca é decrementado; requisições em T e T+1 caem em chaves
// diferentes mesmo que separadas por milissegundos.
func (s Service) Decide(ctx context.Context, key domain.Key) domain.Decision {
	now := s.now()
	if s.RetryAfter <= 0 {
		s.RetryAfter = domain.Window
	}

	dec := domain.Decision{
		Key:   domain.CounterKey(key, now),
		Limit: s.Limit,
		Reset: time.Unix(now.Unix()+1, 0),
	}

	if s.Store == nil {
		return s.degrade(key, dec, domain.ErrStoreUnavailable)
	}

	count, err := s.Store.Incr(ctx, dec.Key)
	if err != nil {
		return s.degrade(key, dec, err)
	}
	dec.Count = count

	// primeira contagem da janela: agenda a expiração.
	// A chave já é por segundo, então uma falha aqui não afeta a contagem;
	// fica registrada em dec.Err para log.
	if count == 1 {
		if err := s.Store.Expire(ctx, dec.Key, domain.CounterTTL); err != nil {
			dec.Err = err
		}
	}

	if count > int64(s.Limit) {
		dec.Outcome = domain.OutcomeDenied
		dec.RetryAfter = s.RetryAfter
		return dec
	}

	dec.Allowed = true
	dec.Outcome = domain.OutcomeAllowed
	return dec
}

func (s Service) degrade(key domain.Key, dec domain.Decision, err error) domain.Decision {
	dec.Err = err
	dec.Outcome = domain.OutcomeStoreError

	switch s.Policy {
	case domain.FailClosed:
		dec.Allowed = false
		dec.RetryAfter = s.RetryAfter
	case domain.FailLocal:
		lim := s.Fallback.Get(key)
		dec.Allowed = lim == nil || lim.Allow()
		if !dec.Allowed {
			dec.Outcome = domain.OutcomeDenied
			dec.RetryAfter = s.RetryAfter
		}
	default:
		dec.Allowed = true
	}
	return dec
}

// Remaining relê o contador da chave (best-effort) depois do next.
// Chave ausente ou erro de leitura contam como "sem uso": devolve Limit.
func (s Service) Remaining(ctx context.Context, counterKey string) int {
	if s.Store == nil {
		return s.Limit
	}
	count, err := s.Store.Count(ctx, counterKey)
	if err != nil {
		return s.Limit
	}
	return domain.Decision{Limit: s.Limit, Count: count}.Remaining()
}
