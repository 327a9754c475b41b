package domain

import (
	"context"
	"fmt"
	"time"
)

// Key identifica o cliente limitado (hoje, o IP de origem).
type Key string

// Unknown é usado quando a requisição não traz nenhum endereço utilizável.
const Unknown Key = "unknown"

const (
	// KeyPrefix é o prefixo das chaves de contador no store.
	KeyPrefix = "rate_limit"
	// Window é o tamanho da janela fixa de contagem.
	Window = time.Second
	// CounterTTL é a expiração aplicada ao contador na primeira contagem.
	// Maior que Window para que a leitura após o next ainda encontre a chave.
	CounterTTL = 2 * time.Second
)

// CounterKey monta a chave rate_limit:<ip>:<unix_second> da janela corrente.
func CounterKey(k Key, at time.Time) string {
	return fmt.Sprintf("%s:%s:%d", KeyPrefix, k, at.Unix())
}

// CounterStore é o store externo com incremento atômico e expiração.
//
// Incr deve ser atômico entre processos; Count devolve 0 (sem erro) quando a
// chave não existe.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Count(ctx context.Context, key string) (int64, error)
}

// Limiter decide localmente se uma ação é permitida agora.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave. Usado apenas pela política "local".
type LimiterStore interface {
	Get(Key) Limiter
}

// FailurePolicy define o que fazer quando o CounterStore falha.
type FailurePolicy string

const (
	// FailOpen permite a requisição e registra o erro.
	FailOpen FailurePolicy = "open"
	// FailClosed rejeita a requisição com 503.
	FailClosed FailurePolicy = "closed"
	// FailLocal cai para um token bucket em memória do próprio processo.
	FailLocal FailurePolicy = "local"
)

// ParseFailurePolicy aceita open, closed ou local (vazio = open).
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(s); p {
	case "":
		return FailOpen, nil
	case FailOpen, FailClosed, FailLocal:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown failure policy %q", ErrInvalidConfig, s)
	}
}

type Decision struct {
	Allowed bool
	Outcome Outcome

	Key   string
	Count int64
	Limit int
	// Reset é o início da próxima janela.
	Reset time.Time
	// RetryAfter é o valor de Retry-After quando bloquear.
	RetryAfter time.Duration

	// Err guarda a falha do store quando a decisão veio da política de falha.
	Err error
}

// Remaining nunca fica negativo.
func (d Decision) Remaining() int {
	r := int64(d.Limit) - d.Count
	if r < 0 {
		return 0
	}
	return int(r)
}
