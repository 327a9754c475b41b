package application

import (
	"context"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"
)

// Gate controla a entrada em uma capacidade finita (SlotPool) com timeout
// opcional, sem saber nada sobre HTTP.
type Gate struct {
	Pool domain.SlotPool
	// Wait <= 0 espera até o ctx encerrar.
	Wait time.Duration
}

// Enter retorna (leave, ok). Com ok=false nenhuma vaga foi ocupada.
func (g Gate) Enter(ctx context.Context) (func(), bool) {
	if g.Pool == nil {
		return func() {}, true
	}
	if g.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Wait)
		defer cancel()
	}
	return g.Pool.Acquire(ctx)
}
