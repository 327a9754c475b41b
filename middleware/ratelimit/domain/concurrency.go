package domain

import "context"

// SlotPool representa uma capacidade finita de requisições simultâneas.
//
// Acquire bloqueia até conseguir vaga ou até o ctx encerrar; o release
// retornado deve ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
