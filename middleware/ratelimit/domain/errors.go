package domain

import "errors"

var (
	// ErrInvalidConfig indica configuração ausente ou inválida (fatal na subida).
	ErrInvalidConfig = errors.New("invalid rate limit configuration")
	// ErrStoreUnavailable indica que o CounterStore não respondeu.
	ErrStoreUnavailable = errors.New("counter store unavailable")
)

func IsStoreError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
