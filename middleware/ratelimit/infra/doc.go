// Package infra contém as implementações concretas dos contratos de domain.
//
//   - RedisStore / NewRedisClient: contador por janela em Redis (go-redis/v9)
//   - MemoryStore: contador em memória para um único processo e testes
//   - BreakerStore: circuit breaker (sony/gobreaker) em volta de um CounterStore
//   - TokenBuckets: token bucket por chave (x/time/rate) para a política "local"
//   - SlotPool: semáforo para limite de concorrência
//   - MemoryStats / RedisStats / PrometheusStats: estatísticas das decisões
package infra
