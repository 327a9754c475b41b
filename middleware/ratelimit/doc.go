// Package ratelimit fornece adapters HTTP (net/http) para rate limit por IP e
// limite de concorrência.
//
// Camadas:
//
//   - domain: contratos e tipos do domínio (sem net/http)
//   - application: decisão da janela fixa de 1s e política de falha
//   - infra: Redis, memória, circuit breaker, token bucket, stats
//   - ratelimit (este pacote): middlewares HTTP, extração do IP, status e headers
//
// Fluxo por requisição:
//
//  1. Extrai o IP do cliente (X-Forwarded-For, X-Real-IP, RemoteAddr)
//  2. IP na whitelist: segue para o next sem contar e sem headers
//  3. Incrementa rate_limit:<ip>:<segundo>; acima do limite responde 429
//  4. Permitido: chama o next e decora a resposta com X-RateLimit-*
//
// Se o store falhar, a política (open, closed, local) decide. O padrão é open.
package ratelimit
