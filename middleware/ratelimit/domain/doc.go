// Package domain define os contratos e tipos do rate limit por IP.
//
// Nada aqui conhece net/http, Redis ou Prometheus. As implementações concretas
// ficam em infra e as regras de decisão em application.
package domain
