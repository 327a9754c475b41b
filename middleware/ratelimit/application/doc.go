// Package application contém as regras de decisão do rate limit e do limite de
// concorrência.
//
// Depende apenas de domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key) incrementa o contador da janela corrente e
// devolve uma domain.Decision (allow/deny, contagem, reset).
package application
