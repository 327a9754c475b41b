package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"nobra-gateway/middleware/ratelimit/domain"
)

// ClientIP devolve a identidade usada na contagem.
//
// Com trustProxy, o primeiro item do X-Forwarded-For (cliente original) vence,
// depois X-Real-IP. Sem proxy confiável à frente esses headers são forjáveis.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return string(domain.Unknown)
}
