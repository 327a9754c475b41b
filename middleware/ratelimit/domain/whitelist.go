package domain

import (
	"fmt"
	"net"
	"strings"
)

// Whitelist é o conjunto imutável de identidades isentas de limite.
// Entradas podem ser IPs exatos ou blocos CIDR.
type Whitelist struct {
	exact map[string]struct{}
	nets  []*net.IPNet
}

// NewWhitelist valida as entradas. Strings que não são IP nem CIDR ainda
// entram como identidade exata (ex.: "unknown").
func NewWhitelist(entries []string) (Whitelist, error) {
	wl := Whitelist{exact: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			_, n, err := net.ParseCIDR(e)
			if err != nil {
				return Whitelist{}, fmt.Errorf("%w: invalid whitelist CIDR %q", ErrInvalidConfig, e)
			}
			wl.nets = append(wl.nets, n)
			continue
		}
		wl.exact[e] = struct{}{}
	}
	return wl, nil
}

func (w Whitelist) Len() int { return len(w.exact) + len(w.nets) }

func (w Whitelist) Contains(k Key) bool {
	if _, ok := w.exact[string(k)]; ok {
		return true
	}
	if len(w.nets) == 0 {
		return false
	}
	ip := net.ParseIP(string(k))
	if ip == nil {
		return false
	}
	for _, n := range w.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
