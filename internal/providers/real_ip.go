package providers

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealIPMiddleware rewrites RemoteAddr to the client address reported in
// X-Forwarded-For, but only when the direct peer is a trusted proxy. The
// header is walked right to left and the first untrusted hop wins. Requests
// from anywhere else keep their socket address. Entries may be addresses or
// CIDR prefixes; unparsable ones are ignored.
func RealIPMiddleware(trusted []string) func(http.Handler) http.Handler {
	prefixes := parseTrusted(trusted)
	return func(next http.Handler) http.Handler {
		if len(prefixes) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip, ok := forwardedFor(r, prefixes); ok {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseTrusted(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			out = append(out, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
		}
	}
	return out
}

func isTrusted(prefixes []netip.Prefix, raw string) bool {
	a, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func forwardedFor(r *http.Request, prefixes []netip.Prefix) (string, bool) {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !isTrusted(prefixes, peer) {
		return "", false
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			return "", false
		}
		if !isTrusted(prefixes, hop) {
			return hop, true
		}
	}
	return "", false
}
