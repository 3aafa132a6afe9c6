package http

import (
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// securityMetrics counts throttled and rejected requests for the
// readiness endpoint and shutdown logs.
type securityMetrics struct {
	rateLimited atomic.Int64
	rejected    atomic.Int64
}

func (m *securityMetrics) recordRateLimited() { m.rateLimited.Add(1) }
func (m *securityMetrics) recordRejected()    { m.rejected.Add(1) }

// trustedProxyNets lists networks whose forwarding headers are honored.
// Anything else is assumed to talk to us directly.
var trustedProxyNets = func() []*net.IPNet {
	cidrs := []string{
		"127.0.0.0/8",
		"::1/128",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
	}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		if _, n, err := net.ParseCIDR(c); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}()

func isTrustedProxy(ip net.IP) bool {
	for _, n := range trustedProxyNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP resolves the originating client address. Forwarding
// headers are only believed when the direct peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil || !isTrustedProxy(peer) {
		return host
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		if net.ParseIP(real) != nil {
			return real
		}
	}
	return host
}

var suspiciousFragments = []string{
	"../",
	"..\\",
	"/etc/passwd",
	"<script",
	"union select",
	"information_schema",
}

// looksSuspicious flags obvious traversal and injection probes. It is a
// coarse filter, not a WAF.
func looksSuspicious(r *http.Request) bool {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	if len(target) > 2048 {
		return true
	}
	for _, frag := range suspiciousFragments {
		if strings.Contains(target, frag) {
			return true
		}
	}
	return false
}

func setSecurityHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Cache-Control", "no-store")
}
