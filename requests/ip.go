// Package requests holds helpers for inspecting incoming HTTP requests.
package requests

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP is the caller address used for logs and rate limits.
// Forwarding headers are trusted only when trustProxy is set, since a direct client can forge them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// Prefer X-Forwarded-For (first entry)
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
