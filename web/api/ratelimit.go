package api

import (
	"log"
	"net/http"

	"github.com/zeptools/certmerge/requests"
	"github.com/zeptools/certmerge/responses"
	"github.com/zeptools/certmerge/throttle"
)

type rateLimit struct {
	limiter    *throttle.Limiter[string]
	group      string
	trustProxy bool
}

func (rl *rateLimit) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := requests.ClientIP(r, rl.trustProxy)
		if !rl.limiter.Allow(rl.group, ip) {
			log.Printf("[WARN][API] %s throttled on %s", ip, r.URL.Path)
			w.Header().Set("Retry-After", "1")
			responses.WriteSimpleErrorJSON(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		inner.ServeHTTP(w, r)
	})
}
