package api

import (
	"context"
	"log"
	"net/http"

	"github.com/zeptools/certmerge/requests"
	"github.com/zeptools/certmerge/responses"
	"github.com/zeptools/certmerge/sec"
)

type ctxKey struct{}

// BearerAuth is a routing.HandlerWrapper requiring a valid HS256 API token
type BearerAuth struct {
	Secret []byte
	Issuer string
}

func (a *BearerAuth) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sec.ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := sec.ParseAPIToken(a.Secret, a.Issuer, token)
		if err != nil {
			log.Printf("[WARN][API] rejected token from %s: %v", requests.ClientIP(r, false), err)
			responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "invalid token")
			return
		}
		inner.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
	})
}

// Subject returns the token subject of an authenticated request
func Subject(ctx context.Context) (string, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*sec.APIClaims)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

// actor names the caller in audit log lines
func actor(r *http.Request) string {
	if sub, ok := Subject(r.Context()); ok && sub != "" {
		return sub
	}
	return "anonymous@" + requests.ClientIP(r, false)
}
