package routing

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/zeptools/certmerge/requests"
	"github.com/zeptools/certmerge/responses"
)

// RecoverWrapper turns a handler panic into a JSON 500
var RecoverWrapper = WrapperFunc(func(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[PANIC] %s %s recovered: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		inner.ServeHTTP(w, r)
	})
})

// LogWrapper logs one line per request
var LogWrapper = WrapperFunc(func(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		inner.ServeHTTP(sw, r)
		log.Printf("[INFO][WEB] %s %s %s %d", requests.ClientIP(r, false), r.Method, r.URL.Path, sw.status)
	})
})

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
