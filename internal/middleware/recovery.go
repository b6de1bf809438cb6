package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"hdgstudio-market-api/pkg/apierror"
)

// Recovery converts a handler panic into a 500 response. The stack is
// logged with the request id so the crash can be matched to its access
// log line.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC request_id=%s: %v\n%s", GetRequestID(r.Context()), err, debug.Stack())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write(apierror.InternalError("internal server error").ToJSON())
			}
		}()

		next.ServeHTTP(w, r)
	})
}
