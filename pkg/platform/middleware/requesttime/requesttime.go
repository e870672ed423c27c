// Package requesttime captures one "now" per HTTP request so every timestamp
// written while serving it (createdAt, updatedAt, expiry dates) agrees.
package requesttime

import (
	"net/http"
	"time"

	"clarity/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
