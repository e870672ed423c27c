// Package requestid tags every request with an identifier for log correlation.
package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"clarity/pkg/requestcontext"
)

// Header is echoed back on every response and accepted from callers.
const Header = "X-Request-ID"

const maxInboundLength = 128

// Middleware reuses a caller-supplied request ID when it is sane, otherwise
// generates one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" || len(id) > maxInboundLength {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
