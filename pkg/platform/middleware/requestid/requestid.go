// Package requestid assigns each request a correlation ID. An incoming
// X-Request-ID is honored so IDs survive proxy hops; otherwise a fresh UUID
// is generated. The ID is echoed on the response for client-side correlation.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"idguardian/pkg/requestcontext"
)

// Header is the request ID header name.
const Header = "X-Request-ID"

// Middleware stores the request ID in the context and response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
