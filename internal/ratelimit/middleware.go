package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dErrors "idguardian/pkg/domain-errors"
	"idguardian/pkg/platform/httputil"
	"idguardian/pkg/requestcontext"
)

// Middleware enforces the limiter per client IP. Store failures fail open:
// losing rate limiting beats refusing all traffic during a Redis blip.
func Middleware(limiter *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			result, err := limiter.Allow(ctx, requestcontext.ClientIP(ctx))
			if err != nil {
				logger.WarnContext(ctx, "rate limit check failed, allowing request",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.Allowed {
				retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many sessions from this address"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
