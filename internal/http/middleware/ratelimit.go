package middleware

import (
	"fmt"
	"net/http"
	"time"

	"agileboard-api/internal/auth"
	"agileboard-api/internal/http/httperr"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// RateLimitMiddleware enforces rate limiting per authenticated user.
// rejections may be nil in tests.
func RateLimitMiddleware(limiter *ratelimit.RedisRateLimiter, limitPerMin int, rejections prometheus.Counter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)

			claims, ok := auth.GetClaims(ctx)
			if !ok {
				log.Error(ctx, "claims not found in context for rate limiting", logger.Module("ratelimit"))
				httperr.InternalError(w, ctx)
				return
			}

			allowed, remaining, err := limiter.AllowRequest(ctx, claims.Username, limitPerMin, 60)
			if err != nil {
				// Redis being down must not take the API with it.
				log.Error(ctx, "rate limit check failed", logger.Module("ratelimit"), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limitPerMin))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(60*time.Second).Unix()))

			if !allowed {
				if rejections != nil {
					rejections.Inc()
				}
				log.Warn(ctx, "rate limit exceeded",
					logger.Module("ratelimit"),
					zap.String("username", claims.Username),
					zap.Int("limit", limitPerMin),
				)
				w.Header().Set("Retry-After", "60")
				httperr.TooManyRequests429(w, ctx, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
