package auth

import (
	"context"
	"net/http"
	"strings"

	"agileboard-api/internal/http/httperr"
	"agileboard-api/internal/observability/logger"

	"go.uber.org/zap"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// JWTAuthMiddleware validates JWT bearer tokens and injects claims into the
// request context. Downstream middleware and handlers read the caller's
// identity only through GetClaims.
func JWTAuthMiddleware(validator *HS256Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn(r.Context(), "missing authorization header", logger.Module("auth"))
				httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeMissingAuthorization, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn(r.Context(), "invalid authorization header format", logger.Module("auth"))
				httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeInvalidScheme, "invalid authorization header format")
				return
			}

			claims, err := validator.Validate(parts[1])
			if err != nil {
				log.Warn(r.Context(), "token validation failed",
					logger.Module("auth"),
					zap.Error(err),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				httperr.Unauthorized401(w, r.Context(), authErrorCode(err), "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			ctx = logger.SetUserIDInContext(ctx, claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authErrorCode(err error) string {
	authErr, ok := IsAuthError(err)
	if !ok {
		return httperr.ErrCodeInvalidToken
	}
	switch authErr.Reason {
	case AuthFailureTokenExpired:
		return httperr.ErrCodeTokenExpired
	case AuthFailureInvalidSignature:
		return httperr.ErrCodeInvalidSignature
	default:
		return httperr.ErrCodeInvalidToken
	}
}

// GetClaims retrieves claims from context
func GetClaims(ctx context.Context) (*CustomClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*CustomClaims)
	return claims, ok
}

// SetClaimsForTesting injects claims into a context to simulate an
// authenticated request in tests.
func SetClaimsForTesting(ctx context.Context, claims *CustomClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
