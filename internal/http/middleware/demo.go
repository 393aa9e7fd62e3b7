package middleware

import (
	"net/http"

	"agileboard-api/internal/auth"
	"agileboard-api/internal/domain"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/service"

	"go.uber.org/zap"
)

// DemoAccess grants every authenticated caller admin on the configured demo
// workspace, so evaluation environments need no manual role setup. The grant
// is an idempotent upsert; a failed grant is logged and the request proceeds
// with the caller's real role.
//
// Must never be enabled outside an isolated demo deployment.
func DemoAccess(grants service.RoleGranter, demoWorkspaceID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			claims, ok := auth.GetClaims(ctx)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if err := grants.Grant(ctx, demoWorkspaceID, claims.Username, domain.RoleAdmin, claims.Username); err != nil {
				logger.GetLogger(ctx).Error(ctx, "demo access grant failed",
					logger.Module("demo"),
					zap.String("workspace_id", demoWorkspaceID),
					zap.String("username", claims.Username),
					zap.Error(err),
				)
			}

			next.ServeHTTP(w, r)
		})
	}
}
