package middleware

import (
	"errors"
	"net/http"

	"agileboard-api/internal/auth"
	"agileboard-api/internal/http/httperr"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// gateTarget maps a chi URL parameter to the resource kind the authorizer
// walks to a workspace. Checked in chain order: the deepest resource a route
// carries wins.
var gateTargets = []struct {
	param string
	kind  service.ResourceKind
}{
	{"commentID", service.ResourceComment},
	{"taskID", service.ResourceTask},
	{"projectID", service.ResourceProject},
	{"workspaceID", service.ResourceWorkspace},
}

// Authorize gates a mutating route on the caller's workspace role. It
// resolves the effective workspace from whichever resource id the route
// carries, then applies the operation class. The check runs before the
// handler touches any domain logic.
//
// An unknown resource id passes through: the handler owns the 404 and the
// gate must not turn a missing resource into a permission error.
func Authorize(authz *service.Authorizer, op service.OperationClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)

			claims, ok := auth.GetClaims(ctx)
			if !ok {
				log.Error(ctx, "claims not found in context", logger.Module("authz"))
				httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "unauthenticated")
				return
			}

			if op == service.OpExempt {
				next.ServeHTTP(w, r)
				return
			}

			kind, id := routeResource(r)
			if id == "" {
				log.Error(ctx, "no resource id in gated route",
					logger.Module("authz"),
					zap.String("path", r.URL.Path),
				)
				httperr.BadRequest400(w, ctx, httperr.ErrCodeMissingParameter, "missing resource id")
				return
			}

			workspaceID, err := authz.ResolveWorkspace(ctx, kind, id)
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					next.ServeHTTP(w, r)
					return
				}
				logger.SetRootError(ctx, err)
				httperr.InternalError(w, ctx)
				return
			}

			ctx = logger.SetWorkspaceIDInContext(ctx, workspaceID)

			if err := authz.Check(ctx, claims.Username, workspaceID, op); err != nil {
				var authzErr *service.AuthorizationError
				if errors.As(err, &authzErr) {
					httperr.Forbidden403(w, ctx, httperr.ErrCodeForbidden, authzErr.Reason)
					return
				}
				logger.SetRootError(ctx, err)
				httperr.InternalError(w, ctx)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func routeResource(r *http.Request) (service.ResourceKind, string) {
	for _, t := range gateTargets {
		if id := chi.URLParam(r, t.param); id != "" {
			return t.kind, id
		}
	}
	return "", ""
}
