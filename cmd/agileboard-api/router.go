package main

import (
	"context"
	"net/http"
	"time"

	"agileboard-api/internal/auth"
	"agileboard-api/internal/config"
	"agileboard-api/internal/http/docs"
	"agileboard-api/internal/http/handler"
	httpmiddleware "agileboard-api/internal/http/middleware"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/ratelimit"
	"agileboard-api/internal/repo"
	"agileboard-api/internal/service"
	"agileboard-api/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// RouterDeps carries everything the router needs, wired once in serve.go.
type RouterDeps struct {
	Cfg         *config.Config
	Log         *logger.Logger
	Validator   *auth.HS256Validator
	RateLimiter *ratelimit.RedisRateLimiter
	Metrics     *telemetry.Metrics
	Prom        *telemetry.Prom
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	Authorizer  *service.Authorizer
	Grants      *repo.PermissionRepository

	WorkspaceHandler  *handler.WorkspaceHandler
	PermissionHandler *handler.PermissionHandler
	ProjectHandler    *handler.ProjectHandler
	TaskHandler       *handler.TaskHandler
	CommentHandler    *handler.CommentHandler
	MessageHandler    *handler.MessageHandler
}

func buildRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(httpmiddleware.RequestIDMiddleware)
	r.Use(httpmiddleware.RequestLoggingMiddleware(deps.Log))
	r.Use(httpmiddleware.RecoveryMiddleware(deps.Log))
	r.Use(telemetry.OTelMiddleware(deps.Cfg.OTELServiceName))
	if deps.Metrics != nil {
		r.Use(telemetry.MetricsMiddleware(deps.Metrics))
	}

	// Public endpoints
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.Pool.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	r.Method(http.MethodGet, "/metrics", deps.Prom.Handler())
	r.Method(http.MethodGet, "/openapi.yaml", docs.OpenAPIHandler())
	r.Method(http.MethodGet, "/docs", docs.ScalarDocsHandler("/openapi.yaml"))

	// Authenticated API
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(auth.JWTAuthMiddleware(deps.Validator))
		v1.Use(httpmiddleware.RateLimitMiddleware(deps.RateLimiter, deps.Cfg.RateLimitPerUserPerMin, deps.Prom.RateLimitRejectionsTotal))
		if deps.Cfg.DemoAccessEnabled && deps.Cfg.DemoWorkspaceID != "" {
			v1.Use(httpmiddleware.DemoAccess(deps.Grants, deps.Cfg.DemoWorkspaceID))
		}

		gatePermissions := httpmiddleware.Authorize(deps.Authorizer, service.OpModifyPermissions)
		gateData := httpmiddleware.Authorize(deps.Authorizer, service.OpModifyData)

		v1.Get("/me/scope", deps.PermissionHandler.GetScope)

		v1.Get("/messages", deps.MessageHandler.PullMessages)
		v1.Delete("/messages", deps.MessageHandler.AckMessages)

		v1.Route("/workspaces", func(ws chi.Router) {
			ws.Get("/", deps.WorkspaceHandler.ListWorkspaces)
			ws.Post("/", deps.WorkspaceHandler.CreateWorkspace)

			ws.Route("/{workspaceID}", func(one chi.Router) {
				one.Get("/", deps.WorkspaceHandler.GetWorkspace)
				one.With(gatePermissions).Delete("/", deps.WorkspaceHandler.DeleteWorkspace)

				one.Get("/users", deps.PermissionHandler.GetUserTable)
				one.With(gatePermissions).Put("/users", deps.PermissionHandler.ReconcileUsers)

				one.Get("/projects", deps.ProjectHandler.ListProjects)
				one.With(gateData).Post("/projects", deps.ProjectHandler.CreateProject)

				one.Get("/tasks", deps.TaskHandler.ListWorkspaceTasks)
			})
		})

		v1.Route("/projects/{projectID}", func(p chi.Router) {
			p.Get("/", deps.ProjectHandler.GetProject)
			p.With(gateData).Put("/", deps.ProjectHandler.UpdateProject)
			p.With(gateData).Delete("/", deps.ProjectHandler.DeleteProject)

			p.Get("/tasks", deps.TaskHandler.GetBoard)
			p.With(gateData).Post("/tasks", deps.TaskHandler.CreateTask)
		})

		v1.Route("/tasks/{taskID}", func(t chi.Router) {
			t.Get("/", deps.TaskHandler.GetTask)
			t.With(gateData).Put("/", deps.TaskHandler.UpdateTask)
			t.With(gateData).Delete("/", deps.TaskHandler.DeleteTask)

			t.With(gateData).Post("/comments", deps.CommentHandler.CreateComment)

			// Watch/unwatch is self-service, any member may do it.
			t.Post("/watchers", deps.TaskHandler.Watch)
			t.Delete("/watchers", deps.TaskHandler.Unwatch)
		})

		v1.Route("/comments/{commentID}", func(c chi.Router) {
			// Author-only rules are enforced by the service, not the role gate.
			c.With(gateData).Put("/", deps.CommentHandler.UpdateComment)
			c.With(gateData).Delete("/", deps.CommentHandler.DeleteComment)
		})
	})

	return r
}
