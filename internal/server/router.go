package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kombinator/garant/internal/auth"
)

// Deps bundles everything the router needs.
type Deps struct {
	Auth          *auth.Service
	Receipts      *ReceiptsHandler
	Notifications *NotificationsHandler
	Pool          *pgxpool.Pool
	Logger        *zap.Logger
}

// NewRouter assembles the HTTP surface: public auth routes, authenticated
// API routes, and a health endpoint.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(deps.Logger))

	authHandler := NewAuthHandler(deps.Auth, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(Authenticated(deps.Auth))
			deps.Receipts.RegisterRoutes(r)
			deps.Notifications.RegisterRoutes(r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := deps.Pool.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
