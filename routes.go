package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dost-atlas/handlers"
	"dost-atlas/metrics"
	"dost-atlas/middleware"
	"dost-atlas/utils/errors"
)

type healthCheck func(ctx context.Context) error

// routes holds the handlers mounted by this process. records, auth and users
// are nil when the records API is hosted elsewhere.
type routes struct {
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	jwtSecret string

	records   *handlers.RecordHandler
	auth      *handlers.AuthHandler
	users     *handlers.UserHandler
	dashboard *handlers.DashboardHandler
	health    []healthCheck
}

func (rt routes) handler(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.AccessLog(rt.logger, rt.metrics))

	r.Handle("/metrics", rt.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", rt.healthz).Methods(http.MethodGet)

	if rt.records != nil {
		requireAuth := middleware.JWTMiddleware(rt.jwtSecret)
		protected := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

		api := r.PathPrefix("/api").Subrouter()
		api.HandleFunc("/implementations", rt.records.ListImplementations).Methods(http.MethodGet)
		api.Handle("/implementations", protected(rt.records.CreateImplementation)).Methods(http.MethodPost)
		api.Handle("/implementations/{id}", protected(rt.records.UpdateImplementationStatus)).Methods(http.MethodPatch)

		api.HandleFunc("/projects", rt.records.ListProjects).Methods(http.MethodGet)
		api.Handle("/projects", protected(rt.records.CreateProject)).Methods(http.MethodPost)
		api.HandleFunc("/projects/{id}", rt.records.GetProject).Methods(http.MethodGet)
		api.Handle("/projects/{id}", protected(rt.records.UpdateProject)).Methods(http.MethodPatch, http.MethodPut)
		api.Handle("/projects/{id}", protected(rt.records.DeleteProject)).Methods(http.MethodDelete)

		api.HandleFunc("/users/register", rt.auth.RegisterUser).Methods(http.MethodPost)
		api.HandleFunc("/users/login", rt.auth.LoginUser).Methods(http.MethodPost)
		api.Handle("/users/me", protected(rt.users.Me)).Methods(http.MethodGet)
	}

	if rt.dashboard != nil {
		d := r.PathPrefix("/dashboard").Subrouter()
		d.HandleFunc("/scene", rt.dashboard.Scene).Methods(http.MethodGet)
		d.HandleFunc("/refresh", rt.dashboard.Refresh).Methods(http.MethodPost)
		d.HandleFunc("/layers/{layer}/toggle", rt.dashboard.ToggleLayer).Methods(http.MethodPost)
		d.HandleFunc("/base-layer", rt.dashboard.SetBaseLayer).Methods(http.MethodPut)
		d.HandleFunc("/overlay/toggle", rt.dashboard.ToggleOverlay).Methods(http.MethodPost)
		d.HandleFunc("/viewport", rt.dashboard.Viewport).Methods(http.MethodPut)
		d.HandleFunc("/export", rt.dashboard.Export).Methods(http.MethodPost)
		d.HandleFunc("/notifications", rt.dashboard.Notifications).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, errors.ErrNotFound)
	})

	// CORS sits outside the router so preflights never reach the JWT check.
	return middleware.ErrorMiddleware()(middleware.CORSMiddleware(allowedOrigins)(r))
}

func (rt routes) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, check := range rt.health {
		g.Go(func() error { return check(ctx) })
	}
	if err := g.Wait(); err != nil {
		middleware.WriteError(w, errors.NewAPIError("UNAVAILABLE", "Storage is unreachable", http.StatusServiceUnavailable, err.Error()))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}
