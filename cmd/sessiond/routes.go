package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const (
	keyUser  = "user"
	keyViews = "views"
)

type sessionView struct {
	New   bool    `json:"new"`
	User  string  `json:"user,omitempty"`
	Views float64 `json:"views"`
}

func newRouter(m *session.Manager, reg *prometheus.Registry, log *slog.Logger, checks ...func(context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler(log))
	r.Get("/readyz", healthHandler(log, checks...))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Group(func(r chi.Router) {
		r.Use(m.Middleware)
		r.Get("/", handleIndex)
		r.Post("/login", handleLogin)
		r.Post("/logout", handleLogout)
	})

	return r
}

// handleIndex counts page views for the current session.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	state := session.MustFromContext(r.Context())

	views, _ := state.Get(keyViews)
	n, _ := views.(float64)
	state.Set(keyViews, n+1)

	user, _ := state.GetString(keyUser)
	writeJSON(w, http.StatusOK, sessionView{New: state.IsNew(), User: user, Views: n + 1})
}

// handleLogin binds a user to the session and rotates its id.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.FormValue("user"))
	if user == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user is required"})
		return
	}

	state := session.MustFromContext(r.Context())
	data := state.Data().Clone()
	if data == nil {
		data = session.Values{}
	}
	data[keyUser] = user
	state.Regenerate(data)

	views, _ := data[keyViews].(float64)
	writeJSON(w, http.StatusOK, sessionView{User: user, Views: views})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	session.MustFromContext(r.Context()).Destroy()
	w.WriteHeader(http.StatusNoContent)
}

func healthHandler(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
				http.Error(w, "NOT_READY", http.StatusServiceUnavailable)
				return
			}
		}
		if len(checks) == 0 {
			_, _ = w.Write([]byte("ALIVE"))
			return
		}
		_, _ = w.Write([]byte("READY"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
