// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/pmt-go/internal/middleware"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	IsDevelopment bool

	// ServerAddr is trusted as a CSRF origin in development.
	ServerAddr string

	// CSRFKey enables CSRF protection on /api when set.
	CSRFKey []byte

	// RateLimit and RateBurst bound API requests per client IP.
	RateLimit float64
	RateBurst int

	// Timeout bounds every request. Zero means 30 seconds.
	Timeout time.Duration

	// RequestLog enables chi's request logger.
	RequestLog bool
}

// NewRouter builds the HTTP routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 40
	}

	r := chi.NewRouter()

	r.Use(middleware.Metrics)
	r.Use(chimw.RequestID)
	if cfg.RequestLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Timeout(cfg.Timeout))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)))
	r.Use(h.sm.LoadAndSave)
	r.Use(middleware.LoadIdentity(h.sm))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	r.Get("/health", h.Health)
	r.Get("/health/live", h.Liveness)
	r.Get("/health/ready", h.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Middleware())
		if len(cfg.CSRFKey) > 0 {
			r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(cfg.CSRFKey, cfg.IsDevelopment, cfg.ServerAddr)))
		}

		if h.login != nil {
			r.With(h.login.Middleware()).Post("/login", h.Login)
		} else {
			r.Post("/login", h.Login)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity)

			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/assignees", h.ListAssignees)
				r.Delete("/{email}", h.DeleteUser)
				r.Put("/{email}/password", h.UpdatePassword)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.ListTasks)
				r.Post("/", h.CreateTask)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetTask)
					r.Patch("/", h.UpdateTask)
					r.Delete("/", h.DeleteTask)
					r.Post("/updates", h.SubmitUpdate)
					r.Get("/hours", h.ListEntries)
					r.Post("/hours", h.AppendEntry)
				})
			})
		})
	})

	return r
}
