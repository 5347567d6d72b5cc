package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printhive/printhive-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			// WS ticket requires authentication - user must be logged in
			// to request a ticket
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Device connection lifecycle
			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermConnection))
				r.Post("/connection", s.handleConnect)
				r.Delete("/connection", s.handleDisconnect)
			})

			// Raw terminal commands
			r.With(s.requirePermission(auth.PermTerminal)).
				Post("/terminal", s.handleTerminalSend)

			// Print job markers
			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermPrint))
				r.Post("/print", s.handlePrintStart)
				r.Delete("/print", s.handlePrintEnd)
			})

			// Printer settings
			r.Route("/settings", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermSettings))
				r.Get("/", s.handleListSettings)
				r.Get("/{id}", s.handleGetSetting)
				r.Put("/{id}", s.handleUpdateSetting)
			})

			// User management
			r.Route("/users", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermUsers))
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Patch("/{username}", s.handleUpdateUser)
				r.Delete("/{username}", s.handleDeleteUser)
			})

			// Action trail, visible to user administrators
			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermUsers))
				r.Get("/audit", s.handleListAudit)
			})

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
