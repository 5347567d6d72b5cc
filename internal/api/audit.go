package api

import (
	"net/http"
	"strconv"

	"github.com/printhive/printhive-core/internal/audit"
)

// recordAudit stores an action trail entry for the authenticated caller.
// A nil audit repository disables the trail; failures are logged, never
// surfaced to the client.
func (s *Server) recordAudit(r *http.Request, action, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}

	var username string
	if claims := claimsFrom(r.Context()); claims != nil {
		username = claims.Subject
	}
	s.recordAuditAs(r, username, action, entityID, details)
}

// recordAuditAs is recordAudit with an explicit username, for handlers
// that run before claims exist (login).
func (s *Server) recordAuditAs(r *http.Request, username, action, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}

	entry := &audit.Entry{
		Action:   action,
		EntityID: entityID,
		Username: username,
		Details:  details,
	}
	if err := s.audit.Create(r.Context(), entry); err != nil {
		s.logger.Error("failed to record audit entry", "action", action, "error", err)
	}
}

// handleListAudit returns the action trail, most recent first.
// Supports ?action=, ?username=, ?limit= and ?offset= query parameters.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit trail is not enabled")
		return
	}

	filter := audit.Filter{
		Action:   r.URL.Query().Get("action"),
		Username: r.URL.Query().Get("username"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
