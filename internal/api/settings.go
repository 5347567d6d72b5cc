package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printhive/printhive-core/internal/audit"
	"github.com/printhive/printhive-core/internal/settings"
)

// handleListSettings returns every setting row.
func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.settings.List(r.Context())
	if err != nil {
		s.logger.Error("listing settings", "error", err)
		writeInternalError(w, "failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": all})
}

// handleGetSetting returns a single setting by its prefixed key.
func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	setting, err := s.settings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			writeNotFound(w, "setting not found")
			return
		}
		s.logger.Error("getting setting", "id", id, "error", err)
		writeInternalError(w, "failed to get setting")
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// settingUpdateRequest is the request body for PUT /settings/{id}.
// A null value clears the setting back to unconfigured.
type settingUpdateRequest struct {
	Value *string `json:"value"`
}

// handleUpdateSetting changes a setting's value. New keys cannot be
// created this way - the set of settings is fixed by the boot seed.
func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req settingUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.settings.Set(r.Context(), id, req.Value); err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			writeNotFound(w, "setting not found")
			return
		}
		s.logger.Error("updating setting", "id", id, "error", err)
		writeInternalError(w, "failed to update setting")
		return
	}

	setting, err := s.settings.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, "failed to read back setting")
		return
	}

	s.recordAudit(r, audit.ActionSettingUpdate, id, nil)
	writeJSON(w, http.StatusOK, setting)
}
