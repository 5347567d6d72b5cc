package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/printhive/printhive-core/internal/audit"
	"github.com/printhive/printhive-core/internal/events"
)

// connectionRequest is the request body for POST /connection.
type connectionRequest struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// handleConnect requests a new device connection. The event enters the
// distribution queue; whether a session actually starts is the router's
// decision, reported back over the WebSocket state channel.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Address == "" {
		writeBadRequest(w, "address is required")
		return
	}
	if req.Port <= 0 || req.Port > 65535 {
		writeBadRequest(w, "port must be 1-65535")
		return
	}

	if err := s.dist.Send(events.ConnectionCreate{Address: req.Address, Port: req.Port}); err != nil {
		writeInternalError(w, "event queue unavailable")
		return
	}

	s.recordAudit(r, audit.ActionConnectionOpen, "",
		map[string]any{"address": req.Address, "port": req.Port})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "connecting"})
}

// handleDisconnect requests teardown of the current device session by
// reporting a disconnected state into the distribution queue. If no
// session is live the router drops it silently, so the request is
// idempotent.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	ev := events.StateUpdate{
		State:       events.StateDisconnected,
		Description: events.NoDescription{},
	}
	if err := s.dist.Send(ev); err != nil {
		writeInternalError(w, "event queue unavailable")
		return
	}

	s.recordAudit(r, audit.ActionConnectionClose, "", nil)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "disconnecting"})
}

// terminalRequest is the request body for POST /terminal.
type terminalRequest struct {
	Message string `json:"message"`
}

// handleTerminalSend queues a raw command for the device. Commands sent
// while no session is live are dropped by the router, matching the
// device's actual availability.
func (s *Server) handleTerminalSend(w http.ResponseWriter, r *http.Request) {
	var req terminalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeBadRequest(w, "message is required")
		return
	}

	if err := s.dist.Send(events.TerminalSend{Message: message}); err != nil {
		writeInternalError(w, "event queue unavailable")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// printStartRequest is the request body for POST /print.
type printStartRequest struct {
	Filename  string `json:"filename"`
	FileSize  int64  `json:"file_size"`
	LineCount int64  `json:"line_count"`
}

// handlePrintStart queues a print job start marker.
func (s *Server) handlePrintStart(w http.ResponseWriter, r *http.Request) {
	var req printStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Filename == "" {
		writeBadRequest(w, "filename is required")
		return
	}

	ev := events.PrintStart{Info: events.PrintInfo{
		Filename:  req.Filename,
		FileSize:  req.FileSize,
		LineCount: req.LineCount,
	}}
	if err := s.dist.Send(ev); err != nil {
		writeInternalError(w, "event queue unavailable")
		return
	}

	s.recordAudit(r, audit.ActionPrintStart, req.Filename,
		map[string]any{"file_size": req.FileSize, "line_count": req.LineCount})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "print_started"})
}

// handlePrintEnd queues a print job end marker.
func (s *Server) handlePrintEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.dist.Send(events.PrintEnd{}); err != nil {
		writeInternalError(w, "event queue unavailable")
		return
	}

	s.recordAudit(r, audit.ActionPrintEnd, "", nil)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "print_ended"})
}
