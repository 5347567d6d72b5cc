package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printhive/printhive-core/internal/audit"
	"github.com/printhive/printhive-core/internal/auth"
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// userResponse is the public representation of a user account.
type userResponse struct {
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

// createUserRequest is the request body for POST /users.
type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Permissions int    `json:"permissions"`
}

// handleListUsers returns all user accounts.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error("listing users", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{Username: u.Username, Permissions: u.Permissions.Names()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

// handleCreateUser creates a new user account.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if !auth.IsValidUsername(req.Username) {
		writeBadRequest(w, "invalid username")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeInternalError(w, "failed to hash password")
		return
	}

	user := &auth.User{
		Username:     req.Username,
		PasswordHash: hash,
		Permissions:  auth.Permission(req.Permissions),
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeConflict(w, "username already exists")
			return
		}
		s.logger.Error("creating user", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	s.logger.Info("user created", "username", user.Username)
	s.recordAudit(r, audit.ActionUserCreate, req.Username, nil)
	writeJSON(w, http.StatusCreated, userResponse{
		Username:    user.Username,
		Permissions: user.Permissions.Names(),
	})
}

// updateUserRequest is the request body for PATCH /users/{username}.
// Nil fields are left unchanged.
type updateUserRequest struct {
	Password    *string `json:"password"`
	Permissions *int    `json:"permissions"`
}

// handleUpdateUser changes a user's password and/or permissions.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Password == nil && req.Permissions == nil {
		writeBadRequest(w, "nothing to update")
		return
	}

	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			writeBadRequest(w, "password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			writeInternalError(w, "failed to hash password")
			return
		}
		if err := s.users.UpdatePassword(r.Context(), username, hash); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				writeNotFound(w, "user not found")
				return
			}
			writeInternalError(w, "failed to update password")
			return
		}
		// Password change invalidates every open session for the account.
		if _, err := s.tokens.DeleteAllForUser(r.Context(), username); err != nil {
			s.logger.Warn("failed to revoke tokens after password change", "username", username, "error", err)
		}
	}

	if req.Permissions != nil {
		if err := s.users.UpdatePermissions(r.Context(), username, auth.Permission(*req.Permissions)); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				writeNotFound(w, "user not found")
				return
			}
			writeInternalError(w, "failed to update permissions")
			return
		}
	}

	user, err := s.users.GetByUsername(r.Context(), username)
	if err != nil {
		writeInternalError(w, "failed to read back user")
		return
	}
	s.recordAudit(r, audit.ActionUserUpdate, username, nil)
	writeJSON(w, http.StatusOK, userResponse{
		Username:    user.Username,
		Permissions: user.Permissions.Names(),
	})
}

// handleDeleteUser removes a user account. Self-deletion is rejected so
// an admin cannot lock themselves out mid-session.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if claims := claimsFrom(r.Context()); claims != nil && claims.Subject == username {
		writeForbidden(w, "cannot delete own account")
		return
	}

	if err := s.users.Delete(r.Context(), username); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("deleting user", "error", err)
		writeInternalError(w, "failed to delete user")
		return
	}

	s.logger.Info("user deleted", "username", username)
	s.recordAudit(r, audit.ActionUserDelete, username, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
