package api

import (
	"errors"
	"net/http"

	"github.com/tborer/resume-helper/internal/keys"
	"github.com/tborer/resume-helper/internal/store"
	apierrors "github.com/tborer/resume-helper/pkg/errors"
	"github.com/tborer/resume-helper/pkg/logger"
)

var errEmailRequired = errors.New("email is required")

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		IsAdmin    bool   `json:"isAdmin"`
		AdminEmail string `json:"adminEmail"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}
	if req.Email == "" {
		fail(w, r.Context(), errEmailRequired)
		return
	}
	if !s.isAdmin(w, r, req.AdminEmail) {
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Email, req.IsAdmin)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}
	if req.Email == "" {
		fail(w, r.Context(), errEmailRequired)
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, user)
}

func (s *Server) handleCheckAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		RespondWithJSON(w, http.StatusOK, map[string]bool{"isAdmin": false})
		return
	}
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"isAdmin": user.IsAdmin})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminEmail string `json:"adminEmail"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}
	if !s.isAdmin(w, r, req.AdminEmail) {
		return
	}

	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, users)
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Active     bool   `json:"active"`
		AdminEmail string `json:"adminEmail"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}
	if req.Email == "" {
		fail(w, r.Context(), errEmailRequired)
		return
	}
	if !s.isAdmin(w, r, req.AdminEmail) {
		return
	}

	if err := s.store.SetActive(r.Context(), req.Email, req.Active); err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSaveAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		APIKey string `json:"apiKey"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}
	if req.Email == "" || req.APIKey == "" {
		RespondWithError(w, apierrors.ErrBadRequest("email and API key are required").
			WithRequestID(logger.GetRequestID(r.Context())))
		return
	}
	if !keys.ValidFormat(req.APIKey) {
		RespondWithError(w, apierrors.ErrBadRequest("API key does not look like a Gemini API key").
			WithRequestID(logger.GetRequestID(r.Context())))
		return
	}

	if err := s.store.SaveAPIKey(r.Context(), req.Email, req.APIKey); err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleResetUsage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminEmail string `json:"adminEmail"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}
	if !s.isAdmin(w, r, req.AdminEmail) {
		return
	}

	if err := s.store.ResetAllUsage(r.Context()); err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// isAdmin verifies the caller against the stored admin flag and writes
// the error response itself when the check fails.
func (s *Server) isAdmin(w http.ResponseWriter, r *http.Request, email string) bool {
	if email == "" {
		RespondWithError(w, apierrors.ErrForbidden("admin email is required").
			WithRequestID(logger.GetRequestID(r.Context())))
		return false
	}
	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil || !user.IsAdmin {
		RespondWithError(w, apierrors.ErrForbidden("admin access required").
			WithRequestID(logger.GetRequestID(r.Context())))
		return false
	}
	return true
}
