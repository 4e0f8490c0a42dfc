package api

import (
	"net/http"

	apierrors "github.com/tborer/resume-helper/pkg/errors"
	"github.com/tborer/resume-helper/pkg/logger"
)

func (s *Server) handleCreateFeatureRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string `json:"email"`
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}
	if req.Email == "" || req.Content == "" {
		RespondWithError(w, apierrors.ErrBadRequest("content and email are required").
			WithRequestID(logger.GetRequestID(r.Context())))
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}

	fr, err := s.store.CreateFeatureRequest(r.Context(), user.ID, req.Content)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, fr)
}

func (s *Server) handleListFeatureRequests(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(w, r, r.URL.Query().Get("adminEmail")) {
		return
	}

	requests, err := s.store.ListFeatureRequests(r.Context())
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, requests)
}
