package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tborer/resume-helper/internal/store"
	apierrors "github.com/tborer/resume-helper/pkg/errors"
	"github.com/tborer/resume-helper/pkg/logger"
)

// handleSendMagicLink gates the login link behind an active subscription:
// known active users get a link directly, unknown emails must have a
// matching Stripe subscription first.
func (s *Server) handleSendMagicLink(w http.ResponseWriter, r *http.Request) {
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
	switch {
	case err == nil && !user.IsActive:
		RespondWithError(w, apierrors.ErrForbidden("this account has been deactivated").
			WithRequestID(logger.GetRequestID(r.Context())))
		return
	case errors.Is(err, store.ErrNotFound):
		subscribed, subErr := s.billing.HasActiveSubscription(req.Email)
		if subErr != nil {
			fail(w, r.Context(), subErr)
			return
		}
		if !subscribed {
			RespondWithError(w, apierrors.ErrForbidden("no active subscription found for this email").
				WithRequestID(logger.GetRequestID(r.Context())))
			return
		}
		// first login after purchase: provision the account
		if _, createErr := s.store.CreateUser(r.Context(), req.Email, false); createErr != nil && !errors.Is(createErr, store.ErrDuplicateEmail) {
			fail(w, r.Context(), createErr)
			return
		}
	case err != nil:
		fail(w, r.Context(), err)
		return
	}

	if err := s.auth.SendMagicLink(r.Context(), req.Email); err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Magic link sent successfully",
	})
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}
	if req.Token == "" {
		RespondWithError(w, apierrors.ErrBadRequest("token is required").
			WithRequestID(logger.GetRequestID(r.Context())))
		return
	}

	email, err := s.auth.Verify(r.Context(), req.Token)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}

	slog.Info("magic link verified", "email", email,
		"request_id", logger.GetRequestID(r.Context()))
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  user,
	})
}
