package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tborer/resume-helper/internal/store"
	"github.com/tborer/resume-helper/pkg/logger"
)

func (s *Server) handleCheckSubscription(w http.ResponseWriter, r *http.Request) {
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

	subscribed, err := s.billing.HasActiveSubscription(req.Email)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"hasSubscription": subscribed})
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
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

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "https://" + r.Host
	}

	url, err := s.billing.CheckoutURL(req.Email, origin)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "url": url})
}

// handleStripeWebhook provisions an account and sends the first magic
// link when a checkout completes. Other event types are acknowledged and
// dropped.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		fail(w, r.Context(), err)
		return
	}

	email, customerID, err := s.billing.CompletedCheckoutEmail(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	if email == "" {
		RespondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	requestID := logger.GetRequestID(r.Context())
	slog.Info("checkout completed", "email", email, "request_id", requestID)

	if _, err := s.store.CreateUser(r.Context(), email, false); err != nil && !errors.Is(err, store.ErrDuplicateEmail) {
		fail(w, r.Context(), err)
		return
	}
	if customerID != "" {
		if err := s.store.SetStripeCustomer(r.Context(), email, customerID); err != nil {
			slog.Warn("failed to record Stripe customer", "email", email, "error", err,
				"request_id", requestID)
		}
	}
	if err := s.auth.SendMagicLink(r.Context(), email); err != nil {
		// the account exists; the user can request another link, so the
		// webhook is still acknowledged
		slog.Error("failed to send post-checkout magic link", "email", email, "error", err,
			"request_id", requestID)
	}

	RespondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}
