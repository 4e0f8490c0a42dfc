// Package api exposes the analysis pipeline and its surrounding account,
// auth and billing surface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tborer/resume-helper/internal/auth"
	"github.com/tborer/resume-helper/internal/billing"
	"github.com/tborer/resume-helper/internal/keys"
	"github.com/tborer/resume-helper/internal/llm"
	"github.com/tborer/resume-helper/internal/parse"
	"github.com/tborer/resume-helper/internal/pipeline"
	"github.com/tborer/resume-helper/internal/store"
	"github.com/tborer/resume-helper/internal/usage"
	apierrors "github.com/tborer/resume-helper/pkg/errors"
	"github.com/tborer/resume-helper/pkg/logger"
)

type Server struct {
	port    int
	pipe    *pipeline.Pipeline
	store   *store.Store
	auth    *auth.Service
	billing *billing.Service
}

func NewServer(port int, pipe *pipeline.Pipeline, st *store.Store, authSvc *auth.Service, billingSvc *billing.Service) *Server {
	return &Server{
		port:    port,
		pipe:    pipe,
		store:   st,
		auth:    authSvc,
		billing: billingSvc,
	}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	post := func(h http.HandlerFunc) http.HandlerFunc { return chain(h, http.MethodPost) }
	get := func(h http.HandlerFunc) http.HandlerFunc { return chain(h, http.MethodGet) }

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// analysis pipeline
	mux.HandleFunc("/api/analyze-keywords", post(s.handleAnalyzeKeywords))
	mux.HandleFunc("/api/calculate-match", post(s.handleCalculateMatch))
	mux.HandleFunc("/api/optimize-resume", post(s.handleOptimizeResume))
	mux.HandleFunc("/api/analyze", post(s.handleAnalyze))
	mux.HandleFunc("/api/usage", post(s.handleUsage))

	// users & account
	mux.HandleFunc("/api/users/create", post(s.handleCreateUser))
	mux.HandleFunc("/api/users/me", post(s.handleGetUser))
	mux.HandleFunc("/api/users/check-admin", post(s.handleCheckAdmin))
	mux.HandleFunc("/api/users/list", post(s.handleListUsers))
	mux.HandleFunc("/api/users/set-active", post(s.handleSetActive))
	mux.HandleFunc("/api/users/save-api-key", post(s.handleSaveAPIKey))

	// magic-link auth
	mux.HandleFunc("/api/auth/send-magic-link", post(s.handleSendMagicLink))
	mux.HandleFunc("/api/auth/verify-token", post(s.handleVerifyToken))

	// billing
	mux.HandleFunc("/api/check-subscription", post(s.handleCheckSubscription))
	mux.HandleFunc("/api/create-checkout-session", post(s.handleCreateCheckout))
	mux.HandleFunc("/api/stripe-webhook", post(s.handleStripeWebhook))

	// feature requests & admin
	mux.HandleFunc("/api/feature-requests", get(s.handleListFeatureRequests))
	mux.HandleFunc("/api/feature-requests/create", post(s.handleCreateFeatureRequest))
	mux.HandleFunc("/api/admin/reset-usage", post(s.handleResetUsage))

	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("Starting API server", "port", s.port)
	return http.ListenAndServe(addr, mux)
}

func chain(h http.HandlerFunc, methods ...string) http.HandlerFunc {
	return Recover(RequestID(Logger(CORS(MethodChecker(append(methods, http.MethodOptions)...)(h)))))
}

var errInvalidBody = errors.New("invalid request body")

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// fail maps a pipeline/store error onto the HTTP error taxonomy and
// writes it, tagged with the request ID.
func fail(w http.ResponseWriter, ctx context.Context, err error) {
	RespondWithError(w, toApiError(err).WithRequestID(logger.GetRequestID(ctx)))
}

func toApiError(err error) *apierrors.ApiError {
	var limitErr *usage.LimitError
	var unparsable *parse.UnparsableOptimization

	switch {
	case errors.Is(err, pipeline.ErrMissingJobDescription),
		errors.Is(err, pipeline.ErrMissingResume),
		errors.Is(err, pipeline.ErrUserRequired),
		errors.Is(err, errEmailRequired),
		errors.Is(err, errInvalidBody),
		errors.Is(err, llm.ErrNoAPIKey),
		errors.Is(err, llm.ErrEmptyPrompt):
		return apierrors.ErrBadRequest(err.Error())

	case errors.Is(err, pipeline.ErrUserInactive):
		return apierrors.ErrForbidden(err.Error())

	case errors.Is(err, keys.ErrNoCredential):
		return apierrors.ErrNoCredential(err.Error())

	case errors.As(err, &limitErr):
		return apierrors.ErrDailyLimitExceeded(limitErr.Error())

	case errors.As(err, &unparsable):
		return apierrors.ErrUnparsableResponse(unparsable.Error()).WithFallback(unparsable.Raw)

	case errors.Is(err, parse.ErrNoScore),
		errors.Is(err, parse.ErrScoreOutOfRange),
		errors.Is(err, parse.ErrNoOptimizedResume):
		return apierrors.ErrUnparsableResponse(err.Error())

	case errors.Is(err, llm.ErrGateway):
		return apierrors.ErrAIGateway(err.Error())

	case errors.Is(err, store.ErrTokenInvalid):
		return apierrors.ErrUnauthorized(err.Error())

	case errors.Is(err, store.ErrDuplicateEmail):
		return apierrors.ErrConflict(err.Error())

	case errors.Is(err, store.ErrNotFound):
		return apierrors.ErrNotFound(err.Error())

	default:
		return apierrors.ErrInternalServer(err.Error())
	}
}
