package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/infrastructure/sse"
)

type Transitioner interface {
	RequestTransition(ctx context.Context, cmd dealrequest.TransitionCommand) (dealrequest.Outcome, error)
	DeleteRequest(ctx context.Context, key dealrequest.Key, updatedBy uuid.UUID) (dealrequest.Outcome, error)
	Uncancel(ctx context.Context, key dealrequest.Key, operator uuid.UUID) (string, error)
}

type AllowanceChecker interface {
	CheckAllowance(ctx context.Context, key dealrequest.Key) (dealrequest.Outcome, error)
}

type CompletionRecorder interface {
	RecordCompletionMedia(ctx context.Context, key dealrequest.Key, mediaRefs []string) (*dealrequest.DealRequest, error)
}

type RequestReader interface {
	Get(ctx context.Context, key dealrequest.Key) (*dealrequest.DealRequest, error)
	ListLog(ctx context.Context, q dealrequest.LogQuery) ([]*dealrequest.StatusChangeLogRow, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine         Transitioner
	watchdog       AllowanceChecker
	completion     CompletionRecorder
	requests       RequestReader
	hub            *sse.Hub
	adminTokenHash []byte
	logger         zerolog.Logger
}

func NewServer(
	engine Transitioner,
	watchdog AllowanceChecker,
	completion CompletionRecorder,
	requests RequestReader,
	hub *sse.Hub,
	adminTokenHash string,
	logger zerolog.Logger,
) *Server {
	return &Server{
		engine:         engine,
		watchdog:       watchdog,
		completion:     completion,
		requests:       requests,
		hub:            hub,
		adminTokenHash: []byte(adminTokenHash),
		logger:         logger.With().Str("service", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireAdmin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Route("/deals/{dealId}/requests/{publisherAccountId}", func(r chi.Router) {
				r.Get("/", s.getRequest)
				r.Delete("/", s.deleteRequest)
				r.Get("/history", s.listHistory)
				r.Post("/transitions", s.transition)
				r.Post("/uncancel", s.uncancel)
				r.Post("/allowance-check", s.checkAllowance)
				r.Put("/completion-media", s.recordCompletionMedia)
			})
		})

		r.Get("/accounts/{accountId}/stream", s.streamEndpoint)
	})
	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps domain errors onto HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dealrequest.ErrNotFound), errors.Is(err, dealrequest.ErrDealNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, dealrequest.ErrInvalidTransition):
		respondError(w, http.StatusUnprocessableEntity, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, dealrequest.ErrConflict):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, dealrequest.ErrUnknownMedia):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	default:
		s.logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func parseRequestKey(r *http.Request) (dealrequest.Key, error) {
	dealID, err := parseUUIDParam(r, "dealId")
	if err != nil {
		return dealrequest.Key{}, errors.New("invalid dealId")
	}
	accountID, err := parseUUIDParam(r, "publisherAccountId")
	if err != nil {
		return dealrequest.Key{}, errors.New("invalid publisherAccountId")
	}
	return dealrequest.Key{DealID: dealID, PublisherAccountID: accountID}, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
