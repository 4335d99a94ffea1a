package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

type transitionRequest struct {
	To                     string     `json:"to"`
	Reason                 string     `json:"reason,omitempty"`
	UpdatedBy              *uuid.UUID `json:"updatedBy,omitempty"`
	Lat                    *float64   `json:"lat,omitempty"`
	Long                   *float64   `json:"long,omitempty"`
	HoursAllowedInProgress *int       `json:"hoursAllowedInProgress,omitempty"`
	HoursAllowedRedeemed   *int       `json:"hoursAllowedRedeemed,omitempty"`
	ExpectedFrom           *string    `json:"expectedFrom,omitempty"`
}

type completionMediaRequest struct {
	MediaRefs []string `json:"mediaRefs"`
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	key, err := parseRequestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	req, err := s.requests.Get(r.Context(), key)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if req == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", dealrequest.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	key, err := parseRequestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	q := dealrequest.LogQuery{DealID: key.DealID, PublisherAccountID: key.PublisherAccountID}
	if v := r.URL.Query().Get("toStatus"); v != "" {
		st := dealrequest.Status(strings.ToUpper(v))
		if !st.Valid() {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid toStatus")
			return
		}
		q.ToStatus = &st
	}
	rows, err := s.requests.ListLog(r.Context(), q)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*dealrequest.StatusChangeLogRow{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"history": rows})
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request) {
	key, err := parseRequestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	to := dealrequest.Status(strings.ToUpper(req.To))
	if !to.Valid() || to == dealrequest.StatusUnknown {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid target status")
		return
	}
	actor, ok := actorFor(r, req.UpdatedBy)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "updatedBy or "+operatorHeader+" required")
		return
	}

	cmd := dealrequest.TransitionCommand{
		Key:                    key,
		To:                     to,
		Reason:                 req.Reason,
		UpdatedBy:              actor,
		Lat:                    req.Lat,
		Long:                   req.Long,
		HoursAllowedInProgress: req.HoursAllowedInProgress,
		HoursAllowedRedeemed:   req.HoursAllowedRedeemed,
	}
	if req.ExpectedFrom != nil {
		st := dealrequest.Status(strings.ToUpper(*req.ExpectedFrom))
		if !st.Valid() {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid expectedFrom")
			return
		}
		cmd.ExpectedFrom = &st
	}

	out, err := s.engine.RequestTransition(r.Context(), cmd)
	if err != nil && !out.Committed() {
		s.respondServiceError(w, r, err)
		return
	}
	if err != nil {
		// The first write landed; a follow-up did not.
		s.logger.Warn().Err(err).Str("composite_id", key.CompositeID()).Msg("transition follow-up failed")
	}
	respondOutcome(w, out)
}

func (s *Server) deleteRequest(w http.ResponseWriter, r *http.Request) {
	key, err := parseRequestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	var updatedBy *uuid.UUID
	if v := r.URL.Query().Get("updatedBy"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid updatedBy")
			return
		}
		updatedBy = &id
	}
	actor, ok := actorFor(r, updatedBy)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "updatedBy or "+operatorHeader+" required")
		return
	}
	out, err := s.engine.DeleteRequest(r.Context(), key, actor)
	if err != nil && !out.Committed() {
		s.respondServiceError(w, r, err)
		return
	}
	respondOutcome(w, out)
}

func (s *Server) uncancel(w http.ResponseWriter, r *http.Request) {
	key, err := parseRequestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	operator, ok := operatorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", operatorHeader+" required")
		return
	}
	msg, err := s.engine.Uncancel(r.Context(), key, operator)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"message": msg})
}

func (s *Server) checkAllowance(w http.ResponseWriter, r *http.Request) {
	key, err := parseRequestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	out, err := s.watchdog.CheckAllowance(r.Context(), key)
	if err != nil && !out.Committed() {
		s.respondServiceError(w, r, err)
		return
	}
	respondOutcome(w, out)
}

func (s *Server) recordCompletionMedia(w http.ResponseWriter, r *http.Request) {
	key, err := parseRequestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	var req completionMediaRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if len(req.MediaRefs) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "mediaRefs required")
		return
	}
	updated, err := s.completion.RecordCompletionMedia(r.Context(), key, req.MediaRefs)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// respondOutcome writes a transition outcome. A refused conditional write
// is reported as 409 so callers can re-read and retry.
func respondOutcome(w http.ResponseWriter, out dealrequest.Outcome) {
	if out.Kind == dealrequest.OutcomeConflict {
		respondJSON(w, http.StatusConflict, out)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// actorFor prefers an explicit actor and falls back to the operator header.
func actorFor(r *http.Request, explicit *uuid.UUID) (uuid.UUID, bool) {
	if explicit != nil && *explicit != uuid.Nil {
		return *explicit, true
	}
	return operatorFromContext(r.Context())
}
