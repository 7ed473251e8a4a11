package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/mrt/pkg/adapters/file"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/identity"
	"github.com/aretw0/mrt/pkg/results"
	"github.com/aretw0/mrt/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// CreateRequest opens a session.
type CreateRequest struct {
	ParticipantID string         `json:"participant_id,omitempty"`
	SessionCode   string         `json:"session_code,omitempty"`
	Overrides     map[string]any `json:"overrides,omitempty"`
}

// EventRequest reports a client-side occurrence. At is the capture time; the
// server clock is used when it is missing.
type EventRequest struct {
	Type  domain.EventType `json:"type"`
	Token uint64           `json:"token,omitempty"`
	Input string           `json:"input,omitempty"`
	At    *time.Time       `json:"at,omitempty"`
}

// StepResponse carries the actions the client must perform next.
type StepResponse struct {
	SessionID string                 `json:"session_id"`
	Phase     domain.Phase           `json:"phase"`
	Block     domain.Block           `json:"block"`
	Index     int                    `json:"index"`
	Token     uint64                 `json:"token"`
	Actions   []domain.ActionRequest `json:"actions"`
	Summary   *domain.SessionSummary `json:"summary,omitempty"`
}

func step(s *domain.SessionState, actions []domain.ActionRequest) StepResponse {
	return StepResponse{
		SessionID: s.SessionID,
		Phase:     s.Phase,
		Block:     s.Block,
		Index:     s.Index,
		Token:     s.Token,
		Actions:   actions,
		Summary:   s.Summary,
	}
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	id := identity.FromQuery(r.URL.Query())
	if id.SeedKey() == "" {
		s.fail(w, http.StatusBadRequest, "failed to build plan", ErrMissingIdentity)
		return
	}
	eng, err := s.engine(nil, r)
	if err != nil {
		s.fail(w, httpStatus(err), "engine unavailable", err)
		return
	}
	plan, err := eng.Plan(id.SeedKey())
	if err != nil {
		s.fail(w, httpStatus(err), "failed to build plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan, s.logger)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	eng, err := s.engine(req.Overrides, r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid overrides", err)
		return
	}

	id := identity.Normalize(domain.Identity{ParticipantID: req.ParticipantID, SessionCode: req.SessionCode})
	state, err := eng.NewSession(r.Context(), id)
	if err != nil {
		s.fail(w, httpStatus(err), "failed to create session", err)
		return
	}
	state.Overrides = req.Overrides

	actions, err := eng.Start(r.Context(), state)
	if err != nil {
		s.fail(w, httpStatus(err), "failed to start session", err)
		return
	}
	if err := s.sessions.Save(r.Context(), state.SessionID, state); err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to save session", err)
		return
	}
	s.agg.Publish(state.Snapshot())

	s.logger.Info("session opened", "session_id", state.SessionID, "seed_key", state.Identity.SeedKey())
	writeJSON(w, http.StatusCreated, step(state, s.perform(r.Context(), actions)), s.logger)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to list sessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids, s.logger)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, httpStatus(err), "failed to load session", err)
		return
	}
	writeJSON(w, http.StatusOK, state, s.logger)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, httpStatus(err), "failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	input, err := runner.SanitizeInput(req.Input)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid input", err)
		return
	}
	ev := domain.Event{Type: req.Type, Token: req.Token, Input: input, At: s.clock()}
	if req.At != nil {
		ev.At = *req.At
	}

	var actions []domain.ActionRequest
	state, err := s.sessions.Update(r.Context(), chi.URLParam(r, "id"), func(st *domain.SessionState) error {
		eng, err := s.engine(st.Overrides, r)
		if err != nil {
			return err
		}
		actions, err = eng.Dispatch(r.Context(), st, ev)
		return err
	})
	if err != nil {
		s.fail(w, httpStatus(err), "event rejected", err)
		return
	}
	s.agg.Publish(state.Snapshot())

	writeJSON(w, http.StatusOK, step(state, s.perform(r.Context(), actions)), s.logger)
}

func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, httpStatus(err), "failed to load session", err)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
	case "", "jsonl":
		format = "jsonl"
		w.Header().Set("Content-Type", "application/x-ndjson")
	default:
		s.fail(w, http.StatusBadRequest, "unsupported format", fmt.Errorf("%q", format))
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.ExportName(state, format)))

	if format == "csv" {
		err = results.WriteCSV(w, state.Records)
	} else {
		err = results.WriteJSONL(w, state.Records)
	}
	if err != nil {
		s.logger.Error("results export failed", "session_id", state.SessionID, "err", err)
	}
}
