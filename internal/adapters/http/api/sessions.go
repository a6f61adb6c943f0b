// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/keepsake/internal/adapters/repository"
	"github.com/okian/keepsake/internal/domain/session"
)

// SessionsHandler handles session lifecycle requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleSessions handles POST /sessions requests.
func (h *SessionsHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	sess, err := h.deps.CreateSession(r.Context(), req.AlbumID, req.Clusters, req.Images)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "already_exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// HandleSession routes GET /sessions/{albumId} and its subresources:
// POST {albumId}/choose, GET {albumId}/next-match, GET {albumId}/pool.
func (h *SessionsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	albumID, sub, _ := strings.Cut(path, "/")
	if albumID == "" || strings.Contains(sub, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch sub {
	case "":
		h.handleGetState(w, r, albumID)
	case "choose":
		h.handleChoose(w, r, albumID)
	case "next-match":
		h.handleNextMatch(w, r, albumID)
	case "pool":
		h.handlePool(w, r, albumID)
	default:
		http.NotFound(w, r)
	}
}

// handleGetState handles GET /sessions/{albumId} requests.
func (h *SessionsHandler) handleGetState(w http.ResponseWriter, r *http.Request, albumID string) {
	const op = "api.get_session"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sess, err := h.deps.Session(r.Context(), albumID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleChoose handles POST /sessions/{albumId}/choose requests.
func (h *SessionsHandler) handleChoose(w http.ResponseWriter, r *http.Request, albumID string) {
	const op = "api.choose"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req choiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	sess, duplicate, err := h.deps.SubmitChoice(r.Context(), albumID,
		req.LeftClusterID, req.RightClusterID, req.WinnerClusterID, req.ChoiceID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, session.ErrInvalidContest):
			writeError(w, http.StatusBadRequest, "invalid_contest", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, choiceResponse{Duplicate: duplicate, Session: sess})
}

// handleNextMatch handles GET /sessions/{albumId}/next-match requests.
func (h *SessionsHandler) handleNextMatch(w http.ResponseWriter, r *http.Request, albumID string) {
	const op = "api.next_match"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	match, sess, err := h.deps.NextMatch(r.Context(), albumID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, nextMatchResponse{
		Match:      match,
		Done:       sess.Done,
		StopReason: sess.StopReason,
	})
}

// handlePool handles GET /sessions/{albumId}/pool requests.
func (h *SessionsHandler) handlePool(w http.ResponseWriter, r *http.Request, albumID string) {
	const op = "api.pool"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	result, err := h.deps.FinalPool(r.Context(), albumID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
