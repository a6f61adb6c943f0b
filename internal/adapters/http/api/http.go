// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/keepsake/internal/domain/model"
	"github.com/okian/keepsake/internal/domain/pool"
	"github.com/okian/keepsake/internal/domain/session"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// CreateSession starts a curation session for an album.
	CreateSession(ctx context.Context, albumID string, seeds []session.ClusterSeed, images []model.Image) (*model.Session, error)

	// Session returns the current state for an album.
	Session(ctx context.Context, albumID string) (*model.Session, error)

	// NextMatch returns the next matchup to present, or nil when the
	// session is finished.
	NextMatch(ctx context.Context, albumID string) (*model.Matchup, *model.Session, error)

	// SubmitChoice applies a contest outcome. The bool reports whether the
	// choice was a duplicate replay.
	SubmitChoice(ctx context.Context, albumID string, leftID, rightID, winnerID int, choiceID string) (*model.Session, bool, error)

	// FinalPool derives the accepted and rejected image sets.
	FinalPool(ctx context.Context, albumID string) (pool.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandleSessions, "sessions"))
	mux.HandleFunc("/sessions/", MetricsMiddleware(s.sessionsHandler.HandleSession, "sessions"))
}

// createSessionRequest mirrors the OpenAPI schema for POST /sessions.
type createSessionRequest struct {
	AlbumID  string                `json:"albumId"`
	Clusters []session.ClusterSeed `json:"clusters"`
	Images   []model.Image         `json:"images"`
}

func (r createSessionRequest) validate() error {
	switch {
	case strings.TrimSpace(r.AlbumID) == "":
		return errors.New("missing albumId")
	case len(r.Clusters) == 0:
		return errors.New("missing clusters")
	}
	seen := make(map[int]bool, len(r.Clusters))
	for _, c := range r.Clusters {
		if c.Size < 0 {
			return errors.New("cluster size must not be negative")
		}
		if seen[c.ClusterID] {
			return errors.New("duplicate cluster id")
		}
		seen[c.ClusterID] = true
	}
	return nil
}

// choiceRequest mirrors the OpenAPI schema for POST /sessions/{albumId}/choose.
type choiceRequest struct {
	LeftClusterID   int    `json:"left_cluster_id"`
	RightClusterID  int    `json:"right_cluster_id"`
	WinnerClusterID int    `json:"winner_cluster_id"`
	ChoiceID        string `json:"choice_id,omitempty"`
}

// choiceResponse carries the updated session state plus a duplicate marker
// for idempotent replays.
type choiceResponse struct {
	Duplicate bool           `json:"duplicate"`
	Session   *model.Session `json:"session"`
}

// nextMatchResponse is null-match when the session is finished.
type nextMatchResponse struct {
	Match      *model.Matchup `json:"match"`
	Done       bool           `json:"done"`
	StopReason string         `json:"stop_reason,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
