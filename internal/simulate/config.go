// Package simulate drives a running keepsake service with synthetic
// albums: it creates sessions, plays contests to completion, and
// verifies the resulting allocations and photo pools.
package simulate

import "time"

// Config holds configuration for the session simulation.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumAlbums   int           // Number of albums to simulate
	MaxClusters int           // Upper bound on clusters per album
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated albums
	LogFile     string        // Log file for simulation output
	Verbose     bool          // Enable verbose logging
}

// ClusterSeed mirrors the wire shape for one cluster in POST /sessions.
type ClusterSeed struct {
	ClusterID       int      `json:"cluster_id"`
	ClusterName     string   `json:"cluster_name,omitempty"`
	Size            int      `json:"size"`
	Representatives []string `json:"representatives,omitempty"`
	PrefScore       float64  `json:"pref_score,omitempty"`
}

// Image mirrors the wire shape for one photo in POST /sessions.
type Image struct {
	Path          string  `json:"path"`
	ClusterID     int     `json:"cluster_id"`
	RankInCluster int     `json:"rank_in_cluster"`
	PrefScore     float64 `json:"pref_score"`
}

// Album is one generated curation workload.
type Album struct {
	AlbumID  string        `json:"albumId"`
	Clusters []ClusterSeed `json:"clusters"`
	Images   []Image       `json:"images"`
}

// ClusterState mirrors the cluster shape in session responses.
type ClusterState struct {
	ClusterID int     `json:"cluster_id"`
	Size      int     `json:"size"`
	Elo       float64 `json:"elo"`
	Games     int     `json:"games"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Ratio     float64 `json:"ratio"`
	KeepCount int     `json:"keep_count"`
}

// SessionState mirrors the session shape in responses.
type SessionState struct {
	AlbumID      string         `json:"albumId"`
	TotalMatches int            `json:"total_matches"`
	MaxMatches   int            `json:"max_matches"`
	Done         bool           `json:"done"`
	StopReason   string         `json:"stop_reason"`
	Clusters     []ClusterState `json:"clusters"`
}

// Matchup mirrors the next-match pair shape.
type Matchup struct {
	LeftClusterID  int    `json:"left_cluster_id"`
	RightClusterID int    `json:"right_cluster_id"`
	Reason         string `json:"reason"`
}

// NextMatchResponse mirrors GET /sessions/{albumId}/next-match.
type NextMatchResponse struct {
	Match      *Matchup `json:"match"`
	Done       bool     `json:"done"`
	StopReason string   `json:"stop_reason"`
}

// ChoiceResponse mirrors POST /sessions/{albumId}/choose.
type ChoiceResponse struct {
	Duplicate bool         `json:"duplicate"`
	Session   SessionState `json:"session"`
}

// PoolCluster mirrors one cluster in the final pool response.
type PoolCluster struct {
	ClusterID int      `json:"cluster_id"`
	KeepCount int      `json:"keep_count"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected"`
}

// PoolResult mirrors GET /sessions/{albumId}/pool.
type PoolResult struct {
	AlbumID       string        `json:"albumId"`
	TotalAccepted int           `json:"total_accepted"`
	TotalRejected int           `json:"total_rejected"`
	Clusters      []PoolCluster `json:"clusters"`
}

// Stats holds simulation statistics.
type Stats struct {
	AlbumsGenerated   int
	SessionsCreated   int
	SessionsFailed    int
	ChoicesSubmitted  int
	ChoicesDuplicate  int
	ChoicesFailed     int
	SessionsCompleted int
	PoolsVerified     int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
