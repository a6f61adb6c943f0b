// Package model contains domain models passed between layers.
package model

import "time"

// Cluster holds the rating and play statistics for one visual cluster
// within a curation session. Identity fields come from the upstream
// clustering stage and never change once the session exists; the rating
// fields are owned by this engine.
type Cluster struct {
	ClusterID       int      `json:"cluster_id"`
	ClusterName     string   `json:"cluster_name"`
	Size            int      `json:"size"`
	Representatives []string `json:"representatives"`

	Elo     float64 `json:"elo"`
	Games   int     `json:"games"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`

	// Momentum is a display hint: the cluster's last three contest
	// outcomes as "W"/"L", newest last. It never feeds allocation.
	Momentum string `json:"momentum"`

	Ratio     float64 `json:"ratio"`
	KeepCount int     `json:"keep_count"`
}

// Match is one recorded contest outcome.
type Match struct {
	LeftClusterID   int       `json:"left_cluster_id"`
	RightClusterID  int       `json:"right_cluster_id"`
	WinnerClusterID int       `json:"winner_cluster_id"`
	TS              time.Time `json:"ts"`
}

// Image is a single ranked photo from the upstream stages. Read-only
// here; used only for deriving the final pool.
type Image struct {
	Path          string  `json:"path"`
	ClusterID     int     `json:"cluster_id"`
	RankInCluster int     `json:"rank_in_cluster"`
	PrefScore     float64 `json:"pref_score"`
}

// Session is the full per-album state of a curation session. It is
// mutated only by recorded contest outcomes and becomes immutable once
// Done is set.
type Session struct {
	AlbumID   string    `json:"albumId"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MaxMatches       int `json:"max_matches"`
	MaxWarmupMatches int `json:"max_warmup_matches"`
	TotalMatches     int `json:"total_matches"`

	// LastTop3 and Top3Streak track the convergence signal: the ordered
	// ids of the top-3 clusters by rating after the previous contest, and
	// how many consecutive contests that ordering has survived.
	LastTop3   []int `json:"last_top3"`
	Top3Streak int   `json:"top3_streak"`

	Done       bool   `json:"done"`
	StopReason string `json:"stop_reason,omitempty"`

	Matches  []Match   `json:"matches"`
	Clusters []Cluster `json:"clusters"`

	// Images are carried for final-pool derivation only.
	Images []Image `json:"images,omitempty"`
}

// Matchup is the next contest pair offered to the user.
type Matchup struct {
	LeftClusterID  int    `json:"left_cluster_id"`
	RightClusterID int    `json:"right_cluster_id"`
	Reason         string `json:"reason"`
}

// Cluster returns the cluster with the given id, or nil.
func (s *Session) Cluster(id int) *Cluster {
	for i := range s.Clusters {
		if s.Clusters[i].ClusterID == id {
			return &s.Clusters[i]
		}
	}
	return nil
}

// Unseen reports whether any cluster has not played a contest yet.
func (s *Session) Unseen() bool {
	for i := range s.Clusters {
		if s.Clusters[i].Games == 0 {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the session. Handlers hand clones to
// callers so readers never observe a partially applied update.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.LastTop3 = append([]int(nil), s.LastTop3...)
	out.Matches = append([]Match(nil), s.Matches...)
	out.Clusters = make([]Cluster, len(s.Clusters))
	for i := range s.Clusters {
		out.Clusters[i] = s.Clusters[i]
		out.Clusters[i].Representatives = append([]string(nil), s.Clusters[i].Representatives...)
	}
	out.Images = append([]Image(nil), s.Images...)
	return &out
}
