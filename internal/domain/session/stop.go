package session

import (
	"sort"

	"github.com/okian/keepsake/internal/domain/model"
)

// Stop reasons reported on terminal sessions.
const (
	StopBudgetExhausted      = "match budget exhausted"
	StopStabilized           = "preferences stabilized"
	StopInsufficientClusters = "insufficient clusters"
)

// top3IDs returns the ids of the top-3 clusters ordered by
// (elo desc, id asc), the same ordering the selector uses.
func top3IDs(clusters []model.Cluster) []int {
	order := make([]int, len(clusters))
	for i := range clusters {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := &clusters[order[i]], &clusters[order[j]]
		if a.Elo != b.Elo {
			return a.Elo > b.Elo
		}
		return a.ClusterID < b.ClusterID
	})

	n := 3
	if n > len(order) {
		n = len(order)
	}
	ids := make([]int, 0, n)
	for _, idx := range order[:n] {
		ids = append(ids, clusters[idx].ClusterID)
	}
	return ids
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// evaluateStop refreshes the convergence streak against the previous
// top-3 ordering and decides whether the session is done: either the
// contest budget is exhausted or the top-3 ordering has held for the
// configured number of consecutive contests.
func (e *Engine) evaluateStop(s *model.Session) {
	curr := top3IDs(s.Clusters)
	if len(curr) > 0 && equalIDs(curr, s.LastTop3) {
		s.Top3Streak++
	} else {
		s.Top3Streak = 0
	}
	s.LastTop3 = curr

	switch {
	case s.TotalMatches >= s.MaxMatches:
		s.Done = true
		s.StopReason = StopBudgetExhausted
	case s.Top3Streak >= e.streakThreshold:
		s.Done = true
		s.StopReason = StopStabilized
	default:
		s.Done = false
		s.StopReason = ""
	}
}
