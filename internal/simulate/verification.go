package simulate

import (
	"context"
	"fmt"

	"github.com/okian/keepsake/pkg/logger"
)

// verifyResults checks every finished session for internal consistency.
func verifyResults(ctx context.Context, states map[string]SessionState, pools map[string]PoolResult, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results", logger.Int("sessions", len(states)))

	var problems []string
	for albumID, state := range states {
		if err := verifySession(&state); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", albumID, err))
			continue
		}
		if pool, ok := pools[albumID]; ok {
			if err := verifyPool(&state, &pool); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", albumID, err))
				continue
			}
		}
		stats.PoolsVerified++
	}

	for _, p := range problems {
		logger.Get().Error(ctx, "verification problem", logger.String("detail", p))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d of %d sessions failed verification", len(problems), len(states))
	}

	logger.Get().Info(ctx, "result verification completed", logger.Int("verified", stats.PoolsVerified))
	return nil
}

// verifySession checks the terminal state of one session.
func verifySession(state *SessionState) error {
	if !state.Done {
		return fmt.Errorf("session not done after play (matches %d/%d)", state.TotalMatches, state.MaxMatches)
	}
	switch state.StopReason {
	case "match budget exhausted", "preferences stabilized", "insufficient clusters":
	default:
		return fmt.Errorf("unexpected stop reason %q", state.StopReason)
	}
	if state.TotalMatches > state.MaxMatches {
		return fmt.Errorf("total matches %d exceed budget %d", state.TotalMatches, state.MaxMatches)
	}

	ratioSum := 0.0
	for i := range state.Clusters {
		c := &state.Clusters[i]
		if c.Games != c.Wins+c.Losses {
			return fmt.Errorf("cluster %d games %d != wins %d + losses %d", c.ClusterID, c.Games, c.Wins, c.Losses)
		}
		if c.KeepCount < 0 || c.KeepCount > c.Size {
			return fmt.Errorf("cluster %d keep count %d outside [0,%d]", c.ClusterID, c.KeepCount, c.Size)
		}
		ratioSum += c.Ratio
	}
	if len(state.Clusters) > 0 && (ratioSum < 0.99 || ratioSum > 1.01) {
		return fmt.Errorf("ratios sum to %.4f, want 1", ratioSum)
	}
	return nil
}

// verifyPool checks the derived pool against the session allocation.
func verifyPool(state *SessionState, pool *PoolResult) error {
	keepByID := make(map[int]int, len(state.Clusters))
	for _, c := range state.Clusters {
		keepByID[c.ClusterID] = c.KeepCount
	}

	accepted, rejected := 0, 0
	for _, pc := range pool.Clusters {
		if len(pc.Accepted) > keepByID[pc.ClusterID] {
			return fmt.Errorf("cluster %d accepted %d photos, keep count is %d",
				pc.ClusterID, len(pc.Accepted), keepByID[pc.ClusterID])
		}
		accepted += len(pc.Accepted)
		rejected += len(pc.Rejected)
	}
	if accepted != pool.TotalAccepted || rejected != pool.TotalRejected {
		return fmt.Errorf("pool totals %d/%d do not match per-cluster sums %d/%d",
			pool.TotalAccepted, pool.TotalRejected, accepted, rejected)
	}
	return nil
}
