package session

import "github.com/okian/keepsake/internal/domain/model"

// momentumWindow is how many recent outcomes feed the display hint.
const momentumWindow = 3

// momentum derives the cluster's recent trend from the match log: the
// last few outcomes involving the cluster as "W"/"L", newest last.
// Purely informational; allocation never reads it.
func momentum(matches []model.Match, clusterID int) string {
	recent := make([]byte, 0, momentumWindow)
	for i := len(matches) - 1; i >= 0 && len(recent) < momentumWindow; i-- {
		m := matches[i]
		if m.LeftClusterID != clusterID && m.RightClusterID != clusterID {
			continue
		}
		if m.WinnerClusterID == clusterID {
			recent = append(recent, 'W')
		} else {
			recent = append(recent, 'L')
		}
	}
	// Collected newest-first; flip to oldest-first for display.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return string(recent)
}
