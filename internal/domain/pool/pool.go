// Package pool derives the final accepted/rejected partition of an
// album from the per-cluster keep counts. The engine only guarantees
// keep_count is well-formed; this derivation is what downstream
// consumers run once a session is done.
package pool

import (
	"sort"

	"github.com/okian/keepsake/internal/domain/model"
)

// ClusterPool is the partition for one cluster.
type ClusterPool struct {
	ClusterID int      `json:"cluster_id"`
	KeepCount int      `json:"keep_count"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected"`
}

// Result is the full album partition.
type Result struct {
	AlbumID       string        `json:"albumId"`
	TotalAccepted int           `json:"total_accepted"`
	TotalRejected int           `json:"total_rejected"`
	Clusters      []ClusterPool `json:"clusters"`
}

// Derive partitions the session's images: within each cluster, images
// sorted by rank_in_cluster ascending, the first keep_count accepted
// and the remainder rejected. Images referencing clusters outside the
// session are ignored. Stable for a given session snapshot.
func Derive(s *model.Session) Result {
	if s == nil {
		return Result{}
	}
	res := Result{AlbumID: s.AlbumID}

	byCluster := make(map[int][]model.Image, len(s.Clusters))
	for _, img := range s.Images {
		byCluster[img.ClusterID] = append(byCluster[img.ClusterID], img)
	}

	res.Clusters = make([]ClusterPool, 0, len(s.Clusters))
	for i := range s.Clusters {
		c := &s.Clusters[i]
		imgs := byCluster[c.ClusterID]
		sort.Slice(imgs, func(a, b int) bool {
			if imgs[a].RankInCluster != imgs[b].RankInCluster {
				return imgs[a].RankInCluster < imgs[b].RankInCluster
			}
			return imgs[a].Path < imgs[b].Path
		})

		keep := c.KeepCount
		if keep > len(imgs) {
			keep = len(imgs)
		}
		cp := ClusterPool{
			ClusterID: c.ClusterID,
			KeepCount: c.KeepCount,
			Accepted:  make([]string, 0, keep),
			Rejected:  make([]string, 0, len(imgs)-keep),
		}
		for idx, img := range imgs {
			if idx < keep {
				cp.Accepted = append(cp.Accepted, img.Path)
			} else {
				cp.Rejected = append(cp.Rejected, img.Path)
			}
		}
		res.TotalAccepted += len(cp.Accepted)
		res.TotalRejected += len(cp.Rejected)
		res.Clusters = append(res.Clusters, cp)
	}
	return res
}
