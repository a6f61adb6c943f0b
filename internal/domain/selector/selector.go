// Package selector picks the next cluster contest for a session. The
// policy is a pure function of session state: replaying the same match
// log against the same initial state reproduces the same sequence of
// pairs, which keeps curation sessions reproducible.
package selector

import (
	"math"
	"sort"

	"github.com/okian/keepsake/internal/domain/model"
)

// Default selection constants.
const (
	// DefaultTopPoolSize bounds the refinement candidate pool.
	DefaultTopPoolSize = 8

	// DefaultExplorationBonus rewards under-sampled pairs in the
	// refinement score.
	DefaultExplorationBonus = 15.0

	// underSampledGames marks clusters that still qualify as candidates
	// regardless of rating.
	underSampledGames = 2

	// scoreEpsilon is the tolerance below which two pair scores count as
	// tied and the deterministic id tie-break applies.
	scoreEpsilon = 1e-9
)

// Phase reason strings reported with each matchup.
const (
	ReasonWarmup     = "warm-up coverage"
	ReasonRefinement = "refinement (uncertainty sampling)"
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithTopPoolSize sets the maximum refinement pool size.
func WithTopPoolSize(n int) Option {
	return func(s *Selector) {
		if n > 1 {
			s.topPoolSize = n
		}
	}
}

// WithExplorationBonus sets the under-sampling bonus weight.
func WithExplorationBonus(b float64) Option {
	return func(s *Selector) {
		if b >= 0 {
			s.explorationBonus = b
		}
	}
}

// Selector implements the two-phase contest selection policy.
type Selector struct {
	topPoolSize      int
	explorationBonus float64
}

// New creates a Selector with configuration options.
func New(opts ...Option) *Selector {
	s := &Selector{
		topPoolSize:      DefaultTopPoolSize,
		explorationBonus: DefaultExplorationBonus,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Next returns the next contest pair for the session, or false when the
// session is done or fewer than two clusters exist.
func (s *Selector) Next(sess *model.Session) (model.Matchup, bool) {
	if sess == nil || sess.Done || len(sess.Clusters) < 2 {
		return model.Matchup{}, false
	}

	if sess.TotalMatches < sess.MaxWarmupMatches && sess.Unseen() {
		return s.warmup(sess), true
	}
	return s.refine(sess), true
}

// warmup guarantees every cluster is seen at least once: the lowest-id
// unseen cluster faces the strongest available baseline. The pair is
// deliberately not order-normalized so the cold-start cluster always
// occupies the left slot.
func (s *Selector) warmup(sess *model.Session) model.Matchup {
	focus := -1
	for i := range sess.Clusters {
		c := &sess.Clusters[i]
		if c.Games != 0 {
			continue
		}
		if focus < 0 || c.ClusterID < focus {
			focus = c.ClusterID
		}
	}

	// Baseline: highest-rated cluster that has already played; before
	// anyone has played, fall back to the largest cluster.
	baseline := -1
	var bestElo float64
	for i := range sess.Clusters {
		c := &sess.Clusters[i]
		if c.ClusterID == focus || c.Games == 0 {
			continue
		}
		if baseline < 0 || c.Elo > bestElo || (c.Elo == bestElo && c.ClusterID < baseline) {
			baseline = c.ClusterID
			bestElo = c.Elo
		}
	}
	if baseline < 0 {
		bestSize := -1
		for i := range sess.Clusters {
			c := &sess.Clusters[i]
			if c.ClusterID == focus {
				continue
			}
			if c.Size > bestSize || (c.Size == bestSize && c.ClusterID < baseline) {
				baseline = c.ClusterID
				bestSize = c.Size
			}
		}
	}

	return model.Matchup{
		LeftClusterID:  focus,
		RightClusterID: baseline,
		Reason:         ReasonWarmup,
	}
}

// refine scores every unordered candidate pair, favoring close ratings
// and under-sampled pairs, and returns the order-normalized maximum.
func (s *Selector) refine(sess *model.Session) model.Matchup {
	pool := topPool(sess.Clusters, s.topPoolSize)

	candidates := make([]*model.Cluster, 0, len(sess.Clusters))
	for i := range sess.Clusters {
		c := &sess.Clusters[i]
		if pool[c.ClusterID] || c.Games < underSampledGames {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) < 2 {
		candidates = candidates[:0]
		for i := range sess.Clusters {
			candidates = append(candidates, &sess.Clusters[i])
		}
	}

	// Visit pairs in ascending (minID, maxID) order so that among tied
	// scores the first seen is the lexicographically smallest pair.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ClusterID < candidates[j].ClusterID
	})

	bestLeft, bestRight := -1, -1
	bestScore := math.Inf(-1)
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			score := -math.Abs(a.Elo-b.Elo) + s.explorationBonus/float64(1+a.Games+b.Games)
			if score > bestScore+scoreEpsilon {
				bestScore = score
				bestLeft, bestRight = a.ClusterID, b.ClusterID
			}
		}
	}

	return model.Matchup{
		LeftClusterID:  bestLeft,
		RightClusterID: bestRight,
		Reason:         ReasonRefinement,
	}
}

// topPool returns the ids of the top-n clusters by (elo desc, id asc).
func topPool(clusters []model.Cluster, n int) map[int]bool {
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

	if n > len(order) {
		n = len(order)
	}
	pool := make(map[int]bool, n)
	for _, idx := range order[:n] {
		pool[clusters[idx].ClusterID] = true
	}
	return pool
}
