// Package session orchestrates the per-album contest cycle: it creates
// session state from upstream cluster lists, applies contest outcomes,
// recomputes the allocation, evaluates the stop rule and serves the
// next matchup. All operations are pure computation over the session
// value; persistence and locking live at the service boundary.
package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/keepsake/internal/domain/allocate"
	"github.com/okian/keepsake/internal/domain/model"
	"github.com/okian/keepsake/internal/domain/rating"
	"github.com/okian/keepsake/internal/domain/selector"
)

// Default session budgets.
const (
	DefaultMaxMatches       = 12
	DefaultWarmupMatches    = 6
	DefaultStreakThreshold  = 3
	representativesPerGroup = 4
)

// ClusterSeed is the upstream description of one visual cluster at
// session creation time.
type ClusterSeed struct {
	ClusterID       int      `json:"cluster_id"`
	ClusterName     string   `json:"cluster_name"`
	Size            int      `json:"size"`
	Representatives []string `json:"representatives"`
	PrefScore       float64  `json:"pref_score"`
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMaxMatches sets the hard contest budget for new sessions.
func WithMaxMatches(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxMatches = n
		}
	}
}

// WithWarmupMatches sets the warm-up sub-budget for new sessions.
func WithWarmupMatches(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.warmupMatches = n
		}
	}
}

// WithStreakThreshold sets how many consecutive contests the top-3
// ordering must survive before the session stops early.
func WithStreakThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.streakThreshold = n
		}
	}
}

// WithUpdater replaces the rating updater.
func WithUpdater(u *rating.Updater) Option {
	return func(e *Engine) {
		if u != nil {
			e.updater = u
		}
	}
}

// WithSelector replaces the match selector.
func WithSelector(s *selector.Selector) Option {
	return func(e *Engine) {
		if s != nil {
			e.selector = s
		}
	}
}

// WithAllocator replaces the ratio allocator.
func WithAllocator(a *allocate.Allocator) Option {
	return func(e *Engine) {
		if a != nil {
			e.allocator = a
		}
	}
}

// WithClock overrides the time source, used by tests for stable match
// log timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine composes the rating updater, match selector, stop evaluator
// and ratio allocator into the request/response cycle.
type Engine struct {
	updater   *rating.Updater
	selector  *selector.Selector
	allocator *allocate.Allocator

	maxMatches      int
	warmupMatches   int
	streakThreshold int

	now func() time.Time
}

// NewEngine creates an Engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		updater:         rating.NewUpdater(),
		selector:        selector.New(),
		allocator:       allocate.New(),
		maxMatches:      DefaultMaxMatches,
		warmupMatches:   DefaultWarmupMatches,
		streakThreshold: DefaultStreakThreshold,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// NewSession builds the initial session state from the upstream cluster
// and image lists. Cluster membership is immutable from here on. With
// fewer than two clusters the session is born done and no contest is
// ever offered.
func (e *Engine) NewSession(albumID string, seeds []ClusterSeed, images []model.Image) *model.Session {
	now := e.now().UTC()

	byCluster := make(map[int][]model.Image, len(seeds))
	for _, img := range images {
		byCluster[img.ClusterID] = append(byCluster[img.ClusterID], img)
	}
	for id := range byCluster {
		imgs := byCluster[id]
		sort.Slice(imgs, func(i, j int) bool {
			if imgs[i].RankInCluster != imgs[j].RankInCluster {
				return imgs[i].RankInCluster < imgs[j].RankInCluster
			}
			return imgs[i].Path < imgs[j].Path
		})
	}

	ordered := append([]ClusterSeed(nil), seeds...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ClusterID < ordered[j].ClusterID })

	clusters := make([]model.Cluster, 0, len(ordered))
	for _, seed := range ordered {
		size := seed.Size
		if size <= 0 {
			size = len(byCluster[seed.ClusterID])
		}
		name := seed.ClusterName
		if name == "" {
			name = fmt.Sprintf("Cluster %d", seed.ClusterID)
		}
		reps := append([]string(nil), seed.Representatives...)
		if len(reps) == 0 {
			for _, img := range byCluster[seed.ClusterID] {
				if img.Path == "" {
					continue
				}
				reps = append(reps, img.Path)
				if len(reps) == representativesPerGroup {
					break
				}
			}
		}
		clusters = append(clusters, model.Cluster{
			ClusterID:       seed.ClusterID,
			ClusterName:     name,
			Size:            size,
			Representatives: reps,
			Elo:             e.updater.InitialRating(size, seed.PrefScore),
		})
	}

	s := &model.Session{
		AlbumID:          albumID,
		CreatedAt:        now,
		UpdatedAt:        now,
		MaxMatches:       e.maxMatches,
		MaxWarmupMatches: e.warmupMatches,
		Matches:          []model.Match{},
		Clusters:         clusters,
		Images:           append([]model.Image(nil), images...),
	}

	e.allocator.Recompute(s.Clusters)
	s.LastTop3 = top3IDs(s.Clusters)
	s.Top3Streak = 0

	if len(clusters) < 2 {
		s.Done = true
		s.StopReason = StopInsufficientClusters
	}
	return s
}

// NextMatch returns the next contest pair, or false when the session is
// done or has fewer than two clusters.
func (e *Engine) NextMatch(s *model.Session) (model.Matchup, bool) {
	return e.selector.Next(s)
}

// SubmitChoice validates and applies one contest outcome, then
// recomputes the allocation and re-evaluates the stop rule. A choice
// submitted after the session is done is a no-op on valid input so
// duplicate or late client submissions stay harmless.
func (e *Engine) SubmitChoice(s *model.Session, leftID, rightID, winnerID int) error {
	if leftID == rightID {
		return fmt.Errorf("%w: left and right cluster must differ", ErrInvalidContest)
	}
	left := s.Cluster(leftID)
	right := s.Cluster(rightID)
	if left == nil || right == nil {
		return fmt.Errorf("%w: unknown cluster id in choice", ErrInvalidContest)
	}
	if winnerID != leftID && winnerID != rightID {
		return fmt.Errorf("%w: winner %d is not one of the presented clusters", ErrInvalidContest, winnerID)
	}

	if s.Done {
		return nil
	}

	winner, loser := left, right
	if winnerID == rightID {
		winner, loser = right, left
	}
	winner.Elo, loser.Elo = e.updater.Apply(winner.Elo, loser.Elo)

	winner.Games++
	winner.Wins++
	loser.Games++
	loser.Losses++
	winner.WinRate = winRate(winner)
	loser.WinRate = winRate(loser)

	s.Matches = append(s.Matches, model.Match{
		LeftClusterID:   leftID,
		RightClusterID:  rightID,
		WinnerClusterID: winnerID,
		TS:              e.now().UTC(),
	})
	s.TotalMatches = len(s.Matches)

	winner.Momentum = momentum(s.Matches, winner.ClusterID)
	loser.Momentum = momentum(s.Matches, loser.ClusterID)

	e.allocator.Recompute(s.Clusters)
	e.evaluateStop(s)
	s.UpdatedAt = e.now().UTC()
	return nil
}

func winRate(c *model.Cluster) float64 {
	if c.Games == 0 {
		return 0
	}
	return float64(c.Wins) / float64(c.Games)
}
