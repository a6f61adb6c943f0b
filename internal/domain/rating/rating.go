// Package rating implements the Elo update applied after each contest
// and the cold-start prior assigned to clusters before any contest has
// been recorded.
package rating

import "math"

// Default rating configuration constants.
const (
	DefaultK          = 24.0
	DefaultBaseRating = 1000.0
	DefaultSizeBoost  = 20.0

	// Prior boost bounds and the scaling of the optional upstream
	// preference score contribution.
	maxPriorBoost   = 120.0
	prefScoreScale  = 4.0
	prefBoostWeight = 20.0

	// Standard Elo expected-score divisor.
	eloDivisor = 400.0
)

// Option applies a configuration option to the Updater.
type Option func(*Updater)

// WithK sets the Elo K factor.
func WithK(k float64) Option {
	return func(u *Updater) {
		if k > 0 {
			u.k = k
		}
	}
}

// WithBaseRating sets the rating assigned before the size prior.
func WithBaseRating(base float64) Option {
	return func(u *Updater) {
		if base > 0 {
			u.base = base
		}
	}
}

// WithSizeBoost sets the weight of the ln(1+size) cold-start prior.
func WithSizeBoost(boost float64) Option {
	return func(u *Updater) {
		if boost >= 0 {
			u.sizeBoost = boost
		}
	}
}

// Updater computes Elo updates for contest outcomes.
type Updater struct {
	k         float64
	base      float64
	sizeBoost float64
}

// NewUpdater creates an Updater with configuration options.
func NewUpdater(opts ...Option) *Updater {
	u := &Updater{
		k:         DefaultK,
		base:      DefaultBaseRating,
		sizeBoost: DefaultSizeBoost,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// K returns the configured K factor.
func (u *Updater) K() float64 { return u.k }

// Expected returns the expected score of a rated player a against b.
func (u *Updater) Expected(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (b-a)/eloDivisor))
}

// Apply resolves one contest and returns the updated winner and loser
// ratings. The update is zero-sum: the winner gains exactly what the
// loser concedes.
func (u *Updater) Apply(winner, loser float64) (newWinner, newLoser float64) {
	expected := u.Expected(winner, loser)
	delta := u.k * (1.0 - expected)
	return winner + delta, loser - delta
}

// InitialRating returns the cold-start rating for a cluster of the
// given size. Larger clusters start with a mild edge that erodes as
// real contests accumulate. prefScore is the optional upstream
// content-aware preference estimate; pass 0 when absent.
func (u *Updater) InitialRating(size int, prefScore float64) float64 {
	if size < 0 {
		size = 0
	}
	boost := u.sizeBoost * math.Log1p(float64(size))
	if !math.IsInf(prefScore, 0) && !math.IsNaN(prefScore) {
		scaled := math.Max(-1, math.Min(1, prefScore*prefScoreScale))
		boost += scaled * prefBoostWeight
	}
	boost = math.Max(0, math.Min(maxPriorBoost, boost))
	return u.base + boost
}
