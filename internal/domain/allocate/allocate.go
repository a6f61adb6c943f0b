// Package allocate converts cluster ratings into normalized preference
// weights and per-cluster keep counts. The conversion is pure and
// idempotent: recomputing on unchanged ratings yields identical output.
package allocate

import (
	"math"

	"github.com/okian/keepsake/internal/domain/model"
)

// DefaultTemperature flattens or sharpens the softmax over ratings.
// Larger values spread the keep budget more evenly; smaller values
// concentrate it on the top-rated clusters.
const DefaultTemperature = 200.0

// WeightFunc maps a cluster and its rating distance from the mean to an
// unnormalized preference weight.
type WeightFunc func(c *model.Cluster, meanElo, temperature float64) float64

// SoftmaxWeight is the default preference-only weight.
func SoftmaxWeight(c *model.Cluster, meanElo, temperature float64) float64 {
	return math.Exp((c.Elo - meanElo) / temperature)
}

// SizePriorWeight multiplies the softmax weight by sqrt(size). Disabled
// by default: a large cluster the user disfavors should not receive a
// de-facto quota merely for being large. Kept selectable so the earlier
// tuning can be restored through configuration.
func SizePriorWeight(c *model.Cluster, meanElo, temperature float64) float64 {
	size := c.Size
	if size < 1 {
		size = 1
	}
	return SoftmaxWeight(c, meanElo, temperature) * math.Sqrt(float64(size))
}

// Option applies a configuration option to the Allocator.
type Option func(*Allocator)

// WithTemperature sets the softmax temperature.
func WithTemperature(t float64) Option {
	return func(a *Allocator) {
		if t > 0 {
			a.temperature = t
		}
	}
}

// WithWeightFunc replaces the weight strategy.
func WithWeightFunc(fn WeightFunc) Option {
	return func(a *Allocator) {
		if fn != nil {
			a.weight = fn
		}
	}
}

// Allocator computes ratios and keep counts in place.
type Allocator struct {
	temperature float64
	weight      WeightFunc
}

// New creates an Allocator with configuration options.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		temperature: DefaultTemperature,
		weight:      SoftmaxWeight,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Temperature returns the configured softmax temperature.
func (a *Allocator) Temperature() float64 { return a.temperature }

// Recompute refreshes ratio and keep_count for every cluster. Identical
// ratings degenerate into a uniform allocation, which is the intended
// outcome, not an error.
func (a *Allocator) Recompute(clusters []model.Cluster) {
	if len(clusters) == 0 {
		return
	}

	var sum float64
	for i := range clusters {
		sum += clusters[i].Elo
	}
	mean := sum / float64(len(clusters))

	weights := make([]float64, len(clusters))
	var total float64
	for i := range clusters {
		w := a.weight(&clusters[i], mean, a.temperature)
		if !isFinite(w) || w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if !isFinite(total) || total <= 0 {
		// Degenerate weights collapse to uniform.
		for i := range weights {
			weights[i] = 1
		}
		total = float64(len(weights))
	}

	for i := range clusters {
		c := &clusters[i]
		c.Ratio = weights[i] / total
		keep := int(math.Round(c.Ratio * float64(c.Size)))
		if keep < 0 {
			keep = 0
		}
		if keep > c.Size {
			keep = c.Size
		}
		c.KeepCount = keep
	}
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
