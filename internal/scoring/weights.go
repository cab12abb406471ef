package scoring

import (
	"errors"
	"math"
)

// ErrInvalidWeights is returned when a weight vector sums to zero and
// therefore cannot be normalized. The normalizer never substitutes defaults
// on its own; that is the caller's decision.
var ErrInvalidWeights = errors.New("all weights are zero, cannot normalize")

// normalizeTolerance is how close to 1.0 a sum has to be for the input to be
// returned unchanged, avoiding float churn on already-valid vectors.
const normalizeTolerance = 1e-3

// Weights are the four top-level optimization weights. A valid vector is
// non-negative and sums to 1.0 after normalization.
type Weights struct {
	Price        float64 `json:"price"`
	Quality      float64 `json:"quality"`
	Distance     float64 `json:"distance"`
	Availability float64 `json:"availability"`
}

// DefaultWeights returns the canonical default weight vector. This is the
// single source of truth for defaults; callers must not re-default locally.
func DefaultWeights() Weights {
	return Weights{Price: 0.4, Quality: 0.3, Distance: 0.2, Availability: 0.1}
}

// Sum returns the total of the four weights.
func (w Weights) Sum() float64 {
	return w.Price + w.Quality + w.Distance + w.Availability
}

// Normalize returns a copy of w rescaled to sum to 1.0. Inputs already
// within tolerance of 1.0 are returned unchanged, so the operation is
// idempotent. A zero vector yields ErrInvalidWeights.
func (w Weights) Normalize() (Weights, error) {
	sum := w.Sum()
	if sum == 0 {
		return Weights{}, ErrInvalidWeights
	}
	if math.Abs(sum-1.0) <= normalizeTolerance {
		return w, nil
	}
	return Weights{
		Price:        w.Price / sum,
		Quality:      w.Quality / sum,
		Distance:     w.Distance / sum,
		Availability: w.Availability / sum,
	}, nil
}

// QualityWeights weight the three quality components. They form their own
// normalization group, independent of the top-level weights.
type QualityWeights struct {
	NutriScore float64 `json:"nutriScore"`
	NovaGroup  float64 `json:"novaGroup"`
	EcoScore   float64 `json:"ecoScore"`
}

// DefaultQualityWeights returns equal thirds.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{NutriScore: 1.0 / 3, NovaGroup: 1.0 / 3, EcoScore: 1.0 / 3}
}

// Sum returns the total of the three quality weights.
func (q QualityWeights) Sum() float64 {
	return q.NutriScore + q.NovaGroup + q.EcoScore
}

// Normalize returns a copy of q rescaled to sum to 1.0, with the same
// tolerance and zero-vector behavior as Weights.Normalize.
func (q QualityWeights) Normalize() (QualityWeights, error) {
	sum := q.Sum()
	if sum == 0 {
		return QualityWeights{}, ErrInvalidWeights
	}
	if math.Abs(sum-1.0) <= normalizeTolerance {
		return q, nil
	}
	return QualityWeights{
		NutriScore: q.NutriScore / sum,
		NovaGroup:  q.NovaGroup / sum,
		EcoScore:   q.EcoScore / sum,
	}, nil
}

// DefaultPreferences returns the preferences a user gets on first use.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:         userID,
		Weights:        DefaultWeights(),
		QualityWeights: DefaultQualityWeights(),
	}
}
