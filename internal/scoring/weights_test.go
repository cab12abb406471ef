package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRescalesToOne(t *testing.T) {
	w := Weights{Price: 2, Quality: 1, Distance: 1, Availability: 0}

	normalized, err := w.Normalize()
	require.NoError(t, err)

	assert.InDelta(t, 1.0, normalized.Sum(), 1e-9)
	assert.InDelta(t, 0.5, normalized.Price, 1e-9)
	assert.InDelta(t, 0.25, normalized.Quality, 1e-9)
	assert.InDelta(t, 0.25, normalized.Distance, 1e-9)
	assert.Equal(t, 0.0, normalized.Availability)
}

func TestNormalizePreservesProportions(t *testing.T) {
	w := Weights{Price: 8, Quality: 4, Distance: 2, Availability: 2}

	normalized, err := w.Normalize()
	require.NoError(t, err)

	// 8:4 ratio survives normalization
	assert.InDelta(t, 2.0, normalized.Price/normalized.Quality, 1e-9)
	assert.InDelta(t, 1.0, normalized.Distance/normalized.Availability, 1e-9)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	w := Weights{Price: 3, Quality: 1, Distance: 5, Availability: 1}

	once, err := w.Normalize()
	require.NoError(t, err)
	twice, err := once.Normalize()
	require.NoError(t, err)

	// An already-normalized vector comes back unchanged, bit for bit.
	assert.Equal(t, once, twice)
}

func TestNormalizeWithinToleranceReturnsInput(t *testing.T) {
	w := Weights{Price: 0.4004, Quality: 0.3, Distance: 0.2, Availability: 0.1}

	normalized, err := w.Normalize()
	require.NoError(t, err)

	assert.Equal(t, w, normalized)
}

func TestNormalizeZeroVectorFails(t *testing.T) {
	w := Weights{}

	_, err := w.Normalize()
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = QualityWeights{}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestQualityWeightsNormalize(t *testing.T) {
	q := QualityWeights{NutriScore: 1, NovaGroup: 1, EcoScore: 2}

	normalized, err := q.Normalize()
	require.NoError(t, err)

	assert.InDelta(t, 1.0, normalized.Sum(), 1e-9)
	assert.InDelta(t, 0.25, normalized.NutriScore, 1e-9)
	assert.InDelta(t, 0.5, normalized.EcoScore, 1e-9)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultWeights().Sum(), 1e-9)
	assert.InDelta(t, 1.0, DefaultQualityWeights().Sum(), 1e-9)

	prefs := DefaultPreferences("u-1")
	assert.Equal(t, "u-1", prefs.UserID)
	assert.Equal(t, DefaultWeights(), prefs.Weights)
	assert.Nil(t, prefs.MaxDistanceKm)
	assert.False(t, prefs.OnlyInStock)
}
