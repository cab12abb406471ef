package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateAt(storeID, obsID string, amount int64) Candidate {
	return Candidate{
		Observation: PriceObservation{
			ID:        obsID,
			ProductID: "p-1",
			StoreID:   storeID,
			Amount:    amount,
			Currency:  "EUR",
			Stock:     StockIn,
		},
		Store: Store{ID: storeID, Name: storeID},
	}
}

func normalizedDefaults() Preferences {
	return DefaultPreferences("u-1")
}

func TestPriceSubScoreLinearInverse(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	candidates := []Candidate{
		candidateAt("store-a", "obs-1", 100),
		candidateAt("store-b", "obs-2", 150),
		candidateAt("store-c", "obs-3", 200),
	}

	scored := scorer.ScoreAll(candidates, normalizedDefaults())
	require.Len(t, scored, 3)

	assert.Equal(t, 100.0, scored[0].PriceSubScore)
	assert.Equal(t, 50.0, scored[1].PriceSubScore)
	assert.Equal(t, 0.0, scored[2].PriceSubScore)
}

func TestPriceSubScoreEqualPrices(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	candidates := []Candidate{
		candidateAt("store-a", "obs-1", 100),
		candidateAt("store-b", "obs-2", 100),
	}

	scored := scorer.ScoreAll(candidates, normalizedDefaults())

	// A flat price range gives everyone full marks, including a set of one.
	assert.Equal(t, 100.0, scored[0].PriceSubScore)
	assert.Equal(t, 100.0, scored[1].PriceSubScore)

	single := scorer.ScoreAll(candidates[:1], normalizedDefaults())
	assert.Equal(t, 100.0, single[0].PriceSubScore)
}

func TestQualitySubScoreNeutralWithoutProfile(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	candidates := []Candidate{candidateAt("store-a", "obs-1", 100)}

	scored := scorer.ScoreAll(candidates, normalizedDefaults())

	assert.Equal(t, NeutralScore, scored[0].QualitySubScore)
}

func TestDistanceSubScoreNeutralWithoutLocation(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	c := candidateAt("store-a", "obs-1", 100)
	c.Store.Latitude = floatPtr(48.86)
	c.Store.Longitude = floatPtr(2.35)

	scored := scorer.ScoreAll([]Candidate{c}, normalizedDefaults())
	assert.Equal(t, NeutralScore, scored[0].DistanceSubScore)

	// Same when the store has no coordinates but the user has a location.
	prefs := normalizedDefaults()
	prefs.UserLocation = &Coordinate{Latitude: 48.86, Longitude: 2.35}
	noCoords := candidateAt("store-b", "obs-2", 100)
	scored = scorer.ScoreAll([]Candidate{noCoords}, prefs)
	assert.Equal(t, NeutralScore, scored[0].DistanceSubScore)
}

func TestDistanceSubScoreScalesWithMaxDistance(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	prefs := normalizedDefaults()
	prefs.UserLocation = &Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	prefs.MaxDistanceKm = floatPtr(10)

	atUser := candidateAt("store-a", "obs-1", 100)
	atUser.Store.Latitude = floatPtr(48.8566)
	atUser.Store.Longitude = floatPtr(2.3522)

	scored := scorer.ScoreAll([]Candidate{atUser}, prefs)
	assert.Equal(t, 100.0, scored[0].DistanceSubScore)

	// ~5 km north of the user, half the 10 km budget: score near 50.
	halfway := candidateAt("store-b", "obs-2", 100)
	halfway.Store.Latitude = floatPtr(48.8566 + 0.045)
	halfway.Store.Longitude = floatPtr(2.3522)

	scored = scorer.ScoreAll([]Candidate{halfway}, prefs)
	assert.InDelta(t, 50.0, scored[0].DistanceSubScore, 2.0)
}

func TestDistanceSubScoreFavoriteBonusClamped(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	prefs := normalizedDefaults()
	prefs.UserLocation = &Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	prefs.FavoriteStoreIDs = []string{"store-a"}

	atUser := candidateAt("store-a", "obs-1", 100)
	atUser.Store.Latitude = floatPtr(48.8566)
	atUser.Store.Longitude = floatPtr(2.3522)

	scored := scorer.ScoreAll([]Candidate{atUser}, prefs)

	// Already at 100 before the bonus; the bonus must not push past it.
	assert.Equal(t, 100.0, scored[0].DistanceSubScore)
}

func TestAvailabilitySubScore(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	prefs := normalizedDefaults()
	prefs.FavoriteStoreIDs = []string{"store-fav"}
	prefs.PreferredBrandIDs = []string{"brand-1"}

	inStock := candidateAt("store-a", "obs-1", 100)
	lowStock := candidateAt("store-b", "obs-2", 100)
	lowStock.Observation.Stock = StockLow
	favorite := candidateAt("store-fav", "obs-3", 100)
	favorite.Observation.Stock = StockLow
	branded := candidateAt("store-c", "obs-4", 100)
	branded.Observation.BrandID = "brand-1"

	scored := scorer.ScoreAll([]Candidate{inStock, lowStock, favorite, branded}, prefs)

	assert.Equal(t, 100.0, scored[0].AvailabilitySubScore)
	assert.Equal(t, 60.0, scored[1].AvailabilitySubScore)
	// Low-stock baseline 60 plus the favorite bonus 10.
	assert.Equal(t, 70.0, scored[2].AvailabilitySubScore)
	// Brand bonus clamps at 100.
	assert.Equal(t, 100.0, scored[3].AvailabilitySubScore)
}

func TestBrandBonusRequiresKnownBrand(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	prefs := normalizedDefaults()
	prefs.PreferredBrandIDs = []string{""}

	lowStock := candidateAt("store-a", "obs-1", 100)
	lowStock.Observation.Stock = StockLow

	scored := scorer.ScoreAll([]Candidate{lowStock}, prefs)

	// An observation without a brand never matches a preferred brand, even
	// a degenerate empty one.
	assert.Equal(t, 60.0, scored[0].AvailabilitySubScore)
}

func TestCompositeIsWeightedSum(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	prefs := normalizedDefaults()

	candidates := []Candidate{
		candidateAt("store-a", "obs-1", 100),
		candidateAt("store-b", "obs-2", 200),
	}

	scored := scorer.ScoreAll(candidates, prefs)

	for _, s := range scored {
		expected := prefs.Weights.Price*s.PriceSubScore +
			prefs.Weights.Quality*s.QualitySubScore +
			prefs.Weights.Distance*s.DistanceSubScore +
			prefs.Weights.Availability*s.AvailabilitySubScore
		assert.InDelta(t, expected, s.CompositeScore, 1e-9)
		assert.GreaterOrEqual(t, s.CompositeScore, 0.0)
		assert.LessOrEqual(t, s.CompositeScore, 100.0)
	}
}

func TestScoreAllEmptyInput(t *testing.T) {
	scorer := NewAlternativeScorer(testScoringConfig())
	scored := scorer.ScoreAll(nil, normalizedDefaults())
	assert.Empty(t, scored)
}
