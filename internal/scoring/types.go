package scoring

import (
	"time"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// StockStatus describes what is known about an item's stock at a store.
type StockStatus string

const (
	StockUnknown StockStatus = "unknown"
	StockIn      StockStatus = "in_stock"
	StockLow     StockStatus = "low"
	StockOut     StockStatus = "out_of_stock"
)

// Grade is a letter grade (A best .. E worst) used for nutrition and eco scores.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// RiskLevel classifies an additive's health risk.
type RiskLevel string

const (
	RiskLow       RiskLevel = "low"
	RiskModerate  RiskLevel = "moderate"
	RiskHigh      RiskLevel = "high_risk"
	RiskDangerous RiskLevel = "dangerous"
)

// Store represents a store as seen by the scoring engine. Latitude and
// longitude are populated lazily by the geocoding enricher and must be
// either both present or both absent.
type Store struct {
	ID        string
	Name      string
	Location  string // free-text address, used as the geocoding query
	Latitude  *float64
	Longitude *float64
}

// Coordinate returns the store's coordinates and true when both components
// are present. A store with exactly one component set is treated as having
// no usable coordinates; callers detect that case via HasPartialCoordinates.
func (s Store) Coordinate() (Coordinate, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *s.Latitude, Longitude: *s.Longitude}, true
}

// HasPartialCoordinates reports whether exactly one of latitude/longitude is
// set. That state is corrupt data and is logged and excluded from distance
// scoring rather than crashing a selection run.
func (s Store) HasPartialCoordinates() bool {
	return (s.Latitude == nil) != (s.Longitude == nil)
}

// PriceObservation is one harvested (store, price) data point for a product.
// Observations are append-only: a new price is a new observation.
type PriceObservation struct {
	ID         string
	ProductID  string
	StoreID    string
	Amount     int64 // minor currency units (cents)
	Currency   string
	Unit       string
	BrandID    string // denormalized from the catalog join, "" when unknown
	Stock      StockStatus
	RecordedAt time.Time
}

// Additive is a classified food additive on a quality profile. The JSON
// tags match the quality provider's payload shape.
type Additive struct {
	Code      string    `json:"code"`
	RiskLevel RiskLevel `json:"riskLevel"`
}

// QualityProfile holds the pre-classified quality inputs for a product.
// OverallScore, when supplied by the quality provider, takes precedence over
// deriving the score from the individual grades.
type QualityProfile struct {
	ProductID    string
	NutriGrade   *Grade
	EcoGrade     *Grade
	NovaGroup    *int // 1 (unprocessed) .. 4 (ultra-processed)
	Additives    []Additive
	Allergens    []string
	OverallScore *float64 // 0..100
}

// Preferences holds a user's optimization weights and filters. Weights are
// normalized on every read (see Weights.Normalize), never mutated at rest.
type Preferences struct {
	UserID            string
	Weights           Weights
	QualityWeights    QualityWeights
	MaxDistanceKm     *float64 // hard filter when set
	ExcludedStoreIDs  []string // hard filter
	FavoriteStoreIDs  []string // soft preference
	PreferredBrandIDs []string // soft preference
	OnlyInStock       bool
	UserLocation      *Coordinate
}

// PreferencesPatch is a partial preference update: nil fields keep their
// stored value. Clearing an optional field is explicit so "not supplied"
// and "remove" stay distinguishable.
type PreferencesPatch struct {
	PriceWeight        *float64
	QualityWeight      *float64
	DistanceWeight     *float64
	AvailabilityWeight *float64

	NutriScoreWeight *float64
	NovaGroupWeight  *float64
	EcoScoreWeight   *float64

	MaxDistanceKm    *float64
	ClearMaxDistance bool

	ExcludedStoreIDs  []string // nil keeps, empty clears
	FavoriteStoreIDs  []string
	PreferredBrandIDs []string

	OnlyInStock *bool

	UserLocation      *Coordinate
	ClearUserLocation bool
}

// Apply merges the patch into prefs and returns the result.
func (p PreferencesPatch) Apply(prefs Preferences) Preferences {
	if p.PriceWeight != nil {
		prefs.Weights.Price = *p.PriceWeight
	}
	if p.QualityWeight != nil {
		prefs.Weights.Quality = *p.QualityWeight
	}
	if p.DistanceWeight != nil {
		prefs.Weights.Distance = *p.DistanceWeight
	}
	if p.AvailabilityWeight != nil {
		prefs.Weights.Availability = *p.AvailabilityWeight
	}
	if p.NutriScoreWeight != nil {
		prefs.QualityWeights.NutriScore = *p.NutriScoreWeight
	}
	if p.NovaGroupWeight != nil {
		prefs.QualityWeights.NovaGroup = *p.NovaGroupWeight
	}
	if p.EcoScoreWeight != nil {
		prefs.QualityWeights.EcoScore = *p.EcoScoreWeight
	}
	if p.ClearMaxDistance {
		prefs.MaxDistanceKm = nil
	} else if p.MaxDistanceKm != nil {
		prefs.MaxDistanceKm = p.MaxDistanceKm
	}
	if p.ExcludedStoreIDs != nil {
		prefs.ExcludedStoreIDs = p.ExcludedStoreIDs
	}
	if p.FavoriteStoreIDs != nil {
		prefs.FavoriteStoreIDs = p.FavoriteStoreIDs
	}
	if p.PreferredBrandIDs != nil {
		prefs.PreferredBrandIDs = p.PreferredBrandIDs
	}
	if p.OnlyInStock != nil {
		prefs.OnlyInStock = *p.OnlyInStock
	}
	if p.ClearUserLocation {
		prefs.UserLocation = nil
	} else if p.UserLocation != nil {
		prefs.UserLocation = p.UserLocation
	}
	return prefs
}

// ListItem is one entry of a shopping list submitted for optimization.
type ListItem struct {
	ItemID    string
	ProductID string
	Name      string
	Quantity  int
}

// Candidate pairs a price observation with its store and the product's
// quality profile (nil when the quality provider has no data).
type Candidate struct {
	Observation PriceObservation
	Store       Store
	Quality     *QualityProfile
}

// ScoredAlternative is the per-candidate scoring breakdown. Derived per
// selection run, never persisted.
type ScoredAlternative struct {
	StoreID              string
	StoreName            string
	PriceObservationID   string
	Amount               int64
	Currency             string
	PriceSubScore        float64
	QualitySubScore      float64
	DistanceSubScore     float64
	AvailabilitySubScore float64
	CompositeScore       float64
}

// SelectionResult is the outcome for one list item. NoCandidate is a normal
// result variant (rendered as "no price available"), not an error.
type SelectionResult struct {
	ItemID      string
	NoCandidate bool
	Chosen      *ScoredAlternative
	Ranked      []ScoredAlternative // all candidates, best first
}

// Config contains the tunable scoring constants. The formula shapes are
// fixed; the magnitudes here are policy and come from configuration.
type Config struct {
	// Soft-preference bonuses, applied before clamping to 100.
	FavoriteStoreDistanceBonus     float64
	FavoriteStoreAvailabilityBonus float64
	PreferredBrandBonus            float64

	// Availability baseline when stock is known to be low.
	LowStockBaseline float64

	// Points subtracted per high-risk or dangerous additive.
	AdditivePenalty float64

	// Distance used to scale the distance sub-score when the user has not
	// set a max distance. Not a filter, only a scaling reference.
	ReferenceDistanceKm float64

	// Composite scores closer than this are considered tied.
	ScoreEpsilon float64

	// Fan-out width for list-wide optimization runs.
	MaxConcurrentItems int
}

// DefaultConfig returns the default scoring configuration.
func DefaultConfig() *Config {
	return &Config{
		FavoriteStoreDistanceBonus:     10,
		FavoriteStoreAvailabilityBonus: 10,
		PreferredBrandBonus:            10,
		LowStockBaseline:               60,
		AdditivePenalty:                15,
		ReferenceDistanceKm:            25,
		ScoreEpsilon:                   1e-6,
		MaxConcurrentItems:             8,
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
