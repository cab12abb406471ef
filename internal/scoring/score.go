package scoring

// AlternativeScorer computes the four sub-scores and the weighted composite
// score for the candidates of one item. Scoring is pure computation: no I/O,
// no hidden state, safe to run in parallel across items.
//
// Callers must pass preferences whose weight groups are already normalized;
// the Selector does this on every read.
type AlternativeScorer struct {
	cfg *Config
}

// NewAlternativeScorer creates a scorer with the given tunables.
func NewAlternativeScorer(cfg *Config) *AlternativeScorer {
	return &AlternativeScorer{cfg: cfg}
}

// ScoreAll scores every candidate of one item. The price sub-score is
// relative within this candidate set, so the whole set is scored in one
// pass.
func (s *AlternativeScorer) ScoreAll(candidates []Candidate, prefs Preferences) []ScoredAlternative {
	if len(candidates) == 0 {
		return []ScoredAlternative{}
	}

	minAmount, maxAmount := priceRange(candidates)

	scored := make([]ScoredAlternative, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, s.score(c, minAmount, maxAmount, prefs))
	}
	return scored
}

func (s *AlternativeScorer) score(c Candidate, minAmount, maxAmount int64, prefs Preferences) ScoredAlternative {
	price := s.priceSubScore(c.Observation.Amount, minAmount, maxAmount)
	quality := s.qualitySubScore(c, prefs)
	distance := s.distanceSubScore(c, prefs)
	availability := s.availabilitySubScore(c, prefs)

	composite := prefs.Weights.Price*price +
		prefs.Weights.Quality*quality +
		prefs.Weights.Distance*distance +
		prefs.Weights.Availability*availability

	return ScoredAlternative{
		StoreID:              c.Store.ID,
		StoreName:            c.Store.Name,
		PriceObservationID:   c.Observation.ID,
		Amount:               c.Observation.Amount,
		Currency:             c.Observation.Currency,
		PriceSubScore:        price,
		QualitySubScore:      quality,
		DistanceSubScore:     distance,
		AvailabilitySubScore: availability,
		CompositeScore:       clampScore(composite),
	}
}

// priceSubScore scales linearly and inversely within the candidate set:
// the cheapest candidate gets 100, the most expensive 0. When every price in
// the set is equal (including a set of one) everyone gets 100.
func (s *AlternativeScorer) priceSubScore(amount, minAmount, maxAmount int64) float64 {
	if maxAmount == minAmount {
		return 100
	}
	return 100 * float64(maxAmount-amount) / float64(maxAmount-minAmount)
}

// qualitySubScore delegates to the quality scorer, or returns the neutral
// midpoint when the product has no quality profile. Absence must not be
// scored as either best or worst.
func (s *AlternativeScorer) qualitySubScore(c Candidate, prefs Preferences) float64 {
	if c.Quality == nil {
		return NeutralScore
	}
	return QualityScore(*c.Quality, prefs.QualityWeights, s.cfg)
}

// distanceSubScore scales linearly from 100 at the user's location down to 0
// at the max distance (or the configured reference distance when the user
// set no max), clamped to [0,100]. Favorite stores get a fixed bonus, capped
// at 100. When the distance cannot be computed the sub-score is neutral.
func (s *AlternativeScorer) distanceSubScore(c Candidate, prefs Preferences) float64 {
	if prefs.UserLocation == nil {
		return NeutralScore
	}
	coord, ok := c.Store.Coordinate()
	if !ok {
		return NeutralScore
	}

	scaleKm := s.cfg.ReferenceDistanceKm
	if prefs.MaxDistanceKm != nil && *prefs.MaxDistanceKm > 0 {
		scaleKm = *prefs.MaxDistanceKm
	}

	distanceKm := HaversineKm(*prefs.UserLocation, coord)
	score := clampScore(100 * (1 - distanceKm/scaleKm))

	if containsID(prefs.FavoriteStoreIDs, c.Store.ID) {
		score = clampScore(score + s.cfg.FavoriteStoreDistanceBonus)
	}
	return score
}

// availabilitySubScore starts from a baseline of 100 (or the low-stock
// baseline when the store is known to be running low) and adds bonuses for
// favorite stores and preferred brands, clamped at 100. Unknown stock is
// treated as available.
func (s *AlternativeScorer) availabilitySubScore(c Candidate, prefs Preferences) float64 {
	score := 100.0
	if c.Observation.Stock == StockLow {
		score = s.cfg.LowStockBaseline
	}
	if containsID(prefs.FavoriteStoreIDs, c.Store.ID) {
		score += s.cfg.FavoriteStoreAvailabilityBonus
	}
	if c.Observation.BrandID != "" && containsID(prefs.PreferredBrandIDs, c.Observation.BrandID) {
		score += s.cfg.PreferredBrandBonus
	}
	return clampScore(score)
}

func priceRange(candidates []Candidate) (min, max int64) {
	min = candidates[0].Observation.Amount
	max = min
	for _, c := range candidates[1:] {
		if c.Observation.Amount < min {
			min = c.Observation.Amount
		}
		if c.Observation.Amount > max {
			max = c.Observation.Amount
		}
	}
	return min, max
}
