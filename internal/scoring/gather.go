package scoring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Gatherer collects the eligible (store, price) alternatives for a single
// shopping-list item after applying the hard filters.
type Gatherer struct {
	catalog CatalogSource
	stores  StoreSource
	quality QualitySource
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewGatherer creates a candidate gatherer over the given sources.
func NewGatherer(catalog CatalogSource, stores StoreSource, quality QualitySource, metrics *MetricsRecorder) *Gatherer {
	return &Gatherer{
		catalog: catalog,
		stores:  stores,
		quality: quality,
		metrics: metrics,
		logger:  log.With().Str("component", "candidate_gatherer").Logger(),
	}
}

// Gather returns the candidates for one item. Hard filters remove
// observations from excluded stores, out-of-stock observations when the user
// asked for in-stock only, and stores beyond the max distance when both the
// user location and the store coordinates are known. An empty result is a
// normal outcome ("no price available"), not an error.
func (g *Gatherer) Gather(ctx context.Context, item ListItem, prefs Preferences) ([]Candidate, error) {
	observations, err := g.catalog.ObservationsByProduct(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("loading observations for product %s: %w", item.ProductID, err)
	}
	if len(observations) == 0 {
		return []Candidate{}, nil
	}

	storeIDs := make([]string, 0, len(observations))
	seen := make(map[string]bool, len(observations))
	for _, obs := range observations {
		if !seen[obs.StoreID] {
			seen[obs.StoreID] = true
			storeIDs = append(storeIDs, obs.StoreID)
		}
	}

	stores, err := g.stores.StoresByIDs(ctx, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("loading stores: %w", err)
	}

	profile, err := g.quality.ProfileByProduct(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("loading quality profile for product %s: %w", item.ProductID, err)
	}

	candidates := make([]Candidate, 0, len(observations))
	for _, obs := range observations {
		store, ok := stores[obs.StoreID]
		if !ok {
			// Observation references a store we cannot resolve; skip it.
			g.logger.Warn().Str("storeId", obs.StoreID).Str("observationId", obs.ID).
				Msg("Observation references unknown store, skipped")
			continue
		}
		if containsID(prefs.ExcludedStoreIDs, store.ID) {
			continue
		}
		if prefs.OnlyInStock && obs.Stock == StockOut {
			continue
		}
		if g.overMaxDistance(store, prefs) {
			continue
		}
		candidates = append(candidates, Candidate{
			Observation: obs,
			Store:       store,
			Quality:     profile,
		})
	}

	return candidates, nil
}

// overMaxDistance applies the distance hard filter. The filter only fires
// when the user location, the max distance, and the store coordinates are
// all known; unknown data never excludes a candidate here, it degrades to a
// neutral distance sub-score later.
func (g *Gatherer) overMaxDistance(store Store, prefs Preferences) bool {
	if prefs.UserLocation == nil || prefs.MaxDistanceKm == nil {
		return false
	}
	if store.HasPartialCoordinates() {
		g.reportPartialCoordinates(store)
		return false
	}
	coord, ok := store.Coordinate()
	if !ok {
		return false
	}
	return HaversineKm(*prefs.UserLocation, coord) > *prefs.MaxDistanceKm
}

func (g *Gatherer) reportPartialCoordinates(store Store) {
	g.logger.Error().Str("storeId", store.ID).Str("storeName", store.Name).
		Msg("Store has exactly one of latitude/longitude set, excluding from distance scoring")
	if g.metrics != nil {
		g.metrics.RecordPartialCoordinates()
	}
}
