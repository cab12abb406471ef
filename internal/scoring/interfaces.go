package scoring

import (
	"context"
)

// CatalogSource provides read-only access to the price observation catalog.
type CatalogSource interface {
	// ObservationsByProduct returns all known price observations for a
	// product. An empty slice means no prices have been harvested yet.
	ObservationsByProduct(ctx context.Context, productID string) ([]PriceObservation, error)
}

// StoreSource provides read-only access to store records.
type StoreSource interface {
	// StoresByIDs returns the stores for the given ids, keyed by id.
	// Unknown ids are simply absent from the map.
	StoresByIDs(ctx context.Context, ids []string) (map[string]Store, error)
}

// QualitySource provides read-only access to product quality profiles.
type QualitySource interface {
	// ProfileByProduct returns the quality profile for a product, or
	// (nil, nil) when the quality provider has no data for it.
	ProfileByProduct(ctx context.Context, productID string) (*QualityProfile, error)
}

// PreferenceSource persists per-user optimization preferences.
type PreferenceSource interface {
	// Preferences returns the stored preferences for a user, or the
	// documented defaults when the user has none yet.
	Preferences(ctx context.Context, userID string) (Preferences, error)
}
