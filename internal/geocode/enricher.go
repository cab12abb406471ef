package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smartcart/optimizer-service/internal/scoring"
)

// StoreRepo is the persistence surface the enricher needs. SetCoordinates
// must write latitude and longitude in a single atomic update so a store is
// never left with one coordinate and not the other.
type StoreRepo interface {
	StoreByID(ctx context.Context, id string) (scoring.Store, error)
	ListMissingCoordinates(ctx context.Context) ([]scoring.Store, error)
	SetCoordinates(ctx context.Context, storeID string, lat, lon float64) error
}

// Lookuper resolves a free-text address to coordinates.
type Lookuper interface {
	Lookup(ctx context.Context, query string) (scoring.Coordinate, error)
}

// Outcome is the result of enriching one store.
type Outcome struct {
	StoreID  string
	NoOp     bool // coordinates were already present, nothing written
	Enriched bool
}

// BatchResult aggregates a batch enrichment run.
type BatchResult struct {
	Total     int
	Succeeded int
	Skipped   int // already had coordinates (raced by another writer)
	Failed    int
	FailedIDs []string
}

// Enricher fills missing store coordinates. The batch path is deliberately
// sequential with a fixed inter-request delay: the provider has no
// documented concurrency allowance.
type Enricher struct {
	repo   StoreRepo
	client Lookuper
	delay  time.Duration
	logger zerolog.Logger
}

// NewEnricher creates an enricher with the given inter-request delay for
// batch runs.
func NewEnricher(repo StoreRepo, client Lookuper, delay time.Duration) *Enricher {
	return &Enricher{
		repo:   repo,
		client: client,
		delay:  delay,
		logger: log.With().Str("component", "geocoding_enricher").Logger(),
	}
}

// EnrichStore fills the coordinates of one store. It is idempotent: a store
// that already has coordinates is reported as a no-op success and its
// coordinates are never overwritten. A failed lookup leaves the store
// without coordinates.
func (e *Enricher) EnrichStore(ctx context.Context, storeID string) (Outcome, error) {
	store, err := e.repo.StoreByID(ctx, storeID)
	if err != nil {
		return Outcome{}, err
	}
	return e.enrich(ctx, store)
}

func (e *Enricher) enrich(ctx context.Context, store scoring.Store) (Outcome, error) {
	if _, ok := store.Coordinate(); ok {
		return Outcome{StoreID: store.ID, NoOp: true}, nil
	}

	if store.HasPartialCoordinates() {
		// Corrupt pairing; re-geocoding repairs it since the update
		// writes both columns together.
		e.logger.Warn().Str("storeId", store.ID).
			Msg("Store has partial coordinates, re-geocoding to repair")
	}

	query := store.Name
	if store.Location != "" {
		query = store.Name + ", " + store.Location
	}

	coord, err := e.client.Lookup(ctx, query)
	if err != nil {
		lookupsTotal.WithLabelValues("failure").Inc()
		return Outcome{StoreID: store.ID}, err
	}
	lookupsTotal.WithLabelValues("success").Inc()

	if err := e.repo.SetCoordinates(ctx, store.ID, coord.Latitude, coord.Longitude); err != nil {
		return Outcome{StoreID: store.ID}, err
	}

	e.logger.Info().Str("storeId", store.ID).
		Float64("latitude", coord.Latitude).
		Float64("longitude", coord.Longitude).
		Msg("Store coordinates enriched")

	return Outcome{StoreID: store.ID, Enriched: true}, nil
}

// EnrichAll enriches every store missing at least one coordinate,
// sequentially, sleeping the configured delay between provider calls. A
// failure on one store is recorded and processing continues. Cancellation is
// cooperative: the current store finishes, the next one does not start.
func (e *Enricher) EnrichAll(ctx context.Context) (BatchResult, error) {
	stores, err := e.repo.ListMissingCoordinates(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Total: len(stores)}
	for i, store := range stores {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome, err := e.enrich(ctx, store)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return result, err
		case err != nil:
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, store.ID)
			e.logger.Warn().Err(err).Str("storeId", store.ID).
				Msg("Geocoding failed, store left without coordinates")
		case outcome.NoOp:
			result.Skipped++
		default:
			result.Succeeded++
		}

		// Courtesy delay between provider calls; skip after the last one.
		if i < len(stores)-1 && e.delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(e.delay):
			}
		}
	}

	e.logger.Info().
		Int("total", result.Total).
		Int("succeeded", result.Succeeded).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Batch enrichment finished")

	return result, nil
}
