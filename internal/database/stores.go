package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcart/optimizer-service/internal/scoring"
)

// StoreRepo persists store records. It implements scoring.StoreSource and
// the geocoding enricher's repository surface.
type StoreRepo struct {
	pool *pgxpool.Pool
}

// NewStoreRepo creates a store repository over the given pool.
func NewStoreRepo(pool *pgxpool.Pool) *StoreRepo {
	return &StoreRepo{pool: pool}
}

// Create inserts a new store. Stores are created without coordinates; the
// geocoding enricher populates them later.
func (r *StoreRepo) Create(ctx context.Context, name, location string) (scoring.Store, error) {
	store := scoring.Store{
		ID:       uuid.NewString(),
		Name:     name,
		Location: location,
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stores (id, name, location, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`, store.ID, store.Name, store.Location)
	if err != nil {
		return scoring.Store{}, fmt.Errorf("inserting store: %w", err)
	}
	return store, nil
}

// StoreByID returns one store, or ErrNotFound.
func (r *StoreRepo) StoreByID(ctx context.Context, id string) (scoring.Store, error) {
	var store scoring.Store
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, location, latitude, longitude
		FROM stores
		WHERE id = $1
	`, id).Scan(&store.ID, &store.Name, &store.Location, &store.Latitude, &store.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.Store{}, ErrNotFound
	}
	if err != nil {
		return scoring.Store{}, fmt.Errorf("querying store %s: %w", id, err)
	}
	return store, nil
}

// List returns all stores, name-ordered.
func (r *StoreRepo) List(ctx context.Context) ([]scoring.Store, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, location, latitude, longitude
		FROM stores
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stores: %w", err)
	}
	defer rows.Close()
	return scanStores(rows)
}

// StoresByIDs returns the stores for the given ids, keyed by id. Unknown
// ids are absent from the map.
func (r *StoreRepo) StoresByIDs(ctx context.Context, ids []string) (map[string]scoring.Store, error) {
	if len(ids) == 0 {
		return map[string]scoring.Store{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, location, latitude, longitude
		FROM stores
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying stores by ids: %w", err)
	}
	defer rows.Close()

	stores, err := scanStores(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]scoring.Store, len(stores))
	for _, s := range stores {
		byID[s.ID] = s
	}
	return byID, nil
}

// ListMissingCoordinates returns every store with at least one missing
// coordinate, oldest first so long-waiting stores get enriched first.
func (r *StoreRepo) ListMissingCoordinates(ctx context.Context) ([]scoring.Store, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, location, latitude, longitude
		FROM stores
		WHERE latitude IS NULL OR longitude IS NULL
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stores missing coordinates: %w", err)
	}
	defer rows.Close()
	return scanStores(rows)
}

// SetCoordinates writes both coordinates in a single UPDATE, preserving the
// invariant that latitude and longitude are set together or not at all.
func (r *StoreRepo) SetCoordinates(ctx context.Context, storeID string, lat, lon float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE stores
		SET latitude = $2, longitude = $3, updated_at = $4
		WHERE id = $1
	`, storeID, lat, lon, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("updating store coordinates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStores(rows pgx.Rows) ([]scoring.Store, error) {
	stores := []scoring.Store{}
	for rows.Next() {
		var store scoring.Store
		if err := rows.Scan(&store.ID, &store.Name, &store.Location, &store.Latitude, &store.Longitude); err != nil {
			return nil, fmt.Errorf("scanning store: %w", err)
		}
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stores: %w", err)
	}
	return stores, nil
}
