package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcart/optimizer-service/internal/scoring"
)

// CatalogRepo reads the append-only price observation catalog. This service
// never writes observations; the harvesting pipeline owns that table.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

// NewCatalogRepo creates a catalog repository over the given pool.
func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// ObservationsByProduct returns all known price observations for a product,
// newest first. An empty slice is a normal outcome.
func (r *CatalogRepo) ObservationsByProduct(ctx context.Context, productID string) ([]scoring.PriceObservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, store_id, amount, currency, unit,
		       COALESCE(brand_id, ''), stock, recorded_at
		FROM price_observations
		WHERE product_id = $1
		ORDER BY recorded_at DESC, id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	observations := []scoring.PriceObservation{}
	for rows.Next() {
		var obs scoring.PriceObservation
		var stock string
		if err := rows.Scan(&obs.ID, &obs.ProductID, &obs.StoreID, &obs.Amount,
			&obs.Currency, &obs.Unit, &obs.BrandID, &stock, &obs.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		obs.Stock = scoring.StockStatus(stock)
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating observations: %w", err)
	}
	return observations, nil
}
