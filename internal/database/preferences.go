package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcart/optimizer-service/internal/scoring"
)

// PreferenceRepo persists per-user optimization preferences. Records are
// stored exactly as the user set them; normalization happens on read in the
// scoring layer, never at rest.
type PreferenceRepo struct {
	pool *pgxpool.Pool
}

// NewPreferenceRepo creates a preference repository over the given pool.
func NewPreferenceRepo(pool *pgxpool.Pool) *PreferenceRepo {
	return &PreferenceRepo{pool: pool}
}

// Preferences returns the stored preferences for a user. A user with no
// record yet gets the documented defaults (not persisted until updated).
func (r *PreferenceRepo) Preferences(ctx context.Context, userID string) (scoring.Preferences, error) {
	prefs, err := r.load(ctx, r.pool, userID)
	if errors.Is(err, ErrNotFound) {
		return scoring.DefaultPreferences(userID), nil
	}
	return prefs, err
}

// Update applies a partial-merge update inside a transaction: only supplied
// fields change, everything else keeps its stored value. The merge starts
// from the defaults when the user has no record yet.
func (r *PreferenceRepo) Update(ctx context.Context, userID string, patch scoring.PreferencesPatch) (scoring.Preferences, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return scoring.Preferences{}, fmt.Errorf("beginning preferences update: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := r.load(ctx, tx, userID)
	if errors.Is(err, ErrNotFound) {
		current = scoring.DefaultPreferences(userID)
	} else if err != nil {
		return scoring.Preferences{}, err
	}

	merged := patch.Apply(current)
	if err := r.upsert(ctx, tx, merged); err != nil {
		return scoring.Preferences{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return scoring.Preferences{}, fmt.Errorf("committing preferences update: %w", err)
	}
	return merged, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PreferenceRepo) load(ctx context.Context, q querier, userID string) (scoring.Preferences, error) {
	prefs := scoring.Preferences{UserID: userID}
	var lat, lon *float64
	err := q.QueryRow(ctx, `
		SELECT price_weight, quality_weight, distance_weight, availability_weight,
		       nutri_score_weight, nova_group_weight, eco_score_weight,
		       max_distance_km,
		       COALESCE(excluded_store_ids, '{}'),
		       COALESCE(favorite_store_ids, '{}'),
		       COALESCE(preferred_brand_ids, '{}'),
		       only_in_stock, latitude, longitude
		FROM user_preferences
		WHERE user_id = $1
	`, userID).Scan(
		&prefs.Weights.Price, &prefs.Weights.Quality, &prefs.Weights.Distance, &prefs.Weights.Availability,
		&prefs.QualityWeights.NutriScore, &prefs.QualityWeights.NovaGroup, &prefs.QualityWeights.EcoScore,
		&prefs.MaxDistanceKm,
		&prefs.ExcludedStoreIDs, &prefs.FavoriteStoreIDs, &prefs.PreferredBrandIDs,
		&prefs.OnlyInStock, &lat, &lon,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.Preferences{}, ErrNotFound
	}
	if err != nil {
		return scoring.Preferences{}, fmt.Errorf("querying preferences: %w", err)
	}

	// Coordinates are written together or not at all; a partial pair here
	// is corrupt and treated as absent.
	if lat != nil && lon != nil {
		prefs.UserLocation = &scoring.Coordinate{Latitude: *lat, Longitude: *lon}
	}
	return prefs, nil
}

func (r *PreferenceRepo) upsert(ctx context.Context, tx pgx.Tx, prefs scoring.Preferences) error {
	var lat, lon *float64
	if prefs.UserLocation != nil {
		lat = &prefs.UserLocation.Latitude
		lon = &prefs.UserLocation.Longitude
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO user_preferences (
			user_id,
			price_weight, quality_weight, distance_weight, availability_weight,
			nutri_score_weight, nova_group_weight, eco_score_weight,
			max_distance_km, excluded_store_ids, favorite_store_ids,
			preferred_brand_ids, only_in_stock, latitude, longitude, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (user_id) DO UPDATE SET
			price_weight = EXCLUDED.price_weight,
			quality_weight = EXCLUDED.quality_weight,
			distance_weight = EXCLUDED.distance_weight,
			availability_weight = EXCLUDED.availability_weight,
			nutri_score_weight = EXCLUDED.nutri_score_weight,
			nova_group_weight = EXCLUDED.nova_group_weight,
			eco_score_weight = EXCLUDED.eco_score_weight,
			max_distance_km = EXCLUDED.max_distance_km,
			excluded_store_ids = EXCLUDED.excluded_store_ids,
			favorite_store_ids = EXCLUDED.favorite_store_ids,
			preferred_brand_ids = EXCLUDED.preferred_brand_ids,
			only_in_stock = EXCLUDED.only_in_stock,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = EXCLUDED.updated_at
	`,
		prefs.UserID,
		prefs.Weights.Price, prefs.Weights.Quality, prefs.Weights.Distance, prefs.Weights.Availability,
		prefs.QualityWeights.NutriScore, prefs.QualityWeights.NovaGroup, prefs.QualityWeights.EcoScore,
		prefs.MaxDistanceKm, prefs.ExcludedStoreIDs, prefs.FavoriteStoreIDs,
		prefs.PreferredBrandIDs, prefs.OnlyInStock, lat, lon, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting preferences: %w", err)
	}
	return nil
}
