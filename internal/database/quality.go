package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcart/optimizer-service/internal/scoring"
)

// QualityRepo reads pre-classified product quality profiles. This service
// consumes the classification, it never produces it.
type QualityRepo struct {
	pool *pgxpool.Pool
}

// NewQualityRepo creates a quality repository over the given pool.
func NewQualityRepo(pool *pgxpool.Pool) *QualityRepo {
	return &QualityRepo{pool: pool}
}

// ProfileByProduct returns the quality profile for a product, or (nil, nil)
// when the provider has no data for it. Absence is a normal, neutral-scored
// state, not an error.
func (r *QualityRepo) ProfileByProduct(ctx context.Context, productID string) (*scoring.QualityProfile, error) {
	var (
		profile    scoring.QualityProfile
		nutriGrade *string
		ecoGrade   *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT product_id, nutri_grade, eco_grade, nova_group,
		       COALESCE(additives, '[]'::jsonb),
		       COALESCE(allergens, '{}'),
		       overall_score
		FROM quality_profiles
		WHERE product_id = $1
	`, productID).Scan(&profile.ProductID, &nutriGrade, &ecoGrade, &profile.NovaGroup,
		&profile.Additives, &profile.Allergens, &profile.OverallScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying quality profile: %w", err)
	}

	if nutriGrade != nil {
		g := scoring.Grade(*nutriGrade)
		profile.NutriGrade = &g
	}
	if ecoGrade != nil {
		g := scoring.Grade(*ecoGrade)
		profile.EcoGrade = &g
	}
	return &profile, nil
}
