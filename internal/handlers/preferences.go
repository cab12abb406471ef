package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smartcart/optimizer-service/internal/scoring"
)

// ============================================================================
// User Preference Endpoints
// ============================================================================

// PreferenceStore persists user preferences with partial-update semantics.
type PreferenceStore interface {
	Preferences(ctx context.Context, userID string) (scoring.Preferences, error)
	Update(ctx context.Context, userID string, patch scoring.PreferencesPatch) (scoring.Preferences, error)
}

// Location represents a geographic coordinate pair
type Location struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

// WeightsDTO carries the four top-level scoring weights
type WeightsDTO struct {
	Price        float64 `json:"price"`
	Quality      float64 `json:"quality"`
	Distance     float64 `json:"distance"`
	Availability float64 `json:"availability"`
}

// QualityWeightsDTO carries the quality sub-component weights
type QualityWeightsDTO struct {
	NutriScore float64 `json:"nutriScore"`
	NovaGroup  float64 `json:"novaGroup"`
	EcoScore   float64 `json:"ecoScore"`
}

// PreferencesResponse represents a user's stored preferences.
// Weights are returned as stored; normalization happens at scoring time.
type PreferencesResponse struct {
	UserID            string            `json:"userId"`
	Weights           WeightsDTO        `json:"weights"`
	QualityWeights    QualityWeightsDTO `json:"qualityWeights"`
	MaxDistanceKm     *float64          `json:"maxDistanceKm,omitempty"`
	ExcludedStoreIDs  []string          `json:"excludedStoreIds"`
	FavoriteStoreIDs  []string          `json:"favoriteStoreIds"`
	PreferredBrandIDs []string          `json:"preferredBrandIds"`
	OnlyInStock       bool              `json:"onlyInStock"`
	UserLocation      *Location         `json:"userLocation,omitempty"`
}

// UpdatePreferencesRequest is a partial preference update. Absent fields
// keep their stored values; the explicit clear flags remove optional ones.
type UpdatePreferencesRequest struct {
	PriceWeight        *float64 `json:"priceWeight,omitempty" binding:"omitempty,min=0"`
	QualityWeight      *float64 `json:"qualityWeight,omitempty" binding:"omitempty,min=0"`
	DistanceWeight     *float64 `json:"distanceWeight,omitempty" binding:"omitempty,min=0"`
	AvailabilityWeight *float64 `json:"availabilityWeight,omitempty" binding:"omitempty,min=0"`

	NutriScoreWeight *float64 `json:"nutriScoreWeight,omitempty" binding:"omitempty,min=0"`
	NovaGroupWeight  *float64 `json:"novaGroupWeight,omitempty" binding:"omitempty,min=0"`
	EcoScoreWeight   *float64 `json:"ecoScoreWeight,omitempty" binding:"omitempty,min=0"`

	MaxDistanceKm    *float64 `json:"maxDistanceKm,omitempty" binding:"omitempty,gt=0"`
	ClearMaxDistance bool     `json:"clearMaxDistance,omitempty"`

	ExcludedStoreIDs  []string `json:"excludedStoreIds,omitempty"`
	FavoriteStoreIDs  []string `json:"favoriteStoreIds,omitempty"`
	PreferredBrandIDs []string `json:"preferredBrandIds,omitempty"`

	OnlyInStock *bool `json:"onlyInStock,omitempty"`

	UserLocation      *Location `json:"userLocation,omitempty"`
	ClearUserLocation bool      `json:"clearUserLocation,omitempty"`
}

// Global preference store instance (initialized by the application)
var preferenceStore PreferenceStore

// InitPreferences initializes the preference store used by the preference
// endpoints. This should be called during application startup.
func InitPreferences(store PreferenceStore) {
	preferenceStore = store
}

// GetPreferences returns a user's preferences, with defaults for unknown users
// GET /internal/preferences/:userId
func GetPreferences(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	if preferenceStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Preference store not initialized"})
		return
	}

	prefs, err := preferenceStore.Preferences(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preferences"})
		return
	}

	c.JSON(http.StatusOK, toPreferencesResponse(prefs))
}

// UpdatePreferences applies a partial preference update and returns the
// merged result
// PUT /internal/preferences/:userId
func UpdatePreferences(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if preferenceStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Preference store not initialized"})
		return
	}

	patch := scoring.PreferencesPatch{
		PriceWeight:        req.PriceWeight,
		QualityWeight:      req.QualityWeight,
		DistanceWeight:     req.DistanceWeight,
		AvailabilityWeight: req.AvailabilityWeight,
		NutriScoreWeight:   req.NutriScoreWeight,
		NovaGroupWeight:    req.NovaGroupWeight,
		EcoScoreWeight:     req.EcoScoreWeight,
		MaxDistanceKm:      req.MaxDistanceKm,
		ClearMaxDistance:   req.ClearMaxDistance,
		ExcludedStoreIDs:   req.ExcludedStoreIDs,
		FavoriteStoreIDs:   req.FavoriteStoreIDs,
		PreferredBrandIDs:  req.PreferredBrandIDs,
		OnlyInStock:        req.OnlyInStock,
		ClearUserLocation:  req.ClearUserLocation,
	}
	if req.UserLocation != nil {
		patch.UserLocation = &scoring.Coordinate{
			Latitude:  req.UserLocation.Latitude,
			Longitude: req.UserLocation.Longitude,
		}
	}

	prefs, err := preferenceStore.Update(c.Request.Context(), userID, patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	c.JSON(http.StatusOK, toPreferencesResponse(prefs))
}

func toPreferencesResponse(prefs scoring.Preferences) PreferencesResponse {
	resp := PreferencesResponse{
		UserID: prefs.UserID,
		Weights: WeightsDTO{
			Price:        prefs.Weights.Price,
			Quality:      prefs.Weights.Quality,
			Distance:     prefs.Weights.Distance,
			Availability: prefs.Weights.Availability,
		},
		QualityWeights: QualityWeightsDTO{
			NutriScore: prefs.QualityWeights.NutriScore,
			NovaGroup:  prefs.QualityWeights.NovaGroup,
			EcoScore:   prefs.QualityWeights.EcoScore,
		},
		MaxDistanceKm:     prefs.MaxDistanceKm,
		ExcludedStoreIDs:  emptyIfNil(prefs.ExcludedStoreIDs),
		FavoriteStoreIDs:  emptyIfNil(prefs.FavoriteStoreIDs),
		PreferredBrandIDs: emptyIfNil(prefs.PreferredBrandIDs),
		OnlyInStock:       prefs.OnlyInStock,
	}
	if prefs.UserLocation != nil {
		resp.UserLocation = &Location{
			Latitude:  prefs.UserLocation.Latitude,
			Longitude: prefs.UserLocation.Longitude,
		}
	}
	return resp
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
