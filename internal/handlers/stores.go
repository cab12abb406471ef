package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smartcart/optimizer-service/internal/database"
	"github.com/smartcart/optimizer-service/internal/geocode"
	"github.com/smartcart/optimizer-service/internal/scoring"
)

// ============================================================================
// Store Management and Geocoding Endpoints
// ============================================================================

// CreateStoreRequest represents a new store registration
type CreateStoreRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
}

// StoreResponse represents a store in API responses
type StoreResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// EnrichResponse represents the outcome of a single-store enrichment
type EnrichResponse struct {
	StoreID  string `json:"storeId"`
	Enriched bool   `json:"enriched"`
	NoOp     bool   `json:"noOp"`
}

// BatchEnrichResponse represents the outcome of a batch enrichment run
type BatchEnrichResponse struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failedIds,omitempty"`
}

// Global store dependencies (initialized by the application)
var (
	storeRepo     *database.StoreRepo
	storeEnricher *geocode.Enricher
)

// InitStores initializes the store repository and geocoding enricher.
// This should be called during application startup.
func InitStores(repo *database.StoreRepo, enricher *geocode.Enricher) {
	storeRepo = repo
	storeEnricher = enricher
}

// CreateStore registers a new store without coordinates
// POST /internal/stores
func CreateStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store, err := storeRepo.Create(c.Request.Context(), req.Name, req.Location)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create store"})
		return
	}

	c.JSON(http.StatusCreated, toStoreResponse(store))
}

// ListStores returns all known stores
// GET /internal/stores
func ListStores(c *gin.Context) {
	stores, err := storeRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stores"})
		return
	}

	response := make([]StoreResponse, len(stores))
	for i, s := range stores {
		response[i] = toStoreResponse(s)
	}
	c.JSON(http.StatusOK, gin.H{"stores": response, "total": len(response)})
}

// EnrichStore geocodes a single store's address if coordinates are missing
// POST /internal/stores/:storeId/enrich
func EnrichStore(c *gin.Context) {
	storeID := c.Param("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storeId is required"})
		return
	}

	outcome, err := storeEnricher.EnrichStore(c.Request.Context(), storeID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		case errors.Is(err, geocode.ErrUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, EnrichResponse{
		StoreID:  outcome.StoreID,
		Enriched: outcome.Enriched,
		NoOp:     outcome.NoOp,
	})
}

// EnrichAllStores geocodes every store that is missing coordinates.
// Runs sequentially to respect the provider's rate limits, so a long
// list takes a while.
// POST /internal/stores/enrich
func EnrichAllStores(c *gin.Context) {
	result, err := storeEnricher.EnrichAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "Batch enrichment canceled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, BatchEnrichResponse{
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		FailedIDs: result.FailedIDs,
	})
}

func toStoreResponse(s scoring.Store) StoreResponse {
	return StoreResponse{
		ID:        s.ID,
		Name:      s.Name,
		Location:  s.Location,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
	}
}
