package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smartcart/optimizer-service/internal/scoring"
)

// ============================================================================
// Shopping List Optimization Endpoints
// ============================================================================

// ListItem represents one entry of the shopping list being optimized
type ListItem struct {
	ItemID    string `json:"itemId" binding:"required"`
	ProductID string `json:"productId" binding:"required"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// OptimizeRequest represents the shopping list optimization request
type OptimizeRequest struct {
	UserID string      `json:"userId" binding:"required"`
	Items  []*ListItem `json:"items" binding:"required,min=1,max=100"`
}

// Alternative contains the scoring breakdown for one store offer
type Alternative struct {
	StoreID            string  `json:"storeId"`
	StoreName          string  `json:"storeName"`
	PriceObservationID string  `json:"priceObservationId"`
	Amount             int64   `json:"amount"`
	Currency           string  `json:"currency"`
	PriceScore         float64 `json:"priceScore"`
	QualityScore       float64 `json:"qualityScore"`
	DistanceScore      float64 `json:"distanceScore"`
	AvailabilityScore  float64 `json:"availabilityScore"`
	CompositeScore     float64 `json:"compositeScore"`
}

// ItemResult represents the selection outcome for one list item
type ItemResult struct {
	ItemID       string         `json:"itemId"`
	NoCandidate  bool           `json:"noCandidate"`
	Chosen       *Alternative   `json:"chosen,omitempty"`
	Alternatives []*Alternative `json:"alternatives"`
}

// OptimizeResponse represents the optimization result for the whole list
type OptimizeResponse struct {
	UserID  string        `json:"userId"`
	Results []*ItemResult `json:"results"`
}

// Global selection dependencies (initialized by the application)
var (
	selector         *scoring.Selector
	preferenceSource scoring.PreferenceSource
)

// InitOptimizer initializes the selector and preference source used by the
// optimization endpoint. This should be called during application startup.
func InitOptimizer(sel *scoring.Selector, prefs scoring.PreferenceSource) {
	selector = sel
	preferenceSource = prefs
}

// Optimize handles shopping list optimization
// POST /internal/optimize
func Optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if selector == nil || preferenceSource == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Optimizer not initialized"})
		return
	}

	ctx := c.Request.Context()

	prefs, err := preferenceSource.Preferences(ctx, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preferences"})
		return
	}

	items := make([]scoring.ListItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = scoring.ListItem{
			ItemID:    item.ItemID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
		}
	}

	results, err := selector.SelectList(ctx, items, prefs)
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidWeights) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := OptimizeResponse{
		UserID:  req.UserID,
		Results: make([]*ItemResult, len(results)),
	}
	for i, r := range results {
		response.Results[i] = toItemResult(r)
	}

	c.JSON(http.StatusOK, response)
}

func toItemResult(r scoring.SelectionResult) *ItemResult {
	result := &ItemResult{
		ItemID:       r.ItemID,
		NoCandidate:  r.NoCandidate,
		Alternatives: make([]*Alternative, len(r.Ranked)),
	}
	for i := range r.Ranked {
		result.Alternatives[i] = toAlternative(&r.Ranked[i])
	}
	if r.Chosen != nil {
		result.Chosen = toAlternative(r.Chosen)
	}
	return result
}

func toAlternative(a *scoring.ScoredAlternative) *Alternative {
	return &Alternative{
		StoreID:            a.StoreID,
		StoreName:          a.StoreName,
		PriceObservationID: a.PriceObservationID,
		Amount:             a.Amount,
		Currency:           a.Currency,
		PriceScore:         a.PriceSubScore,
		QualityScore:       a.QualitySubScore,
		DistanceScore:      a.DistanceSubScore,
		AvailabilityScore:  a.AvailabilitySubScore,
		CompositeScore:     a.CompositeScore,
	}
}
