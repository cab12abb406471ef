package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcart/optimizer-service/internal/scoring"
)

type stubCatalog struct {
	observations map[string][]scoring.PriceObservation
}

func (s *stubCatalog) ObservationsByProduct(ctx context.Context, productID string) ([]scoring.PriceObservation, error) {
	return s.observations[productID], nil
}

type stubStores struct {
	stores map[string]scoring.Store
}

func (s *stubStores) StoresByIDs(ctx context.Context, ids []string) (map[string]scoring.Store, error) {
	out := make(map[string]scoring.Store, len(ids))
	for _, id := range ids {
		if store, ok := s.stores[id]; ok {
			out[id] = store
		}
	}
	return out, nil
}

type stubQuality struct{}

func (s *stubQuality) ProfileByProduct(ctx context.Context, productID string) (*scoring.QualityProfile, error) {
	return nil, nil
}

type stubPreferences struct {
	prefs map[string]scoring.Preferences
}

func (s *stubPreferences) Preferences(ctx context.Context, userID string) (scoring.Preferences, error) {
	if p, ok := s.prefs[userID]; ok {
		return p, nil
	}
	return scoring.DefaultPreferences(userID), nil
}

func setupOptimizeRouter(t *testing.T, catalog *stubCatalog, stores *stubStores, prefs scoring.PreferenceSource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gatherer := scoring.NewGatherer(catalog, stores, &stubQuality{}, nil)
	InitOptimizer(scoring.NewSelector(gatherer, scoring.DefaultConfig(), nil), prefs)

	router := gin.New()
	router.POST("/internal/optimize", Optimize)
	return router
}

func postOptimize(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/internal/optimize", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOptimizeEndpoint(t *testing.T) {
	catalog := &stubCatalog{observations: map[string][]scoring.PriceObservation{
		"p-milk": {
			{ID: "obs-1", ProductID: "p-milk", StoreID: "s-1", Amount: 129, Currency: "EUR", Stock: scoring.StockIn},
			{ID: "obs-2", ProductID: "p-milk", StoreID: "s-2", Amount: 99, Currency: "EUR", Stock: scoring.StockIn},
		},
	}}
	stores := &stubStores{stores: map[string]scoring.Store{
		"s-1": {ID: "s-1", Name: "Konzum"},
		"s-2": {ID: "s-2", Name: "Lidl"},
	}}
	router := setupOptimizeRouter(t, catalog, stores, &stubPreferences{})

	w := postOptimize(t, router, OptimizeRequest{
		UserID: "u-1",
		Items: []*ListItem{
			{ItemID: "i-1", ProductID: "p-milk", Name: "Milk", Quantity: 2},
			{ItemID: "i-2", ProductID: "p-unknown", Name: "Unicorn dust", Quantity: 1},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp OptimizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "u-1", resp.UserID)
	require.Len(t, resp.Results, 2)

	milk := resp.Results[0]
	assert.Equal(t, "i-1", milk.ItemID)
	assert.False(t, milk.NoCandidate)
	require.NotNil(t, milk.Chosen)
	assert.Equal(t, "Lidl", milk.Chosen.StoreName) // cheaper wins
	assert.Equal(t, int64(99), milk.Chosen.Amount)
	assert.Len(t, milk.Alternatives, 2)

	missing := resp.Results[1]
	assert.Equal(t, "i-2", missing.ItemID)
	assert.True(t, missing.NoCandidate)
	assert.Nil(t, missing.Chosen)
	assert.Empty(t, missing.Alternatives)
}

func TestOptimizeEndpointValidation(t *testing.T) {
	router := setupOptimizeRouter(t,
		&stubCatalog{observations: map[string][]scoring.PriceObservation{}},
		&stubStores{stores: map[string]scoring.Store{}},
		&stubPreferences{})

	// Missing userId
	w := postOptimize(t, router, gin.H{"items": []gin.H{{"itemId": "i-1", "productId": "p-1", "quantity": 1}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Empty items
	w = postOptimize(t, router, gin.H{"userId": "u-1", "items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Zero quantity
	w = postOptimize(t, router, gin.H{"userId": "u-1", "items": []gin.H{{"itemId": "i-1", "productId": "p-1", "quantity": 0}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizeEndpointInvalidWeights(t *testing.T) {
	prefs := &stubPreferences{prefs: map[string]scoring.Preferences{
		"u-zero": {UserID: "u-zero"}, // all weights zero
	}}
	router := setupOptimizeRouter(t,
		&stubCatalog{observations: map[string][]scoring.PriceObservation{}},
		&stubStores{stores: map[string]scoring.Store{}},
		prefs)

	w := postOptimize(t, router, OptimizeRequest{
		UserID: "u-zero",
		Items:  []*ListItem{{ItemID: "i-1", ProductID: "p-1", Quantity: 1}},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
