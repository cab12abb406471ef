package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCatalog maps productID -> observations.
type mockCatalog struct {
	observations map[string][]PriceObservation
	err          error
}

func (m *mockCatalog) ObservationsByProduct(ctx context.Context, productID string) ([]PriceObservation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.observations[productID], nil
}

type mockStores struct {
	stores map[string]Store
}

func (m *mockStores) StoresByIDs(ctx context.Context, ids []string) (map[string]Store, error) {
	out := make(map[string]Store, len(ids))
	for _, id := range ids {
		if s, ok := m.stores[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type mockQuality struct {
	profiles map[string]*QualityProfile
}

func (m *mockQuality) ProfileByProduct(ctx context.Context, productID string) (*QualityProfile, error) {
	return m.profiles[productID], nil
}

func newTestSources() (*mockCatalog, *mockStores, *mockQuality) {
	return &mockCatalog{observations: make(map[string][]PriceObservation)},
		&mockStores{stores: make(map[string]Store)},
		&mockQuality{profiles: make(map[string]*QualityProfile)}
}

func (m *mockCatalog) add(productID, storeID, obsID string, amount int64, stock StockStatus) {
	m.observations[productID] = append(m.observations[productID], PriceObservation{
		ID:        obsID,
		ProductID: productID,
		StoreID:   storeID,
		Amount:    amount,
		Currency:  "EUR",
		Stock:     stock,
	})
}

func (m *mockStores) add(id, name string, lat, lon *float64) {
	m.stores[id] = Store{ID: id, Name: name, Location: name + " address", Latitude: lat, Longitude: lon}
}

func TestGatherNoObservations(t *testing.T) {
	catalog, stores, quality := newTestSources()
	g := NewGatherer(catalog, stores, quality, nil)

	candidates, err := g.Gather(context.Background(), ListItem{ItemID: "i-1", ProductID: "p-unknown"}, normalizedDefaults())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestGatherExcludedStoresFiltered(t *testing.T) {
	catalog, stores, quality := newTestSources()
	catalog.add("p-1", "store-a", "obs-1", 100, StockIn)
	catalog.add("p-1", "store-b", "obs-2", 90, StockIn)
	stores.add("store-a", "Store A", nil, nil)
	stores.add("store-b", "Store B", nil, nil)
	g := NewGatherer(catalog, stores, quality, nil)

	prefs := normalizedDefaults()
	prefs.ExcludedStoreIDs = []string{"store-b"}

	candidates, err := g.Gather(context.Background(), ListItem{ItemID: "i-1", ProductID: "p-1"}, prefs)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "store-a", candidates[0].Store.ID)
}

func TestGatherOnlyInStockFiltersOutOfStock(t *testing.T) {
	catalog, stores, quality := newTestSources()
	catalog.add("p-1", "store-a", "obs-1", 100, StockOut)
	catalog.add("p-1", "store-b", "obs-2", 110, StockLow)
	catalog.add("p-1", "store-c", "obs-3", 120, StockUnknown)
	stores.add("store-a", "Store A", nil, nil)
	stores.add("store-b", "Store B", nil, nil)
	stores.add("store-c", "Store C", nil, nil)
	g := NewGatherer(catalog, stores, quality, nil)

	prefs := normalizedDefaults()
	prefs.OnlyInStock = true

	candidates, err := g.Gather(context.Background(), ListItem{ItemID: "i-1", ProductID: "p-1"}, prefs)
	require.NoError(t, err)

	// Only confirmed out-of-stock is removed; low and unknown stock stay.
	require.Len(t, candidates, 2)
	assert.Equal(t, "store-b", candidates[0].Store.ID)
	assert.Equal(t, "store-c", candidates[1].Store.ID)
}

func TestGatherMaxDistanceFilter(t *testing.T) {
	catalog, stores, quality := newTestSources()
	catalog.add("p-1", "store-near", "obs-1", 100, StockIn)
	catalog.add("p-1", "store-far", "obs-2", 80, StockIn)
	catalog.add("p-1", "store-nocoords", "obs-3", 90, StockIn)
	stores.add("store-near", "Near", floatPtr(48.86), floatPtr(2.36))
	stores.add("store-far", "Far", floatPtr(49.5), floatPtr(2.35))
	stores.add("store-nocoords", "Unknown", nil, nil)
	g := NewGatherer(catalog, stores, quality, nil)

	prefs := normalizedDefaults()
	prefs.UserLocation = &Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	prefs.MaxDistanceKm = floatPtr(5)

	candidates, err := g.Gather(context.Background(), ListItem{ItemID: "i-1", ProductID: "p-1"}, prefs)
	require.NoError(t, err)

	// The far store is dropped; the store without coordinates survives the
	// filter because unknown data never excludes.
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Store.ID)
	}
	assert.ElementsMatch(t, []string{"store-near", "store-nocoords"}, ids)
}

func TestGatherMaxDistanceBoundary(t *testing.T) {
	// The filter drops candidates strictly beyond the limit; a store at
	// exactly-or-just-under the limit stays. Stores sit due north of the
	// user so the latitude offset converts exactly to kilometers.
	const earthRadiusKm = 6371.0
	degPerKm := 180.0 / (math.Pi * earthRadiusKm)
	user := Coordinate{Latitude: 48.8566, Longitude: 2.3522}

	catalog, stores, quality := newTestSources()
	catalog.add("p-1", "store-inside", "obs-1", 100, StockIn)
	catalog.add("p-1", "store-outside", "obs-2", 90, StockIn)
	stores.add("store-inside", "Inside",
		floatPtr(user.Latitude+4.9999999*degPerKm), floatPtr(user.Longitude))
	stores.add("store-outside", "Outside",
		floatPtr(user.Latitude+5.0000001*degPerKm), floatPtr(user.Longitude))
	g := NewGatherer(catalog, stores, quality, nil)

	prefs := normalizedDefaults()
	prefs.UserLocation = &user
	prefs.MaxDistanceKm = floatPtr(5)

	candidates, err := g.Gather(context.Background(), ListItem{ItemID: "i-1", ProductID: "p-1"}, prefs)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "store-inside", candidates[0].Store.ID)
}

func TestGatherPartialCoordinatesNotFiltered(t *testing.T) {
	catalog, stores, quality := newTestSources()
	catalog.add("p-1", "store-partial", "obs-1", 100, StockIn)
	stores.add("store-partial", "Partial", floatPtr(48.86), nil)
	g := NewGatherer(catalog, stores, quality, nil)

	prefs := normalizedDefaults()
	prefs.UserLocation = &Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	prefs.MaxDistanceKm = floatPtr(5)

	candidates, err := g.Gather(context.Background(), ListItem{ItemID: "i-1", ProductID: "p-1"}, prefs)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "store-partial", candidates[0].Store.ID)
}

func TestGatherSkipsUnknownStores(t *testing.T) {
	catalog, stores, quality := newTestSources()
	catalog.add("p-1", "store-a", "obs-1", 100, StockIn)
	catalog.add("p-1", "store-ghost", "obs-2", 90, StockIn)
	stores.add("store-a", "Store A", nil, nil)
	g := NewGatherer(catalog, stores, quality, nil)

	candidates, err := g.Gather(context.Background(), ListItem{ItemID: "i-1", ProductID: "p-1"}, normalizedDefaults())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "store-a", candidates[0].Store.ID)
}

func TestGatherAttachesQualityProfile(t *testing.T) {
	catalog, stores, quality := newTestSources()
	catalog.add("p-1", "store-a", "obs-1", 100, StockIn)
	stores.add("store-a", "Store A", nil, nil)
	quality.profiles["p-1"] = &QualityProfile{ProductID: "p-1", NutriGrade: gradePtr(GradeA)}
	g := NewGatherer(catalog, stores, quality, nil)

	candidates, err := g.Gather(context.Background(), ListItem{ItemID: "i-1", ProductID: "p-1"}, normalizedDefaults())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].Quality)
	assert.Equal(t, GradeA, *candidates[0].Quality.NutriGrade)
}

func TestGatherPropagatesCatalogError(t *testing.T) {
	catalog, stores, quality := newTestSources()
	catalog.err = errors.New("connection reset")
	g := NewGatherer(catalog, stores, quality, nil)

	_, err := g.Gather(context.Background(), ListItem{ItemID: "i-1", ProductID: "p-1"}, normalizedDefaults())
	assert.Error(t, err)
}
