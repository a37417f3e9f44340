package recommendation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/domain/shared"
	"github.com/homefinder/backend/internal/infrastructure/cache"
)

// fakeProvider serves a fixed table under a fixed fingerprint
type fakeProvider struct {
	entry *cache.CachedTable
	loads int
}

func (p *fakeProvider) Load(_ context.Context) (*cache.CachedTable, error) {
	p.loads++
	return p.entry, nil
}

// memoryResultCache is an in-memory SearchResultCache that counts hits
type memoryResultCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
}

func newMemoryResultCache() *memoryResultCache {
	return &memoryResultCache{entries: make(map[string][]byte)}
}

func (c *memoryResultCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	payload, ok := c.entries[key]
	return payload, ok, nil
}

func (c *memoryResultCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = payload
	return nil
}

func (c *memoryResultCache) Close() error { return nil }

func makeListing(typ, city string, bedrooms, bathrooms int, size, price string) *listing.Listing {
	return &listing.Listing{
		ID:          uuid.New(),
		Type:        typ,
		Title:       "Listing in " + city,
		Location:    city + ", Egypt",
		City:        city,
		Bedrooms:    bedrooms,
		Bathrooms:   bathrooms,
		SizeSqm:     decimal.RequireFromString(size),
		Price:       decimal.RequireFromString(price),
		PhoneNumber: "01000000000",
		ImageLink:   "https://img.example/x.jpg",
	}
}

func testProvider(listings ...*listing.Listing) *fakeProvider {
	for i, l := range listings {
		l.Row = i + 2 // header is line 1
	}
	return &fakeProvider{
		entry: &cache.CachedTable{
			Fingerprint: "fp-1",
			Table:       listing.NewTable(listings),
			LoadedAt:    time.Now(),
		},
	}
}

func intPtr(n int) *int { return &n }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestRecommendStrictOrderedByPrice(t *testing.T) {
	provider := testProvider(
		makeListing("apartment", "Cairo", 2, 1, "100", "3000000"),
		makeListing("apartment", "Cairo", 2, 1, "90", "1000000"),
		makeListing("apartment", "Cairo", 3, 2, "120", "2000000"),
	)
	svc := NewService(provider)

	rec, err := svc.Recommend(context.Background(), listing.SearchCriteria{
		Type: "apartment",
		City: "Cairo",
	}, 10)
	require.NoError(t, err)

	assert.False(t, rec.Relaxed)
	assert.Equal(t, 3, rec.TotalMatched)
	require.Len(t, rec.Listings, 3)
	assert.Equal(t, "1000000", rec.Listings[0].Price.String())
	assert.Equal(t, "2000000", rec.Listings[1].Price.String())
	assert.Equal(t, "3000000", rec.Listings[2].Price.String())
}

func TestRecommendPriceTiesKeepSourceOrder(t *testing.T) {
	first := makeListing("apartment", "Cairo", 2, 1, "90", "1500000")
	second := makeListing("apartment", "Cairo", 2, 1, "95", "1500000")
	provider := testProvider(first, second)
	svc := NewService(provider)

	rec, err := svc.Recommend(context.Background(), listing.SearchCriteria{}, 10)
	require.NoError(t, err)

	require.Len(t, rec.Listings, 2)
	assert.Equal(t, first.ID, rec.Listings[0].ID)
	assert.Equal(t, second.ID, rec.Listings[1].ID)
}

func TestRecommendTruncatesToLimit(t *testing.T) {
	provider := testProvider(
		makeListing("apartment", "Cairo", 2, 1, "90", "1000000"),
		makeListing("apartment", "Cairo", 2, 1, "90", "1100000"),
		makeListing("apartment", "Cairo", 2, 1, "90", "1200000"),
	)
	svc := NewService(provider)

	rec, err := svc.Recommend(context.Background(), listing.SearchCriteria{}, 2)
	require.NoError(t, err)

	assert.Len(t, rec.Listings, 2)
	assert.Equal(t, 3, rec.TotalMatched)
	assert.Equal(t, "1000000", rec.Listings[0].Price.String())
}

func TestRecommendDefaultLimit(t *testing.T) {
	listings := make([]*listing.Listing, 0, 8)
	for i := 0; i < 8; i++ {
		listings = append(listings, makeListing("apartment", "Cairo", 2, 1, "90", "1000000"))
	}
	provider := testProvider(listings...)
	svc := NewService(provider)

	rec, err := svc.Recommend(context.Background(), listing.SearchCriteria{}, 0)
	require.NoError(t, err)

	assert.Len(t, rec.Listings, DefaultLimit)
	assert.Equal(t, 8, rec.TotalMatched)
}

func TestRecommendRelaxedFallback(t *testing.T) {
	provider := testProvider(
		makeListing("apartment", "Cairo", 1, 1, "60", "900000"),
		makeListing("villa", "Giza", 4, 3, "300", "8000000"),
	)
	svc := NewService(provider)

	// No apartment in Cairo has 3 bedrooms; type+city still match one
	rec, err := svc.Recommend(context.Background(), listing.SearchCriteria{
		Type:        "apartment",
		City:        "Cairo",
		MinBedrooms: intPtr(3),
	}, 10)
	require.NoError(t, err)

	assert.True(t, rec.Relaxed)
	assert.Equal(t, 1, rec.TotalMatched)
	require.Len(t, rec.Listings, 1)
	assert.Equal(t, "apartment", rec.Listings[0].Type)
}

func TestRecommendEmptyRelaxedResult(t *testing.T) {
	provider := testProvider(
		makeListing("villa", "Giza", 4, 3, "300", "8000000"),
	)
	svc := NewService(provider)

	rec, err := svc.Recommend(context.Background(), listing.SearchCriteria{
		Type: "apartment",
		City: "Alexandria",
	}, 10)
	require.NoError(t, err)

	assert.True(t, rec.Relaxed)
	assert.Empty(t, rec.Listings)
	assert.Equal(t, 0, rec.TotalMatched)
}

func TestRecommendPriceAndSizeBounds(t *testing.T) {
	provider := testProvider(
		makeListing("apartment", "Cairo", 2, 1, "60", "900000"),
		makeListing("apartment", "Cairo", 2, 1, "100", "1500000"),
		makeListing("apartment", "Cairo", 2, 1, "200", "4000000"),
	)
	svc := NewService(provider)

	rec, err := svc.Recommend(context.Background(), listing.SearchCriteria{
		MinSize:  decPtr("80"),
		MaxSize:  decPtr("150"),
		MinPrice: decPtr("1000000"),
		MaxPrice: decPtr("2000000"),
	}, 10)
	require.NoError(t, err)

	assert.False(t, rec.Relaxed)
	require.Len(t, rec.Listings, 1)
	assert.Equal(t, "100", rec.Listings[0].SizeSqm.String())
}

func TestRecommendAnySentinelIsCaseInsensitive(t *testing.T) {
	provider := testProvider(
		makeListing("apartment", "Cairo", 2, 1, "90", "1000000"),
		makeListing("villa", "Giza", 4, 3, "300", "8000000"),
	)
	svc := NewService(provider)

	rec, err := svc.Recommend(context.Background(), listing.SearchCriteria{
		Type: "Any",
		City: "ANY",
	}, 10)
	require.NoError(t, err)

	assert.False(t, rec.Relaxed)
	assert.Equal(t, 2, rec.TotalMatched)
}

func TestRecommendDeterministic(t *testing.T) {
	provider := testProvider(
		makeListing("apartment", "Cairo", 2, 1, "90", "1500000"),
		makeListing("apartment", "Cairo", 2, 1, "95", "1500000"),
		makeListing("apartment", "Cairo", 1, 1, "55", "900000"),
	)
	svc := NewService(provider)
	criteria := listing.SearchCriteria{Type: "apartment"}

	first, err := svc.Recommend(context.Background(), criteria, 10)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.Recommend(context.Background(), criteria, 10)
		require.NoError(t, err)
		require.Len(t, again.Listings, len(first.Listings))
		for j := range first.Listings {
			assert.Equal(t, first.Listings[j].ID, again.Listings[j].ID)
		}
	}
}

func TestRecommendUsesResultCache(t *testing.T) {
	provider := testProvider(
		makeListing("apartment", "Cairo", 2, 1, "90", "1000000"),
	)
	results := newMemoryResultCache()
	svc := NewService(provider, WithResultCache(results, shared.DefaultSearchCacheConfig()))
	criteria := listing.SearchCriteria{Type: "apartment"}

	first, err := svc.Recommend(context.Background(), criteria, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, results.sets)

	second, err := svc.Recommend(context.Background(), criteria, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, results.sets, "cache hit must not rewrite the entry")

	require.Len(t, second.Listings, 1)
	assert.Equal(t, first.Listings[0].ID, second.Listings[0].ID)
	assert.Equal(t, first.Relaxed, second.Relaxed)
}

func TestRecommendCacheKeyVariesWithLimit(t *testing.T) {
	criteria := listing.SearchCriteria{Type: "apartment"}

	keyA := resultCacheKey("fp-1", criteria, 5)
	keyB := resultCacheKey("fp-1", criteria, 10)
	keyC := resultCacheKey("fp-2", criteria, 5)

	assert.NotEqual(t, keyA, keyB)
	assert.NotEqual(t, keyA, keyC)
}

func TestRecommendCacheKeyCanonicalizesAny(t *testing.T) {
	keyA := resultCacheKey("fp-1", listing.SearchCriteria{Type: "Any", City: ""}, 5)
	keyB := resultCacheKey("fp-1", listing.SearchCriteria{Type: "any", City: "ANY"}, 5)

	assert.Equal(t, keyA, keyB)
}

func TestRecommendDisabledCacheSkipsBackend(t *testing.T) {
	provider := testProvider(
		makeListing("apartment", "Cairo", 2, 1, "90", "1000000"),
	)
	results := newMemoryResultCache()
	svc := NewService(provider, WithResultCache(results, shared.SearchCacheConfig{Enabled: false}))

	_, err := svc.Recommend(context.Background(), listing.SearchCriteria{}, 5)
	require.NoError(t, err)

	assert.Equal(t, 0, results.gets)
	assert.Equal(t, 0, results.sets)
}
