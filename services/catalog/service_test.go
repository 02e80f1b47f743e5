package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"servicehub/models"
	"servicehub/services/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	b, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

type prefixAssets struct{}

func (prefixAssets) URL(ref string) string { return "https://cdn.example.com/" + ref }

func catalogServer(t *testing.T, hits *int) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/user/categories":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{
				"categories": []map[string]any{{"_id": "c1", "name": "AC Repair", "image": "cat/ac.png"}},
				"pagination": map[string]int{"page": 1, "pages": 1, "total": 1},
			}})
		case "/api/user/services":
			assert.Equal(t, "c1", r.URL.Query().Get("category"))
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{
				"services":   []map[string]any{{"_id": "s1", "name": "Gas refill", "category": "c1", "price": 799}},
				"pagination": map[string]int{"page": 1, "pages": 3, "total": 25},
			}})
		default:
			http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, models.RoleUser)
}

func TestCategoriesAreCached(t *testing.T) {
	hits := 0
	svc := NewService(catalogServer(t, &hits), newMemCache(), time.Minute, prefixAssets{}, nil)
	ctx := context.Background()

	first, err := svc.Categories(ctx, api.ListQuery{Page: 1})
	require.NoError(t, err)
	second, err := svc.Categories(ctx, api.ListQuery{})
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, first, second)
	assert.Equal(t, "https://cdn.example.com/cat/ac.png", first.Data[0].Image)
}

func TestServicesByCategory(t *testing.T) {
	hits := 0
	svc := NewService(catalogServer(t, &hits), newMemCache(), time.Minute, nil, nil)

	page, err := svc.ServicesByCategory(context.Background(), "c1", api.ListQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 799.0, page.Data[0].Price)

	_, err = svc.ServicesByCategory(context.Background(), "", api.ListQuery{})
	assert.Error(t, err)
}

func TestCacheFailureFallsThrough(t *testing.T) {
	hits := 0
	cache := newMemCache()
	cache.err = errors.New("connection refused")
	svc := NewService(catalogServer(t, &hits), cache, time.Minute, nil, nil)

	_, err := svc.Categories(context.Background(), api.ListQuery{})
	require.NoError(t, err)
	_, err = svc.Categories(context.Background(), api.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestPageKeyIsStable(t *testing.T) {
	a := pageKey("services", api.ListQuery{Filters: map[string]string{"category": "c1", "sort": "price"}})
	b := pageKey("services", api.ListQuery{Page: 1, Filters: map[string]string{"sort": "price", "category": "c1"}})
	assert.Equal(t, a, b)
}
