package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"servicehub/models"
	"servicehub/services/api"

	"go.uber.org/zap"
)

// AssetResolver turns stored image references into absolute URLs.
type AssetResolver interface {
	URL(ref string) string
}

// Service serves the public catalog through a short-lived cache.
// A nil cache disables caching; cache failures fall through to the remote API.
type Service struct {
	client *api.Client
	cache  Cache
	ttl    time.Duration
	assets AssetResolver
	logger *zap.Logger
}

func NewService(client *api.Client, cache Cache, ttl time.Duration, assets AssetResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, cache: cache, ttl: ttl, assets: assets, logger: logger}
}

func (s *Service) Categories(ctx context.Context, q api.ListQuery) (models.Page[models.Category], error) {
	key := pageKey("categories", q)
	var page models.Page[models.Category]
	if s.fromCache(ctx, key, &page) {
		return page, nil
	}

	page, err := api.List[models.Category](ctx, s.client, api.Categories, q)
	if err != nil {
		return page, err
	}
	for i := range page.Data {
		page.Data[i].Image = s.assetURL(page.Data[i].Image)
	}
	s.store(ctx, key, page)
	return page, nil
}

func (s *Service) ServicesByCategory(ctx context.Context, categoryID string, q api.ListQuery) (models.Page[models.Service], error) {
	if categoryID == "" {
		return models.Page[models.Service]{}, fmt.Errorf("services by category: empty category id")
	}
	filters := map[string]string{"category": categoryID}
	for k, v := range q.Filters {
		filters[k] = v
	}
	q.Filters = filters

	key := pageKey("services", q)
	var page models.Page[models.Service]
	if s.fromCache(ctx, key, &page) {
		return page, nil
	}

	page, err := api.List[models.Service](ctx, s.client, api.Services, q)
	if err != nil {
		return page, err
	}
	for i := range page.Data {
		page.Data[i].Image = s.assetURL(page.Data[i].Image)
	}
	s.store(ctx, key, page)
	return page, nil
}

func (s *Service) assetURL(ref string) string {
	if s.assets == nil {
		return ref
	}
	return s.assets.URL(ref)
}

func (s *Service) fromCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	b, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		s.logger.Warn("Discarding corrupt catalog cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		s.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// pageKey is stable for equal queries; url.Values.Encode sorts its keys.
func pageKey(kind string, q api.ListQuery) string {
	v := url.Values{}
	v.Set("page", fmt.Sprint(max(q.Page, 1)))
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprint(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	for k, val := range q.Filters {
		v.Set(k, val)
	}
	return kind + ":" + v.Encode()
}
