package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/cache"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

// CatalogService serves product reads through the cache and keeps the cache
// coherent on writes.
type CatalogService struct {
	deps   Deps
	logger *zap.Logger
}

func NewCatalogService(deps Deps) *CatalogService {
	deps = deps.withDefaults()
	return &CatalogService{deps: deps, logger: deps.Logger.Named("catalog")}
}

// listKey encodes a normalized query into a cache key.
func listKey(q models.ProductQuery) string {
	v := url.Values{}
	v.Set("k", q.Keyword)
	v.Set("c", q.Category)
	if q.Premium != nil {
		v.Set("p", strconv.FormatBool(*q.Premium))
	}
	v.Set("s", string(q.Sort))
	v.Set("n", strconv.Itoa(q.Page))
	v.Set("z", strconv.Itoa(q.PageSize))
	return cache.ProductListPrefix + v.Encode()
}

func (s *CatalogService) lookup(ctx context.Context, key string, dest interface{}) bool {
	found, err := s.deps.Cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		found = false
	}
	s.deps.Metrics.CacheLookup(found)
	return found
}

func (s *CatalogService) store(ctx context.Context, key string, value interface{}) {
	if err := s.deps.Cache.SetJSON(ctx, key, value, s.deps.CacheTTL); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) List(ctx context.Context, q models.ProductQuery) (*ProductPage, error) {
	q.Normalize()
	key := listKey(q)

	var page ProductPage
	if s.lookup(ctx, key, &page) {
		return &page, nil
	}

	products, total, err := s.deps.Products.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	page = ProductPage{
		Products: products,
		Page:     q.Page,
		Pages:    models.PageCount(total, q.PageSize),
		Total:    total,
	}
	s.store(ctx, key, &page)
	return &page, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	key := cache.ProductKey(id)

	var product models.Product
	if s.lookup(ctx, key, &product) {
		return &product, nil
	}

	p, err := s.deps.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, p)
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, input *models.ProductInput) (*models.Product, error) {
	product := input.Product()
	if err := s.deps.Products.Create(ctx, product); err != nil {
		return nil, err
	}
	invalidate(ctx, s.deps.Cache, s.logger, nil, cache.ProductListPrefix)
	s.deps.Events.Publish(events.ProductChanged{ProductID: product.ID.Hex(), Change: events.ProductCreated})

	s.logger.Info("Product created", zap.String("product_id", product.ID.Hex()), zap.String("name", product.Name))
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, patch *models.ProductPatch) (*models.Product, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, apperr.Validation("no fields to update")
	}
	product, err := s.deps.Products.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	invalidateProducts(ctx, s.deps.Cache, s.logger, id)
	s.deps.Events.Publish(events.ProductChanged{ProductID: id, Change: events.ProductUpdated})
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.deps.Products.Delete(ctx, id); err != nil {
		return err
	}
	invalidateProducts(ctx, s.deps.Cache, s.logger, id)
	s.deps.Events.Publish(events.ProductChanged{ProductID: id, Change: events.ProductDeleted})

	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}
