// Package memory implements the product and user stores on top of maps.
// It backs the "memory" storage driver and the service and gateway tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductStore struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[primitive.ObjectID]models.Product)}
}

func (s *ProductStore) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = *product
	return nil
}

func (s *ProductStore) FindByID(_ context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.ErrProductNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[oid]
	if !ok {
		return nil, apperr.ErrProductNotFound
	}
	return &p, nil
}

func matchesProduct(p *models.Product, q models.ProductQuery) bool {
	if q.Keyword != "" {
		kw := strings.ToLower(q.Keyword)
		if !strings.Contains(strings.ToLower(p.Name), kw) &&
			!strings.Contains(strings.ToLower(p.Category), kw) {
			return false
		}
	}
	if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
		return false
	}
	if q.Premium != nil && p.Premium != *q.Premium {
		return false
	}
	return true
}

func sortProducts(products []*models.Product, by models.ProductSort) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch by {
		case models.SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.ID.Hex() < b.ID.Hex()
		case models.SortPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
			return a.ID.Hex() < b.ID.Hex()
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID.Hex() > b.ID.Hex()
		}
	})
}

func (s *ProductStore) Find(_ context.Context, q models.ProductQuery) ([]*models.Product, int64, error) {
	s.mu.RLock()
	matched := make([]*models.Product, 0)
	for _, p := range s.products {
		p := p
		if matchesProduct(&p, q) {
			matched = append(matched, &p)
		}
	}
	s.mu.RUnlock()

	sortProducts(matched, q.Sort)
	total := int64(len(matched))
	return paginate(matched, q.Page, q.PageSize), total, nil
}

func (s *ProductStore) Update(_ context.Context, id string, patch *models.ProductPatch) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[oid]
	if !ok {
		return nil, apperr.ErrProductNotFound
	}
	patch.Apply(&p)
	p.UpdatedAt = time.Now().UTC()
	s.products[oid] = p
	return &p, nil
}

func (s *ProductStore) Delete(_ context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[oid]; !ok {
		return apperr.ErrProductNotFound
	}
	delete(s.products, oid)
	return nil
}

// AdjustStock mirrors the conditional update of the mongo store.
func (s *ProductStore) AdjustStock(_ context.Context, id string, delta int) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[oid]
	if !ok {
		return nil, apperr.ErrProductNotFound
	}
	if delta < 0 && p.Stock < -delta {
		return nil, apperr.ErrInsufficientStock
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	s.products[oid] = p
	return &p, nil
}

func (s *ProductStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	page, pageSize = models.NormalizePage(page, pageSize, models.DefaultPageSize)
	start := models.Skip(page, pageSize)
	if start >= len(items) {
		return items[:0]
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
