// Package service holds the storefront's business rules. Handlers call into
// these services; the services talk to storage only through the narrow
// interfaces declared here.
package service

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/cache"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . AuditReader,EventPublisher,MovementRecorder

type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Find(ctx context.Context, q models.ProductQuery) ([]*models.Product, int64, error)
	Update(ctx context.Context, id string, patch *models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	// AdjustStock adds delta to the stock. Negative deltas fail with
	// apperr.ErrInsufficientStock instead of going below zero.
	AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error)
	Count(ctx context.Context) (int64, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, q models.UserQuery) ([]*models.User, int64, error)
	Update(ctx context.Context, id string, patch *models.UserPatch) (*models.User, error)
	SetCart(ctx context.Context, id string, cart []models.CartItem) (*models.User, error)
	SetWishlist(ctx context.Context, id string, wishlist []string) (*models.User, error)
	SetCartAndWishlist(ctx context.Context, id string, cart []models.CartItem, wishlist []string) (*models.User, error)
	// AppendOrder adds the order and empties the cart in one write.
	AppendOrder(ctx context.Context, id string, order models.Order) error
	SetOrderStatus(ctx context.Context, userID string, orderID int64, status models.OrderStatus) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (models.UserStats, error)
	OrderStats(ctx context.Context) (models.OrderStats, error)
	ListOrders(ctx context.Context, q models.OrderQuery) ([]models.OrderSummary, int64, error)
}

type EventPublisher interface {
	Publish(e events.Event)
}

// MovementRecorder is the stock ledger.
type MovementRecorder interface {
	Record(ctx context.Context, movements []models.StockMovement) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]models.StockMovement, error)
}

// AuditReader reads back the audit trail.
type AuditReader interface {
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*repository.AuditLog, error)
}

// Deps are the collaborators shared by every service. Cache, Events,
// Ledger, Audit and Metrics are optional.
type Deps struct {
	Products ProductStore
	Users    UserStore
	Cache    cache.Store
	Events   EventPublisher
	Ledger   MovementRecorder
	Audit    AuditReader
	Metrics  *metrics.Metrics
	Tokens   *auth.TokenManager
	Logger   *zap.Logger
	CacheTTL time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Events == nil {
		d.Events = events.Discard{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 5 * time.Minute
	}
	return d
}

// Principal is the authenticated caller as seen by the services.
type Principal struct {
	ID        string `json:"id"`
	IsAdmin   bool   `json:"isAdmin"`
	IsBlocked bool   `json:"isBlocked"`
}

type ProductPage struct {
	Products []*models.Product `json:"products"`
	Page     int               `json:"page"`
	Pages    int               `json:"pages"`
	Total    int64             `json:"total"`
}

type UserPage struct {
	Users []*models.User `json:"users"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
	Total int64          `json:"total"`
}

type OrderPage struct {
	Orders []models.OrderSummary `json:"orders"`
	Page   int                   `json:"page"`
	Pages  int                   `json:"pages"`
	Total  int64                 `json:"total"`
}

// invalidate drops cache keys. Cache failures only cost freshness, so they
// are logged and swallowed.
func invalidate(ctx context.Context, store cache.Store, logger *zap.Logger, keys []string, prefixes ...string) {
	if len(keys) > 0 {
		if err := store.Delete(ctx, keys...); err != nil {
			logger.Warn("Failed to delete cache keys", zap.Strings("keys", keys), zap.Error(err))
		}
	}
	for _, prefix := range prefixes {
		if err := store.DeletePrefix(ctx, prefix); err != nil {
			logger.Warn("Failed to delete cache prefix", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}

func invalidateProducts(ctx context.Context, store cache.Store, logger *zap.Logger, ids ...string) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cache.ProductKey(id))
	}
	invalidate(ctx, store, logger, keys, cache.ProductListPrefix)
}
