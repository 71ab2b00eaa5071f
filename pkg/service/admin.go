package service

import (
	"context"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/cache"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

type BlockResult struct {
	Message   string `json:"message"`
	IsBlocked bool   `json:"isBlocked"`
	ID        string `json:"id"`
}

// AdminService backs the admin dashboard.
type AdminService struct {
	deps   Deps
	logger *zap.Logger
}

func NewAdminService(deps Deps) *AdminService {
	deps = deps.withDefaults()
	return &AdminService{deps: deps, logger: deps.Logger.Named("admin")}
}

func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	users, err := s.deps.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.deps.Products.Count(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.deps.Users.OrderStats(ctx)
	if err != nil {
		return nil, err
	}
	return &models.DashboardStats{
		UsersCount:    users,
		ProductsCount: products,
		TotalOrders:   orders.TotalOrders,
		TotalSales:    orders.TotalRevenue,
		ShippedOrders: orders.ShippedOrders,
	}, nil
}

func (s *AdminService) ListUsers(ctx context.Context, q models.UserQuery) (*UserPage, error) {
	q.Normalize()
	users, total, err := s.deps.Users.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &UserPage{
		Users: users,
		Page:  q.Page,
		Pages: models.PageCount(total, q.PageSize),
		Total: total,
	}, nil
}

func (s *AdminService) UserStats(ctx context.Context) (models.UserStats, error) {
	return s.deps.Users.Stats(ctx)
}

// ToggleBlock flips the blocked flag. The cached principal is dropped so the
// user's next request sees the new state.
func (s *AdminService) ToggleBlock(ctx context.Context, caller *Principal, userID string) (*BlockResult, error) {
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin {
		return nil, apperr.Validation("cannot block an admin user")
	}

	blocked := !user.IsBlocked
	if _, err := s.deps.Users.Update(ctx, userID, &models.UserPatch{IsBlocked: &blocked}); err != nil {
		return nil, err
	}
	invalidate(ctx, s.deps.Cache, s.logger, []string{cache.UserKey(userID)})
	s.deps.Events.Publish(events.UserBlockChanged{UserID: userID, Blocked: blocked, ActorID: caller.ID})

	message := "user unblocked"
	if blocked {
		message = "user blocked"
	}
	s.logger.Info("User block toggled", zap.String("user_id", userID), zap.Bool("blocked", blocked), zap.String("by", caller.ID))
	return &BlockResult{Message: message, IsBlocked: blocked, ID: userID}, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin {
		return apperr.Validation("cannot delete an admin user")
	}
	if err := s.deps.Users.Delete(ctx, userID); err != nil {
		return err
	}
	invalidate(ctx, s.deps.Cache, s.logger, []string{cache.UserKey(userID)})
	s.logger.Info("User deleted", zap.String("user_id", userID))
	return nil
}

func (s *AdminService) ListOrders(ctx context.Context, q models.OrderQuery) (*OrderPage, error) {
	q.Normalize()
	orders, total, err := s.deps.Users.ListOrders(ctx, q)
	if err != nil {
		return nil, err
	}
	return &OrderPage{
		Orders: orders,
		Page:   q.Page,
		Pages:  models.PageCount(total, q.PageSize),
		Total:  total,
	}, nil
}

func (s *AdminService) OrderStats(ctx context.Context) (models.OrderStats, error) {
	return s.deps.Users.OrderStats(ctx)
}

// ProductMovements lists ledger rows for a product, newest first. Without a
// ledger the list is empty.
func (s *AdminService) ProductMovements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error) {
	if s.deps.Ledger == nil {
		return []models.StockMovement{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.deps.Ledger.ListByProduct(ctx, productID, limit)
}

// AuditTrail lists audit entries for a user, product or order id, newest
// first. Without an audit store the list is empty.
func (s *AdminService) AuditTrail(ctx context.Context, entityID string, limit int) ([]*repository.AuditLog, error) {
	if s.deps.Audit == nil {
		return []*repository.AuditLog{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.deps.Audit.GetAuditLogs(ctx, entityID, int64(limit))
}
