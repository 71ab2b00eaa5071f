package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

// TransitionResult reports the outcome of a status update.
type TransitionResult struct {
	Order       *models.Order `json:"order"`
	Changed     bool          `json:"changed"`
	Message     string        `json:"message"`
	StockEffect string        `json:"stockEffect"`
}

// OrderService places orders and drives the status workflow together with
// its inventory side effects.
type OrderService struct {
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
}

func NewOrderService(deps Deps) *OrderService {
	deps = deps.withDefaults()
	return &OrderService{deps: deps, logger: deps.Logger.Named("orders"), now: time.Now}
}

// Place validates the checkout payload and appends a Pending order to the
// user. Stock is untouched until the order ships.
func (s *OrderService) Place(ctx context.Context, userID string, input *models.PlaceOrderInput) (*models.Order, error) {
	if err := input.Validate(); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	id := now.UnixMilli()
	for {
		if _, existing := user.FindOrder(id); existing == nil {
			break
		}
		id++
	}

	order := models.Order{
		ID:            id,
		Items:         input.Items,
		Total:         input.Total,
		PaymentMethod: input.PaymentMethod,
		BillingInfo:   input.BillingInfo,
		Date:          now,
		Status:        models.OrderPending,
	}
	if err := s.deps.Users.AppendOrder(ctx, userID, order); err != nil {
		return nil, err
	}

	s.deps.Metrics.OrderPlaced()
	s.deps.Events.Publish(events.OrderPlaced{UserID: userID, OrderID: id, Total: order.Total, Items: len(order.Items)})
	s.logger.Info("Order placed",
		zap.String("user_id", userID),
		zap.Int64("order_id", id),
		zap.Float64("total", order.Total))
	return &order, nil
}

// stockLine is the total quantity of one product across an order's items.
type stockLine struct {
	productID string
	quantity  int
}

func stockLines(items []models.OrderItem) ([]stockLine, error) {
	index := make(map[string]int, len(items))
	lines := make([]stockLine, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > models.MaxLineQuantity {
			return nil, apperr.Validation("order line %s has invalid quantity %d", item.ProductID, item.Quantity)
		}
		if i, ok := index[item.ProductID]; ok {
			lines[i].quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, stockLine{productID: item.ProductID, quantity: item.Quantity})
	}
	return lines, nil
}

// UpdateStatus moves an order to the requested status, applying the stock
// effect of the transition first.
func (s *OrderService) UpdateStatus(ctx context.Context, userID string, orderID int64, requested string) (*TransitionResult, error) {
	next, err := models.ParseOrderStatus(requested)
	if err != nil {
		return nil, apperr.Validation("invalid status %q: must be one of Pending, Shipped, Delivered, Cancelled", requested)
	}

	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, order := user.FindOrder(orderID)
	if order == nil {
		return nil, apperr.ErrOrderNotFound
	}

	current := order.Status
	if current == next {
		return &TransitionResult{Order: order, Changed: false, Message: "nothing to do", StockEffect: models.StockNone.String()}, nil
	}
	if !current.CanTransitionTo(next) {
		return nil, apperr.Validation("cannot change order status from %s to %s", current, next)
	}

	effect := models.StockEffectFor(current, next)

	var applied []stockLine
	if effect != models.StockNone {
		lines, err := stockLines(order.Items)
		if err != nil {
			return nil, err
		}
		if effect == models.StockDeduct {
			if err := s.checkAvailable(ctx, lines); err != nil {
				return nil, err
			}
			applied, err = s.adjust(ctx, lines, -1)
		} else {
			applied, err = s.adjust(ctx, lines, 1)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.deps.Users.SetOrderStatus(ctx, userID, orderID, next); err != nil {
		s.compensate(ctx, applied, effect)
		return nil, err
	}
	order.Status = next

	s.afterTransition(ctx, userID, orderID, current, next, effect, applied)
	return &TransitionResult{
		Order:       order,
		Changed:     true,
		Message:     fmt.Sprintf("order status updated to %s", next),
		StockEffect: effect.String(),
	}, nil
}

// checkAvailable verifies every line before any stock is written. Products
// deleted since checkout are skipped.
func (s *OrderService) checkAvailable(ctx context.Context, lines []stockLine) error {
	for _, line := range lines {
		product, err := s.deps.Products.FindByID(ctx, line.productID)
		if err != nil {
			if errors.Is(err, apperr.ErrProductNotFound) {
				s.logger.Warn("Skipping stock check for missing product", zap.String("product_id", line.productID))
				continue
			}
			return err
		}
		if !product.InStock(line.quantity) {
			return apperr.Wrap(apperr.KindValidation, apperr.ErrInsufficientStock,
				fmt.Sprintf("insufficient stock for %s: %d available, %d required", product.Name, product.Stock, line.quantity))
		}
	}
	return nil
}

// adjust applies sign*quantity to every line. On failure the lines already
// applied are reverted and the error is returned.
func (s *OrderService) adjust(ctx context.Context, lines []stockLine, sign int) ([]stockLine, error) {
	applied := make([]stockLine, 0, len(lines))
	for _, line := range lines {
		_, err := s.deps.Products.AdjustStock(ctx, line.productID, sign*line.quantity)
		if err == nil {
			applied = append(applied, line)
			continue
		}
		if errors.Is(err, apperr.ErrProductNotFound) {
			s.logger.Warn("Skipping stock change for missing product", zap.String("product_id", line.productID))
			continue
		}

		s.revert(ctx, applied, -sign)
		if errors.Is(err, apperr.ErrInsufficientStock) {
			return nil, apperr.Wrap(apperr.KindValidation, apperr.ErrInsufficientStock,
				fmt.Sprintf("insufficient stock for product %s", line.productID))
		}
		return nil, err
	}
	return applied, nil
}

func (s *OrderService) revert(ctx context.Context, lines []stockLine, sign int) {
	for _, line := range lines {
		if _, err := s.deps.Products.AdjustStock(ctx, line.productID, sign*line.quantity); err != nil {
			s.logger.Error("Failed to revert stock change",
				zap.String("product_id", line.productID),
				zap.Int("delta", sign*line.quantity),
				zap.Error(err))
		}
	}
}

func (s *OrderService) compensate(ctx context.Context, applied []stockLine, effect models.StockEffect) {
	switch effect {
	case models.StockDeduct:
		s.revert(ctx, applied, 1)
	case models.StockRestore:
		s.revert(ctx, applied, -1)
	}
}

func (s *OrderService) afterTransition(ctx context.Context, userID string, orderID int64, from, to models.OrderStatus, effect models.StockEffect, applied []stockLine) {
	if len(applied) > 0 {
		sign := 1
		reason := "order_cancelled"
		if effect == models.StockDeduct {
			sign = -1
			reason = "order_shipped"
		}

		ids := make([]string, 0, len(applied))
		movements := make([]models.StockMovement, 0, len(applied))
		units := 0
		for _, line := range applied {
			ids = append(ids, line.productID)
			units += line.quantity
			movements = append(movements, models.StockMovement{
				ProductID: line.productID,
				UserID:    userID,
				OrderID:   orderID,
				Delta:     sign * line.quantity,
				Reason:    reason,
				CreatedAt: s.now().UTC(),
			})
		}

		if s.deps.Ledger != nil {
			if err := s.deps.Ledger.Record(ctx, movements); err != nil {
				s.logger.Error("Failed to record stock movements", zap.Int64("order_id", orderID), zap.Error(err))
			}
		}
		invalidateProducts(ctx, s.deps.Cache, s.logger, ids...)
		s.deps.Metrics.StockMoved(effect, units)
	}

	s.deps.Metrics.OrderTransition(from, to)
	s.deps.Events.Publish(events.OrderStatusChanged{UserID: userID, OrderID: orderID, From: from, To: to, Stock: effect})
	s.logger.Info("Order status changed",
		zap.String("user_id", userID),
		zap.Int64("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Stringer("stock", effect))
}
