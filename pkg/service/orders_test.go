package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository/memory"
	"github.com/example/storefront/pkg/service/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type OrderServiceSuite struct {
	suite.Suite
	ctx    context.Context
	env    *testEnv
	ctrl   *gomock.Controller
	events *mocks.MockEventPublisher
	ledger *mocks.MockMovementRecorder
	svc    *OrderService
	user   *models.User
}

func (s *OrderServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.env = newTestEnv(s.T())
	s.ctrl = gomock.NewController(s.T())
	s.events = mocks.NewMockEventPublisher(s.ctrl)
	s.ledger = mocks.NewMockMovementRecorder(s.ctrl)

	s.env.deps.Events = s.events
	s.env.deps.Ledger = s.ledger
	s.svc = NewOrderService(s.env.deps)
	s.user = s.env.user(s.T(), "Ann Lee", "ann@example.com")
}

func (s *OrderServiceSuite) fixedNow() time.Time {
	return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
}

func (s *OrderServiceSuite) place(items ...models.OrderItem) *models.Order {
	s.events.EXPECT().Publish(gomock.AssignableToTypeOf(events.OrderPlaced{}))
	order, err := s.svc.Place(s.ctx, s.user.ID.Hex(), orderInput(items...))
	s.Require().NoError(err)
	return order
}

func (s *OrderServiceSuite) expectTransition(order *models.Order, from, to models.OrderStatus, effect models.StockEffect) {
	s.events.EXPECT().Publish(events.OrderStatusChanged{
		UserID:  s.user.ID.Hex(),
		OrderID: order.ID,
		From:    from,
		To:      to,
		Stock:   effect,
	})
}

func (s *OrderServiceSuite) TestShipThenCancelRestoresStock() {
	s.svc.now = s.fixedNow
	p := s.env.product(s.T(), "Lamp", 20, 5)
	order := s.place(line(p, 3))
	s.Equal(5, s.env.stock(s.T(), p), "placement leaves stock alone")

	s.ledger.EXPECT().Record(gomock.Any(), []models.StockMovement{{
		ProductID: p.ID.Hex(), UserID: s.user.ID.Hex(), OrderID: order.ID,
		Delta: -3, Reason: "order_shipped", CreatedAt: s.fixedNow(),
	}}).Return(nil)
	s.expectTransition(order, models.OrderPending, models.OrderShipped, models.StockDeduct)

	res, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "shipped")
	s.Require().NoError(err)
	s.True(res.Changed)
	s.Equal(models.OrderShipped, res.Order.Status)
	s.Equal("deduct", res.StockEffect)
	s.Equal(2, s.env.stock(s.T(), p))

	s.ledger.EXPECT().Record(gomock.Any(), gomock.Len(1)).Return(nil)
	s.expectTransition(order, models.OrderShipped, models.OrderCancelled, models.StockRestore)

	res, err = s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Cancelled")
	s.Require().NoError(err)
	s.Equal(models.OrderCancelled, res.Order.Status)
	s.Equal(5, s.env.stock(s.T(), p))
}

func (s *OrderServiceSuite) TestShipWithInsufficientStockIsRejected() {
	lamp := s.env.product(s.T(), "Lamp", 20, 5)
	desk := s.env.product(s.T(), "Desk", 150, 1)
	order := s.place(line(lamp, 2), line(desk, 2))

	_, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Shipped")
	s.Require().Error(err)
	s.ErrorIs(err, apperr.ErrInsufficientStock)
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	s.Equal(5, s.env.stock(s.T(), lamp), "no line is deducted when any line is short")
	s.Equal(1, s.env.stock(s.T(), desk))

	user, err := s.env.users.FindByID(s.ctx, s.user.ID.Hex())
	s.Require().NoError(err)
	s.Equal(models.OrderPending, user.Orders[0].Status)
}

func (s *OrderServiceSuite) TestRepeatedProductLinesAreCheckedTogether() {
	p := s.env.product(s.T(), "Lamp", 20, 3)
	order := s.place(line(p, 2), line(p, 2))

	_, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Shipped")
	s.ErrorIs(err, apperr.ErrInsufficientStock)
	s.Equal(3, s.env.stock(s.T(), p))
}

func (s *OrderServiceSuite) TestSameStatusIsNoop() {
	p := s.env.product(s.T(), "Lamp", 20, 5)
	order := s.place(line(p, 1))

	res, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "pending")
	s.Require().NoError(err)
	s.False(res.Changed)
	s.Equal("nothing to do", res.Message)
	s.Equal(5, s.env.stock(s.T(), p))
}

func (s *OrderServiceSuite) TestPendingCancelLeavesStockAlone() {
	p := s.env.product(s.T(), "Lamp", 20, 5)
	order := s.place(line(p, 2))
	s.expectTransition(order, models.OrderPending, models.OrderCancelled, models.StockNone)

	res, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Cancelled")
	s.Require().NoError(err)
	s.Equal("none", res.StockEffect)
	s.Equal(5, s.env.stock(s.T(), p))
}

func (s *OrderServiceSuite) TestOversizedQuantityIsRejectedAtPlacement() {
	p := s.env.product(s.T(), "Lamp", 0, 5)

	_, err := s.svc.Place(s.ctx, s.user.ID.Hex(), orderInput(line(p, 1<<62), line(p, 1<<62)))
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
	s.ErrorContains(err, "quantity must be at most")

	user, err := s.env.users.FindByID(s.ctx, s.user.ID.Hex())
	s.Require().NoError(err)
	s.Empty(user.Orders)
}

func (s *OrderServiceSuite) TestStoredOversizedQuantityCannotShip() {
	p := s.env.product(s.T(), "Lamp", 0, 5)
	order := models.Order{
		ID:     42,
		Items:  []models.OrderItem{line(p, 1<<62), line(p, 1<<62)},
		Status: models.OrderPending,
	}
	s.Require().NoError(s.env.users.AppendOrder(s.ctx, s.user.ID.Hex(), order))

	_, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Shipped")
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
	s.Equal(5, s.env.stock(s.T(), p), "stock never goes negative")

	user, err := s.env.users.FindByID(s.ctx, s.user.ID.Hex())
	s.Require().NoError(err)
	s.Equal(models.OrderPending, user.Orders[0].Status)

	s.expectTransition(&order, models.OrderPending, models.OrderCancelled, models.StockNone)
	_, err = s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Cancelled")
	s.Require().NoError(err, "an order without a stock effect can still be cancelled")
	s.Equal(5, s.env.stock(s.T(), p))
}

func (s *OrderServiceSuite) TestInvalidTransitions() {
	p := s.env.product(s.T(), "Lamp", 20, 5)
	order := s.place(line(p, 1))

	_, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Delivered")
	s.Equal(apperr.KindValidation, apperr.KindOf(err), "pending cannot skip shipping")

	_, err = s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Lost")
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	s.expectTransition(order, models.OrderPending, models.OrderCancelled, models.StockNone)
	_, err = s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Cancelled")
	s.Require().NoError(err)

	for _, next := range []string{"Pending", "Shipped", "Delivered"} {
		_, err = s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, next)
		s.Equal(apperr.KindValidation, apperr.KindOf(err), "cancelled -> %s", next)
	}
	s.Equal(5, s.env.stock(s.T(), p))
}

func (s *OrderServiceSuite) TestNotFound() {
	_, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), 42, "Shipped")
	s.ErrorIs(err, apperr.ErrOrderNotFound)

	_, err = s.svc.UpdateStatus(s.ctx, "000000000000000000000000", 42, "Shipped")
	s.ErrorIs(err, apperr.ErrUserNotFound)
}

func (s *OrderServiceSuite) TestMissingProductIsSkipped() {
	lamp := s.env.product(s.T(), "Lamp", 20, 5)
	gone := s.env.product(s.T(), "Gone", 10, 5)
	order := s.place(line(lamp, 1), line(gone, 1))
	s.Require().NoError(s.env.products.Delete(s.ctx, gone.ID.Hex()))

	s.ledger.EXPECT().Record(gomock.Any(), gomock.Len(1)).Return(nil)
	s.expectTransition(order, models.OrderPending, models.OrderShipped, models.StockDeduct)

	_, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Shipped")
	s.Require().NoError(err)
	s.Equal(4, s.env.stock(s.T(), lamp))
}

func (s *OrderServiceSuite) TestLedgerFailureDoesNotFailTransition() {
	p := s.env.product(s.T(), "Lamp", 20, 5)
	order := s.place(line(p, 1))

	s.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("mysql down"))
	s.expectTransition(order, models.OrderPending, models.OrderShipped, models.StockDeduct)

	_, err := s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Shipped")
	s.Require().NoError(err)
	s.Equal(4, s.env.stock(s.T(), p))
}

func (s *OrderServiceSuite) TestShipInvalidatesCachedProduct() {
	p := s.env.product(s.T(), "Lamp", 20, 5)
	catalog := NewCatalogService(s.env.deps)
	cached, err := catalog.Get(s.ctx, p.ID.Hex())
	s.Require().NoError(err)
	s.Equal(5, cached.Stock)

	order := s.place(line(p, 2))
	s.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	s.expectTransition(order, models.OrderPending, models.OrderShipped, models.StockDeduct)
	_, err = s.svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Shipped")
	s.Require().NoError(err)

	fresh, err := catalog.Get(s.ctx, p.ID.Hex())
	s.Require().NoError(err)
	s.Equal(3, fresh.Stock)
}

// failingStatusStore loses every status write.
type failingStatusStore struct {
	*memory.UserStore
}

func (failingStatusStore) SetOrderStatus(context.Context, string, int64, models.OrderStatus) error {
	return errors.New("write conflict")
}

func (s *OrderServiceSuite) TestStatusWriteFailureRevertsStock() {
	p := s.env.product(s.T(), "Lamp", 20, 5)
	order := s.place(line(p, 2))

	deps := s.env.deps
	deps.Users = failingStatusStore{s.env.users}
	svc := NewOrderService(deps)

	_, err := svc.UpdateStatus(s.ctx, s.user.ID.Hex(), order.ID, "Shipped")
	s.Require().Error(err)
	s.Equal(5, s.env.stock(s.T(), p))
}

func (s *OrderServiceSuite) TestPlaceRoundTrip() {
	p := s.env.product(s.T(), "Lamp", 19.99, 5)
	_, err := s.env.users.SetCart(s.ctx, s.user.ID.Hex(), []models.CartItem{{ProductID: p.ID.Hex(), Name: p.Name, Price: p.Price, Quantity: 3}})
	s.Require().NoError(err)

	order := s.place(line(p, 3))
	s.Equal(models.OrderPending, order.Status)
	s.InDelta(59.97, order.Total, 0.0001)

	user, err := s.env.users.FindByID(s.ctx, s.user.ID.Hex())
	s.Require().NoError(err)
	s.Empty(user.Cart)
	s.Require().Len(user.Orders, 1)
	s.Equal(order.ID, user.Orders[0].ID)
	s.Equal(order.Items, user.Orders[0].Items)
}

func (s *OrderServiceSuite) TestPlaceRejectsWrongTotal() {
	p := s.env.product(s.T(), "Lamp", 10, 5)
	input := orderInput(line(p, 2))
	input.Total = 19.5

	_, err := s.svc.Place(s.ctx, s.user.ID.Hex(), input)
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
	s.Contains(apperr.Message(err), "does not match")
}

func (s *OrderServiceSuite) TestPlaceBumpsCollidingIDs() {
	s.svc.now = s.fixedNow
	p := s.env.product(s.T(), "Lamp", 10, 5)

	first := s.place(line(p, 1))
	second := s.place(line(p, 1))
	s.Equal(s.fixedNow().UnixMilli(), first.ID)
	s.Equal(first.ID+1, second.ID)
}

func TestOrderService(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}
