package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProducts(t *testing.T, s *ProductStore) []*models.Product {
	t.Helper()
	products := []*models.Product{
		{Name: "Trail Shoe", Price: 120, Category: "Shoes", Stock: 4},
		{Name: "Road Shoe", Price: 80, Category: "shoes", Stock: 0, Premium: true},
		{Name: "Rain Jacket", Price: 200, Category: "Jackets", Stock: 9, Premium: true},
	}
	for _, p := range products {
		require.NoError(t, s.Create(context.Background(), p))
		time.Sleep(time.Millisecond)
	}
	return products
}

func TestProductStoreFind(t *testing.T) {
	ctx := context.Background()
	s := NewProductStore()
	seeded := seedProducts(t, s)

	t.Run("newest first", func(t *testing.T) {
		got, total, err := s.Find(ctx, models.ProductQuery{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Equal(t, seeded[2].ID, got[0].ID)
	})

	t.Run("keyword and category are case-insensitive", func(t *testing.T) {
		got, total, err := s.Find(ctx, models.ProductQuery{Keyword: "SHOE", Category: "SHOES", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, got, 2)
	})

	t.Run("premium and price sort", func(t *testing.T) {
		premium := true
		got, _, err := s.Find(ctx, models.ProductQuery{Premium: &premium, Sort: models.SortPriceAsc, Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Road Shoe", got[0].Name)
		assert.Equal(t, "Rain Jacket", got[1].Name)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		got, total, err := s.Find(ctx, models.ProductQuery{Page: 5, PageSize: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Empty(t, got)
	})

	t.Run("overflowing page number is empty", func(t *testing.T) {
		got, total, err := s.Find(ctx, models.ProductQuery{Page: math.MaxInt, PageSize: 12})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Empty(t, got)
	})
}

func TestProductStoreAdjustStock(t *testing.T) {
	ctx := context.Background()
	s := NewProductStore()
	p := &models.Product{Name: "Lamp", Price: 10, Stock: 2}
	require.NoError(t, s.Create(ctx, p))

	_, err := s.AdjustStock(ctx, p.ID.Hex(), -3)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	got, err := s.AdjustStock(ctx, p.ID.Hex(), -2)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	got, err = s.AdjustStock(ctx, p.ID.Hex(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	_, err = s.AdjustStock(ctx, "bogus", 1)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestUserStoreEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	require.NoError(t, s.Create(ctx, &models.User{FullName: "Ann", Email: "Ann@Example.com"}))

	err := s.Create(ctx, &models.User{FullName: "Other Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)

	bob := &models.User{FullName: "Bob", Email: "bob@example.com"}
	require.NoError(t, s.Create(ctx, bob))
	taken := "ANN@example.com"
	_, err = s.Update(ctx, bob.ID.Hex(), &models.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)

	found, err := s.FindByEmail(ctx, "ANN@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "Ann", found.FullName)
}

func TestUserStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	u := &models.User{FullName: "Ann", Email: "ann@example.com"}
	require.NoError(t, s.Create(ctx, u))

	_, err := s.SetCart(ctx, u.ID.Hex(), []models.CartItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	got, err := s.FindByID(ctx, u.ID.Hex())
	require.NoError(t, err)
	got.Cart[0].Quantity = 99

	again, err := s.FindByID(ctx, u.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, again.Cart[0].Quantity)
}

func TestUserStoreOrders(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	ann := &models.User{FullName: "Ann Lee", Email: "ann@example.com"}
	bob := &models.User{FullName: "Bob Stone", Email: "bob@example.com"}
	require.NoError(t, s.Create(ctx, ann))
	require.NoError(t, s.Create(ctx, bob))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := s.SetCart(ctx, ann.ID.Hex(), []models.CartItem{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	require.NoError(t, s.AppendOrder(ctx, ann.ID.Hex(), models.Order{ID: 1001, Total: 10.10, Date: base, Status: models.OrderPending}))
	require.NoError(t, s.AppendOrder(ctx, ann.ID.Hex(), models.Order{ID: 1002, Total: 20.20, Date: base.Add(time.Hour), Status: models.OrderShipped}))
	require.NoError(t, s.AppendOrder(ctx, bob.ID.Hex(), models.Order{ID: 2001, Total: 5, Date: base.Add(2 * time.Hour), Status: "placed"}))

	got, err := s.FindByID(ctx, ann.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, got.Cart)
	assert.Len(t, got.Orders, 2)

	t.Run("list newest first", func(t *testing.T) {
		orders, total, err := s.ListOrders(ctx, models.OrderQuery{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Equal(t, int64(2001), orders[0].OrderID)
		assert.Equal(t, models.OrderPending, orders[0].Status)
		assert.Equal(t, bob.ID.Hex(), orders[0].UserID)
	})

	t.Run("status filter folds legacy values", func(t *testing.T) {
		orders, total, err := s.ListOrders(ctx, models.OrderQuery{Status: "pending", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, orders, 2)
	})

	t.Run("keyword matches customer or order id", func(t *testing.T) {
		_, total, err := s.ListOrders(ctx, models.OrderQuery{Keyword: "stone", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)

		orders, total, err := s.ListOrders(ctx, models.OrderQuery{Keyword: "100", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Equal(t, int64(1002), orders[0].OrderID)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := s.OrderStats(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, stats.TotalOrders)
		assert.InDelta(t, 35.30, stats.TotalRevenue, 0.001)
		assert.EqualValues(t, 1, stats.ShippedOrders)
	})

	t.Run("set status", func(t *testing.T) {
		require.NoError(t, s.SetOrderStatus(ctx, ann.ID.Hex(), 1001, models.OrderCancelled))
		err := s.SetOrderStatus(ctx, ann.ID.Hex(), 9999, models.OrderCancelled)
		assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
	})
}

func TestUserStoreListAndStats(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	users := []*models.User{
		{FullName: "Ann", Email: "ann@example.com", JoinDate: base, IsAdmin: true},
		{FullName: "Bob", Email: "bob@example.com", JoinDate: base.Add(time.Hour), IsBlocked: true},
		{FullName: "Cid", Email: "cid@example.com", JoinDate: base.Add(2 * time.Hour)},
	}
	for _, u := range users {
		require.NoError(t, s.Create(ctx, u))
	}

	got, total, err := s.List(ctx, models.UserQuery{Filter: models.UserFilterAll, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, "Cid", got[0].FullName)

	got, total, err = s.List(ctx, models.UserQuery{Filter: models.UserFilterBlocked, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Bob", got[0].FullName)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{TotalUsers: 3, Admins: 1, Blocked: 1, ActiveUsers: 2}, stats)
}
