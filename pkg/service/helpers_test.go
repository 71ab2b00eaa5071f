package service

import (
	"context"
	"testing"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/cache"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	products *memory.ProductStore
	users    *memory.UserStore
	cache    *cache.Memory
	deps     Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	products := memory.NewProductStore()
	users := memory.NewUserStore()
	c := cache.NewMemory(time.Minute, 0)
	t.Cleanup(func() { _ = c.Close() })

	return &testEnv{
		products: products,
		users:    users,
		cache:    c,
		deps: Deps{
			Products: products,
			Users:    users,
			Cache:    c,
			Tokens: auth.NewTokenManager(config.AuthConfig{
				Secret:     "test-secret",
				AccessTTL:  15 * time.Minute,
				RefreshTTL: time.Hour,
			}),
			Logger: zap.NewNop(),
		},
	}
}

func (e *testEnv) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Image: "/img/" + name + ".png", Category: "misc", Stock: stock}
	require.NoError(t, e.products.Create(context.Background(), p))
	return p
}

func (e *testEnv) user(t *testing.T, name, email string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	u := &models.User{FullName: name, Email: email, PasswordHash: hash}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) stock(t *testing.T, p *models.Product) int {
	t.Helper()
	got, err := e.products.FindByID(context.Background(), p.ID.Hex())
	require.NoError(t, err)
	return got.Stock
}

func orderInput(lines ...models.OrderItem) *models.PlaceOrderInput {
	order := models.Order{Items: lines}
	total, _ := order.ItemsTotal().Round(2).Float64()
	return &models.PlaceOrderInput{
		Items:         lines,
		Total:         total,
		PaymentMethod: "card",
		BillingInfo: models.BillingInfo{
			Name:    "Ann Lee",
			Email:   "ann@example.com",
			Address: "1 Main St",
			City:    "Springfield",
		},
	}
}

func line(p *models.Product, qty int) models.OrderItem {
	return models.OrderItem{ProductID: p.ID.Hex(), Name: p.Name, Price: p.Price, Image: p.Image, Quantity: qty}
}
