package service

import (
	"context"
	"math"
	"testing"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAccountService(env.deps)

	res, err := svc.Register(ctx, &models.RegisterInput{FullName: "Ann Lee", Email: "Ann@Example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, auth.IsHashed(res.User.PasswordHash))

	_, err = svc.Register(ctx, &models.RegisterInput{FullName: "Ann Again", Email: "ann@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)

	logged, err := svc.Login(ctx, &models.LoginInput{Email: "ANN@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, logged.User.ID)

	_, err = svc.Login(ctx, &models.LoginInput{Email: "ann@example.com", Password: "wrong"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Login(ctx, &models.LoginInput{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestBlockedUserIsRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	accounts := NewAccountService(env.deps)
	admin := NewAdminService(env.deps)
	u := env.user(t, "Bob Stone", "bob@example.com")

	principal, err := accounts.Authenticate(ctx, u.ID.Hex())
	require.NoError(t, err)
	assert.False(t, principal.IsBlocked)

	res, err := admin.ToggleBlock(ctx, &Principal{ID: "admin", IsAdmin: true}, u.ID.Hex())
	require.NoError(t, err)
	assert.True(t, res.IsBlocked)
	assert.Equal(t, "user blocked", res.Message)

	_, err = accounts.Authenticate(ctx, u.ID.Hex())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err), "cached principal must be dropped on block")

	_, err = accounts.Login(ctx, &models.LoginInput{Email: "bob@example.com", Password: "secret123"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	res, err = admin.ToggleBlock(ctx, &Principal{ID: "admin", IsAdmin: true}, u.ID.Hex())
	require.NoError(t, err)
	assert.False(t, res.IsBlocked)
	_, err = accounts.Authenticate(ctx, u.ID.Hex())
	assert.NoError(t, err)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAccountService(env.deps)
	res, err := svc.Register(ctx, &models.RegisterInput{FullName: "Ann Lee", Email: "ann@example.com", Password: "secret123"})
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	claims, err := env.deps.Tokens.Parse(access, auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.Hex(), claims.UserID)

	_, err = svc.Refresh(ctx, res.AccessToken)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err), "access tokens cannot refresh")

	require.NoError(t, env.users.Delete(ctx, res.User.ID.Hex()))
	require.NoError(t, env.cache.Delete(ctx, "user:"+res.User.ID.Hex()))
	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAccountService(env.deps)
	u := env.user(t, "Ann Lee", "ann@example.com")
	self := &Principal{ID: u.ID.Hex()}

	_, err := svc.Update(ctx, self, u.ID.Hex(), &models.UserPatch{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	admin := true
	_, err = svc.Update(ctx, self, u.ID.Hex(), &models.UserPatch{IsAdmin: &admin})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	name := "Ann Marie Lee"
	password := "newsecret"
	updated, err := svc.Update(ctx, self, u.ID.Hex(), &models.UserPatch{FullName: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)
	ok, err := auth.CheckPassword(updated.PasswordHash, password)
	require.NoError(t, err)
	assert.True(t, ok)

	promoted, err := svc.Update(ctx, &Principal{ID: "root", IsAdmin: true}, u.ID.Hex(), &models.UserPatch{IsAdmin: &admin})
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	principal, err := svc.Authenticate(ctx, u.ID.Hex())
	require.NoError(t, err)
	assert.True(t, principal.IsAdmin)
}

func TestCart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAccountService(env.deps)
	u := env.user(t, "Ann Lee", "ann@example.com")
	lamp := env.product(t, "Lamp", 20, 3)
	empty := env.product(t, "Sold Out", 5, 0)
	uid := u.ID.Hex()

	cart, err := svc.AddToCart(ctx, uid, lamp.ID.Hex(), 1)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, "Lamp", cart[0].Name)
	assert.Equal(t, 20.0, cart[0].Price)

	cart, err = svc.AddToCart(ctx, uid, lamp.ID.Hex(), 2)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, 3, cart[0].Quantity)

	_, err = svc.AddToCart(ctx, uid, lamp.ID.Hex(), 1)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "cannot exceed stock")

	_, err = svc.AddToCart(ctx, uid, empty.ID.Hex(), 1)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.AddToCart(ctx, uid, lamp.ID.Hex(), 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	bulk := env.product(t, "Bulk", 1, math.MaxInt)
	_, err = svc.AddToCart(ctx, uid, bulk.ID.Hex(), models.MaxLineQuantity+1)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = svc.AddToCart(ctx, uid, bulk.ID.Hex(), models.MaxLineQuantity)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, uid, bulk.ID.Hex(), math.MaxInt)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "line total cannot pass the cap")
	_, err = svc.SetCartQuantity(ctx, uid, bulk.ID.Hex(), 1<<62)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = svc.RemoveFromCart(ctx, uid, bulk.ID.Hex())
	require.NoError(t, err)

	cart, err = svc.SetCartQuantity(ctx, uid, lamp.ID.Hex(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cart[0].Quantity)

	cart, err = svc.SetCartQuantity(ctx, uid, lamp.ID.Hex(), 0)
	require.NoError(t, err)
	assert.Empty(t, cart)

	_, err = svc.RemoveFromCart(ctx, uid, lamp.ID.Hex())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.AddToCart(ctx, uid, lamp.ID.Hex(), 1)
	require.NoError(t, err)
	require.NoError(t, svc.ClearCart(ctx, uid))
	cart, err = svc.Cart(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAccountService(env.deps)
	u := env.user(t, "Ann Lee", "ann@example.com")
	lamp := env.product(t, "Lamp", 20, 3)
	uid := u.ID.Hex()

	list, err := svc.AddToWishlist(ctx, uid, lamp.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{lamp.ID.Hex()}, list)

	list, err = svc.AddToWishlist(ctx, uid, lamp.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.AddToWishlist(ctx, uid, "000000000000000000000000")
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)

	user, err := svc.MoveWishlistToCart(ctx, uid, lamp.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, user.Wishlist)
	require.Len(t, user.Cart, 1)
	assert.Equal(t, 1, user.Cart[0].Quantity)

	_, err = svc.MoveWishlistToCart(ctx, uid, lamp.ID.Hex())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.AddToWishlist(ctx, uid, lamp.ID.Hex())
	require.NoError(t, err)
	list, err = svc.RemoveFromWishlist(ctx, uid, lamp.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, list)
}
