package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/cache"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

var (
	errBadCredentials = apperr.Unauthorized("invalid email or password")
	errBlocked        = apperr.Forbidden("user is blocked")
	errNotInCart      = apperr.NotFound("product not in cart")
	errNotInWishlist  = apperr.NotFound("product not in wishlist")
)

// AuthResult is returned by register and login.
type AuthResult struct {
	User *models.User `json:"user"`
	auth.TokenPair
}

// AccountService covers authentication, profiles, carts and wishlists.
type AccountService struct {
	deps   Deps
	logger *zap.Logger
}

func NewAccountService(deps Deps) *AccountService {
	deps = deps.withDefaults()
	return &AccountService{deps: deps, logger: deps.Logger.Named("accounts")}
}

func (s *AccountService) issue(user *models.User) (*AuthResult, error) {
	pair, err := s.deps.Tokens.Issue(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

func (s *AccountService) Register(ctx context.Context, input *models.RegisterInput) (*AuthResult, error) {
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if err := s.deps.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.Hex()))
	return s.issue(user)
}

func (s *AccountService) Login(ctx context.Context, input *models.LoginInput) (*AuthResult, error) {
	user, err := s.deps.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, input.Password)
	if err != nil {
		s.logger.Warn("Stored password is not a valid hash", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return nil, errBadCredentials
	}
	if !ok {
		return nil, errBadCredentials
	}
	if user.IsBlocked {
		return nil, errBlocked
	}
	return s.issue(user)
}

// Refresh exchanges a refresh token for a new access token. The user is
// re-read so a block or deletion takes effect immediately.
func (s *AccountService) Refresh(ctx context.Context, raw string) (string, error) {
	claims, err := s.deps.Tokens.Parse(raw, auth.RefreshToken)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnauthorized, err, "invalid refresh token")
	}
	principal, err := s.Authenticate(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	return s.deps.Tokens.IssueAccess(principal.ID, principal.IsAdmin)
}

// Authenticate resolves the caller of a request. Lookups are cached and the
// cache entry is dropped whenever the user changes.
func (s *AccountService) Authenticate(ctx context.Context, userID string) (*Principal, error) {
	key := cache.UserKey(userID)

	var principal Principal
	found, err := s.deps.Cache.GetJSON(ctx, key, &principal)
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		found = false
	}
	s.deps.Metrics.CacheLookup(found)

	if !found {
		user, err := s.deps.Users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, apperr.ErrUserNotFound) {
				return nil, apperr.Unauthorized("user no longer exists")
			}
			return nil, err
		}
		principal = Principal{ID: user.ID.Hex(), IsAdmin: user.IsAdmin, IsBlocked: user.IsBlocked}
		if err := s.deps.Cache.SetJSON(ctx, key, &principal, s.deps.CacheTTL); err != nil {
			s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	if principal.IsBlocked {
		return nil, errBlocked
	}
	return &principal, nil
}

func (s *AccountService) forget(ctx context.Context, userID string) {
	invalidate(ctx, s.deps.Cache, s.logger, []string{cache.UserKey(userID)})
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.deps.Users.FindByID(ctx, id)
}

// Update applies a profile patch on behalf of caller. Only admins may
// change the privilege flags.
func (s *AccountService) Update(ctx context.Context, caller *Principal, id string, patch *models.UserPatch) (*models.User, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, apperr.Validation("no fields to update")
	}
	if patch.TouchesPrivileges() && !caller.IsAdmin {
		return nil, apperr.Forbidden("only admins can change isAdmin or isBlocked")
	}

	p := *patch
	if p.Password != nil {
		hash, err := auth.HashPassword(*p.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = &hash
		p.Password = nil
	}

	user, err := s.deps.Users.Update(ctx, id, &p)
	if err != nil {
		return nil, err
	}
	s.forget(ctx, id)
	return user, nil
}

func (s *AccountService) Orders(ctx context.Context, id string) ([]models.Order, error) {
	user, err := s.deps.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Orders, nil
}

func (s *AccountService) Cart(ctx context.Context, id string) ([]models.CartItem, error) {
	user, err := s.deps.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Cart, nil
}

func checkStock(product *models.Product, qty int) error {
	if product.Stock <= 0 {
		return apperr.Validation("%s is out of stock", product.Name)
	}
	if !product.InStock(qty) {
		return apperr.Validation("only %d of %s left in stock", product.Stock, product.Name)
	}
	return nil
}

// addToCart snapshots product into cart or bumps the existing line.
func addToCart(cart []models.CartItem, product *models.Product, qty int) ([]models.CartItem, error) {
	id := product.ID.Hex()
	current := 0
	idx := -1
	for i := range cart {
		if cart[i].ProductID == id {
			idx = i
			current = cart[i].Quantity
			break
		}
	}
	if qty > models.MaxLineQuantity-current {
		return nil, apperr.Validation("quantity must be at most %d", models.MaxLineQuantity)
	}
	if err := checkStock(product, current+qty); err != nil {
		return nil, err
	}

	out := append([]models.CartItem{}, cart...)
	if idx >= 0 {
		out[idx].Quantity += qty
		return out, nil
	}
	return append(out, models.CartItem{
		ProductID: id,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
		Quantity:  qty,
	}), nil
}

func (s *AccountService) AddToCart(ctx context.Context, userID, productID string, qty int) ([]models.CartItem, error) {
	if qty < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	if qty > models.MaxLineQuantity {
		return nil, apperr.Validation("quantity must be at most %d", models.MaxLineQuantity)
	}
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	product, err := s.deps.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := addToCart(user.Cart, product, qty)
	if err != nil {
		return nil, err
	}
	updated, err := s.deps.Users.SetCart(ctx, userID, cart)
	if err != nil {
		return nil, err
	}
	return updated.Cart, nil
}

// SetCartQuantity overwrites the quantity of a cart line; zero removes it.
func (s *AccountService) SetCartQuantity(ctx context.Context, userID, productID string, qty int) ([]models.CartItem, error) {
	if qty < 0 {
		return nil, apperr.Validation("quantity cannot be negative")
	}
	if qty > models.MaxLineQuantity {
		return nil, apperr.Validation("quantity must be at most %d", models.MaxLineQuantity)
	}
	if qty == 0 {
		return s.RemoveFromCart(ctx, userID, productID)
	}

	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := user.CartIndex(productID)
	if idx < 0 {
		return nil, errNotInCart
	}
	product, err := s.deps.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(product, qty); err != nil {
		return nil, err
	}

	user.Cart[idx].Quantity = qty
	updated, err := s.deps.Users.SetCart(ctx, userID, user.Cart)
	if err != nil {
		return nil, err
	}
	return updated.Cart, nil
}

func (s *AccountService) RemoveFromCart(ctx context.Context, userID, productID string) ([]models.CartItem, error) {
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := user.CartIndex(productID)
	if idx < 0 {
		return nil, errNotInCart
	}
	cart := append(user.Cart[:idx:idx], user.Cart[idx+1:]...)
	updated, err := s.deps.Users.SetCart(ctx, userID, cart)
	if err != nil {
		return nil, err
	}
	return updated.Cart, nil
}

func (s *AccountService) ClearCart(ctx context.Context, userID string) error {
	_, err := s.deps.Users.SetCart(ctx, userID, []models.CartItem{})
	return err
}

func (s *AccountService) Wishlist(ctx context.Context, id string) ([]string, error) {
	user, err := s.deps.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Wishlist, nil
}

// AddToWishlist is idempotent.
func (s *AccountService) AddToWishlist(ctx context.Context, userID, productID string) ([]string, error) {
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	if user.InWishlist(productID) {
		return user.Wishlist, nil
	}
	updated, err := s.deps.Users.SetWishlist(ctx, userID, append(user.Wishlist, productID))
	if err != nil {
		return nil, err
	}
	return updated.Wishlist, nil
}

func withoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *AccountService) RemoveFromWishlist(ctx context.Context, userID, productID string) ([]string, error) {
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.InWishlist(productID) {
		return nil, errNotInWishlist
	}
	updated, err := s.deps.Users.SetWishlist(ctx, userID, withoutID(user.Wishlist, productID))
	if err != nil {
		return nil, err
	}
	return updated.Wishlist, nil
}

// MoveWishlistToCart takes the product off the wishlist and adds one unit
// to the cart in a single write.
func (s *AccountService) MoveWishlistToCart(ctx context.Context, userID, productID string) (*models.User, error) {
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.InWishlist(productID) {
		return nil, errNotInWishlist
	}
	product, err := s.deps.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := addToCart(user.Cart, product, 1)
	if err != nil {
		return nil, err
	}
	return s.deps.Users.SetCartAndWishlist(ctx, userID, cart, withoutID(user.Wishlist, productID))
}
