package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
)

type cartAddRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1,max=10000"`
}

type cartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0,max=10000"`
}

// getUser godoc
// @Summary Get a user
// @Tags users
// @Security BearerAuth
// @Param id path string true "user id"
// @Success 200 {object} models.User
// @Router /users/{id} [get]
func (g *Gateway) getUser(c *gin.Context) {
	user, err := g.services.Accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// updateUser godoc
// @Summary Update user fields
// @Tags users
// @Security BearerAuth
// @Param id path string true "user id"
// @Param patch body models.UserPatch true "fields to change"
// @Success 200 {object} models.User
// @Router /users/{id} [patch]
func (g *Gateway) updateUser(c *gin.Context) {
	var patch models.UserPatch
	if err := bindStrict(c, &patch); err != nil {
		_ = c.Error(err)
		return
	}
	user, err := g.services.Accounts.Update(c.Request.Context(), principalFrom(c), c.Param("id"), &patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// userOrders godoc
// @Summary List a user's orders
// @Tags orders
// @Security BearerAuth
// @Param id path string true "user id"
// @Success 200 {array} models.Order
// @Router /users/{id}/orders [get]
func (g *Gateway) userOrders(c *gin.Context) {
	orders, err := g.services.Accounts.Orders(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// placeOrder godoc
// @Summary Place an order
// @Tags orders
// @Security BearerAuth
// @Param id path string true "user id"
// @Param order body models.PlaceOrderInput true "checkout payload"
// @Success 201 {object} models.Order
// @Failure 400 {object} errorResponse
// @Router /users/{id}/orders [post]
func (g *Gateway) placeOrder(c *gin.Context) {
	var input models.PlaceOrderInput
	if err := bindJSON(c, &input); err != nil {
		_ = c.Error(err)
		return
	}
	order, err := g.services.Orders.Place(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// getCart godoc
// @Summary Get the cart
// @Tags cart
// @Security BearerAuth
// @Param id path string true "user id"
// @Success 200 {array} models.CartItem
// @Router /users/{id}/cart [get]
func (g *Gateway) getCart(c *gin.Context) {
	cart, err := g.services.Accounts.Cart(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// addToCart godoc
// @Summary Add a product to the cart
// @Tags cart
// @Security BearerAuth
// @Param id path string true "user id"
// @Param item body cartAddRequest true "product and quantity"
// @Success 200 {array} models.CartItem
// @Router /users/{id}/cart [post]
func (g *Gateway) addToCart(c *gin.Context) {
	var req cartAddRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := g.services.Accounts.AddToCart(c.Request.Context(), c.Param("id"), req.ProductID, req.Quantity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// setCartQuantity godoc
// @Summary Set a cart line quantity
// @Tags cart
// @Security BearerAuth
// @Param id path string true "user id"
// @Param productId path string true "product id"
// @Param body body cartQuantityRequest true "new quantity, 0 removes the line"
// @Success 200 {array} models.CartItem
// @Failure 400 {object} errorResponse
// @Router /users/{id}/cart/{productId} [patch]
func (g *Gateway) setCartQuantity(c *gin.Context) {
	var req cartQuantityRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	cart, err := g.services.Accounts.SetCartQuantity(c.Request.Context(), c.Param("id"), c.Param("productId"), *req.Quantity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// removeFromCart godoc
// @Summary Remove a cart line
// @Tags cart
// @Security BearerAuth
// @Param id path string true "user id"
// @Param productId path string true "product id"
// @Success 200 {array} models.CartItem
// @Router /users/{id}/cart/{productId} [delete]
func (g *Gateway) removeFromCart(c *gin.Context) {
	cart, err := g.services.Accounts.RemoveFromCart(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// clearCart godoc
// @Summary Clear the cart
// @Tags cart
// @Security BearerAuth
// @Param id path string true "user id"
// @Success 200 {object} messageResponse
// @Router /users/{id}/cart [delete]
func (g *Gateway) clearCart(c *gin.Context) {
	if err := g.services.Accounts.ClearCart(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "cart cleared"})
}

// getWishlist godoc
// @Summary Get the wishlist
// @Tags wishlist
// @Security BearerAuth
// @Param id path string true "user id"
// @Success 200 {array} string
// @Router /users/{id}/wishlist [get]
func (g *Gateway) getWishlist(c *gin.Context) {
	list, err := g.services.Accounts.Wishlist(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// addToWishlist godoc
// @Summary Add a product to the wishlist
// @Tags wishlist
// @Security BearerAuth
// @Param id path string true "user id"
// @Param productId path string true "product id"
// @Success 200 {array} string
// @Router /users/{id}/wishlist/{productId} [post]
func (g *Gateway) addToWishlist(c *gin.Context) {
	list, err := g.services.Accounts.AddToWishlist(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// removeFromWishlist godoc
// @Summary Remove a product from the wishlist
// @Tags wishlist
// @Security BearerAuth
// @Param id path string true "user id"
// @Param productId path string true "product id"
// @Success 200 {array} string
// @Router /users/{id}/wishlist/{productId} [delete]
func (g *Gateway) removeFromWishlist(c *gin.Context) {
	list, err := g.services.Accounts.RemoveFromWishlist(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// moveWishlistToCart godoc
// @Summary Move a wishlist product into the cart
// @Tags cart
// @Security BearerAuth
// @Param id path string true "user id"
// @Param productId path string true "product id"
// @Success 200 {object} models.User
// @Router /users/{id}/wishlist/{productId}/cart [post]
func (g *Gateway) moveWishlistToCart(c *gin.Context) {
	user, err := g.services.Accounts.MoveWishlistToCart(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": user.Cart, "wishlist": user.Wishlist})
}
