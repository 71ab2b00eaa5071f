package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
)

type adminListQuery struct {
	Keyword    string `form:"keyword"`
	Filter     string `form:"filter"`
	Status     string `form:"status"`
	Page       int    `form:"page"`
	PageNumber int    `form:"pageNumber"`
	PageSize   int    `form:"pageSize"`
}

func (q adminListQuery) page() int {
	if q.Page != 0 {
		return q.Page
	}
	return q.PageNumber
}

type limitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=0"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// dashboard godoc
// @Summary Dashboard counters
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} models.DashboardStats
// @Router /admin/dashboard [get]
func (g *Gateway) dashboard(c *gin.Context) {
	stats, err := g.services.Admin.Dashboard(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// listUsers godoc
// @Summary List users
// @Tags admin
// @Security BearerAuth
// @Param keyword query string false "name or email substring"
// @Param filter query string false "all, blocked or admin"
// @Param pageNumber query int false "page number"
// @Param pageSize query int false "page size"
// @Success 200 {object} service.UserPage
// @Router /admin/users [get]
func (g *Gateway) listUsers(c *gin.Context) {
	var q adminListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(bindingError(err))
		return
	}
	page, err := g.services.Admin.ListUsers(c.Request.Context(), models.UserQuery{
		Keyword:  q.Keyword,
		Filter:   models.UserFilter(q.Filter),
		Page:     q.page(),
		PageSize: q.PageSize,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// userStats godoc
// @Summary User counters
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} models.UserStats
// @Router /admin/users/stats [get]
func (g *Gateway) userStats(c *gin.Context) {
	stats, err := g.services.Admin.UserStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// toggleBlock godoc
// @Summary Block or unblock a user
// @Tags admin
// @Security BearerAuth
// @Param id path string true "user id"
// @Success 200 {object} service.BlockResult
// @Router /admin/users/{id}/block [patch]
func (g *Gateway) toggleBlock(c *gin.Context) {
	res, err := g.services.Admin.ToggleBlock(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// deleteUser godoc
// @Summary Delete a user
// @Tags admin
// @Security BearerAuth
// @Param id path string true "user id"
// @Success 200 {object} messageResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /admin/users/{id} [delete]
func (g *Gateway) deleteUser(c *gin.Context) {
	if err := g.services.Admin.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "user deleted"})
}

// listOrders godoc
// @Summary List orders across all users
// @Tags admin
// @Security BearerAuth
// @Param status query string false "Pending, Shipped, Delivered, Cancelled or all"
// @Param keyword query string false "customer name or order id substring"
// @Param pageNumber query int false "page number"
// @Param pageSize query int false "page size"
// @Success 200 {object} service.OrderPage
// @Router /admin/orders [get]
func (g *Gateway) listOrders(c *gin.Context) {
	var q adminListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(bindingError(err))
		return
	}
	page, err := g.services.Admin.ListOrders(c.Request.Context(), models.OrderQuery{
		Status:   q.Status,
		Keyword:  q.Keyword,
		Page:     q.page(),
		PageSize: q.PageSize,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// orderStats godoc
// @Summary Order counters
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} models.OrderStats
// @Router /admin/orders/stats [get]
func (g *Gateway) orderStats(c *gin.Context) {
	stats, err := g.services.Admin.OrderStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// updateOrderStatus godoc
// @Summary Move an order through the status workflow
// @Tags admin
// @Security BearerAuth
// @Param userId path string true "user id"
// @Param orderId path int true "order id"
// @Param body body statusRequest true "new status"
// @Success 200 {object} service.TransitionResult
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /admin/orders/{userId}/{orderId}/status [patch]
func (g *Gateway) updateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		_ = c.Error(apperr.Validation("invalid order id %q", c.Param("orderId")))
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	res, err := g.services.Orders.UpdateStatus(c.Request.Context(), c.Param("userId"), orderID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// productMovements godoc
// @Summary Stock ledger rows of a product
// @Tags admin
// @Security BearerAuth
// @Param id path string true "product id"
// @Param limit query int false "maximum rows"
// @Success 200 {array} models.StockMovement
// @Failure 400 {object} errorResponse
// @Router /admin/products/{id}/movements [get]
func (g *Gateway) productMovements(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(bindingError(err))
		return
	}
	rows, err := g.services.Admin.ProductMovements(c.Request.Context(), c.Param("id"), q.Limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// auditTrail godoc
// @Summary Audit entries for a user, product or order id
// @Tags admin
// @Security BearerAuth
// @Param entityId path string true "user, product or order id"
// @Param limit query int false "maximum entries"
// @Success 200 {array} repository.AuditLog
// @Failure 400 {object} errorResponse
// @Router /admin/audit/{entityId} [get]
func (g *Gateway) auditTrail(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(bindingError(err))
		return
	}
	entries, err := g.services.Admin.AuditTrail(c.Request.Context(), c.Param("entityId"), q.Limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
