package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
)

type productListQuery struct {
	Keyword    string `form:"keyword"`
	Category   string `form:"category"`
	Premium    string `form:"premium"`
	Sort       string `form:"sort"`
	Page       int    `form:"page"`
	PageNumber int    `form:"pageNumber"`
	PageSize   int    `form:"pageSize"`
}

func (q productListQuery) toQuery() (models.ProductQuery, error) {
	out := models.ProductQuery{
		Keyword:  q.Keyword,
		Category: q.Category,
		Sort:     models.ParseProductSort(q.Sort),
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if out.Page == 0 {
		out.Page = q.PageNumber
	}
	if q.Premium != "" {
		premium, err := strconv.ParseBool(q.Premium)
		if err != nil {
			return out, apperr.Validation("premium must be true or false")
		}
		out.Premium = &premium
	}
	return out, nil
}

// listProducts godoc
// @Summary List products
// @Tags products
// @Param keyword query string false "name or category substring"
// @Param category query string false "exact category, or premium"
// @Param sort query string false "lowToHigh or highToLow"
// @Param page query int false "page number"
// @Param pageSize query int false "page size"
// @Success 200 {object} service.ProductPage
// @Router /products [get]
func (g *Gateway) listProducts(c *gin.Context) {
	var raw productListQuery
	if err := c.ShouldBindQuery(&raw); err != nil {
		_ = c.Error(bindingError(err))
		return
	}
	q, err := raw.toQuery()
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := g.services.Catalog.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// getProduct godoc
// @Summary Get a product
// @Tags products
// @Param id path string true "product id"
// @Success 200 {object} models.Product
// @Failure 404 {object} errorResponse
// @Router /products/{id} [get]
func (g *Gateway) getProduct(c *gin.Context) {
	product, err := g.services.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// createProduct godoc
// @Summary Create a product
// @Tags products
// @Security BearerAuth
// @Param product body models.ProductInput true "product"
// @Success 201 {object} models.Product
// @Router /products [post]
func (g *Gateway) createProduct(c *gin.Context) {
	var input models.ProductInput
	if err := bindStrict(c, &input); err != nil {
		_ = c.Error(err)
		return
	}
	product, err := g.services.Catalog.Create(c.Request.Context(), &input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// updateProduct godoc
// @Summary Update product fields
// @Tags products
// @Security BearerAuth
// @Param id path string true "product id"
// @Param patch body models.ProductPatch true "fields to change"
// @Success 200 {object} models.Product
// @Router /products/{id} [patch]
func (g *Gateway) updateProduct(c *gin.Context) {
	var patch models.ProductPatch
	if err := bindStrict(c, &patch); err != nil {
		_ = c.Error(err)
		return
	}
	product, err := g.services.Catalog.Update(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// deleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Security BearerAuth
// @Param id path string true "product id"
// @Success 200 {object} messageResponse
// @Router /products/{id} [delete]
func (g *Gateway) deleteProduct(c *gin.Context) {
	if err := g.services.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "product deleted"})
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Message string `json:"message"`
}
