package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// register godoc
// @Summary Register a user
// @Tags auth
// @Param user body models.RegisterInput true "new user"
// @Success 201 {object} service.AuthResult
// @Failure 409 {object} errorResponse
// @Router /users [post]
func (g *Gateway) register(c *gin.Context) {
	var input models.RegisterInput
	if err := bindStrict(c, &input); err != nil {
		_ = c.Error(err)
		return
	}
	res, err := g.services.Accounts.Register(c.Request.Context(), &input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// login godoc
// @Summary Log in
// @Tags auth
// @Param credentials body models.LoginInput true "credentials"
// @Success 200 {object} service.AuthResult
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Router /auth/login [post]
func (g *Gateway) login(c *gin.Context) {
	var input models.LoginInput
	if err := bindJSON(c, &input); err != nil {
		_ = c.Error(err)
		return
	}
	res, err := g.services.Accounts.Login(c.Request.Context(), &input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// refresh godoc
// @Summary Exchange a refresh token for an access token
// @Tags auth
// @Param body body refreshRequest true "refresh token"
// @Success 200 {object} map[string]string
// @Failure 401 {object} errorResponse
// @Router /auth/refresh [post]
func (g *Gateway) refresh(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	token, err := g.services.Accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}
