package gateway

import (
	"context"
	"net/http"
	"time"

	_ "github.com/example/storefront/docs"
	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the business services the gateway routes to.
type Services struct {
	Catalog  *service.CatalogService
	Accounts *service.AccountService
	Orders   *service.OrderService
	Admin    *service.AdminService
	Tokens   *auth.TokenManager
}

type Gateway struct {
	config   *config.Config
	services Services
	metrics  *metrics.Metrics
	store    Pinger
	logger   *zap.Logger
	router   *gin.Engine
}

func NewGateway(cfg *config.Config, services Services, m *metrics.Metrics, store Pinger, logger *zap.Logger) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	router.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(metricsMiddleware(m))
	router.Use(errorMiddleware(logger))

	g := &Gateway{
		config:   cfg,
		services: services,
		metrics:  m,
		store:    store,
		logger:   logger,
		router:   router,
	}
	g.setupRoutes()
	return g
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}

func (g *Gateway) setupRoutes() {
	g.router.GET("/health", g.health)
	if g.metrics != nil {
		g.router.GET("/metrics", gin.WrapH(g.metrics.Handler()))
	}
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := g.router.Group("/api")
	authed := g.requireAuth()
	self := requireSelfOrAdmin("id")
	admin := requireAdmin()

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", g.login)
		authRoutes.POST("/refresh", g.refresh)
	}

	products := api.Group("/products")
	{
		products.GET("", g.listProducts)
		products.GET("/:id", g.getProduct)
		products.POST("", authed, admin, g.createProduct)
		products.PATCH("/:id", authed, admin, g.updateProduct)
		products.DELETE("/:id", authed, admin, g.deleteProduct)
	}

	users := api.Group("/users")
	{
		users.POST("", g.register)
		users.GET("", authed, admin, g.listUsers)

		user := users.Group("/:id", authed, self)
		user.GET("", g.getUser)
		user.PATCH("", g.updateUser)
		user.GET("/orders", g.userOrders)
		user.POST("/orders", g.placeOrder)
		user.GET("/cart", g.getCart)
		user.POST("/cart", g.addToCart)
		user.PATCH("/cart/:productId", g.setCartQuantity)
		user.DELETE("/cart/:productId", g.removeFromCart)
		user.DELETE("/cart", g.clearCart)
		user.GET("/wishlist", g.getWishlist)
		user.POST("/wishlist/:productId", g.addToWishlist)
		user.DELETE("/wishlist/:productId", g.removeFromWishlist)
		user.POST("/wishlist/:productId/cart", g.moveWishlistToCart)
	}

	adminRoutes := api.Group("/admin", authed, admin)
	{
		adminRoutes.GET("/dashboard", g.dashboard)
		adminRoutes.GET("/users", g.listUsers)
		adminRoutes.GET("/users/stats", g.userStats)
		adminRoutes.PATCH("/users/:id/block", g.toggleBlock)
		adminRoutes.DELETE("/users/:id", g.deleteUser)
		adminRoutes.GET("/orders", g.listOrders)
		adminRoutes.GET("/orders/stats", g.orderStats)
		adminRoutes.PATCH("/orders/:userId/:orderId/status", g.updateOrderStatus)
		adminRoutes.GET("/products/:id/movements", g.productMovements)
		adminRoutes.GET("/audit/:entityId", g.auditTrail)
	}
}

// Handler exposes the router so callers can mount it in their own server.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// NewServer builds the HTTP server for the configured address.
func (g *Gateway) NewServer() *http.Server {
	return &http.Server{
		Addr:              g.config.Server.Addr(),
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (g *Gateway) health(c *gin.Context) {
	if g.store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := g.store.Ping(ctx); err != nil {
		g.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}
