package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"food-ordering-api/handlers"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
)

// Options configures the engine built by NewRouter.
type Options struct {
	APIPrefix   string
	UploadDir   string
	CORSOrigins []string
	Logger      *logrus.Logger
}

// Handlers groups the resource handlers mounted by SetupRoutes.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Restaurants *handlers.RestaurantHandler
	Orders      *handlers.OrderHandler
	Health      *handlers.HealthHandler
}

// NewRouter builds the gin engine with the global middleware stack and all
// routes mounted.
func NewRouter(opts Options, authn middleware.Authenticator, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(opts.Logger),
		cors.New(corsConfig(opts.CORSOrigins)),
	)

	r.GET("/health", h.Health.Health)
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	SetupRoutes(r, opts.APIPrefix, authn, h)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func SetupRoutes(r *gin.Engine, prefix string, authn middleware.Authenticator, h Handlers) {
	authRequired := middleware.AuthRequired(authn)
	optionalAuth := middleware.OptionalAuth(authn)
	adminOnly := middleware.RoleRequired(models.RoleAdmin)

	api := r.Group(prefix)

	// ── Auth ───────────────────────────────────────────────────────
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/verify-admin-code", h.Auth.VerifyAdminCode)
		authGroup.POST("/register-admin", h.Auth.RegisterAdmin)
		authGroup.POST("/logout", authRequired, h.Auth.Logout)
		authGroup.GET("/me", authRequired, h.Auth.Me)
	}

	// ── Restaurants & menus (admins also see inactive ones) ────────
	restaurants := api.Group("/restaurants")
	{
		restaurants.GET("", optionalAuth, h.Restaurants.ListRestaurants)
		restaurants.GET("/:id", optionalAuth, h.Restaurants.GetRestaurant)
		restaurants.GET("/:id/menu", optionalAuth, h.Restaurants.GetMenu)
		restaurants.PATCH("/:id/status", authRequired, adminOnly, h.Restaurants.UpdateRestaurantStatus)
	}

	// ── Orders ─────────────────────────────────────────────────────
	api.GET("/orders/statuses", h.Orders.GetOrderStatuses)
	orders := api.Group("/orders")
	orders.Use(authRequired)
	{
		orders.POST("", h.Orders.PlaceOrder)
		orders.GET("", h.Orders.GetMyOrders)
		orders.GET("/:orderId", h.Orders.GetOrderDetail)
		orders.PATCH("/:orderId/cancel", h.Orders.CancelOrder)
	}

	// ── Admin ──────────────────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Use(authRequired, adminOnly)
	{
		admin.GET("/orders", h.Orders.AdminGetAllOrders)
		admin.PATCH("/orders/:orderId/status", h.Orders.AdminUpdateOrderStatus)

		admin.GET("/restaurants", h.Restaurants.AdminListRestaurants)
		admin.POST("/restaurants", h.Restaurants.CreateRestaurant)
		admin.PATCH("/restaurants/:id", h.Restaurants.UpdateRestaurant)
		admin.POST("/restaurants/:id/menu", h.Restaurants.AddMenuItem)
		admin.PUT("/restaurants/:id/menu/:itemId", h.Restaurants.EditMenuItem)
	}
}
