package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"food-ordering-api/middleware"
	"food-ordering-api/services"
)

type RestaurantHandler struct {
	catalog *services.CatalogService
}

func NewRestaurantHandler(catalog *services.CatalogService) *RestaurantHandler {
	return &RestaurantHandler{catalog: catalog}
}

// ListRestaurants returns active restaurants, or all of them for admins
func (h *RestaurantHandler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.catalog.ListRestaurants(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurants)
}

// GetRestaurant returns a single restaurant with its menu
func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.catalog.GetRestaurant(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// GetMenu returns the menu and active flag of a restaurant
func (h *RestaurantHandler) GetMenu(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	menu, err := h.catalog.GetMenu(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// GetOrderStatuses documents the order workflow in force
func (h *OrderHandler) GetOrderStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, h.orders.Transitions())
}

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports liveness and database reachability
func (h *HealthHandler) Health(c *gin.Context) {
	status, code, dbStatus := "healthy", http.StatusOK, "up"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		_ = c.Error(err)
		status, code, dbStatus = "unhealthy", http.StatusServiceUnavailable, "down"
	}
	c.JSON(code, gin.H{
		"status":   status,
		"service":  "Food Ordering API",
		"database": dbStatus,
	})
}
