package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"food-ordering-api/apperrors"
	"food-ordering-api/middleware"
	"food-ordering-api/services"
)

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

// AdminListRestaurants returns every restaurant, active or not
func (h *RestaurantHandler) AdminListRestaurants(c *gin.Context) {
	h.ListRestaurants(c)
}

// CreateRestaurant registers a new restaurant with an empty menu
func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	var req services.CreateRestaurantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	restaurant, err := h.catalog.CreateRestaurant(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, restaurant)
}

// UpdateRestaurant applies a partial update to restaurant details
func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.RestaurantPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	restaurant, err := h.catalog.UpdateRestaurant(c.Request.Context(), middleware.GetIdentity(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// UpdateRestaurantStatus toggles whether a restaurant is active
func (h *RestaurantHandler) UpdateRestaurantStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.IsActive == nil {
		respondError(c, apperrors.Validation("isActive is required"))
		return
	}
	restaurant, err := h.catalog.UpdateRestaurantStatus(c.Request.Context(), middleware.GetIdentity(c), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// AddMenuItem adds an item to the menu; accepts JSON or a multipart form
// with an optional "image" file
func (h *RestaurantHandler) AddMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !checkFormPrice(c, true) {
		return
	}
	var req services.MenuItemInput
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	image, ok := formImage(c)
	if !ok {
		return
	}
	item, err := h.catalog.AddMenuItem(c.Request.Context(), middleware.GetIdentity(c), id, req, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// EditMenuItem merges the given fields into an existing menu item
func (h *RestaurantHandler) EditMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !checkFormPrice(c, false) {
		return
	}
	var req services.MenuItemPatch
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	image, ok := formImage(c)
	if !ok {
		return
	}
	item, err := h.catalog.EditMenuItem(c.Request.Context(), middleware.GetIdentity(c), id, c.Param("itemId"), req, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// checkFormPrice rejects a form-encoded price that is blank or not a number.
// Form binding would otherwise turn "" into 0. JSON bodies are left to the
// binder, where a missing price stays nil.
func checkFormPrice(c *gin.Context, required bool) bool {
	if !isFormRequest(c) {
		return true
	}
	raw, present := c.GetPostForm("price")
	raw = strings.TrimSpace(raw)
	switch {
	case !present && !required:
		return true
	case raw == "":
		respondError(c, apperrors.Validation("price is required"))
		return false
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		respondError(c, apperrors.Validation("price must be a number"))
		return false
	}
	return true
}

func isFormRequest(c *gin.Context) bool {
	ct := c.ContentType()
	return strings.HasPrefix(ct, "multipart/form-data") || ct == "application/x-www-form-urlencoded"
}

// formImage returns the optional "image" upload of a multipart request.
func formImage(c *gin.Context) (*multipart.FileHeader, bool) {
	if c.ContentType() != "multipart/form-data" {
		return nil, true
	}
	image, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, true
	}
	if err != nil {
		bindError(c, err)
		return nil, false
	}
	return image, true
}
