package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-ordering-api/apperrors"
	"food-ordering-api/middleware"
	"food-ordering-api/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// VerifyAdminCodeRequest accepts the code under either key the web client
// has used.
type VerifyAdminCodeRequest struct {
	AdminCode string `json:"adminCode"`
	Code      string `json:"code"`
}

// Register creates a customer account
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// RegisterAdmin creates an admin account
func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.auth.RegisterAdmin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// VerifyAdminCode checks the shared admin signup code
func (h *AuthHandler) VerifyAdminCode(c *gin.Context) {
	var req VerifyAdminCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	code := req.AdminCode
	if code == "" {
		code = req.Code
	}
	if code == "" {
		respondError(c, apperrors.Validation("Admin code is required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": h.auth.VerifyAdminSignupCode(code)})
}

// Login authenticates a user and returns a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout revokes the presented token
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.GetToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the authenticated user's identity
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetIdentity(c))
}
