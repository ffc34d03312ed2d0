package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/services"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req, clientMeta(c))
	if err != nil {
		respondError(c, err, "register")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req, clientMeta(c))
	if err != nil {
		respondError(c, err, "log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, clientMeta(c))
	if err != nil {
		respondError(c, err, "refresh token")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.LogoutRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err, "log out")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// CheckLogin handles POST /api/v1/auth/check-login
func (h *AuthHandler) CheckLogin(c *gin.Context) {
	var req models.CheckLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	available, err := h.authService.LoginAvailable(c.Request.Context(), req.Login)
	if err != nil {
		respondError(c, err, "check login")
		return
	}

	c.JSON(http.StatusOK, gin.H{"login": req.Login, "available": available})
}
