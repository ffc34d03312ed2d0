package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dsbeauty/salon-backend/internal/middleware"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/services"
)

// ClientErrorHandler receives crash reports from client applications
type ClientErrorHandler struct {
	errorLogService *services.ErrorLogService
}

// NewClientErrorHandler creates a new client error handler
func NewClientErrorHandler(errorLogService *services.ErrorLogService) *ClientErrorHandler {
	return &ClientErrorHandler{errorLogService: errorLogService}
}

// LogError handles POST /api/v1/client-errors
func (h *ClientErrorHandler) LogError(c *gin.Context) {
	var req models.LogErrorRequest
	if !bindJSON(c, &req) {
		return
	}

	var userID *int64
	if userCtx, ok := middleware.GetUserContext(c); ok {
		userID = &userCtx.UserID
	}

	entry, err := h.errorLogService.Record(c.Request.Context(), userID, &req, c.GetHeader("User-Agent"), c.GetHeader("X-App-Version"))
	if err != nil {
		respondError(c, err, "record client error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": entry.ID})
}
