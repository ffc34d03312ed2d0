package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/middleware"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/utils"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// InsufficientFundsResponse is returned when a debit exceeds the balance
type InsufficientFundsResponse struct {
	ErrorResponse
	Requested string `json:"requested"`
	Available string `json:"available"`
}

const dateLayout = "2006-01-02"

// respondError maps service errors onto HTTP responses. Unknown errors are
// logged and answered with 500.
func respondError(c *gin.Context, err error, operation string) {
	var validation *models.ValidationError
	var insufficient *models.InsufficientFundsError

	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, InsufficientFundsResponse{
			ErrorResponse: ErrorResponse{Error: "insufficient_funds", Message: err.Error(), Code: "INSUFFICIENT_FUNDS"},
			Requested:     insufficient.Requested.StringFixed(2),
			Available:     insufficient.Available.StringFixed(2),
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: validation.Error()})
	case errors.Is(err, models.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_amount", Message: err.Error()})
	case errors.Is(err, models.ErrRateNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "rate_not_found", Message: err.Error(), Code: "RATE_NOT_FOUND"})
	case errors.Is(err, models.ErrMasterTerminated):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "master_terminated", Message: err.Error()})
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrSalonNotFound),
		errors.Is(err, models.ErrMasterNotFound),
		errors.Is(err, models.ErrProcedureNotFound),
		errors.Is(err, models.ErrUnlockCodeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, models.ErrLoginTaken),
		errors.Is(err, models.ErrSalonNameTaken),
		errors.Is(err, models.ErrAlreadyMember):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict", Message: err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid_credentials", Message: err.Error(), Code: "INVALID_CREDENTIALS"})
	case errors.Is(err, models.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid_token", Message: err.Error(), Code: "INVALID_REFRESH_TOKEN"})
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"operation": operation,
			"path":      c.Request.URL.Path,
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to " + operation})
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

func userContext(c *gin.Context) (middleware.UserContext, bool) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User context not found",
		})
	}
	return userCtx, exists
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + name,
		})
		return 0, false
	}
	return id, true
}

// dateQuery parses ?date=YYYY-MM-DD, defaulting to today
func dateQuery(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now(), true
	}
	day, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "date must be formatted as YYYY-MM-DD",
		})
		return time.Time{}, false
	}
	return day, true
}

func clientMeta(c *gin.Context) models.ClientMeta {
	userAgent := c.GetHeader("User-Agent")
	return models.ClientMeta{
		DeviceType: utils.ParseUserAgent(userAgent).DeviceType,
		IPAddress:  utils.GetRealIP(c),
		UserAgent:  userAgent,
	}
}
