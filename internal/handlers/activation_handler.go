package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/config"
	"github.com/dsbeauty/salon-backend/internal/middleware"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/services"
)

// ActivationResponse reports the result of an activation check
type ActivationResponse struct {
	Status models.ActivationOutcome `json:"status"`
	Locked bool                     `json:"locked"`
}

// ActivationHandler serves unlock codes and the activation long polls
type ActivationHandler struct {
	activation *services.ActivationService
	timings    config.ActivationConfig
}

// NewActivationHandler creates a new activation handler
func NewActivationHandler(activation *services.ActivationService, timings config.ActivationConfig) *ActivationHandler {
	return &ActivationHandler{activation: activation, timings: timings}
}

// GetAccountCode handles GET /api/v1/auth/qrcode
func (h *ActivationHandler) GetAccountCode(c *gin.Context) {
	userCtx, ok := userContext(c)
	if !ok {
		return
	}
	h.respondCode(c, models.ActivationKey{UserID: userCtx.UserID, BlockType: models.BlockTypeAuth})
}

// GetSalonCode handles GET /api/v1/salons/:id/qrcode
func (h *ActivationHandler) GetSalonCode(c *gin.Context) {
	userCtx, ok := userContext(c)
	if !ok {
		return
	}
	salonID, _ := middleware.GetSalonID(c)
	h.respondCode(c, models.ActivationKey{UserID: userCtx.UserID, BlockType: models.BlockTypeSalon, SalonID: &salonID})
}

func (h *ActivationHandler) respondCode(c *gin.Context, key models.ActivationKey) {
	code, err := h.activation.GetCode(c.Request.Context(), key)
	if err != nil {
		respondError(c, err, "get unlock code")
		return
	}

	c.JSON(http.StatusOK, models.UnlockCodeResponse{
		Code:      code.Code,
		BlockType: code.BlockType,
		SalonID:   code.SalonID,
	})
}

// ActivateCode handles DELETE /api/v1/auth/qrcode/activate/:code
func (h *ActivationHandler) ActivateCode(c *gin.Context) {
	code, err := h.activation.Activate(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err, "activate unlock code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Unlock code activated",
		"user_id":    code.UserID,
		"block_type": code.BlockType,
		"salon_id":   code.SalonID,
	})
}

// ReleaseSalon handles DELETE /api/v1/salons/:id/activation. It releases
// the caller's own salon lock unless ?user_id= names another member's.
func (h *ActivationHandler) ReleaseSalon(c *gin.Context) {
	userCtx, ok := userContext(c)
	if !ok {
		return
	}
	salonID, _ := middleware.GetSalonID(c)

	userID := userCtx.UserID
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "user_id must be a positive integer"})
			return
		}
		userID = parsed
	}

	key := models.ActivationKey{UserID: userID, BlockType: models.BlockTypeSalon, SalonID: &salonID}
	if err := h.activation.Release(c.Request.Context(), key); err != nil {
		respondError(c, err, "release salon")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Salon activated", "user_id": userID, "salon_id": salonID})
}

// CheckAccountActivation handles GET /api/v1/auth/qrcode/activate/check-activation.
// It blocks until the caller's account unlock code is deleted or the
// account wait elapses.
func (h *ActivationHandler) CheckAccountActivation(c *gin.Context) {
	userCtx, ok := userContext(c)
	if !ok {
		return
	}
	h.await(c, models.ActivationKey{UserID: userCtx.UserID, BlockType: models.BlockTypeAuth}, h.timings.AccountMaxWait)
}

// CheckSalonActivation handles GET /api/v1/salons/:id/check-activation.
// It blocks until the caller's unlock code for the salon is deleted or the
// salon wait elapses.
func (h *ActivationHandler) CheckSalonActivation(c *gin.Context) {
	userCtx, ok := userContext(c)
	if !ok {
		return
	}
	salonID, _ := middleware.GetSalonID(c)
	h.await(c, models.ActivationKey{UserID: userCtx.UserID, BlockType: models.BlockTypeSalon, SalonID: &salonID}, h.timings.SalonMaxWait)
}

func (h *ActivationHandler) await(c *gin.Context, key models.ActivationKey, maxWait time.Duration) {
	outcome, err := h.activation.AwaitActivation(c.Request.Context(), key, maxWait, h.timings.PollInterval)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logrus.WithFields(logrus.Fields{
				"user_id":    key.UserID,
				"block_type": key.BlockType,
			}).Debug("Activation check abandoned by client")
			c.Abort()
			return
		}
		respondError(c, err, "check activation")
		return
	}

	if outcome == models.ActivationTimedOut {
		c.JSON(http.StatusAccepted, ActivationResponse{Status: outcome, Locked: true})
		return
	}
	c.JSON(http.StatusOK, ActivationResponse{Status: outcome, Locked: false})
}
