package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dsbeauty/salon-backend/internal/middleware"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/services"
)

// SalonHandler handles salons, memberships, procedures and salon reports
type SalonHandler struct {
	salonService  *services.SalonService
	masterService *services.MasterService
	reportService *services.ReportService
}

// NewSalonHandler creates a new salon handler
func NewSalonHandler(salonService *services.SalonService, masterService *services.MasterService, reportService *services.ReportService) *SalonHandler {
	return &SalonHandler{
		salonService:  salonService,
		masterService: masterService,
		reportService: reportService,
	}
}

// CreateSalon handles POST /api/v1/salons
func (h *SalonHandler) CreateSalon(c *gin.Context) {
	userCtx, ok := userContext(c)
	if !ok {
		return
	}

	var req models.CreateSalonRequest
	if !bindJSON(c, &req) {
		return
	}

	salon, err := h.salonService.CreateSalon(c.Request.Context(), userCtx.UserID, &req)
	if err != nil {
		respondError(c, err, "create salon")
		return
	}

	c.JSON(http.StatusCreated, salon)
}

// JoinSalon handles POST /api/v1/salons/join
func (h *SalonHandler) JoinSalon(c *gin.Context) {
	userCtx, ok := userContext(c)
	if !ok {
		return
	}

	var req models.JoinSalonRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.salonService.JoinSalon(c.Request.Context(), userCtx.UserID, &req)
	if err != nil {
		respondError(c, err, "join salon")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MySalons handles GET /api/v1/salons/my
func (h *SalonHandler) MySalons(c *gin.Context) {
	userCtx, ok := userContext(c)
	if !ok {
		return
	}

	salons, err := h.salonService.MySalons(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondError(c, err, "list salons")
		return
	}

	c.JSON(http.StatusOK, gin.H{"salons": salons})
}

// ListMasters handles GET /api/v1/salons/:id/masters
func (h *SalonHandler) ListMasters(c *gin.Context) {
	salonID, _ := middleware.GetSalonID(c)

	roster, err := h.masterService.ListRoster(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, err, "list masters")
		return
	}

	c.JSON(http.StatusOK, gin.H{"masters": roster})
}

// ListProcedures handles GET /api/v1/salons/:id/procedures
func (h *SalonHandler) ListProcedures(c *gin.Context) {
	salonID, _ := middleware.GetSalonID(c)

	procedures, err := h.salonService.ListProcedures(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, err, "list procedures")
		return
	}

	c.JSON(http.StatusOK, gin.H{"procedures": procedures})
}

// Statistics handles GET /api/v1/salons/:id/statistics
func (h *SalonHandler) Statistics(c *gin.Context) {
	salonID, _ := middleware.GetSalonID(c)

	stats, err := h.reportService.DailyStatistics(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, err, "load statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}

// CreateProcedure handles POST /api/v1/procedures
func (h *SalonHandler) CreateProcedure(c *gin.Context) {
	var req models.CreateProcedureRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireMember(c, h.salonService, req.SalonID) {
		return
	}

	procedure, err := h.salonService.CreateProcedure(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "create procedure")
		return
	}

	c.JSON(http.StatusCreated, procedure)
}

// requireMember answers 403 unless the caller belongs to salonID. Routes
// whose salon comes from the request body or a looked-up record use it in
// place of the RequireSalonMember middleware.
func requireMember(c *gin.Context, salons middleware.MembershipChecker, salonID int64) bool {
	userCtx, ok := userContext(c)
	if !ok {
		return false
	}

	member, err := salons.IsMember(c.Request.Context(), userCtx.UserID, salonID)
	if err != nil {
		respondError(c, err, "verify salon membership")
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "not_salon_member",
			Message: "You are not a member of this salon",
			Code:    "NOT_SALON_MEMBER",
		})
		return false
	}
	return true
}
