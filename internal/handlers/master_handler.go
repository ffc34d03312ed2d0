package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/services"
)

// MasterHandler handles masters, their commission rates and balances
type MasterHandler struct {
	masterService     *services.MasterService
	commissionService *services.CommissionService
	settlementService *services.SettlementService
	reportService     *services.ReportService
	salonService      *services.SalonService
}

// NewMasterHandler creates a new master handler
func NewMasterHandler(
	masterService *services.MasterService,
	commissionService *services.CommissionService,
	settlementService *services.SettlementService,
	reportService *services.ReportService,
	salonService *services.SalonService,
) *MasterHandler {
	return &MasterHandler{
		masterService:     masterService,
		commissionService: commissionService,
		settlementService: settlementService,
		reportService:     reportService,
		salonService:      salonService,
	}
}

// CreateMaster handles POST /api/v1/masters
func (h *MasterHandler) CreateMaster(c *gin.Context) {
	var req models.CreateMasterRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireMember(c, h.salonService, req.SalonID) {
		return
	}

	master, err := h.masterService.CreateMaster(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "create master")
		return
	}

	c.JSON(http.StatusCreated, master)
}

// UpdateRates handles PUT /api/v1/masters/:id/rates
func (h *MasterHandler) UpdateRates(c *gin.Context) {
	master, ok := h.loadMaster(c)
	if !ok {
		return
	}

	var req models.UpdateRatesRequest
	if !bindJSON(c, &req) {
		return
	}

	rates, err := h.commissionService.SetRates(c.Request.Context(), master.ID, req.Rates)
	if err != nil {
		respondError(c, err, "update rates")
		return
	}

	c.JSON(http.StatusOK, gin.H{"master_id": master.ID, "rates": rates})
}

// GetRate handles GET /api/v1/masters/:id/rates/:procedure_id
func (h *MasterHandler) GetRate(c *gin.Context) {
	master, ok := h.loadMaster(c)
	if !ok {
		return
	}
	procedureID, ok := idParam(c, "procedure_id")
	if !ok {
		return
	}

	rate, err := h.commissionService.Resolve(c.Request.Context(), master.ID, procedureID)
	if err != nil {
		respondError(c, err, "get rate")
		return
	}

	c.JSON(http.StatusOK, rate)
}

// TerminateMaster handles DELETE /api/v1/masters/:id
func (h *MasterHandler) TerminateMaster(c *gin.Context) {
	master, ok := h.loadMaster(c)
	if !ok {
		return
	}

	if err := h.masterService.TerminateMaster(c.Request.Context(), master.ID); err != nil {
		respondError(c, err, "terminate master")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Master terminated", "master_id": master.ID})
}

// GetBalance handles GET /api/v1/masters/:id/balance?date=YYYY-MM-DD
func (h *MasterHandler) GetBalance(c *gin.Context) {
	master, ok := h.loadMaster(c)
	if !ok {
		return
	}
	day, ok := dateQuery(c)
	if !ok {
		return
	}

	report, err := h.reportService.MasterBalance(c.Request.Context(), master.ID, day)
	if err != nil {
		respondError(c, err, "load balance")
		return
	}

	c.JSON(http.StatusOK, report)
}

// Withdraw handles POST /api/v1/masters/:id/withdraw
func (h *MasterHandler) Withdraw(c *gin.Context) {
	master, ok := h.loadMaster(c)
	if !ok {
		return
	}

	var req models.WithdrawRequest
	if !bindJSON(c, &req) {
		return
	}

	debit, err := h.settlementService.Withdraw(c.Request.Context(), master.ID, req.Amount)
	if err != nil {
		respondError(c, err, "withdraw")
		return
	}

	c.JSON(http.StatusOK, debit)
}

// CheckLedger handles GET /api/v1/masters/:id/ledger-check
func (h *MasterHandler) CheckLedger(c *gin.Context) {
	master, ok := h.loadMaster(c)
	if !ok {
		return
	}

	check, err := h.reportService.CheckLedger(c.Request.Context(), master.ID)
	if err != nil {
		respondError(c, err, "check ledger")
		return
	}

	c.JSON(http.StatusOK, check)
}

// loadMaster resolves :id and checks the caller belongs to the master's salon
func (h *MasterHandler) loadMaster(c *gin.Context) (*models.Master, bool) {
	masterID, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	master, err := h.masterService.GetMaster(c.Request.Context(), masterID)
	if err != nil {
		respondError(c, err, "load master")
		return nil, false
	}
	if !requireMember(c, h.salonService, master.SalonID) {
		return nil, false
	}
	return master, true
}
