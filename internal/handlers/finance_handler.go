package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/middleware"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/services"
)

// SettlementFailedResponse reports an appointment that was recorded but
// whose commission could not be settled
type SettlementFailedResponse struct {
	ErrorResponse
	Appointment *models.Appointment `json:"appointment"`
}

// FinanceHandler handles appointments, income and expenses
type FinanceHandler struct {
	financeService *services.FinanceService
	salonService   *services.SalonService
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(financeService *services.FinanceService, salonService *services.SalonService) *FinanceHandler {
	return &FinanceHandler{financeService: financeService, salonService: salonService}
}

// CreateAppointment handles POST /api/v1/appointments
func (h *FinanceHandler) CreateAppointment(c *gin.Context) {
	var req models.CreateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireMember(c, h.salonService, req.SalonID) {
		return
	}

	result, err := h.financeService.CreateAppointment(c.Request.Context(), &req)
	var settlementErr *services.SettlementError
	if errors.As(err, &settlementErr) {
		resp := SettlementFailedResponse{
			ErrorResponse: ErrorResponse{Error: "settlement_failed", Message: settlementErr.Error(), Code: "SETTLEMENT_FAILED"},
			Appointment:   result.Appointment,
		}
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrRateNotFound) {
			resp.Error = "rate_not_found"
			resp.Code = "RATE_NOT_FOUND"
			status = http.StatusBadRequest
		} else {
			logrus.WithError(err).WithField("appointment_id", settlementErr.AppointmentID).Error("Settlement failed")
		}
		c.JSON(status, resp)
		return
	}
	if err != nil {
		respondError(c, err, "create appointment")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListAppointments handles GET /api/v1/salons/:id/appointments?date=YYYY-MM-DD
func (h *FinanceHandler) ListAppointments(c *gin.Context) {
	salonID, _ := middleware.GetSalonID(c)
	day, ok := dateQuery(c)
	if !ok {
		return
	}

	appointments, err := h.financeService.ListAppointments(c.Request.Context(), salonID, day)
	if err != nil {
		respondError(c, err, "list appointments")
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

// CreateIncome handles POST /api/v1/incomes
func (h *FinanceHandler) CreateIncome(c *gin.Context) {
	var req models.CreateIncomeRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireMember(c, h.salonService, req.SalonID) {
		return
	}

	income, err := h.financeService.CreateIncome(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "create income")
		return
	}

	c.JSON(http.StatusCreated, income)
}

// ListIncome handles GET /api/v1/salons/:id/incomes?date=YYYY-MM-DD
func (h *FinanceHandler) ListIncome(c *gin.Context) {
	salonID, _ := middleware.GetSalonID(c)
	day, ok := dateQuery(c)
	if !ok {
		return
	}

	incomes, err := h.financeService.ListIncome(c.Request.Context(), salonID, day)
	if err != nil {
		respondError(c, err, "list income")
		return
	}

	c.JSON(http.StatusOK, gin.H{"incomes": incomes})
}

// CreateExpense handles POST /api/v1/expenses
func (h *FinanceHandler) CreateExpense(c *gin.Context) {
	var req models.CreateExpenseRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireMember(c, h.salonService, req.SalonID) {
		return
	}

	result, err := h.financeService.CreateExpense(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "create expense")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListExpenses handles GET /api/v1/salons/:id/expenses?date=YYYY-MM-DD
func (h *FinanceHandler) ListExpenses(c *gin.Context) {
	salonID, _ := middleware.GetSalonID(c)
	day, ok := dateQuery(c)
	if !ok {
		return
	}

	expenses, err := h.financeService.ListExpenses(c.Request.Context(), salonID, day)
	if err != nil {
		respondError(c, err, "list expenses")
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}
