package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/dsbeauty/salon-backend/internal/middleware"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/pkg/jwt"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth        *AuthHandler
	Activation  *ActivationHandler
	Salon       *SalonHandler
	Master      *MasterHandler
	Finance     *FinanceHandler
	ClientError *ClientErrorHandler
}

// RouteOptions carries the cross-cutting pieces the routes are guarded by
type RouteOptions struct {
	JWT       *jwt.Service
	Members   middleware.MembershipChecker
	AuthLimit *limiter.Limiter
	PollLimit *limiter.Limiter
}

// RegisterRoutes mounts the API under api (normally /api/v1)
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, opts RouteOptions) {
	requireAuth := middleware.AuthMiddleware(opts.JWT)
	creatorOnly := middleware.RequireUserType(models.UserTypeCreator)
	authLimit := middleware.RateLimit(opts.AuthLimit, "auth")
	pollLimit := middleware.RateLimit(opts.PollLimit, "poll")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authLimit, h.Auth.Register)
		auth.POST("/login", authLimit, h.Auth.Login)
		auth.POST("/refresh", authLimit, h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
		auth.POST("/check-login", authLimit, h.Auth.CheckLogin)

		protected := auth.Group("", requireAuth)
		protected.GET("/qrcode", h.Activation.GetAccountCode)
		protected.DELETE("/qrcode/activate/:code", creatorOnly, h.Activation.ActivateCode)
		protected.GET("/qrcode/activate/check-activation", pollLimit, h.Activation.CheckAccountActivation)
	}

	salons := api.Group("/salons", requireAuth)
	{
		salons.POST("", h.Salon.CreateSalon)
		salons.POST("/join", h.Salon.JoinSalon)
		salons.GET("/my", h.Salon.MySalons)
		salonMember := middleware.RequireSalonMember(opts.Members, "id")
		salons.DELETE("/:id/activation", creatorOnly, salonMember, h.Activation.ReleaseSalon)

		member := salons.Group("/:id", salonMember)
		member.GET("/qrcode", h.Activation.GetSalonCode)
		member.GET("/check-activation", pollLimit, h.Activation.CheckSalonActivation)
		member.GET("/masters", h.Salon.ListMasters)
		member.GET("/procedures", h.Salon.ListProcedures)
		member.GET("/statistics", h.Salon.Statistics)
		member.GET("/appointments", h.Finance.ListAppointments)
		member.GET("/incomes", h.Finance.ListIncome)
		member.GET("/expenses", h.Finance.ListExpenses)
	}

	masters := api.Group("/masters", requireAuth)
	{
		masters.POST("", h.Master.CreateMaster)
		masters.PUT("/:id/rates", h.Master.UpdateRates)
		masters.GET("/:id/rates/:procedure_id", h.Master.GetRate)
		masters.DELETE("/:id", h.Master.TerminateMaster)
		masters.GET("/:id/balance", h.Master.GetBalance)
		masters.POST("/:id/withdraw", h.Master.Withdraw)
		masters.GET("/:id/ledger-check", h.Master.CheckLedger)
	}

	protected := api.Group("", requireAuth)
	{
		protected.POST("/procedures", h.Salon.CreateProcedure)
		protected.POST("/appointments", h.Finance.CreateAppointment)
		protected.POST("/incomes", h.Finance.CreateIncome)
		protected.POST("/expenses", h.Finance.CreateExpense)
		protected.POST("/client-errors", h.ClientError.LogError)
	}
}
