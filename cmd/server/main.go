package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/clock"
	"github.com/dsbeauty/salon-backend/internal/config"
	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/handlers"
	"github.com/dsbeauty/salon-backend/internal/middleware"
	"github.com/dsbeauty/salon-backend/internal/notify"
	"github.com/dsbeauty/salon-backend/internal/services"
	"github.com/dsbeauty/salon-backend/internal/utils"
	"github.com/dsbeauty/salon-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

const requestIDHeader = "X-Request-ID"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_time": buildTime,
	}).Info("Starting salon backend")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	var notifier services.ActivationNotifier
	if cfg.Redis.Enabled() {
		rdb, err := notify.NewRedisClient(rootCtx, cfg.Redis)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()

		redisNotifier := notify.NewRedisNotifier(rdb, cfg.Redis.Channel, logger)
		go func() {
			if err := redisNotifier.Listen(rootCtx); err != nil {
				logger.WithError(err).Error("Activation listener stopped")
			}
		}()
		notifier = redisNotifier
		logger.WithField("channel", cfg.Redis.Channel).Info("Activation notifications via redis")
	} else {
		notifier = notify.NewHub()
		logger.Info("Activation notifications in-process only")
	}

	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	commissionService := services.NewCommissionService(db)
	settlementService := services.NewSettlementService(db, logger)
	activationService := services.NewActivationService(db, notifier, clock.Real(), logger)
	masterService := services.NewMasterService(db, commissionService, logger)
	financeService := services.NewFinanceService(db, settlementService, logger)
	reportService := services.NewReportService(db)
	authService := services.NewAuthService(db, activationService, jwtService, cfg.Security.BcryptCost, logger)
	salonService := services.NewSalonService(db, activationService, cfg.Security.BcryptCost, logger)
	errorLogService := services.NewErrorLogService(db, logger)

	cronService := services.NewCronService(authService, errorLogService, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	defer cronService.Stop()

	authLimit, err := middleware.NewRateLimiter(cfg.RateLimit.Auth)
	if err != nil {
		logger.Fatalf("Invalid RATE_LIMIT_AUTH: %v", err)
	}
	pollLimit, err := middleware.NewRateLimiter(cfg.RateLimit.LongPoll)
	if err != nil {
		logger.Fatalf("Invalid RATE_LIMIT_LONG_POLL: %v", err)
	}

	h := &handlers.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Activation: handlers.NewActivationHandler(activationService, cfg.Activation),
		Salon:      handlers.NewSalonHandler(salonService, masterService, reportService),
		Master: handlers.NewMasterHandler(
			masterService,
			commissionService,
			settlementService,
			reportService,
			salonService,
		),
		Finance:     handlers.NewFinanceHandler(financeService, salonService),
		ClientError: handlers.NewClientErrorHandler(errorLogService),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     append(cfg.CORS.AllowedHeaders, requestIDHeader, "X-App-Version"),
		ExposeHeaders:    []string{"Content-Length", requestIDHeader, "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	handlers.RegisterRoutes(router.Group("/api/v1"), h, handlers.RouteOptions{
		JWT:       jwtService,
		Members:   salonService,
		AuthLimit: authLimit,
		PollLimit: pollLimit,
	})

	// Long polls hold the response open for up to the longest activation wait
	writeTimeout := cfg.Activation.AccountMaxWait
	if cfg.Activation.SalonMaxWait > writeTimeout {
		writeTimeout = cfg.Activation.SalonMaxWait
	}
	writeTimeout += 15 * time.Second

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Server.Environment,
		}).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// requestLogger logs each request with a request id and the caller's device
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		device := utils.ParseUserAgent(c.Request.UserAgent())
		fields := logrus.Fields{
			"request_id": requestID,
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"query":      c.Request.URL.RawQuery,
			"ip":         utils.GetRealIP(c),
			"latency_ms": time.Since(start).Milliseconds(),
			"device":     device.DeviceType,
			"platform":   device.Platform,
			"has_auth":   c.GetHeader("Authorization") != "",
		}
		if user, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = user.UserID
			fields["user_type"] = user.UserType
		}

		entry := logger.WithFields(fields)
		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// healthCheckHandler reports whether the database is reachable
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
