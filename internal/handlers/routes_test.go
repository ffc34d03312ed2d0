package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dsbeauty/salon-backend/internal/clock"
	"github.com/dsbeauty/salon-backend/internal/config"
	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/middleware"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/services"
	"github.com/dsbeauty/salon-backend/pkg/jwt"
)

var testTime = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

var testTimings = config.ActivationConfig{
	AccountMaxWait: 10 * time.Second,
	SalonMaxWait:   5 * time.Second,
	PollInterval:   5 * time.Second,
}

type testServer struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
	clock  *clock.FakeClock
	jwt    *jwt.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	db := &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clk := clock.Fake(testTime)
	jwtService := jwt.NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	commission := services.NewCommissionService(db)
	settlement := services.NewSettlementService(db, logger)
	activation := services.NewActivationService(db, nil, clk, logger)
	masters := services.NewMasterService(db, commission, logger)
	finance := services.NewFinanceService(db, settlement, logger)
	reports := services.NewReportService(db)
	auth := services.NewAuthService(db, activation, jwtService, bcrypt.MinCost, logger)
	salons := services.NewSalonService(db, activation, bcrypt.MinCost, logger)
	errorLogs := services.NewErrorLogService(db, logger)

	limit, err := middleware.NewRateLimiter("1000-M")
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), &Handlers{
		Auth:        NewAuthHandler(auth),
		Activation:  NewActivationHandler(activation, testTimings),
		Salon:       NewSalonHandler(salons, masters, reports),
		Master:      NewMasterHandler(masters, commission, settlement, reports, salons),
		Finance:     NewFinanceHandler(finance, salons),
		ClientError: NewClientErrorHandler(errorLogs),
	}, RouteOptions{
		JWT:       jwtService,
		Members:   salons,
		AuthLimit: limit,
		PollLimit: limit,
	})

	return &testServer{router: router, mock: mock, clock: clk, jwt: jwtService}
}

func (s *testServer) token(t *testing.T, userID int64, userType string) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(userID, "anna", userType)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) expectMember(userID, salonID int64, member bool) {
	s.mock.ExpectQuery(`FROM employees`).
		WithArgs(userID, salonID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(member))
}

func (s *testServer) expectMaster(id, salonID int64) {
	s.mock.ExpectQuery(`FROM masters WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "salon_id", "name", "status", "created_at"}).
			AddRow(id, salonID, "Anna", models.MasterStatusActive, testTime))
}

func (s *testServer) expectLocked(userID int64, locked bool) {
	s.mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM unlock_codes`).
		WithArgs(userID, models.BlockTypeAuth, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(locked))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/v1/salons/my", "/api/v1/masters/1/balance", "/api/v1/auth/qrcode"} {
		w := srv.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestAuthHandler_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	userRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "login", "password_hash", "user_type", "created_at"}).
			AddRow(int64(7), "anna", string(hash), models.UserTypeCreator, testTime)
	}

	t.Run("locked creator gets tokens", func(t *testing.T) {
		srv := newTestServer(t)

		srv.mock.ExpectQuery(`FROM users WHERE login`).WithArgs("anna").WillReturnRows(userRows())
		srv.expectLocked(7, true)
		srv.mock.ExpectExec(`INSERT INTO refresh_tokens`).WillReturnResult(sqlmock.NewResult(1, 1))

		w := srv.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "anna", "password": "secret1"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp models.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(7), resp.UserID)
		assert.True(t, resp.Locked)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		srv := newTestServer(t)

		srv.mock.ExpectQuery(`FROM users WHERE login`).WithArgs("anna").WillReturnRows(userRows())

		w := srv.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "anna", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeBody(t, w)["code"])
	})

	t.Run("missing fields", func(t *testing.T) {
		srv := newTestServer(t)

		w := srv.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "anna"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})
}

func TestAuthHandler_CheckLogin(t *testing.T) {
	srv := newTestServer(t)

	srv.mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users`).
		WithArgs("anna").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	w := srv.do(http.MethodPost, "/api/v1/auth/check-login", "", gin.H{"login": "anna"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["available"])
}

func TestActivationHandler_CheckAccountActivation(t *testing.T) {
	const path = "/api/v1/auth/qrcode/activate/check-activation"

	t.Run("already unlocked", func(t *testing.T) {
		srv := newTestServer(t)
		srv.expectLocked(7, false)

		w := srv.do(http.MethodGet, path, srv.token(t, 7, models.UserTypeCreator), nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "already_unlocked", body["status"])
		assert.Equal(t, false, body["locked"])
	})

	t.Run("times out while still locked", func(t *testing.T) {
		srv := newTestServer(t)
		srv.expectLocked(7, true)
		srv.expectLocked(7, true)
		srv.expectLocked(7, true)

		token := srv.token(t, 7, models.UserTypeCreator)
		done := make(chan *httptest.ResponseRecorder, 1)
		go func() { done <- srv.do(http.MethodGet, path, token, nil) }()

		srv.clock.WaitForTimers(1)
		srv.clock.Advance(testTimings.PollInterval)
		srv.clock.WaitForTimers(1)
		srv.clock.Advance(testTimings.PollInterval)

		select {
		case w := <-done:
			require.Equal(t, http.StatusAccepted, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "timed_out", body["status"])
			assert.Equal(t, true, body["locked"])
		case <-time.After(2 * time.Second):
			t.Fatal("long poll did not return")
		}
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})

	t.Run("activated while waiting", func(t *testing.T) {
		srv := newTestServer(t)
		srv.expectLocked(7, true)
		srv.expectLocked(7, false)

		token := srv.token(t, 7, models.UserTypeCreator)
		done := make(chan *httptest.ResponseRecorder, 1)
		go func() { done <- srv.do(http.MethodGet, path, token, nil) }()

		srv.clock.WaitForTimers(1)
		srv.clock.Advance(testTimings.PollInterval)

		select {
		case w := <-done:
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "activated", decodeBody(t, w)["status"])
		case <-time.After(2 * time.Second):
			t.Fatal("long poll did not return")
		}
	})
}

func TestActivationHandler_SalonRoutes(t *testing.T) {
	t.Run("non-member cannot poll", func(t *testing.T) {
		srv := newTestServer(t)
		srv.expectMember(7, 9, false)

		w := srv.do(http.MethodGet, "/api/v1/salons/9/check-activation", srv.token(t, 7, models.UserTypeEmployee), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})

	t.Run("release defaults to the caller's own lock", func(t *testing.T) {
		srv := newTestServer(t)
		srv.expectMember(1, 9, true)
		srv.mock.ExpectExec(`DELETE FROM unlock_codes`).
			WithArgs(int64(1), models.BlockTypeSalon, int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := srv.do(http.MethodDelete, "/api/v1/salons/9/activation", srv.token(t, 1, models.UserTypeCreator), nil)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})

	t.Run("release in a salon the caller does not belong to", func(t *testing.T) {
		srv := newTestServer(t)
		srv.expectMember(1, 9, false)

		w := srv.do(http.MethodDelete, "/api/v1/salons/9/activation?user_id=7", srv.token(t, 1, models.UserTypeCreator), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})

	t.Run("release rejects a malformed user_id", func(t *testing.T) {
		srv := newTestServer(t)
		srv.expectMember(1, 9, true)

		w := srv.do(http.MethodDelete, "/api/v1/salons/9/activation?user_id=abc", srv.token(t, 1, models.UserTypeCreator), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("release is creator only", func(t *testing.T) {
		srv := newTestServer(t)

		w := srv.do(http.MethodDelete, "/api/v1/salons/9/activation?user_id=7", srv.token(t, 1, models.UserTypeEmployee), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("release with no code is not found", func(t *testing.T) {
		srv := newTestServer(t)
		srv.expectMember(1, 9, true)
		srv.mock.ExpectExec(`DELETE FROM unlock_codes`).
			WithArgs(int64(7), models.BlockTypeSalon, int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		w := srv.do(http.MethodDelete, "/api/v1/salons/9/activation?user_id=7", srv.token(t, 1, models.UserTypeCreator), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})
}

func TestMasterHandler_Withdraw(t *testing.T) {
	t.Run("insufficient funds reports the balance", func(t *testing.T) {
		srv := newTestServer(t)

		srv.expectMaster(1, 9)
		srv.expectMember(7, 9, true)
		srv.mock.ExpectBegin()
		srv.expectMaster(1, 9)
		srv.mock.ExpectQuery(`UPDATE balances`).WillReturnRows(sqlmock.NewRows([]string{"balance"}))
		srv.mock.ExpectQuery(`FROM balances WHERE master_id`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"master_id", "balance"}).AddRow(int64(1), "20.00"))
		srv.mock.ExpectRollback()

		w := srv.do(http.MethodPost, "/api/v1/masters/1/withdraw", srv.token(t, 7, models.UserTypeEmployee), gin.H{"amount": "30"})
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

		body := decodeBody(t, w)
		assert.Equal(t, "INSUFFICIENT_FUNDS", body["code"])
		assert.Equal(t, "30.00", body["requested"])
		assert.Equal(t, "20.00", body["available"])
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})

	t.Run("unknown master", func(t *testing.T) {
		srv := newTestServer(t)
		srv.mock.ExpectQuery(`FROM masters WHERE id`).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "salon_id", "name", "status", "created_at"}))

		w := srv.do(http.MethodPost, "/api/v1/masters/404/withdraw", srv.token(t, 7, models.UserTypeEmployee), gin.H{"amount": "30"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFinanceHandler_CreateAppointment(t *testing.T) {
	t.Run("missing rate keeps the appointment", func(t *testing.T) {
		srv := newTestServer(t)

		srv.expectMember(7, 9, true)
		srv.expectMaster(1, 9)
		srv.mock.ExpectQuery(`FROM procedures WHERE id`).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "salon_id", "name", "created_at"}).AddRow(int64(4), int64(9), "Manicure", testTime))
		srv.mock.ExpectQuery(`INSERT INTO appointments`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(56)))
		srv.mock.ExpectBegin()
		srv.expectMaster(1, 9)
		srv.mock.ExpectQuery(`FROM odsetek`).
			WithArgs(int64(1), int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "master_id", "procedure_id", "percentage"}))
		srv.mock.ExpectRollback()

		w := srv.do(http.MethodPost, "/api/v1/appointments", srv.token(t, 7, models.UserTypeEmployee), gin.H{
			"salon_id":         9,
			"master_id":        1,
			"procedure_id":     4,
			"cash_amount":      "100",
			"appointment_date": testTime.Format(time.RFC3339),
		})
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

		var resp SettlementFailedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "rate_not_found", resp.Error)
		require.NotNil(t, resp.Appointment)
		assert.Equal(t, int64(56), resp.Appointment.ID)
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		srv := newTestServer(t)
		srv.expectMember(7, 9, false)

		w := srv.do(http.MethodPost, "/api/v1/appointments", srv.token(t, 7, models.UserTypeEmployee), gin.H{
			"salon_id":         9,
			"master_id":        1,
			"procedure_id":     4,
			"appointment_date": testTime.Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, srv.mock.ExpectationsWereMet())
	})
}
