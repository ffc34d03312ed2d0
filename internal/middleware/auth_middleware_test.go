package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsbeauty/salon-backend/pkg/jwt"
)

func setupTestJWTService() *jwt.Service {
	return jwt.NewService(
		"test-access-secret-key-123456789",
		"test-refresh-secret-key-123456789",
		time.Hour,
		24*time.Hour,
	)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()

	token, err := jwtService.GenerateAccessToken(42, "anna", "creator")
	require.NoError(t, err)

	router.GET("/protected", AuthMiddleware(jwtService), func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		require.True(t, exists)
		c.JSON(http.StatusOK, gin.H{
			"message":   "success",
			"user_id":   userCtx.UserID,
			"login":     userCtx.Login,
			"user_type": userCtx.UserType,
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
	assert.Contains(t, w.Body.String(), "anna")
	assert.Contains(t, w.Body.String(), "creator")
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(setupTestJWTService()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_AUTH_HEADER")
}

func TestAuthMiddleware_InvalidAuthFormat(t *testing.T) {
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(setupTestJWTService()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	tests := []struct {
		name   string
		header string
	}{
		{"Missing Bearer", "some-token"},
		{"Wrong prefix", "Basic some-token"},
		{"Empty Bearer", "Bearer "},
		{"No token", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	refresh, err := jwtService.GenerateRefreshToken(42, "anna")
	require.NoError(t, err)

	forged, err := jwt.NewService("some-other-secret-key-987654321", "x", time.Hour, time.Hour).
		GenerateAccessToken(42, "anna", "creator")
	require.NoError(t, err)

	for _, token := range []string{forged, refresh} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtService := jwt.NewService("test-access-secret-key-123456789", "test-refresh-secret-key-123456789", -time.Minute, time.Hour)
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	token, err := jwtService.GenerateAccessToken(42, "anna", "employee")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestRequireUserType(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.DELETE("/operator", AuthMiddleware(jwtService), RequireUserType("creator"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		userType string
		want     int
	}{
		{"creator", http.StatusNoContent},
		{"employee", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.userType, func(t *testing.T) {
			token, err := jwtService.GenerateAccessToken(1, "x", tt.userType)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodDelete, "/operator", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireUserType_WithoutAuth(t *testing.T) {
	router := setupTestRouter()
	router.GET("/x", RequireUserType("creator"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_USER_CONTEXT")
}

type stubMembership struct {
	members map[[2]int64]bool
	err     error
}

func (s stubMembership) IsMember(_ context.Context, userID, salonID int64) (bool, error) {
	return s.members[[2]int64{userID, salonID}], s.err
}

func withUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(UserContextKey, UserContext{UserID: userID, Login: "anna", UserType: "employee"})
		c.Next()
	}
}

func TestRequireSalonMember(t *testing.T) {
	members := stubMembership{members: map[[2]int64]bool{{1, 9}: true}}

	tests := []struct {
		name    string
		checker MembershipChecker
		path    string
		want    int
	}{
		{"member", members, "/salons/9", http.StatusOK},
		{"not member", members, "/salons/8", http.StatusForbidden},
		{"bad id", members, "/salons/abc", http.StatusBadRequest},
		{"lookup failure", stubMembership{err: errors.New("db down")}, "/salons/9", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/salons/:id", withUser(1), RequireSalonMember(tt.checker, "id"), func(c *gin.Context) {
				salonID, ok := GetSalonID(c)
				require.True(t, ok)
				c.JSON(http.StatusOK, gin.H{"salon_id": salonID})
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
