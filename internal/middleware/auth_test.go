package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/config"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, *uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Cfg = &config.AppConfig{
		JWTSecret:   "test-secret-for-middleware",
		TokenMaxAge: time.Hour,
	}

	var seen uuid.UUID
	router := gin.New()
	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		require.True(t, ok)
		seen = userID
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func TestRequireAuthStoresParsedUserID(t *testing.T) {
	router, seen := newAuthTestRouter(t)
	userID := uuid.New()
	token, err := utils.GenerateJWT(userID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, *seen)
}

func TestRequireAuthRejectsBadCredentials(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no token after scheme", "Bearer"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestUserIDFromContextWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := UserIDFromContext(c)
	assert.False(t, ok)
}
