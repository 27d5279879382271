package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sankhya-backend-go/internal/service"
	"github.com/jengzang/sankhya-backend-go/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	defer rl.Stop()

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, wait := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok)
}

func TestRateLimiterStop(t *testing.T) {
	rl := NewRateLimiter(1, time.Millisecond)
	rl.Stop()

	select {
	case <-rl.done:
	default:
		t.Fatal("cleanup loop still running after Stop")
	}
	assert.NotPanics(t, rl.Stop, "Stop is idempotent")

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok, "a stopped limiter still counts requests")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	r := gin.New()
	r.Use(Logger(), RateLimit(rl))
	r.GET("/ping", func(c *gin.Context) { response.Success(c, "pong") })

	assert.Equal(t, http.StatusOK, perform(r, "").Code)

	w := perform(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
}

func TestAuth(t *testing.T) {
	auth := service.NewAuthService("secret", "", "", time.Hour)
	r := gin.New()
	r.GET("/ping", Auth(auth), func(c *gin.Context) {
		response.Success(c, CurrentUser(c))
	})

	login, err := auth.Login("ops@example.org", "pw")
	require.NoError(t, err)

	w := perform(r, "Bearer "+login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ops@example.org", body.Data)

	assert.Equal(t, http.StatusUnauthorized, perform(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, login.Token).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Bearer garbage").Code)
}
