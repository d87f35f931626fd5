package rate_limit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kanban/internal/util/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func Test_CheckRateLimit_WithinLimits_AllowsRequest(t *testing.T) {
	limiter := NewLocalRateLimiter(10, 20)

	result, err := limiter.CheckRateLimit(context.Background(), "10.0.0.1")

	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 19, result.Remaining)
	assert.Equal(t, 0, result.RetryAfterSec)
	assert.True(t, result.ResetTime.After(time.Now().Add(-time.Second)))
}

func Test_CheckRateLimit_ExceedsBurstLimit_DeniesRequest(t *testing.T) {
	limiter := NewLocalRateLimiter(0.5, 2)

	for i := 0; i < 2; i++ {
		result, err := limiter.CheckRateLimit(context.Background(), "10.0.0.2")
		assert.NoError(t, err)
		assert.True(t, result.Allowed, "Request %d should be allowed", i+1)
	}

	result, err := limiter.CheckRateLimit(context.Background(), "10.0.0.2")
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, 2, result.RetryAfterSec)
}

func Test_CheckRateLimit_DifferentClients_HaveSeparateBuckets(t *testing.T) {
	limiter := NewLocalRateLimiter(0.1, 1)

	first, err := limiter.CheckRateLimit(context.Background(), "10.0.0.3")
	assert.NoError(t, err)
	assert.True(t, first.Allowed)

	other, err := limiter.CheckRateLimit(context.Background(), "10.0.0.4")
	assert.NoError(t, err)
	assert.True(t, other.Allowed)

	denied, err := limiter.CheckRateLimit(context.Background(), "10.0.0.3")
	assert.NoError(t, err)
	assert.False(t, denied.Allowed)
}

func Test_Middleware_WhenLimitExceeded_ReturnsTooManyRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(NewLocalRateLimiter(0.1, 1), logger.GetLogger()))
	router.POST("/tasks", func(ctx *gin.Context) { ctx.Status(http.StatusCreated) })
	router.GET("/tasks", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	statuses := make([]int, 0, 2)
	for range 2 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks", nil))
		statuses = append(statuses, w.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests}, statuses)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
