package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/FabricioLanche/campus-room/internal/api/middleware"
	"github.com/FabricioLanche/campus-room/internal/config"
)

func setupRateLimitedRouter(cfg *config.Config, humanVerified bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyIsHumanVerified, humanVerified)
		c.Next()
	})
	router.Use(middleware.NewRateLimiterMiddleware(cfg).Limit())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return router
}

func doRequest(router *gin.Engine, spaSession string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-SPA", spaSession)
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_SoftLimitRequiresCaptcha(t *testing.T) {
	cfg := &config.Config{
		RateLimitSoftBucketSize: 2,
		RateLimitSoftRefillRate: 0,
		RateLimitHardBucketSize: 100,
		RateLimitHardRefillRate: 100,
	}
	router := setupRateLimitedRouter(cfg, false)

	assert.Equal(t, http.StatusOK, doRequest(router, "spa-1"))
	assert.Equal(t, http.StatusOK, doRequest(router, "spa-1"))
	assert.Equal(t, http.StatusTeapot, doRequest(router, "spa-1"))

	// A different client has its own bucket.
	assert.Equal(t, http.StatusOK, doRequest(router, "spa-2"))
}

func TestRateLimiter_HumanVerifiedBypassesSoftLimit(t *testing.T) {
	cfg := &config.Config{
		RateLimitSoftBucketSize: 1,
		RateLimitSoftRefillRate: 0,
		RateLimitHardBucketSize: 100,
		RateLimitHardRefillRate: 100,
	}
	router := setupRateLimitedRouter(cfg, true)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, "spa-1"))
	}
}

func TestRateLimiter_HardLimitAlwaysApplies(t *testing.T) {
	cfg := &config.Config{
		RateLimitSoftBucketSize: 100,
		RateLimitSoftRefillRate: 100,
		RateLimitHardBucketSize: 3,
		RateLimitHardRefillRate: 0,
	}
	router := setupRateLimitedRouter(cfg, true)

	assert.Equal(t, http.StatusOK, doRequest(router, "spa-1"))
	assert.Equal(t, http.StatusOK, doRequest(router, "spa-1"))
	assert.Equal(t, http.StatusOK, doRequest(router, "spa-1"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "spa-1"))
}
