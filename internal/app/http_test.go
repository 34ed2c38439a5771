package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/iho/banksaga/internal/adapter/http"
	"github.com/iho/banksaga/internal/adapter/http/handler"
)

func TestRuntime_RouterConfigServesProbesAndMetrics(t *testing.T) {
	rt := testRuntime(t)
	rt.Config.IdempotencyTTL = time.Hour
	rt.Config.RateLimitRPS = 100
	rt.Config.RateLimitBurst = 100

	limiter, _ := rt.RateLimiter()
	failing := handler.Check{Name: "postgres", Ping: func(context.Context) error {
		return errors.New("down")
	}}

	cfg := rt.RouterConfig(limiter, failing)
	assert.Equal(t, time.Hour, cfg.IdempotencyTTL)

	router := httpAdapter.NewNotificationRouter(cfg)

	for path, want := range map[string]int{
		"/health":  http.StatusOK,
		"/ready":   http.StatusServiceUnavailable,
		"/metrics": http.StatusOK,
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rr.Code, path)
	}
}

func TestRuntime_RateLimiterWorkerStopsWithContext(t *testing.T) {
	rt := testRuntime(t)
	rt.Config.RateLimitRPS = 1
	rt.Config.RateLimitBurst = 1

	limiter, worker := rt.RateLimiter()
	require.NotNil(t, limiter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, worker.Run(ctx), context.Canceled)
}
