package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/carbon-marketplace/internal/account"
	"github.com/feral-file/carbon-marketplace/internal/adapter"
	"github.com/feral-file/carbon-marketplace/internal/api/middleware"
	"github.com/feral-file/carbon-marketplace/internal/api/server"
	"github.com/feral-file/carbon-marketplace/internal/mocks"
	"github.com/feral-file/carbon-marketplace/internal/ratelimit"
)

func TestRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockAPIExecutor(ctrl)
	clock := adapter.NewClock()

	srv := server.New(
		server.Config{AllowOrigins: []string{"https://market.example.com"}},
		exec,
		middleware.AuthConfig{Tokens: account.NewTokenIssuer("secret", time.Hour, clock)},
		ratelimit.NewKeyedLimiter(ratelimit.Config{RequestsPerMinute: 1, Burst: 1}, clock),
	)
	router := srv.Router()

	t.Run("health carries request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.REQUEST_ID_HEADER))
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/stats", nil)
		req.Header.Set("Origin", "https://market.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "https://market.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("credential endpoints are rate limited", func(t *testing.T) {
		// The first request passes the limiter and fails binding
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/farmer/login", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/farmer/login", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}
