package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackkalot/crm-prestadores-sub002/config"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/middleware"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/reqcontext"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func newTestServer() *echo.Echo {
	cfg := &config.Config{
		AppVersion:   "test",
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}
	e, _ := New(cfg, getTestLogger(), nil)
	return e
}

func TestServerSeedsActingUserIntoContext(t *testing.T) {
	e := newTestServer()

	var actor, requestID string
	e.GET("/whoami", func(c echo.Context) error {
		ctx := c.Request().Context()
		actor = reqcontext.GetUserID(ctx)
		requestID = reqcontext.GetRequestID(ctx)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(middleware.HeaderUserID, "reviewer-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reviewer-1", actor)
	assert.NotEmpty(t, requestID)
}

func TestServerGeneratesRequestIDWhenMissing(t *testing.T) {
	e := newTestServer()

	var requestID string
	e.GET("/whoami", func(c echo.Context) error {
		requestID = reqcontext.GetRequestID(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, requestID)
}

func TestServerLivenessRoute(t *testing.T) {
	e := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestServerReadinessFollowsChecker(t *testing.T) {
	cfg := &config.Config{AppVersion: "test"}
	e, checker := New(cfg, getTestLogger(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.SetReady(true)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
