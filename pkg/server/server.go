// Package server assembles the HTTP surface: the echo instance, its
// middleware chain, the error handler, and route registration.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hackkalot/crm-prestadores-sub002/config"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/middleware"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/routes/dedupe"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/routes/health"
)

// New builds the echo instance: identity context first so every later hook
// sees the acting user, then request logging, then the routes. The health
// checker is returned so the host can flip readiness once startup completes.
func New(cfg *config.Config, logger ectologger.Logger, db *sqlx.DB) (*echo.Echo, *health.Checker) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(db, cfg.AppVersion)
	checker.RegisterRoutes(e)

	dedupe.Register(e.Group("/api/v1"))

	return e, checker
}

// Start serves the instance with the configured timeouts. Blocks until the
// server stops.
func Start(e *echo.Echo, cfg *config.Config) error {
	return e.StartServer(&http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	})
}
