package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/parcel-tracker/docs"
	"github.com/99minutos/parcel-tracker/internal/api/handler"
	"github.com/99minutos/parcel-tracker/internal/api/middleware"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

// Dependencies groups everything NewRouter needs.
type Dependencies struct {
	Parcels  ports.ParcelService
	Tracking ports.TrackingService

	// Refresher is optional; nil when background refresh is disabled.
	Refresher handler.RefreshTrigger

	// Checks are run by the readiness probe.
	Checks []handler.NamedCheck

	// JWTSecret enables bearer authentication on /v1 when non-empty.
	JWTSecret string

	Log zerolog.Logger

	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "parcel_tracker",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Probes and tooling (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Tracking, deps.Checks...)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- v1 ---
	v1 := e.Group("/v1")
	admin := []echo.MiddlewareFunc{}
	if deps.JWTSecret != "" {
		v1.Use(middleware.Auth(deps.JWTSecret))
		admin = append(admin, middleware.RBAC(middleware.RoleAdmin))
	} else {
		deps.Log.Warn().Msg("JWT_SECRET not set, /v1 routes are unauthenticated")
	}

	parcelHandler := handler.NewParcelHandler(deps.Parcels, deps.Refresher)
	parcels := v1.Group("/parcels")
	parcels.POST("", parcelHandler.Create)
	parcels.GET("", parcelHandler.List)
	parcels.POST("/refresh", parcelHandler.RefreshAll)
	parcels.GET("/:id", parcelHandler.Get)
	parcels.PATCH("/:id", parcelHandler.Update)
	parcels.DELETE("/:id", parcelHandler.Delete)
	parcels.POST("/:id/refresh", parcelHandler.Refresh)

	trackingHandler := handler.NewTrackingHandler(deps.Tracking)
	tracking := v1.Group("/tracking")
	tracking.GET("/status-codes", trackingHandler.StatusCodes)
	tracking.POST("/batch", trackingHandler.Batch)
	tracking.GET("/cache", trackingHandler.CacheStats, admin...)
	tracking.DELETE("/cache", trackingHandler.ClearCache, admin...)
	tracking.DELETE("/cache/:tracking_number", trackingHandler.InvalidateCache, admin...)
	tracking.GET("/:tracking_number", trackingHandler.Get)

	return e
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Error != nil:
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
