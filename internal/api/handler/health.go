package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles GET /health, the liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// DependencyCheck returns nil when the dependency is reachable.
type DependencyCheck func(ctx context.Context) error

// NamedCheck pairs a dependency name with its check.
type NamedCheck struct {
	Name  string
	Check DependencyCheck
}

// ReadinessHandler handles GET /health/ready. Every check must pass for a
// 200. A missing carrier token is reported but does not fail readiness:
// parcel records stay usable without it.
type ReadinessHandler struct {
	checks  []NamedCheck
	carrier interface{ Configured() bool }
}

func NewReadinessHandler(carrier interface{ Configured() bool }, checks ...NamedCheck) *ReadinessHandler {
	return &ReadinessHandler{checks: checks, carrier: carrier}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.checks)+1)
	healthy := true

	for _, nc := range h.checks {
		if err := nc.Check(ctx); err != nil {
			deps[nc.Name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[nc.Name] = dependencyStatus{Status: "ok"}
	}

	if h.carrier != nil {
		if h.carrier.Configured() {
			deps["carrier"] = dependencyStatus{Status: "ok"}
		} else {
			deps["carrier"] = dependencyStatus{Status: "not_configured"}
		}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}

