package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck checks one backing dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	startedAt time.Time
	checks    map[string]HealthCheck
	timeout   time.Duration
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now(),
		checks:    checks,
		timeout:   2 * time.Second,
	}
}

type healthReport struct {
	Status       string            `json:"status"`
	Time         string            `json:"time"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// CheckHealth answers 503 when any dependency check fails.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	report := healthReport{
		Status: "ok",
		Time:   time.Now().Format(time.RFC3339),
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		report.Dependencies = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				report.Dependencies[name] = err.Error()
				report.Status = "degraded"
				continue
			}
			report.Dependencies[name] = "ok"
		}
	}

	code := http.StatusOK
	if report.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, report)
}
