package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"goldmarket/internal/infrastructure/ratelimit"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
)

// RateLimit applies a per-user bucket for action, keyed by the authenticated
// uid, or the client IP when the route is unauthenticated.
func RateLimit(limiter *ratelimit.RateLimiter, action string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get(ContextUID).(string)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			allowed, wait := limiter.Allow(key, action)
			if !allowed {
				log.Warn().Str("key", key).Str("action", action).Dur("retry_after", wait).Msg("rate limit exceeded")
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}
			return next(c)
		}
	}
}
