package utils

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// CursorParams describes a most-recent-first page request.
type CursorParams struct {
	Limit    int
	Before   time.Time
	BeforeID string
}

const (
	defaultPageSize = 30
	maxPageSize     = 100
)

// GetCursorParams reads ?limit=, ?before= (RFC3339Nano) and ?before_id= from
// the request. A malformed cursor is ignored and the newest page is served.
func GetCursorParams(c echo.Context) CursorParams {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	var before time.Time
	if raw := c.QueryParam("before"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			before = parsed
		}
	}

	params := CursorParams{
		Limit:  limit,
		Before: before,
	}
	if !before.IsZero() {
		params.BeforeID = c.QueryParam("before_id")
	}
	return params
}

// FormatCursor renders a cursor the way GetCursorParams expects it.
func FormatCursor(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
