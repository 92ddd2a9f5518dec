package response

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "goldmarket/pkg/errors"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// CursorPage is used for most-recent-first message pages.
type CursorPage struct {
	Items        interface{} `json:"items"`
	NextBefore   string      `json:"next_before,omitempty"`
	NextBeforeID string      `json:"next_before_id,omitempty"`
	HasMore      bool        `json:"has_more"`
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: Now(),
	})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: Now(),
	})
}

func NoContent(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Timestamp: Now(),
	})
}

func Cursor(c echo.Context, items interface{}, nextBefore, nextBeforeID string, hasMore bool) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Timestamp: Now(),
		Data: CursorPage{
			Items:        items,
			NextBefore:   nextBefore,
			NextBeforeID: nextBeforeID,
			HasMore:      hasMore,
		},
	})
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, Response{
			Success:   false,
			Timestamp: Now(),
			Error: &ErrorInfo{
				Code:    appErr.Code,
				Message: appErr.Message,
			},
		})
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return c.JSON(httpErr.Code, Response{
			Success:   false,
			Timestamp: Now(),
			Error: &ErrorInfo{
				Code:    apperrors.CodeBadRequest,
				Message: http.StatusText(httpErr.Code),
			},
		})
	}

	return c.JSON(http.StatusInternalServerError, Response{
		Success:   false,
		Timestamp: Now(),
		Error: &ErrorInfo{
			Code:    apperrors.CodeInternal,
			Message: "An unexpected error occurred",
		},
	})
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	message := "Invalid input data"
	if len(validationErr) > 0 {
		fe := validationErr[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + fe.Param()
		case "max":
			message = field + " must be at most " + fe.Param()
		case "oneof":
			message = field + " must be one of: " + fe.Param()
		case "email":
			message = field + " must be a valid email address"
		case "url":
			message = field + " must be a valid URL"
		default:
			message = field + " is invalid"
		}
	}

	return c.JSON(http.StatusBadRequest, Response{
		Success:   false,
		Timestamp: Now(),
		Error: &ErrorInfo{
			Code:    apperrors.CodeValidation,
			Message: message,
		},
	})
}

// Now is the timestamp format used on every response.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
