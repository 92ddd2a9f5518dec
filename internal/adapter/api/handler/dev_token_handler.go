package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
)

type CustomTokenMinter interface {
	GenerateToken(ctx context.Context, uid string) (string, error)
}

// DevTokenHandler mints Firebase custom tokens for local testing. It is only
// routed in development.
type DevTokenHandler struct {
	minter CustomTokenMinter
}

func NewDevTokenHandler(minter CustomTokenMinter) *DevTokenHandler {
	return &DevTokenHandler{
		minter: minter,
	}
}

func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return response.Error(c, errors.Validation("uid is required"))
	}

	token, err := h.minter.GenerateToken(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to mint custom token", err))
	}

	return response.Success(c, map[string]string{
		"uid":          uid,
		"custom_token": token,
	})
}
