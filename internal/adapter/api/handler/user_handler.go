package handler

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/domain/repository"
	"goldmarket/internal/usecase"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
)

type UserHandler struct {
	userRepo     repository.UserRepository
	tokenUseCase *usecase.TokenUseCase
}

func NewUserHandler(userRepo repository.UserRepository, tokenUseCase *usecase.TokenUseCase) *UserHandler {
	return &UserHandler{
		userRepo:     userRepo,
		tokenUseCase: tokenUseCase,
	}
}

type pushTokenRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

func (h *UserHandler) GetMe(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	user, err := h.userRepo.GetByID(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

// RegisterPushToken adds a device token for the caller. Registering the same
// token twice is a no-op.
func (h *UserHandler) RegisterPushToken(c echo.Context) error {
	req, err := bindPushToken(c)
	if err != nil {
		return response.Error(c, err)
	}
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.tokenUseCase.RegisterToken(c.Request().Context(), uid, req.Token); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

// UnregisterPushToken removes a device token, typically on sign-out.
func (h *UserHandler) UnregisterPushToken(c echo.Context) error {
	req, err := bindPushToken(c)
	if err != nil {
		return response.Error(c, err)
	}
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.tokenUseCase.UnregisterToken(c.Request().Context(), uid, req.Token); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func bindPushToken(c echo.Context) (*pushTokenRequest, error) {
	var req pushTokenRequest
	if err := c.Bind(&req); err != nil {
		return nil, errors.BadRequest("Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}
