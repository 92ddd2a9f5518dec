package handler

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/usecase"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
)

type ExchangeHandler struct {
	exchangeUseCase *usecase.ExchangeUseCase
}

func NewExchangeHandler(exchangeUseCase *usecase.ExchangeUseCase) *ExchangeHandler {
	return &ExchangeHandler{
		exchangeUseCase: exchangeUseCase,
	}
}

type updateExchangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Quote prices a basket without saving it.
func (h *ExchangeHandler) Quote(c echo.Context) error {
	var req usecase.QuoteInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	quote, err := h.exchangeUseCase.Quote(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, quote)
}

func (h *ExchangeHandler) CreateExchange(c echo.Context) error {
	var req usecase.CreateExchangeInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	exchange, err := h.exchangeUseCase.Create(c.Request().Context(), uid, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, exchange)
}

func (h *ExchangeHandler) GetMyExchanges(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	exchanges, err := h.exchangeUseCase.ListMine(c.Request().Context(), uid, queryLimit(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, exchanges)
}

func (h *ExchangeHandler) GetExchange(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	exchange, err := h.exchangeUseCase.Get(c.Request().Context(), uid, c.Param("id"), isAdmin(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, exchange)
}

// ListAllExchanges is the admin queue, filterable with ?status=.
func (h *ExchangeHandler) ListAllExchanges(c echo.Context) error {
	exchanges, err := h.exchangeUseCase.ListAll(c.Request().Context(), c.QueryParam("status"), queryLimit(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, exchanges)
}

func (h *ExchangeHandler) UpdateExchangeStatus(c echo.Context) error {
	var req updateExchangeStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	adminID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	exchange, err := h.exchangeUseCase.UpdateStatus(c.Request().Context(), adminID, c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, exchange)
}
