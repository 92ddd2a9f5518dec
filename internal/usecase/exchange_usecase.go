package usecase

import (
	"context"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/repository"
	"goldmarket/internal/domain/service"
	"goldmarket/pkg/errors"
)

const defaultExchangeListLimit = 50

type ExchangeUseCase struct {
	repo      repository.GoldExchangeRepository
	storage   service.FileUploadService
	validator *validator.Validate
	logger    zerolog.Logger
}

func NewExchangeUseCase(repo repository.GoldExchangeRepository, storage service.FileUploadService, logger zerolog.Logger) *ExchangeUseCase {
	return &ExchangeUseCase{
		repo:      repo,
		storage:   storage,
		validator: validator.New(),
		logger:    logger.With().Str("component", "gold_exchange").Logger(),
	}
}

type ExchangeProductInput struct {
	GoldType      string `json:"gold_type" validate:"required"`
	Quantity      string `json:"quantity" validate:"required"`
	InputUnit     string `json:"input_unit" validate:"required,oneof=g don"`
	ExchangeType  string `json:"exchange_type" validate:"required"`
	StampImageURL string `json:"stamp_image_url,omitempty" validate:"omitempty,url"`
}

type QuoteInput struct {
	Products []ExchangeProductInput `json:"products" validate:"required,min=1,max=20,dive"`
}

type CreateExchangeInput struct {
	Products []ExchangeProductInput `json:"products" validate:"required,min=1,max=20,dive"`
	Name     string                 `json:"name" validate:"required,max=100"`
	Address  string                 `json:"address" validate:"required,max=300"`
	Phone    string                 `json:"phone" validate:"required,max=30"`
	Email    string                 `json:"email" validate:"required,email"`
}

// Quote computes weights without storing anything. Unknown types weigh 0.
func (uc *ExchangeUseCase) Quote(ctx context.Context, input QuoteInput) (service.ExchangeQuote, error) {
	if err := uc.validator.Struct(input); err != nil {
		return service.ExchangeQuote{}, err
	}
	return service.QuoteExchange(toProducts(input.Products)), nil
}

// Create stores a new request in pending state. Weights are always computed
// here; client-supplied weights are never trusted.
func (uc *ExchangeUseCase) Create(ctx context.Context, userID string, input CreateExchangeInput) (*entity.GoldExchange, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if err := uc.validator.Struct(input); err != nil {
		return nil, err
	}

	for _, p := range input.Products {
		if service.NormalizeGoldType(p.GoldType) == service.GoldTypePureOther {
			return nil, errors.Validation("순금기타 items must be appraised by inquiry")
		}
		if !service.IsQuotable(p.GoldType) {
			return nil, errors.Validation("unknown gold type: " + p.GoldType)
		}
		if !service.IsKnownExchangeType(strings.TrimSpace(p.ExchangeType)) {
			return nil, errors.Validation("unknown exchange type: " + p.ExchangeType)
		}
		if _, ok := service.ParseQuantity(p.Quantity); !ok {
			return nil, errors.Validation("quantity must be a positive number")
		}
	}

	quote := service.QuoteExchange(toProducts(input.Products))

	exchange := &entity.GoldExchange{
		UserID:                userID,
		Products:              quote.Products,
		TotalFinalWeight:      quote.TotalGrams,
		TotalFinalWeightInDon: service.FormatFixed2(quote.TotalDon),
		Name:                  strings.TrimSpace(input.Name),
		Address:               strings.TrimSpace(input.Address),
		Phone:                 strings.TrimSpace(input.Phone),
		Email:                 strings.TrimSpace(input.Email),
		Status:                entity.ExchangeStatusPending,
	}

	if err := uc.repo.Create(ctx, exchange); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("exchange_id", exchange.ID).
		Str("user_id", userID).
		Float64("total_grams", exchange.TotalFinalWeight).
		Msg("gold exchange requested")

	return exchange, nil
}

// UploadStamp stores a hallmark photo and returns its URL for use as a
// product's stamp_image_url.
func (uc *ExchangeUseCase) UploadStamp(ctx context.Context, userID string, file io.Reader, contentType, filename string) (string, error) {
	if uc.storage == nil {
		return "", errors.Internal("File upload is not configured", nil)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.Validation("only image uploads are allowed")
	}

	url, err := uc.storage.UploadFile(ctx, file, contentType, "goldStamps", userID+"_"+filename)
	if err != nil {
		return "", errors.Internal("Failed to upload stamp image", err)
	}
	return url, nil
}

func (uc *ExchangeUseCase) ListMine(ctx context.Context, userID string, limit int) ([]*entity.GoldExchange, error) {
	if limit <= 0 {
		limit = defaultExchangeListLimit
	}
	return uc.repo.ListByUser(ctx, userID, limit)
}

func (uc *ExchangeUseCase) Get(ctx context.Context, userID, exchangeID string, admin bool) (*entity.GoldExchange, error) {
	exchange, err := uc.repo.GetByID(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if !admin && exchange.UserID != userID {
		return nil, errors.Forbidden("You do not have access to this exchange request", nil)
	}
	return exchange, nil
}

func (uc *ExchangeUseCase) ListAll(ctx context.Context, status string, limit int) ([]*entity.GoldExchange, error) {
	s := entity.ExchangeStatus(status)
	if status != "" && !s.Valid() {
		return nil, errors.Validation("unknown status: " + status)
	}
	if limit <= 0 {
		limit = defaultExchangeListLimit
	}
	return uc.repo.ListAll(ctx, s, limit)
}

// UpdateStatus moves a request along pending → 교환중 → completed, or
// pending → rejected. Any other move is a Conflict.
func (uc *ExchangeUseCase) UpdateStatus(ctx context.Context, adminID, exchangeID, status string) (*entity.GoldExchange, error) {
	next := entity.ExchangeStatus(status)
	if !next.Valid() {
		return nil, errors.Validation("unknown status: " + status)
	}

	updated, err := uc.repo.UpdateStatus(ctx, exchangeID, next, func(current entity.ExchangeStatus) error {
		if current.IsTerminal() {
			return errors.Conflict("exchange request is already " + string(current))
		}
		if !current.CanTransitionTo(next) {
			return errors.Conflict("cannot move exchange from " + string(current) + " to " + string(next))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("exchange_id", exchangeID).
		Str("admin_id", adminID).
		Str("status", string(next)).
		Msg("gold exchange status changed")

	return updated, nil
}

func toProducts(inputs []ExchangeProductInput) []entity.ExchangeProduct {
	products := make([]entity.ExchangeProduct, len(inputs))
	for i, in := range inputs {
		products[i] = entity.ExchangeProduct{
			GoldType:      strings.TrimSpace(in.GoldType),
			Quantity:      strings.TrimSpace(in.Quantity),
			InputUnit:     in.InputUnit,
			ExchangeType:  strings.TrimSpace(in.ExchangeType),
			StampImageURL: in.StampImageURL,
		}
	}
	return products
}
