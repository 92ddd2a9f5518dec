package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/service"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/logger"
)

func validExchangeInput() CreateExchangeInput {
	return CreateExchangeInput{
		Products: []ExchangeProductInput{
			{GoldType: service.GoldType14K, Quantity: "100", InputUnit: "g", ExchangeType: service.ExchangeTypeGoldBar},
			{GoldType: service.GoldType18K, Quantity: "10", InputUnit: "don", ExchangeType: service.ExchangeTypeGoldLump},
		},
		Name:    "홍길동",
		Address: "서울시 종로구",
		Phone:   "010-0000-0000",
		Email:   "hong@example.com",
	}
}

func TestCreateExchangeComputesWeights(t *testing.T) {
	repo := newFakeExchangeRepo()
	uc := NewExchangeUseCase(repo, &fakeStorage{}, logger.Nop())

	exchange, err := uc.Create(context.Background(), "u1", validExchangeInput())
	require.NoError(t, err)

	assert.Equal(t, entity.ExchangeStatusPending, exchange.Status)
	assert.Equal(t, "u1", exchange.UserID)
	require.Len(t, exchange.Products, 2)
	assert.InDelta(t, 51.3, exchange.Products[0].FinalWeight, 0.1)
	assert.InDelta(t, 26.46, exchange.Products[1].FinalWeight, 0.1)
	assert.InDelta(t, 77.76, exchange.TotalFinalWeight, 0.1)
	assert.Equal(t, "20.74", exchange.TotalFinalWeightInDon)

	stored, err := repo.GetByID(context.Background(), exchange.ID)
	require.NoError(t, err)
	assert.Equal(t, exchange.TotalFinalWeight, stored.TotalFinalWeight)
}

func TestCreateExchangeRejectsBadProducts(t *testing.T) {
	uc := NewExchangeUseCase(newFakeExchangeRepo(), nil, logger.Nop())
	ctx := context.Background()

	inquiry := validExchangeInput()
	inquiry.Products[0].GoldType = service.GoldTypePureOther
	_, err := uc.Create(ctx, "u1", inquiry)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	negative := validExchangeInput()
	negative.Products[0].Quantity = "-3"
	_, err = uc.Create(ctx, "u1", negative)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	unknownForm := validExchangeInput()
	unknownForm.Products[1].ExchangeType = "반지"
	_, err = uc.Create(ctx, "u1", unknownForm)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	missing := validExchangeInput()
	missing.Email = ""
	_, err = uc.Create(ctx, "u1", missing)
	var verr validator.ValidationErrors
	assert.ErrorAs(t, err, &verr)

	_, err = uc.Create(ctx, "", validExchangeInput())
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestQuoteAcceptsLegacyGoldType(t *testing.T) {
	uc := NewExchangeUseCase(newFakeExchangeRepo(), nil, logger.Nop())

	quote, err := uc.Quote(context.Background(), QuoteInput{Products: []ExchangeProductInput{
		{GoldType: "순금제999", Quantity: "1", InputUnit: "don", ExchangeType: service.ExchangeTypeGoldLump},
	}})
	require.NoError(t, err)
	assert.InDelta(t, 3.75*0.98*0.98, quote.TotalGrams, 0.001)
	assert.Equal(t, service.GoldTypePure999, quote.Products[0].GoldType)
}

func TestExchangeStatusTransitions(t *testing.T) {
	repo := newFakeExchangeRepo()
	uc := NewExchangeUseCase(repo, nil, logger.Nop())
	ctx := context.Background()

	exchange, err := uc.Create(ctx, "u1", validExchangeInput())
	require.NoError(t, err)

	_, err = uc.UpdateStatus(ctx, "admin", exchange.ID, string(entity.ExchangeStatusCompleted))
	assert.True(t, errors.Is(err, errors.CodeConflict))

	updated, err := uc.UpdateStatus(ctx, "admin", exchange.ID, "교환중")
	require.NoError(t, err)
	assert.Equal(t, entity.ExchangeStatusInProgress, updated.Status)

	_, err = uc.UpdateStatus(ctx, "admin", exchange.ID, "교환중")
	assert.True(t, errors.Is(err, errors.CodeConflict))

	updated, err = uc.UpdateStatus(ctx, "admin", exchange.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, entity.ExchangeStatusCompleted, updated.Status)

	_, err = uc.UpdateStatus(ctx, "admin", exchange.ID, "rejected")
	assert.True(t, errors.Is(err, errors.CodeConflict))
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "exchange request is already completed", appErr.Message)

	_, err = uc.UpdateStatus(ctx, "admin", exchange.ID, "shipped")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.UpdateStatus(ctx, "admin", "missing", "rejected")
	assert.True(t, errors.IsNotFound(err))
}

func TestExchangeAccess(t *testing.T) {
	repo := newFakeExchangeRepo()
	uc := NewExchangeUseCase(repo, nil, logger.Nop())
	ctx := context.Background()

	exchange, err := uc.Create(ctx, "u1", validExchangeInput())
	require.NoError(t, err)

	_, err = uc.Get(ctx, "u2", exchange.ID, false)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
	_, err = uc.Get(ctx, "admin", exchange.ID, true)
	assert.NoError(t, err)

	mine, err := uc.ListMine(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = uc.ListAll(ctx, "bogus", 0)
	assert.True(t, errors.Is(err, errors.CodeValidation))
	pending, err := uc.ListAll(ctx, "pending", 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestUploadStamp(t *testing.T) {
	store := &fakeStorage{}
	uc := NewExchangeUseCase(newFakeExchangeRepo(), store, logger.Nop())

	url, err := uc.UploadStamp(context.Background(), "u1", strings.NewReader("jpg"), "image/jpeg", "ring.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "goldStamps/u1_ring.jpg")

	_, err = uc.UploadStamp(context.Background(), "u1", strings.NewReader("x"), "text/plain", "a.txt")
	assert.True(t, errors.Is(err, errors.CodeValidation))
}
