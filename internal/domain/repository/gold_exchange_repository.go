package repository

import (
	"context"

	"goldmarket/internal/domain/entity"
)

type GoldExchangeRepository interface {
	Create(ctx context.Context, exchange *entity.GoldExchange) error
	GetByID(ctx context.Context, id string) (*entity.GoldExchange, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.GoldExchange, error)
	// ListAll filters by status when status is non-empty.
	ListAll(ctx context.Context, status entity.ExchangeStatus, limit int) ([]*entity.GoldExchange, error)
	// UpdateStatus reads the current status and writes next in one
	// transaction; check may veto the move by returning an error.
	UpdateStatus(ctx context.Context, id string, next entity.ExchangeStatus, check func(current entity.ExchangeStatus) error) (*entity.GoldExchange, error)
}
