package repository

import (
	"context"

	"goldmarket/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// Push token set, stored on the user document.
	GetFCMTokens(ctx context.Context, userID string) ([]string, error)
	AddFCMToken(ctx context.Context, userID, token string) error
	RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error
}
