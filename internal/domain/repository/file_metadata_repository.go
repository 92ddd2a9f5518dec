package repository

import (
	"context"

	"goldmarket/internal/domain/entity"
)

type FileMetadataRepository interface {
	Create(ctx context.Context, metadata *entity.FileMetadata) error
	ListByUploader(ctx context.Context, userID string, limit int) ([]*entity.FileMetadata, error)
}
