package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/repository"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/logger"
)

const fileMetadataCollection = "fileMetadata"

type firestoreFileMetadataRepository struct {
	client *firestore.Client
}

func NewFirestoreFileMetadataRepository(client *firestore.Client) repository.FileMetadataRepository {
	return &firestoreFileMetadataRepository{
		client: client,
	}
}

func (r *firestoreFileMetadataRepository) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	ref := r.client.Collection(fileMetadataCollection).NewDoc()
	if metadata.CreatedAt.IsZero() {
		metadata.CreatedAt = time.Now()
	}
	if _, err := ref.Create(ctx, metadata); err != nil {
		return errors.Internal("Failed to create file metadata", err)
	}
	metadata.ID = ref.ID
	return nil
}

func (r *firestoreFileMetadataRepository) ListByUploader(ctx context.Context, userID string, limit int) ([]*entity.FileMetadata, error) {
	query := r.client.Collection(fileMetadataCollection).
		Where("uploadedBy", "==", userID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var files []*entity.FileMetadata
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to fetch file metadata", err)
		}

		metadata, err := decodeFileMetadata(doc)
		if err != nil {
			logger.Warn("Skipping malformed file metadata %s: %v", doc.Ref.ID, err)
			continue
		}
		files = append(files, metadata)
	}
	return files, nil
}

func decodeFileMetadata(doc *firestore.DocumentSnapshot) (*entity.FileMetadata, error) {
	var metadata entity.FileMetadata
	if err := doc.DataTo(&metadata); err != nil {
		return nil, errors.Internal("Failed to parse file metadata", err)
	}
	metadata.ID = doc.Ref.ID
	return &metadata, nil
}
