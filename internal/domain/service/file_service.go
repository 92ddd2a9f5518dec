package service

import (
	"context"
	"io"
)

type FileUploadService interface {
	// UploadFile stores the object under folder and returns its download URL.
	UploadFile(ctx context.Context, file io.Reader, fileType, folder, filename string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	Close() error
}
