package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"goldmarket/pkg/logger"
)

const publicURLPrefix = "https://storage.googleapis.com/"

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	storageClient := &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}

	if err := storageClient.setBucketCORS(ctx); err != nil {
		logger.Warn("Failed to set CORS configuration: %v", err)
	}

	return storageClient, nil
}

func (c *CloudStorageClient) setBucketCORS(ctx context.Context) error {
	bucket := c.client.Bucket(c.bucketName)

	corsConfig := storage.CORS{
		MaxAge:          3600,
		Methods:         []string{"GET", "OPTIONS"},
		Origins:         []string{"*"},
		ResponseHeaders: []string{"Content-Type"},
	}

	bucketAttrs, err := bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %v", err)
	}

	if len(bucketAttrs.CORS) == 0 {
		_, err := bucket.Update(ctx, storage.BucketAttrsToUpdate{
			CORS: []storage.CORS{corsConfig},
		})
		if err != nil {
			return fmt.Errorf("failed to update bucket CORS: %v", err)
		}
	}

	return nil
}

// UploadFile writes the object to folder/filename. An empty filename gets a
// generated one; the extension follows the content type.
func (c *CloudStorageClient) UploadFile(ctx context.Context, file io.Reader, fileType, folder, filename string) (string, error) {
	name := ObjectName(folder, filename, fileType, time.Now())

	obj := c.client.Bucket(c.bucketName).Object(name)
	wc := obj.NewWriter(ctx)
	wc.ContentType = fileType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}

	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	return publicURLPrefix + c.bucketName + "/" + name, nil
}

func (c *CloudStorageClient) DeleteFile(ctx context.Context, fileURL string) error {
	if !strings.HasPrefix(fileURL, publicURLPrefix) {
		return fmt.Errorf("invalid GCS URL format")
	}

	parts := strings.SplitN(fileURL[len(publicURLPrefix):], "/", 2)
	if len(parts) != 2 || parts[0] != c.bucketName {
		return fmt.Errorf("invalid GCS URL format or bucket mismatch")
	}

	if err := c.client.Bucket(c.bucketName).Object(parts[1]).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}

	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

// ObjectName builds the object path for an upload.
func ObjectName(folder, filename, fileType string, now time.Time) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if filename == "" || base == "" || base == "." || base == "/" {
		base = uuid.New().String()
	}
	base = fmt.Sprintf("%d_%s", now.UnixMilli(), base)

	return path.Join(strings.Trim(folder, "/"), base+extensionFor(fileType))
}

func extensionFor(fileType string) string {
	switch fileType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".bin"
	}
}
