package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/repository"
	"goldmarket/internal/usecase"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/logger"
	"goldmarket/pkg/response"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/heic": true,
}

// FileHandler accepts multipart image uploads for chat photos and hallmark
// stamps.
type FileHandler struct {
	chatUseCase      *usecase.ChatUseCase
	exchangeUseCase  *usecase.ExchangeUseCase
	fileMetadataRepo repository.FileMetadataRepository
	maxFileSize      int64
}

func NewFileHandler(chatUseCase *usecase.ChatUseCase, exchangeUseCase *usecase.ExchangeUseCase, fileMetadataRepo repository.FileMetadataRepository, maxFileSize int64) *FileHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	return &FileHandler{
		chatUseCase:      chatUseCase,
		exchangeUseCase:  exchangeUseCase,
		fileMetadataRepo: fileMetadataRepo,
		maxFileSize:      maxFileSize,
	}
}

type uploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// UploadChatImage stores the "file" part and posts it to the room with the
// optional "caption" form value as text.
func (h *FileHandler) UploadChatImage(c echo.Context) error {
	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	file, contentType, err := h.imageFromForm(c)
	if err != nil {
		return response.Error(c, err)
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	chatID := c.Param("id")
	filename := sanitizeFilename(file.Filename)
	message, err := h.chatUseCase.SendImageMessage(c.Request().Context(), chatID, userID, src,
		contentType, filename, c.FormValue("caption"))
	if err != nil {
		return response.Error(c, err)
	}

	h.record(c, &entity.FileMetadata{
		URL:         message.ImageURL,
		Kind:        entity.UploadKindChatImage,
		EntityID:    chatID,
		UploadedBy:  userID,
		Filename:    filename,
		ContentType: contentType,
		Size:        file.Size,
	})
	return response.Created(c, message)
}

func (h *FileHandler) UploadStamp(c echo.Context) error {
	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	file, contentType, err := h.imageFromForm(c)
	if err != nil {
		return response.Error(c, err)
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	filename := sanitizeFilename(file.Filename)
	url, err := h.exchangeUseCase.UploadStamp(c.Request().Context(), userID, src, contentType, filename)
	if err != nil {
		return response.Error(c, err)
	}

	h.record(c, &entity.FileMetadata{
		URL:         url,
		Kind:        entity.UploadKindGoldStamp,
		UploadedBy:  userID,
		Filename:    filename,
		ContentType: contentType,
		Size:        file.Size,
	})

	return c.JSON(http.StatusCreated, response.Response{
		Success:   true,
		Data:      uploadResponse{URL: url, Filename: filename, Size: file.Size},
		Timestamp: response.Now(),
	})
}

// ListMyUploads returns the caller's uploads, newest first.
func (h *FileHandler) ListMyUploads(c echo.Context) error {
	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}
	if h.fileMetadataRepo == nil {
		return response.Success(c, []*entity.FileMetadata{})
	}

	files, err := h.fileMetadataRepo.ListByUploader(c.Request().Context(), userID, queryLimit(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, files)
}

// record stores upload metadata. The upload already succeeded, so a failure
// here is only logged.
func (h *FileHandler) record(c echo.Context, metadata *entity.FileMetadata) {
	if h.fileMetadataRepo == nil {
		return
	}
	if err := h.fileMetadataRepo.Create(c.Request().Context(), metadata); err != nil {
		logger.Error("Failed to save file metadata for %s: %v", metadata.URL, err)
	}
}

func (h *FileHandler) imageFromForm(c echo.Context) (*multipart.FileHeader, string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, "", errors.BadRequest("Missing or invalid file", err)
	}

	if file.Size > h.maxFileSize {
		logger.Warn("File too large: %d bytes (max: %d)", file.Size, h.maxFileSize)
		return nil, "", errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil)
	}

	contentType, err := sniffImageType(file)
	if err != nil {
		return nil, "", err
	}
	return file, contentType, nil
}

// sniffImageType trusts the file bytes, not the client's Content-Type header.
func sniffImageType(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", errors.Internal("Unable to read file", err)
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", errors.BadRequest("Unable to detect file type", err)
	}
	for allowed := range allowedImageTypes {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}
	return "", errors.Validation("File type not supported")
}

// sanitizeFilename keeps the base name and drops anything that is not a
// letter, digit, dot, dash or underscore.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() > 64 {
		return b.String()[:64]
	}
	return b.String()
}
