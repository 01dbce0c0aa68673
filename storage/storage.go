package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultMaxBytes is the upload limit used when none is configured.
const DefaultMaxBytes = 5 * 1024 * 1024

// ImageStore persists an uploaded menu image and returns the reference that
// is stored on the menu item.
type ImageStore interface {
	Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)
}

// UploadError is a rejected upload. Its message is safe to return to clients.
type UploadError struct {
	Code    string
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

// Validate checks the size of the upload and sniffs its content. It returns
// the detected MIME type, which must be an image.
func Validate(fileHeader *multipart.FileHeader, maxBytes int64) (*mimetype.MIME, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if fileHeader.Size > maxBytes {
		return nil, &UploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("image exceeds maximum size of %d bytes", maxBytes),
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("detect upload type: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, &UploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("only image uploads are allowed, got %s", mtype.String()),
		}
	}
	return mtype, nil
}

// objectName builds a collision-free name keeping the detected extension.
func objectName(mtype *mimetype.MIME, unixNano int64) string {
	return fmt.Sprintf("%d-%s%s", unixNano, uuid.NewString()[:8], mtype.Extension())
}
