package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// ValidateFile reads the upload and checks size and content type against
// the category rules. The type is sniffed from the bytes, never taken
// from the client-supplied header.
func ValidateFile(reader io.Reader, category string, maxSize int64) ([]byte, string, error) {
	// maxSize+1 so an oversized upload is detected without reading it all
	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrFileTooLarge
	}

	mimeType := http.DetectContentType(data)
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	allowedTypes, ok := AllowedMimeTypes[category]
	if !ok {
		return nil, "", fmt.Errorf("unknown category: %s", category)
	}
	allowed := false
	for _, t := range allowedTypes {
		if t == mimeType {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, "", ErrInvalidMimeType
	}

	return data, mimeType, nil
}

// ValidateAndBuffer validates the upload and returns it buffered for the
// object store together with the detected content type.
func ValidateAndBuffer(reader io.Reader, category string) (*bytes.Buffer, string, error) {
	maxSize, ok := MaxFileSizes[category]
	if !ok {
		return nil, "", fmt.Errorf("unknown category: %s", category)
	}

	data, mimeType, err := ValidateFile(reader, category, maxSize)
	if err != nil {
		return nil, "", err
	}

	return bytes.NewBuffer(data), mimeType, nil
}

// GetExtensionForMime returns the file extension for a MIME type
func GetExtensionForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
