package storage

import (
	"context"
	"io"
)

// ObjectStorage is the minimal interface for the proof object store.
// Deposit payment proofs are stored opaque; the ledger only keeps the key.
type ObjectStorage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(key string) string
}

// CategoryProof is the only upload category this service accepts.
const CategoryProof = "proof"

// AllowedMimeTypes maps upload category to acceptable content types.
var AllowedMimeTypes = map[string][]string{
	CategoryProof: {"image/jpeg", "image/png", "image/webp", "application/pdf"},
}

// MaxFileSizes maps upload category to the maximum accepted size in bytes.
var MaxFileSizes = map[string]int64{
	CategoryProof: 10 * 1024 * 1024,
}
