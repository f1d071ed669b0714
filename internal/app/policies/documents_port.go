package policies

import (
	"context"
	"io"
)

// DocumentStore persists uploaded KYC documents and returns a stable URL.
// Storage mechanics live behind this port.
type DocumentStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (publicURL string, err error)
}
