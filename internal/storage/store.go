// Package storage persists the site document. File and memory stores hold a
// single copy; the revision store keeps a history in a SQL database.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/goliatone/go-microsite/internal/content"
)

var ErrDocumentRequired = errors.New("storage: document is required")

// ContentStore loads and saves the site document.
type ContentStore interface {
	Load(ctx context.Context) (content.Document, error)
	Save(ctx context.Context, doc content.Document) error
}

// Watcher reports documents changed outside the process.
type Watcher interface {
	Watch(ctx context.Context, fn func(content.Document)) error
}

// Checksum returns the hex SHA-256 of the canonical encoding of doc along
// with the encoding itself.
func Checksum(doc content.Document) (string, []byte, error) {
	if doc == nil {
		return "", nil, ErrDocumentRequired
	}
	raw, err := content.Marshal(doc)
	if err != nil {
		return "", nil, err
	}
	return checksumBytes(raw), raw, nil
}

func checksumBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
