// Package docstore persists whole JSON documents under string keys. It is the
// storage layer behind every repository: a budget registry, the category
// table, and one transaction and one recurrence document per budget.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrDocumentNotFound = errors.New("document not found")

type Store interface {
	// Get returns the raw document stored under key or ErrDocumentNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists the stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ErrCorruptDocument is returned by Load when the stored bytes are not valid
// JSON for the target type.
var ErrCorruptDocument = errors.New("corrupt document")

func Load[T any](ctx context.Context, store Store, key string) (T, error) {
	var doc T
	data, err := store.Get(ctx, key)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w %q: %v", ErrCorruptDocument, key, err)
	}
	return doc, nil
}

func Save[T any](ctx context.Context, store Store, key string, doc T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %q: %w", key, err)
	}
	return store.Put(ctx, key, data)
}

// Key joins key segments with "/".
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}
