// Package docstore abstracts the document database behind a small capability
// interface, so that the layers above it can be wired to Firestore in
// production and to an in-memory store in tests.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable indicates that a call to the backing store failed.
	// Failures are surfaced to the caller; nothing in this package retries.
	ErrStoreUnavailable = errors.New("document store unavailable")
)

// Where is a single equality filter on a document field.  Path names the
// stored field (the firestore tag name, not the Go field name).
type Where struct {
	Path  string
	Op    string
	Value interface{}
}

// Snapshot is one document returned from a read.  DataTo decodes the stored
// record into the given pointer.
type Snapshot struct {
	ID     string
	dataTo func(v interface{}) error
}

func (s *Snapshot) DataTo(v interface{}) error {
	return s.dataTo(v)
}

// Store is the document store capability.
//
// Get returns (nil, nil) for a missing document; a missing document is not an
// error.  Set has full-overwrite semantics: writing to an id that does not
// exist creates the document there.
type Store interface {
	// NewID reserves a fresh document id in the given collection.
	NewID(collection string) string

	Set(ctx context.Context, collection, id string, record interface{}) error

	Get(ctx context.Context, collection, id string) (*Snapshot, error)

	// Query returns every document in the collection matching all the given
	// filters.  Result order is not guaranteed.
	Query(ctx context.Context, collection string, wheres ...Where) ([]*Snapshot, error)

	Delete(ctx context.Context, collection, id string) error
}
