package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore implements Store against a Cloud Firestore database.
type Firestore struct {
	client *firestore.Client
}

var _ Store = (*Firestore)(nil)

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (s *Firestore) NewID(collection string) string {
	return s.client.Collection(collection).NewDoc().ID
}

func (s *Firestore) Set(ctx context.Context, collection, id string, record interface{}) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, record); err != nil {
		return fmt.Errorf("%w: while writing %s/%s: %v", ErrStoreUnavailable, collection, id, err)
	}
	return nil
}

func (s *Firestore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	docSnap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: while reading %s/%s: %v", ErrStoreUnavailable, collection, id, err)
	}

	return &Snapshot{ID: docSnap.Ref.ID, dataTo: docSnap.DataTo}, nil
}

func (s *Firestore) Query(ctx context.Context, collection string, wheres ...Where) ([]*Snapshot, error) {
	q := s.client.Collection(collection).Query
	for _, w := range wheres {
		q = q.Where(w.Path, w.Op, w.Value)
	}

	var out []*Snapshot
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: while iterating %s: %v", ErrStoreUnavailable, collection, err)
		}

		out = append(out, &Snapshot{ID: docSnap.Ref.ID, dataTo: docSnap.DataTo})
	}

	return out, nil
}

func (s *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("%w: while deleting %s/%s: %v", ErrStoreUnavailable, collection, id, err)
	}
	return nil
}
