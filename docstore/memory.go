package docstore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Memory implements Store with an in-process map.  It backs tests and local
// development; production deployments use Firestore.
//
// Records are stored as JSON objects, so the json tags on the record structs
// must name fields the same way the firestore tags do, or Where filters will
// behave differently across the two implementations.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]interface{}

	// DeleteHook, if set, runs before every Delete and can force it to fail.
	// Tests use it to exercise partial-failure behavior.
	DeleteHook func(collection, id string) error
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		collections: map[string]map[string]map[string]interface{}{},
	}
}

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func (s *Memory) NewID(collection string) string {
	// Same shape as a Firestore auto-id: 20 characters of [A-Za-z0-9].
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("while generating document id: %v", err))
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b)
}

func encode(record interface{}) (map[string]interface{}, error) {
	buf, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("while encoding record: %w", err)
	}

	fields := map[string]interface{}{}
	if err := json.Unmarshal(buf, &fields); err != nil {
		return nil, fmt.Errorf("while decoding record fields: %w", err)
	}

	return fields, nil
}

func snapshotOf(id string, fields map[string]interface{}) *Snapshot {
	return &Snapshot{
		ID: id,
		dataTo: func(v interface{}) error {
			buf, err := json.Marshal(fields)
			if err != nil {
				return fmt.Errorf("while encoding record fields: %w", err)
			}
			return json.Unmarshal(buf, v)
		},
	}
}

func (s *Memory) Set(ctx context.Context, collection, id string, record interface{}) error {
	fields, err := encode(record)
	if err != nil {
		return fmt.Errorf("%w: while writing %s/%s: %v", ErrStoreUnavailable, collection, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[collection] == nil {
		s.collections[collection] = map[string]map[string]interface{}{}
	}
	s.collections[collection][id] = fields

	return nil
}

func (s *Memory) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}

	return snapshotOf(id, fields), nil
}

func (s *Memory) Query(ctx context.Context, collection string, wheres ...Where) ([]*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Snapshot
	for id, fields := range s.collections[collection] {
		matched := true
		for _, w := range wheres {
			if w.Op != "==" {
				return nil, fmt.Errorf("unsupported filter op %q", w.Op)
			}

			// Stored values have been through a JSON round trip, so compare
			// the filter value after the same round trip.
			want, err := encodeValue(w.Value)
			if err != nil {
				return nil, err
			}
			if !reflect.DeepEqual(fields[w.Path], want) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, snapshotOf(id, fields))
		}
	}

	return out, nil
}

func encodeValue(v interface{}) (interface{}, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("while encoding filter value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, fmt.Errorf("while decoding filter value: %w", err)
	}
	return out, nil
}

func (s *Memory) Delete(ctx context.Context, collection, id string) error {
	if s.DeleteHook != nil {
		if err := s.DeleteHook(collection, id); err != nil {
			return fmt.Errorf("%w: while deleting %s/%s: %v", ErrStoreUnavailable, collection, id, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)

	return nil
}
