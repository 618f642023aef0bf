package docstore

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testRecord struct {
	Name  string `json:"name"`
	Owner string `json:"ownerId"`
	Count int64  `json:"count"`
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	id := s.NewID("Widgets")
	if len(id) != 20 {
		t.Errorf("NewID returned %q with length %d, want length 20", id, len(id))
	}

	in := &testRecord{Name: "flange", Owner: "U1", Count: 3}
	if err := s.Set(ctx, "Widgets", id, in); err != nil {
		t.Fatalf("Error while writing record: %v", err)
	}

	snap, err := s.Get(ctx, "Widgets", id)
	if err != nil {
		t.Fatalf("Error while reading record: %v", err)
	}
	if snap == nil {
		t.Fatalf("Got no snapshot for a record that was just written")
	}

	out := &testRecord{}
	if err := snap.DataTo(out); err != nil {
		t.Fatalf("Error while unmarshaling record: %v", err)
	}

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("Round-tripped record differs (-want +got):\n%s", diff)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	snap, err := s.Get(ctx, "Widgets", "no-such-id")
	if err != nil {
		t.Fatalf("Reading a missing record returned an error: %v", err)
	}
	if snap != nil {
		t.Errorf("Reading a missing record returned a snapshot")
	}
}

func TestMemoryQueryFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	records := []*testRecord{
		{Name: "flange", Owner: "U1"},
		{Name: "grommet", Owner: "U1"},
		{Name: "sprocket", Owner: "U2"},
	}
	for _, r := range records {
		if err := s.Set(ctx, "Widgets", s.NewID("Widgets"), r); err != nil {
			t.Fatalf("Error while writing record: %v", err)
		}
	}

	snaps, err := s.Query(ctx, "Widgets", Where{Path: "ownerId", Op: "==", Value: "U1"})
	if err != nil {
		t.Fatalf("Error while querying: %v", err)
	}
	if len(snaps) != 2 {
		t.Errorf("Query for owner U1 returned %d records, want 2", len(snaps))
	}

	snaps, err = s.Query(ctx, "Widgets")
	if err != nil {
		t.Fatalf("Error while querying: %v", err)
	}
	if len(snaps) != 3 {
		t.Errorf("Unfiltered query returned %d records, want 3", len(snaps))
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	id := s.NewID("Widgets")
	if err := s.Set(ctx, "Widgets", id, &testRecord{Name: "flange"}); err != nil {
		t.Fatalf("Error while writing record: %v", err)
	}

	if err := s.Delete(ctx, "Widgets", id); err != nil {
		t.Fatalf("Error while deleting record: %v", err)
	}

	snap, err := s.Get(ctx, "Widgets", id)
	if err != nil {
		t.Fatalf("Error while reading record: %v", err)
	}
	if snap != nil {
		t.Errorf("Record still present after delete")
	}
}
