package db

import (
	"errors"
	"reflect"
	"testing"
)

func newTestIndex(t *testing.T, capacity int) *LinkIndex {
	t.Helper()
	idx, err := NewLinkIndex(capacity, 64)
	if err != nil {
		t.Fatalf("NewLinkIndex(%d) failed: %v", capacity, err)
	}
	return idx
}

// TestNewLinkIndexInvalidCapacity tests that negative capacities are rejected
func TestNewLinkIndexInvalidCapacity(t *testing.T) {
	if _, err := NewLinkIndex(-1, 64); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

// TestAddAndQuery tests adding edges and querying both directions
func TestAddAndQuery(t *testing.T) {
	idx := newTestIndex(t, 10)

	_ = idx.Add(1, 2)
	_ = idx.Add(1, "3")
	_ = idx.Add(4, 2)

	if ok, _ := idx.IsLinked("1", 2); !ok {
		t.Error("Edge 1->2 should exist")
	}
	if ok, _ := idx.IsLinked(2, 1); ok {
		t.Error("Edges are directed, 2->1 should not exist")
	}

	targets, _ := idx.TargetsForSource(1)
	if !reflect.DeepEqual(targets, []string{"2", "3"}) {
		t.Errorf("Expected targets [2 3], got %v", targets)
	}
	sources, _ := idx.SourcesForTarget("2")
	if !reflect.DeepEqual(sources, []string{"1", "4"}) {
		t.Errorf("Expected sources [1 4], got %v", sources)
	}
}

// TestDuplicateRefreshes tests that re-adding an edge moves it to the tail without duplicating it
func TestDuplicateRefreshes(t *testing.T) {
	idx := newTestIndex(t, 3)

	_ = idx.Add(1, 1)
	_ = idx.Add(1, 2)
	_ = idx.Add(1, 1)

	want := []Link{{"1", "2"}, {"1", "1"}}
	if got := idx.Links(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

// TestEdgeEviction tests that a full index drops its oldest edge
func TestEdgeEviction(t *testing.T) {
	idx := newTestIndex(t, 2)

	_ = idx.Add(1, 1)
	_ = idx.Add(1, 2)
	_ = idx.Add(1, 1) // refresh, 1->2 is now the oldest
	_ = idx.Add(1, 3)

	want := []Link{{"1", "1"}, {"1", "3"}}
	if got := idx.Links(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if idx.Len() != 2 {
		t.Errorf("Expected 2 edges, got %d", idx.Len())
	}
}

// TestZeroCapacity tests that a zero capacity index ignores adds but still validates ids
func TestZeroCapacity(t *testing.T) {
	idx := newTestIndex(t, 0)

	if err := idx.Add(1, 2); err != nil {
		t.Errorf("Add on disabled index should not fail, got %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("Disabled index should stay empty, got %d", idx.Len())
	}
	if ok, _ := idx.IsLinked(1, 2); ok {
		t.Error("Disabled index should never report a link")
	}
	if err := idx.Add(1.0, 2); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("Add should still validate ids, got %v", err)
	}
}

// TestRemoveAndDelete tests single edge removal and bulk deletion by source or target
func TestRemoveAndDelete(t *testing.T) {
	idx := newTestIndex(t, 10)
	_ = idx.Add(1, 2)
	_ = idx.Add(1, 3)
	_ = idx.Add(2, 3)
	_ = idx.Add(3, 1)

	_ = idx.Remove(1, 2)
	_ = idx.Remove(9, 9) // absent edge is a no-op
	if ok, _ := idx.IsLinked(1, 2); ok {
		t.Error("Edge 1->2 should be removed")
	}

	_ = idx.DeleteTarget(3)
	want := []Link{{"3", "1"}}
	if got := idx.Links(); !reflect.DeepEqual(got, want) {
		t.Errorf("After DeleteTarget expected %v, got %v", want, got)
	}

	_ = idx.DeleteSource("3")
	if idx.Len() != 0 {
		t.Errorf("After DeleteSource expected empty index, got %v", idx.Links())
	}
}

// TestInvalidIdentifiers tests that every operation surfaces identifier errors
func TestInvalidIdentifiers(t *testing.T) {
	idx := newTestIndex(t, 1)

	if err := idx.Add(true, 1); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("Add: expected ErrInvalidIdentifier, got %v", err)
	}
	if err := idx.Remove(1, nil); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("Remove: expected ErrInvalidIdentifier, got %v", err)
	}
	if _, err := idx.IsLinked([]int{}, 1); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("IsLinked: expected ErrInvalidIdentifier, got %v", err)
	}
	if _, err := idx.TargetsForSource(1.5); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("TargetsForSource: expected ErrInvalidIdentifier, got %v", err)
	}
	if _, err := idx.SourcesForTarget(false); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("SourcesForTarget: expected ErrInvalidIdentifier, got %v", err)
	}
	if err := idx.DeleteSource(nil); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("DeleteSource: expected ErrInvalidIdentifier, got %v", err)
	}
	if err := idx.DeleteTarget(map[string]int{}); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("DeleteTarget: expected ErrInvalidIdentifier, got %v", err)
	}
}
