// Package uuid includes tests for the UUID generator wrapper.
package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
)

// TestGeneratorNewV4ID ensures v4 IDs parse and differ.
func TestGeneratorNewV4ID(t *testing.T) {
	t.Parallel()

	gen := New()
	id1, err := gen.NewV4ID()
	if err != nil {
		t.Fatalf("NewV4ID() error = %v", err)
	}
	id2, err := gen.NewV4ID()
	if err != nil {
		t.Fatalf("NewV4ID() error = %v", err)
	}
	if id1 == id2 {
		t.Fatalf("expected unique IDs, got %s and %s", id1, id2)
	}
	if _, err := goUUID.Parse(id1); err != nil {
		t.Fatalf("id1 not valid UUID: %v", err)
	}
}
