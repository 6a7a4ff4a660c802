package ports

import "testing"

func TestAllocatePicksDistinctPorts(t *testing.T) {
	a := NewAllocator()

	p1, err := a.Allocate("model-a", 0)
	if err != nil {
		t.Fatalf("allocate model-a: %v", err)
	}
	p2, err := a.Allocate("model-b", 0)
	if err != nil {
		t.Fatalf("allocate model-b: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("expected distinct ports, got %d twice", p1)
	}
}

func TestAllocatePreferredPortConflict(t *testing.T) {
	a := NewAllocator()

	p, err := a.Allocate("model-a", 40123)
	if err != nil {
		t.Fatalf("allocate preferred port: %v", err)
	}
	if p != 40123 {
		t.Fatalf("expected port 40123, got %d", p)
	}

	if _, err := a.Allocate("model-b", 40123); err == nil {
		t.Fatal("expected conflict error allocating an already-reserved preferred port")
	}
}

func TestReleaseByNameFreesAllPorts(t *testing.T) {
	a := NewAllocator()

	p1, _ := a.Allocate("model-a", 0)
	a.ReleaseByName("model-a")

	p2, err := a.Allocate("model-b", p1)
	if err != nil {
		t.Fatalf("expected port %d to be free after release, got error: %v", p1, err)
	}
	if p2 != p1 {
		t.Fatalf("expected reallocated port %d, got %d", p1, p2)
	}
}
