package arena

import "testing"

func TestArenaHandlesAreOneBased(t *testing.T) {
	a := New[string](0)
	if got := a.Get(0); got != nil {
		t.Fatalf("Get(0) = %v, want nil", got)
	}
	first := a.Allocate("a")
	second := a.Allocate("b")
	if first != 1 || second != 2 {
		t.Fatalf("handles = %d,%d, want 1,2", first, second)
	}
	if *a.Get(second) != "b" {
		t.Fatalf("Get(2) = %q", *a.Get(second))
	}
	if a.Get(3) != nil {
		t.Fatalf("out of range handle must yield nil")
	}
	if !a.Has(1) || a.Has(0) || a.Has(3) {
		t.Fatalf("Has mismatch")
	}
	if a.Len() != 2 || len(a.Slice()) != 2 {
		t.Fatalf("Len = %d", a.Len())
	}
}

func TestArenaPointersStayValidForMutation(t *testing.T) {
	a := New[int](1)
	h := a.Allocate(10)
	*a.Get(h) = 42
	for i := 0; i < 100; i++ {
		a.Allocate(i)
	}
	if *a.Get(h) != 42 {
		t.Fatalf("value lost after growth: %d", *a.Get(h))
	}
}
