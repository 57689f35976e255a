package cursor

import "testing"

func TestLastScannedMissingReturnsFalse(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	_, ok, err := s.LastScanned("e2s")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ok {
		t.Fatalf("expected no cursor recorded yet")
	}
}

func TestAdvanceThenLastScanned(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Advance("e2s", 100); err != nil {
		t.Fatalf("advance: %v", err)
	}
	got, ok, err := s.LastScanned("e2s")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok || got != 100 {
		t.Fatalf("expected (100, true), got (%d, %v)", got, ok)
	}

	if err := s.Advance("e2s", 250); err != nil {
		t.Fatalf("advance again: %v", err)
	}
	got, ok, err = s.LastScanned("e2s")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok || got != 250 {
		t.Fatalf("expected (250, true) after re-advance, got (%d, %v)", got, ok)
	}
}

func TestDirectionsAreIndependent(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Advance("e2s", 10); err != nil {
		t.Fatalf("advance e2s: %v", err)
	}
	if err := s.Advance("s2e", 999); err != nil {
		t.Fatalf("advance s2e: %v", err)
	}

	e2s, _, _ := s.LastScanned("e2s")
	s2e, _, _ := s.LastScanned("s2e")
	if e2s != 10 || s2e != 999 {
		t.Fatalf("expected independent cursors, got e2s=%d s2e=%d", e2s, s2e)
	}
}
