package pagination

import "testing"

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(-3); got != DefaultLimit {
		t.Fatalf("expected default limit for negative input, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max limit cap, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 1, Limit: 20}).Offset(); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
	if got := (Params{Page: 3, Limit: 20}).Offset(); got != 40 {
		t.Fatalf("expected offset 40, got %d", got)
	}
	if got := (Params{Page: 0, Limit: 0}).Offset(); got != 0 {
		t.Fatalf("expected clamped offset 0, got %d", got)
	}
}

func TestEnvelope(t *testing.T) {
	env := (Params{Page: 2, Limit: 10}).Envelope(45)
	if env.CurrentPage != 2 || env.TotalPages != 5 || env.TotalItems != 45 || env.ItemsPerPage != 10 {
		t.Fatalf("unexpected envelope %+v", env)
	}

	empty := (Params{Page: 1, Limit: 10}).Envelope(0)
	if empty.TotalPages != 1 {
		t.Fatalf("empty result must report one page, got %d", empty.TotalPages)
	}
}
