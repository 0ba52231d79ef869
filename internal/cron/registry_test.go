package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	first := &stubJob{name: "first"}
	second := &stubJob{name: "second"}
	registry.Register(first)
	registry.Register(nil)
	registry.Register(second)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != first || jobs[1] != second {
		t.Fatal("jobs returned out of order")
	}

	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("internal slice leaked to caller")
	}
}
