package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/libreria-dev/libreria-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquires int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	return nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (c *countingJob) Name() string { return c.name }

func (c *countingJob) Run(context.Context) error {
	c.runs++
	return c.err
}

func TestSweepRunsEveryJobEvenAfterFailure(t *testing.T) {
	broken := &countingJob{name: "broken", err: errors.New("boom")}
	healthy := &countingJob{name: "healthy"}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "janitor-test"}),
		Registry: NewRegistry(broken, healthy),
		Lock:     &fakeLock{},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	err = service.sweep(context.Background())
	if err == nil {
		t.Fatal("expected sweep to surface the job failure")
	}
	if broken.runs != 1 {
		t.Fatalf("broken job ran %d times, want 1", broken.runs)
	}
	if healthy.runs != 1 {
		t.Fatalf("healthy job ran %d times, want 1", healthy.runs)
	}
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	job := &countingJob{name: "noop"}
	lock := &fakeLock{held: true}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "janitor-test"}),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := service.sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran %d times while lock was held, want 0", job.runs)
	}
	if lock.acquires != 1 {
		t.Fatalf("expected one acquire attempt, got %d", lock.acquires)
	}
}
