package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/victorsanmartin/ferromart-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
	owners   []string
	err      error
}

func (f *fakeLock) Acquire(_ context.Context, owner string) (bool, error) {
	f.acquires++
	f.owners = append(f.owners, owner)
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, registry *Registry, lock Lock) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	service := newTestService(t, NewRegistry(success, failure), &fakeLock{})

	if err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failure job to run once despite prior failure, ran %d", failure.runs)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "sync"}
	lock := &fakeLock{held: true}
	service := newTestService(t, NewRegistry(job), lock)

	if err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job must not run while another instance holds the lock, ran %d", job.runs)
	}
	if lock.releases != 0 {
		t.Fatalf("a lock we did not acquire must not be released")
	}
}

func TestRunCycleReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	service := newTestService(t, NewRegistry(&testJob{name: "sync"}), lock)

	if err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if lock.acquires != 1 || lock.releases != 1 {
		t.Fatalf("expected 1 acquire and 1 release, got %d/%d", lock.acquires, lock.releases)
	}
	if len(lock.owners) != 1 || lock.owners[0] == "" {
		t.Fatalf("each cycle must acquire the lock under its cycle id, got %v", lock.owners)
	}
}

func TestRegistryNames(t *testing.T) {
	registry := NewRegistry(&testJob{name: "photo_sync"}, nil, &testJob{name: "cleanup"})

	names := registry.Names()
	if len(names) != 2 || names[0] != "photo_sync" || names[1] != "cleanup" {
		t.Fatalf("unexpected job names %v", names)
	}
}

func TestRunCycleLockErrorIsFatal(t *testing.T) {
	lock := &fakeLock{err: errors.New("redis down")}
	service := newTestService(t, NewRegistry(&testJob{name: "sync"}), lock)

	if err := service.RunCycle(context.Background()); err == nil {
		t.Fatal("expected error when lock acquisition fails")
	}
}
