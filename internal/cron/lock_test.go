package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "fm:lock:photo-sync", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background(), "run-1")
	if err != nil || !ok {
		t.Fatalf("expected acquire to succeed, got ok=%v err=%v", ok, err)
	}
	if store.values["fm:lock:photo-sync"] != "run-1" {
		t.Fatalf("lock value must carry the owner, got %q", store.values["fm:lock:photo-sync"])
	}

	other, err := NewRedisLock(store, "fm:lock:photo-sync", time.Minute)
	if err != nil {
		t.Fatalf("construct second lock: %v", err)
	}
	ok, err = other.Acquire(context.Background(), "run-2")
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second instance must not acquire a held lock")
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, err = other.Acquire(context.Background(), "run-3")
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, got ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyOwn(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "fm:lock:photo-sync", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}

	if _, err := lock.Acquire(context.Background(), "run-1"); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// Simulate a TTL expiry followed by another instance taking the lock.
	store.values["fm:lock:photo-sync"] = "someone-else"

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["fm:lock:photo-sync"] != "someone-else" {
		t.Fatal("release must not delete a lock owned by another instance")
	}
}

func TestRedisLockReleaseWithoutAcquireIsNoop(t *testing.T) {
	lock, err := NewRedisLock(newFakeRedisStore(), "fm:lock:photo-sync", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestRedisLockRequiresOwner(t *testing.T) {
	lock, err := NewRedisLock(newFakeRedisStore(), "fm:lock:photo-sync", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	if _, err := lock.Acquire(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty owner")
	}
}
