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

func (f *fakeRedisStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "phr:lock:cron", time.Minute)
	if err != nil {
		t.Fatalf("failed to build lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected to acquire lock: ok=%v err=%v", ok, err)
	}

	other, err := NewRedisLock(store, "phr:lock:cron", time.Minute)
	if err != nil {
		t.Fatalf("failed to build second lock: %v", err)
	}
	ok, err = other.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("second holder must not acquire a held lock")
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	ok, err = other.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected to acquire released lock: ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	store := newFakeRedisStore()
	holder, _ := NewRedisLock(store, "phr:lock:cron", time.Minute)
	bystander, _ := NewRedisLock(store, "phr:lock:cron", time.Minute)

	if ok, _ := holder.Acquire(context.Background()); !ok {
		t.Fatal("holder should acquire")
	}
	if err := bystander.Release(context.Background()); err != nil {
		t.Fatalf("bystander release errored: %v", err)
	}
	if _, exists := store.values["phr:lock:cron"]; !exists {
		t.Fatal("lock must survive a release by a non-owner")
	}
}
