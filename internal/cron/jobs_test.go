package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/aurevo/storefront/pkg/logger"
)

type fakeStaleOrders struct {
	cutoff time.Time
	reason string
	rows   int64
	err    error
}

func (f *fakeStaleOrders) FailStalePending(_ context.Context, cutoff time.Time, reason string) (int64, error) {
	f.cutoff, f.reason = cutoff, reason
	return f.rows, f.err
}

func TestStaleOrderJobUsesCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeStaleOrders{rows: 2}
	jobIface, err := NewStaleOrderJob(StaleOrderJobParams{Logger: logger.Nop(), Orders: repo, After: 45 * time.Minute})
	if err != nil {
		t.Fatalf("NewStaleOrderJob: %v", err)
	}
	job := jobIface.(*staleOrderJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-45 * time.Minute); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
	if repo.reason != staleOrderReason {
		t.Fatalf("unexpected reason %q", repo.reason)
	}
}

func TestStaleOrderJobPropagatesErrors(t *testing.T) {
	job, err := NewStaleOrderJob(StaleOrderJobParams{Logger: logger.Nop(), Orders: &fakeStaleOrders{err: errors.New("db down")}})
	if err != nil {
		t.Fatalf("NewStaleOrderJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeCartPruner struct {
	prefix  string
	cutoff  time.Time
	deleted int64
	err     error
	called  int
}

func (f *fakeCartPruner) DeleteOlderThan(_ context.Context, _ *gorm.DB, prefix string, cutoff time.Time) (int64, error) {
	f.called++
	f.prefix, f.cutoff = prefix, cutoff
	return f.deleted, f.err
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestCartRetentionJobDeletesAbandonedCarts(t *testing.T) {
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	pruner := &fakeCartPruner{deleted: 7}
	jobIface, err := NewCartRetentionJob(CartRetentionJobParams{
		Logger:    logger.Nop(),
		DB:        fakeTxRunner{},
		Carts:     pruner,
		KeyPrefix: "aurevo_cart:",
	})
	if err != nil {
		t.Fatalf("NewCartRetentionJob: %v", err)
	}
	job := jobIface.(*cartRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pruner.called != 1 || pruner.prefix != "aurevo_cart:" {
		t.Fatalf("unexpected pruner call %+v", pruner)
	}
	if want := now.Add(-defaultCartRetention); !pruner.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, pruner.cutoff)
	}
}

func TestCartRetentionJobRequiresPrefix(t *testing.T) {
	_, err := NewCartRetentionJob(CartRetentionJobParams{Logger: logger.Nop(), DB: fakeTxRunner{}, Carts: &fakeCartPruner{}})
	if err == nil {
		t.Fatal("expected error without key prefix")
	}
}

type fakeRedisStore struct {
	values map[string]string
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

func TestRedisLockReleasesOnlyOwnKey(t *testing.T) {
	ctx := context.Background()
	store := &fakeRedisStore{values: map[string]string{}}
	first, err := NewRedisLock(store, "aur:cron:lock:test", 0)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(store, "aur:cron:lock:test", 0)

	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatal("expected first acquire to succeed")
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("expected second acquire to fail while held")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if _, held := store.values["aur:cron:lock:test"]; !held {
		t.Fatal("non-owner release must not delete the key")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, held := store.values["aur:cron:lock:test"]; held {
		t.Fatal("owner release must delete the key")
	}
}
