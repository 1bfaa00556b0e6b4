package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aurevo/storefront/pkg/logger"
)

type fakeLock struct {
	acquired bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
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

type recordingMetrics struct {
	success  map[string]int
	failure  map[string]int
	observed int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{success: map[string]int{}, failure: map[string]int{}}
}

func (r *recordingMetrics) ObserveDuration(string, time.Duration) { r.observed++ }
func (r *recordingMetrics) IncSuccess(job string)                 { r.success[job]++ }
func (r *recordingMetrics) IncFailure(job string)                 { r.failure[job]++ }

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	bad := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	metrics := newRecordingMetrics()
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(ok, bad),
		Lock:     lock,
		Metrics:  metrics,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if ok.runs != 1 || bad.runs != 1 {
		t.Fatalf("expected each job to run once, got %d and %d", ok.runs, bad.runs)
	}
	if metrics.success["success"] != 1 || metrics.failure["fail"] != 1 || metrics.observed != 2 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
	if lock.acquired || lock.releases != 1 {
		t.Fatalf("expected lock to be released once")
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &testJob{name: "stale-orders"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
}

func TestServiceRequiresLoggerAndLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: &fakeLock{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without lock")
	}
}

func TestLocalLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	lock := &LocalLock{}
	first, _ := lock.Acquire(ctx)
	second, _ := lock.Acquire(ctx)
	if !first || second {
		t.Fatalf("expected only the first acquire to succeed, got %v %v", first, second)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if again, _ := lock.Acquire(ctx); !again {
		t.Fatal("expected acquire after release")
	}
}
