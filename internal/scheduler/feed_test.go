package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New()
	if err != nil {
		t.Fatalf("create scheduler: %v", err)
	}
	svc.Start()
	t.Cleanup(func() {
		_ = svc.Stop()
	})
	return svc
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed value")
	}
	var zero T
	return zero
}

func TestFeedStartsOnFirstSubscriberAndStopsOnLastClose(t *testing.T) {
	svc := newTestService(t)
	var polls atomic.Int64
	feed := NewFeed(svc, "test_feed", 20*time.Millisecond, func(context.Context) int64 {
		return polls.Add(1)
	})

	if feed.Running() || svc.JobCount() != 0 {
		t.Fatal("feed must not poll before anyone subscribes")
	}

	first, err := feed.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	second, err := feed.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if svc.JobCount() != 1 {
		t.Fatalf("expected one polling job, got %d", svc.JobCount())
	}

	if v := receive(t, first.C); v < 1 {
		t.Fatalf("first value = %d", v)
	}
	receive(t, second.C)

	first.Close()
	if !feed.Running() {
		t.Fatal("feed stopped while a subscriber remains")
	}
	second.Close()
	if feed.Running() {
		t.Fatal("feed still running after last close")
	}
	if feed.Subscribers() != 0 {
		t.Fatalf("subscribers = %d", feed.Subscribers())
	}

	// Closing twice is harmless and the channel is closed.
	second.Close()
	for range second.C {
	}
}

func TestFeedKeepsOnlyNewestValue(t *testing.T) {
	svc := newTestService(t)
	feed := NewFeed(svc, "manual_feed", time.Hour, func(context.Context) string { return "polled" })
	sub, err := feed.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	// The immediate first run may or may not have published yet.
	time.Sleep(50 * time.Millisecond)
	feed.Publish("one")
	feed.Publish("two")
	if v := receive(t, sub.C); v != "two" {
		t.Fatalf("value = %q, want newest", v)
	}
}

func TestFeedResubscribeRestartsJob(t *testing.T) {
	svc := newTestService(t)
	feed := NewFeed(svc, "restart_feed", 20*time.Millisecond, func(context.Context) bool { return true })

	sub, err := feed.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	sub.Close()

	sub, err = feed.Subscribe()
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	defer sub.Close()
	if !receive(t, sub.C) {
		t.Fatal("expected a value after resubscribing")
	}
}

func TestAddIntervalJobValidates(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.AddIntervalJob("", time.Second, func() {}); err != ErrEmptyJobName {
		t.Fatalf("expected ErrEmptyJobName, got %v", err)
	}
	if _, err := svc.AddIntervalJob("x", 0, func() {}); err != ErrBadInterval {
		t.Fatalf("expected ErrBadInterval, got %v", err)
	}
	var nilSvc *Service
	if _, err := nilSvc.AddIntervalJob("x", time.Second, func() {}); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
