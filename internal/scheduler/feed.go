// internal/scheduler/feed.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Feed polls a source on an interval while anyone is subscribed. The first
// Subscribe registers the polling job and the last Close removes it, so a
// feed without subscribers holds no timer.
type Feed[T any] struct {
	name     string
	svc      *Service
	interval time.Duration
	fetch    func(context.Context) T

	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
	job    gocron.Job
}

func NewFeed[T any](svc *Service, name string, interval time.Duration, fetch func(context.Context) T) *Feed[T] {
	return &Feed[T]{
		name:     name,
		svc:      svc,
		interval: interval,
		fetch:    fetch,
		subs:     make(map[int]chan T),
	}
}

// Subscription receives the latest value on C. Slow readers only ever see
// the newest value. C is closed by Close.
type Subscription[T any] struct {
	C <-chan T

	once  sync.Once
	close func()
}

func (s *Subscription[T]) Close() {
	s.once.Do(s.close)
}

func (f *Feed[T]) Subscribe() (*Subscription[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.job == nil {
		job, err := f.svc.AddIntervalJob(f.name, f.interval, f.poll)
		if err != nil {
			return nil, err
		}
		f.job = job
	}

	id := f.nextID
	f.nextID++
	ch := make(chan T, 1)
	f.subs[id] = ch
	log.Debug().Str("feed", f.name).Int("subscribers", len(f.subs)).Msg("Feed subscribed")

	return &Subscription[T]{
		C:     ch,
		close: func() { f.unsubscribe(id) },
	}, nil
}

// Subscribers reports the number of open subscriptions.
func (f *Feed[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Running reports whether the polling job is registered.
func (f *Feed[T]) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.job != nil
}

func (f *Feed[T]) unsubscribe(id int) {
	f.mu.Lock()
	ch, ok := f.subs[id]
	if !ok {
		f.mu.Unlock()
		return
	}
	delete(f.subs, id)
	close(ch)
	log.Debug().Str("feed", f.name).Int("subscribers", len(f.subs)).Msg("Feed unsubscribed")

	var job gocron.Job
	if len(f.subs) == 0 {
		job, f.job = f.job, nil
	}
	f.mu.Unlock()

	// Removed outside the lock: a poll in flight may be waiting on it.
	if job != nil {
		if err := f.svc.RemoveJob(job); err != nil {
			log.Error().Err(err).Str("feed", f.name).Msg("Failed to stop feed job")
		}
	}
}

func (f *Feed[T]) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), f.interval)
	defer cancel()
	ctx = log.With().Str("job_name", f.name).Logger().WithContext(ctx)

	value := f.fetch(ctx)
	f.Publish(value)
}

// Publish hands value to every subscriber, replacing any value a
// subscriber has not read yet.
func (f *Feed[T]) Publish(value T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- value
	}
}
