package fanbox

import (
	"context"
	"sync"
	"time"
)

// EventLoop runs posted functions one at a time on the goroutine calling Run.
// It implements Scheduler.
type EventLoop struct {
	queue chan func()

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

// NewEventLoop creates a loop with room for size pending events.
func NewEventLoop(size int) *EventLoop {
	if size <= 0 {
		size = 64
	}
	return &EventLoop{
		queue:  make(chan func(), size),
		timers: make(map[*time.Timer]struct{}),
	}
}

// Post queues f. It blocks while the queue is full.
func (l *EventLoop) Post(f func()) {
	l.queue <- f
}

// After posts f once d has elapsed.
func (l *EventLoop) After(d time.Duration, f func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()
		l.Post(f)
	})
	l.timers[t] = struct{}{}
}

// Run processes events until ctx is done, then stops pending timers.
func (l *EventLoop) Run(ctx context.Context) error {
	defer l.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-l.queue:
			f()
		}
	}
}

// Do posts f and waits for it to run.
func (l *EventLoop) Do(ctx context.Context, f func()) error {
	done := make(chan struct{})
	select {
	case l.queue <- func() { defer close(done); f() }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *EventLoop) stopTimers() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for t := range l.timers {
		t.Stop()
	}
	clear(l.timers)
}

// Ensure EventLoop implements Scheduler interface
var _ Scheduler = (*EventLoop)(nil)
