package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

const defaultQueueSize = 1024

type job struct {
	name string
	fn   func()
}

// LoopMetrics tracks event loop statistics.
type LoopMetrics struct {
	JobsRun   int64
	Panics    int64
	Dropped   int64
	Scheduled int64
}

// Loop is the production scheduler: timers fire on their own goroutines but
// every callback is handed to a single dispatcher goroutine, so callbacks
// never overlap.
type Loop struct {
	clock  clock.Clock
	logger zerolog.Logger
	queue  chan job
	wake   chan struct{}
	done   chan struct{}
	wg     conc.WaitGroup

	mu      sync.Mutex
	timers  map[*clock.Timer]struct{}
	backlog []job // one-shot jobs that found the queue full
	metrics LoopMetrics
	started bool

	stopOnce sync.Once
}

// NewLoop creates an event loop on clk. A nil clk uses the wall clock.
func NewLoop(clk clock.Clock, logger zerolog.Logger) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		clock:  clk,
		logger: logger.With().Str("component", "scheduler").Logger(),
		queue:  make(chan job, defaultQueueSize),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		timers: make(map[*clock.Timer]struct{}),
	}
}

// Start launches the dispatcher. It stops when ctx is done or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	l.wg.Go(func() {
		for {
			select {
			case <-l.done:
				return
			case <-ctx.Done():
				l.Stop()
				return
			case j := <-l.queue:
				l.run(j)
			case <-l.wake:
				l.drainBacklog()
			}
		}
	})

	l.logger.Debug().Msg("Event loop started")
}

// Stop cancels all pending one-shot timers, ends interval goroutines and
// waits for the dispatcher to exit. Queued callbacks are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)

		l.mu.Lock()
		for t := range l.timers {
			t.Stop()
		}
		l.timers = make(map[*clock.Timer]struct{})
		l.backlog = nil
		l.mu.Unlock()

		l.logger.Debug().Msg("Event loop stopped")
	})
}

// Wait blocks until every goroutine owned by the loop has exited.
func (l *Loop) Wait() {
	l.wg.Wait()
}

// Now returns the loop clock's time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Sleep blocks the caller for d on the loop clock.
func (l *Loop) Sleep(d time.Duration) {
	l.clock.Sleep(d)
}

// Clock exposes the underlying clock.
func (l *Loop) Clock() clock.Clock {
	return l.clock
}

// Every runs fn on the loop every interval until cancelled.
func (l *Loop) Every(name string, interval time.Duration, fn func()) Cancel {
	if interval <= 0 || l.stopped() {
		return noop
	}

	stop := make(chan struct{})
	var once sync.Once
	ticker := l.clock.Ticker(interval)

	l.wg.Go(func() {
		defer ticker.Stop()
		for {
			select {
			case <-l.done:
				return
			case <-stop:
				return
			case <-ticker.C:
				l.enqueue(job{name: name, fn: fn}, true)
			}
		}
	})

	return func() { once.Do(func() { close(stop) }) }
}

// After runs fn on the loop once after delay.
func (l *Loop) After(delay time.Duration, fn func()) Cancel {
	if l.stopped() {
		return noop
	}
	if delay < 0 {
		delay = 0
	}

	var t *clock.Timer
	l.mu.Lock()
	t = l.clock.AfterFunc(delay, func() {
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()
		l.enqueue(job{name: "after", fn: fn}, false)
	})
	l.timers[t] = struct{}{}
	l.metrics.Scheduled++
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.timers[t]; ok {
			t.Stop()
			delete(l.timers, t)
		}
	}
}

// Submit queues fn on the loop to run as soon as possible.
func (l *Loop) Submit(name string, fn func()) {
	l.enqueue(job{name: name, fn: fn}, false)
}

// Metrics returns a snapshot of loop statistics.
func (l *Loop) Metrics() LoopMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.metrics
}

func (l *Loop) stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// enqueue hands j to the dispatcher. When the queue is full an interval tick
// (droppable) is dropped, since the next tick supersedes it, while a one-shot
// job waits in the backlog. Once the backlog is non-empty every new job joins
// it, so one-shot jobs keep their submission order.
func (l *Loop) enqueue(j job, droppable bool) {
	if l.stopped() {
		return
	}

	l.mu.Lock()
	if len(l.backlog) == 0 {
		select {
		case l.queue <- j:
			l.mu.Unlock()
			return
		default:
		}
	}
	if droppable {
		l.metrics.Dropped++
		l.mu.Unlock()
		l.logger.Warn().Str("job", j.name).Msg("Event loop queue full, dropping interval tick")
		return
	}
	l.backlog = append(l.backlog, j)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// drainBacklog runs what is already queued, then the backlog. Jobs only
// enter the queue while the backlog is empty, so this keeps FIFO order.
func (l *Loop) drainBacklog() {
	for drained := false; !drained; {
		select {
		case j := <-l.queue:
			l.run(j)
		default:
			drained = true
		}
	}

	l.mu.Lock()
	jobs := l.backlog
	l.backlog = nil
	l.mu.Unlock()

	for _, j := range jobs {
		if l.stopped() {
			return
		}
		l.run(j)
	}
}

func (l *Loop) run(j job) {
	var pc panics.Catcher
	pc.Try(j.fn)

	l.mu.Lock()
	l.metrics.JobsRun++
	r := pc.Recovered()
	if r != nil {
		l.metrics.Panics++
	}
	l.mu.Unlock()

	if r != nil {
		l.logger.Error().
			Str("job", j.name).
			Err(r.AsError()).
			Msg("Recovered panic in scheduled callback")
	}
}
