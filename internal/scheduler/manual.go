package scheduler

import (
	"sort"
	"sync"
	"time"
)

type manualJob struct {
	name      string
	due       time.Time
	seq       uint64
	interval  time.Duration
	fn        func()
	cancelled bool
}

// Manual is a logical clock for deterministic runs. Time only moves on
// Advance or Sleep, and due callbacks run on the caller's goroutine in
// due-time order (ties in scheduling order).
type Manual struct {
	mu   sync.Mutex
	now  time.Time
	seq  uint64
	jobs []*manualJob
}

// NewManual creates a logical clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the logical time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every schedules fn every interval starting one interval from now.
func (m *Manual) Every(name string, interval time.Duration, fn func()) Cancel {
	if interval <= 0 {
		return noop
	}
	return m.schedule(name, interval, interval, fn)
}

// After schedules fn once after delay.
func (m *Manual) After(delay time.Duration, fn func()) Cancel {
	if delay < 0 {
		delay = 0
	}
	return m.schedule("after", delay, 0, fn)
}

func (m *Manual) schedule(name string, delay, interval time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	j := &manualJob{
		name:     name,
		due:      m.now.Add(delay),
		seq:      m.seq,
		interval: interval,
		fn:       fn,
	}
	m.jobs = append(m.jobs, j)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		j.cancelled = true
	}
}

// Advance moves time forward by d, running every callback that falls due.
// Callbacks scheduled while advancing run in the same call if they are due
// before the target time.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		j := m.popDue(target)
		if j == nil {
			break
		}
		j.fn()
	}

	m.mu.Lock()
	if target.After(m.now) {
		m.now = target
	}
	m.mu.Unlock()
}

// Sleep moves logical time forward by d without running callbacks. Jobs that
// fall due meanwhile run on the next Advance or RunDue. It lets rate limiters
// pace a callback in logical time without re-entering the scheduler.
func (m *Manual) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// RunDue runs callbacks already due at the current time.
func (m *Manual) RunDue() {
	m.Advance(0)
}

// Pending returns the number of live scheduled jobs.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if !j.cancelled {
			n++
		}
	}
	return n
}

// popDue removes the earliest job due at or before target, re-arming interval
// jobs, and moves the clock to its due time.
func (m *Manual) popDue(target time.Time) *manualJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.jobs[:0]
	for _, j := range m.jobs {
		if !j.cancelled {
			live = append(live, j)
		}
	}
	m.jobs = live
	if len(m.jobs) == 0 {
		return nil
	}

	sort.SliceStable(m.jobs, func(a, b int) bool {
		if !m.jobs[a].due.Equal(m.jobs[b].due) {
			return m.jobs[a].due.Before(m.jobs[b].due)
		}
		return m.jobs[a].seq < m.jobs[b].seq
	})

	j := m.jobs[0]
	if j.due.After(target) {
		return nil
	}

	if j.due.After(m.now) {
		m.now = j.due
	}

	run := *j
	if j.interval > 0 {
		m.seq++
		j.due = j.due.Add(j.interval)
		j.seq = m.seq
	} else {
		m.jobs = m.jobs[1:]
	}
	return &run
}
