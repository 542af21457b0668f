package tiles

import (
	"sync"
	"time"
)

// Task is a scheduled callback that can be cancelled.
// Stop is idempotent and safe to call from inside the task itself.
type Task interface {
	Stop()
}

// Scheduler runs periodic and delayed callbacks.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
	After(delay time.Duration, fn func()) Task
}

// RealtimeScheduler runs callbacks on wall-clock timers. Each periodic task
// owns a goroutine; delayed tasks use time.AfterFunc.
type RealtimeScheduler struct{}

// NewRealtimeScheduler creates a wall-clock scheduler.
func NewRealtimeScheduler() *RealtimeScheduler {
	return &RealtimeScheduler{}
}

type tickerTask struct {
	once sync.Once
	done chan struct{}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.done) })
}

// Every calls fn every interval until the task is stopped.
func (s *RealtimeScheduler) Every(interval time.Duration, fn func()) Task {
	task := &tickerTask{done: make(chan struct{})}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-task.done:
				return
			case <-ticker.C:
				// Stop may race with a pending tick
				select {
				case <-task.done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return task
}

type timerTask struct {
	timer *time.Timer
}

func (t *timerTask) Stop() {
	t.timer.Stop()
}

// After calls fn once after delay unless the task is stopped first.
func (s *RealtimeScheduler) After(delay time.Duration, fn func()) Task {
	return &timerTask{timer: time.AfterFunc(delay, fn)}
}

// VirtualScheduler runs callbacks against a manual clock. Nothing happens
// until Advance is called, which makes timing deterministic: the terminal
// frontend advances it by one tick per frame and tests drive it directly.
type VirtualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks []*virtualTask
}

type virtualTask struct {
	sched    *VirtualScheduler
	due      time.Duration
	interval time.Duration // 0 for one-shot tasks
	seq      uint64
	fn       func()
	stopped  bool
}

func (t *virtualTask) Stop() {
	t.sched.mu.Lock()
	t.stopped = true
	t.sched.mu.Unlock()
}

// NewVirtualScheduler creates a scheduler whose clock starts at zero.
func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{}
}

// Now returns the elapsed virtual time.
func (s *VirtualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of live tasks.
func (s *VirtualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Every schedules fn every interval, first firing one interval from now.
func (s *VirtualScheduler) Every(interval time.Duration, fn func()) Task {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return s.add(interval, interval, fn)
}

// After schedules fn once, delay from now.
func (s *VirtualScheduler) After(delay time.Duration, fn func()) Task {
	return s.add(delay, 0, fn)
}

func (s *VirtualScheduler) add(delay, interval time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &virtualTask{
		sched:    s,
		due:      s.now + delay,
		interval: interval,
		seq:      s.seq,
		fn:       fn,
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves the clock forward by d, running every task that falls due in
// chronological order. Tasks due at the same instant run in scheduling order.
// Callbacks run without the scheduler lock held and may schedule or stop tasks.
func (s *VirtualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d

	for {
		s.compact()
		next := s.nextDue(target)
		if next == nil {
			break
		}

		s.now = next.due
		if next.interval > 0 {
			next.due += next.interval
		} else {
			next.stopped = true
		}

		fn := next.fn
		s.mu.Unlock()
		fn()
		s.mu.Lock()
	}

	s.now = target
	s.mu.Unlock()
}

func (s *VirtualScheduler) nextDue(limit time.Duration) *virtualTask {
	var best *virtualTask
	for _, t := range s.tasks {
		if t.stopped || t.due > limit {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (s *VirtualScheduler) compact() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	// Zero the tail so stopped tasks can be collected
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}
