package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a Scheduler in logical time. Nothing fires until Advance is called,
// and callbacks run synchronously on the goroutine calling Advance, in due order.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks taskQueue
}

// NewVirtual creates a virtual scheduler whose clock starts at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the current logical time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// After schedules fn once at Now()+d.
func (v *Virtual) After(d time.Duration, fn func()) Cancel {
	return v.schedule(d, 0, fn)
}

// Every schedules fn at every multiple of d from Now(). d must be positive.
func (v *Virtual) Every(d time.Duration, fn func()) Cancel {
	if d <= 0 {
		panic("clock: non-positive interval for Every")
	}
	return v.schedule(d, d, fn)
}

func (v *Virtual) schedule(d, every time.Duration, fn func()) Cancel {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	t := &task{at: v.now.Add(d), seq: v.seq, every: every, fn: fn}
	heap.Push(&v.tasks, t)

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		t.cancelled = true
	}
}

// Advance moves logical time forward by d, running every callback that comes due.
// Callbacks may schedule or cancel other callbacks.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)

	for v.tasks.Len() > 0 {
		next := v.tasks[0]
		if next.at.After(target) {
			break
		}
		heap.Pop(&v.tasks)
		if next.cancelled {
			continue
		}

		v.now = next.at
		if next.every > 0 {
			v.seq++
			next.at = next.at.Add(next.every)
			next.seq = v.seq
			heap.Push(&v.tasks, next)
		}

		fn := next.fn
		v.mu.Unlock()
		fn()
		v.mu.Lock()
	}

	v.now = target
	v.mu.Unlock()
}

// Pending returns the number of callbacks still scheduled.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := 0
	for _, t := range v.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

type task struct {
	at        time.Time
	seq       uint64
	every     time.Duration
	fn        func()
	cancelled bool
}

// taskQueue orders tasks by due time, then by scheduling order.
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(*task)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}
