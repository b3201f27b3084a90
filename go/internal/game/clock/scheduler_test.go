package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func TestClockSchedulerAfter(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(fc)

	var fired atomic.Int32
	s.After(time.Second, func() { fired.Add(1) })

	fc.Advance(500 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	fc.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, time.Millisecond)
}

func TestClockSchedulerAfterCancelled(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(fc)

	var fired atomic.Int32
	cancel := s.After(time.Second, func() { fired.Add(1) })
	cancel()
	cancel()

	fc.Advance(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestClockSchedulerEvery(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(fc)

	var ticks atomic.Int32
	cancel := s.Every(time.Second, func() { ticks.Add(1) })

	for i := int32(1); i <= 3; i++ {
		fc.Advance(time.Second)
		want := i
		require.Eventually(t, func() bool { return ticks.Load() == want }, waitFor, time.Millisecond)
	}

	cancel()
	time.Sleep(10 * time.Millisecond)
	fc.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), ticks.Load())
}

func TestClockSchedulerNow(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(start)
	s := NewScheduler(fc)

	fc.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), s.Now())
}
