package thinking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_Sequence(t *testing.T) {
	want := []string{"Thinking.", "Thinking..", "Thinking...", "Thinking", "Thinking."}

	s := Base
	for i, w := range want {
		s = Advance(s)
		assert.Equal(t, w, s, "frame %d", i)
	}
}

func TestAdvance_NeverExceedsEleven(t *testing.T) {
	s := Base
	for i := 0; i < 100; i++ {
		s = Advance(s)
		assert.LessOrEqual(t, len(s), maxLen+1)
	}
}

func TestIndicator_EmitsFrames(t *testing.T) {
	ind := NewWithInterval(5 * time.Millisecond)
	frames := ind.Start()
	defer ind.Stop()

	select {
	case f := <-frames:
		assert.Contains(t, f, Base)
	case <-time.After(time.Second):
		t.Fatal("no frame received")
	}
	assert.True(t, ind.Running())
}

func TestIndicator_StopClosesChannelAndResets(t *testing.T) {
	ind := NewWithInterval(2 * time.Millisecond)
	frames := ind.Start()

	require.Eventually(t, func() bool { return ind.Text() != Base }, time.Second, time.Millisecond)

	ind.Stop()
	assert.False(t, ind.Running())
	assert.Equal(t, Base, ind.Text())

	// Drain whatever frame was buffered; the channel must then be closed.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("frame channel was not closed by Stop")
		}
	}
}

func TestIndicator_NoFramesAfterStop(t *testing.T) {
	ind := NewWithInterval(2 * time.Millisecond)
	ind.Start()
	ind.Stop()

	before := ind.Text()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, ind.Text(), "text must not change once stopped")
}

func TestIndicator_StopIsIdempotent(t *testing.T) {
	ind := New()
	ind.Stop() // before Start

	ind.Start()
	ind.Stop()
	ind.Stop()
	assert.False(t, ind.Running())
}

func TestIndicator_StartWhileRunningReturnsSameChannel(t *testing.T) {
	ind := NewWithInterval(time.Hour)
	defer ind.Stop()

	a := ind.Start()
	b := ind.Start()
	assert.Equal(t, a, b)
}

func TestIndicator_Restart(t *testing.T) {
	ind := NewWithInterval(2 * time.Millisecond)
	first := ind.Start()
	ind.Stop()

	second := ind.Start()
	defer ind.Stop()
	assert.NotEqual(t, first, second)

	select {
	case _, ok := <-second:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("restarted indicator produced no frame")
	}
}

func TestIndicator_ConcurrentStop(t *testing.T) {
	ind := NewWithInterval(time.Millisecond)
	ind.Start()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ind.Stop()
		}()
	}
	wg.Wait()
	assert.False(t, ind.Running())
}

func TestNewWithInterval_DefaultsNonPositive(t *testing.T) {
	assert.Equal(t, DefaultInterval, NewWithInterval(0).interval)
	assert.Equal(t, DefaultInterval, NewWithInterval(-time.Second).interval)
}
