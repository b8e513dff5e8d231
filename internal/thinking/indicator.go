// Package thinking animates the "Thinking..." label shown while a reply is
// outstanding.
package thinking

import (
	"sync"
	"time"
)

// Base is the label the animation starts from and resets to
const Base = "Thinking"

// DefaultInterval is the time between animation frames
const DefaultInterval = 500 * time.Millisecond

const maxLen = 10

// Advance returns the frame that follows s
func Advance(s string) string {
	if len(s) > maxLen {
		return Base
	}
	return s + "."
}

// Indicator runs the animation on its own goroutine between Start and Stop.
// Frames are delivered on the channel returned by Start; a slow reader only
// ever sees the latest frame.
type Indicator struct {
	interval time.Duration

	mu      sync.Mutex
	text    string
	running bool
	updates chan string
	stop    chan struct{}
	done    chan struct{}
}

// New creates an Indicator using DefaultInterval
func New() *Indicator {
	return NewWithInterval(DefaultInterval)
}

// NewWithInterval creates an Indicator with a custom frame interval
func NewWithInterval(interval time.Duration) *Indicator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Indicator{interval: interval, text: Base}
}

// Start begins the animation and returns the frame channel. The channel is
// closed by Stop. Calling Start while running returns the same channel.
func (i *Indicator) Start() <-chan string {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.running {
		return i.updates
	}

	i.running = true
	i.text = Base
	i.updates = make(chan string, 1)
	i.stop = make(chan struct{})
	i.done = make(chan struct{})

	go i.run(i.updates, i.stop, i.done)
	return i.updates
}

func (i *Indicator) run(updates chan string, stop, done chan struct{}) {
	defer close(done)
	defer close(updates)

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			i.mu.Lock()
			i.text = Advance(i.text)
			frame := i.text
			i.mu.Unlock()
			publish(updates, frame)
		}
	}
}

// publish replaces any unread frame with the newest one
func publish(updates chan string, frame string) {
	select {
	case updates <- frame:
		return
	default:
	}
	select {
	case <-updates:
	default:
	}
	select {
	case updates <- frame:
	default:
	}
}

// Stop cancels the animation and waits for the goroutine to exit. It is safe
// to call more than once and before Start.
func (i *Indicator) Stop() {
	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return
	}
	i.running = false
	stop, done := i.stop, i.done
	i.mu.Unlock()

	close(stop)
	<-done

	i.mu.Lock()
	i.text = Base
	i.mu.Unlock()
}

// Text returns the current frame
func (i *Indicator) Text() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.text
}

// Running reports whether the animation is active
func (i *Indicator) Running() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}
