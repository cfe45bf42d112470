package editor

import "time"

// Clock abstracts timer creation so the debounce window can be driven
// manually in tests.
type Clock interface {
	// AfterFunc runs f on its own goroutine after d elapses.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the controllable handle returned by [Clock.AfterFunc].
type Timer interface {
	// Stop cancels the timer; reports whether it was still pending.
	Stop() bool
	// Reset restarts the timer with a new duration.
	Reset(d time.Duration) bool
}

// systemClock is the default Clock backed by the runtime timers.
type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
