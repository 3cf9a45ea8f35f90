package timectrl

import (
	"sync"
	"time"
)

// SimClock exposes simulation time to components that should not
// depend on the concrete controller, mainly for testability.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// ElapsedHours returns simulated hours since the controller's
	// start time.
	ElapsedHours() float64
}

// TimeController drives simulation time for the frame loop and
// notifies registered listeners once per tick. Rate scales simulated
// time against wall time (1 = real time, 3600 = an hour per second);
// all per-frame work runs inside the listeners, so the core never
// needs background goroutines of its own.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Rate      float64

	currentTime time.Time

	listeners []func(simTime time.Time, elapsedHours float64)
}

// NewTimeController constructs a controller. A rate of 0 is treated as
// real time.
func NewTimeController(start time.Time, tick time.Duration, rate float64) *TimeController {
	if rate <= 0 {
		rate = 1
	}
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Rate:        rate,
		currentTime: start,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// ElapsedHours returns simulated hours since StartTime. Implements
// SimClock.
func (tc *TimeController) ElapsedHours() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime.Sub(tc.StartTime).Hours()
}

// AddListener registers a callback invoked on every tick with the
// simulation time and elapsed simulated hours.
func (tc *TimeController) AddListener(fn func(simTime time.Time, elapsedHours float64)) {
	tc.listeners = append(tc.listeners, fn)
}

// Advance steps simulation time by one tick's worth of simulated time
// and fires listeners synchronously. Useful for deterministic tests.
func (tc *TimeController) Advance() {
	simStep := time.Duration(float64(tc.Tick) * tc.Rate)

	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(simStep)
	simTime := tc.currentTime
	elapsed := simTime.Sub(tc.StartTime).Hours()
	tc.mu.Unlock()

	for _, fn := range tc.listeners {
		fn(simTime, elapsed)
	}
}

// Start runs the controller for the specified wall-clock duration in a
// separate goroutine, ticking at Tick intervals. It returns a channel
// that is closed when the controller finishes; a duration of 0 runs
// until the process exits.
func (tc *TimeController) Start(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		elapsed := time.Duration(0)

		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()

		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			<-ticker.C
			elapsed += tc.Tick
			tc.Advance()
		}
	}()
	return done
}
