package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker guards the schedule provider. Consecutive failures trip
// it open; once the open window elapses a bounded number of probe
// requests run, and only a full set of probe successes closes it again.
type CircuitBreaker struct {
	failureThreshold int
	openTimeout      time.Duration
	halfOpenMaxReq   int

	mu        sync.Mutex
	state     CircuitState
	strikes   int
	trippedAt time.Time
	probesOut int
	probesWon int
	now       func() time.Time
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if openTimeout <= 0 {
		openTimeout = 15 * time.Second
	}
	if halfOpenMaxReq < 1 {
		halfOpenMaxReq = 1
	}

	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		openTimeout:      openTimeout,
		halfOpenMaxReq:   halfOpenMaxReq,
		state:            CircuitStateClosed,
		now:              time.Now,
	}
}

// Allow reports whether a request may proceed. Admitting a request while
// half-open reserves one of the probe slots; the matching RecordSuccess
// or RecordFailure releases it.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.refresh() {
	case CircuitStateOpen:
		return ErrCircuitOpen
	case CircuitStateHalfOpen:
		if b.probesOut >= b.halfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.probesOut++
	}

	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.strikes = 0
	case CircuitStateHalfOpen:
		b.releaseProbe()
		b.probesWon++
		if b.probesWon >= b.halfOpenMaxReq && b.probesOut == 0 {
			b.transition(CircuitStateClosed)
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.strikes++
		if b.strikes >= b.failureThreshold {
			b.transition(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		b.releaseProbe()
		b.transition(CircuitStateOpen)
	case CircuitStateOpen:
		// Failures reported while already open push the window out.
		b.trippedAt = b.now()
	}
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.openWindowElapsed() {
		return CircuitStateHalfOpen
	}
	return b.state
}

// refresh applies the open-to-half-open transition when the open window
// has elapsed and returns the effective state. Callers hold the lock.
func (b *CircuitBreaker) refresh() CircuitState {
	if b.state == CircuitStateOpen && b.openWindowElapsed() {
		b.transition(CircuitStateHalfOpen)
	}
	return b.state
}

func (b *CircuitBreaker) openWindowElapsed() bool {
	return b.now().Sub(b.trippedAt) >= b.openTimeout
}

func (b *CircuitBreaker) releaseProbe() {
	if b.probesOut > 0 {
		b.probesOut--
	}
}

// transition moves to the target state and resets the bookkeeping that
// only applies to the state being left.
func (b *CircuitBreaker) transition(target CircuitState) {
	b.state = target
	b.probesOut = 0
	b.probesWon = 0

	switch target {
	case CircuitStateClosed:
		b.strikes = 0
		b.trippedAt = time.Time{}
	case CircuitStateOpen:
		b.trippedAt = b.now()
	}
}
