package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker is rejecting calls.
var ErrOpen = errors.New("rpc endpoint circuit open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker guards the RPC endpoint. A run of consecutive failures opens the
// circuit; after openFor it admits probe calls, and a run of successes
// closes it again. A hung or dead RPC node then fails calls fast instead of
// leaving every dependent request waiting on its own timeout.
type Breaker struct {
	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	maxFailures   int
	probeTarget   int
	openFor       time.Duration
	lastFailureAt time.Time
	onStateChange func(from, to State)
}

func New(maxFailures int, openFor time.Duration, onStateChange func(from, to State)) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		state:         StateClosed,
		maxFailures:   maxFailures,
		probeTarget:   2,
		openFor:       openFor,
		onStateChange: onStateChange,
	}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen {
		if time.Since(b.lastFailureAt) > b.openFor {
			b.setState(StateHalfOpen)
			return nil
		}
		return ErrOpen
	}
	return nil
}

// Record feeds a call outcome back into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.successes++
			if b.successes >= b.probeTarget {
				b.setState(StateClosed)
			}
		}
		return
	}

	b.failures++
	b.successes = 0
	b.lastFailureAt = time.Now()
	if b.state == StateHalfOpen || (b.state == StateClosed && b.failures >= b.maxFailures) {
		b.setState(StateOpen)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.lastFailureAt) > b.openFor {
		b.setState(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.successes = 0
	if to == StateClosed {
		b.failures = 0
	}
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}
