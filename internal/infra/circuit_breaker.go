package infra

import (
	"errors"
	"sync"
	"time"
)

// ── Cache circuit breaker ─────────────────────────────────────────────────────
// service.CosteoCache runs every Redis GET and SET of the costing listing
// through a CircuitBreaker. After FailureThreshold consecutive Redis errors the
// cache stops calling Redis for OpenTimeout and serves misses, so costing keeps
// answering from Postgres at full speed. The first call after OpenTimeout is a
// trial; SuccessThreshold successful trials resume caching.

// CBState is the breaker position reported by /health under "cache".
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen means the call was skipped without touching Redis.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig tunes the breaker. Zero values take DefaultCBConfig.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	// OnStateChange, when set, is called after every transition, outside the
	// breaker's lock.
	OnStateChange func(from, to CBState)
}

// DefaultCBConfig: 5 Redis errors open the breaker for 30s, 2 successful trials close it.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu        sync.Mutex
	state     CBState
	failures  int
	successes int
	openedAt  time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now, state: CBClosed}
}

// transition is a state change to report once the lock is released.
type transition struct {
	from, to CBState
	changed  bool
}

func (cb *CircuitBreaker) notify(t transition) {
	if t.changed && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(t.from, t.to)
	}
}

// must be called under lock
func (cb *CircuitBreaker) moveLocked(to CBState) transition {
	if cb.state == to {
		return transition{}
	}
	t := transition{from: cb.state, to: to, changed: true}
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if to == CBOpen {
		cb.openedAt = cb.now()
	}
	return t
}

// must be called under lock
func (cb *CircuitBreaker) refreshLocked() transition {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		return cb.moveLocked(CBHalfOpen)
	}
	return transition{}
}

// State returns the current position, moving Open to Half-Open once
// OpenTimeout has passed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	t := cb.refreshLocked()
	s := cb.state
	cb.mu.Unlock()
	cb.notify(t)
	return s
}

// Execute runs fn unless the breaker is open; fn's error counts as a failure.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	var t transition
	if err != nil {
		t = cb.failLocked()
	} else {
		t = cb.succeedLocked()
	}
	cb.mu.Unlock()
	cb.notify(t)
	return err
}

// must be called under lock
func (cb *CircuitBreaker) failLocked() transition {
	switch cb.state {
	case CBHalfOpen:
		return cb.moveLocked(CBOpen)
	case CBClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			return cb.moveLocked(CBOpen)
		}
	}
	return transition{}
}

// must be called under lock
func (cb *CircuitBreaker) succeedLocked() transition {
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			return cb.moveLocked(CBClosed)
		}
	}
	return transition{}
}
