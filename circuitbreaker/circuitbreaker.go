package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alorle/iptv-sync/logging"
)

// State represents the current state of the circuit breaker
type State int

const (
	// StateClosed lets every call through
	StateClosed State = iota
	// StateOpen rejects every call until the timeout elapses
	StateOpen
	// StateHalfOpen admits a limited number of probe calls
	StateHalfOpen
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains the configuration for a circuit breaker
type Config struct {
	FailureThreshold int           // Consecutive failures that open the circuit
	Timeout          time.Duration // Time spent OPEN before probing
	HalfOpenRequests int           // Probes admitted, and successes needed to close, in HALF-OPEN
	Name             string        // Identifies the breaker in logs and hooks, e.g. the guarded host
	Logger           *log.Logger   // Logs state changes (optional)

	// OnStateChange is called after every transition, with the breaker lock held (optional)
	OnStateChange func(name string, from, to State)

	// Now replaces time.Now (optional)
	Now func() time.Time
}

// CircuitBreaker guards calls to an unreliable dependency
type CircuitBreaker interface {
	// Execute runs fn if the circuit admits it and records the outcome
	Execute(fn func() error) error
	// State returns the current state
	State() State
	// Reset forces the circuit back to CLOSED
	Reset()
}

var (
	// ErrCircuitOpen is returned without calling fn while the circuit is OPEN
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrHalfOpenLimitReached is returned when every HALF-OPEN probe slot is taken
	ErrHalfOpenLimitReached = errors.New("circuit breaker half-open request limit reached")
)

type breaker struct {
	cfg Config

	mu        sync.Mutex
	state     State
	failures  int // consecutive failures while CLOSED
	probes    int // probes admitted while HALF-OPEN
	successes int // successful probes while HALF-OPEN
	openedAt  time.Time
}

// New creates a circuit breaker. Zero config values fall back to a threshold
// of 5 failures, a 30 second timeout and a single half-open probe.
func New(cfg Config) CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &breaker{cfg: cfg, state: StateClosed}
}

func (b *breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

// admit decides whether a call may proceed. An OPEN circuit whose timeout
// has elapsed moves to HALF-OPEN here.
func (b *breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.cfg.Now().Sub(b.openedAt) >= b.cfg.Timeout {
		b.setState(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probes >= b.cfg.HalfOpenRequests {
			return ErrHalfOpenLimitReached
		}
		b.probes++
	}
	return nil
}

// record applies the outcome of an admitted call. Outcomes arriving after
// another call already changed the state to OPEN are ignored.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if err == nil {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.setState(StateOpen)
		}

	case StateHalfOpen:
		if err != nil {
			b.setState(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.cfg.HalfOpenRequests {
			b.setState(StateClosed)
		}
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setState(StateClosed)
}

// setState must be called with b.mu held.
func (b *breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}

	b.state = to
	b.failures = 0
	b.probes = 0
	b.successes = 0
	if to == StateOpen {
		b.openedAt = b.cfg.Now()
	}

	if b.cfg.Logger != nil {
		logging.LogCircuitBreakerChange(b.cfg.Logger, from.String(), to.String(), b.cfg.Name)
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, from, to)
	}
}
