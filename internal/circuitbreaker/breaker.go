package circuitbreaker

import (
	"sync"
	"sync/atomic"
	"time"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	FailThreshold    int           `json:"fail_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	Timeout          time.Duration `json:"timeout"`
	// OnStateChange, if set, is called after every transition while the
	// breaker's lock is held; it must not call back into the breaker.
	OnStateChange func(from, to State)
}

// Breaker stops dispatch after FailThreshold consecutive transport failures,
// lets a probe through after Timeout, and closes again after
// SuccessThreshold consecutive successes.
type Breaker struct {
	mu        sync.Mutex
	cfg       Config
	state     State
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time
	metrics   *Metrics
}

type Metrics struct {
	totalRequests   atomic.Int64
	successRequests atomic.Int64
	failedRequests  atomic.Int64
	rejected        atomic.Int64
	stateChanges    atomic.Int32
}

func New(config Config) *Breaker {
	return &Breaker{
		cfg:     config,
		state:   StateClosed,
		now:     time.Now,
		metrics: &Metrics{},
	}
}

// Allow reports whether a call may be dispatched now. An open breaker turns
// half-open once Timeout has elapsed.
func (b *Breaker) Allow() bool {
	b.metrics.totalRequests.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.Timeout {
			b.metrics.rejected.Add(1)
			return false
		}
		b.transitionLocked(StateHalfOpen)
	}
	return true
}

// Record reports the outcome of a dispatched call.
func (b *Breaker) Record(success bool) {
	if success {
		b.metrics.successRequests.Add(1)
	} else {
		b.metrics.failedRequests.Add(1)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailThreshold {
			b.openLocked()
		}
	case StateHalfOpen:
		if !success {
			b.openLocked()
			return
		}
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.transitionLocked(StateClosed)
		}
	case StateOpen:
		// A call admitted before the breaker opened; its outcome is ignored.
	}
}

func (b *Breaker) openLocked() {
	b.openedAt = b.now()
	b.transitionLocked(StateOpen)
}

func (b *Breaker) transitionLocked(to State) {
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0
	b.metrics.stateChanges.Add(1)
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) Successes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.successes
}

func (b *Breaker) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   b.metrics.totalRequests.Load(),
		SuccessRequests: b.metrics.successRequests.Load(),
		FailedRequests:  b.metrics.failedRequests.Load(),
		Rejected:        b.metrics.rejected.Load(),
		StateChanges:    b.metrics.stateChanges.Load(),
		CurrentState:    b.State().String(),
	}
}

type MetricsSnapshot struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	Rejected        int64
	StateChanges    int32
	CurrentState    string
}
