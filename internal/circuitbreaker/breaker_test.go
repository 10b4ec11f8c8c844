package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(fail, success int, timeout time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	b := New(Config{FailThreshold: fail, SuccessThreshold: success, Timeout: timeout})
	b.now = clock.now
	return b, clock
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "HALF_OPEN", StateHalfOpen.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker(3, 2, time.Second)

	assert.True(t, b.Allow())
	b.Record(false)
	b.Record(false)
	assert.Equal(t, StateClosed, b.State())

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(3, 2, time.Second)

	b.Record(false)
	b.Record(false)
	assert.Equal(t, 2, b.Failures())

	b.Record(true)
	assert.Equal(t, 0, b.Failures())

	b.Record(false)
	b.Record(false)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenAfterTimeout(t *testing.T) {
	b, clock := newTestBreaker(1, 2, time.Second)

	b.Record(false)
	assert.False(t, b.Allow())

	clock.advance(999 * time.Millisecond)
	assert.False(t, b.Allow())

	clock.advance(time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_HalfOpenClosesAfterSuccesses(t *testing.T) {
	b, clock := newTestBreaker(1, 2, time.Second)

	b.Record(false)
	clock.advance(time.Second)
	assert.True(t, b.Allow())

	b.Record(true)
	assert.Equal(t, StateHalfOpen, b.State())
	assert.Equal(t, 1, b.Successes())

	b.Record(true)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenReopensOnFailure(t *testing.T) {
	b, clock := newTestBreaker(1, 2, time.Second)

	b.Record(false)
	clock.advance(time.Second)
	assert.True(t, b.Allow())

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_OutcomeWhileOpenIgnored(t *testing.T) {
	b, _ := newTestBreaker(1, 1, time.Second)

	b.Record(false)
	b.Record(true)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(2, 2, time.Minute)

	b.Record(false)
	b.Record(false)
	assert.Equal(t, StateOpen, b.State())

	b.Reset()

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.Failures())
	assert.Equal(t, 0, b.Successes())
	assert.True(t, b.Allow())
}

func TestBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := New(Config{
		FailThreshold:    1,
		SuccessThreshold: 1,
		Timeout:          time.Second,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})
	b.now = clock.now

	b.Record(false)
	clock.advance(time.Second)
	b.Allow()
	b.Record(true)

	assert.Equal(t, []string{"CLOSED>OPEN", "OPEN>HALF_OPEN", "HALF_OPEN>CLOSED"}, transitions)
}

func TestBreaker_Metrics(t *testing.T) {
	b, _ := newTestBreaker(1, 1, time.Minute)

	b.Allow()
	b.Record(true)
	b.Allow()
	b.Record(false)
	b.Allow()

	m := b.Metrics()
	assert.Equal(t, int64(3), m.TotalRequests)
	assert.Equal(t, int64(1), m.SuccessRequests)
	assert.Equal(t, int64(1), m.FailedRequests)
	assert.Equal(t, int64(1), m.Rejected)
	assert.Equal(t, int32(1), m.StateChanges)
	assert.Equal(t, "OPEN", m.CurrentState)
}
