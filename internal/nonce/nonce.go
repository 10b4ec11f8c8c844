// Package nonce issues the strictly increasing nonces Bitstamp requires on
// every signed request.
package nonce

import (
	"strconv"
	"sync"
	"time"
)

// Generator produces numeric nonces of the form <unix seconds><6-digit
// microseconds>. One Generator belongs to one credential set.
//
// Values never repeat or regress within a Generator: when the clock has not
// advanced past the previous value, the previous value plus one is issued.
type Generator struct {
	mu    sync.Mutex
	now   func() time.Time
	last  uint64
	value string
}

// New returns a Generator reading the wall clock.
func New() *Generator {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Generator reading now. Tests use it to pin the clock.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next issues a new nonce.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := micros(g.now())
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	g.value = strconv.FormatUint(n, 10)
	return g.value
}

// Last returns the most recently issued nonce, or "" before the first call.
func (g *Generator) Last() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// micros is seconds*1e6 + microseconds. Its decimal form equals the seconds
// followed by the zero-padded microseconds, and fits in 64 bits.
func micros(t time.Time) uint64 {
	return uint64(t.Unix())*1_000_000 + uint64(t.Nanosecond()/1_000)
}
