package exchange

import (
	"time"
)

const (
	DefaultGroup  = 1
	DefaultTime   = "hour"
	DefaultLimit  = 100
	DefaultSort   = "desc"
	DefaultOffset = 0
)

type Option func(*Options)

// Options carries the optional arguments of the typed endpoints. Fields not
// relevant to an endpoint are ignored by it.
type Options struct {
	// Group selects order book grouping: 0 none, 1 by price, 2 by order id.
	Group int
	// Time is the trade window of GetTransactions: minute, hour or day.
	Time string
	// Pair filters user transactions; empty means all pairs.
	Pair   string
	Offset int
	Limit  int
	Sort   string
	// Since limits user transactions to those after it; zero means unset.
	Since time.Time
}

func WithGroup(group int) Option {
	return func(o *Options) {
		o.Group = group
	}
}

func WithTime(window string) Option {
	return func(o *Options) {
		o.Time = window
	}
}

func WithPair(pair string) Option {
	return func(o *Options) {
		o.Pair = pair
	}
}

func WithOffset(offset int) Option {
	return func(o *Options) {
		o.Offset = offset
	}
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithSort(sort string) Option {
	return func(o *Options) {
		o.Sort = sort
	}
}

func WithSince(since time.Time) Option {
	return func(o *Options) {
		o.Since = since
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		Group:  DefaultGroup,
		Time:   DefaultTime,
		Offset: DefaultOffset,
		Limit:  DefaultLimit,
		Sort:   DefaultSort,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
