package exchange

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitstamp-go/pkg/core"
)

type mockExchange struct {
	name     string
	closeErr error
	closed   bool
}

func (m *mockExchange) Name() string    { return m.name }
func (m *mockExchange) Version() string { return "v2" }
func (m *mockExchange) PublicRequest(ctx context.Context, method, path string, params core.Params, version string) (core.Value, error) {
	return core.Value{}, nil
}
func (m *mockExchange) PrivateRequest(ctx context.Context, method string, params core.Params, version string) (core.Value, error) {
	return core.Value{}, nil
}
func (m *mockExchange) GetTicker(ctx context.Context, pair string) (*core.Ticker, error) {
	return nil, nil
}
func (m *mockExchange) GetHourlyTicker(ctx context.Context, pair string) (*core.Ticker, error) {
	return nil, nil
}
func (m *mockExchange) GetOrderBook(ctx context.Context, pair string, opts ...Option) (*core.OrderBook, error) {
	return nil, nil
}
func (m *mockExchange) GetTransactions(ctx context.Context, pair string, opts ...Option) ([]*core.Transaction, error) {
	return nil, nil
}
func (m *mockExchange) GetAssetPairs(ctx context.Context) ([]*core.Pair, error) { return nil, nil }
func (m *mockExchange) GetAccountBalance(ctx context.Context) (*core.Balance, error) {
	return nil, nil
}
func (m *mockExchange) GetUserTransactions(ctx context.Context, opts ...Option) ([]*core.UserTransaction, error) {
	return nil, nil
}
func (m *mockExchange) GetDepositAddress(ctx context.Context, asset string) (*core.DepositAddress, error) {
	return nil, nil
}
func (m *mockExchange) Close() error {
	m.closed = true
	return m.closeErr
}

func TestContainer_NewContainer(t *testing.T) {
	c := NewContainer()
	assert.NotNil(t, c)
	assert.Empty(t, c.Names())
}

func TestContainer_RegisterAndGet(t *testing.T) {
	c := NewContainer()
	c.Register("bitstamp", &mockExchange{name: "bitstamp"})

	assert.True(t, c.Exists("bitstamp"))

	got, err := c.Get("bitstamp")
	require.NoError(t, err)
	assert.Equal(t, "bitstamp", got.Name())

	_, err = c.Get("notfound")
	assert.ErrorContains(t, err, `exchange "notfound" not found`)
}

func TestContainer_ProvideBuildsOnce(t *testing.T) {
	c := NewContainer()
	var calls atomic.Int32
	c.Provide("bitstamp", func() (Exchange, error) {
		calls.Add(1)
		return &mockExchange{name: "bitstamp"}, nil
	})
	assert.True(t, c.Exists("bitstamp"))

	var wg sync.WaitGroup
	results := make([]Exchange, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ex, err := c.Get("bitstamp")
			assert.NoError(t, err)
			results[i] = ex
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, ex := range results {
		assert.Same(t, results[0], ex)
	}
}

func TestContainer_ProvideFailureRetries(t *testing.T) {
	c := NewContainer()
	fail := true
	c.Provide("bitstamp", func() (Exchange, error) {
		if fail {
			return nil, errors.New("bad config")
		}
		return &mockExchange{name: "bitstamp"}, nil
	})

	_, err := c.Get("bitstamp")
	assert.ErrorContains(t, err, "bad config")

	fail = false
	ex, err := c.Get("bitstamp")
	require.NoError(t, err)
	assert.Equal(t, "bitstamp", ex.Name())
}

func TestContainer_Names(t *testing.T) {
	c := NewContainer()
	c.Register("b", &mockExchange{name: "b"})
	c.Provide("a", func() (Exchange, error) { return &mockExchange{name: "a"}, nil })

	assert.Equal(t, []string{"a", "b"}, c.Names())
}

func TestContainer_Unregister(t *testing.T) {
	c := NewContainer()
	c.Register("test", &mockExchange{name: "test"})
	c.Provide("lazy", func() (Exchange, error) { return nil, nil })

	c.Unregister("test")
	c.Unregister("lazy")

	assert.False(t, c.Exists("test"))
	assert.False(t, c.Exists("lazy"))
}

func TestContainer_Clear(t *testing.T) {
	c := NewContainer()
	c.Register("a", &mockExchange{name: "a"})
	c.Register("b", &mockExchange{name: "b"})

	c.Clear()

	assert.Empty(t, c.Names())
}

func TestContainer_Close(t *testing.T) {
	c := NewContainer()
	ok := &mockExchange{name: "ok"}
	bad := &mockExchange{name: "bad", closeErr: errors.New("boom")}
	c.Register("ok", ok)
	c.Register("bad", bad)

	err := c.Close()
	assert.ErrorContains(t, err, "close bad: boom")
	assert.True(t, ok.closed)
	assert.True(t, bad.closed)
	assert.Empty(t, c.Names())
}

func TestApplyOptions(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		opts := ApplyOptions()
		assert.Equal(t, 1, opts.Group)
		assert.Equal(t, "hour", opts.Time)
		assert.Equal(t, 0, opts.Offset)
		assert.Equal(t, 100, opts.Limit)
		assert.Equal(t, "desc", opts.Sort)
		assert.Empty(t, opts.Pair)
		assert.True(t, opts.Since.IsZero())
	})

	t.Run("with all options", func(t *testing.T) {
		since := time.Unix(1700000000, 0)
		opts := ApplyOptions(
			WithGroup(2),
			WithTime("day"),
			WithPair("btcusd"),
			WithOffset(10),
			WithLimit(500),
			WithSort("asc"),
			WithSince(since),
		)
		assert.Equal(t, 2, opts.Group)
		assert.Equal(t, "day", opts.Time)
		assert.Equal(t, "btcusd", opts.Pair)
		assert.Equal(t, 10, opts.Offset)
		assert.Equal(t, 500, opts.Limit)
		assert.Equal(t, "asc", opts.Sort)
		assert.Equal(t, since, opts.Since)
	})
}
