package exchange

import (
	"context"

	"bitstamp-go/pkg/core"
)

// Exchange is the client contract: two generic dispatchers and the typed
// endpoints built on top of them. Every call is a single blocking round trip.
type Exchange interface {
	Name() string
	Version() string

	// PublicRequest sends an unsigned GET to <base>[/<version>]/<method>/<path>.
	PublicRequest(ctx context.Context, method, path string, params core.Params, version string) (core.Value, error)
	// PrivateRequest sends a signed form POST to <base>[/<version>]/<method>/.
	PrivateRequest(ctx context.Context, method string, params core.Params, version string) (core.Value, error)

	GetTicker(ctx context.Context, pair string) (*core.Ticker, error)
	GetHourlyTicker(ctx context.Context, pair string) (*core.Ticker, error)
	GetOrderBook(ctx context.Context, pair string, opts ...Option) (*core.OrderBook, error)
	GetTransactions(ctx context.Context, pair string, opts ...Option) ([]*core.Transaction, error)
	GetAssetPairs(ctx context.Context) ([]*core.Pair, error)

	GetAccountBalance(ctx context.Context) (*core.Balance, error)
	GetUserTransactions(ctx context.Context, opts ...Option) ([]*core.UserTransaction, error)
	GetDepositAddress(ctx context.Context, asset string) (*core.DepositAddress, error)

	Close() error
}
