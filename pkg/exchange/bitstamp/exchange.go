package bitstamp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"bitstamp-go/internal/circuitbreaker"
	httpClient "bitstamp-go/internal/http"
	"bitstamp-go/internal/keyring"
	"bitstamp-go/internal/ratelimit"
	"bitstamp-go/pkg/core"
	"bitstamp-go/pkg/exchange"
)

var _ exchange.Exchange = (*BitstampExchange)(nil)

// BitstampExchange is the Bitstamp REST client. It is safe for concurrent use.
type BitstampExchange struct {
	config         *core.Config
	keyRing        *keyring.KeyRing
	httpClient     *httpClient.Client
	rateLimiter    *ratelimit.RateLimiter
	circuitBreaker *circuitbreaker.Breaker
	logger         zerolog.Logger
	protocol       *Protocol
}

// Option is a functional option for configuring the BitstampExchange.
type Option func(*Options)

// Options holds configuration options for the BitstampExchange.
type Options struct {
	KeyRing *keyring.KeyRing
	Logger  zerolog.Logger
}

// WithKeyRing signs private calls with keys from kr instead of
// config.Credentials.
func WithKeyRing(kr *keyring.KeyRing) Option {
	return func(o *Options) {
		o.KeyRing = kr
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// New creates a client from config. Credentials are copied, so later changes
// to config.Credentials have no effect.
func New(config *core.Config, opts ...Option) (*BitstampExchange, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger
	if config.LogLevel != "" {
		if lvl, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			logger = logger.Level(lvl)
		}
	}
	logger = logger.With().Str("exchange", "bitstamp").Logger()

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client, err := httpClient.NewClient(&httpClient.Config{
		Timeout:   config.Timeout,
		UserAgent: userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	client.SetLogger(logger)

	kr := options.KeyRing
	if kr == nil && config.Credentials.CanSign() {
		kr = keyring.FromCredentials(*config.Credentials)
	}
	if kr != nil {
		kr.SetLogger(logger)
	}

	var rl *ratelimit.RateLimiter
	if config.RateLimitRequests > 0 {
		rl = ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod)
	}

	var cb *circuitbreaker.Breaker
	if config.CircuitBreakerEnabled {
		cb = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		})
	}

	return &BitstampExchange{
		config:         config,
		keyRing:        kr,
		httpClient:     client,
		rateLimiter:    rl,
		circuitBreaker: cb,
		logger:         logger,
		protocol:       NewProtocol(config.BaseURL),
	}, nil
}

// Register provides a lazily built Bitstamp client under the name "bitstamp".
func Register(c *exchange.Container, config *core.Config, opts ...Option) {
	c.Provide("bitstamp", func() (exchange.Exchange, error) {
		return New(config, opts...)
	})
}

func (e *BitstampExchange) Name() string { return e.protocol.Name() }

func (e *BitstampExchange) Version() string { return e.protocol.Version() }

// Protocol exposes the routing and signing rules used by the client.
func (e *BitstampExchange) Protocol() *Protocol { return e.protocol }

func (e *BitstampExchange) Close() error {
	if e.httpClient != nil {
		return e.httpClient.Close()
	}
	return nil
}

// PublicRequest sends an unsigned GET to BuildURL(method, version)+"/"+path
// with params as the query string.
func (e *BitstampExchange) PublicRequest(ctx context.Context, method, path string, params core.Params, version string) (core.Value, error) {
	return e.doRequest(ctx, e.protocol.NewPublicRequest(method, path, params, version))
}

// PrivateRequest sends a signed form POST to BuildURL(method, version)+"/".
// It fails with core.ErrNoCredentials before any I/O when no key and secret
// are configured.
func (e *BitstampExchange) PrivateRequest(ctx context.Context, method string, params core.Params, version string) (core.Value, error) {
	return e.doRequest(ctx, e.protocol.NewPrivateRequest(method, params, version))
}

func (e *BitstampExchange) GetTicker(ctx context.Context, pair string) (*core.Ticker, error) {
	obj, err := e.object(ctx, core.OpGetTicker, core.Params{"pair": pair})
	if err != nil {
		return nil, err
	}
	return core.NewTicker(obj), nil
}

func (e *BitstampExchange) GetHourlyTicker(ctx context.Context, pair string) (*core.Ticker, error) {
	obj, err := e.object(ctx, core.OpGetHourlyTicker, core.Params{"pair": pair})
	if err != nil {
		return nil, err
	}
	return core.NewTicker(obj), nil
}

// GetOrderBook honours exchange.WithGroup.
func (e *BitstampExchange) GetOrderBook(ctx context.Context, pair string, opts ...exchange.Option) (*core.OrderBook, error) {
	options := exchange.ApplyOptions(opts...)

	obj, err := e.object(ctx, core.OpGetOrderBook, core.Params{"pair": pair, "group": options.Group})
	if err != nil {
		return nil, err
	}
	return core.NewOrderBook(obj), nil
}

// GetTransactions honours exchange.WithTime.
func (e *BitstampExchange) GetTransactions(ctx context.Context, pair string, opts ...exchange.Option) ([]*core.Transaction, error) {
	options := exchange.ApplyOptions(opts...)

	items, err := e.list(ctx, core.OpGetTransactions, core.Params{"pair": pair, "time": options.Time})
	if err != nil {
		return nil, err
	}
	out := make([]*core.Transaction, len(items))
	for i, item := range items {
		out[i] = core.NewTransaction(item)
	}
	return out, nil
}

func (e *BitstampExchange) GetAssetPairs(ctx context.Context) ([]*core.Pair, error) {
	items, err := e.list(ctx, core.OpGetAssetPairs, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Pair, len(items))
	for i, item := range items {
		out[i] = core.NewPair(item)
	}
	return out, nil
}

func (e *BitstampExchange) GetAccountBalance(ctx context.Context) (*core.Balance, error) {
	obj, err := e.object(ctx, core.OpGetBalance, nil)
	if err != nil {
		return nil, err
	}
	return core.NewBalance(obj), nil
}

// GetUserTransactions honours WithPair, WithOffset, WithLimit, WithSort and
// WithSince.
func (e *BitstampExchange) GetUserTransactions(ctx context.Context, opts ...exchange.Option) ([]*core.UserTransaction, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{
		"pair":   options.Pair,
		"offset": options.Offset,
		"limit":  options.Limit,
		"sort":   options.Sort,
		"since":  options.Since,
	}
	items, err := e.list(ctx, core.OpGetUserTransactions, params)
	if err != nil {
		return nil, err
	}
	out := make([]*core.UserTransaction, len(items))
	for i, item := range items {
		out[i] = core.NewUserTransaction(item)
	}
	return out, nil
}

// GetDepositAddress uses the legacy endpoint for BTC and <asset>_address for
// everything else.
func (e *BitstampExchange) GetDepositAddress(ctx context.Context, asset string) (*core.DepositAddress, error) {
	obj, err := e.object(ctx, core.OpGetDepositAddress, core.Params{"asset": asset})
	if err != nil {
		return nil, err
	}
	return core.NewDepositAddress(obj), nil
}

func (e *BitstampExchange) call(ctx context.Context, op core.Operation, params core.Params) (*core.Request, core.Value, error) {
	if op.Private() && e.keyRing == nil {
		return nil, core.Value{}, core.ErrNoCredentials
	}
	req, err := e.protocol.BuildRequest(ctx, op, params)
	if err != nil {
		return nil, core.Value{}, fmt.Errorf("build request: %w", err)
	}
	v, err := e.doRequest(ctx, req)
	return req, v, err
}

func (e *BitstampExchange) object(ctx context.Context, op core.Operation, params core.Params) (core.RawResult, error) {
	req, v, err := e.call(ctx, op, params)
	if err != nil {
		return nil, err
	}
	obj, ok := v.Object()
	if !ok {
		return nil, core.NewDecodeError(e.Name(), req.URL, http.StatusOK, fmt.Errorf("%s: expected object, got %s", op, v.Kind()))
	}
	return obj, nil
}

func (e *BitstampExchange) list(ctx context.Context, op core.Operation, params core.Params) ([]core.RawResult, error) {
	req, v, err := e.call(ctx, op, params)
	if err != nil {
		return nil, err
	}
	items, ok := v.Array()
	if !ok {
		return nil, core.NewDecodeError(e.Name(), req.URL, http.StatusOK, fmt.Errorf("%s: expected array, got %s", op, v.Kind()))
	}
	out := make([]core.RawResult, len(items))
	for i, item := range items {
		obj, ok := item.Object()
		if !ok {
			return nil, core.NewDecodeError(e.Name(), req.URL, http.StatusOK, fmt.Errorf("%s: item %d is %s, not object", op, i, item.Kind()))
		}
		out[i] = obj
	}
	return out, nil
}

// doRequest runs one round trip: credentials, pacing, breaker, signing,
// dispatch, classification. It never retries.
func (e *BitstampExchange) doRequest(ctx context.Context, req *core.Request) (core.Value, error) {
	log := e.logger.With().
		Str("request_id", uuid.NewString()).
		Str("method", req.Method).
		Str("url", req.URL).
		Logger()

	var key *keyring.APIKey
	if req.RequireAuth {
		if e.keyRing == nil {
			return core.Value{}, core.ErrNoCredentials
		}
		k, err := e.keyRing.Acquire()
		if err != nil {
			return core.Value{}, err
		}
		if creds := k.Credentials(); !creds.CanSign() {
			return core.Value{}, core.ErrNoCredentials
		}
		key = k
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.Wait(ctx); err != nil {
			return core.Value{}, e.protocol.ClassifyTransport(req.URL, fmt.Errorf("rate limit: %w", err))
		}
	}

	if e.circuitBreaker != nil && !e.circuitBreaker.Allow() {
		return core.Value{}, e.protocol.ClassifyTransport(req.URL, core.ErrCircuitBreakerOpen)
	}

	var opts []httpClient.RequestOption
	if len(req.Headers) > 0 {
		opts = append(opts, httpClient.WithHeaders(req.Headers))
	}

	var resp *resty.Response
	var err error

	switch req.Method {
	case http.MethodGet:
		resp, err = e.httpClient.Get(ctx, req.URL, req.Query.Strings(), opts...)
	case http.MethodPost:
		form := req.Form
		if key != nil {
			form = e.protocol.SignParams(req.Form, key.Credentials(), key.NextNonce())
		}
		resp, err = e.httpClient.PostForm(ctx, req.URL, form.Strings(), opts...)
	default:
		return core.Value{}, fmt.Errorf("unsupported method: %s", req.Method)
	}

	if e.circuitBreaker != nil {
		e.circuitBreaker.Record(err == nil && resp.StatusCode() < http.StatusInternalServerError)
	}

	if err != nil {
		if key != nil {
			e.keyRing.OnError(key.ID, err)
		}
		log.Error().Err(err).Msg("request failed")
		return core.Value{}, e.protocol.ClassifyTransport(req.URL, err)
	}

	v, err := e.protocol.ParseResponse(req, resp)
	if err != nil {
		var exErr *core.ExchangeError
		if key != nil && errors.As(err, &exErr) && exErr.Type == core.ErrorTypeAPI {
			e.keyRing.OnError(key.ID, err)
		}
		log.Error().Err(err).Int("status", resp.StatusCode()).Msg("request rejected")
		return core.Value{}, err
	}

	log.Debug().Int("status", resp.StatusCode()).Msg("request completed")
	return v, nil
}
