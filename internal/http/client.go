package http

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"bitstamp-go/pkg/core"
)

// Client is a thin resty wrapper that sends absolute URLs. It never retries.
type Client struct {
	client *resty.Client
	mu     sync.RWMutex
	logger zerolog.Logger
	closed bool
}

type Config struct {
	Timeout   time.Duration     `validate:"min=1ms"`
	UserAgent string            `validate:"required"`
	Headers   map[string]string `validate:"omitempty"`
}

type RequestOption func(*resty.Request)

func NewClient(config *Config) (*Client, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := resty.New()
	client.SetTimeout(config.Timeout)
	client.SetHeader("User-Agent", config.UserAgent)
	for k, v := range config.Headers {
		client.SetHeader(k, v)
	}

	c := &Client{
		client: client,
		logger: zerolog.Nop(),
	}

	client.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		c.log().Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})

	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		c.log().Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	return c, nil
}

func (c *Client) SetLogger(logger zerolog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

func (c *Client) log() *zerolog.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l := c.logger
	return &l
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

func (c *Client) Get(ctx context.Context, url string, query map[string]string, opts ...RequestOption) (*resty.Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, core.ErrClientClosed
	}

	req := c.client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	for _, opt := range opts {
		opt(req)
	}
	return req.Get(url)
}

// PostForm sends form as an application/x-www-form-urlencoded body.
func (c *Client) PostForm(ctx context.Context, url string, form map[string]string, opts ...RequestOption) (*resty.Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, core.ErrClientClosed
	}

	req := c.client.R().SetContext(ctx).SetFormData(form)
	for _, opt := range opts {
		opt(req)
	}
	return req.Post(url)
}

func WithHeader(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader(key, value)
	}
}

func WithHeaders(headers map[string]string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeaders(headers)
	}
}
