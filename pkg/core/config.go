package core

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Credentials holds the Bitstamp API credentials.
// All fields may be empty for public-only usage.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key" yaml:"key"`
	// SecretKey is the private key used for signing requests.
	SecretKey string `json:"secret_key" yaml:"secret"`
	// CustomerID is the account's customer id, part of the signed message.
	CustomerID string `json:"customer_id" yaml:"customer_id"`
}

// CanSign reports whether the credentials carry enough material to sign a private call.
func (c *Credentials) CanSign() bool {
	return c != nil && c.APIKey != "" && c.SecretKey != ""
}

// Config contains all configuration options for an exchange client.
type Config struct {
	Exchange    string       `json:"exchange" yaml:"exchange" validate:"required"`
	BaseURL     string       `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	UserAgent   string       `json:"user_agent" yaml:"user_agent"`
	Credentials *Credentials `json:"credentials,omitempty" yaml:"credentials"`

	// Timeout is the maximum duration for a single HTTP round trip.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"min=1ms"`

	RateLimitRequests int           `json:"rate_limit_requests" yaml:"rate_limit_requests" validate:"min=0"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" yaml:"rate_limit_period" validate:"min=0"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled" yaml:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold" yaml:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold" yaml:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout" yaml:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with defaults for the specified exchange.
// Default values: 10s timeout, 8000 requests per 10 minutes, circuit breaker
// disabled (5 failures/2 successes/30s when enabled), no credentials.
func DefaultConfig(exchange string) *Config {
	return &Config{
		Exchange: exchange,
		Timeout:  10 * time.Second,

		RateLimitRequests: 8000,
		RateLimitPeriod:   10 * time.Minute,

		CircuitBreakerEnabled:          false,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.RateLimitRequests > 0 && c.RateLimitPeriod <= 0 {
		return errors.New("RateLimitPeriod must be positive when RateLimitRequests is set")
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithBaseURL overrides the API base URL and returns the config for chaining.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithUserAgent overrides the User-Agent header and returns the config for chaining.
func (c *Config) WithUserAgent(ua string) *Config {
	c.UserAgent = ua
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
// A zero request count disables client-side pacing.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}

// WithCircuitBreaker enables or disables the circuit breaker and returns the config for chaining.
func (c *Config) WithCircuitBreaker(enabled bool) *Config {
	c.CircuitBreakerEnabled = enabled
	return c
}
