package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize every failure a dispatch can produce.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransport indicates a connectivity, TLS or non-404 HTTP failure.
	ErrorTypeTransport
	// ErrorTypeNotFound indicates the endpoint answered HTTP 404.
	ErrorTypeNotFound
	// ErrorTypeDecode indicates the response body was not valid JSON.
	ErrorTypeDecode
	// ErrorTypeAPI indicates the exchange rejected the call in its payload.
	ErrorTypeAPI
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransport:
		return "TRANSPORT"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeDecode:
		return "DECODE"
	case ErrorTypeAPI:
		return "API"
	default:
		return "UNKNOWN"
	}
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrCircuitBreakerOpen is returned when circuit breaker is open.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	// ErrNoCredentials is returned when a private call has no key or secret.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrNoAPIKey is returned when every key in the keyring is disabled.
	ErrNoAPIKey = errors.New("no available API key")
	// ErrInvalidParameter is returned when a typed call is rejected before I/O.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ExchangeError represents a classified failure of a single API call.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code, zero when no response was received.
	StatusCode int `json:"status_code"`
	// Code is the exchange-specific error code, if the payload carried one.
	Code string `json:"code"`
	// Message is the transport message or the exchange-provided reason.
	Message string `json:"message"`
	// URL is the request URL.
	URL string `json:"url,omitempty"`
	// RawError contains the original error payload for debugging.
	RawError any `json:"raw_error,omitempty"`
	// Exchange identifies which exchange returned this error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`

	err error
}

// Error implements the error interface for ExchangeError.
func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%d/%s): %s",
			e.Exchange, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s",
		e.Exchange, e.Type, e.StatusCode, e.Message)
}

// Unwrap returns the underlying transport or decode error, if any.
func (e *ExchangeError) Unwrap() error {
	return e.err
}

// WithCode sets the error code and returns the error for chaining.
func (e *ExchangeError) WithCode(code ErrorCode) *ExchangeError {
	e.Code = string(code)
	return e
}

// NewExchangeError creates a new ExchangeError with the specified details.
// The timestamp is automatically set to the current time.
func NewExchangeError(exchange string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

// NewTransportError wraps a failed round trip. The cause's message is kept verbatim.
func NewTransportError(exchange, url string, statusCode int, cause error) *ExchangeError {
	e := NewExchangeError(exchange, ErrorTypeTransport, statusCode, cause.Error())
	e.URL = url
	e.err = cause
	return e.WithCode(ErrCodeTransport)
}

// NewEndpointNotFound reports an HTTP 404 for url.
func NewEndpointNotFound(exchange, url string) *ExchangeError {
	e := NewExchangeError(exchange, ErrorTypeNotFound, 404, fmt.Sprintf("endpoint not found: (%s)", url))
	e.URL = url
	return e.WithCode(ErrCodeNotFound)
}

// NewDecodeError reports a response body that could not be parsed as JSON.
func NewDecodeError(exchange, url string, statusCode int, cause error) *ExchangeError {
	e := NewExchangeError(exchange, ErrorTypeDecode, statusCode, fmt.Sprintf("decode response: %v", cause))
	e.URL = url
	e.err = cause
	return e.WithCode(ErrCodeDecode)
}

// NewAPIError reports an error-shaped payload. reason is kept verbatim.
func NewAPIError(exchange, url string, statusCode int, code, reason string, raw any) *ExchangeError {
	e := NewExchangeError(exchange, ErrorTypeAPI, statusCode, reason)
	e.URL = url
	e.Code = code
	e.RawError = raw
	return e
}

func errorType(err error) ErrorType {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsTransportError returns true if the call failed before a usable response arrived.
func IsTransportError(err error) bool {
	return errorType(err) == ErrorTypeTransport
}

// IsNotFoundError returns true if the endpoint answered HTTP 404.
func IsNotFoundError(err error) bool {
	return errorType(err) == ErrorTypeNotFound
}

// IsDecodeError returns true if the response body was not valid JSON.
func IsDecodeError(err error) bool {
	return errorType(err) == ErrorTypeDecode
}

// IsAPIError returns true if the exchange rejected the call in its payload.
func IsAPIError(err error) bool {
	return errorType(err) == ErrorTypeAPI
}

// IsRetryable returns true for transport errors. The client never retries on
// its own; this only informs callers that own a retry policy.
func IsRetryable(err error) bool {
	return IsTransportError(err)
}
