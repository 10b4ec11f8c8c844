package core

import "errors"

// ErrorCode represents a client-side error identifier.
// Codes received from the exchange are stored verbatim and are not constants.
type ErrorCode string

const (
	// ErrCodeTransport indicates a connectivity or HTTP-level failure.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeNotFound indicates the endpoint does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeDecode indicates a malformed response body.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
)

// IsErrorCode checks if the error matches the specified error code.
func IsErrorCode(err error, code ErrorCode) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return ErrorCode(exErr.Code) == code
	}
	return false
}
