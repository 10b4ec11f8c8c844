package core

import (
	"context"

	"resty.dev/v3"
)

// Protocol defines the exchange-specific half of the request pipeline:
// routing, signing, decoding and classifying responses.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "bitstamp").
	Name() string

	// Version returns the default API version segment.
	Version() string

	// BaseURL returns the API root every endpoint URL starts with.
	BaseURL() string

	// BuildURL maps an endpoint name and version to an absolute URL.
	BuildURL(method, version string) string

	// NewPublicRequest routes an unsigned GET.
	NewPublicRequest(method, path string, params Params, version string) *Request

	// NewPrivateRequest routes a POST that must be signed before dispatch.
	NewPrivateRequest(method string, params Params, version string) *Request

	// BuildRequest validates params and routes a typed operation.
	BuildRequest(ctx context.Context, op Operation, params Params) (*Request, error)

	// SignParams returns a copy of params with the reserved auth keys set.
	SignParams(params Params, creds Credentials, nonce string) Params

	// ParseResponse classifies the HTTP status, decodes the body and
	// classifies error-shaped payloads.
	ParseResponse(req *Request, resp *resty.Response) (Value, error)

	// SupportedOperations returns the list of operations this protocol supports.
	SupportedOperations() []Operation
}
