package core

import (
	"fmt"
	"maps"
	"strconv"
)

// Params holds caller parameters for a request. Values are rendered with
// Strings before they reach the wire.
type Params map[string]any

// Clone returns a shallow copy of p. A nil Params clones to an empty one.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Strings renders every value as its wire form. Nil values are dropped.
func (p Params) Strings() map[string]string {
	result := make(map[string]string, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = strconv.Itoa(val)
		case int64:
			result[k] = strconv.FormatInt(val, 10)
		case float64:
			result[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			result[k] = strconv.FormatBool(val)
		case fmt.Stringer:
			result[k] = val.String()
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

// Endpoint names a logical API endpoint. An empty Version selects the
// unversioned legacy path.
type Endpoint struct {
	Method  string `json:"method"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version"`
}

func (e Endpoint) String() string {
	if e.Version == "" {
		return e.Method
	}
	return e.Version + "/" + e.Method
}

// Request is a fully routed call ready for dispatch.
type Request struct {
	Endpoint    Endpoint          `json:"endpoint"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	Query       Params            `json:"query,omitempty"`
	Form        Params            `json:"form,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequireAuth bool              `json:"require_auth"`
}

func NewRequest(method, url string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetEndpoint(ep Endpoint) *Request {
	r.Endpoint = ep
	return r
}

func (r *Request) SetQuery(key string, value any) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	r.Query[key] = value
	return r
}

func (r *Request) SetQueryParams(params Params) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	maps.Copy(r.Query, params)
	return r
}

func (r *Request) SetFormParams(params Params) *Request {
	if r.Form == nil {
		r.Form = make(Params)
	}
	maps.Copy(r.Form, params)
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}
