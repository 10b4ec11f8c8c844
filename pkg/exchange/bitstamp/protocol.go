package bitstamp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"resty.dev/v3"

	"bitstamp-go/pkg/core"
)

const (
	ProductionURL = "https://www.bitstamp.net/api"

	// APIVersion is the path segment of the current API.
	APIVersion = "v2"
	// LegacyVersion selects the unversioned endpoints.
	LegacyVersion = ""

	DefaultUserAgent = "bitstamp-go API Agent"

	legacyDepositMethod = "bitcoin_deposit_address"
)

var (
	decoder  = sonic.Config{UseNumber: true}.Froze()
	validate = validator.New()
)

var _ core.Protocol = (*Protocol)(nil)

// Protocol implements core.Protocol for Bitstamp: routing, signing, decoding
// and classification. It holds no mutable state.
type Protocol struct {
	baseURL string
}

// NewProtocol returns a Protocol rooted at baseURL, or at ProductionURL when
// baseURL is empty.
func NewProtocol(baseURL string) *Protocol {
	if baseURL == "" {
		baseURL = ProductionURL
	}
	return &Protocol{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *Protocol) Name() string { return "bitstamp" }

func (p *Protocol) Version() string { return APIVersion }

func (p *Protocol) BaseURL() string { return p.baseURL }

func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpGetTicker,
		core.OpGetHourlyTicker,
		core.OpGetOrderBook,
		core.OpGetTransactions,
		core.OpGetAssetPairs,
		core.OpGetBalance,
		core.OpGetUserTransactions,
		core.OpGetDepositAddress,
	}
}

// BuildURL returns <base>/<method> for the legacy version and
// <base>/<version>/<method> otherwise.
func (p *Protocol) BuildURL(method, version string) string {
	if version == LegacyVersion {
		return p.baseURL + "/" + method
	}
	return p.baseURL + "/" + version + "/" + method
}

func (p *Protocol) NewPublicRequest(method, path string, params core.Params, version string) *core.Request {
	req := core.NewRequest(http.MethodGet, p.BuildURL(method, version)+"/"+path).
		SetEndpoint(core.Endpoint{Method: method, Path: path, Version: version})
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	return req
}

// NewPrivateRequest routes a signed POST. The form still lacks the auth keys;
// SignParams adds them at dispatch time.
func (p *Protocol) NewPrivateRequest(method string, params core.Params, version string) *core.Request {
	return core.NewRequest(http.MethodPost, p.BuildURL(method, version)+"/").
		SetEndpoint(core.Endpoint{Method: method, Version: version}).
		SetFormParams(params).
		SetRequireAuth(true)
}

// Sign returns upper(hex(HMAC-SHA256(apiSecret, nonce+customerID+apiKey))).
func Sign(nonce, customerID, apiKey, apiSecret string) string {
	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(nonce + customerID + apiKey))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// SignParams returns a copy of params with nonce, key and signature set.
// Caller values under those names are overwritten.
func (p *Protocol) SignParams(params core.Params, creds core.Credentials, nonce string) core.Params {
	signed := params.Clone()
	signed["nonce"] = nonce
	signed["key"] = creds.APIKey
	signed["signature"] = Sign(nonce, creds.CustomerID, creds.APIKey, creds.SecretKey)
	return signed
}

type pairParams struct {
	Pair string `validate:"required,alphanum"`
}

type orderBookParams struct {
	Pair  string `validate:"required,alphanum"`
	Group int    `validate:"oneof=0 1 2"`
}

type transactionsParams struct {
	Pair string `validate:"required,alphanum"`
	Time string `validate:"oneof=minute hour day"`
}

// Offset is left to the exchange, which answers "Invalid offset." itself.
type userTransactionsParams struct {
	Pair   string `validate:"omitempty,alphanum"`
	Offset int
	Limit  int    `validate:"min=1,max=1000"`
	Sort   string `validate:"oneof=asc desc"`
	Since  int64  `validate:"min=0"`
}

type depositParams struct {
	Asset string `validate:"required,alphanum"`
}

// BuildRequest validates params and routes op. Recognised keys: pair, group,
// time, offset, limit, sort, since (time.Time or unix seconds) and asset.
func (p *Protocol) BuildRequest(_ context.Context, op core.Operation, params core.Params) (*core.Request, error) {
	switch op {
	case core.OpGetTicker, core.OpGetHourlyTicker:
		args := pairParams{Pair: stringParam(params, "pair")}
		if err := check(args); err != nil {
			return nil, err
		}
		method := "ticker"
		if op == core.OpGetHourlyTicker {
			method = "ticker_hour"
		}
		return p.NewPublicRequest(method, args.Pair, nil, APIVersion), nil

	case core.OpGetOrderBook:
		group, err := intParam(params, "group", 1)
		if err != nil {
			return nil, err
		}
		args := orderBookParams{Pair: stringParam(params, "pair"), Group: group}
		if err := check(args); err != nil {
			return nil, err
		}
		return p.NewPublicRequest("order_book", args.Pair, core.Params{"group": args.Group}, APIVersion), nil

	case core.OpGetTransactions:
		args := transactionsParams{Pair: stringParam(params, "pair"), Time: stringParam(params, "time")}
		if args.Time == "" {
			args.Time = "hour"
		}
		if err := check(args); err != nil {
			return nil, err
		}
		return p.NewPublicRequest("transactions", args.Pair, core.Params{"time": args.Time}, APIVersion), nil

	case core.OpGetAssetPairs:
		return p.NewPublicRequest("trading-pairs-info", "", nil, APIVersion), nil

	case core.OpGetBalance:
		return p.NewPrivateRequest("balance", nil, APIVersion), nil

	case core.OpGetUserTransactions:
		return p.buildUserTransactionsRequest(params)

	case core.OpGetDepositAddress:
		args := depositParams{Asset: strings.ToLower(stringParam(params, "asset"))}
		if err := check(args); err != nil {
			return nil, err
		}
		if args.Asset == "btc" {
			return p.NewPrivateRequest(legacyDepositMethod, nil, LegacyVersion), nil
		}
		return p.NewPrivateRequest(args.Asset+"_address", nil, APIVersion), nil

	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (p *Protocol) buildUserTransactionsRequest(params core.Params) (*core.Request, error) {
	offset, err := intParam(params, "offset", 0)
	if err != nil {
		return nil, err
	}
	limit, err := intParam(params, "limit", 100)
	if err != nil {
		return nil, err
	}
	since, err := sinceParam(params)
	if err != nil {
		return nil, err
	}

	args := userTransactionsParams{
		Pair:   strings.ToLower(stringParam(params, "pair")),
		Offset: offset,
		Limit:  limit,
		Sort:   stringParam(params, "sort"),
		Since:  since,
	}
	if args.Sort == "" {
		args.Sort = "desc"
	}
	if err := check(args); err != nil {
		return nil, err
	}

	form := core.Params{
		"offset": args.Offset,
		"limit":  args.Limit,
		"sort":   args.Sort,
	}
	if args.Since > 0 {
		form["since_timestamp"] = args.Since
	}

	path := args.Pair
	if path == "" {
		path = "all"
	}
	return p.NewPrivateRequest("user_transactions/"+path, form, APIVersion), nil
}

func check(args any) error {
	if err := validate.Struct(args); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidParameter, err)
	}
	return nil
}

func stringParam(params core.Params, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func intParam(params core.Params, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer, got %q", core.ErrInvalidParameter, key, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s has unsupported type %T", core.ErrInvalidParameter, key, v)
	}
}

// sinceParam returns unix seconds, or 0 when since is unset.
func sinceParam(params core.Params) (int64, error) {
	v, ok := params["since"]
	if !ok || v == nil {
		return 0, nil
	}
	switch s := v.(type) {
	case time.Time:
		if s.IsZero() {
			return 0, nil
		}
		return s.Unix(), nil
	case int64:
		return s, nil
	case int:
		return int64(s), nil
	default:
		return 0, fmt.Errorf("%w: since has unsupported type %T", core.ErrInvalidParameter, v)
	}
}

// Decode parses body as JSON, numbers kept as decoded text. The legacy
// bitcoin_deposit_address endpoint answers with a bare string, which is
// presented as {"address": <body>}.
func (p *Protocol) Decode(method, version string, body []byte) (core.Value, error) {
	v, err := p.decode(method, version, body)
	if err != nil {
		return core.Value{}, core.NewDecodeError(p.Name(), "", 0, err)
	}
	return v, nil
}

func (p *Protocol) decode(method, version string, body []byte) (core.Value, error) {
	wrapped := false
	if method == legacyDepositMethod && version == LegacyVersion {
		body, wrapped = wrapAddress(body)
	}
	var raw any
	if err := decoder.Unmarshal(body, &raw); err != nil {
		return core.Value{}, err
	}
	v := core.NewValue(raw)
	if wrapped {
		obj, _ := v.Object()
		if addr, ok := obj["address"].Str(); !ok || addr == "" {
			return core.Value{}, fmt.Errorf("%s: expected address string, got %s", method, obj["address"].Kind())
		}
	}
	return v, nil
}

// wrapAddress turns a bare body into {"address": <body>} without quoting it.
// Objects and empty bodies are returned unchanged.
func wrapAddress(body []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '{' {
		return body, false
	}
	return []byte(`{"address":` + string(trimmed) + `}`), true
}

// ClassifyTransport wraps a failed round trip.
func (p *Protocol) ClassifyTransport(url string, err error) error {
	return core.NewTransportError(p.Name(), url, 0, err)
}

// ClassifyStatus maps a non-2xx status to EndpointNotFound (404) or a
// transport error carrying the body. It returns nil for 2xx.
func (p *Protocol) ClassifyStatus(url string, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return core.NewEndpointNotFound(p.Name(), url)
	default:
		cause := fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
		return core.NewTransportError(p.Name(), url, status, cause)
	}
}

// ClassifyPayload reports an object carrying status "error" as an API error.
// A non-string reason is kept as its JSON text.
func (p *Protocol) ClassifyPayload(url string, status int, v core.Value) error {
	obj, ok := v.Object()
	if !ok || obj.Text("status") != "error" {
		return nil
	}
	reason := obj.Text("reason")
	if reason == "" {
		reason = "unknown error"
	}
	return core.NewAPIError(p.Name(), url, status, obj.Text("code"), reason, obj.Raw())
}

// ParseResponse classifies resp and decodes its body.
func (p *Protocol) ParseResponse(req *core.Request, resp *resty.Response) (core.Value, error) {
	if resp == nil {
		return core.Value{}, p.ClassifyTransport(req.URL, errors.New("nil response"))
	}

	body := resp.Bytes()
	if err := p.ClassifyStatus(req.URL, resp.StatusCode(), body); err != nil {
		return core.Value{}, err
	}

	v, err := p.decode(req.Endpoint.Method, req.Endpoint.Version, body)
	if err != nil {
		return core.Value{}, core.NewDecodeError(p.Name(), req.URL, resp.StatusCode(), err)
	}

	if err := p.ClassifyPayload(req.URL, resp.StatusCode(), v); err != nil {
		return core.Value{}, err
	}
	return v, nil
}
