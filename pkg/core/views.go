package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Decimal parses the member named key as an exact decimal.
func (r RawResult) Decimal(key string) (*apd.Decimal, error) {
	v, ok := r[key]
	if !ok {
		return nil, fmt.Errorf("field %q missing", key)
	}
	d, err := v.Decimal()
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	return d, nil
}

// Unix parses the member named key as unix seconds.
func (r RawResult) Unix(key string) (time.Time, error) {
	v, ok := r[key]
	if !ok {
		return time.Time{}, fmt.Errorf("field %q missing", key)
	}
	sec, err := strconv.ParseInt(v.Text(), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", key, err)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// Ticker is the daily or hourly ticker of a pair.
type Ticker struct {
	data RawResult
}

func NewTicker(data RawResult) *Ticker { return &Ticker{data: data} }

func (t *Ticker) Data() RawResult { return t.data }

func (t *Ticker) Last() (*apd.Decimal, error)     { return t.data.Decimal("last") }
func (t *Ticker) High() (*apd.Decimal, error)     { return t.data.Decimal("high") }
func (t *Ticker) Low() (*apd.Decimal, error)      { return t.data.Decimal("low") }
func (t *Ticker) Open() (*apd.Decimal, error)     { return t.data.Decimal("open") }
func (t *Ticker) Vwap() (*apd.Decimal, error)     { return t.data.Decimal("vwap") }
func (t *Ticker) Volume() (*apd.Decimal, error)   { return t.data.Decimal("volume") }
func (t *Ticker) BidPrice() (*apd.Decimal, error) { return t.data.Decimal("bid") }
func (t *Ticker) AskPrice() (*apd.Decimal, error) { return t.data.Decimal("ask") }

func (t *Ticker) Timestamp() (time.Time, error) { return t.data.Unix("timestamp") }

// OrderBookEntry is one price level. OrderID is set only for group=2 books.
type OrderBookEntry struct {
	Price   *apd.Decimal
	Amount  *apd.Decimal
	OrderID string
}

type OrderBook struct {
	data RawResult
}

func NewOrderBook(data RawResult) *OrderBook { return &OrderBook{data: data} }

func (o *OrderBook) Data() RawResult { return o.data }

func (o *OrderBook) Bids() ([]OrderBookEntry, error) { return o.side("bids") }
func (o *OrderBook) Asks() ([]OrderBookEntry, error) { return o.side("asks") }

func (o *OrderBook) Timestamp() (time.Time, error) { return o.data.Unix("timestamp") }

func (o *OrderBook) side(key string) ([]OrderBookEntry, error) {
	levels, ok := o.data[key].Array()
	if !ok {
		return nil, fmt.Errorf("field %q is not an array", key)
	}

	entries := make([]OrderBookEntry, 0, len(levels))
	for i, level := range levels {
		cols, ok := level.Array()
		if !ok || len(cols) < 2 {
			return nil, fmt.Errorf("%s[%d]: malformed level", key, i)
		}
		price, err := cols[0].Decimal()
		if err != nil {
			return nil, fmt.Errorf("%s[%d] price: %w", key, i, err)
		}
		amount, err := cols[1].Decimal()
		if err != nil {
			return nil, fmt.Errorf("%s[%d] amount: %w", key, i, err)
		}
		entry := OrderBookEntry{Price: price, Amount: amount}
		if len(cols) > 2 {
			entry.OrderID = cols[2].Text()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Transaction is a public trade.
type Transaction struct {
	data RawResult
}

func NewTransaction(data RawResult) *Transaction { return &Transaction{data: data} }

func (t *Transaction) Data() RawResult { return t.data }

func (t *Transaction) ID() string                    { return t.data.Text("tid") }
func (t *Transaction) Price() (*apd.Decimal, error)  { return t.data.Decimal("price") }
func (t *Transaction) Amount() (*apd.Decimal, error) { return t.data.Decimal("amount") }
func (t *Transaction) Date() (time.Time, error)      { return t.data.Unix("date") }

// Side maps the numeric trade type: 0 is a buy, 1 a sell.
func (t *Transaction) Side() string {
	switch t.data.Text("type") {
	case "0":
		return "buy"
	case "1":
		return "sell"
	default:
		return ""
	}
}

// Pair describes a tradable asset pair.
type Pair struct {
	data RawResult
}

func NewPair(data RawResult) *Pair { return &Pair{data: data} }

func (p *Pair) Data() RawResult { return p.data }

func (p *Pair) Name() string         { return p.data.Text("name") }
func (p *Pair) URLSymbol() string    { return p.data.Text("url_symbol") }
func (p *Pair) Description() string  { return p.data.Text("description") }
func (p *Pair) MinimumOrder() string { return p.data.Text("minimum_order") }
func (p *Pair) Trading() bool        { return strings.EqualFold(p.data.Text("trading"), "Enabled") }

func (p *Pair) BaseDecimals() (int, error) {
	return strconv.Atoi(p.data.Text("base_decimals"))
}

func (p *Pair) CounterDecimals() (int, error) {
	return strconv.Atoi(p.data.Text("counter_decimals"))
}

// Balance holds per-currency balances and per-pair fees, keyed the way the
// exchange sends them (usd_available, btcusd_fee, ...).
type Balance struct {
	data RawResult
}

func NewBalance(data RawResult) *Balance { return &Balance{data: data} }

func (b *Balance) Data() RawResult { return b.data }

func (b *Balance) Available(currency string) (*apd.Decimal, error) {
	return b.data.Decimal(strings.ToLower(currency) + "_available")
}

func (b *Balance) Total(currency string) (*apd.Decimal, error) {
	return b.data.Decimal(strings.ToLower(currency) + "_balance")
}

func (b *Balance) Reserved(currency string) (*apd.Decimal, error) {
	return b.data.Decimal(strings.ToLower(currency) + "_reserved")
}

func (b *Balance) Fee(pair string) (*apd.Decimal, error) {
	return b.data.Decimal(strings.ToLower(pair) + "_fee")
}

// UserTransaction is one entry of the account's transaction history.
type UserTransaction struct {
	data RawResult
}

func NewUserTransaction(data RawResult) *UserTransaction { return &UserTransaction{data: data} }

func (u *UserTransaction) Data() RawResult { return u.data }

func (u *UserTransaction) ID() string                 { return u.data.Text("id") }
func (u *UserTransaction) OrderID() string            { return u.data.Text("order_id") }
func (u *UserTransaction) Type() string               { return u.data.Text("type") }
func (u *UserTransaction) Fee() (*apd.Decimal, error) { return u.data.Decimal("fee") }

// Amount returns the signed change of currency in this transaction.
func (u *UserTransaction) Amount(currency string) (*apd.Decimal, error) {
	return u.data.Decimal(strings.ToLower(currency))
}

// DateTime parses the exchange's "2006-01-02 15:04:05.000000" UTC stamp.
func (u *UserTransaction) DateTime() (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05.999999", u.data.Text("datetime"))
}

type DepositAddress struct {
	data RawResult
}

func NewDepositAddress(data RawResult) *DepositAddress { return &DepositAddress{data: data} }

func (d *DepositAddress) Data() RawResult { return d.data }

func (d *DepositAddress) Address() string { return d.data.Text("address") }

// DestinationTag returns the memo or tag some assets require, or "".
func (d *DepositAddress) DestinationTag() string {
	if tag := d.data.Text("destination_tag"); tag != "" {
		return tag
	}
	return d.data.Text("memo_id")
}
