package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeObject(t *testing.T, body string) RawResult {
	t.Helper()
	var raw any
	require.NoError(t, sonic.Config{UseNumber: true}.Froze().UnmarshalFromString(body, &raw))
	obj, ok := NewValue(raw).Object()
	require.True(t, ok)
	return obj
}

func TestTicker(t *testing.T) {
	data := decodeObject(t, `{"last":"30000.5","high":"31000","low":"29000","vwap":"30100.1",
		"volume":"1234.5","bid":"30000.1","ask":"30000.9","timestamp":"1700000000","open":"29500"}`)
	ticker := NewTicker(data)

	last, err := ticker.Last()
	require.NoError(t, err)
	assert.Equal(t, "30000.5", last.String())

	bid, err := ticker.BidPrice()
	require.NoError(t, err)
	assert.Equal(t, "30000.1", bid.String())

	ask, err := ticker.AskPrice()
	require.NoError(t, err)
	assert.Equal(t, "30000.9", ask.String())

	ts, err := ticker.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ts)

	assert.Equal(t, []string{"ask", "bid", "high", "last", "low", "open", "timestamp", "volume", "vwap"}, ticker.Data().Keys())
}

func TestTicker_MissingField(t *testing.T) {
	ticker := NewTicker(RawResult{})

	_, err := ticker.Open()
	assert.ErrorContains(t, err, `field "open" missing`)

	_, err = ticker.Timestamp()
	assert.Error(t, err)
}

func TestOrderBook(t *testing.T) {
	data := decodeObject(t, `{"timestamp":"1700000000","bids":[["100.5","0.1"],["100.0","2"]],
		"asks":[["101","0.5","1234567"]]}`)
	book := NewOrderBook(data)

	bids, err := book.Bids()
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, "100.5", bids[0].Price.String())
	assert.Equal(t, "2", bids[1].Amount.String())
	assert.Empty(t, bids[0].OrderID)

	asks, err := book.Asks()
	require.NoError(t, err)
	require.Len(t, asks, 1)
	assert.Equal(t, "1234567", asks[0].OrderID)
}

func TestOrderBook_Malformed(t *testing.T) {
	book := NewOrderBook(decodeObject(t, `{"bids":[["1"]],"asks":"nope"}`))

	_, err := book.Bids()
	assert.ErrorContains(t, err, "malformed level")

	_, err = book.Asks()
	assert.ErrorContains(t, err, "not an array")
}

func TestTransaction(t *testing.T) {
	tx := NewTransaction(decodeObject(t, `{"date":"1700000000","tid":"42","price":"100","type":"1","amount":"0.5"}`))

	assert.Equal(t, "42", tx.ID())
	assert.Equal(t, "sell", tx.Side())

	amount, err := tx.Amount()
	require.NoError(t, err)
	assert.Equal(t, "0.5", amount.String())

	assert.Equal(t, "buy", NewTransaction(RawResult{"type": NewValue(json.Number("0"))}).Side())
	assert.Equal(t, "", NewTransaction(RawResult{}).Side())
}

func TestPair(t *testing.T) {
	pair := NewPair(decodeObject(t, `{"name":"BTC/USD","url_symbol":"btcusd","base_decimals":8,
		"counter_decimals":2,"minimum_order":"10.0 USD","trading":"Enabled","description":"Bitcoin / U.S. dollar"}`))

	assert.Equal(t, "BTC/USD", pair.Name())
	assert.Equal(t, "btcusd", pair.URLSymbol())
	assert.Equal(t, "10.0 USD", pair.MinimumOrder())
	assert.True(t, pair.Trading())

	base, err := pair.BaseDecimals()
	require.NoError(t, err)
	assert.Equal(t, 8, base)

	counter, err := pair.CounterDecimals()
	require.NoError(t, err)
	assert.Equal(t, 2, counter)
}

func TestBalance(t *testing.T) {
	bal := NewBalance(decodeObject(t, `{"usd_available":"10.5","usd_balance":"12","usd_reserved":"1.5","btcusd_fee":"0.25"}`))

	avail, err := bal.Available("USD")
	require.NoError(t, err)
	assert.Equal(t, "10.5", avail.String())

	total, err := bal.Total("usd")
	require.NoError(t, err)
	assert.Equal(t, "12", total.String())

	reserved, err := bal.Reserved("usd")
	require.NoError(t, err)
	assert.Equal(t, "1.5", reserved.String())

	fee, err := bal.Fee("BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, "0.25", fee.String())

	_, err = bal.Available("eur")
	assert.Error(t, err)
}

func TestUserTransaction(t *testing.T) {
	tx := NewUserTransaction(decodeObject(t, `{"id":1,"order_id":99,"type":"2","fee":"0.1",
		"usd":"-50.0","btc":"0.001","datetime":"2024-01-02 03:04:05.123456"}`))

	assert.Equal(t, "1", tx.ID())
	assert.Equal(t, "99", tx.OrderID())
	assert.Equal(t, "2", tx.Type())

	usd, err := tx.Amount("USD")
	require.NoError(t, err)
	assert.Equal(t, "-50.0", usd.String())

	dt, err := tx.DateTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.UTC), dt)
}

func TestDepositAddress(t *testing.T) {
	addr := NewDepositAddress(decodeObject(t, `{"address":"1BitcoinAddr"}`))
	assert.Equal(t, "1BitcoinAddr", addr.Address())
	assert.Equal(t, "", addr.DestinationTag())

	xrp := NewDepositAddress(decodeObject(t, `{"address":"rAddr","destination_tag":12345}`))
	assert.Equal(t, "12345", xrp.DestinationTag())

	xlm := NewDepositAddress(decodeObject(t, `{"address":"G","memo_id":"m"}`))
	assert.Equal(t, "m", xlm.DestinationTag())
}
