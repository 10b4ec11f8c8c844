package core

// Operation represents a typed call the client knows how to route.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpGetTicker retrieves the daily ticker for a pair.
	OpGetTicker Operation = iota
	// OpGetHourlyTicker retrieves the hourly ticker for a pair.
	OpGetHourlyTicker
	// OpGetOrderBook retrieves the current order book.
	OpGetOrderBook
	// OpGetTransactions retrieves recent public trades for a pair.
	OpGetTransactions
	// OpGetAssetPairs retrieves the tradable pairs.
	OpGetAssetPairs
	// OpGetBalance retrieves account balances and fees.
	OpGetBalance
	// OpGetUserTransactions retrieves the account's transaction history.
	OpGetUserTransactions
	// OpGetDepositAddress retrieves a deposit address for an asset.
	OpGetDepositAddress
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return [...]string{
		"GET_TICKER",
		"GET_HOURLY_TICKER",
		"GET_ORDER_BOOK",
		"GET_TRANSACTIONS",
		"GET_ASSET_PAIRS",
		"GET_BALANCE",
		"GET_USER_TRANSACTIONS",
		"GET_DEPOSIT_ADDRESS",
	}[o]
}

// Private reports whether the operation needs a signed request.
func (o Operation) Private() bool {
	switch o {
	case OpGetBalance, OpGetUserTransactions, OpGetDepositAddress:
		return true
	default:
		return false
	}
}
