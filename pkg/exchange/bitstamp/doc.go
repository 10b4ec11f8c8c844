// Package bitstamp implements the Exchange interface for the Bitstamp REST API.
// Public market data is fetched with unsigned GETs; account endpoints are
// form POSTs signed with HMAC-SHA256 over nonce, customer id and API key.
//
// Bitstamp API Documentation: https://www.bitstamp.net/api/
package bitstamp
