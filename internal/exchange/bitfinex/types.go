package bitfinex

import "github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"

// URL is the public Bitfinex v2 websocket endpoint.
const URL = "wss://api.bitfinex.com/ws/2"

const (
	bookChannel   = "book"
	tradesChannel = "trades"

	// R0 raw books keyed by order id, realtime, top 100 levels.
	bookPrecision = "R0"
	bookFrequency = "F0"
	bookLength    = "100"
)

// channelKind records which payload family a subscribed channel id carries.
type channelKind int

const (
	bookKind channelKind = iota
	tradeKind
)

var symbols = map[domain.CurrencyPair]string{
	domain.XRPBTC: "tXRPBTC",
	domain.ETHBTC: "tETHBTC",
	domain.LTCBTC: "tLTCBTC",
}

func pairFromSymbol(symbol string) (domain.CurrencyPair, bool) {
	for pair, s := range symbols {
		if s == symbol {
			return pair, true
		}
	}
	return 0, false
}
