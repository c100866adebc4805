package btcmarkets

import "github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"

// URL is the BTCMarkets push endpoint.
const URL = "wss://socket.btcmarkets.net"

const (
	orderbookChannelPrefix = "Orderbook_"
	tradeChannelPrefix     = "TRADE_"

	orderbookEvent = "OrderBookChange"
	tradeEvent     = "MarketTrade"
)

var symbols = map[domain.CurrencyPair]string{
	domain.XRPBTC: "XRPBTC",
	domain.ETHBTC: "ETHBTC",
	domain.LTCBTC: "LTCBTC",
	domain.BTCAUD: "BTCAUD",
	domain.ETHAUD: "ETHAUD",
	domain.XRPAUD: "XRPAUD",
}
