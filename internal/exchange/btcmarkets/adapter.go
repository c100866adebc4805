// Package btcmarkets adapts the BTCMarkets named-channel protocol. Every
// book message is a full top-of-book snapshot, so changes are derived by
// diffing against the previous one. Numeric fields on this wire are already
// 1e8-scaled integers; no float ever crosses this boundary.
package btcmarkets

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/book"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/broadcast"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common/timestamp"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/exchange"
)

type Adapter struct {
	differ *book.Differ
	parser fastjson.Parser
	log    zerolog.Logger
}

func New(options ...common.Option) exchange.Adapter {
	opts := exchange.NewOptions(options...)
	return &Adapter{
		differ: book.NewDiffer(domain.BTCMarkets),
		log:    opts.Logger,
	}
}

func (a *Adapter) Exchange() domain.Exchange {
	return domain.BTCMarkets
}

func (a *Adapter) Requests(pairs []domain.CurrencyPair) []string {
	requests := make([]string, 0, 2*len(pairs))
	for _, pair := range pairs {
		symbol, ok := symbols[pair]
		if !ok {
			a.log.Debug().Stringer("pair", pair).Msg("pair not listed on btcmarkets")
			continue
		}
		requests = append(requests,
			fmt.Sprintf(`{"channelName":%q,"eventName":%q}`,
				orderbookChannelPrefix+symbol, orderbookEvent),
			fmt.Sprintf(`{"channelName":%q,"eventName":%q}`,
				tradeChannelPrefix+symbol, tradeEvent))
	}
	return requests
}

// Handle discriminates messages by field presence: bids+asks is a book
// snapshot, trades is a trade batch, status is a channel ack. Anything else
// is irrelevant and dropped without error.
func (a *Adapter) Handle(msg []byte) ([]broadcast.Event, error) {
	v, err := a.parser.ParseBytes(msg)
	if err != nil {
		return nil, err
	}
	switch {
	case v.Exists("bids") && v.Exists("asks"):
		return a.handleOrderbook(v)
	case v.Exists("trades"):
		return a.handleTrades(v)
	case v.Exists("status"):
		return nil, nil
	default:
		a.log.Debug().Msg("ignoring unrecognized message")
		return nil, nil
	}
}

func (a *Adapter) handleOrderbook(v *fastjson.Value) ([]broadcast.Event, error) {
	pair, err := a.pair(v)
	if err != nil {
		return nil, err
	}
	bids, err := entries(v.GetArray("bids"))
	if err != nil {
		return nil, err
	}
	asks, err := entries(v.GetArray("asks"))
	if err != nil {
		return nil, err
	}
	return a.differ.Push(pair, bids, asks), nil
}

func (a *Adapter) handleTrades(v *fastjson.Value) ([]broadcast.Event, error) {
	pair, err := a.pair(v)
	if err != nil {
		return nil, err
	}
	wire := v.GetArray("trades")
	trades := make([]domain.TradeTuple, 0, len(wire))
	for _, t := range wire {
		entry := t.GetArray()
		if len(entry) != 4 {
			return nil, fmt.Errorf("trade entry with %d fields", len(entry))
		}
		trades = append(trades, domain.TradeTuple{
			Timestamp: timestamp.Milli(entry[0].GetInt64()),
			Price:     entry[1].GetInt64(),
			Volume:    entry[2].GetInt64(),
			Total:     entry[3].GetInt64(),
		})
	}
	return []broadcast.Event{broadcast.TradeSnapshot{
		Source: domain.BTCMarkets, Pair: pair, Trades: trades,
	}}, nil
}

// pair maps the instrument/currency fields every data message carries.
// BTCMarkets adds markets without notice, so an unknown combination is an
// error on the message, not a crash.
func (a *Adapter) pair(v *fastjson.Value) (domain.CurrencyPair, error) {
	instrument := string(v.GetStringBytes("instrument"))
	currency := string(v.GetStringBytes("currency"))
	pair, err := domain.MapPair(instrument + currency)
	if err != nil {
		return 0, fmt.Errorf("could not map pair code %s%s: %w", instrument, currency, err)
	}
	return pair, nil
}

func entries(wire []*fastjson.Value) ([]domain.BookEntry, error) {
	out := make([]domain.BookEntry, 0, len(wire))
	for _, e := range wire {
		entry := e.GetArray()
		if len(entry) != 3 {
			return nil, fmt.Errorf("book entry with %d fields", len(entry))
		}
		out = append(out, domain.BookEntry{
			Price:  entry[0].GetInt64(),
			Volume: entry[1].GetInt64(),
			Code:   entry[2].GetInt64(),
		})
	}
	return out, nil
}
