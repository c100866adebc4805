// Package bitfinex adapts the Bitfinex v2 multiplexed-channel protocol.
// Event frames are JSON objects; data frames are positional JSON arrays whose
// first element is the channel id assigned in the subscribe handshake.
package bitfinex

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/broadcast"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common/timestamp"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/exchange"
)

type Adapter struct {
	registry   *exchange.Registry
	kinds      map[int64]channelKind
	started    map[int64]bool
	parser     fastjson.Parser
	multiplier int64
	log        zerolog.Logger
}

func New(options ...common.Option) exchange.Adapter {
	opts := exchange.NewOptions(options...)
	return &Adapter{
		registry:   exchange.NewRegistry(opts.Logger),
		kinds:      make(map[int64]channelKind),
		started:    make(map[int64]bool),
		multiplier: opts.Multiplier,
		log:        opts.Logger,
	}
}

func (a *Adapter) Exchange() domain.Exchange {
	return domain.Bitfinex
}

func (a *Adapter) Requests(pairs []domain.CurrencyPair) []string {
	requests := make([]string, 0, 2*len(pairs))
	for _, pair := range pairs {
		symbol, ok := symbols[pair]
		if !ok {
			a.log.Debug().Stringer("pair", pair).Msg("pair not listed on bitfinex")
			continue
		}
		requests = append(requests,
			fmt.Sprintf(`{"event":"subscribe","channel":%q,"symbol":%q,"prec":%q,"freq":%q,"len":%q}`,
				bookChannel, symbol, bookPrecision, bookFrequency, bookLength),
			fmt.Sprintf(`{"event":"subscribe","channel":%q,"symbol":%q}`,
				tradesChannel, symbol))
	}
	return requests
}

func (a *Adapter) Handle(msg []byte) ([]broadcast.Event, error) {
	v, err := a.parser.ParseBytes(msg)
	if err != nil {
		return nil, err
	}
	if v.Type() == fastjson.TypeArray {
		return a.handleData(v.GetArray())
	}
	return a.handleEvent(v, msg)
}

// handleEvent processes object frames: handshake acks and channel
// confirmations. None of them produce canonical events.
func (a *Adapter) handleEvent(v *fastjson.Value, raw []byte) ([]broadcast.Event, error) {
	switch event := string(v.GetStringBytes("event")); event {
	case "subscribed":
		return nil, a.register(v)
	case "info", "conf":
		return nil, nil
	case "error":
		return nil, errors.New(string(raw))
	default:
		a.log.Debug().Str("event", event).Msg("ignoring unrecognized event")
		return nil, nil
	}
}

func (a *Adapter) register(v *fastjson.Value) error {
	symbol := string(v.GetStringBytes("symbol"))
	pair, ok := pairFromSymbol(symbol)
	if !ok {
		return fmt.Errorf("%w: subscribed to symbol %s", domain.ErrUnknownPair, symbol)
	}
	chanID := v.GetInt64("chanId")
	switch channel := string(v.GetStringBytes("channel")); channel {
	case bookChannel:
		a.kinds[chanID] = bookKind
	case tradesChannel:
		a.kinds[chanID] = tradeKind
	default:
		return fmt.Errorf("subscribed to unexpected channel %s", channel)
	}
	a.registry.Register(chanID, pair)
	return nil
}

// handleData processes positional array frames. The channel id must resolve
// before anything else is looked at; a frame on an unknown channel is a
// protocol-integrity failure for that frame.
func (a *Adapter) handleData(arr []*fastjson.Value) ([]broadcast.Event, error) {
	if len(arr) < 2 {
		return nil, errors.New("short data frame")
	}
	if string(arr[1].GetStringBytes()) == "hb" {
		return nil, nil
	}
	chanID := arr[0].GetInt64()
	pair, err := a.registry.Resolve(chanID)
	if err != nil {
		return nil, err
	}
	switch a.kinds[chanID] {
	case bookKind:
		return a.handleBook(chanID, pair, arr[1])
	case tradeKind:
		return a.handleTrades(chanID, pair, arr)
	}
	return nil, nil
}

// handleBook maps a book frame. The first payload on a channel is the full
// snapshot; every later one is a single (orderId, price, amount) update where
// the amount's sign picks the side and a scaled price of zero removes the
// level.
func (a *Adapter) handleBook(chanID int64, pair domain.CurrencyPair, payload *fastjson.Value) ([]broadcast.Event, error) {
	if !a.started[chanID] {
		a.started[chanID] = true
		return a.bookSnapshot(pair, payload)
	}
	entry := payload.GetArray()
	if len(entry) != 3 {
		return nil, fmt.Errorf("book update with %d fields", len(entry))
	}
	price, err := domain.Standardize(entry[1].GetFloat64(), a.multiplier)
	if err != nil {
		return nil, err
	}
	amount, err := domain.Standardize(entry[2].GetFloat64(), a.multiplier)
	if err != nil {
		return nil, err
	}

	bids, asks := []domain.Level{}, []domain.Level{}
	if amount > 0 {
		bids = append(bids, domain.Level{Price: price, Volume: amount})
	} else {
		asks = append(asks, domain.Level{Price: price, Volume: -amount})
	}

	// Compare the scaled integer, never the float.
	if price == 0 {
		return []broadcast.Event{broadcast.OrderbookRemove{
			Source: domain.Bitfinex, Pair: pair, Bids: bids, Asks: asks,
		}}, nil
	}
	return []broadcast.Event{broadcast.OrderbookUpdate{
		Source: domain.Bitfinex, Pair: pair, Bids: bids, Asks: asks,
	}}, nil
}

func (a *Adapter) bookSnapshot(pair domain.CurrencyPair, payload *fastjson.Value) ([]broadcast.Event, error) {
	entries := payload.GetArray()
	bids, asks := []domain.Level{}, []domain.Level{}
	for _, e := range entries {
		entry := e.GetArray()
		if len(entry) != 3 {
			return nil, fmt.Errorf("book snapshot entry with %d fields", len(entry))
		}
		price, err := domain.Standardize(entry[1].GetFloat64(), a.multiplier)
		if err != nil {
			return nil, err
		}
		amount, err := domain.Standardize(entry[2].GetFloat64(), a.multiplier)
		if err != nil {
			return nil, err
		}
		if amount > 0 {
			bids = append(bids, domain.Level{Price: price, Volume: amount})
		} else {
			asks = append(asks, domain.Level{Price: price, Volume: -amount})
		}
	}
	return []broadcast.Event{broadcast.OrderbookSnapshot{
		Source: domain.Bitfinex, Pair: pair, Bids: bids, Asks: asks,
	}}, nil
}

// handleTrades maps a trades frame: the initial batch becomes a
// TradeSnapshot, "te" executions become single Trades, and "tu" updates are
// dropped since they duplicate the execution that preceded them.
func (a *Adapter) handleTrades(chanID int64, pair domain.CurrencyPair, arr []*fastjson.Value) ([]broadcast.Event, error) {
	if !a.started[chanID] {
		a.started[chanID] = true
		entries := arr[1].GetArray()
		trades := make([]domain.TradeTuple, 0, len(entries))
		for _, e := range entries {
			trade, err := a.trade(e)
			if err != nil {
				return nil, err
			}
			trades = append(trades, trade)
		}
		return []broadcast.Event{broadcast.TradeSnapshot{
			Source: domain.Bitfinex, Pair: pair, Trades: trades,
		}}, nil
	}
	switch kind := string(arr[1].GetStringBytes()); kind {
	case "te":
		if len(arr) < 3 {
			return nil, errors.New("short trade frame")
		}
		trade, err := a.trade(arr[2])
		if err != nil {
			return nil, err
		}
		return []broadcast.Event{broadcast.Trade{
			Source: domain.Bitfinex, Pair: pair, Trade: trade,
		}}, nil
	case "tu":
		// Duplicate of the earlier "te" with the trade id filled in.
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected trade frame kind %q", kind)
	}
}

// trade maps one (id, ts, amount, price) wire entry. The amount keeps its
// sign: negative volume marks a taker sell.
func (a *Adapter) trade(v *fastjson.Value) (domain.TradeTuple, error) {
	entry := v.GetArray()
	if len(entry) != 4 {
		return domain.TradeTuple{}, fmt.Errorf("trade entry with %d fields", len(entry))
	}
	price, err := domain.Standardize(entry[3].GetFloat64(), a.multiplier)
	if err != nil {
		return domain.TradeTuple{}, err
	}
	amount, err := domain.Standardize(entry[2].GetFloat64(), a.multiplier)
	if err != nil {
		return domain.TradeTuple{}, err
	}
	return domain.TradeTuple{
		Timestamp: timestamp.Milli(entry[1].GetInt64()),
		Price:     price,
		Volume:    amount,
		Total:     price * amount,
	}, nil
}
