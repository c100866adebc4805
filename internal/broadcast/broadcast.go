// Package broadcast defines the canonical, exchange-agnostic events pushed to
// downstream subscribers, and their JSON wire envelope.
package broadcast

import (
	"encoding/json"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common/timestamp"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
)

// Event is the closed set of canonical broadcast variants.
type Event interface {
	name() string
}

// Heartbeat is published on a fixed timer so subscribers can detect a dead
// distributor. Exchange liveness is signaled separately by ConnectionOpened
// and ConnectionClosed.
type Heartbeat struct{}

func (Heartbeat) name() string { return "hb" }

// Connected is the first message every new subscriber receives; the
// multiplier tells it how to interpret every numeric field that follows.
type Connected struct {
	Multiplier int64 `json:"multiplier"`
}

func (Connected) name() string { return "connected" }

type ConnectionOpened struct {
	Exchange domain.Exchange `json:"exchange"`
	TS       timestamp.T     `json:"ts"`
}

func (ConnectionOpened) name() string { return "connectionOpened" }

type ConnectionClosed struct {
	Exchange domain.Exchange `json:"exchange"`
	TS       timestamp.T     `json:"ts"`
}

func (ConnectionClosed) name() string { return "connectionClosed" }

// OrderbookSnapshot carries the full top-of-book for a pair, sent once when a
// feed first reports the book.
type OrderbookSnapshot struct {
	Source domain.Exchange     `json:"source"`
	Pair   domain.CurrencyPair `json:"pair"`
	Bids   []domain.Level      `json:"bids"`
	Asks   []domain.Level      `json:"asks"`
}

func (OrderbookSnapshot) name() string { return "orderbookSnapshot" }

// OrderbookUpdate carries levels added since the last event for the pair.
type OrderbookUpdate struct {
	Source domain.Exchange     `json:"source"`
	Pair   domain.CurrencyPair `json:"pair"`
	Bids   []domain.Level      `json:"bids"`
	Asks   []domain.Level      `json:"asks"`
}

func (OrderbookUpdate) name() string { return "orderbookUpdate" }

// OrderbookRemove carries levels gone since the last event for the pair.
type OrderbookRemove struct {
	Source domain.Exchange     `json:"source"`
	Pair   domain.CurrencyPair `json:"pair"`
	Bids   []domain.Level      `json:"bids"`
	Asks   []domain.Level      `json:"asks"`
}

func (OrderbookRemove) name() string { return "orderbookRemove" }

type TradeSnapshot struct {
	Source domain.Exchange     `json:"source"`
	Pair   domain.CurrencyPair `json:"pair"`
	Trades []domain.TradeTuple `json:"trades"`
}

func (TradeSnapshot) name() string { return "tradeSnapshot" }

type Trade struct {
	Source domain.Exchange     `json:"source"`
	Pair   domain.CurrencyPair `json:"pair"`
	Trade  domain.TradeTuple   `json:"trade"`
}

func (Trade) name() string { return "trade" }

// Marshal wraps an event in its single-key envelope, e.g.
// {"orderbookUpdate":{...}}.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(map[string]Event{e.name(): e})
}
