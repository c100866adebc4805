package btcmarkets

import (
	"strings"
	"testing"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/broadcast"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/exchange"
)

func handle(t *testing.T, a exchange.Adapter, msg string) []broadcast.Event {
	t.Helper()
	events, err := a.Handle([]byte(msg))
	if err != nil {
		t.Fatalf("Handle(%s): %v", msg, err)
	}
	return events
}

func TestRequests(t *testing.T) {
	a := New()
	requests := a.Requests([]domain.CurrencyPair{domain.BTCAUD})
	if len(requests) != 2 {
		t.Fatalf("got %d requests: %v", len(requests), requests)
	}
	if requests[0] != `{"channelName":"Orderbook_BTCAUD","eventName":"OrderBookChange"}` {
		t.Errorf("book request = %s", requests[0])
	}
	if requests[1] != `{"channelName":"TRADE_BTCAUD","eventName":"MarketTrade"}` {
		t.Errorf("trade request = %s", requests[1])
	}
}

func TestFirstBookMessageIsSnapshot(t *testing.T) {
	a := New()
	events := handle(t, a, `{"currency":"AUD","instrument":"BTC","timestamp":1500000000,
		"bids":[[1000000000000,50000000,1]],"asks":[[1100000000000,25000000,1]]}`)
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	snapshot, ok := events[0].(broadcast.OrderbookSnapshot)
	if !ok {
		t.Fatalf("got %T", events[0])
	}
	if snapshot.Source != domain.BTCMarkets || snapshot.Pair != domain.BTCAUD {
		t.Errorf("identity = %v %v", snapshot.Source, snapshot.Pair)
	}
	if len(snapshot.Bids) != 1 || snapshot.Bids[0] != (domain.Level{Price: 1000000000000, Volume: 50000000}) {
		t.Errorf("bids = %v", snapshot.Bids)
	}
	if len(snapshot.Asks) != 1 || snapshot.Asks[0] != (domain.Level{Price: 1100000000000, Volume: 25000000}) {
		t.Errorf("asks = %v", snapshot.Asks)
	}
}

func TestRepeatedBookMessagesAreDiffed(t *testing.T) {
	a := New()
	handle(t, a, `{"currency":"AUD","instrument":"BTC",
		"bids":[[100,1,1]],"asks":[]}`)

	// Identical snapshot, no change.
	if events := handle(t, a, `{"currency":"AUD","instrument":"BTC",
		"bids":[[100,1,1]],"asks":[]}`); len(events) != 0 {
		t.Errorf("identical snapshot produced %v", events)
	}

	// One bid replaced by another: removal first, then the addition.
	events := handle(t, a, `{"currency":"AUD","instrument":"BTC",
		"bids":[[101,2,2]],"asks":[]}`)
	if len(events) != 2 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	remove, ok := events[0].(broadcast.OrderbookRemove)
	if !ok {
		t.Fatalf("events[0] = %T, want OrderbookRemove", events[0])
	}
	if len(remove.Bids) != 1 || remove.Bids[0] != (domain.Level{Price: 100, Volume: 1}) {
		t.Errorf("removed bids = %v", remove.Bids)
	}
	update, ok := events[1].(broadcast.OrderbookUpdate)
	if !ok {
		t.Fatalf("events[1] = %T, want OrderbookUpdate", events[1])
	}
	if len(update.Bids) != 1 || update.Bids[0] != (domain.Level{Price: 101, Volume: 2}) {
		t.Errorf("added bids = %v", update.Bids)
	}
}

func TestTradeBatch(t *testing.T) {
	a := New()
	events := handle(t, a, `{"currency":"BTC","instrument":"XRP",
		"trades":[[1500000000000,4600,1000000000,46000]]}`)
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	snapshot, ok := events[0].(broadcast.TradeSnapshot)
	if !ok {
		t.Fatalf("got %T", events[0])
	}
	if snapshot.Pair != domain.XRPBTC {
		t.Errorf("pair = %v", snapshot.Pair)
	}
	want := domain.TradeTuple{Timestamp: 1500000000000, Price: 4600, Volume: 1000000000, Total: 46000}
	if len(snapshot.Trades) != 1 || snapshot.Trades[0] != want {
		t.Errorf("trades = %v, want %v", snapshot.Trades, want)
	}
}

func TestStatusAckDropped(t *testing.T) {
	a := New()
	if events := handle(t, a, `{"status":"OK","channelName":"Orderbook_BTCAUD"}`); len(events) != 0 {
		t.Errorf("status ack produced %v", events)
	}
}

func TestUnknownShapeDropped(t *testing.T) {
	a := New()
	if events := handle(t, a, `{"something":"else"}`); len(events) != 0 {
		t.Errorf("unknown message produced %v", events)
	}
}

func TestUnknownPairCodeIsError(t *testing.T) {
	a := New()
	_, err := a.Handle([]byte(`{"currency":"USD","instrument":"DOGE","bids":[],"asks":[]}`))
	if err == nil || !strings.Contains(err.Error(), "DOGEUSD") {
		t.Errorf("err = %v, want unknown pair code DOGEUSD", err)
	}
}

func TestShortBookEntryIsError(t *testing.T) {
	a := New()
	if _, err := a.Handle([]byte(`{"currency":"AUD","instrument":"BTC","bids":[[100,1]],"asks":[]}`)); err == nil {
		t.Error("expected error for malformed book entry")
	}
}
