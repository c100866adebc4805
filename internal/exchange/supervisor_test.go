package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/broadcast"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
)

// capture is a Publisher that records events in order.
type capture struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (c *capture) Publish(event broadcast.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *capture) snapshot() []broadcast.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]broadcast.Event{}, c.events...)
}

func (c *capture) waitLen(t *testing.T, n int) []broadcast.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if events := c.snapshot(); len(events) >= n {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", n, len(c.snapshot()))
	return nil
}

// stubAdapter subscribes with a fixed request and maps every inbound frame to
// one Trade whose price is the frame's sequence number.
type stubAdapter struct {
	requests []string
	seq      int64
}

func (a *stubAdapter) Exchange() domain.Exchange { return domain.Bitfinex }

func (a *stubAdapter) Requests([]domain.CurrencyPair) []string { return a.requests }

func (a *stubAdapter) Handle(msg []byte) ([]broadcast.Event, error) {
	a.seq++
	return []broadcast.Event{broadcast.Trade{
		Source: domain.Bitfinex,
		Pair:   domain.XRPBTC,
		Trade:  domain.TradeTuple{Price: a.seq},
	}}, nil
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestSupervisorReconnects(t *testing.T) {
	var upgrader websocket.Upgrader
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.Close()
	}))
	defer ts.Close()

	pub := &capture{}
	sup := NewSupervisor(SupervisorConfig{
		Exchange:       domain.Bitfinex,
		URL:            wsURL(ts),
		New:            func(...common.Option) Adapter { return &stubAdapter{} },
		Publisher:      pub,
		ReconnectDelay: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	events := pub.waitLen(t, 6)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop on cancel")
	}

	// Strictly alternating opened/closed pairs, for as many connection
	// attempts as completed.
	for i, event := range events[:6] {
		if i%2 == 0 {
			if _, ok := event.(broadcast.ConnectionOpened); !ok {
				t.Fatalf("events[%d] = %T, want ConnectionOpened", i, event)
			}
		} else {
			if _, ok := event.(broadcast.ConnectionClosed); !ok {
				t.Fatalf("events[%d] = %T, want ConnectionClosed", i, event)
			}
		}
	}
}

func TestSupervisorDispatchesInOrder(t *testing.T) {
	var upgrader websocket.Upgrader
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		// Expect the subscribe request first.
		_, msg, err := ws.ReadMessage()
		if err != nil || string(msg) != "subscribe-me" {
			return
		}
		ws.WriteMessage(websocket.TextMessage, []byte("one"))
		ws.WriteMessage(websocket.TextMessage, []byte("two"))
	}))
	defer ts.Close()

	pub := &capture{}
	sup := NewSupervisor(SupervisorConfig{
		Exchange:       domain.Bitfinex,
		URL:            wsURL(ts),
		New:            func(...common.Option) Adapter { return &stubAdapter{requests: []string{"subscribe-me"}} },
		Publisher:      pub,
		ReconnectDelay: time.Minute,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	events := pub.waitLen(t, 4)
	if _, ok := events[0].(broadcast.ConnectionOpened); !ok {
		t.Fatalf("events[0] = %T, want ConnectionOpened", events[0])
	}
	first, ok := events[1].(broadcast.Trade)
	if !ok {
		t.Fatalf("events[1] = %T, want Trade", events[1])
	}
	second, ok := events[2].(broadcast.Trade)
	if !ok {
		t.Fatalf("events[2] = %T, want Trade", events[2])
	}
	if first.Trade.Price != 1 || second.Trade.Price != 2 {
		t.Errorf("trades out of order: %d then %d", first.Trade.Price, second.Trade.Price)
	}
	if _, ok := events[3].(broadcast.ConnectionClosed); !ok {
		t.Fatalf("events[3] = %T, want ConnectionClosed", events[3])
	}
}
