// Package exchange holds the pieces shared by every upstream feed: the
// adapter contract, the per-connection channel registry, and the supervisor
// that keeps one exchange connected.
package exchange

import (
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/broadcast"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
)

// Adapter translates one exchange's wire protocol into canonical events.
// An instance is scoped to a single upstream connection; any channel state it
// accumulates is meaningless on the next connection, so the supervisor builds
// a fresh one per attempt.
type Adapter interface {
	Exchange() domain.Exchange

	// Requests returns the subscribe frames to send right after connecting,
	// one frame per channel per pair. Pairs the exchange does not list are
	// skipped.
	Requests(pairs []domain.CurrencyPair) []string

	// Handle maps one inbound frame to zero or more canonical events, in the
	// order they must be published. A non-nil error means the frame was
	// dropped; the connection stays up either way.
	Handle(msg []byte) ([]broadcast.Event, error)
}

// Factory builds a fresh Adapter for one connection attempt.
type Factory func(options ...common.Option) Adapter

// Publisher is the downstream sink for canonical events. Implementations
// must be safe for concurrent publishers.
type Publisher interface {
	Publish(event broadcast.Event)
}
