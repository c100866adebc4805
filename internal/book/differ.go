// Package book reduces full top-of-book snapshots into incremental changes.
package book

import (
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/broadcast"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
)

type sides struct {
	bids []domain.BookEntry
	asks []domain.BookEntry
}

// Differ compares each incoming full snapshot against the last one seen for
// the pair and emits only what changed. It belongs to a single adapter
// instance and must not be shared across connections.
type Differ struct {
	source domain.Exchange
	last   map[domain.CurrencyPair]sides
}

func NewDiffer(source domain.Exchange) *Differ {
	return &Differ{
		source: source,
		last:   make(map[domain.CurrencyPair]sides),
	}
}

// Push stores the incoming snapshot as the new baseline and returns zero, one
// or two events: the full OrderbookSnapshot the first time a pair is seen,
// otherwise an OrderbookRemove for vanished entries followed by an
// OrderbookUpdate for new ones. Entries match only on the full
// (price, volume, code) tuple; order within a side carries no meaning.
func (d *Differ) Push(pair domain.CurrencyPair, bids, asks []domain.BookEntry) []broadcast.Event {
	prior, seen := d.last[pair]
	d.last[pair] = sides{bids: bids, asks: asks}

	if !seen {
		return []broadcast.Event{broadcast.OrderbookSnapshot{
			Source: d.source,
			Pair:   pair,
			Bids:   levels(bids),
			Asks:   levels(asks),
		}}
	}

	removedBids, addedBids := diff(prior.bids, bids)
	removedAsks, addedAsks := diff(prior.asks, asks)

	events := make([]broadcast.Event, 0, 2)
	if len(removedBids) > 0 || len(removedAsks) > 0 {
		events = append(events, broadcast.OrderbookRemove{
			Source: d.source,
			Pair:   pair,
			Bids:   levels(removedBids),
			Asks:   levels(removedAsks),
		})
	}
	if len(addedBids) > 0 || len(addedAsks) > 0 {
		events = append(events, broadcast.OrderbookUpdate{
			Source: d.source,
			Pair:   pair,
			Bids:   levels(addedBids),
			Asks:   levels(addedAsks),
		})
	}
	return events
}

// diff is an unordered exact set difference in both directions.
func diff(prior, next []domain.BookEntry) (removed, added []domain.BookEntry) {
	inPrior := make(map[domain.BookEntry]struct{}, len(prior))
	for _, entry := range prior {
		inPrior[entry] = struct{}{}
	}
	inNext := make(map[domain.BookEntry]struct{}, len(next))
	for _, entry := range next {
		inNext[entry] = struct{}{}
	}
	for _, entry := range prior {
		if _, ok := inNext[entry]; !ok {
			removed = append(removed, entry)
		}
	}
	for _, entry := range next {
		if _, ok := inPrior[entry]; !ok {
			added = append(added, entry)
		}
	}
	return removed, added
}

func levels(entries []domain.BookEntry) []domain.Level {
	out := make([]domain.Level, len(entries))
	for i, entry := range entries {
		out[i] = entry.Level()
	}
	return out
}
