package exchange

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
)

var ErrUnknownChannel = errors.New("unknown channel")

// Registry maps the channel ids one upstream session assigned to the pairs
// they carry. It is owned exclusively by one connection's adapter and is
// discarded wholesale on reconnect: ids are reassigned by the exchange on
// every new session.
type Registry struct {
	pairs map[int64]domain.CurrencyPair
	log   zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		pairs: make(map[int64]domain.CurrencyPair),
		log:   log,
	}
}

// Register records a subscription confirmation. Re-registering an id with the
// same pair is a no-op; with a different pair it is an upstream protocol
// anomaly, logged loudly before the newer mapping wins.
func (r *Registry) Register(id int64, pair domain.CurrencyPair) {
	if prev, ok := r.pairs[id]; ok && prev != pair {
		r.log.Warn().
			Int64("channel", id).
			Stringer("previous", prev).
			Stringer("pair", pair).
			Msg("channel id reassigned to a different pair")
	}
	r.pairs[id] = pair
}

// Resolve returns the pair a data message on the given channel belongs to.
// An unregistered id means a missed confirmation or a protocol change; the
// caller must drop the message, never default the pair.
func (r *Registry) Resolve(id int64) (domain.CurrencyPair, error) {
	pair, ok := r.pairs[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	return pair, nil
}
