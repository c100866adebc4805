package exchange

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/broadcast"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common/timestamp"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
)

const (
	// DefaultReconnectDelay is how long a supervisor waits between connection
	// attempts. There is no retry limit; the loop runs until cancelled.
	DefaultReconnectDelay = 10 * time.Second

	// Subscribe frames are paced so a reconnect burst cannot trip an
	// exchange's inbound rate limit.
	subscribeInterval = 100 * time.Millisecond
	subscribeBurst    = 5
)

// SupervisorConfig wires one exchange feed.
type SupervisorConfig struct {
	Exchange       domain.Exchange
	URL            string
	Pairs          []domain.CurrencyPair
	New            Factory
	Publisher      Publisher
	Multiplier     int64
	ReconnectDelay time.Duration
	Logger         zerolog.Logger
}

// Supervisor owns the Disconnected -> Connecting -> Open -> Disconnected loop
// for one exchange. Each successful connection gets a fresh adapter, so all
// channel-scoped state starts clean.
type Supervisor struct {
	exchange   domain.Exchange
	url        string
	pairs      []domain.CurrencyPair
	factory    Factory
	pub        Publisher
	multiplier int64
	delay      time.Duration
	limiter    *rate.Limiter
	dialer     *websocket.Dialer
	log        zerolog.Logger
}

func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = domain.DefaultMultiplier
	}
	return &Supervisor{
		exchange:   cfg.Exchange,
		url:        cfg.URL,
		pairs:      cfg.Pairs,
		factory:    cfg.New,
		pub:        cfg.Publisher,
		multiplier: cfg.Multiplier,
		delay:      cfg.ReconnectDelay,
		limiter:    rate.NewLimiter(rate.Every(subscribeInterval), subscribeBurst),
		dialer:     websocket.DefaultDialer,
		log:        cfg.Logger.With().Stringer("exchange", cfg.Exchange).Logger(),
	}
}

// Run connects, pumps messages and reconnects forever. It returns only when
// ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		s.log.Info().Dur("delay", s.delay).Msg("reconnecting after delay")
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return
		}
	}
}

// session runs one connection attempt to completion: dial, subscribe, pump
// inbound frames through a fresh adapter, and announce open/closed around the
// connected phase.
func (s *Supervisor) session(ctx context.Context) {
	ws, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.log.Error().Err(err).Str("url", s.url).Msg("could not connect")
		return
	}
	defer ws.Close()

	adapter := s.factory(
		common.OptionLogger(s.log),
		common.OptionMultiplier(s.multiplier),
	)
	for _, req := range adapter.Requests(s.pairs) {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		if err := ws.WriteMessage(websocket.TextMessage, []byte(req)); err != nil {
			s.log.Error().Err(err).Msg("could not send subscribe request")
			return
		}
	}

	s.log.Info().Msg("connected")
	s.pub.Publish(broadcast.ConnectionOpened{Exchange: s.exchange, TS: timestamp.Now()})
	defer func() {
		s.pub.Publish(broadcast.ConnectionClosed{Exchange: s.exchange, TS: timestamp.Now()})
	}()

	// Unblock the read loop when cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ws.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Error().Err(err).Msg("connection lost")
			}
			return
		}
		events, err := adapter.Handle(msg)
		if err != nil {
			s.log.Error().Err(err).Bytes("message", msg).Msg("dropping message")
			continue
		}
		for _, event := range events {
			s.pub.Publish(event)
		}
	}
}
