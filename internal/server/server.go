// Package server is the downstream fan-out: a websocket endpoint that relays
// every canonical event to all connected subscribers, best effort.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/broadcast"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common"
)

const sendQueueSize = 256

// Options are the settings the server accepts through common options.
type Options struct {
	Logger zerolog.Logger
}

type subscriber struct {
	id   uuid.UUID
	ws   *websocket.Conn
	send chan []byte
	stop chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.stop)
		s.ws.Close()
	})
}

// Server accepts subscriber connections and relays events to all of them.
// Publish is safe for concurrent callers; delivery is at-most-once with no
// buffering beyond each subscriber's send queue.
type Server struct {
	addr       string
	multiplier int64
	hb         []byte
	upgrader   websocket.Upgrader
	log        zerolog.Logger

	mu   sync.Mutex
	subs map[uuid.UUID]*subscriber
}

func New(addr string, multiplier int64, options ...common.Option) *Server {
	var opts Options
	opts.Logger = zerolog.Nop()
	for _, o := range options {
		if err := o(&opts); err != nil {
			panic("server: " + err.Error())
		}
	}
	hb, err := broadcast.Marshal(broadcast.Heartbeat{})
	if err != nil {
		panic("server: " + err.Error())
	}
	return &Server{
		addr:       addr,
		multiplier: multiplier,
		hb:         hb,
		log:        opts.Logger,
		subs:       make(map[uuid.UUID]*subscriber),
	}
}

// ListenAndServe blocks serving subscriber connections until ctx is cancelled
// or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	s.log.Info().Str("addr", s.addr).Msg("broadcast server listening")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// ServeHTTP upgrades a subscriber connection. The connected frame with the
// fixed-point multiplier is queued before the subscriber is registered, so it
// is always the first message out.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("could not upgrade subscriber connection")
		return
	}
	connected, err := broadcast.Marshal(broadcast.Connected{Multiplier: s.multiplier})
	if err != nil {
		s.log.Error().Err(err).Msg("could not serialize connected message")
		ws.Close()
		return
	}
	sub := &subscriber{
		id:   uuid.New(),
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
		stop: make(chan struct{}),
	}
	sub.send <- connected

	s.mu.Lock()
	s.subs[sub.id] = sub
	s.mu.Unlock()
	s.log.Info().Stringer("subscriber", sub.id).Str("remote", ws.RemoteAddr().String()).
		Msg("subscriber connected")

	go s.writer(sub)
	go s.reader(sub)
}

// Publish serializes one event and relays it to every subscriber. A failure
// for one subscriber never affects the others.
func (s *Server) Publish(event broadcast.Event) {
	data, err := broadcast.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("could not serialize broadcast")
		return
	}
	s.relay(data)
}

// Heartbeat pushes the pre-serialized heartbeat frame. Driven by an external
// timer; subscribers use it to detect a dead distributor.
func (s *Server) Heartbeat() {
	s.relay(s.hb)
}

func (s *Server) relay(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.subs {
		select {
		case sub.send <- data:
		default:
			s.log.Warn().Stringer("subscriber", id).Msg("dropping event for slow subscriber")
		}
	}
}

func (s *Server) writer(sub *subscriber) {
	for {
		select {
		case data := <-sub.send:
			if err := sub.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				s.drop(sub, err)
				return
			}
		case <-sub.stop:
			return
		}
	}
}

// reader drains and discards anything the subscriber sends.
func (s *Server) reader(sub *subscriber) {
	for {
		if _, _, err := sub.ws.ReadMessage(); err != nil {
			s.drop(sub, err)
			return
		}
	}
}

func (s *Server) drop(sub *subscriber, err error) {
	s.mu.Lock()
	_, present := s.subs[sub.id]
	delete(s.subs, sub.id)
	s.mu.Unlock()
	sub.close()
	if present {
		s.log.Info().Stringer("subscriber", sub.id).Err(err).Msg("subscriber disconnected")
	}
}
