package main

import (
	"context"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/config"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/exchange"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/exchange/bitfinex"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/exchange/btcmarkets"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/mainutil"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/server"
)

var Options struct {
	Config     string
	Addr       string
	Pairs      string
	Multiplier int64 `traits:"ge=0"`
	Help       bool
}

var flags flag.FlagSet

func init() {
	flags.StringVarP(&Options.Config, "config", "c", "", "config file")
	flags.StringVarP(&Options.Addr, "addr", "a", "", "broadcast listen address")
	flags.StringVarP(&Options.Pairs, "pairs", "p", "", "currency pairs, comma separated")
	flags.Int64VarP(&Options.Multiplier, "multiplier", "m", 0, "fixed-point multiplier (0 = config value)")
	flags.BoolVarP(&Options.Help, "help", "", false, "this help message")
	flags.SetInterspersed(false)
	flags.SetOutput(io.Discard)
}

func run() (err error, ret int) {
	if _, err := mainutil.ParseArgs(&flags); err != nil {
		if err == flag.ErrHelp {
			Options.Help = true
		} else {
			return err, 1
		}
	}
	if Options.Help {
		stdout.Print(flags.FlagUsages())
		return nil, 1
	}
	if err := mainutil.Validate(Options); err != nil {
		stderr.Print(err)
		return nil, 1
	}

	cfg, err := config.Load(Options.Config)
	if err != nil {
		return err, 1
	}
	if Options.Addr != "" {
		cfg.Server.Addr = Options.Addr
	}
	if Options.Pairs != "" {
		cfg.Feed.Pairs = Options.Pairs
	}
	if Options.Multiplier > 0 {
		cfg.Feed.Multiplier = Options.Multiplier
	}

	log, err := setupLogging(cfg.Logging)
	if err != nil {
		return err, 1
	}
	pairs, err := domain.ParsePairs(cfg.Feed.Pairs)
	if err != nil {
		return err, 1
	}

	srv := server.New(cfg.Server.Addr, cfg.Feed.Multiplier,
		common.OptionLogger(log.With().Str("component", "server").Logger()))

	ctx := context.Background()
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error().Err(err).Msg("broadcast server failed")
			os.Exit(1)
		}
	}()

	feeds := []struct {
		exchange domain.Exchange
		cfg      config.ExchangeConfig
		factory  exchange.Factory
	}{
		{domain.Bitfinex, cfg.Exchanges.Bitfinex, bitfinex.New},
		{domain.BTCMarkets, cfg.Exchanges.BTCMarkets, btcmarkets.New},
	}
	for _, feed := range feeds {
		if !feed.cfg.Enabled {
			log.Info().Stringer("exchange", feed.exchange).Msg("feed disabled")
			continue
		}
		sup := exchange.NewSupervisor(exchange.SupervisorConfig{
			Exchange:       feed.exchange,
			URL:            feed.cfg.Addr,
			Pairs:          pairs,
			New:            feed.factory,
			Publisher:      srv,
			Multiplier:     cfg.Feed.Multiplier,
			ReconnectDelay: cfg.Feed.ReconnectDelay,
			Logger:         log,
		})
		go sup.Run(ctx)
	}

	// The heartbeat loop is the process's forever loop: the service runs
	// until externally killed.
	ticker := time.NewTicker(cfg.Server.HeartbeatInterval)
	defer ticker.Stop()
	for range ticker.C {
		srv.Heartbeat()
	}
	return nil, 0
}

func main() {
	err, ret := run()
	if err != nil {
		stderr.Println("Error:", err)
	}
	if ret != 0 {
		os.Exit(ret)
	}
}
