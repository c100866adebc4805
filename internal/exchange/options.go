package exchange

import (
	"github.com/rs/zerolog"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common"
	"github.com/mdeg/cryptocurrency-market-aggregator/internal/domain"
)

// Options are the settings every adapter accepts.
type Options struct {
	Logger     zerolog.Logger
	Multiplier int64
}

func NewOptions(options ...common.Option) Options {
	opts := Options{
		Logger:     zerolog.Nop(),
		Multiplier: domain.DefaultMultiplier,
	}
	for _, o := range options {
		if err := o(&opts); err != nil {
			panic("exchange: " + err.Error())
		}
	}
	return opts
}
