package common

import (
	"errors"
	"fmt"

	"github.com/fatih/structs"
	"github.com/rs/zerolog"
)

// Option sets one field of a component's Options struct by name, so the same
// option can configure any component that carries the field.
type Option func(options interface{}) error

var ErrBadOption = errors.New("bad option")

func OptionLogger(logger zerolog.Logger) Option {
	return setField("Logger", logger)
}

func OptionMultiplier(multiplier int64) Option {
	return setField("Multiplier", multiplier)
}

func setField(name string, value interface{}) Option {
	return func(options interface{}) error {
		s := structs.New(options)
		field, ok := s.FieldOk(name)
		if !ok {
			return fmt.Errorf("%w: no %s field", ErrBadOption, name)
		}
		if err := field.Set(value); err != nil {
			return fmt.Errorf("%w: %s", ErrBadOption, err)
		}
		return nil
	}
}
