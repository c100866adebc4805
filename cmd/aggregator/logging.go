package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/config"
)

// setupLogging writes human-readable logs when stderr is a terminal, JSON
// otherwise, and additionally into a size-rotated file when one is
// configured.
func setupLogging(cfg config.LoggingConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	var writers []io.Writer
	if term.IsTerminal(int(os.Stderr.Fd())) {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	} else {
		writers = append(writers, os.Stderr)
	}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	}
	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return log, nil
}
