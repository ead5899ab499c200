// Package logger builds the process logger for the CLI and batch jobs.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level, format and destination of the process logger.
type Config struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level" envconfig:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" envconfig:"FORMAT"`
	// Output is stdout, stderr, or a file path to append to.
	Output string `yaml:"output" envconfig:"OUTPUT"`
	// TimeFormat overrides the timestamp layout.
	TimeFormat string `yaml:"time_format" envconfig:"TIME_FORMAT"`
}

// Default keeps CLI output readable without any configuration.
var Default = Config{
	Level:  "info",
	Format: "console",
	Output: "stderr",
}

// New builds a logger from the config. A file output stays open for the
// lifetime of the process.
func New(cfg Config) (zerolog.Logger, error) {
	lv := cfg.Level
	if lv == "" {
		lv = Default.Level
	}
	level, err := zerolog.ParseLevel(lv)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("logger: invalid level %q: %w", cfg.Level, err)
	}

	var out io.Writer
	switch cfg.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("logger: open log file: %w", err)
		}
		out = f
	}

	tf := cfg.TimeFormat
	if tf == "" {
		tf = time.RFC3339
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: tf}
	}

	zerolog.TimeFieldFormat = tf
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
