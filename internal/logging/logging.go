// Package logging builds the zap logger used by the imagestack CLI.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogOpts selects the encoding and level of the CLI logger.
type LogOpts struct {
	Verbose bool
	// Encoding is "console" (the default) or "json".
	Encoding string
}

// Encoder returns the encoder for the configured encoding.
func (opts LogOpts) Encoder() (zapcore.Encoder, error) {
	switch opts.Encoding {
	case "json":
		if opts.Verbose {
			return zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig()), nil
		}
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), nil
	case "console", "":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("unknown log encoding %q", opts.Encoding)
	}
}

// Level is Debug when verbose and Info otherwise. LOG_LEVEL overrides both.
func (opts LogOpts) Level() zapcore.Level {
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	if opts.Verbose {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// NewCore creates a core writing to w.
func (opts LogOpts) NewCore(w io.Writer) (zapcore.Core, error) {
	enc, err := opts.Encoder()
	if err != nil {
		return nil, err
	}
	return zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(opts.Level())), nil
}

// NewLogger creates a logger writing to stderr, keeping stdout for templates.
func (opts LogOpts) NewLogger() (*zap.Logger, error) {
	core, err := opts.NewCore(os.Stderr)
	if err != nil {
		return nil, err
	}
	return zap.New(core), nil
}
