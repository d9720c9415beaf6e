package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	logger *slog.Logger
	out    io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithOutput sets where command reports are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

func newApplication(logDst *os.File, opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	if app.logger == nil {
		app.logger = newLogger(logDst, app.config.App.LogLevel)
		slog.SetDefault(app.logger)
	}
	return app, nil
}

// newLogger writes JSON, or text when dst is an interactive terminal.
func newLogger(dst *os.File, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(dst.Fd()) || isatty.IsCygwinTerminal(dst.Fd()) {
		return slog.New(slog.NewTextHandler(dst, opts))
	}
	return slog.New(slog.NewJSONHandler(dst, opts))
}
