package event

import (
	"time"

	"go.uber.org/zap"
)

// BusOption configures an event Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// panicHandler is called when a handler panics.
	panicHandler PanicHandler

	// logger receives handler failures.
	logger *zap.Logger

	// now stamps event metadata.
	now func() time.Time
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger: zap.NewNop(),
		now:    time.Now,
	}
}

// WithBusPanicHandler sets the panic handler for the bus.
func WithBusPanicHandler(h PanicHandler) BusOption {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}

// WithLogger sets the logger used to report handler errors and panics.
func WithLogger(logger *zap.Logger) BusOption {
	return func(c *busConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the time source used for event timestamps.
func WithClock(now func() time.Time) BusOption {
	return func(c *busConfig) {
		if now != nil {
			c.now = now
		}
	}
}
