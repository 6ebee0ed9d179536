package monitor

import (
	"io"
	"log/slog"
	"time"

	"github.com/allbin/go-serialscope/stream"
)

// Config holds session settings.
type Config struct {
	Capacity     int
	Timing       stream.Timing
	Silence      time.Duration // overrides Timing.Silence() when non-zero
	MaxFrameSize int
	Highlights   []Rule
	Logger       *slog.Logger
}

// Option is a functional option for a Session.
type Option func(*Config) error

// DefaultConfig keeps 5000 frames and cuts them on the silence of a
// 115200 baud 8N1 line.
func DefaultConfig() Config {
	return Config{
		Capacity:     DefaultCapacity,
		Timing:       stream.Timing8N1(115200),
		MaxFrameSize: stream.DefaultMaxFrameSize,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SilenceThreshold is the gap that ends a frame under this config.
func (c Config) SilenceThreshold() time.Duration {
	if c.Silence > 0 {
		return c.Silence
	}
	return c.Timing.Silence()
}

// WithCapacity sets how many frames the history keeps.
func WithCapacity(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return ErrInvalidConfig
		}
		c.Capacity = n
		return nil
	}
}

// WithTiming sets the line parameters the frame silence is derived from.
func WithTiming(t stream.Timing) Option {
	return func(c *Config) error {
		if err := t.Validate(); err != nil {
			return err
		}
		c.Timing = t
		return nil
	}
}

// WithSilence overrides the computed silence threshold.
func WithSilence(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return ErrInvalidConfig
		}
		c.Silence = d
		return nil
	}
}

// WithMaxFrameSize closes frames at n bytes on a line that never falls
// silent.
func WithMaxFrameSize(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return ErrInvalidConfig
		}
		c.MaxFrameSize = n
		return nil
	}
}

// WithHighlights adds highlight rules.
func WithHighlights(rules ...Rule) Option {
	return func(c *Config) error {
		c.Highlights = append(c.Highlights, rules...)
		return nil
	}
}

// WithLogger sets the logger; nil keeps the discarding default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l != nil {
			c.Logger = l
		}
		return nil
	}
}
