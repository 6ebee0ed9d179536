package modbus

import (
	"io"
	"log/slog"
	"time"

	"github.com/allbin/go-serialscope/stream"
)

const (
	DefaultTimeout = time.Second
	DefaultRetries = 2
	MaxRetries     = 10
)

// Config holds transaction and client settings.
type Config struct {
	Timeout  time.Duration // per attempt
	Retries  int           // extra attempts after the first
	Timing   stream.Timing
	Silence  time.Duration // overrides Timing.Silence() when non-zero
	Logger   *slog.Logger
	Observer func(Event)
	Now      func() time.Time
}

// Option is a functional option for a Manager or Client.
type Option func(*Config) error

// DefaultConfig returns one second attempts, two retries and 9600 baud
// RTU timing.
func DefaultConfig() Config {
	return Config{
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
		Timing:  stream.ModbusTiming(9600),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     time.Now,
	}
}

// SilenceThreshold is the gap that ends a frame under this config.
func (c Config) SilenceThreshold() time.Duration {
	if c.Silence > 0 {
		return c.Silence
	}
	return c.Timing.Silence()
}

// WithTimeout sets how long each attempt waits for a response.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidConfig
		}
		c.Timeout = d
		return nil
	}
}

// WithRetries sets how many times an unanswered request is resent.
func WithRetries(n int) Option {
	return func(c *Config) error {
		if n < 0 || n > MaxRetries {
			return ErrInvalidConfig
		}
		c.Retries = n
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

// WithSilence overrides the computed inter-frame silence.
func WithSilence(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return ErrInvalidConfig
		}
		c.Silence = d
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

// WithObserver registers a callback for every frame a Client sends or
// receives. It runs on the goroutine calling Do.
func WithObserver(fn func(Event)) Option {
	return func(c *Config) error {
		c.Observer = fn
		return nil
	}
}

// WithClock replaces time.Now for attempt deadlines and for stamping
// received bytes.
func WithClock(now func() time.Time) Option {
	return func(c *Config) error {
		if now == nil {
			return ErrInvalidConfig
		}
		c.Now = now
		return nil
	}
}

func applyOptions(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
