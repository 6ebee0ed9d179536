package serial

import (
	"fmt"
	"time"

	"github.com/allbin/go-serialscope/stream"
)

// WriteMode represents the write synchronization mode
type WriteMode int

const (
	WriteModeBuffered WriteMode = iota // Default: kernel buffers writes
	WriteModeSynced                    // O_SYNC: writes block until hardware transmission
)

// MaxReadTimeout is the longest VTIME the kernel accepts.
const MaxReadTimeout = 25500 * time.Millisecond

// Config holds the configuration for a serial port
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	FlowControl FlowControl
	ReadTimeout time.Duration // VTIME, a multiple of 100ms
	WriteMode   WriteMode     // Controls write synchronization behavior
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
		ReadTimeout: 100 * time.Millisecond,
		WriteMode:   WriteModeBuffered,
	}
}

// Timing returns the character framing of the line. rtu selects the
// Modbus RTU character accounting where a missing parity bit is replaced
// by a second stop bit.
func (c Config) Timing(rtu bool) stream.Timing {
	return stream.Timing{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   c.Parity != ParityNone,
		StopBits: c.StopBits,
		RTU:      rtu,
	}
}

// String formats the line as "9600 8E1".
func (c Config) String() string {
	return fmt.Sprintf("%d %d%s%d", c.BaudRate, c.DataBits, c.Parity.Letter(), c.StopBits)
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		switch parity {
		case ParityNone, ParityOdd, ParityEven:
			c.Parity = parity
			return nil
		}
		return ErrInvalidConfig
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		switch fc {
		case FlowControlNone, FlowControlRTSCTS:
			c.FlowControl = fc
			return nil
		}
		return ErrInvalidConfig
	}
}

// WithReadTimeout sets how long a read waits for the first byte. The
// kernel counts in tenths of a second, so timeout must be a multiple of
// 100ms no larger than MaxReadTimeout. Zero makes reads non-blocking.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > MaxReadTimeout || timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithWriteMode sets the write synchronization mode
func WithWriteMode(mode WriteMode) Option {
	return func(c *Config) error {
		c.WriteMode = mode
		return nil
	}
}

// WithSyncWrite enables synchronous writes (O_SYNC) for guaranteed transmission
func WithSyncWrite() Option {
	return func(c *Config) error {
		c.WriteMode = WriteModeSynced
		return nil
	}
}

// vtime converts the read timeout to deciseconds.
func (c Config) vtime() uint8 {
	return uint8(c.ReadTimeout / (100 * time.Millisecond))
}
