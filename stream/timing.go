package stream

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTiming is returned for line parameters that cannot describe a
// UART character.
var ErrInvalidTiming = errors.New("stream: invalid line timing")

// SilenceChars is the inter-frame gap, in character times, that closes an
// RTU frame.
const SilenceChars = 3.5

// FixedSilenceBaud is the rate above which the Modbus serial line
// guideline replaces the computed gap with FixedSilence.
const (
	FixedSilenceBaud = 19200
	FixedSilence     = 1750 * time.Microsecond
)

// Timing holds the UART framing parameters the silence threshold is
// derived from.
type Timing struct {
	BaudRate int
	DataBits int
	Parity   bool
	StopBits int
	// RTU counts an absent parity bit as an extra stop bit, giving the
	// 11 bit character Modbus over serial line assumes.
	RTU bool
	// FixedAboveBaud applies FixedSilence when BaudRate exceeds
	// FixedSilenceBaud.
	FixedAboveBaud bool
}

// Timing8N1 returns the timing for the common 8 data bits, no parity,
// one stop bit framing.
func Timing8N1(baud int) Timing {
	return Timing{BaudRate: baud, DataBits: 8, StopBits: 1}
}

// ModbusTiming is Timing8N1 with RTU character accounting.
func ModbusTiming(baud int) Timing {
	t := Timing8N1(baud)
	t.RTU = true
	return t
}

// Validate reports ErrInvalidTiming for impossible parameters.
func (t Timing) Validate() error {
	if t.BaudRate <= 0 {
		return fmt.Errorf("%w: baud rate %d", ErrInvalidTiming, t.BaudRate)
	}
	if t.DataBits < 5 || t.DataBits > 8 {
		return fmt.Errorf("%w: %d data bits", ErrInvalidTiming, t.DataBits)
	}
	if t.StopBits != 1 && t.StopBits != 2 {
		return fmt.Errorf("%w: %d stop bits", ErrInvalidTiming, t.StopBits)
	}
	return nil
}

// CharBits is the bits on the wire per character: start, data, optional
// parity and stop bits.
func (t Timing) CharBits() int {
	bits := 1 + t.DataBits + t.StopBits
	if t.Parity {
		bits++
	} else if t.RTU && t.StopBits == 1 {
		bits++
	}
	return bits
}

// CharTime is the transmission time of one character.
func (t Timing) CharTime() time.Duration {
	if t.BaudRate <= 0 {
		return 0
	}
	return time.Duration(int64(t.CharBits()) * int64(time.Second) / int64(t.BaudRate))
}

// Silence returns the 3.5 character gap that ends a frame. At 9600 baud
// an 11 bit RTU character gives about 4.01ms.
func (t Timing) Silence() time.Duration {
	if t.FixedAboveBaud && t.BaudRate > FixedSilenceBaud {
		return FixedSilence
	}
	if t.BaudRate <= 0 {
		return 0
	}
	// 3.5 chars computed as 7 half chars to stay in integer arithmetic.
	return time.Duration(int64(t.CharBits()) * 7 * int64(time.Second) / (2 * int64(t.BaudRate)))
}

// TransmitTime is how long n characters occupy the line.
func (t Timing) TransmitTime(n int) time.Duration {
	return time.Duration(n) * t.CharTime()
}

func (t Timing) String() string {
	parity := "N"
	if t.Parity {
		parity = "P"
	}
	return fmt.Sprintf("%d %d%s%d", t.BaudRate, t.DataBits, parity, t.StopBits)
}
