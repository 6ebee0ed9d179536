// Package stream turns a continuous byte feed into frames delimited by
// line silence, the way Modbus RTU and most binary serial protocols mark
// message boundaries.
package stream

import (
	"time"
)

// Direction tags which way a frame travelled on the line.
type Direction int

const (
	RX Direction = iota
	TX
)

func (d Direction) String() string {
	if d == TX {
		return "TX"
	}
	return "RX"
}

// Frame is an immutable run of bytes captured between two boundaries.
type Frame struct {
	data      []byte
	timestamp time.Time
	direction Direction
}

// NewFrame copies data into a new frame.
func NewFrame(data []byte, dir Direction, ts time.Time) Frame {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Frame{data: buf, timestamp: ts, direction: dir}
}

// Bytes returns a copy of the frame contents.
func (f Frame) Bytes() []byte {
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out
}

// Len returns the number of bytes in the frame.
func (f Frame) Len() int { return len(f.data) }

// At returns the byte at index i.
func (f Frame) At(i int) byte { return f.data[i] }

// Timestamp is the arrival time of the frame's first byte.
func (f Frame) Timestamp() time.Time { return f.timestamp }

// Direction reports whether the frame was sent or received.
func (f Frame) Direction() Direction { return f.direction }

// IsZero reports whether f is the zero Frame.
func (f Frame) IsZero() bool { return f.data == nil && f.timestamp.IsZero() }
