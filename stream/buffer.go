package stream

import (
	"time"
)

// State of a Buffer.
type State int

const (
	// Idle means no bytes are pending.
	Idle State = iota
	// Accumulating means bytes are pending and the silence timer runs.
	Accumulating
)

func (s State) String() string {
	if s == Accumulating {
		return "accumulating"
	}
	return "idle"
}

// DefaultMaxFrameSize bounds a frame when the line never falls silent.
const DefaultMaxFrameSize = 4096

// Buffer accumulates bytes from one line and cuts them into frames on
// silence. A Buffer is owned by a single goroutine and is not safe for
// concurrent use.
type Buffer struct {
	pending []byte
	dir     Direction
	first   time.Time
	last    time.Time
	ready   []Frame
	maxSize int
}

// BufferOption configures a Buffer.
type BufferOption func(*Buffer)

// WithMaxFrameSize closes a frame once it reaches n bytes even if the line
// has not been silent. n <= 0 disables the limit.
func WithMaxFrameSize(n int) BufferOption {
	return func(b *Buffer) {
		b.maxSize = n
	}
}

// NewBuffer returns an idle buffer.
func NewBuffer(opts ...BufferOption) *Buffer {
	b := &Buffer{maxSize: DefaultMaxFrameSize}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Feed appends a copy of data received at ts. A change of direction
// closes the pending frame immediately since a frame never mixes sent and
// received bytes.
func (b *Buffer) Feed(data []byte, dir Direction, ts time.Time) {
	if len(data) == 0 {
		return
	}
	if len(b.pending) > 0 && dir != b.dir {
		b.closeFrame()
	}
	if len(b.pending) == 0 {
		b.first = ts
		b.dir = dir
	}
	b.pending = append(b.pending, data...)
	b.last = ts

	for b.maxSize > 0 && len(b.pending) >= b.maxSize {
		b.ready = append(b.ready, NewFrame(b.pending[:b.maxSize], b.dir, b.first))
		b.pending = append(b.pending[:0], b.pending[b.maxSize:]...)
		b.first = ts
	}
}

// PollBoundary returns the next completed frame. Frames already closed by
// a direction change or the size limit come first; otherwise the pending
// bytes become a frame once now is at least silence past the last byte.
func (b *Buffer) PollBoundary(now time.Time, silence time.Duration) (Frame, bool) {
	if len(b.ready) == 0 && len(b.pending) > 0 && now.Sub(b.last) >= silence {
		b.closeFrame()
	}
	if len(b.ready) == 0 {
		return Frame{}, false
	}
	f := b.ready[0]
	b.ready[0] = Frame{}
	b.ready = b.ready[1:]
	return f, true
}

// Deadline reports when the pending bytes will close into a frame if no
// more bytes arrive. ok is false while idle.
func (b *Buffer) Deadline(silence time.Duration) (deadline time.Time, ok bool) {
	if len(b.ready) > 0 {
		return b.last, true
	}
	if len(b.pending) == 0 {
		return time.Time{}, false
	}
	return b.last.Add(silence), true
}

// State reports Accumulating while a frame is open.
func (b *Buffer) State() State {
	if len(b.pending) > 0 {
		return Accumulating
	}
	return Idle
}

// Pending returns the number of bytes in the open frame.
func (b *Buffer) Pending() int { return len(b.pending) }

// Discard drops the open frame without emitting it and returns how many
// bytes were dropped. Frames that already closed stay queued.
func (b *Buffer) Discard() int {
	n := len(b.pending)
	b.pending = b.pending[:0]
	b.first = time.Time{}
	b.last = time.Time{}
	return n
}

// Reset drops the open frame and every queued frame.
func (b *Buffer) Reset() {
	b.Discard()
	b.ready = nil
}

func (b *Buffer) closeFrame() {
	b.ready = append(b.ready, NewFrame(b.pending, b.dir, b.first))
	b.pending = b.pending[:0]
}
