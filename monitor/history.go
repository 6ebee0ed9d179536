package monitor

import (
	"github.com/allbin/go-serialscope/modbus"
	"github.com/allbin/go-serialscope/numeric"
	"github.com/allbin/go-serialscope/stream"
)

// DefaultCapacity is the number of frames a History keeps.
const DefaultCapacity = 5000

// Record is one captured frame with the highlight rules it matched.
type Record struct {
	Seq     uint64
	Frame   stream.Frame
	Matches []Match
}

// View renders the frame's bytes in format f. Every call works from the
// frame's own bytes so two views of one record always agree.
func (r Record) View(f numeric.Format) string {
	return numeric.FormatBytes(r.Frame.Bytes(), f)
}

// Modbus decodes the frame as an RTU frame.
func (r Record) Modbus() modbus.Response {
	return modbus.Decode(r.Frame)
}

// History is a ring of the most recent records. The oldest record is
// evicted when a push would exceed the capacity.
type History struct {
	buf     []Record
	head    int
	size    int
	evicted uint64
}

// NewHistory returns a history holding up to capacity records.
// capacity <= 0 selects DefaultCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{buf: make([]Record, capacity)}
}

// Push appends r and reports whether the oldest record was evicted to make
// room for it.
func (h *History) Push(r Record) bool {
	if h.size < len(h.buf) {
		h.buf[(h.head+h.size)%len(h.buf)] = r
		h.size++
		return false
	}
	h.buf[h.head] = r
	h.head = (h.head + 1) % len(h.buf)
	h.evicted++
	return true
}

func (h *History) Len() int { return h.size }

func (h *History) Cap() int { return len(h.buf) }

// Evicted counts records dropped since the history was created or cleared.
func (h *History) Evicted() uint64 { return h.evicted }

// At returns the i'th record, oldest first.
func (h *History) At(i int) (Record, bool) {
	if i < 0 || i >= h.size {
		return Record{}, false
	}
	return h.buf[(h.head+i)%len(h.buf)], true
}

// Records returns every record, oldest first.
func (h *History) Records() []Record {
	return h.Last(h.size)
}

// Last returns up to n of the newest records, oldest first.
func (h *History) Last(n int) []Record {
	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]Record, n)
	start := h.size - n
	for i := range out {
		out[i] = h.buf[(h.head+start+i)%len(h.buf)]
	}
	return out
}

func (h *History) Clear() {
	for i := range h.buf {
		h.buf[i] = Record{}
	}
	h.head = 0
	h.size = 0
	h.evicted = 0
}
