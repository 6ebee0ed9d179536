// Package monitor captures a raw serial line as frames. A Session cuts the
// byte stream on silence, keeps a bounded history of the frames and
// matches highlight rules against them. Rendering is left to the caller:
// each Record renders any numeric view of its bytes on request.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/allbin/go-serialscope/stream"
)

// Stats are running totals for a session.
type Stats struct {
	RXBytes   uint64
	TXBytes   uint64
	RXFrames  uint64
	TXFrames  uint64
	Matches   uint64
	Evicted   uint64
	Discarded uint64 // partial frame bytes dropped on close
	First     time.Time
	Last      time.Time
}

// Frames is the number of frames in both directions.
func (s Stats) Frames() uint64 { return s.RXFrames + s.TXFrames }

// Session turns one line's chunks into records. All methods are safe for
// concurrent use; Run is normally the only feeder while Transmit may be
// called from a UI goroutine.
type Session struct {
	mu          sync.Mutex
	cfg         Config
	silence     time.Duration
	buf         *stream.Buffer
	history     *History
	highlighter *Highlighter
	stats       Stats
	seq         uint64
	closed      bool
	wake        chan struct{}
	log         *slog.Logger
}

// NewSession returns an open session.
func NewSession(opts ...Option) (*Session, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	silence := cfg.SilenceThreshold()
	if silence <= 0 {
		return nil, fmt.Errorf("%w: silence threshold must be positive", ErrInvalidConfig)
	}
	hl, err := NewHighlighter(cfg.Highlights...)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:         cfg,
		silence:     silence,
		buf:         stream.NewBuffer(stream.WithMaxFrameSize(cfg.MaxFrameSize)),
		history:     NewHistory(cfg.Capacity),
		highlighter: hl,
		wake:        make(chan struct{}, 1),
		log:         cfg.Logger.With("component", "monitor"),
	}, nil
}

// Silence is the gap that ends a frame.
func (s *Session) Silence() time.Duration { return s.silence }

// Timing is the line configuration the session was built with.
func (s *Session) Timing() stream.Timing { return s.cfg.Timing }

// Rules returns the highlight rules in use.
func (s *Session) Rules() []Rule { return s.highlighter.Rules() }

// Feed appends bytes seen on the line at ts.
func (s *Session) Feed(data []byte, dir stream.Direction, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.feed(data, dir, ts)
	return nil
}

func (s *Session) feed(data []byte, dir stream.Direction, ts time.Time) {
	if len(data) == 0 {
		return
	}
	if dir == stream.TX {
		s.stats.TXBytes += uint64(len(data))
	} else {
		s.stats.RXBytes += uint64(len(data))
	}
	if s.stats.First.IsZero() {
		s.stats.First = ts
	}
	s.stats.Last = ts
	s.buf.Feed(data, dir, ts)
}

// Transmit writes data to w and records it as a transmitted frame.
func (s *Session) Transmit(w io.Writer, data []byte, now time.Time) error {
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("monitor: write: %w", err)
	}
	if err := s.Feed(data, stream.TX, now); err != nil {
		return err
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Poll returns the frames completed by now, adding them to the history.
func (s *Session) Poll(now time.Time) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poll(now, s.silence)
}

func (s *Session) poll(now time.Time, silence time.Duration) []Record {
	var out []Record
	for {
		f, ok := s.buf.PollBoundary(now, silence)
		if !ok {
			return out
		}
		out = append(out, s.record(f))
	}
}

func (s *Session) record(f stream.Frame) Record {
	s.seq++
	r := Record{Seq: s.seq, Frame: f, Matches: s.highlighter.Match(f.Bytes())}
	if f.Direction() == stream.TX {
		s.stats.TXFrames++
	} else {
		s.stats.RXFrames++
	}
	s.stats.Matches += uint64(len(r.Matches))
	if s.history.Push(r) {
		s.stats.Evicted++
	}
	return r
}

// Deadline is when the open frame closes if the line stays quiet.
func (s *Session) Deadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Deadline(s.silence)
}

// Pending is the size of the frame still open, for a "frame open" display.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Pending()
}

// History returns the kept records, oldest first.
func (s *Session) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Records()
}

// Last returns up to n of the newest records, oldest first.
func (s *Session) Last(n int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Last(n)
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Clear empties the history and resets the statistics. The open frame is
// kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
	s.stats = Stats{}
}

// Close ends the session. Bytes of a frame still open are dropped, not
// emitted, and their count is returned.
func (s *Session) Close() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.closed = true
	n := s.buf.Discard()
	s.stats.Discarded += uint64(n)
	if n > 0 {
		s.log.Debug("discarded open frame", "bytes", n)
	}
	return n
}

// Run feeds chunks into the session and calls emit for every completed
// frame until ctx is cancelled or the source fails. The source ending with
// io.EOF completes the open frame since the line is silent from then on.
// Cancellation closes the session. emit runs on Run's goroutine.
func (s *Session) Run(ctx context.Context, chunks <-chan stream.Chunk, emit func(Record)) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	armed := s.arm(timer)

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil
		case chunk, ok := <-chunks:
			if !ok {
				s.flush(emit)
				s.Close()
				return nil
			}
			if chunk.Err != nil {
				if errors.Is(chunk.Err, io.EOF) {
					s.flush(emit)
					s.Close()
					return nil
				}
				s.Close()
				return fmt.Errorf("monitor: read: %w", chunk.Err)
			}
			if err := s.Feed(chunk.Data, stream.RX, chunk.Time); err != nil {
				return err
			}
		case <-s.wake:
		case <-timerC(timer, armed):
		}

		for _, r := range s.Poll(time.Now()) {
			emit(r)
		}
		armed = s.arm(timer)
	}
}

// flush completes the open frame regardless of silence.
func (s *Session) flush(emit func(Record)) {
	s.mu.Lock()
	now := time.Now()
	if s.stats.Last.After(now) {
		now = s.stats.Last
	}
	records := s.poll(now, 0)
	s.mu.Unlock()
	for _, r := range records {
		emit(r)
	}
}

func (s *Session) arm(t *time.Timer) bool {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	deadline, ok := s.Deadline()
	if !ok {
		return false
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	t.Reset(d)
	return true
}

func timerC(t *time.Timer, armed bool) <-chan time.Time {
	if !armed {
		return nil
	}
	return t.C
}
