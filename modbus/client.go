package modbus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/allbin/go-serialscope/stream"
)

// Event is reported to the observer for every frame on the line.
// Response is set for received frames.
type Event struct {
	Frame    stream.Frame
	Response *Response
	Attempt  int
}

// Client drives a Manager over a byte source and sink, typically a serial
// port. One goroutine pumps reads; Do runs the buffer and manager until the
// transaction ends, so every state change happens on the caller's
// goroutine.
type Client struct {
	cfg     Config
	mgr     *Manager
	buf     *stream.Buffer
	chunks  <-chan stream.Chunk
	silence time.Duration
	grace   time.Duration
	log     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewClient starts reading rw and returns a client writing requests to it.
// Reading stops when ctx is cancelled or Close is called.
func NewClient(ctx context.Context, rw io.ReadWriter, opts ...Option) (*Client, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if cfg.SilenceThreshold() <= 0 {
		return nil, fmt.Errorf("%w: silence threshold must be positive", ErrInvalidConfig)
	}

	pumpCtx, cancel := context.WithCancel(ctx)
	c := &Client{
		cfg:     cfg,
		mgr:     newManager(rw, cfg),
		buf:     stream.NewBuffer(stream.WithMaxFrameSize(MaxFrameSize)),
		chunks:  stream.Pump(pumpCtx, rw, MaxFrameSize),
		silence: cfg.SilenceThreshold(),
		grace:   cfg.Timing.TransmitTime(MaxFrameSize) + cfg.SilenceThreshold(),
		log:     cfg.Logger.With("component", "modbus-client"),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	c.mgr.onTransmit = c.transmitted
	return c, nil
}

// Counters returns the transaction statistics.
func (c *Client) Counters() *Counters { return c.mgr.Counters() }

// Silence is the inter-frame gap the client delimits responses with.
func (c *Client) Silence() time.Duration { return c.silence }

// Close stops reading. A Do in progress ends with ErrCancelled.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.cancel()
	})
	return nil
}

// Do sends req and waits for its response, resending on timeout as
// configured. Only one Do runs at a time; a concurrent call fails with
// ErrBusy. Exception responses are returned with a nil error; check
// Response.Err. Cancelling ctx ends the transaction with ErrCancelled.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	if !c.mu.TryLock() {
		c.mgr.Counters().Inc(CntBusy)
		return Response{}, ErrBusy
	}
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return Response{}, ErrClosed
	default:
	}

	if err := c.resync(); err != nil {
		return Response{}, err
	}
	if err := c.mgr.Submit(req, c.cfg.Now()); err != nil {
		return Response{}, err
	}
	if req.IsBroadcast() {
		return Response{SlaveID: req.SlaveID, Function: req.Function, Validity: Ok}, nil
	}

	timer := time.NewTimer(c.wait())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.abort()
			return Response{}, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		case <-c.done:
			c.abort()
			return Response{}, fmt.Errorf("%w: %w", ErrCancelled, ErrClosed)
		case chunk, ok := <-c.chunks:
			if !ok {
				c.abort()
				return Response{}, fmt.Errorf("%w: %w", ErrCancelled, ErrClosed)
			}
			if chunk.Err != nil {
				c.abort()
				return Response{}, fmt.Errorf("modbus: read: %w", chunk.Err)
			}
			// Stamped on the client's clock so boundaries and deadlines
			// compare times from the same source.
			c.buf.Feed(chunk.Data, stream.RX, c.cfg.Now())
		case <-timer.C:
		}

		if res, done := c.step(c.cfg.Now()); done {
			return res.Response, res.Err
		}
		resetTimer(timer, c.wait())
	}
}

// step drains completed frames into the manager, then lets it expire the
// current attempt.
func (c *Client) step(now time.Time) (Result, bool) {
	for {
		f, ok := c.buf.PollBoundary(now, c.silence)
		if !ok {
			break
		}
		resp := Decode(f)
		c.observe(Event{Frame: f, Response: &resp})
		if res, done := c.mgr.HandleFrame(f); done {
			c.buf.Reset()
			return res, true
		}
	}

	// A response still arriving when the attempt expires gets the time of
	// one maximum size frame to complete.
	if c.buf.State() == stream.Accumulating {
		if deadline, ok := c.mgr.Deadline(); ok && now.Before(deadline.Add(c.grace)) {
			return Result{}, false
		}
	}
	return c.mgr.Tick(now)
}

// wait is the time until the next event that needs attention: a frame
// boundary or the attempt deadline. Past the deadline, a frame still
// arriving is given until the end of the grace period.
func (c *Client) wait() time.Duration {
	now := c.cfg.Now()
	next, ok := c.mgr.Deadline()
	if !ok {
		next = now.Add(c.cfg.Timeout)
	}
	if b, ok := c.buf.Deadline(c.silence); ok {
		if !next.After(now) {
			next = next.Add(c.grace)
		}
		if b.Before(next) {
			next = b
		}
	}
	if d := next.Sub(now); d > 0 {
		return d
	}
	return time.Millisecond
}

// resync drops bytes that arrived while no transaction was running so a
// late answer to an earlier request cannot be taken for the next one.
func (c *Client) resync() error {
	for {
		select {
		case chunk, ok := <-c.chunks:
			if !ok {
				return ErrClosed
			}
			if chunk.Err != nil {
				return fmt.Errorf("modbus: read: %w", chunk.Err)
			}
			c.log.Debug("dropping stale bytes", "count", len(chunk.Data))
		default:
			if n := c.buf.Pending(); n > 0 {
				c.log.Debug("dropping partial frame", "count", n)
			}
			c.buf.Reset()
			return nil
		}
	}
}

func (c *Client) abort() {
	c.mgr.Cancel()
	if n := c.buf.Discard(); n > 0 {
		c.log.Debug("discarded partial frame", "count", n)
	}
}

func (c *Client) transmitted(adu []byte, at time.Time) {
	attempt := 1
	if tx, ok := c.mgr.Current(); ok {
		attempt = tx.Attempts + 1
	}
	c.observe(Event{Frame: stream.NewFrame(adu, stream.TX, at), Attempt: attempt})
}

func (c *Client) observe(ev Event) {
	if c.cfg.Observer != nil {
		c.cfg.Observer(ev)
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
