package modbus

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allbin/go-serialscope/stream"
)

// State of a transaction.
type State int

const (
	Idle State = iota
	AwaitingResponse
	Completed
	TimedOut
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting response"
	case Completed:
		return "completed"
	case TimedOut:
		return "timed out"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transaction is the request currently on the line.
type Transaction struct {
	Request  Request
	State    State
	Attempts int
	Deadline time.Time
}

// Result is the terminal outcome of a transaction. State is Completed,
// TimedOut or Cancelled. Err is nil for Completed, including exception
// responses; use Response.Err for those.
type Result struct {
	Request  Request
	Response Response
	State    State
	Attempts int
	Err      error
}

// Manager runs the single-flight request/response state machine for one
// serial line. It never blocks and never reads the clock: callers pass the
// current time in and feed it frames, which keeps it deterministic. A
// Manager is owned by one goroutine; only Counters may be read elsewhere.
type Manager struct {
	cfg      Config
	sink     io.Writer
	state    State
	tx       Transaction
	adu      []byte
	counters Counters
	log      *slog.Logger

	onTransmit func(adu []byte, at time.Time)
}

// NewManager returns an idle manager writing requests to sink.
func NewManager(sink io.Writer, opts ...Option) (*Manager, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return newManager(sink, cfg), nil
}

func newManager(sink io.Writer, cfg Config) *Manager {
	return &Manager{
		cfg:  cfg,
		sink: sink,
		log:  cfg.Logger.With("component", "modbus"),
	}
}

// State is Idle or AwaitingResponse. Completed, TimedOut and Cancelled are
// reported through Result as the manager returns to Idle.
func (m *Manager) State() State { return m.state }

// Current returns the outstanding transaction, if any.
func (m *Manager) Current() (Transaction, bool) {
	if m.state != AwaitingResponse {
		return Transaction{}, false
	}
	return m.tx, true
}

// Deadline is when the current attempt expires.
func (m *Manager) Deadline() (time.Time, bool) {
	if m.state != AwaitingResponse {
		return time.Time{}, false
	}
	return m.tx.Deadline, true
}

// Counters returns the manager's statistics.
func (m *Manager) Counters() *Counters { return &m.counters }

// Submit encodes req, writes it to the sink and starts waiting. It fails
// with ErrBusy, leaving the outstanding transaction untouched, while a
// response is awaited. Broadcast requests are written and the manager
// stays Idle since no slave answers them.
func (m *Manager) Submit(req Request, now time.Time) error {
	if m.state == AwaitingResponse {
		m.counters.Inc(CntBusy)
		return ErrBusy
	}
	if err := req.Validate(); err != nil {
		return err
	}

	req = NewRequest(req.SlaveID, req.Function, req.Payload)
	adu := Encode(req)
	if err := m.transmit(adu, now); err != nil {
		return err
	}
	m.counters.Inc(CntRequests)

	if req.IsBroadcast() {
		m.log.Debug("broadcast sent", "function", req.Function)
		return nil
	}

	m.adu = adu
	m.tx = Transaction{
		Request:  req,
		State:    AwaitingResponse,
		Attempts: 1,
		Deadline: now.Add(m.cfg.Timeout),
	}
	m.state = AwaitingResponse
	m.log.Debug("request sent", "slave", req.SlaveID, "function", req.Function, "deadline", m.cfg.Timeout)
	return nil
}

// HandleFrame offers a completed frame to the outstanding transaction.
// Transmitted frames, frames that fail framing checks and frames from
// another slave or function are discarded and the manager keeps waiting.
func (m *Manager) HandleFrame(f stream.Frame) (Result, bool) {
	if m.state != AwaitingResponse || f.Direction() != stream.RX {
		return Result{}, false
	}

	resp := Decode(f)
	switch {
	case resp.Validity == CrcMismatch:
		m.counters.Inc(CntCRCErrors)
		m.log.Debug("discarding frame", "reason", resp.Validity, "crc", resp.CRC, "expected", resp.Expected)
		return Result{}, false
	case resp.Validity != Ok:
		m.counters.Inc(CntMalformed)
		m.log.Debug("discarding frame", "reason", resp.Validity, "length", f.Len())
		return Result{}, false
	case !resp.Matches(m.tx.Request):
		m.counters.Inc(CntUnexpected)
		m.log.Debug("discarding frame", "reason", "unexpected", "slave", resp.SlaveID, "function", resp.Function)
		return Result{}, false
	}

	m.counters.Inc(CntResponses)
	if resp.IsException() {
		m.counters.Inc(CntExceptions)
	}
	return m.finish(Completed, resp, nil), true
}

// Tick expires the current attempt once now reaches its deadline. The
// same bytes are resent while retries remain; after the last attempt the
// transaction ends with ErrTimeout.
func (m *Manager) Tick(now time.Time) (Result, bool) {
	if m.state != AwaitingResponse || now.Before(m.tx.Deadline) {
		return Result{}, false
	}

	m.tx.State = TimedOut
	m.counters.Inc(CntTimeouts)
	if m.tx.Attempts > m.cfg.Retries {
		m.log.Debug("transaction timed out", "slave", m.tx.Request.SlaveID, "attempts", m.tx.Attempts)
		return m.finish(TimedOut, Response{
			SlaveID:  m.tx.Request.SlaveID,
			Function: m.tx.Request.Function,
			Validity: Timeout,
		}, ErrTimeout), true
	}

	if err := m.transmit(m.adu, now); err != nil {
		return m.finish(TimedOut, Response{Validity: Timeout}, err), true
	}
	m.counters.Inc(CntRetries)
	m.tx.Attempts++
	m.tx.State = AwaitingResponse
	m.tx.Deadline = now.Add(m.cfg.Timeout)
	m.log.Debug("retrying request", "slave", m.tx.Request.SlaveID, "attempt", m.tx.Attempts)
	return Result{}, false
}

// Cancel abandons the outstanding transaction without retrying.
func (m *Manager) Cancel() (Result, bool) {
	if m.state != AwaitingResponse {
		return Result{}, false
	}
	m.counters.Inc(CntCancelled)
	m.log.Debug("transaction cancelled", "slave", m.tx.Request.SlaveID, "attempts", m.tx.Attempts)
	return m.finish(Cancelled, Response{}, ErrCancelled), true
}

func (m *Manager) transmit(adu []byte, now time.Time) error {
	if _, err := m.sink.Write(adu); err != nil {
		return fmt.Errorf("modbus: write request: %w", err)
	}
	if m.onTransmit != nil {
		m.onTransmit(adu, now)
	}
	return nil
}

func (m *Manager) finish(state State, resp Response, err error) Result {
	res := Result{
		Request:  m.tx.Request,
		Response: resp,
		State:    state,
		Attempts: m.tx.Attempts,
		Err:      err,
	}
	m.tx = Transaction{}
	m.adu = nil
	m.state = Idle
	return res
}
