package models

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	serial "github.com/allbin/go-serialscope"
	"github.com/allbin/go-serialscope/internal/tui/components"
	"github.com/allbin/go-serialscope/monitor"
	"github.com/allbin/go-serialscope/stream"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
	InputModeVisual
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	case InputModeVisual:
		return "VISUAL"
	default:
		return "NORMAL"
	}
}

type ConnectionStatusMsg struct {
	Connected bool
	Error     error
}

// SessionEndedMsg reports that the line stopped delivering data.
type SessionEndedMsg struct {
	Error error
}

// statsInterval is how often the status bar totals are refreshed.
const statsInterval = 250 * time.Millisecond

type SerialModel struct {
	// Serial connection
	port     serial.Port
	portPath string
	session  *monitor.Session

	// State
	connected bool
	ready     bool

	// Input mode (vim-like)
	inputMode InputMode

	// Cancellation and synchronization
	cancel context.CancelFunc
	ctx    context.Context
	mu     sync.RWMutex
}

func NewSerialModel(portPath string, session *monitor.Session) *SerialModel {
	ctx, cancel := context.WithCancel(context.Background())

	return &SerialModel{
		portPath:  portPath,
		session:   session,
		inputMode: InputModeNormal,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect opens the port and runs the session on it until the model's
// context ends, reporting through send. It returns once the session
// stops.
func (m *SerialModel) Connect(send func(tea.Msg), opts ...serial.Option) {
	port, err := serial.Open(m.portPath, opts...)
	if err != nil {
		send(ConnectionStatusMsg{Connected: false, Error: err})
		return
	}
	m.SetPort(port)
	send(ConnectionStatusMsg{Connected: true})

	ctx := m.GetContext()
	go m.reportStats(ctx, send)

	chunks := stream.Pump(ctx, port, stream.DefaultChunkSize)
	err = m.session.Run(ctx, chunks, func(r monitor.Record) {
		send(components.FrameMsg{Record: r})
	})
	if ctx.Err() == nil {
		send(SessionEndedMsg{Error: err})
	}
}

func (m *SerialModel) reportStats(ctx context.Context, send func(tea.Msg)) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			send(components.StatsMsg{Stats: m.session.Stats(), Pending: m.session.Pending()})
		}
	}
}

// Send writes data to the line and records it as a transmitted frame.
func (m *SerialModel) Send(data []byte) error {
	port := m.GetPort()
	if port == nil {
		return serial.ErrPortClosed
	}
	return m.session.Transmit(port, data, time.Now())
}

// ExportCapture writes the session history as YAML to path.
func (m *SerialModel) ExportCapture(path string, withModbus bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	c := m.session.Capture(monitor.CaptureOptions{Port: m.portPath, Modbus: withModbus})
	if err := monitor.Export(f, c); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

func (m *SerialModel) Session() *monitor.Session {
	return m.session
}

func (m *SerialModel) GetPort() serial.Port {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.port
}

func (m *SerialModel) SetPort(port serial.Port) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.port = port
}

func (m *SerialModel) IsConnected() bool {
	return m.connected
}

func (m *SerialModel) SetConnected(connected bool) {
	m.connected = connected
}

func (m *SerialModel) IsReady() bool {
	return m.ready
}

func (m *SerialModel) SetReady(ready bool) {
	m.ready = ready
}

// ClearData empties the session history and totals.
func (m *SerialModel) ClearData() {
	m.session.Clear()
}

func (m *SerialModel) GetInputMode() InputMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode
}

func (m *SerialModel) SetInputMode(mode InputMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputMode = mode
}

func (m *SerialModel) IsInInsertMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode == InputModeInsert
}

func (m *SerialModel) IsInVisualMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode == InputModeVisual
}

func (m *SerialModel) GetContext() context.Context {
	return m.ctx
}

func (m *SerialModel) Cleanup() {
	if m.cancel != nil {
		m.cancel()
	}

	m.mu.Lock()
	if m.port != nil {
		m.port.Close()
		m.port = nil
	}
	m.mu.Unlock()
}
