package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Port is an open serial line. ReadContext and WriteContext let the
// frame pump and the Modbus client abandon blocked I/O on cancellation.
type Port interface {
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	ReadContext(ctx context.Context, buf []byte) (int, error)
	WriteContext(ctx context.Context, data []byte) (int, error)
	Close() error

	// Drain waits until everything written has left the UART.
	Drain() error
	FlushInput() error
	FlushOutput() error

	Config() Config
	Device() string
}

type port struct {
	mu     sync.RWMutex
	fd     int
	device string
	config Config
	closed bool
}

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone   FlowControl = iota // No flow control
	FlowControlRTSCTS                    // Kernel RTS/CTS handshake
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlRTSCTS:
		return "rtscts"
	}
	return fmt.Sprintf("FlowControl(%d)", int(f))
}

// ParseFlowControl accepts "none" and "rtscts".
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FlowControlNone, nil
	case "rtscts", "rts/cts", "hardware":
		return FlowControlRTSCTS, nil
	}
	return FlowControlNone, fmt.Errorf("%w: flow control %q", ErrInvalidConfig, s)
}

// Parity represents parity checking mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	}
	return fmt.Sprintf("Parity(%d)", int(p))
}

// Letter is the parity as written in "8N1".
func (p Parity) Letter() string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	}
	return "N"
}

// ParseParity accepts none/odd/even or their first letter.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n", "none":
		return ParityNone, nil
	case "o", "odd":
		return ParityOdd, nil
	case "e", "even":
		return ParityEven, nil
	}
	return ParityNone, fmt.Errorf("%w: parity %q", ErrInvalidConfig, s)
}

var baudRates = map[int]uint32{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

// getBaudRate converts an integer baud rate to the termios speed constant
func getBaudRate(rate int) (uint32, error) {
	speed, ok := baudRates[rate]
	if !ok {
		return 0, ErrInvalidBaudRate
	}
	return speed, nil
}

// Open opens a serial port with the given device path and options
func Open(device string, opts ...Option) (Port, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	flags := unix.O_RDWR | unix.O_NOCTTY | unix.O_CLOEXEC
	if config.WriteMode == WriteModeSynced {
		flags |= unix.O_SYNC
	}

	fd, err := unix.Open(device, flags, 0)
	if err != nil {
		return nil, openError(device, err)
	}

	if err := configurePort(fd, config); err != nil {
		unix.Close(fd)
		if errors.Is(err, unix.ENOTTY) {
			return nil, fmt.Errorf("%w: %s", ErrNotSerial, device)
		}
		return nil, err
	}

	return &port{
		fd:     fd,
		device: device,
		config: config,
	}, nil
}

// configurePort puts the line in raw mode with the configured framing
func configurePort(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	termios.Cflag = unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	// VMIN=0 with VTIME returns whatever arrived once the line idles
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = config.vtime()

	baudRate, err := getBaudRate(config.BaudRate)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baudRate
	termios.Ispeed = baudRate
	termios.Ospeed = baudRate

	switch config.DataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	if config.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	switch config.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
		termios.Iflag |= unix.INPCK
	case ParityEven:
		termios.Cflag |= unix.PARENB
		termios.Iflag |= unix.INPCK
	}

	if config.FlowControl == FlowControlRTSCTS {
		termios.Cflag |= unix.CRTSCTS
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}

	// Drop whatever the driver buffered before we owned the line
	return unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH)
}

func (p *port) Config() Config { return p.config }

func (p *port) Device() string { return p.device }

// Close closes the serial port
func (p *port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	p.closed = true
	return unix.Close(p.fd)
}

// Read reads data from the serial port. It returns 0, nil when the read
// timeout passes with the line idle.
func (p *port) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	return readRetry(p.fd, buf)
}

// Write writes data to the serial port
func (p *port) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	return writeAll(p.fd, data)
}

type ioResult struct {
	n   int
	err error
}

// WriteContext writes data with context timeout support
func (p *port) WriteContext(ctx context.Context, data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	resultCh := make(chan ioResult, 1)
	go func() {
		n, err := writeAll(p.fd, data)
		resultCh <- ioResult{n: n, err: err}
	}()

	select {
	case result := <-resultCh:
		return result.n, result.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ReadContext reads data with context timeout support. A read abandoned
// by ctx finishes in the background within the configured read timeout.
func (p *port) ReadContext(ctx context.Context, buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	// Read into a private buffer so an abandoned read cannot write into
	// buf after we return.
	tmp := make([]byte, len(buf))
	resultCh := make(chan ioResult, 1)
	go func() {
		n, err := readRetry(p.fd, tmp)
		resultCh <- ioResult{n: n, err: err}
	}()

	select {
	case result := <-resultCh:
		copy(buf, tmp[:max(result.n, 0)])
		return result.n, result.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Drain waits until all output written to the port has been transmitted
func (p *port) Drain() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCSBRK, 1)
}

// FlushInput discards any unread input data
func (p *port) FlushInput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCIFLUSH)
}

// FlushOutput discards any unwritten output data
func (p *port) FlushOutput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCOFLUSH)
}

func readRetry(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Read(fd, buf)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func writeAll(fd int, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		n, err := unix.Write(fd, data[written:])
		if n > 0 {
			written += n
		}
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
