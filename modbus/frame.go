package modbus

import (
	"fmt"
	"time"

	"github.com/allbin/go-serialscope/crc"
	"github.com/allbin/go-serialscope/stream"
)

const (
	// MinFrameSize is address, function and CRC.
	MinFrameSize = 4
	// MaxFrameSize is the largest RTU ADU.
	MaxFrameSize = 256
	// BroadcastAddress requests are executed by every slave and never
	// answered.
	BroadcastAddress = 0
)

var crc16 = crc.MustNew(crc.CRC16Modbus)

// Checksum returns the Modbus CRC16 of data.
func Checksum(data []byte) uint16 {
	return uint16(crc16.Checksum(data))
}

// Validity is the framing verdict for a decoded frame.
type Validity int

const (
	Ok Validity = iota
	CrcMismatch
	Malformed
	Timeout
)

func (v Validity) String() string {
	switch v {
	case Ok:
		return "ok"
	case CrcMismatch:
		return "crc mismatch"
	case Malformed:
		return "malformed"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("validity(%d)", int(v))
	}
}

// Request is an outgoing Modbus RTU request.
type Request struct {
	SlaveID  byte
	Function FunctionCode
	Payload  []byte
}

// NewRequest copies payload so the request cannot change after it is built.
func NewRequest(slave byte, fn FunctionCode, payload []byte) Request {
	p := make([]byte, len(payload))
	copy(p, payload)
	return Request{SlaveID: slave, Function: fn, Payload: p}
}

// Validate checks that the request can be framed.
func (r Request) Validate() error {
	if r.Function == 0 || r.Function.IsException() {
		return fmt.Errorf("%w: function code 0x%02X", ErrInvalidRequest, byte(r.Function))
	}
	if n := len(r.Payload) + MinFrameSize; n > MaxFrameSize {
		return fmt.Errorf("%w: frame of %d bytes exceeds %d", ErrInvalidRequest, n, MaxFrameSize)
	}
	return nil
}

// IsBroadcast reports whether the request goes to every slave.
func (r Request) IsBroadcast() bool { return r.SlaveID == BroadcastAddress }

// CRC returns the checksum that Encode appends.
func (r Request) CRC() uint16 {
	return Checksum(r.adu())
}

func (r Request) adu() []byte {
	b := make([]byte, 0, len(r.Payload)+MinFrameSize)
	b = append(b, r.SlaveID, byte(r.Function))
	return append(b, r.Payload...)
}

// Encode returns address, function, payload and the CRC low byte first.
func Encode(r Request) []byte {
	b := r.adu()
	sum := Checksum(b)
	return append(b, byte(sum), byte(sum>>8))
}

// EncodeFrame wraps Encode in a transmitted frame stamped ts.
func EncodeFrame(r Request, ts time.Time) stream.Frame {
	return stream.NewFrame(Encode(r), stream.TX, ts)
}

// Response is a decoded frame. Fields are filled as far as the frame
// allowed even when Validity is not Ok, so a display can show them.
type Response struct {
	SlaveID   byte
	Function  FunctionCode
	Payload   []byte
	Exception ExceptionCode
	// CRC is the checksum carried by the frame; Expected is the one
	// computed over its contents.
	CRC      uint16
	Expected uint16
	Validity Validity
	Frame    stream.Frame
}

// IsException reports an Ok exception response.
func (r Response) IsException() bool {
	return r.Validity == Ok && r.Function.IsException()
}

// Err returns an *ExceptionError for exception responses and nil
// otherwise.
func (r Response) Err() error {
	if !r.IsException() {
		return nil
	}
	return &ExceptionError{SlaveID: r.SlaveID, Function: r.Function, Code: r.Exception}
}

// Matches reports whether r is a valid answer to req: same slave and same
// function, ignoring the exception flag.
func (r Response) Matches(req Request) bool {
	return r.Validity == Ok && r.SlaveID == req.SlaveID && r.Function.Base() == req.Function.Base()
}

// Decode checks the framing of f.
func Decode(f stream.Frame) Response {
	resp := DecodeBytes(f.Bytes())
	resp.Frame = f
	return resp
}

// DecodeBytes checks the framing of an RTU ADU.
func DecodeBytes(b []byte) Response {
	var resp Response
	if len(b) > 0 {
		resp.SlaveID = b[0]
	}
	if len(b) > 1 {
		resp.Function = FunctionCode(b[1])
	}
	if len(b) < MinFrameSize || len(b) > MaxFrameSize {
		resp.Validity = Malformed
		return resp
	}

	body := b[:len(b)-2]
	resp.Payload = append([]byte(nil), body[2:]...)
	resp.CRC = uint16(b[len(b)-2]) | uint16(b[len(b)-1])<<8
	resp.Expected = Checksum(body)
	if resp.CRC != resp.Expected {
		resp.Validity = CrcMismatch
		return resp
	}

	if resp.Function.IsException() {
		if len(resp.Payload) != 1 {
			resp.Validity = Malformed
			return resp
		}
		resp.Exception = ExceptionCode(resp.Payload[0])
	}
	resp.Validity = Ok
	return resp
}
