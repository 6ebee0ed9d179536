package modbus

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a request is submitted while another one
	// is still awaiting its response.
	ErrBusy = errors.New("modbus: transaction in progress")
	// ErrTimeout is the terminal failure after every attempt went
	// unanswered.
	ErrTimeout = errors.New("modbus: no response")
	// ErrCancelled ends a transaction that was abandoned by its caller.
	ErrCancelled = errors.New("modbus: transaction cancelled")
	// ErrInvalidRequest reports a request that cannot be encoded.
	ErrInvalidRequest = errors.New("modbus: invalid request")
	// ErrInvalidResponse reports a response whose payload does not match
	// its function code.
	ErrInvalidResponse = errors.New("modbus: invalid response")
	// ErrInvalidConfig reports an option outside its allowed range.
	ErrInvalidConfig = errors.New("modbus: invalid configuration")
	// ErrClosed is returned by a Client after Close.
	ErrClosed = errors.New("modbus: client closed")
	// ErrPresetNotFound is returned when a named preset does not exist.
	ErrPresetNotFound = errors.New("modbus: preset not found")
)

// ExceptionError is an exception response from a server.
type ExceptionError struct {
	SlaveID  byte
	Function FunctionCode
	Code     ExceptionCode
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus: slave %d exception 0x%02X (%s) for function 0x%02X",
		e.SlaveID, byte(e.Code), e.Code, byte(e.Function.Base()))
}
