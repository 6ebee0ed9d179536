package modbus

import (
	"encoding/binary"
	"fmt"
)

// Quantity limits from the Modbus application protocol.
const (
	MaxReadBits       = 2000
	MaxReadRegisters  = 125
	MaxWriteBits      = 1968
	MaxWriteRegisters = 123
)

const (
	coilOn  = 0xFF00
	coilOff = 0x0000
)

func checkQuantity(fn FunctionCode, qty, max int) error {
	if qty < 1 || qty > max {
		return fmt.Errorf("%w: %s quantity %d outside 1..%d", ErrInvalidRequest, fn, qty, max)
	}
	return nil
}

func addressQuantity(address, qty uint16) []byte {
	p := make([]byte, 4)
	binary.BigEndian.PutUint16(p[0:], address)
	binary.BigEndian.PutUint16(p[2:], qty)
	return p
}

func readRequest(slave byte, fn FunctionCode, address, qty uint16, max int) (Request, error) {
	if err := checkQuantity(fn, int(qty), max); err != nil {
		return Request{}, err
	}
	return Request{SlaveID: slave, Function: fn, Payload: addressQuantity(address, qty)}, nil
}

// NewReadCoils builds a function 0x01 request.
func NewReadCoils(slave byte, address, qty uint16) (Request, error) {
	return readRequest(slave, ReadCoils, address, qty, MaxReadBits)
}

// NewReadDiscreteInputs builds a function 0x02 request.
func NewReadDiscreteInputs(slave byte, address, qty uint16) (Request, error) {
	return readRequest(slave, ReadDiscreteInputs, address, qty, MaxReadBits)
}

// NewReadHoldingRegisters builds a function 0x03 request.
func NewReadHoldingRegisters(slave byte, address, qty uint16) (Request, error) {
	return readRequest(slave, ReadHoldingRegisters, address, qty, MaxReadRegisters)
}

// NewReadInputRegisters builds a function 0x04 request.
func NewReadInputRegisters(slave byte, address, qty uint16) (Request, error) {
	return readRequest(slave, ReadInputRegisters, address, qty, MaxReadRegisters)
}

// NewWriteSingleCoil builds a function 0x05 request.
func NewWriteSingleCoil(slave byte, address uint16, on bool) Request {
	value := uint16(coilOff)
	if on {
		value = coilOn
	}
	return Request{SlaveID: slave, Function: WriteSingleCoil, Payload: addressQuantity(address, value)}
}

// NewWriteSingleRegister builds a function 0x06 request.
func NewWriteSingleRegister(slave byte, address, value uint16) Request {
	return Request{SlaveID: slave, Function: WriteSingleRegister, Payload: addressQuantity(address, value)}
}

// NewWriteMultipleCoils builds a function 0x0F request. Coils are packed
// least significant bit first.
func NewWriteMultipleCoils(slave byte, address uint16, values []bool) (Request, error) {
	if err := checkQuantity(WriteMultipleCoils, len(values), MaxWriteBits); err != nil {
		return Request{}, err
	}
	packed := PackBits(values)
	p := addressQuantity(address, uint16(len(values)))
	p = append(p, byte(len(packed)))
	p = append(p, packed...)
	return Request{SlaveID: slave, Function: WriteMultipleCoils, Payload: p}, nil
}

// NewWriteMultipleRegisters builds a function 0x10 request.
func NewWriteMultipleRegisters(slave byte, address uint16, values []uint16) (Request, error) {
	if err := checkQuantity(WriteMultipleRegisters, len(values), MaxWriteRegisters); err != nil {
		return Request{}, err
	}
	p := addressQuantity(address, uint16(len(values)))
	p = append(p, byte(len(values)*2))
	p = append(p, PackRegisters(values)...)
	return Request{SlaveID: slave, Function: WriteMultipleRegisters, Payload: p}, nil
}

// Build constructs a request for the common function codes from the
// address/quantity/values form used by the terminal. For single writes
// values[0] is the value; for coil functions any non-zero value is on.
func Build(slave byte, fn FunctionCode, address, qty uint16, values []uint16) (Request, error) {
	switch fn {
	case ReadCoils:
		return NewReadCoils(slave, address, qty)
	case ReadDiscreteInputs:
		return NewReadDiscreteInputs(slave, address, qty)
	case ReadHoldingRegisters:
		return NewReadHoldingRegisters(slave, address, qty)
	case ReadInputRegisters:
		return NewReadInputRegisters(slave, address, qty)
	case WriteSingleCoil:
		if len(values) != 1 {
			return Request{}, fmt.Errorf("%w: %s takes exactly one value", ErrInvalidRequest, fn)
		}
		return NewWriteSingleCoil(slave, address, values[0] != 0), nil
	case WriteSingleRegister:
		if len(values) != 1 {
			return Request{}, fmt.Errorf("%w: %s takes exactly one value", ErrInvalidRequest, fn)
		}
		return NewWriteSingleRegister(slave, address, values[0]), nil
	case WriteMultipleCoils:
		bits := make([]bool, len(values))
		for i, v := range values {
			bits[i] = v != 0
		}
		return NewWriteMultipleCoils(slave, address, bits)
	case WriteMultipleRegisters:
		return NewWriteMultipleRegisters(slave, address, values)
	default:
		return Request{}, fmt.Errorf("%w: no builder for %s", ErrInvalidRequest, fn)
	}
}

// PackBits packs bools least significant bit first.
func PackBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// UnpackBits expands the first n bits of packed, least significant bit
// first.
func UnpackBits(packed []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n && i/8 < len(packed); i++ {
		out[i] = packed[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}

// PackRegisters lays out registers big endian.
func PackRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[i*2:], r)
	}
	return out
}

// UnpackRegisters reads big endian registers.
func UnpackRegisters(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(b[i*2:])
	}
	return out
}

func (r Response) usable(fns ...FunctionCode) error {
	if r.Validity != Ok {
		return fmt.Errorf("%w: %s", ErrInvalidResponse, r.Validity)
	}
	if err := r.Err(); err != nil {
		return err
	}
	for _, fn := range fns {
		if r.Function == fn {
			return nil
		}
	}
	return fmt.Errorf("%w: unexpected %s", ErrInvalidResponse, r.Function)
}

func (r Response) byteCounted() ([]byte, error) {
	if len(r.Payload) < 1 || int(r.Payload[0]) != len(r.Payload)-1 {
		return nil, fmt.Errorf("%w: byte count does not match payload", ErrInvalidResponse)
	}
	return r.Payload[1:], nil
}

// Bits decodes a read coils or read discrete inputs response into qty
// values.
func (r Response) Bits(qty int) ([]bool, error) {
	if err := r.usable(ReadCoils, ReadDiscreteInputs); err != nil {
		return nil, err
	}
	data, err := r.byteCounted()
	if err != nil {
		return nil, err
	}
	if len(data)*8 < qty {
		return nil, fmt.Errorf("%w: %d bytes cannot hold %d bits", ErrInvalidResponse, len(data), qty)
	}
	return UnpackBits(data, qty), nil
}

// Registers decodes a register read response.
func (r Response) Registers() ([]uint16, error) {
	if err := r.usable(ReadHoldingRegisters, ReadInputRegisters, ReadWriteRegisters); err != nil {
		return nil, err
	}
	data, err := r.byteCounted()
	if err != nil {
		return nil, err
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: odd register byte count %d", ErrInvalidResponse, len(data))
	}
	return UnpackRegisters(data), nil
}

// Echo decodes the address and value/quantity echoed by write responses.
func (r Response) Echo() (address, value uint16, err error) {
	if err := r.usable(WriteSingleCoil, WriteSingleRegister, WriteMultipleCoils, WriteMultipleRegisters); err != nil {
		return 0, 0, err
	}
	if len(r.Payload) != 4 {
		return 0, 0, fmt.Errorf("%w: write echo of %d bytes", ErrInvalidResponse, len(r.Payload))
	}
	return binary.BigEndian.Uint16(r.Payload[0:]), binary.BigEndian.Uint16(r.Payload[2:]), nil
}
