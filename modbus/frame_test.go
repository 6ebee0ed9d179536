package modbus

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-serialscope/stream"
)

func TestEncodeReadHoldingRegisters(t *testing.T) {
	t.Parallel()

	req := NewRequest(1, ReadHoldingRegisters, []byte{0x00, 0x00, 0x00, 0x01})
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01, 0x84, 0x0A}, Encode(req))
	assert.Equal(t, uint16(0x0A84), req.CRC())

	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := EncodeFrame(req, ts)
	assert.Equal(t, stream.TX, f.Direction())
	assert.Equal(t, ts, f.Timestamp())
	assert.Equal(t, Encode(req), f.Bytes())
}

func TestNewRequestCopiesPayload(t *testing.T) {
	t.Parallel()

	payload := []byte{0x00, 0x10, 0x00, 0x02}
	req := NewRequest(1, ReadInputRegisters, payload)
	payload[0] = 0xFF
	assert.Equal(t, byte(0x00), req.Payload[0])
}

func TestDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  Request
	}{
		{"read holding", NewRequest(1, ReadHoldingRegisters, []byte{0x00, 0x00, 0x00, 0x01})},
		{"write single", NewRequest(17, WriteSingleRegister, []byte{0x00, 0x01, 0x00, 0x03})},
		{"empty payload", NewRequest(247, ReportServerID, nil)},
		{"register data", NewRequest(2, ReadHoldingRegisters, []byte{0x04, 0x12, 0x34, 0xAB, 0xCD})},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := DecodeBytes(Encode(tt.req))
			require.Equal(t, Ok, resp.Validity)
			assert.Equal(t, tt.req.SlaveID, resp.SlaveID)
			assert.Equal(t, tt.req.Function, resp.Function)
			assert.Equal(t, len(tt.req.Payload), len(resp.Payload))
			if len(tt.req.Payload) > 0 {
				assert.Equal(t, tt.req.Payload, resp.Payload)
			}
			assert.Equal(t, resp.Expected, resp.CRC)
			assert.True(t, resp.Matches(tt.req))
		})
	}
}

func TestDecodeDetectsEverySingleBitFlip(t *testing.T) {
	t.Parallel()

	adu := Encode(NewRequest(1, WriteMultipleRegisters, []byte{0x00, 0x01, 0x00, 0x02, 0x04, 0x00, 0x0A, 0x01, 0x02}))
	for i := 0; i < len(adu)*8; i++ {
		corrupt := append([]byte(nil), adu...)
		corrupt[i/8] ^= 1 << uint(i%8)
		resp := DecodeBytes(corrupt)
		assert.Equal(t, CrcMismatch, resp.Validity, "bit %d", i)
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	long := Encode(NewRequest(1, WriteMultipleRegisters, make([]byte, MaxFrameSize-4)))
	require.Len(t, long, MaxFrameSize)
	long = append(long, 0x00)

	tests := []struct {
		name string
		adu  []byte
	}{
		{"empty", nil},
		{"one byte", []byte{0x01}},
		{"three bytes", []byte{0x01, 0x03, 0x00}},
		{"too long", long},
		{"exception without code", Encode(NewRequest(1, ReadHoldingRegisters|ExceptionFlag, nil))},
		{"exception with two bytes", Encode(NewRequest(1, ReadHoldingRegisters|ExceptionFlag, []byte{0x02, 0x00}))},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, Malformed, DecodeBytes(tt.adu).Validity)
		})
	}
}

func TestDecodeMinimalFrame(t *testing.T) {
	t.Parallel()

	adu := Encode(NewRequest(5, ReadExceptionStatus, nil))
	require.Len(t, adu, MinFrameSize)
	resp := DecodeBytes(adu)
	assert.Equal(t, Ok, resp.Validity)
	assert.Empty(t, resp.Payload)
}

func TestDecodeException(t *testing.T) {
	t.Parallel()

	resp := DecodeBytes(Encode(NewRequest(1, ReadHoldingRegisters|ExceptionFlag, []byte{byte(IllegalDataAddress)})))
	require.Equal(t, Ok, resp.Validity)
	assert.True(t, resp.IsException())
	assert.Equal(t, IllegalDataAddress, resp.Exception)
	assert.True(t, resp.Matches(NewRequest(1, ReadHoldingRegisters, nil)))
	assert.False(t, resp.Matches(NewRequest(2, ReadHoldingRegisters, nil)))
	assert.False(t, resp.Matches(NewRequest(1, ReadInputRegisters, nil)))

	var exc *ExceptionError
	require.True(t, errors.As(resp.Err(), &exc))
	assert.Equal(t, byte(1), exc.SlaveID)
	assert.Equal(t, IllegalDataAddress, exc.Code)
	assert.Contains(t, exc.Error(), "Illegal Data Address")
}

func TestDecodeKeepsFrame(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f := stream.NewFrame(Encode(NewRequest(1, ReadCoils, []byte{0x01, 0x05})), stream.RX, ts)
	resp := Decode(f)
	assert.Equal(t, Ok, resp.Validity)
	assert.Equal(t, ts, resp.Frame.Timestamp())
	assert.Equal(t, f.Bytes(), resp.Frame.Bytes())
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewRequest(1, ReadCoils, []byte{0, 0, 0, 1}).Validate())
	assert.ErrorIs(t, NewRequest(1, 0, nil).Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, NewRequest(1, ReadCoils|ExceptionFlag, nil).Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, NewRequest(1, WriteMultipleRegisters, make([]byte, MaxFrameSize)).Validate(), ErrInvalidRequest)
}

func TestFunctionAndExceptionNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0x03 Read Holding Registers", ReadHoldingRegisters.String())
	assert.Equal(t, "0x83 Read Holding Registers (exception)", (ReadHoldingRegisters | ExceptionFlag).String())
	assert.Equal(t, "0x42 Unknown Function", FunctionCode(0x42).String())
	assert.Equal(t, "Server Device Busy", ServerDeviceBusy.String())
	assert.Equal(t, "Unknown Exception 0x09", ExceptionCode(0x09).String())
}

// The reference RTU packager from goburrow/modbus must agree with our
// framing in both directions.
func TestCodecMatchesReferencePackager(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		slave := byte(1 + rng.Intn(247))
		fn := FunctionCode(1 + rng.Intn(0x7F))
		data := make([]byte, rng.Intn(64))
		rng.Read(data)

		handler := modbus.NewRTUClientHandler("/dev/null")
		handler.SlaveId = slave

		want, err := handler.Encode(&modbus.ProtocolDataUnit{FunctionCode: byte(fn), Data: data})
		require.NoError(t, err)
		assert.Equal(t, want, Encode(NewRequest(slave, fn, data)))

		pdu, err := handler.Decode(Encode(NewRequest(slave, fn, data)))
		require.NoError(t, err)
		assert.Equal(t, byte(fn), pdu.FunctionCode)
		assert.Equal(t, len(data), len(pdu.Data))
	}
}
