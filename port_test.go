package serial

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", config.BaudRate)
	}
	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}
	if config.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", config.StopBits)
	}
	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}
	if config.FlowControl != FlowControlNone {
		t.Errorf("Expected FlowControl None, got %v", config.FlowControl)
	}
	if config.ReadTimeout != 100*time.Millisecond {
		t.Errorf("Expected ReadTimeout 100ms, got %v", config.ReadTimeout)
	}
	if got := config.String(); got != "115200 8N1" {
		t.Errorf("String() = %q, want 115200 8N1", got)
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	if err := WithBaudRate(9600)(&config); err != nil {
		t.Errorf("WithBaudRate failed: %v", err)
	}
	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	if err := WithDataBits(7)(&config); err != nil {
		t.Errorf("WithDataBits failed: %v", err)
	}
	if config.DataBits != 7 {
		t.Errorf("Expected DataBits 7, got %d", config.DataBits)
	}

	if err := WithStopBits(2)(&config); err != nil {
		t.Errorf("WithStopBits failed: %v", err)
	}
	if config.StopBits != 2 {
		t.Errorf("Expected StopBits 2, got %d", config.StopBits)
	}

	if err := WithParity(ParityEven)(&config); err != nil {
		t.Errorf("WithParity failed: %v", err)
	}
	if config.Parity != ParityEven {
		t.Errorf("Expected Parity Even, got %v", config.Parity)
	}

	if err := WithFlowControl(FlowControlRTSCTS)(&config); err != nil {
		t.Errorf("WithFlowControl failed: %v", err)
	}
	if config.FlowControl != FlowControlRTSCTS {
		t.Errorf("Expected FlowControl RTSCTS, got %v", config.FlowControl)
	}

	if got := config.String(); got != "9600 7E2" {
		t.Errorf("String() = %q, want 9600 7E2", got)
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"baud", WithBaudRate(123456), ErrInvalidBaudRate},
		{"data bits", WithDataBits(9), ErrInvalidConfig},
		{"stop bits", WithStopBits(3), ErrInvalidConfig},
		{"parity", WithParity(Parity(7)), ErrInvalidConfig},
		{"flow control", WithFlowControl(FlowControl(5)), ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := tt.opt(&config)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if config != DefaultConfig() {
				t.Errorf("config modified by rejected option: %+v", config)
			}
		})
	}
}

func TestConfigTiming(t *testing.T) {
	config := DefaultConfig()
	_ = WithBaudRate(9600)(&config)

	rtu := config.Timing(true)
	if rtu.CharBits() != 11 {
		t.Errorf("RTU 8N1 char bits = %d, want 11", rtu.CharBits())
	}
	if got := rtu.Silence(); got != 4010416*time.Nanosecond {
		t.Errorf("RTU silence at 9600 = %v", got)
	}

	plain := config.Timing(false)
	if plain.CharBits() != 10 {
		t.Errorf("8N1 char bits = %d, want 10", plain.CharBits())
	}

	_ = WithParity(ParityOdd)(&config)
	if !config.Timing(true).Parity || config.Timing(true).CharBits() != 11 {
		t.Errorf("8O1 timing = %+v", config.Timing(true))
	}
}

func TestParseParity(t *testing.T) {
	tests := []struct {
		in      string
		want    Parity
		wantErr bool
	}{
		{"", ParityNone, false},
		{"N", ParityNone, false},
		{"none", ParityNone, false},
		{"odd", ParityOdd, false},
		{"E", ParityEven, false},
		{"mark", ParityNone, true},
	}
	for _, tt := range tests {
		got, err := ParseParity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseParity(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseParity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFlowControl("xonxoff"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseFlowControl(xonxoff) = %v", err)
	}
	if fc, _ := ParseFlowControl("RTSCTS"); fc != FlowControlRTSCTS {
		t.Errorf("ParseFlowControl(RTSCTS) = %v", fc)
	}
}

func TestGetBaudRate(t *testing.T) {
	tests := []struct {
		input    int
		hasError bool
	}{
		{115200, false},
		{9600, false},
		{57600, false},
		{123456, true},
	}

	for _, test := range tests {
		result, err := getBaudRate(test.input)
		if test.hasError {
			if err != ErrInvalidBaudRate {
				t.Errorf("Expected ErrInvalidBaudRate for %d, got %v", test.input, err)
			}
		} else {
			if err != nil {
				t.Errorf("Unexpected error for baud rate %d: %v", test.input, err)
			}
			if result == 0 {
				t.Errorf("Got zero result for valid baud rate %d", test.input)
			}
		}
	}
}

func TestOpenNonExistentDevice(t *testing.T) {
	_, err := Open("/dev/nonexistent")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestOpenNotSerial(t *testing.T) {
	_, err := Open("/dev/null")
	if err == nil {
		t.Fatal("Expected error when opening /dev/null")
	}
	if errors.Is(err, ErrPermissionDenied) {
		t.Skip("no access to /dev/null")
	}
	if !errors.Is(err, ErrNotSerial) {
		t.Errorf("Expected ErrNotSerial, got %v", err)
	}
}

func TestOpenRejectsOptions(t *testing.T) {
	_, err := Open("/dev/null", WithBaudRate(1))
	if err != ErrInvalidBaudRate {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}

func TestContextExpired(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &port{fd: -1}

	buf := make([]byte, 10)
	if _, err := p.ReadContext(ctx, buf); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadContext = %v, want context.Canceled", err)
	}
	if _, err := p.WriteContext(ctx, []byte("test")); !errors.Is(err, context.Canceled) {
		t.Errorf("WriteContext = %v, want context.Canceled", err)
	}
}

func TestClosedPort(t *testing.T) {
	p := &port{fd: -1, closed: true}

	if _, err := p.Read(make([]byte, 1)); err != ErrPortClosed {
		t.Errorf("Read = %v", err)
	}
	if _, err := p.Write([]byte{1}); err != ErrPortClosed {
		t.Errorf("Write = %v", err)
	}
	if _, err := p.ReadContext(context.Background(), make([]byte, 1)); err != ErrPortClosed {
		t.Errorf("ReadContext = %v", err)
	}
	if err := p.Drain(); err != ErrPortClosed {
		t.Errorf("Drain = %v", err)
	}
	if err := p.FlushInput(); err != ErrPortClosed {
		t.Errorf("FlushInput = %v", err)
	}
	if err := p.FlushOutput(); err != ErrPortClosed {
		t.Errorf("FlushOutput = %v", err)
	}
	if err := p.Close(); err != ErrPortClosed {
		t.Errorf("Close = %v", err)
	}
}
