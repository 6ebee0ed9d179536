package serial

import (
	"errors"
	"testing"
	"time"
)

func TestReadTimeoutVTime(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		vtime   uint8
		wantErr bool
	}{
		{"non-blocking", 0, 0, false},
		{"default 100ms", 100 * time.Millisecond, 1, false},
		{"frame gap scale 300ms", 300 * time.Millisecond, 3, false},
		{"max", MaxReadTimeout, 255, false},
		{"not a multiple of 100ms", 150 * time.Millisecond, 0, true},
		{"sub-millisecond", 250 * time.Nanosecond, 0, true},
		{"over max", MaxReadTimeout + 100*time.Millisecond, 0, true},
		{"negative", -100 * time.Millisecond, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithReadTimeout(tt.timeout)(&config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WithReadTimeout(%v) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v is not ErrInvalidConfig", err)
				}
				if config.ReadTimeout != DefaultConfig().ReadTimeout {
					t.Errorf("rejected timeout changed ReadTimeout to %v", config.ReadTimeout)
				}
				return
			}
			if got := config.vtime(); got != tt.vtime {
				t.Errorf("vtime() = %d, want %d", got, tt.vtime)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	tests := []struct {
		opts []Option
		want string
	}{
		{nil, "115200 8N1"},
		{[]Option{WithBaudRate(9600), WithParity(ParityEven)}, "9600 8E1"},
		{[]Option{WithBaudRate(19200), WithDataBits(7), WithParity(ParityOdd), WithStopBits(2)}, "19200 7O2"},
	}

	for _, tt := range tests {
		config := DefaultConfig()
		for _, opt := range tt.opts {
			if err := opt(&config); err != nil {
				t.Fatalf("option error = %v", err)
			}
		}
		if got := config.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseFlowControl(t *testing.T) {
	for in, want := range map[string]FlowControl{
		"":         FlowControlNone,
		"none":     FlowControlNone,
		"RTSCTS":   FlowControlRTSCTS,
		"hardware": FlowControlRTSCTS,
	} {
		got, err := ParseFlowControl(in)
		if err != nil || got != want {
			t.Errorf("ParseFlowControl(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFlowControl("xonxoff"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseFlowControl(xonxoff) error = %v, want ErrInvalidConfig", err)
	}
}

func TestWriteModeOptions(t *testing.T) {
	config := DefaultConfig()
	if config.WriteMode != WriteModeBuffered {
		t.Fatalf("default WriteMode = %v, want buffered", config.WriteMode)
	}
	if err := WithSyncWrite()(&config); err != nil {
		t.Fatal(err)
	}
	if config.WriteMode != WriteModeSynced {
		t.Errorf("WithSyncWrite left WriteMode = %v", config.WriteMode)
	}
	if err := WithWriteMode(WriteModeBuffered)(&config); err != nil || config.WriteMode != WriteModeBuffered {
		t.Errorf("WithWriteMode(buffered) = %v, %v", config.WriteMode, err)
	}
}
