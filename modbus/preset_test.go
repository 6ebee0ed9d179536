package modbus

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const presetsYAML = `
presets:
  - name: temperature
    slave: 1
    function: 3
    address: 0
    quantity: 2
    repeat: 1s
  - name: relay-on
    slave: 4
    function: 5
    address: 16
    values: [1]
`

func TestLoadPresets(t *testing.T) {
	t.Parallel()

	presets, err := LoadPresets(strings.NewReader(presetsYAML))
	require.NoError(t, err)
	require.Len(t, presets, 2)

	temp, err := FindPreset(presets, "Temperature")
	require.NoError(t, err)
	assert.Equal(t, time.Second, temp.Repeat)
	req, err := temp.Request()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x02}, Encode(req)[:6])

	relay, err := FindPreset(presets, "relay-on")
	require.NoError(t, err)
	req, err = relay.Request()
	require.NoError(t, err)
	assert.Equal(t, WriteSingleCoil, req.Function)
	assert.Equal(t, []byte{0x00, 0x10, 0xFF, 0x00}, req.Payload)

	_, err = FindPreset(presets, "missing")
	assert.ErrorIs(t, err, ErrPresetNotFound)
}

func TestLoadPresetsRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"no name", "presets:\n  - slave: 1\n    function: 3\n    quantity: 1\n"},
		{"duplicate", "presets:\n  - {name: a, slave: 1, function: 3, quantity: 1}\n  - {name: A, slave: 1, function: 3, quantity: 1}\n"},
		{"bad quantity", "presets:\n  - {name: a, slave: 1, function: 3, quantity: 0}\n"},
		{"unknown field", "presets:\n  - {name: a, slave: 1, function: 3, quantity: 1, colour: red}\n"},
		{"negative repeat", "presets:\n  - {name: a, slave: 1, function: 3, quantity: 1, repeat: -1s}\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadPresets(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadPresetsEmpty(t *testing.T) {
	t.Parallel()

	presets, err := LoadPresets(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestSavePresetsRoundTrip(t *testing.T) {
	t.Parallel()

	in := []Preset{
		{Name: "poll", Slave: 7, Function: ReadInputRegisters, Address: 100, Quantity: 4, Repeat: 500 * time.Millisecond},
		{Name: "setpoint", Slave: 7, Function: WriteMultipleRegisters, Address: 10, Values: []uint16{1, 2, 3}},
	}

	var buf bytes.Buffer
	require.NoError(t, SavePresets(&buf, in))

	out, err := LoadPresets(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
