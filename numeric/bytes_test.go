package numeric

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	data := []byte{0x01, 0x41, 0x7F, 0xFF}
	tests := []struct {
		format Format
		want   string
	}{
		{FormatHex, "01 41 7F FF"},
		{FormatDecimal, "1 65 127 255"},
		{FormatOctal, "001 101 177 377"},
		{FormatBinary, "00000001 01000001 01111111 11111111"},
		{FormatASCII, ".A.."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.format.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatBytes(data, tt.format))
		})
	}
}

func TestParseBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		format  Format
		want    []byte
		wantErr bool
	}{
		{"hex spaced", "01 03 00 00", FormatHex, []byte{0x01, 0x03, 0x00, 0x00}, false},
		{"hex prefixed", "0x01,0x0A, 0xff", FormatHex, []byte{0x01, 0x0A, 0xFF}, false},
		{"hex packed", "DEADbeef", FormatHex, []byte{0xDE, 0xAD, 0xBE, 0xEF}, false},
		{"hex odd", "ABC", FormatHex, nil, true},
		{"hex junk", "GG", FormatHex, nil, true},
		{"decimal mixed separators", "1, 2;3  255", FormatDecimal, []byte{1, 2, 3, 255}, false},
		{"decimal overflow", "256", FormatDecimal, nil, true},
		{"octal", "001 377", FormatOctal, []byte{1, 255}, false},
		{"binary groups", "1 00000010", FormatBinary, []byte{1, 2}, false},
		{"binary run", "0000000100000010", FormatBinary, []byte{1, 2}, false},
		{"binary short run padded", "100000001", FormatBinary, []byte{1, 1}, false},
		{"binary junk", "102", FormatBinary, nil, true},
		{"ascii", "AT\r", FormatASCII, []byte("AT\r"), false},
		{"empty hex", "", FormatHex, []byte{}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseBytes(tt.in, tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatASCII, f)

	f, err = ParseFormat("HEX")
	require.NoError(t, err)
	assert.Equal(t, FormatHex, f)

	_, err = ParseFormat("base64")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLineEnding(t *testing.T) {
	t.Parallel()

	le, err := ParseLineEnding("crlf")
	require.NoError(t, err)
	assert.Equal(t, []byte("AT\r\n"), le.Append([]byte("AT")))

	le, err = ParseLineEnding("none")
	require.NoError(t, err)
	assert.Equal(t, []byte("AT"), le.Append([]byte("AT")))

	_, err = ParseLineEnding("lfcr")
	assert.Error(t, err)
}

func TestHexDump(t *testing.T) {
	t.Parallel()

	data := []byte("Hello, serial world!")
	dump := HexDump(data)
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "00000000  48 65 6C 6C 6F 2C 20 73 65 72 69 61 6C 20 77 6F  Hello, serial wo", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "00000010  72 6C 64 21 "))
	assert.True(t, strings.HasSuffix(lines[1], "  rld!"))
	assert.Equal(t, len(lines[0])-12, len(lines[1]), "ascii column should stay aligned")
}

func TestBinaryDump(t *testing.T) {
	t.Parallel()

	dump := BinaryDump([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8})
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "00000008  00001000", lines[1])
}

func TestIndex(t *testing.T) {
	t.Parallel()

	data := []byte("abcABCabc\xffab")
	assert.Equal(t, []int{0, 6}, Index(data, []byte("abc"), true))
	assert.Equal(t, []int{0, 3, 6}, Index(data, []byte("ABC"), false))
	assert.Equal(t, []int{9}, Index(data, []byte{0xFF}, true))
	assert.Nil(t, Index(data, nil, true))

	assert.Equal(t, []int{0, 1, 2}, Index([]byte{0xAA, 0xAA, 0xAA, 0xAA}, []byte{0xAA, 0xAA}, true))
}

func TestParsePattern(t *testing.T) {
	t.Parallel()

	p, err := ParsePattern("0x0A84")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A, 0x84}, p)

	p, err = ParsePattern("OK")
	require.NoError(t, err)
	assert.Equal(t, []byte("OK"), p)

	_, err = ParsePattern("  ")
	assert.Error(t, err)
}
