package numeric

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// HexBytesPerLine is the width of a hex dump row.
	HexBytesPerLine = 16
	// BinaryBytesPerLine is the width of a binary dump row.
	BinaryBytesPerLine = 8
)

// DumpLine is one row of a dump: the bytes starting at Offset.
type DumpLine struct {
	Offset int
	Bytes  []byte
}

// Lines splits data into rows of perLine bytes. The rows share data's
// backing array.
func Lines(data []byte, perLine int) []DumpLine {
	if perLine <= 0 {
		perLine = HexBytesPerLine
	}
	lines := make([]DumpLine, 0, (len(data)+perLine-1)/perLine)
	for off := 0; off < len(data); off += perLine {
		end := min(off+perLine, len(data))
		lines = append(lines, DumpLine{Offset: off, Bytes: data[off:end]})
	}
	return lines
}

// HexDump renders data as "OFFSET  HEX...  ASCII" rows with an eight digit
// uppercase offset. Short final rows are padded so the ASCII column lines up.
func HexDump(data []byte) string {
	var sb strings.Builder
	for _, line := range Lines(data, HexBytesPerLine) {
		hex := FormatBytes(line.Bytes, FormatHex)
		fmt.Fprintf(&sb, "%08X  %-*s  %s\n", line.Offset, HexBytesPerLine*3-1, hex, FormatBytes(line.Bytes, FormatASCII))
	}
	return sb.String()
}

// BinaryDump renders data as "OFFSET  BITS..." rows of eight bytes.
func BinaryDump(data []byte) string {
	var sb strings.Builder
	for _, line := range Lines(data, BinaryBytesPerLine) {
		fmt.Fprintf(&sb, "%08X  %s\n", line.Offset, FormatBytes(line.Bytes, FormatBinary))
	}
	return sb.String()
}

// ParsePattern converts a search query into bytes. A query starting with
// 0x is read as hex, anything else as ASCII text.
func ParsePattern(query string) ([]byte, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidInput)
	}
	if strings.HasPrefix(strings.ToLower(q), "0x") {
		return parseHex(q)
	}
	return []byte(q), nil
}

// Index returns every offset where pattern occurs in data, overlapping
// matches included. Case folding only applies to ASCII letters.
func Index(data, pattern []byte, caseSensitive bool) []int {
	if len(pattern) == 0 || len(pattern) > len(data) {
		return nil
	}
	hay, needle := data, pattern
	if !caseSensitive {
		hay = foldASCII(data)
		needle = foldASCII(pattern)
	}

	var offsets []int
	for start := 0; start <= len(hay)-len(needle); {
		i := bytes.Index(hay[start:], needle)
		if i < 0 {
			break
		}
		offsets = append(offsets, start+i)
		start += i + 1
	}
	return offsets
}

func foldASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
