package numeric

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Format selects how a byte sequence is rendered or parsed.
type Format int

const (
	FormatHex Format = iota
	FormatDecimal
	FormatOctal
	FormatBinary
	FormatASCII
)

var formatNames = map[Format]string{
	FormatHex:     "hex",
	FormatDecimal: "decimal",
	FormatOctal:   "octal",
	FormatBinary:  "binary",
	FormatASCII:   "ascii",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat accepts the names used on the command line and in config
// files. "text" is an alias for ascii.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hex", "h", "x":
		return FormatHex, nil
	case "decimal", "dec", "d":
		return FormatDecimal, nil
	case "octal", "oct", "o":
		return FormatOctal, nil
	case "binary", "bin", "b":
		return FormatBinary, nil
	case "ascii", "text", "a", "t":
		return FormatASCII, nil
	default:
		return 0, fmt.Errorf("%w: unknown format %q", ErrInvalidInput, name)
	}
}

// Printable reports whether b renders as itself in the ASCII view.
func Printable(b byte) bool { return b >= 0x20 && b <= 0x7E }

// FormatBytes renders b as space separated tokens. Hex is uppercase two
// digit, decimal is unpadded, octal three digit and binary eight digit.
// ASCII prints printable characters as-is and '.' otherwise, unseparated.
func FormatBytes(b []byte, f Format) string {
	if f == FormatASCII {
		out := make([]byte, len(b))
		for i, c := range b {
			if Printable(c) {
				out[i] = c
			} else {
				out[i] = '.'
			}
		}
		return string(out)
	}

	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(FormatByte(c, f))
	}
	return sb.String()
}

// FormatByte renders a single byte token.
func FormatByte(c byte, f Format) string {
	switch f {
	case FormatDecimal:
		return strconv.Itoa(int(c))
	case FormatOctal:
		return fmt.Sprintf("%03o", c)
	case FormatBinary:
		return fmt.Sprintf("%08b", c)
	case FormatASCII:
		if Printable(c) {
			return string(rune(c))
		}
		return "."
	default:
		return fmt.Sprintf("%02X", c)
	}
}

var (
	decimalSeparators = regexp.MustCompile(`[\s,;]+`)
	hexNoise          = regexp.MustCompile(`(?i)0x|[\s,;:-]`)
)

// ParseBytes turns user input in format f into bytes.
//
// ASCII input is taken verbatim. Hex input may contain spaces, commas,
// colons and 0x prefixes. Decimal and octal input is split on whitespace,
// commas and semicolons with each token at most 255. Binary input is split
// the same way; tokens shorter than eight bits are left padded, and a
// single unseparated run is cut into eight bit groups.
func ParseBytes(s string, f Format) ([]byte, error) {
	switch f {
	case FormatASCII:
		return []byte(s), nil
	case FormatHex:
		return parseHex(s)
	case FormatBinary:
		return parseBinary(s)
	case FormatDecimal:
		return parseTokens(s, 10)
	case FormatOctal:
		return parseTokens(s, 8)
	default:
		return nil, fmt.Errorf("%w: unknown format %d", ErrInvalidInput, f)
	}
}

func parseHex(s string) ([]byte, error) {
	clean := hexNoise.ReplaceAllString(s, "")
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("%w: hex input has odd number of digits", ErrInvalidInput)
	}
	out := make([]byte, 0, len(clean)/2)
	for i := 0; i < len(clean); i += 2 {
		v, err := strconv.ParseUint(clean[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid hex byte %q", ErrInvalidInput, clean[i:i+2])
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func parseTokens(s string, base int) ([]byte, error) {
	tokens := fields(s)
	out := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseUint(tok, base, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a byte value", ErrInvalidInput, tok)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func parseBinary(s string) ([]byte, error) {
	tokens := fields(s)
	if len(tokens) == 1 && len(tokens[0]) > 8 {
		run := tokens[0]
		if len(run)%8 != 0 {
			run = strings.Repeat("0", 8-len(run)%8) + run
		}
		tokens = tokens[:0]
		for i := 0; i < len(run); i += 8 {
			tokens = append(tokens, run[i:i+8])
		}
	}
	return parseTokens(strings.Join(tokens, " "), 2)
}

func fields(s string) []string {
	var out []string
	for _, tok := range decimalSeparators.Split(strings.TrimSpace(s), -1) {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// LineEnding is appended to outgoing terminal data.
type LineEnding int

const (
	LineEndingNone LineEnding = iota
	LineEndingCR
	LineEndingLF
	LineEndingCRLF
)

// ParseLineEnding accepts none, cr, lf and crlf.
func ParseLineEnding(name string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return LineEndingNone, nil
	case "cr":
		return LineEndingCR, nil
	case "lf", "nl":
		return LineEndingLF, nil
	case "crlf":
		return LineEndingCRLF, nil
	default:
		return 0, fmt.Errorf("%w: unknown line ending %q", ErrInvalidInput, name)
	}
}

func (l LineEnding) String() string {
	switch l {
	case LineEndingCR:
		return "CR"
	case LineEndingLF:
		return "LF"
	case LineEndingCRLF:
		return "CRLF"
	default:
		return "none"
	}
}

// Append returns b followed by the line ending bytes.
func (l LineEnding) Append(b []byte) []byte {
	switch l {
	case LineEndingCR:
		return append(b, '\r')
	case LineEndingLF:
		return append(b, '\n')
	case LineEndingCRLF:
		return append(b, '\r', '\n')
	default:
		return b
	}
}
