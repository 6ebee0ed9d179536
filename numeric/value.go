package numeric

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Class labels the special IEEE-754 states a float view can decode to.
type Class int

const (
	ClassFinite Class = iota
	ClassNaN
	ClassPosInf
	ClassNegInf
)

func (c Class) String() string {
	switch c {
	case ClassNaN:
		return "NaN"
	case ClassPosInf:
		return "+Inf"
	case ClassNegInf:
		return "-Inf"
	default:
		return "finite"
	}
}

// Base is the radix used to render a value.
type Base int

const (
	Base2  Base = 2
	Base8  Base = 8
	Base10 Base = 10
	Base16 Base = 16
)

// Valid reports whether b is one of the supported radixes.
func (b Base) Valid() bool {
	return b == Base2 || b == Base8 || b == Base10 || b == Base16
}

// Value is a decoded number. Bits holds the raw pattern in the low Width
// bits, which is what makes Encode exact for every view.
type Value struct {
	View View
	Bits uint64
}

// Decode interprets the leading View.Size() bytes of b.
func Decode(b []byte, v View) (Value, error) {
	if err := v.Validate(); err != nil {
		return Value{}, err
	}
	n := v.Size()
	if len(b) < n {
		return Value{}, &InsufficientBytesError{View: v, Need: n, Have: len(b)}
	}

	order := v.Order.binary()
	var raw uint64
	switch v.Width {
	case 8:
		raw = uint64(b[0])
	case 16:
		raw = uint64(order.Uint16(b))
	case 32:
		raw = uint64(order.Uint32(b))
	case 64:
		raw = order.Uint64(b)
	}
	return Value{View: v, Bits: raw}, nil
}

// Encode lays the value out in its view's width and byte order.
func Encode(val Value) []byte {
	v := val.View
	out := make([]byte, v.Size())
	order := v.Order.binary()
	switch v.Width {
	case 8:
		out[0] = byte(val.Bits)
	case 16:
		order.PutUint16(out, uint16(val.Bits))
	case 32:
		order.PutUint32(out, uint32(val.Bits))
	case 64:
		order.PutUint64(out, val.Bits)
	}
	return out
}

// Uint returns the raw bits zero extended.
func (val Value) Uint() uint64 { return val.Bits & val.View.mask() }

// Int returns the bits sign extended from the view's width.
func (val Value) Int() int64 {
	shift := uint(64 - val.View.Width)
	return int64(val.Bits<<shift) >> shift
}

// Float returns the IEEE-754 value. Integer views convert numerically.
func (val Value) Float() float64 {
	switch val.View.Kind {
	case Float:
		if val.View.Width == 32 {
			return float64(math.Float32frombits(uint32(val.Bits)))
		}
		return math.Float64frombits(val.Bits)
	case Signed:
		return float64(val.Int())
	default:
		return float64(val.Uint())
	}
}

// Class reports NaN and infinities for float views; integer views are
// always finite.
func (val Value) Class() Class {
	if val.View.Kind != Float {
		return ClassFinite
	}
	f := val.Float()
	switch {
	case math.IsNaN(f):
		return ClassNaN
	case math.IsInf(f, 1):
		return ClassPosInf
	case math.IsInf(f, -1):
		return ClassNegInf
	default:
		return ClassFinite
	}
}

// Format renders the value in base. Signed values keep their sign in every
// base. Float views print the number in base 10 and their raw bit pattern
// in the other bases; non-finite floats print their Class label.
func (val Value) Format(base Base) string {
	switch val.View.Kind {
	case Signed:
		return strconv.FormatInt(val.Int(), int(base))
	case Float:
		if base == Base10 {
			if c := val.Class(); c != ClassFinite {
				return c.String()
			}
			return strconv.FormatFloat(val.Float(), 'g', -1, val.View.Width)
		}
		return padBits(strconv.FormatUint(val.Uint(), int(base)), base, val.View.Width)
	default:
		return strconv.FormatUint(val.Uint(), int(base))
	}
}

func (val Value) String() string { return val.Format(Base10) }

func padBits(s string, base Base, width int) string {
	var digits int
	switch base {
	case Base2:
		digits = width
	case Base16:
		digits = width / 4
	default:
		return s
	}
	if len(s) < digits {
		s = strings.Repeat("0", digits-len(s)) + s
	}
	return s
}

// FromUint builds a value for an unsigned or signed integer view from an
// unsigned number, failing if it does not fit.
func FromUint(v View, n uint64) (Value, error) {
	if err := v.Validate(); err != nil {
		return Value{}, err
	}
	switch v.Kind {
	case Float:
		return FromFloat(v, float64(n))
	case Signed:
		if n > uint64(math.MaxInt64) {
			return Value{}, fmt.Errorf("%w: %d as %s", ErrNotRepresentable, n, v)
		}
		return FromInt(v, int64(n))
	}
	if n&^v.mask() != 0 {
		return Value{}, fmt.Errorf("%w: %d as %s", ErrNotRepresentable, n, v)
	}
	return Value{View: v, Bits: n}, nil
}

// FromInt builds a value from a signed number, failing if it does not fit.
func FromInt(v View, n int64) (Value, error) {
	if err := v.Validate(); err != nil {
		return Value{}, err
	}
	switch v.Kind {
	case Float:
		return FromFloat(v, float64(n))
	case Unsigned:
		if n < 0 {
			return Value{}, fmt.Errorf("%w: %d as %s", ErrNotRepresentable, n, v)
		}
		return FromUint(v, uint64(n))
	}
	shift := uint(64 - v.Width)
	if (n<<shift)>>shift != n {
		return Value{}, fmt.Errorf("%w: %d as %s", ErrNotRepresentable, n, v)
	}
	return Value{View: v, Bits: uint64(n) & v.mask()}, nil
}

// FromFloat builds a float view value. For float32 the number must survive
// the narrowing exactly; NaN and infinities are always accepted.
func FromFloat(v View, f float64) (Value, error) {
	if err := v.Validate(); err != nil {
		return Value{}, err
	}
	if v.Kind != Float {
		return Value{}, fmt.Errorf("%w: float into %s", ErrNotRepresentable, v)
	}
	if v.Width == 64 {
		return Value{View: v, Bits: math.Float64bits(f)}, nil
	}
	f32 := float32(f)
	if !math.IsNaN(f) && float64(f32) != f {
		return Value{}, fmt.Errorf("%w: %g as float32", ErrNotRepresentable, f)
	}
	return Value{View: v, Bits: uint64(math.Float32bits(f32))}, nil
}

// Parse reads a number written in base into view v. Float views accept
// decimal notation in base 10 and a raw bit pattern in other bases.
func Parse(s string, base Base, v View) (Value, error) {
	if !base.Valid() {
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	s = trimRadixPrefix(strings.TrimSpace(s), base)
	s = strings.ReplaceAll(s, "_", "")

	switch {
	case v.Kind == Float && base == Base10:
		f, err := strconv.ParseFloat(s, v.Width)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return FromFloat(v, f)
	case v.Kind == Float:
		n, err := strconv.ParseUint(s, int(base), v.Width)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return Value{View: v, Bits: n}, nil
	case strings.HasPrefix(s, "-"):
		n, err := strconv.ParseInt(s, int(base), 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return FromInt(v, n)
	default:
		n, err := strconv.ParseUint(s, int(base), 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return FromUint(v, n)
	}
}

func trimRadixPrefix(s string, base Base) string {
	lower := strings.ToLower(s)
	neg := strings.HasPrefix(lower, "-")
	body := strings.TrimPrefix(lower, "-")
	var prefix string
	switch base {
	case Base16:
		prefix = "0x"
	case Base2:
		prefix = "0b"
	case Base8:
		prefix = "0o"
	}
	if prefix != "" && strings.HasPrefix(body, prefix) {
		body = body[len(prefix):]
		if neg {
			return "-" + body
		}
		return body
	}
	return s
}
