// Package numeric interprets byte sequences as integers and IEEE-754
// floats under an explicit width, signedness and byte order, and renders
// byte sequences in hex, decimal, octal, binary and ASCII.
//
// Every function in this package is pure and safe for concurrent use.
package numeric

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrInsufficientBytes = errors.New("numeric: insufficient bytes")
	ErrInvalidView       = errors.New("numeric: invalid view")
	ErrNotRepresentable  = errors.New("numeric: value not representable in target view")
	ErrInvalidBase       = errors.New("numeric: invalid base")
	ErrInvalidInput      = errors.New("numeric: invalid input")
)

// InsufficientBytesError reports a decode attempt on a short input.
type InsufficientBytesError struct {
	View View
	Need int
	Have int
}

func (e *InsufficientBytesError) Error() string {
	return fmt.Sprintf("numeric: %s needs %d bytes, have %d", e.View, e.Need, e.Have)
}

func (e *InsufficientBytesError) Unwrap() error { return ErrInsufficientBytes }

// Kind selects how the bits of a value are interpreted.
type Kind int

const (
	Unsigned Kind = iota
	Signed
	Float
)

func (k Kind) String() string {
	switch k {
	case Unsigned:
		return "uint"
	case Signed:
		return "int"
	case Float:
		return "float"
	default:
		return "unknown"
	}
}

// ByteOrder selects the layout of multi-byte values.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "LE"
	}
	return "BE"
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// View is the lens a byte sequence is decoded through.
type View struct {
	Width int // bits: 8, 16, 32 or 64
	Kind  Kind
	Order ByteOrder
}

// Uint returns an unsigned integer view.
func Uint(width int, order ByteOrder) View { return View{Width: width, Kind: Unsigned, Order: order} }

// Int returns a two's complement signed integer view.
func Int(width int, order ByteOrder) View { return View{Width: width, Kind: Signed, Order: order} }

// FloatView returns an IEEE-754 view; width must be 32 or 64.
func FloatView(width int, order ByteOrder) View { return View{Width: width, Kind: Float, Order: order} }

// Size returns the number of bytes the view consumes.
func (v View) Size() int { return v.Width / 8 }

// Validate reports ErrInvalidView for unsupported widths and kinds.
func (v View) Validate() error {
	switch v.Width {
	case 8, 16, 32, 64:
	default:
		return fmt.Errorf("%w: width %d", ErrInvalidView, v.Width)
	}
	switch v.Kind {
	case Unsigned, Signed:
	case Float:
		if v.Width != 32 && v.Width != 64 {
			return fmt.Errorf("%w: float%d", ErrInvalidView, v.Width)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidView, v.Kind)
	}
	if v.Order != BigEndian && v.Order != LittleEndian {
		return fmt.Errorf("%w: byte order %d", ErrInvalidView, v.Order)
	}
	return nil
}

func (v View) mask() uint64 {
	if v.Width == 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(v.Width) - 1
}

// String renders the view as e.g. "int16 LE". Single byte views omit the order.
func (v View) String() string {
	if v.Width == 8 {
		return fmt.Sprintf("%s%d", v.Kind, v.Width)
	}
	return fmt.Sprintf("%s%d %s", v.Kind, v.Width, v.Order)
}

// StandardViews lists the views shown by the byte converter: every integer
// width in both signednesses followed by float32 and float64.
func StandardViews(order ByteOrder) []View {
	return []View{
		Int(8, order), Uint(8, order),
		Int(16, order), Uint(16, order),
		Int(32, order), Uint(32, order),
		Int(64, order), Uint(64, order),
		FloatView(32, order), FloatView(64, order),
	}
}

// Pad extends b to the view's size with zero bytes on the most significant
// side, so the value of the available bytes is kept. Longer input is
// truncated to its leading bytes.
func Pad(b []byte, v View) []byte {
	n := v.Size()
	out := make([]byte, n)
	if len(b) >= n {
		copy(out, b[:n])
		return out
	}
	if v.Order == BigEndian {
		copy(out[n-len(b):], b)
	} else {
		copy(out, b)
	}
	return out
}
