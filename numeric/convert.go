package numeric

import (
	"fmt"
	"math"
)

// Reinterpret decodes b under from and re-encodes the same numeric value
// under to. Conversions never lose information: a value that does not fit
// the target exactly (out of range, fractional float into an integer view,
// NaN into an integer view) fails with ErrNotRepresentable.
//
// Changing only the byte order is a byte swap; widening an integer sign or
// zero extends it.
func Reinterpret(b []byte, from, to View) ([]byte, error) {
	val, err := Decode(b, from)
	if err != nil {
		return nil, err
	}
	out, err := Convert(val, to)
	if err != nil {
		return nil, err
	}
	return Encode(out), nil
}

// Convert re-expresses val under view to, keeping its numeric value.
func Convert(val Value, to View) (Value, error) {
	if err := to.Validate(); err != nil {
		return Value{}, err
	}

	switch val.View.Kind {
	case Float:
		f := val.Float()
		if to.Kind == Float {
			return FromFloat(to, f)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return Value{}, fmt.Errorf("%w: %s as %s", ErrNotRepresentable, val, to)
		}
		if f < 0 {
			if f < math.MinInt64 {
				return Value{}, fmt.Errorf("%w: %s as %s", ErrNotRepresentable, val, to)
			}
			return FromInt(to, int64(f))
		}
		if f >= math.MaxUint64 {
			return Value{}, fmt.Errorf("%w: %s as %s", ErrNotRepresentable, val, to)
		}
		return FromUint(to, uint64(f))

	case Signed:
		n := val.Int()
		if to.Kind == Float {
			return exactFloat(to, float64(n), func(f float64) bool { return f < 0x1p63 && int64(f) == n })
		}
		return FromInt(to, n)

	default:
		n := val.Uint()
		if to.Kind == Float {
			return exactFloat(to, float64(n), func(f float64) bool { return f < 0x1p64 && uint64(f) == n })
		}
		return FromUint(to, n)
	}
}

func exactFloat(to View, f float64, roundTrips func(float64) bool) (Value, error) {
	if !roundTrips(f) {
		return Value{}, fmt.Errorf("%w: %g is not exact as float64", ErrNotRepresentable, f)
	}
	return FromFloat(to, f)
}

// Reading is one row of a multi-view display.
type Reading struct {
	View  View
	Value Value
	Err   error
}

// DecodeAll decodes b under every standard view in the given byte order.
// Views needing more bytes than b holds carry an InsufficientBytesError
// instead of a value.
func DecodeAll(b []byte, order ByteOrder) []Reading {
	views := StandardViews(order)
	out := make([]Reading, 0, len(views))
	for _, v := range views {
		val, err := Decode(b, v)
		out = append(out, Reading{View: v, Value: val, Err: err})
	}
	return out
}
