package crc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec is returned for a Spec whose width is unsupported or
	// whose constants do not fit in the register.
	ErrInvalidSpec = errors.New("crc: invalid spec")
	// ErrUnknownAlgorithm is returned by Lookup callers that need an error.
	ErrUnknownAlgorithm = errors.New("crc: unknown algorithm")
)

// Spec describes a CRC algorithm in the Rocksoft parameter model.
// A Spec is a plain value and is never modified after construction.
type Spec struct {
	Name   string
	Width  int
	Poly   uint64
	Init   uint64
	RefIn  bool
	RefOut bool
	XorOut uint64
	// Check is the CRC of ASCII "123456789".
	Check uint64
}

// SpecError reports which field of a Spec is out of range.
type SpecError struct {
	Name  string
	Field string
	Value uint64
	Width int
}

func (e *SpecError) Error() string {
	name := e.Name
	if name == "" {
		name = "custom"
	}
	if e.Field == "width" {
		return fmt.Sprintf("crc: invalid spec %s: unsupported width %d (want 8, 16 or 32)", name, e.Width)
	}
	return fmt.Sprintf("crc: invalid spec %s: %s 0x%X does not fit in %d bits", name, e.Field, e.Value, e.Width)
}

func (e *SpecError) Unwrap() error { return ErrInvalidSpec }

// Mask returns the register mask 2^Width - 1.
func (s Spec) Mask() uint64 {
	if s.Width >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(s.Width) - 1
}

// Validate checks the width and that every constant fits the register.
func (s Spec) Validate() error {
	switch s.Width {
	case 8, 16, 32:
	default:
		return &SpecError{Name: s.Name, Field: "width", Width: s.Width}
	}

	mask := s.Mask()
	fields := []struct {
		name  string
		value uint64
	}{
		{"poly", s.Poly},
		{"init", s.Init},
		{"xorout", s.XorOut},
		{"check", s.Check},
	}
	for _, f := range fields {
		if f.value&^mask != 0 {
			return &SpecError{Name: s.Name, Field: f.name, Value: f.value, Width: s.Width}
		}
	}
	if s.Poly == 0 {
		return &SpecError{Name: s.Name, Field: "poly", Value: 0, Width: s.Width}
	}
	return nil
}

// SelfTest computes the CRC of "123456789" and compares it with Check.
// An invalid spec never passes.
func (s Spec) SelfTest() (uint64, bool) {
	got, err := Compute(s, checkInput)
	if err != nil {
		return 0, false
	}
	return got, got == s.Check
}

// Digits returns the number of hex digits needed to print a checksum.
func (s Spec) Digits() int {
	return s.Width / 4
}

// Format renders a checksum as zero padded uppercase hex with a 0x prefix.
func (s Spec) Format(sum uint64) string {
	return fmt.Sprintf("0x%0*X", s.Digits(), sum&s.Mask())
}

func (s Spec) String() string {
	return fmt.Sprintf("%s width=%d poly=%s init=%s refin=%t refout=%t xorout=%s check=%s",
		s.Name, s.Width, s.Format(s.Poly), s.Format(s.Init), s.RefIn, s.RefOut,
		s.Format(s.XorOut), s.Format(s.Check))
}

// Custom builds and validates a user supplied Spec. The check value is
// computed from the parameters so the result passes its own self-test.
func Custom(width int, poly, init uint64, refIn, refOut bool, xorOut uint64) (Spec, error) {
	s := Spec{
		Name:   "custom",
		Width:  width,
		Poly:   poly,
		Init:   init,
		RefIn:  refIn,
		RefOut: refOut,
		XorOut: xorOut,
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	s.Check = compute(s, checkInput)
	return s, nil
}

var checkInput = []byte("123456789")
