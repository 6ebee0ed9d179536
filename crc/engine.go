package crc

import (
	"math/bits"

	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
)

// Engine is a table driven CRC calculator for one Spec.
type Engine struct {
	spec  Spec
	table table
}

// table is the width specific lookup implementation behind an Engine.
type table interface {
	init() uint64
	update(crc uint64, data []byte) uint64
	complete(crc uint64) uint64
}

// New validates spec and builds its lookup table.
func New(spec Spec) (*Engine, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{spec: spec}
	switch spec.Width {
	case 8:
		e.table = newTable8(spec)
	case 16:
		e.table = newTable16(spec)
	default:
		e.table = newTable32(spec)
	}
	return e, nil
}

// MustNew is like New but panics on an invalid spec. Intended for
// package level variables built from catalog entries.
func MustNew(spec Spec) *Engine {
	e, err := New(spec)
	if err != nil {
		panic(err)
	}
	return e
}

// Spec returns the parameters the engine was built from.
func (e *Engine) Spec() Spec { return e.spec }

// Checksum returns the CRC of data.
func (e *Engine) Checksum(data []byte) uint64 {
	return e.table.complete(e.table.update(e.table.init(), data))
}

// Init returns the starting register for incremental computation.
func (e *Engine) Init() uint64 { return e.table.init() }

// Update feeds data into a running register.
func (e *Engine) Update(crc uint64, data []byte) uint64 { return e.table.update(crc, data) }

// Complete applies the output stage to a running register.
func (e *Engine) Complete(crc uint64) uint64 { return e.table.complete(crc) }

type table8 struct{ t *crc8.Table }

func newTable8(s Spec) table8 {
	return table8{t: crc8.MakeTable(crc8.Params{
		Poly:   uint8(s.Poly),
		Init:   uint8(s.Init),
		RefIn:  s.RefIn,
		RefOut: s.RefOut,
		XorOut: uint8(s.XorOut),
		Check:  uint8(s.Check),
		Name:   s.Name,
	})}
}

func (t table8) init() uint64 { return uint64(crc8.Init(t.t)) }
func (t table8) update(crc uint64, data []byte) uint64 {
	return uint64(crc8.Update(uint8(crc), data, t.t))
}
func (t table8) complete(crc uint64) uint64 { return uint64(crc8.Complete(uint8(crc), t.t)) }

type table16 struct{ t *crc16.Table }

func newTable16(s Spec) table16 {
	return table16{t: crc16.MakeTable(crc16.Params{
		Poly:   uint16(s.Poly),
		Init:   uint16(s.Init),
		RefIn:  s.RefIn,
		RefOut: s.RefOut,
		XorOut: uint16(s.XorOut),
		Check:  uint16(s.Check),
		Name:   s.Name,
	})}
}

func (t table16) init() uint64 { return uint64(crc16.Init(t.t)) }
func (t table16) update(crc uint64, data []byte) uint64 {
	return uint64(crc16.Update(uint16(crc), data, t.t))
}
func (t table16) complete(crc uint64) uint64 { return uint64(crc16.Complete(uint16(crc), t.t)) }

// table32 is a most-significant-bit-first table. Reflected input is
// handled by reversing each byte before lookup, so one table layout
// serves every parameter combination.
type table32 struct {
	spec Spec
	data [256]uint32
}

func newTable32(s Spec) *table32 {
	t := &table32{spec: s}
	poly := uint32(s.Poly)
	for i := range t.data {
		reg := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if reg&0x80000000 != 0 {
				reg = (reg << 1) ^ poly
			} else {
				reg <<= 1
			}
		}
		t.data[i] = reg
	}
	return t
}

func (t *table32) init() uint64 { return t.spec.Init }

func (t *table32) update(crc uint64, data []byte) uint64 {
	reg := uint32(crc)
	for _, b := range data {
		if t.spec.RefIn {
			b = bits.Reverse8(b)
		}
		reg = reg<<8 ^ t.data[byte(reg>>24)^b]
	}
	return uint64(reg)
}

func (t *table32) complete(crc uint64) uint64 { return finalize(t.spec, crc) }
