package crc

import (
	"errors"
	"hash/crc32"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCheckValues(t *testing.T) {
	t.Parallel()

	for _, spec := range Catalog() {
		spec := spec
		t.Run(spec.Name, func(t *testing.T) {
			t.Parallel()

			require.NoError(t, spec.Validate())

			got, ok := spec.SelfTest()
			assert.True(t, ok, "Compute(%q) = %s, want %s", "123456789", spec.Format(got), spec.Format(spec.Check))

			eng, err := New(spec)
			require.NoError(t, err)
			assert.Equal(t, spec.Check, eng.Checksum([]byte("123456789")), "table engine disagrees with check value")
		})
	}
}

func TestModbusCheckValue(t *testing.T) {
	t.Parallel()
	got, err := Compute(CRC16Modbus, []byte("123456789"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x4B37), got)
}

func TestEmptyInputUsesOutputStage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec Spec
		want uint64
	}{
		{CRC16Modbus, 0xFFFF},
		{CRC16CCITT, 0xFFFF},
		{CRC16X25, 0x0000},
		{CRC32, 0x00000000},
		{CRC32MPEG2, 0xFFFFFFFF},
		{CRC8NRSC5, 0xFF},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.spec.Name, func(t *testing.T) {
			t.Parallel()
			got, err := Compute(tt.spec, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, MustNew(tt.spec).Checksum(nil))
		})
	}
}

func TestEngineMatchesBitwise(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	inputs := make([][]byte, 32)
	for i := range inputs {
		buf := make([]byte, rng.Intn(300))
		rng.Read(buf)
		inputs[i] = buf
	}

	specs := Catalog()
	custom, err := Custom(16, 0x3D65, 0x0000, true, false, 0xFFFF)
	require.NoError(t, err)
	specs = append(specs, custom)

	for _, spec := range specs {
		eng := MustNew(spec)
		for _, in := range inputs {
			want, err := Compute(spec, in)
			require.NoError(t, err)
			assert.Equal(t, want, eng.Checksum(in), "%s len=%d", spec.Name, len(in))
		}
	}
}

func TestEngineIncremental(t *testing.T) {
	t.Parallel()

	data := []byte("incremental checksum over several chunks")
	for _, spec := range []Spec{CRC8, CRC16Modbus, CRC32C} {
		eng := MustNew(spec)
		reg := eng.Init()
		reg = eng.Update(reg, data[:5])
		reg = eng.Update(reg, data[5:17])
		reg = eng.Update(reg, data[17:])
		assert.Equal(t, eng.Checksum(data), eng.Complete(reg), spec.Name)
	}
}

func TestCRC32MatchesStdlib(t *testing.T) {
	t.Parallel()

	data := []byte("The quick brown fox jumps over the lazy dog")
	got, err := Compute(CRC32, data)
	require.NoError(t, err)
	assert.Equal(t, uint64(crc32.ChecksumIEEE(data)), got)
	assert.Equal(t, uint64(crc32.Checksum(data, crc32.MakeTable(crc32.Castagnoli))), MustNew(CRC32C).Checksum(data))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		spec  Spec
		field string
	}{
		{"width 12", Spec{Width: 12, Poly: 0x80F}, "width"},
		{"width 0", Spec{Poly: 1}, "width"},
		{"poly too wide", Spec{Width: 8, Poly: 0x107}, "poly"},
		{"init too wide", Spec{Width: 16, Poly: 0x8005, Init: 0x1FFFF}, "init"},
		{"xorout too wide", Spec{Width: 8, Poly: 0x07, XorOut: 0x100}, "xorout"},
		{"zero poly", Spec{Width: 32}, "poly"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.spec.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSpec))

			var specErr *SpecError
			require.ErrorAs(t, err, &specErr)
			assert.Equal(t, tt.field, specErr.Field)

			_, err = New(tt.spec)
			assert.ErrorIs(t, err, ErrInvalidSpec)

			_, err = Compute(tt.spec, []byte("123456789"))
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestComputeRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec Spec
	}{
		{"modbus with oversized constants", Spec{Width: 16, Poly: 0x18005, Init: 0x1FFFF, RefIn: true, RefOut: true}},
		{"width below a byte", Spec{Width: 4, Poly: 0x3}},
		{"width above 32", Spec{Width: 64, Poly: 0x42F0E1EBA9EA3693}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sum, err := Compute(tt.spec, []byte("123456789"))
			assert.ErrorIs(t, err, ErrInvalidSpec)
			assert.Zero(t, sum)

			_, ok := tt.spec.SelfTest()
			assert.False(t, ok)
		})
	}
}

func TestCustom(t *testing.T) {
	t.Parallel()

	s, err := Custom(16, 0x8005, 0xFFFF, true, true, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x4B37), s.Check)

	_, err = Custom(8, 0x1D, 0x1FF, false, false, 0)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  string
		found bool
	}{
		{"CRC-16/MODBUS", "CRC-16/MODBUS", true},
		{"crc16-modbus", "CRC-16/MODBUS", true},
		{"modbus", "CRC-16/MODBUS", true},
		{"crc-32", "CRC-32", true},
		{"CRC-32/ISO-HDLC", "CRC-32", true},
		{"ccitt", "CRC-16/CCITT-FALSE", true},
		{"crc-64", "", false},
	}

	for _, tt := range tests {
		got, ok := Lookup(tt.query)
		assert.Equal(t, tt.found, ok, tt.query)
		assert.Equal(t, tt.want, got.Name, tt.query)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0x0A84", CRC16Modbus.Format(0x0A84))
	assert.Equal(t, "0xF4", CRC8.Format(0xF4))
	assert.Equal(t, "0xCBF43926", CRC32.Format(0xCBF43926))
}
