package crc

import (
	"strings"
	"unicode"
)

// Named algorithms. Parameters and check values follow the Greg Cook
// CRC catalogue.
var (
	CRC8         = Spec{Name: "CRC-8", Width: 8, Poly: 0x07, Init: 0x00, XorOut: 0x00, Check: 0xF4}
	CRC8Maxim    = Spec{Name: "CRC-8/MAXIM", Width: 8, Poly: 0x31, Init: 0x00, RefIn: true, RefOut: true, XorOut: 0x00, Check: 0xA1}
	CRC8NRSC5    = Spec{Name: "CRC-8/NRSC-5", Width: 8, Poly: 0x31, Init: 0xFF, XorOut: 0x00, Check: 0xF7}
	CRC16ARC     = Spec{Name: "CRC-16/ARC", Width: 16, Poly: 0x8005, Init: 0x0000, RefIn: true, RefOut: true, XorOut: 0x0000, Check: 0xBB3D}
	CRC16Modbus  = Spec{Name: "CRC-16/MODBUS", Width: 16, Poly: 0x8005, Init: 0xFFFF, RefIn: true, RefOut: true, XorOut: 0x0000, Check: 0x4B37}
	CRC16CCITT   = Spec{Name: "CRC-16/CCITT-FALSE", Width: 16, Poly: 0x1021, Init: 0xFFFF, XorOut: 0x0000, Check: 0x29B1}
	CRC16XModem  = Spec{Name: "CRC-16/XMODEM", Width: 16, Poly: 0x1021, Init: 0x0000, XorOut: 0x0000, Check: 0x31C3}
	CRC16Kermit  = Spec{Name: "CRC-16/KERMIT", Width: 16, Poly: 0x1021, Init: 0x0000, RefIn: true, RefOut: true, XorOut: 0x0000, Check: 0x2189}
	CRC16MCRF4XX = Spec{Name: "CRC-16/MCRF4XX", Width: 16, Poly: 0x1021, Init: 0xFFFF, RefIn: true, RefOut: true, XorOut: 0x0000, Check: 0x6F91}
	CRC16X25     = Spec{Name: "CRC-16/X-25", Width: 16, Poly: 0x1021, Init: 0xFFFF, RefIn: true, RefOut: true, XorOut: 0xFFFF, Check: 0x906E}
	CRC32        = Spec{Name: "CRC-32", Width: 32, Poly: 0x04C11DB7, Init: 0xFFFFFFFF, RefIn: true, RefOut: true, XorOut: 0xFFFFFFFF, Check: 0xCBF43926}
	CRC32BZIP2   = Spec{Name: "CRC-32/BZIP2", Width: 32, Poly: 0x04C11DB7, Init: 0xFFFFFFFF, XorOut: 0xFFFFFFFF, Check: 0xFC891918}
	CRC32C       = Spec{Name: "CRC-32C", Width: 32, Poly: 0x1EDC6F41, Init: 0xFFFFFFFF, RefIn: true, RefOut: true, XorOut: 0xFFFFFFFF, Check: 0xE3069283}
	CRC32MPEG2   = Spec{Name: "CRC-32/MPEG-2", Width: 32, Poly: 0x04C11DB7, Init: 0xFFFFFFFF, XorOut: 0x00000000, Check: 0x0376E6E7}
)

var catalog = []Spec{
	CRC8, CRC8Maxim, CRC8NRSC5,
	CRC16ARC, CRC16Modbus, CRC16CCITT, CRC16XModem, CRC16Kermit, CRC16MCRF4XX, CRC16X25,
	CRC32, CRC32BZIP2, CRC32C, CRC32MPEG2,
}

var aliases = map[string]string{
	"MODBUS":          "CRC16MODBUS",
	"CRC16":           "CRC16ARC",
	"CCITT":           "CRC16CCITTFALSE",
	"IBM3740":         "CRC16CCITTFALSE",
	"XMODEM":          "CRC16XMODEM",
	"KERMIT":          "CRC16KERMIT",
	"CRC8SMBUS":       "CRC8",
	"DOWCRC":          "CRC8MAXIM",
	"CRC32ISOHDLC":    "CRC32",
	"CRC32CASTAGNOLI": "CRC32C",
}

// Catalog returns the named algorithms in display order.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a named algorithm. Matching ignores case and punctuation,
// so "crc16-modbus", "CRC-16/MODBUS" and "modbus" are equivalent.
func Lookup(name string) (Spec, bool) {
	key := normalize(name)
	if target, ok := aliases[key]; ok {
		key = target
	}
	for _, s := range catalog {
		if normalize(s.Name) == key {
			return s, true
		}
	}
	return Spec{}, false
}

func normalize(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, name)
}
