package emu

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidROM is returned when a cartridge image fails the basic shape
// invariant: even, non-zero byte length.
var ErrInvalidROM = errors.New("emu: ROM size must be even and non-zero")

// HeaderSize is the fixed 256-byte header starting at offset 0x100.
const HeaderSize = 0x100
const HeaderOffset = 0x100

// Header is the parsed 512-byte-region cartridge header. Field offsets
// are relative to HeaderOffset.
type Header struct {
	ConsoleName   string
	Copyright     string // firm/build
	DomesticName  string
	OverseasName  string
	SerialNumber  string
	Checksum      uint16
	IOSupport     string
	ROMStart      uint32
	ROMEnd        uint32
	RAMStart      uint32
	RAMEnd        uint32
	BackupID      string // 4 chars, "RA.." when present
	BackupFlag    byte   // even/odd/both-byte placement
	BackupStart   uint32
	BackupEnd     uint32
	Modem         string
	Notes         string
	CountryCodes  string
}

func trimField(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}

// ParseHeader reads the 256-byte header at HeaderOffset. It does not
// validate ROM length; call ValidateROM first.
func ParseHeader(rom []byte) Header {
	h := Header{}
	if len(rom) < HeaderOffset+HeaderSize {
		return h
	}
	field := func(off, n int) []byte { return rom[HeaderOffset+off : HeaderOffset+off+n] }

	h.ConsoleName = trimField(field(0x00, 16))
	h.Copyright = trimField(field(0x10, 16))
	h.DomesticName = trimField(field(0x20, 48))
	h.OverseasName = trimField(field(0x50, 48))
	h.SerialNumber = trimField(field(0x80, 14))
	h.Checksum = binary.BigEndian.Uint16(field(0x8E, 2))
	h.IOSupport = trimField(field(0x90, 16))
	h.ROMStart = binary.BigEndian.Uint32(field(0xA0, 4))
	h.ROMEnd = binary.BigEndian.Uint32(field(0xA4, 4))
	h.RAMStart = binary.BigEndian.Uint32(field(0xA8, 4))
	h.RAMEnd = binary.BigEndian.Uint32(field(0xAC, 4))
	h.BackupID = trimField(field(0xB0, 4))
	h.BackupFlag = field(0xB4, 1)[0]
	h.BackupStart = binary.BigEndian.Uint32(field(0xB8, 4))
	h.BackupEnd = binary.BigEndian.Uint32(field(0xBC, 4))
	h.Modem = trimField(field(0xC0, 12))
	h.Notes = trimField(field(0xC8, 40))
	h.CountryCodes = trimField(field(0xF0, 16))
	return h
}

// HasBackupRAM reports whether the header declares SRAM/EEPROM backup
// storage (BackupID begins "RA").
func (h Header) HasBackupRAM() bool {
	return len(h.BackupID) >= 2 && h.BackupID[0] == 'R' && h.BackupID[1] == 'A'
}

// BackupIsOddOnly and BackupIsEvenOnly report the SRAM byte placement declared in BackupFlag:
// bit 0 set selects odd bytes only, bit 1 set selects even bytes only;
// neither set means both bytes are populated (16-bit wide SRAM).
func (h Header) BackupIsOddOnly() bool  { return h.BackupFlag&0x01 != 0 && h.BackupFlag&0x02 == 0 }
func (h Header) BackupIsEvenOnly() bool { return h.BackupFlag&0x02 != 0 && h.BackupFlag&0x01 == 0 }

// ValidateROM enforces the size invariant from the data model: byte
// count even and non-zero.
func ValidateROM(rom []byte) error {
	if len(rom) == 0 || len(rom)%2 != 0 {
		return ErrInvalidROM
	}
	return nil
}

// ComputeChecksum sums all 16-bit big-endian words from HeaderOffset to
// the end of the ROM, wrapping modulo 2^16, starting at 0x100
// regardless of the header's own declared ROM range.
func ComputeChecksum(rom []byte) uint16 {
	var sum uint16
	i := HeaderOffset
	for i+1 < len(rom) {
		sum += binary.BigEndian.Uint16(rom[i : i+2])
		i += 2
	}
	// ROM length is guaranteed even by ValidateROM, so no trailing byte
	// can remain; this loop bound is exact.
	return sum
}

// ChecksumOK reports whether the header's declared checksum matches the
// computed one.
func (h Header) ChecksumOK(rom []byte) bool {
	return h.Checksum == ComputeChecksum(rom)
}
