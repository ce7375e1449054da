package emu

import "hash/crc32"

// BackupKind names the cartridge-side persistent storage a title uses.
type BackupKind int

const (
	BackupNone BackupKind = iota
	BackupSRAM
	BackupEEPROM
)

// ROMInfo is the per-title override looked up by full-ROM CRC32. Most
// titles need nothing beyond header-declared behavior; this table exists
// for the handful that lie in their header or need hardware the header
// can't express (SVP).
type ROMInfo struct {
	Backup    BackupKind
	EEPROM    EepromKind
	SVP       bool
	SSF2      bool
	DMALag    int // SVP-only: word offset subtracted from mem->VRAM DMA source
}

// romDatabase is keyed on crc32.ChecksumIEEE(rom). Entries are the titles
// whose cartridge-side hardware can't be inferred from the header alone.
var romDatabase = map[uint32]ROMInfo{
	// Virtua Racing (SVP). CRC32 of the known-good US/Euro dump.
	0x7b3a0daf: {SVP: true, DMALag: 2},
}

// GetROMCRC32 computes the identification checksum used for romDatabase
// lookups. This is independent of the header's own declared checksum.
func GetROMCRC32(rom []byte) uint32 {
	return crc32.ChecksumIEEE(rom)
}

// LookupROM returns per-title overrides, or the zero value (no overrides)
// if the ROM isn't in the database.
func LookupROM(rom []byte) ROMInfo {
	return romDatabase[GetROMCRC32(rom)]
}
