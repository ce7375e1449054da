package emu

import "testing"

func newTestMemory(rom []byte, h Header, info ROMInfo) *Memory {
	vdp := NewVDP(RegionNTSC, nil)
	io := NewIO(Pad3Button, Pad3Button)
	z80 := NewZ80Driver(NewFM(), NewPSG(3579545))
	var svp *SVP
	if info.SVP {
		svp = NewSVP(info.DMALag)
	}
	return NewMemory(rom, h, info, vdp, io, z80, svp, nil)
}

// TestMemoryROMReadback checks plain ROM-space reads with no overlay
// active return the raw ROM bytes (memory-map idempotence baseline).
func TestMemoryROMReadback(t *testing.T) {
	rom := make([]byte, 0x10000)
	rom[0x1000] = 0xAB
	m := newTestMemory(rom, Header{}, ROMInfo{})

	if got := m.ReadByte(0x1000); got != 0xAB {
		t.Errorf("ReadByte(0x1000) = %02X, want AB", got)
	}
	// Writes to plain ROM space with no SRAM/EEPROM overlay are ignored.
	m.WriteByte(0x1000, 0xCD)
	if got := m.ReadByte(0x1000); got != 0xAB {
		t.Errorf("ROM byte changed after write: got %02X, want AB", got)
	}
}

// TestMemoryWorkRAMMirroring checks the 64 KiB work RAM is reached both
// at its 24-bit address and through a 32-bit address whose top byte the
// 24-bit bus ignores.
func TestMemoryWorkRAMMirroring(t *testing.T) {
	rom := make([]byte, 0x10000)
	m := newTestMemory(rom, Header{}, ROMInfo{})

	m.WriteByte(0xFF0010, 0x42)
	if got := m.ReadByte(0xFF0010); got != 0x42 {
		t.Fatalf("direct RAM read = %02X, want 42", got)
	}
	if got := m.ReadByte(0xFFFF0010); got != 0x42 {
		t.Errorf("mirrored RAM read = %02X, want 42", got)
	}
}

// TestMemorySRAMOverlay checks a header-declared SRAM range overlays
// ROM space only once the SRAM enable latch (0xA130F1) is set.
func TestMemorySRAMOverlay(t *testing.T) {
	rom := make([]byte, 0x300000)
	rom[0x200000] = 0x11 // underlying ROM byte at the SRAM address
	h := Header{BackupID: "RA", BackupStart: 0x200000, BackupEnd: 0x200FFF, BackupFlag: 0x00} // no even/odd restriction
	m := newTestMemory(rom, h, ROMInfo{Backup: BackupSRAM})

	if got := m.ReadByte(0x200000); got != 0x11 {
		t.Fatalf("SRAM disabled: ReadByte = %02X, want 11 (ROM passthrough)", got)
	}

	m.WriteByte(0xA130F1, 0x01) // enable SRAM overlay
	m.WriteByte(0x200000, 0x99)
	if got := m.ReadByte(0x200000); got != 0x99 {
		t.Errorf("SRAM enabled: ReadByte = %02X, want 99", got)
	}
	if got := m.ReadByte(0xA130F1); got != 0x01 {
		t.Errorf("SRAM enable latch readback = %02X, want 01", got)
	}
}

// TestMemorySRAMEvenOnly exercises the even-byte-only backup variant:
// writes to odd addresses within the overlay are dropped.
func TestMemorySRAMEvenOnly(t *testing.T) {
	rom := make([]byte, 0x300000)
	h := Header{BackupID: "RA", BackupStart: 0x200000, BackupEnd: 0x200FFF, BackupFlag: 0x02}
	m := newTestMemory(rom, h, ROMInfo{Backup: BackupSRAM})
	m.WriteByte(0xA130F1, 0x01)

	m.WriteByte(0x200000, 0x55) // even offset: accepted
	m.WriteByte(0x200001, 0x66) // odd offset: dropped, reads as FF

	if got := m.ReadByte(0x200000); got != 0x55 {
		t.Errorf("even byte = %02X, want 55", got)
	}
	if got := m.ReadByte(0x200001); got != 0xFF {
		t.Errorf("odd byte = %02X, want FF (even-only backup)", got)
	}
}

// TestMemorySSF2Banking checks a bank-select write relocates the
// selected 512 KiB window's ROM-space reads.
func TestMemorySSF2Banking(t *testing.T) {
	rom := make([]byte, ssf2BankSize*ssf2Banks)
	for bank := 0; bank < ssf2Banks; bank++ {
		rom[bank*ssf2BankSize] = byte(0x10 + bank)
	}
	m := newTestMemory(rom, Header{}, ROMInfo{SSF2: true})

	if got := m.ReadByte(0); got != 0x10 {
		t.Fatalf("bank 0 default mapping: ReadByte(0) = %02X, want 10", got)
	}

	m.WriteByte(0xA130F3, 3) // select physical bank 3 into logical slot 1
	if got := m.ReadByte(ssf2BankSize); got != 0x13 {
		t.Errorf("after bank select, ReadByte(bankSize) = %02X, want 13", got)
	}
	// Logical bank 0 is left untouched by a write targeting slot 1.
	if got := m.ReadByte(0); got != 0x10 {
		t.Errorf("logical bank 0 changed after unrelated bank select: got %02X", got)
	}
}

// TestMemoryWordAndLongAccessors check the big-endian word/long
// composition over plain RAM addresses.
func TestMemoryWordAndLongAccessors(t *testing.T) {
	rom := make([]byte, 0x10000)
	m := newTestMemory(rom, Header{}, ROMInfo{})

	m.WriteWord(0xFF0000, 0x1234)
	if got := m.ReadWord(0xFF0000); got != 0x1234 {
		t.Errorf("ReadWord = %04X, want 1234", got)
	}
	if got := m.ReadByte(0xFF0000); got != 0x12 {
		t.Errorf("high byte = %02X, want 12 (big-endian)", got)
	}

	m.WriteLong(0xFF0010, 0xAABBCCDD)
	if got := m.ReadLong(0xFF0010); got != 0xAABBCCDD {
		t.Errorf("ReadLong = %08X, want AABBCCDD", got)
	}
}

// TestMemoryUnmappedRegionReadsFF checks the default "open bus" read
// value for an address not covered by any decoder case.
func TestMemoryUnmappedRegionReadsFF(t *testing.T) {
	rom := make([]byte, 0x10000)
	m := newTestMemory(rom, Header{}, ROMInfo{})
	if got := m.ReadByte(0x800000); got != 0xFF {
		t.Errorf("unmapped read = %02X, want FF", got)
	}
}

func TestMemoryROMSize(t *testing.T) {
	rom := make([]byte, 0x40000)
	m := newTestMemory(rom, Header{}, ROMInfo{})
	if got := m.ROMSize(); got != 0x40000 {
		t.Errorf("ROMSize() = %X, want 40000", got)
	}
}
