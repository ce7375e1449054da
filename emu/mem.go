package emu

import "encoding/binary"

const (
	workRAMSize  = 0x10000 // 64 KiB, mirrored across 0xFF0000-0xFFFFFF
	ssf2BankSize = 0x80000 // 512 KiB
	ssf2Banks    = 8
	ssf2Trigger  = 4 * 1024 * 1024
)

// Memory is the 68000-side 24-bit address space dispatcher: ROM (with
// SSF2 banking and SRAM/EEPROM overlay), 64 KiB work RAM, the Z80
// window, the I/O and VDP windows, and the SVP control window.
//
// It owns ROM/RAM/SRAM storage directly and holds borrowed references to
// the other components it dispatches to, per the "owning System struct,
// sub-borrows passed down" design.
type Memory struct {
	rom []byte

	ram [workRAMSize]byte

	sram        []byte
	sramEnabled bool
	sramEven    bool // populate only even bytes
	sramOdd     bool // populate only odd bytes
	sramStart   uint32
	sramEnd     uint32

	eeprom *EEPROM

	ssf2Enabled bool
	ssf2Bank    [ssf2Banks]int // logical bank -> physical 512 KiB slice index

	svp *SVP

	vdp *VDP
	io  *IO
	z80 *Z80Driver

	warn func(format string, args ...any)
}

// NewMemory builds the memory map for a loaded ROM. The header and
// per-title database entries decide whether SRAM, EEPROM or SSF2
// banking are wired in.
func NewMemory(rom []byte, h Header, info ROMInfo, vdp *VDP, io *IO, z80 *Z80Driver, svp *SVP, warn func(string, ...any)) *Memory {
	m := &Memory{rom: rom, vdp: vdp, io: io, z80: z80, svp: svp, warn: warn}

	if h.HasBackupRAM() && info.Backup != BackupEEPROM {
		m.sramStart = h.BackupStart
		m.sramEnd = h.BackupEnd
		m.sramEven = h.BackupIsEvenOnly()
		m.sramOdd = h.BackupIsOddOnly()
		size := int(m.sramEnd-m.sramStart) + 1
		if size <= 0 {
			size = 0x10000
		}
		m.sram = make([]byte, size)
	}

	if info.Backup == BackupEEPROM {
		m.eeprom = NewEEPROM(info.EEPROM)
	}

	if len(rom) >= ssf2Trigger || info.SSF2 {
		m.ssf2Enabled = true
		for i := range m.ssf2Bank {
			m.ssf2Bank[i] = i
		}
	}

	return m
}

func (m *Memory) warnf(format string, args ...any) {
	if m.warn != nil {
		m.warn(format, args...)
	}
}

// romByte resolves a ROM-space byte address through SSF2 banking when
// enabled.
func (m *Memory) romByte(addr uint32) byte {
	if m.ssf2Enabled {
		bank := (addr / ssf2BankSize) % ssf2Banks
		phys := m.ssf2Bank[bank]
		offset := addr % ssf2BankSize
		addr = uint32(phys)*ssf2BankSize + offset
	}
	if int(addr) >= len(m.rom) {
		return 0xFF
	}
	return m.rom[addr]
}

func (m *Memory) inSRAMOverlay(addr uint32) bool {
	return m.sram != nil && m.sramEnabled && addr >= m.sramStart && addr <= m.sramEnd
}

func (m *Memory) sramByte(addr uint32) byte {
	idx := int(addr - m.sramStart)
	if m.sramEven && addr%2 != 0 {
		return 0xFF
	}
	if m.sramOdd && addr%2 == 0 {
		return 0xFF
	}
	if idx < 0 || idx >= len(m.sram) {
		return 0xFF
	}
	return m.sram[idx]
}

func (m *Memory) setSRAMByte(addr uint32, v byte) {
	idx := int(addr - m.sramStart)
	if idx < 0 || idx >= len(m.sram) {
		return
	}
	if m.sramEven && addr%2 != 0 {
		return
	}
	if m.sramOdd && addr%2 == 0 {
		return
	}
	m.sram[idx] = v
}

// ReadByte reads one byte from the 24-bit address space.
func (m *Memory) ReadByte(addr uint32) byte {
	addr &= 0xFFFFFF
	switch {
	case addr <= 0x3FFFFF:
		if m.inSRAMOverlay(addr) {
			return m.sramByte(addr)
		}
		if m.eeprom != nil && m.eeprom.ClaimsAddress(addr) {
			return m.eeprom.ReadByte(addr)
		}
		return m.romByte(addr)

	case addr >= 0xA00000 && addr <= 0xA0FFFF:
		if !m.z80.BusGranted() {
			return 0xFF
		}
		return m.z80.ReadByte(addr - 0xA00000)

	case addr >= 0xA10000 && addr <= 0xA10FFF:
		return m.io.ReadByte(addr)

	case addr == 0xA11100 || addr == 0xA11101:
		if m.z80.BusGranted() {
			return 0x00
		}
		return 0x01

	case addr == 0xA130F1:
		if m.sramEnabled {
			return 0x01
		}
		return 0x00

	case addr >= 0xA130F3 && addr <= 0xA130FF && addr%2 == 1:
		bank := int((addr-0xA130F1)/2)
		if bank >= 1 && bank < ssf2Banks {
			return byte(m.ssf2Bank[bank])
		}
		return 0xFF

	case m.svp != nil && addr >= 0xA15000 && addr <= 0xA1500F:
		return m.svp.ReadControlByte(addr - 0xA15000)

	case addr >= 0xC00000 && addr <= 0xC0001F:
		return m.vdp.ReadByte(addr)

	case addr >= 0xFF0000:
		return m.ram[addr%workRAMSize]

	default:
		m.warnf("emu: read from unmapped address %06X", addr)
		return 0xFF
	}
}

// WriteByte writes one byte to the 24-bit address space.
func (m *Memory) WriteByte(addr uint32, v byte) {
	addr &= 0xFFFFFF
	switch {
	case addr <= 0x3FFFFF:
		if m.inSRAMOverlay(addr) {
			m.setSRAMByte(addr, v)
			return
		}
		if m.eeprom != nil && m.eeprom.ClaimsAddress(addr) {
			m.eeprom.WriteByte(addr, v)
			return
		}
		// ROM space is read-only to the guest outside of SRAM/EEPROM
		// overlays; ignore.

	case addr >= 0xA00000 && addr <= 0xA0FFFF:
		if m.z80.BusGranted() {
			m.z80.WriteByte(addr-0xA00000, v)
		}

	case addr >= 0xA10000 && addr <= 0xA10FFF:
		m.io.WriteByte(addr, v)

	case addr == 0xA11100 || addr == 0xA11101:
		// The control bit is bit 0 of the even byte (bit 8 of a word
		// write); the odd byte is ignored.
		if addr == 0xA11100 {
			m.z80.RequestBus(v&0x01 != 0)
		}

	case addr == 0xA11200 || addr == 0xA11201:
		if addr == 0xA11200 {
			m.z80.SetReset(v&0x01 == 0)
		}

	case addr == 0xA130F1:
		m.sramEnabled = v&0x01 != 0

	case addr >= 0xA130F3 && addr <= 0xA130FF && addr%2 == 1:
		if !m.ssf2Enabled {
			return
		}
		bank := int((addr - 0xA130F1) / 2)
		if bank >= 1 && bank < ssf2Banks {
			m.ssf2Bank[bank] = int(v) & (len(m.rom)/ssf2BankSize - 1)
		}

	case m.svp != nil && addr >= 0xA15000 && addr <= 0xA1500F:
		m.svp.WriteControlByte(addr-0xA15000, v)

	case addr >= 0xC00000 && addr <= 0xC0001F:
		m.vdp.WriteByte(addr, v)

	case addr >= 0xFF0000:
		m.ram[addr%workRAMSize] = v

	default:
		m.warnf("emu: write to unmapped address %06X = %02X", addr, v)
	}
}

// ReadWord and WriteWord compose two big-endian ReadByte/WriteByte
// calls; the 68000 bus is natively 16-bit big-endian, and
// every side-effecting decoder above reacts correctly to either byte of
// a word access since guests normally access these regions by word.
func (m *Memory) ReadWord(addr uint32) uint16 {
	if addr >= 0xC00000 && addr <= 0xC0001F {
		return m.vdp.ReadWord(addr)
	}
	hi := m.ReadByte(addr)
	lo := m.ReadByte(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (m *Memory) WriteWord(addr uint32, v uint16) {
	if addr >= 0xC00000 && addr <= 0xC0001F {
		m.vdp.WriteWord(addr, v)
		return
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	m.WriteByte(addr, buf[0])
	m.WriteByte(addr+1, buf[1])
}

func (m *Memory) ReadLong(addr uint32) uint32 {
	return uint32(m.ReadWord(addr))<<16 | uint32(m.ReadWord(addr+2))
}

func (m *Memory) WriteLong(addr uint32, v uint32) {
	m.WriteWord(addr, uint16(v>>16))
	m.WriteWord(addr+2, uint16(v))
}

// ROMSize reports the loaded ROM's byte length, used by SSF2 bank-mask
// calculations and the save-state header.
func (m *Memory) ROMSize() int { return len(m.rom) }
