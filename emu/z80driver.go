package emu

import (
	"github.com/koron-go/z80"
)

const z80RAMSize = 0x2000 // 8 KiB at Z80 0x0000-0x1FFF, not mirrored

// z80Bus adapts the Z80 co-processor's private memory plus its window
// into FM/bank registers to github.com/koron-go/z80's Memory/IO
// interfaces.
type z80Bus struct {
	ram [z80RAMSize]byte
	fm  *FM
	psg *PSG

	bankRegister uint32 // 68000-space bank for Z80->68000 indirect access
	bankBit      uint
}

func (b *z80Bus) ReadByte(addr uint16) byte {
	switch {
	case addr < 0x2000:
		return b.ram[addr]
	case addr >= 0x4000 && addr <= 0x4003:
		return b.fm.ReadStatus()
	case addr == 0x6000:
		return 0xFF
	case addr == 0x7F11:
		return 0xFF
	default:
		return 0xFF
	}
}

func (b *z80Bus) WriteByte(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		b.ram[addr] = v
	case addr >= 0x4000 && addr <= 0x4003:
		b.fm.WriteRegister(addr, v)
	case addr == 0x6000:
		b.bankRegister = (b.bankRegister >> 1) | (uint32(v&1) << 8)
		b.bankBit++
		if b.bankBit == 9 {
			b.bankBit = 0
		}
	case addr == 0x7F11:
		if b.psg != nil {
			b.psg.Write(v)
		}
	}
}

func (b *z80Bus) In(port byte) byte  { return 0xFF }
func (b *z80Bus) Out(port byte, v byte) {}

// Z80Driver gates an external Z80 core behind the 68000's bus-request
// and reset lines and exposes the
// memory window the 68000 sees at 0xA00000-0xA0FFFF.
type Z80Driver struct {
	cpu *z80.CPU
	bus *z80Bus

	busRequested bool // 68000 asked to own the bus (halts the Z80)
	resetHeld    bool
}

// NewZ80Driver constructs the co-processor wired to the shared FM and
// PSG instances, wrapping the external Z80 core the same way the main
// CPU's cycle-budget loop does, but driving the secondary Z80 rather
// than the main CPU.
func NewZ80Driver(fm *FM, psg *PSG) *Z80Driver {
	bus := &z80Bus{fm: fm, psg: psg}
	cpu := z80.NewCPU(bus, bus)
	d := &Z80Driver{cpu: cpu, bus: bus}
	d.resetHeld = true
	return d
}

// BusGranted reports whether the 68000 currently owns the Z80 bus (and
// the Z80 core is therefore halted).
func (d *Z80Driver) BusGranted() bool { return d.busRequested }

func (d *Z80Driver) RequestBus(request bool) { d.busRequested = request }

// SetReset applies the Z80 reset line. The main loop's reset sequence
// asserts and releases this explicitly; FM reset piggybacks
// on this line, matching real hardware.
func (d *Z80Driver) SetReset(held bool) {
	if held && !d.resetHeld {
		d.cpu.Reset()
		if d.bus.fm != nil {
			d.bus.fm.Reset()
		}
	}
	d.resetHeld = held
}

func (d *Z80Driver) ReadByte(addr uint32) byte  { return d.bus.ReadByte(uint16(addr)) }
func (d *Z80Driver) WriteByte(addr uint32, v byte) { d.bus.WriteByte(uint16(addr), v) }

// Advance runs the Z80 for n 68000-master-cycles worth of Z80 cycles
// (7/15 ratio), unless the bus is granted to the 68000 or
// reset is held.
func (d *Z80Driver) Advance(n int) {
	if d.busRequested || d.resetHeld {
		return
	}
	owed := n * 7 / 15
	for owed > 0 {
		owed -= d.cpu.Step()
	}
}
