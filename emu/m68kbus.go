package emu

import m68k "github.com/user-none/go-chip-m68k"

// m68kBus adapts *Memory to github.com/user-none/go-chip-m68k's Bus
// interface: sized reads and writes over a 24-bit address space. The
// CPU masks addresses to 24 bits before calling, so no masking happens
// here.
type m68kBus struct {
	mem *Memory
}

func newM68kBus(mem *Memory) *m68kBus { return &m68kBus{mem: mem} }

func (b *m68kBus) Read(op m68k.Size, addr uint32) uint32 {
	switch op {
	case m68k.Byte:
		return uint32(b.mem.ReadByte(addr))
	case m68k.Word:
		return uint32(b.mem.ReadWord(addr))
	default:
		return b.mem.ReadLong(addr)
	}
}

func (b *m68kBus) Write(op m68k.Size, addr uint32, val uint32) {
	switch op {
	case m68k.Byte:
		b.mem.WriteByte(addr, byte(val))
	case m68k.Word:
		b.mem.WriteWord(addr, uint16(val))
	default:
		b.mem.WriteLong(addr, val)
	}
}

// Reset satisfies the Bus interface. Memory carries no state that needs
// clearing on a 68000-only reset: work RAM, SRAM and VRAM all persist
// across it on real hardware too, and every other chip resets through
// its own Reset/SetReset path.
func (b *m68kBus) Reset() {}
