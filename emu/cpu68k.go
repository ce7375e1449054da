package emu

import (
	m68k "github.com/user-none/go-chip-m68k"
)

// CPU68K wraps the external 68000 interpreter with the
// interrupt-vector bookkeeping the VDP needs (HInt level 4, VInt level
// 6).
type CPU68K struct {
	core *m68k.CPU
}

// NewCPU68K builds the main CPU over the given memory map.
func NewCPU68K(mem *Memory) *CPU68K {
	bus := newM68kBus(mem)
	return &CPU68K{core: m68k.New(bus)}
}

// Reset asserts the 68000's own reset, reloading SP/PC from vectors 0/1.
func (c *CPU68K) Reset() { c.core.Reset() }

// Step executes exactly one instruction and returns its cycle cost.
func (c *CPU68K) Step() int { return c.core.Step() }

// AddCycles credits n master cycles to the CPU without executing an
// instruction, accounting for bus-hold periods such as VDP DMA seizing
// the 68000 bus.
func (c *CPU68K) AddCycles(n int) { c.core.AddCycles(uint64(n)) }

// RequestInterrupt raises an autovectored interrupt at the given level.
// The VDP uses level 6 for VInt and level 4 for HInt.
func (c *CPU68K) RequestInterrupt(level uint8) {
	c.core.RequestInterrupt(level, nil)
}

func (c *CPU68K) Halted() bool { return c.core.Halted() }

// Registers/SetState expose the CPU's architectural state for save-
// states.
func (c *CPU68K) Registers() m68k.Registers { return c.core.Registers() }
func (c *CPU68K) SetState(r m68k.Registers) { c.core.SetState(r) }
