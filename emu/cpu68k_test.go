package emu

import "testing"

// TestCPU68KResetLoadsVectorsFromMemory checks the power-on reset
// reads the initial SSP from address 0 and PC from address 4, and
// enters supervisor mode with interrupts masked (SR=0x2700). This
// exercises real m68k.CPU behavior without decoding any instruction.
func TestCPU68KResetLoadsVectorsFromMemory(t *testing.T) {
	rom := make([]byte, 0x10000)
	be32(rom[0:], 0x00FFAA00)
	be32(rom[4:], 0x00001000)
	mem := newTestMemory(rom, Header{}, ROMInfo{})

	cpu := NewCPU68K(mem)
	regs := cpu.Registers()
	if regs.SSP != 0x00FFAA00 {
		t.Errorf("SSP = %08X, want 00FFAA00", regs.SSP)
	}
	if regs.PC != 0x00001000 {
		t.Errorf("PC = %08X, want 00001000", regs.PC)
	}
	if regs.SR != 0x2700 {
		t.Errorf("SR = %04X, want 2700", regs.SR)
	}
	if cpu.Halted() {
		t.Error("fresh CPU should not be halted")
	}
}

// TestCPU68KResetAfterExplicitCallReloadsVectors checks a later, explicit
// Reset() call re-reads the vectors, matching what System.Reset() relies
// on.
func TestCPU68KResetAfterExplicitCallReloadsVectors(t *testing.T) {
	rom := make([]byte, 0x10000)
	mem := newTestMemory(rom, Header{}, ROMInfo{})
	cpu := NewCPU68K(mem)

	// ROM space ignores bus writes; the vectors change in the backing slice.
	be32(rom[0:], 0x00FF0000)
	be32(rom[4:], 0x00002000)
	cpu.Reset()

	regs := cpu.Registers()
	if regs.PC != 0x00002000 {
		t.Errorf("PC after Reset = %08X, want 00002000", regs.PC)
	}
	if regs.SSP != 0x00FF0000 {
		t.Errorf("SSP after Reset = %08X, want 00FF0000", regs.SSP)
	}
}

// TestCPU68KAddCyclesAccumulatesOnCore checks DMA-stall cycle credit
// lands on the real core's cycle counter rather than a parallel ledger.
func TestCPU68KAddCyclesAccumulatesOnCore(t *testing.T) {
	mem := newTestMemory(make([]byte, 0x10000), Header{}, ROMInfo{})
	cpu := NewCPU68K(mem)

	before := cpu.core.Cycles()
	cpu.AddCycles(12)
	if got := cpu.core.Cycles() - before; got != 12 {
		t.Errorf("Cycles delta after AddCycles(12) = %d, want 12", got)
	}
}

func TestCPU68KSetStateRoundTrip(t *testing.T) {
	mem := newTestMemory(make([]byte, 0x10000), Header{}, ROMInfo{})
	cpu := NewCPU68K(mem)

	want := cpu.Registers()
	want.D[0] = 0x11223344
	want.PC = 0x00004000
	cpu.SetState(want)

	got := cpu.Registers()
	if got.D[0] != want.D[0] || got.PC != want.PC {
		t.Errorf("Registers() after SetState = %+v, want %+v", got, want)
	}
}
