package emu

import "testing"

// TestVDPControlPortTwoWriteLatch checks a register write (CD bit pattern
// 0b10 in the high nibble) takes effect in a single write, while a
// VRAM-address command needs both words of the two-write latch.
func TestVDPControlPortTwoWriteLatch(t *testing.T) {
	v := NewVDP(RegionNTSC, nil)

	v.WriteControl(0x8160) // reg 1 = 0x60 (display+vint enabled)
	if !v.displayEnabled() || !v.vintEnabled() {
		t.Fatalf("register write did not take effect: reg[1] = %02X", v.reg[1])
	}

	v.WriteControl(0x4000) // first word: low 14 bits of address, CD1:0
	if !v.writeLatch {
		t.Fatal("first control word did not arm the write latch")
	}
	v.WriteControl(0x0001) // second word: CD5:2 and high address bits
	if v.writeLatch {
		t.Error("second control word did not clear the write latch")
	}
	if v.addr != 0x4000 {
		t.Errorf("latched address = %04X, want 4000", v.addr)
	}
}

// TestVDPDMAFillWritesPattern exercises a VRAM fill DMA end to end: set
// up the address/length/source registers, issue the DMA command, write
// the fill value, then step until the transfer completes.
func TestVDPDMAFillWritesPattern(t *testing.T) {
	v := NewVDP(RegionNTSC, nil)
	v.WriteControl(0x8114) // reg 1: DMA enabled
	v.WriteControl(0x8F02) // reg 15: auto-increment = 2

	v.WriteControl(0x9304) // reg 19: DMA length low = 4
	v.WriteControl(0x9400) // reg 20: DMA length high = 0
	v.WriteControl(0x9500) // reg 21: DMA source low = 0
	v.WriteControl(0x9600) // reg 22: DMA source mid = 0
	v.WriteControl(0x9780) // reg 23: DMA source high, CD5:4 = 10 (fill)

	v.WriteControl(0x4000) // first word of address latch
	v.WriteControl(0x0081) // second word: VRAM write code, DMA trigger bit set, addr = 0x4000

	if v.dmaState != dmaFill {
		t.Fatalf("dmaState = %v, want dmaFill", v.dmaState)
	}

	v.WriteData(0x00AB) // fill byte comes from the low byte of this write; also
	// performs a normal VRAM word write at the current address first.

	for i := 0; i < 10 && v.dmaState != dmaNone; i++ {
		v.StepDMA()
	}
	if v.dmaState != dmaNone {
		t.Fatal("DMA fill never completed")
	}
	// The fill loop itself writes starting at the address left behind by
	// the arming WriteData call (0x4002, auto-increment 2).
	if v.vram[0x4002] != 0xAB || v.vram[0x4004] != 0xAB || v.vram[0x4006] != 0xAB || v.vram[0x4008] != 0xAB {
		t.Errorf("VRAM fill pattern mismatch: %02X %02X %02X %02X",
			v.vram[0x4002], v.vram[0x4004], v.vram[0x4006], v.vram[0x4008])
	}
}

// TestVDPHVCounterContinuity checks the H counter ramps monotonically
// within a line width before the blanking-region jump, matching the
// piecewise ramp GetHCounterForCycle implements.
func TestVDPHVCounterContinuity(t *testing.T) {
	for cycle := 0; cycle <= 0x93; cycle++ {
		if got := GetHCounterForCycle(cycle, false); got != byte(cycle) {
			t.Fatalf("H32 cycle %d: HCounter = %02X, want %02X", cycle, got, cycle)
		}
	}
	// past the ramp, the counter jumps across the blanking gap rather
	// than continuing to climb by 1 from 0x93.
	jumped := GetHCounterForCycle(0x94, false)
	if jumped != 0xEA {
		t.Errorf("post-blank HCounter = %02X, want EA", jumped)
	}
}

// TestVDPFrameCompletionAndVBlank drives Advance() across an entire
// frame's worth of scanlines and checks the frame-completed flag and
// VBlank status both fire once per frame, at the documented boundaries.
func TestVDPFrameCompletionAndVBlank(t *testing.T) {
	v := NewVDP(RegionNTSC, nil)
	v.SetCyclesPerLine(3420) // representative NTSC master-cycles-per-line

	sawVBlank := false
	for line := 0; line < v.totalScanlines; line++ {
		v.Advance(3420)
		if v.inVBlank {
			sawVBlank = true
		}
	}
	if !sawVBlank {
		t.Error("VBlank never asserted across a full frame")
	}
	if !v.ConsumeFrameCompleted() {
		t.Error("frame-completed flag not set after a full frame of Advance()")
	}
	if v.ConsumeFrameCompleted() {
		t.Error("ConsumeFrameCompleted did not clear the flag")
	}
}

func TestVDPActiveHeightV28VsV30(t *testing.T) {
	v := NewVDP(RegionNTSC, nil)
	if v.ActiveHeight() != 224 {
		t.Errorf("default ActiveHeight = %d, want 224", v.ActiveHeight())
	}
	v.WriteControl(0x8108) // reg 1 bit 3 (V30) set
	if v.ActiveHeight() != 240 {
		t.Errorf("V30 ActiveHeight = %d, want 240", v.ActiveHeight())
	}
}
