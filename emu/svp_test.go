package emu

import "testing"

func TestSVPRegisterDirectLoad(t *testing.T) {
	s := NewSVP(0)
	s.x = 0x55
	s.iram[0] = 0x1000 | (1 << 4) | 0 // LD y <- x

	s.Step()
	if s.y != 0x55 {
		t.Errorf("y = %04X, want 55", s.y)
	}
	if s.pc != 1 {
		t.Errorf("pc after one instruction = %d, want 1", s.pc)
	}
}

func TestSVPArithmeticAdd(t *testing.T) {
	s := NewSVP(0)
	s.x, s.y = 5, 3
	s.iram[0] = 0x2000 | 0<<8 | 0<<4 | 1 // x = x + y

	s.Step()
	if s.x != 8 {
		t.Errorf("x = %d, want 8", s.x)
	}
	if s.st&0x03 != 0 {
		t.Errorf("flags = %02X, want 0 (not zero, not negative)", s.st&0x03)
	}
}

func TestSVPArithmeticCompareNoWriteback(t *testing.T) {
	s := NewSVP(0)
	s.x, s.y = 5, 5
	s.iram[0] = 0x2000 | 2<<8 | 0<<4 | 1 // cmp x, y

	s.Step()
	if s.x != 5 {
		t.Errorf("compare wrote back to x: x = %d, want unchanged 5", s.x)
	}
	if s.st&0x01 == 0 {
		t.Error("equal compare did not set the zero flag")
	}
}

func TestSVPUnconditionalJump(t *testing.T) {
	s := NewSVP(0)
	s.iram[0] = 0x3000 // cond = condTrue, no call
	s.iram[1] = 0x0010

	s.Step()
	if s.pc != 0x10 {
		t.Errorf("pc = %04X, want 0010", s.pc)
	}
}

func TestSVPCallPushesReturnAddress(t *testing.T) {
	s := NewSVP(0)
	s.iram[0] = 0x3800 // call bit set, cond = condTrue
	s.iram[1] = 0x0020

	s.Step()
	if s.pc != 0x20 {
		t.Errorf("pc after call = %04X, want 0020", s.pc)
	}
	if s.sp != 1 || s.stack[0] != 2 {
		t.Errorf("call stack = %v (sp=%d), want [2] (sp=1)", s.stack[:s.sp], s.sp)
	}
}

func TestSVPConditionalBranchNotTaken(t *testing.T) {
	s := NewSVP(0)
	s.st &^= 0x01 // zero flag clear
	s.iram[0] = 0x3000 | 1 // cond = condZ
	s.iram[1] = 0x0099

	s.Step()
	if s.pc != 2 {
		t.Errorf("pc = %d, want 2 (branch not taken, both words consumed)", s.pc)
	}
}

// TestSVPPointerProgrammingThenWrite drives the three-step pointer
// protocol (PMC address, PMC mode, then a pointer access instruction)
// end to end through Step(), matching the real guest code sequence.
func TestSVPPointerProgrammingThenWrite(t *testing.T) {
	s := NewSVP(0)
	s.iram[0] = 0x4400 // program PMC: pointer 0, address phase
	s.iram[1] = 0x0005
	s.iram[2] = 0x4400 // program PMC: pointer 0, mode phase
	s.iram[3] = 0x0000
	s.iram[4] = 0x4001 // pointer 0 write access
	s.iram[5] = 0xABCD // data word

	s.Step() // consumes address word
	s.Step() // consumes mode word, pmcPhase -> pmcSet
	s.Step() // arms pointer 0 for write and writes the data word

	if s.dram[5] != 0xABCD {
		t.Errorf("dram[5] = %04X, want ABCD", s.dram[5])
	}
	if s.pm[0].addr != 5 {
		t.Errorf("pointer 0 addr = %d, want 5", s.pm[0].addr)
	}
}

func TestSVPReadPointerAdvancesAddress(t *testing.T) {
	s := NewSVP(0)
	s.dram[10] = 0x1234
	s.pm[0].addr = 10
	s.pm[0].readMode = 0x01 // auto-increment

	v := s.ReadPointer(0)
	if v != 0x1234 {
		t.Errorf("ReadPointer = %04X, want 1234", v)
	}
	if s.pm[0].addr != 11 {
		t.Errorf("pointer addr after read = %d, want 11 (auto-increment)", s.pm[0].addr)
	}
}

func TestSVPHaltedSkipsStep(t *testing.T) {
	s := NewSVP(0)
	s.halted = true
	s.iram[0] = 0x3000
	s.iram[1] = 0x0010

	s.Step()
	if s.pc != 0 {
		t.Errorf("halted Step() advanced pc to %d, want 0", s.pc)
	}
}

func TestSVPControlByteHaltToggle(t *testing.T) {
	s := NewSVP(0)
	s.WriteControlByte(0, 0x00)
	if !s.halted {
		t.Error("control byte with run bit clear should halt")
	}
	s.WriteControlByte(0, 0x01)
	if s.halted {
		t.Error("control byte with run bit set should clear halt")
	}
	if got := s.ReadControlByte(0); got != 0x01 {
		t.Errorf("ReadControlByte = %02X, want 01", got)
	}
}
