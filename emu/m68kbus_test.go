package emu

import (
	"testing"

	m68k "github.com/user-none/go-chip-m68k"
)

// m68kBus must satisfy the real library's Bus interface; a compile-time
// mismatch here is the bug the rest of this file can't catch.
var _ m68k.Bus = (*m68kBus)(nil)

func TestM68kBusByteWordLongDelegation(t *testing.T) {
	mem := newTestMemory(make([]byte, 0x10000), Header{}, ROMInfo{})
	b := newM68kBus(mem)

	b.Write(m68k.Byte, 0xFF0000, 0xAB)
	if got := b.Read(m68k.Byte, 0xFF0000); got != 0xAB {
		t.Errorf("Read(Byte) = %02X, want AB", got)
	}

	b.Write(m68k.Word, 0xFF0010, 0x1234)
	if got := b.Read(m68k.Word, 0xFF0010); got != 0x1234 {
		t.Errorf("Read(Word) = %04X, want 1234", got)
	}

	b.Write(m68k.Long, 0xFF0020, 0xDEADBEEF)
	if got := b.Read(m68k.Long, 0xFF0020); got != 0xDEADBEEF {
		t.Errorf("Read(Long) = %08X, want DEADBEEF", got)
	}
}

func TestM68kBusResetIsANoOp(t *testing.T) {
	mem := newTestMemory(make([]byte, 0x10000), Header{}, ROMInfo{})
	b := newM68kBus(mem)
	b.Write(m68k.Byte, 0xFF0000, 0x55)
	b.Reset()
	if got := b.Read(m68k.Byte, 0xFF0000); got != 0x55 {
		t.Errorf("Reset() disturbed memory: Read(Byte) = %02X, want 55", got)
	}
}
