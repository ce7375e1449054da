package emu

import "testing"

// eepromPulse drives one value onto the combined SDA/SCL word the Sega1
// pin map uses (both lines share word 0x200000, bit 0 and bit 1).
func eepromPulse(e *EEPROM, scl, sda bool) {
	var v byte
	if sda {
		v |= 1
	}
	if scl {
		v |= 2
	}
	e.WriteByte(0x200000, v)
}

// eepromClockBit bit-bangs one data bit: set SDA while SCL is low, then
// raise SCL to sample it (I2C rising-edge sampling).
func eepromClockBit(e *EEPROM, bitVal bool) {
	eepromPulse(e, false, bitVal)
	eepromPulse(e, true, bitVal)
}

func eepromClockByte(e *EEPROM, b byte) {
	for i := 7; i >= 0; i-- {
		eepromClockBit(e, b&(1<<uint(i)) != 0)
	}
}

// TestEEPROMSega1WriteByte drives a full START / device-address /
// word-address / data-byte / STOP sequence through the Sega1 pin map
// and checks the byte lands at the expected offset.
func TestEEPROMSega1WriteByte(t *testing.T) {
	e := NewEEPROM(EepromSega1)

	eepromPulse(e, true, true)  // idle high
	eepromPulse(e, true, false) // START: SDA falls while SCL high

	eepromClockByte(e, 0xA0) // device address, write mode (LSB=0)
	eepromClockByte(e, 0x05) // word address (1 byte for Sega1)
	eepromClockByte(e, 0x42) // data byte

	eepromPulse(e, true, true) // STOP: SDA rises while SCL high

	if e.data[5] != 0x42 {
		t.Fatalf("data[5] = %02X, want 42", e.data[5])
	}
	if e.state != i2cIdle {
		t.Errorf("state after STOP = %v, want i2cIdle", e.state)
	}
}

func TestEEPROMClaimsAddress(t *testing.T) {
	e := NewEEPROM(EepromSega1)
	if !e.ClaimsAddress(0x200000) {
		t.Error("ClaimsAddress(0x200000) = false, want true for Sega1")
	}
	if e.ClaimsAddress(0x200002) {
		t.Error("ClaimsAddress(0x200002) = true, want false for Sega1")
	}
}

// TestEEPROMNoneVariantIsNilSafe checks that the none-variant stub
// returned by NewEEPROM never claims an address, which is what lets
// mem.go skip straight to ROM/SRAM dispatch without a nil check on
// every access. ReadByte/WriteByte are only ever reached after a
// ClaimsAddress check in mem.go, so they aren't exercised here.
func TestEEPROMNoneVariantIsNilSafe(t *testing.T) {
	e := NewEEPROM(EepromNone)
	if e != nil {
		t.Fatal("NewEEPROM(EepromNone) should return nil")
	}
	if e.ClaimsAddress(0x200000) {
		t.Error("nil EEPROM should never claim an address")
	}
	if e.StateBytes() != nil {
		t.Error("nil EEPROM StateBytes should return nil")
	}
}

func TestEEPROMStateRoundTrip(t *testing.T) {
	e := NewEEPROM(EepromSega1)
	e.data[10] = 0x77

	saved := e.StateBytes()

	e2 := NewEEPROM(EepromSega1)
	e2.LoadStateBytes(saved)
	if e2.data[10] != 0x77 {
		t.Errorf("restored data[10] = %02X, want 77", e2.data[10])
	}
}
