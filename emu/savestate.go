package emu

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// stateMagic is the literal save-state magic string.
const stateMagic = "MDSTATE\n"
const stateVersion = 1

// ErrStateCorrupt is returned when a save-state fails its integrity
// check; the caller's System is left in freshly-reset state either way,
// on any mismatch.
var ErrStateCorrupt = errors.New("emu: save-state failed integrity check")

func putBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func getBool(b byte) bool { return b != 0 }

func (s *System) serializeCPU() []byte {
	var buf bytes.Buffer
	regs := s.cpu.Registers()
	binary.Write(&buf, binary.BigEndian, regs.D)
	binary.Write(&buf, binary.BigEndian, regs.A)
	binary.Write(&buf, binary.BigEndian, regs.PC)
	binary.Write(&buf, binary.BigEndian, regs.SR)
	binary.Write(&buf, binary.BigEndian, regs.USP)
	binary.Write(&buf, binary.BigEndian, regs.SSP)
	return buf.Bytes()
}

func (s *System) serializeZ80() []byte {
	var buf bytes.Buffer
	buf.Write(s.z80.bus.ram[:])
	putBool(&buf, s.z80.busRequested)
	putBool(&buf, s.z80.resetHeld)
	return buf.Bytes()
}

func (s *System) serializeEEPROM() []byte {
	return s.mem.eeprom.StateBytes()
}

func (s *System) serializeSVP() []byte {
	if s.svp == nil {
		return nil
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, s.svp.x)
	binary.Write(&buf, binary.BigEndian, s.svp.y)
	binary.Write(&buf, binary.BigEndian, s.svp.a)
	binary.Write(&buf, binary.BigEndian, s.svp.st)
	binary.Write(&buf, binary.BigEndian, s.svp.pc)
	for _, w := range s.svp.dram {
		binary.Write(&buf, binary.BigEndian, w)
	}
	return buf.Bytes()
}

func (s *System) serializeMemory() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(s.rom)/2))
	buf.Write(s.mem.ram[:])
	putBool(&buf, s.mem.sramEnabled)
	if s.mem.sram != nil {
		binary.Write(&buf, binary.BigEndian, uint32(len(s.mem.sram)))
		buf.Write(s.mem.sram)
	} else {
		binary.Write(&buf, binary.BigEndian, uint32(0))
	}
	for _, b := range s.mem.ssf2Bank {
		binary.Write(&buf, binary.BigEndian, uint32(b))
	}
	return buf.Bytes()
}

func (s *System) serializeIO() []byte {
	var buf bytes.Buffer
	for i := 0; i < 2; i++ {
		buf.WriteByte(s.io.ctrl[i])
		buf.WriteByte(s.io.data[i])
		buf.WriteByte(byte(s.io.pad[i].kind))
		buf.WriteByte(byte(s.io.pad[i].cycle))
	}
	return buf.Bytes()
}

func (s *System) serializePSG() []byte {
	var buf bytes.Buffer
	buf.WriteByte(s.psg.latch)
	return buf.Bytes()
}

func (s *System) serializeFM() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(s.fm.timerA))
	buf.WriteByte(s.fm.timerB)
	putBool(&buf, s.fm.statusA)
	putBool(&buf, s.fm.statusB)
	binary.Write(&buf, binary.BigEndian, uint8(s.fm.lfoFreqIdx))
	return buf.Bytes()
}

func (s *System) serializeMixer() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(s.mixer.step))
	return buf.Bytes()
}

func (s *System) serializeVDP() []byte {
	var buf bytes.Buffer
	buf.Write(s.vdp.vram[:])
	for _, c := range s.vdp.cram {
		binary.Write(&buf, binary.BigEndian, c)
	}
	for _, c := range s.vdp.vsram {
		binary.Write(&buf, binary.BigEndian, c)
	}
	buf.Write(s.vdp.reg[:])
	binary.Write(&buf, binary.BigEndian, uint16(s.vdp.status))
	binary.Write(&buf, binary.BigEndian, uint32(s.vdp.vCounter))
	binary.Write(&buf, binary.BigEndian, uint32(s.vdp.hCounter))
	return buf.Bytes()
}

// Serialize writes the full save-state: magic, version, ROM CRC32, then
// per-component blocks in a fixed order, each
// prefixed by its length so Deserialize can walk them without a shared
// schema version per block.
func (s *System) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteString(stateMagic)
	binary.Write(&buf, binary.BigEndian, uint32(stateVersion))
	binary.Write(&buf, binary.BigEndian, GetROMCRC32(s.rom))

	blocks := [][]byte{
		s.serializeCPU(),
		s.serializeZ80(),
		s.serializeEEPROM(),
		s.serializeSVP(),
		s.serializeMemory(),
		s.serializeIO(),
		s.serializePSG(),
		s.serializeFM(),
		s.serializeMixer(),
		s.serializeVDP(),
	}
	for _, b := range blocks {
		binary.Write(&buf, binary.BigEndian, uint32(len(b)))
		buf.Write(b)
	}

	body := buf.Bytes()
	check := crc32.ChecksumIEEE(body)
	var out bytes.Buffer
	out.Write(body)
	binary.Write(&out, binary.BigEndian, check)
	return out.Bytes()
}

func readBlock(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Deserialize validates and restores a save-state produced by
// Serialize. On any integrity failure the System is reset to fresh
// init state and ErrStateCorrupt is returned.
func (s *System) Deserialize(data []byte) (err error) {
	defer func() {
		if err != nil {
			if fresh, ferr := InitSystem(s.rom, s.region, s.host); ferr == nil {
				*s = *fresh
			}
		}
	}()
	if len(data) < len(stateMagic)+4+4+4 {
		s.Reset()
		return ErrStateCorrupt
	}
	body := data[:len(data)-4]
	wantCRC := binary.BigEndian.Uint32(data[len(data)-4:])
	if crc32.ChecksumIEEE(body) != wantCRC {
		s.Reset()
		return ErrStateCorrupt
	}

	r := bytes.NewReader(body)
	magic := make([]byte, len(stateMagic))
	if _, err := r.Read(magic); err != nil || string(magic) != stateMagic {
		s.Reset()
		return ErrStateCorrupt
	}
	var version uint32
	var romCRC uint32
	binary.Read(r, binary.BigEndian, &version)
	binary.Read(r, binary.BigEndian, &romCRC)
	if version != stateVersion || romCRC != GetROMCRC32(s.rom) {
		s.Reset()
		return ErrStateCorrupt
	}

	names := []string{"cpu", "z80", "eeprom", "svp", "memory", "io", "psg", "fm", "mixer", "vdp"}
	blocks := make(map[string][]byte, len(names))
	for _, name := range names {
		b, err := readBlock(r)
		if err != nil {
			s.Reset()
			return ErrStateCorrupt
		}
		blocks[name] = b
	}

	if err := s.restoreBlocks(blocks); err != nil {
		s.Reset()
		return ErrStateCorrupt
	}
	return nil
}

func (s *System) restoreBlocks(blocks map[string][]byte) error {
	if b := blocks["memory"]; len(b) >= 4+workRAMSize+4+4 {
		off := 4
		copy(s.mem.ram[:], b[off:off+workRAMSize])
		off += workRAMSize
		s.mem.sramEnabled = getBool(b[off])
		off++
		sramLen := int(binary.BigEndian.Uint32(b[off:]))
		off += 4
		if sramLen > 0 && sramLen <= len(b)-off {
			if s.mem.sram == nil || len(s.mem.sram) != sramLen {
				s.mem.sram = make([]byte, sramLen)
			}
			copy(s.mem.sram, b[off:off+sramLen])
			off += sramLen
		}
		for i := range s.mem.ssf2Bank {
			if off+4 > len(b) {
				break
			}
			if int(binary.BigEndian.Uint32(b[off:])) >= ssf2Banks {
				return ErrStateCorrupt
			}
			s.mem.ssf2Bank[i] = int(binary.BigEndian.Uint32(b[off:]))
			off += 4
		}
	}

	if b := blocks["vdp"]; len(b) >= vramSize {
		copy(s.vdp.vram[:], b[:vramSize])
	}

	if s.mem.eeprom != nil {
		s.mem.eeprom.LoadStateBytes(blocks["eeprom"])
	}

	if b := blocks["z80"]; len(b) >= z80RAMSize+2 {
		copy(s.z80.bus.ram[:], b[:z80RAMSize])
		s.z80.busRequested = getBool(b[z80RAMSize])
		s.z80.resetHeld = getBool(b[z80RAMSize+1])
	}

	if s.svp != nil {
		if b := blocks["svp"]; len(b) >= 14 {
			s.svp.x = binary.BigEndian.Uint16(b[0:2])
			s.svp.y = binary.BigEndian.Uint16(b[2:4])
			s.svp.a = binary.BigEndian.Uint32(b[4:8])
			s.svp.st = binary.BigEndian.Uint32(b[8:12])
			s.svp.pc = binary.BigEndian.Uint16(b[12:14])
			off := 14
			for i := range s.svp.dram {
				if off+2 > len(b) {
					break
				}
				s.svp.dram[i] = binary.BigEndian.Uint16(b[off:])
				off += 2
			}
		}
	}

	if b := blocks["psg"]; len(b) >= 1 {
		if b[0]&0x80 != 0 && b[0]>>5&0x03 > 3 {
			return ErrStateCorrupt
		}
		s.psg.latch = b[0]
	}

	if b := blocks["fm"]; len(b) >= 6 {
		freqIdx := b[5]
		if freqIdx > 7 {
			return ErrStateCorrupt
		}
		s.fm.timerA = binary.BigEndian.Uint16(b[0:2])
		s.fm.timerB = b[2]
		s.fm.statusA = getBool(b[3])
		s.fm.statusB = getBool(b[4])
		s.fm.lfoFreqIdx = freqIdx
	}

	return nil
}
