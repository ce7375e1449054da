package emu

import "log"

// pollInterval is the master-cycle interval between host signal polls.
const pollInterval = 76100

// Host implements the capability interface the core calls into,
// synchronously and never re-entrantly. A single host-object
// reference replaces raw function pointers plus void*
// user data.
type Host interface {
	Warning(format string, args ...any)
	CheckSignals() (stop, reset bool)
	SresChanged(width, height int)
	UpdateScreen(pixels []byte)
	PlaySound(samples []int16)
}

// DefaultHost is a minimal Host that logs warnings via the standard
// logger and never requests stop/reset; embed it and override only the
// callbacks a given frontend cares about.
type DefaultHost struct{}

func (DefaultHost) Warning(format string, args ...any) { log.Printf(format, args...) }
func (DefaultHost) CheckSignals() (bool, bool)         { return false, false }
func (DefaultHost) SresChanged(width, height int)      {}
func (DefaultHost) UpdateScreen(pixels []byte)         {}
func (DefaultHost) PlaySound(samples []int16)          {}

// System owns every chip as fields of one struct, rather than
// module-level globals, and drives the master cycle loop.
type System struct {
	rom    []byte
	header Header
	info   ROMInfo
	region Region
	timing RegionTiming

	mem *Memory
	io  *IO
	vdp *VDP
	fm  *FM
	psg *PSG
	z80 *Z80Driver
	cpu *CPU68K
	svp *SVP

	mixer  *Mixer
	host   Host
	warn   func(format string, args ...any)

	globalCycles   int64
	lastPollCycles int64
	stopped        bool

	fmAcc, psgAcc int

	lastActiveHeight int
}

// InitSystem loads a cartridge image and wires every chip together.
// The region is used as given; DetectRegionFromROM reads one from the
// header for callers that want auto-detection.
func InitSystem(rom []byte, region Region, host Host) (*System, error) {
	if err := ValidateROM(rom); err != nil {
		return nil, err
	}
	if host == nil {
		host = DefaultHost{}
	}
	warn := func(format string, args ...any) { host.Warning(format, args...) }

	h := ParseHeader(rom)
	info := LookupROM(rom)
	timing := GetTimingForRegion(region)

	s := &System{rom: rom, header: h, info: info, region: region, timing: timing, host: host, warn: warn}

	s.vdp = NewVDP(region, warn)
	s.vdp.SetCyclesPerLine(timing.CPUClockHz / int(timing.FPS) / timing.Scanlines)
	s.vdp.dmaLag = info.DMALag

	s.io = NewIO(Pad3Button, Pad3Button)
	s.fm = NewFM()
	s.psg = NewPSG(timing.CPUClockHz)
	s.z80 = NewZ80Driver(s.fm, s.psg)

	if info.SVP {
		s.svp = NewSVP(info.DMALag)
	}

	s.mem = NewMemory(rom, h, info, s.vdp, s.io, s.z80, s.svp, warn)
	s.vdp.AttachMemory(s.mem)
	s.cpu = NewCPU68K(s.mem)

	s.mixer = NewMixer(func(samples []int16) { s.host.PlaySound(samples) })

	s.Reset()
	return s, nil
}

// Reset applies the power-on reset sequence: 68000 reset,
// Z80 bus-request/reset-assert/bus-release/reset-release/bus-request,
// and (if present) SVP reset. FM resets through the Z80's reset line.
func (s *System) Reset() {
	s.cpu.Reset()
	s.z80.RequestBus(true)
	s.z80.SetReset(true)
	s.z80.RequestBus(false)
	s.z80.SetReset(false)
	s.z80.RequestBus(true)
	s.fm.Reset()
	s.psg.Reset()
	s.io.Reset()
	if s.svp != nil {
		s.svp.Reset()
	}
	s.globalCycles = 0
	s.lastPollCycles = 0
	s.stopped = false
}

// Step runs one 68000 instruction, catches every other clocked
// chip up by its cycle count, and folds in DMA-stall feedback.
func (s *System) Step() int {
	n := s.cpu.Step()

	s.advanceChips(n)
	s.vdp.Advance(n)

	total := n
	for s.vdp.dmaState == dmaMemToVRAM {
		stalled, m := s.vdp.StepDMA()
		if !stalled {
			break
		}
		s.advanceChips(m)
		s.vdp.Advance(m)
		s.cpu.AddCycles(m)
		total += m
	}

	s.deliverInterrupts()

	s.globalCycles += int64(total)
	if s.globalCycles-s.lastPollCycles >= pollInterval {
		s.lastPollCycles = s.globalCycles
		stop, reset := s.host.CheckSignals()
		s.stopped = stop
		if reset {
			s.Reset()
		}
	}
	return total
}

func (s *System) advanceChips(n int) {
	s.z80.Advance(n)
	if s.svp != nil {
		s.svp.Advance(n)
	}
	s.fm.Advance(n)
	s.psg.Advance(n)

	s.fmAcc += n
	for s.fmAcc >= 144 {
		s.fmAcc -= 144
		s.mixer.MixFM(s.fm.Sample())
	}
	s.psgAcc += n
	for s.psgAcc >= 240 {
		s.psgAcc -= 240
		s.mixer.PushPSG(s.psg.Sample())
	}
}

func (s *System) deliverInterrupts() {
	vint, hint := s.vdp.InterruptPending()
	if vint {
		s.cpu.RequestInterrupt(6)
	} else if hint {
		s.cpu.RequestInterrupt(4)
	}
	if s.vdp.vCounter == 0 {
		s.vdp.ClearFrameInterrupt()
	}

	height := s.vdp.ActiveHeight()
	if height != s.lastActiveHeight {
		s.lastActiveHeight = height
		s.host.SresChanged(ScreenWidth, height)
	}
}

// RunFrame runs iter() until one full frame's worth of scanlines has
// been produced, delivering the framebuffer to the host exactly once.
func (s *System) RunFrame() {
	for !s.stopped {
		s.Step()
		if s.vdp.ConsumeFrameCompleted() {
			break
		}
	}
	s.host.UpdateScreen(s.vdp.GetFramebuffer())
}

// Stopped reports whether the last CheckSignals poll requested a stop.
func (s *System) Stopped() bool { return s.stopped }

// SetButtons forwards the host's polled pad state for port (0 or 1).
func (s *System) SetButtons(port int, mask uint16) { s.io.SetButtons(port, mask) }

// Region/Header/ROMInfo accessors for host tooling and tests.
func (s *System) Region() Region     { return s.region }
func (s *System) HeaderInfo() Header { return s.header }

// GetActiveHeight, GetFramebuffer, GetFramebufferStride and
// LeftColumnBlankEnabled proxy the VDP's presentation surface for
// frontends that render the framebuffer themselves instead of (or in
// addition to) the Host.UpdateScreen push.
func (s *System) GetActiveHeight() int         { return s.vdp.ActiveHeight() }
func (s *System) GetFramebuffer() []byte       { return s.vdp.GetFramebuffer() }
func (s *System) GetFramebufferStride() int    { return s.vdp.GetFramebufferStride() }
func (s *System) LeftColumnBlankEnabled() bool { return s.vdp.LeftColumnBlankEnabled() }

// SetInput forwards the host's polled button mask to port 0 as a
// per-button convenience over SetButtons, used by frontends that treat
// each direction/button as a discrete boolean.
func (s *System) SetInput(up, down, left, right, a, b, c, start bool) {
	var mask uint16
	if up {
		mask |= ButtonUp
	}
	if down {
		mask |= ButtonDown
	}
	if left {
		mask |= ButtonLeft
	}
	if right {
		mask |= ButtonRight
	}
	if a {
		mask |= ButtonA
	}
	if b {
		mask |= ButtonB
	}
	if c {
		mask |= ButtonC
	}
	if start {
		mask |= ButtonStart
	}
	s.SetButtons(0, mask)
}
