package emu

// Button bitmask, per the controller wire protocol.
const (
	ButtonUp    = 0x01
	ButtonDown  = 0x02
	ButtonLeft  = 0x04
	ButtonRight = 0x08
	ButtonA     = 0x10
	ButtonB     = 0x20
	ButtonC     = 0x40
	ButtonStart = 0x80
	ButtonX     = 0x100
	ButtonY     = 0x200
	ButtonZ     = 0x400
)

// PadKind selects the controller-port wire protocol.
type PadKind int

const (
	PadNone PadKind = iota
	Pad3Button
	Pad6Button
)

// padState tracks one controller port's TH-driven cycle. A 6-button pad
// walks four sub-states on successive TH transitions before wrapping;
// Reset returns it to sub-state 0 so a host that stops polling mid-cycle
// doesn't leave the port stuck.
type padState struct {
	kind    PadKind
	buttons uint16 // live bitmask, set by SetButtons
	th      bool
	cycle   int
}

func (p *padState) Reset() { p.cycle = 0 }

// SetTH models the control line transition and advances the 6-button
// cycle counter on a 0->1 edge.
func (p *padState) SetTH(th bool) {
	if th && !p.th && p.kind == Pad6Button {
		p.cycle = (p.cycle + 1) % 4
	}
	p.th = th
}

// Read returns the data byte a real pad drives onto the bus for the
// current TH level and cycle position. Bits are active-low.
func (p *padState) Read() byte {
	b := p.buttons
	set := func(pressed bool, bit byte) byte {
		if pressed {
			return 0
		}
		return bit
	}
	up := set(b&ButtonUp != 0, 0x01)
	down := set(b&ButtonDown != 0, 0x02)
	left := set(b&ButtonLeft != 0, 0x04)
	right := set(b&ButtonRight != 0, 0x08)

	if p.kind == Pad6Button && p.cycle == 2 && !p.th {
		// third TH=0 phase: {MODE, X, Y, Z} replace {START, A, 0, 0}
		x := set(b&ButtonX != 0, 0x10)
		y := set(b&ButtonY != 0, 0x20)
		z := set(b&ButtonZ != 0, 0x40)
		return x | y | z | 0x00
	}

	if !p.th {
		start := set(b&ButtonStart != 0, 0x80)
		a := set(b&ButtonA != 0, 0x10)
		return start | a | 0x0C | down | up
	}

	cAndB := set(b&ButtonC != 0, 0x40) | set(b&ButtonB != 0, 0x20)
	return cAndB | right | left | down | up
}

// IO implements the two controller ports plus the minimal subset of the
// 0xA10000-0xA10FFF window the memory map exposes: version byte,
// controller data/control registers for ports 1 and 2. The expansion
// port is wired but always reports "nothing connected"; rarely
// used peripherals are out of scope.
type IO struct {
	version byte
	pad     [2]padState
	ctrl    [2]byte // direction register: 1=output pin, matches real hardware
	data    [2]byte // latched output bits driven by the CPU
}

// NewIO constructs the I/O window for the given pad kinds.
func NewIO(p1, p2 PadKind) *IO {
	io := &IO{version: 0xA0}
	io.pad[0].kind = p1
	io.pad[1].kind = p2
	return io
}

// SetButtons updates the live bitmask for a port, as returned by the
// host's check_buttons callback.
func (io *IO) SetButtons(port int, mask uint16) {
	if port < 0 || port > 1 {
		return
	}
	io.pad[port].buttons = mask
}

func (io *IO) ReadByte(addr uint32) byte {
	switch addr {
	case 0xA10000, 0xA10001:
		return io.version
	case 0xA10003:
		return io.pad[0].Read() &^ io.ctrl[0]
	case 0xA10005:
		return io.pad[1].Read() &^ io.ctrl[1]
	case 0xA10007:
		return 0xFF // expansion port: nothing connected
	case 0xA10009:
		return io.ctrl[0]
	case 0xA1000B:
		return io.ctrl[1]
	case 0xA1000D:
		return 0xFF
	default:
		return 0xFF
	}
}

func (io *IO) WriteByte(addr uint32, v byte) {
	switch addr {
	case 0xA10003:
		io.pad[0].SetTH(v&0x40 != 0)
	case 0xA10005:
		io.pad[1].SetTH(v&0x40 != 0)
	case 0xA10009:
		io.ctrl[0] = v
	case 0xA1000B:
		io.ctrl[1] = v
	}
}

// Reset returns both ports' cycle state to sub-state 0, as on a
// hardware reset.
func (io *IO) Reset() {
	io.pad[0].Reset()
	io.pad[1].Reset()
}
