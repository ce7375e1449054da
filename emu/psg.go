package emu

import (
	sn76489 "github.com/user-none/go-chip-sn76489"
)

// psgSampleRate is the host output rate the SN76489 wrapper resamples
// to; the mixer (mixer.go) re-reconciles this against the FM rate.
const psgSampleRate = 53267

// PSG wraps the external SN76489 core configured for the Sega variant
// (white-noise taps 15^12, tone-zero treated as periodic 0x20), the
// same chip and library an SMS core would already depend on for its PSG.
type PSG struct {
	chip   *sn76489.SN76489
	latch  byte // last (channel, field) selector for unprefixed data bytes
}

// NewPSG builds the PSG clocked at clockHz (the 68000 master clock
// divided the same way the Z80 co-processor's clock is).
func NewPSG(clockHz int) *PSG {
	return &PSG{chip: sn76489.New(clockHz, psgSampleRate, 1, sn76489.Sega)}
}

// Write accepts a raw byte on the PSG's single write-only port.
func (p *PSG) Write(v byte) {
	if v&0x80 != 0 {
		p.latch = v
	}
	p.chip.Write(v)
}

// Advance clocks the PSG forward by n master cycles; the chip itself
// only exposes a single-cycle Clock(), so the core's larger advances
// fold down to a loop here.
func (p *PSG) Advance(n int) {
	for i := 0; i < n; i++ {
		p.chip.Clock()
	}
}

// Sample returns the most recently produced PSG sample (mono; the PSG
// has no stereo panning on this console), converted from the chip's
// unipolar float32 output to a signed 16-bit sample.
func (p *PSG) Sample() int16 {
	s := p.chip.Sample()
	v := int32(s * 32767)
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// Reset reinitializes the chip to power-on state.
func (p *PSG) Reset() {
	p.chip.Reset()
}
