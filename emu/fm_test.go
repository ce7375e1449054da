package emu

import "testing"

// TestOperatorEnvelopeAttackConverges exercises the envelope
// convergence property: a keyed-on operator with a fast attack rate
// should walk its attenuation down toward 0 (loudest) and then settle
// into decay/sustain rather than oscillating or diverging.
func TestOperatorEnvelopeAttackConverges(t *testing.T) {
	op := &operator{ar: 31, dr: 10, sr: 5, rr: 20, sl: 0x0F, out: egAttenMax}
	op.keyOn()

	prev := op.out
	sawDecrease := false
	for i := 0; i < 4000; i++ {
		op.stepEnvelope()
		if op.out < prev {
			sawDecrease = true
		}
		prev = op.out
	}
	if !sawDecrease {
		t.Fatal("attack phase never reduced attenuation")
	}
	if op.eg != egSustain && op.eg != egDecay {
		t.Errorf("after 4000 ticks eg state = %v, want egDecay or egSustain", op.eg)
	}
}

// TestOperatorKeyOffReleases checks the release phase moves attenuation
// toward silence (egAttenMax) rather than staying fixed.
func TestOperatorKeyOffReleases(t *testing.T) {
	op := &operator{ar: 31, dr: 10, sr: 5, rr: 31, sl: 0x0F, out: 0}
	op.eg = egSustain
	op.keyOff()
	if op.eg != egRelease {
		t.Fatalf("keyOff: eg = %v, want egRelease", op.eg)
	}

	for i := 0; i < 4000 && op.out < egAttenMax; i++ {
		op.stepEnvelope()
	}
	if op.out != egAttenMax {
		t.Errorf("release phase did not reach full attenuation: out = %d", op.out)
	}
}

// TestOperatorZeroAttackRateHoldsAtSilence matches real hardware's
// ar=0 behavior: the operator should never sound.
func TestOperatorZeroAttackRateHoldsAtSilence(t *testing.T) {
	op := &operator{ar: 0, out: egAttenMax}
	op.keyOn()
	for i := 0; i < 100; i++ {
		op.stepEnvelope()
	}
	if op.out != egAttenMax {
		t.Fatalf("ar=0 keyOn: out = %d, want %d (attenuation held at maximum)", op.out, egAttenMax)
	}
	if op.eg != egAttack {
		t.Errorf("ar=0 keyOn: eg = %v, want egAttack (attack never progresses)", op.eg)
	}
}

func TestFMDACOverride(t *testing.T) {
	f := NewFM()
	// Attenuate channels 0-4 (maximum total level) so channel 5's DAC
	// override dominates the mix.
	for ch := 0; ch < 5; ch++ {
		for slot := range f.ch[ch].ops {
			f.ch[ch].ops[slot].tl = 0x7F
		}
	}

	f.WriteRegister(0x4000, 0x2B) // latch DAC enable register
	f.WriteRegister(0x4001, 0x80) // enable DAC
	f.WriteRegister(0x4000, 0x2A) // latch DAC data register
	f.WriteRegister(0x4001, 0xFF) // max DAC value

	f.Advance(144)
	if f.out <= 0 {
		t.Errorf("DAC override with max value produced non-positive sample: %d", f.out)
	}
}

func TestFMTimerAOverflowSetsStatus(t *testing.T) {
	f := NewFM()
	f.WriteRegister(0x4000, 0x27)
	f.WriteRegister(0x4001, 0x01) // enable timer A

	f.timerA = 0xFFFF // one tick from wrapping

	f.Advance(138)
	if f.ReadStatus()&0x01 == 0 {
		t.Error("timer A did not set the overflow status bit")
	}
}

func TestFMReset(t *testing.T) {
	f := NewFM()
	f.WriteRegister(0x4000, 0x2B)
	f.WriteRegister(0x4001, 0x80)
	f.Reset()
	if f.dacEnable {
		t.Error("Reset did not clear DAC enable")
	}
}
