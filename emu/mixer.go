package emu

// Mixer reconciles the PSG's sample period against the FM's by
// accumulating PSG samples into a 5-entry window and weight-summing them
// against each FM sample. The per-step weights rotate a small remainder
// across a 5-phase schedule so the running average tracks the two
// chips' differing sample rates without drift.
type Mixer struct {
	psgWindow [5]int16
	psgFill   int
	step      int

	flushBuf [512 * 2]int16
	flushPos int

	flush func(samples []int16)
}

// mixerWeights holds a 5-step schedule; each row sums to 4.0. Row k puts
// the 48/240 remainder in column k and its 1-48/240 complement in the
// column before it (column 4 for row 0), so the pair moves one column
// along as the step counter advances.
var mixerWeights = [5][5]float64{
	{48.0 / 240, 1, 1, 1, 1 - 48.0/240},
	{1 - 48.0/240, 48.0 / 240, 1, 1, 1},
	{1, 1 - 48.0/240, 48.0 / 240, 1, 1},
	{1, 1, 1 - 48.0/240, 48.0 / 240, 1},
	{1, 1, 1, 1 - 48.0/240, 48.0 / 240},
}

func NewMixer(flush func(samples []int16)) *Mixer {
	return &Mixer{flush: flush}
}

// PushPSG enqueues one PSG sample into the weighting window.
func (m *Mixer) PushPSG(s int16) {
	if m.psgFill < len(m.psgWindow) {
		m.psgWindow[m.psgFill] = s
		m.psgFill++
	}
}

// MixFM combines the window's weighted PSG contribution with one FM
// sample via (6*FM + PSG*scaled)/7, and emits a stereo
// pair. The PSG has no stereo panning, so both channels receive the
// same mixed value.
func (m *Mixer) MixFM(fm int16) {
	var psgSum float64
	w := mixerWeights[m.step]
	n := m.psgFill
	if n > len(w) {
		n = len(w)
	}
	for i := 0; i < n; i++ {
		psgSum += float64(m.psgWindow[i]) * w[i]
	}
	m.psgFill = 0
	m.step = (m.step + 1) % len(mixerWeights)

	combined := (6*float64(fm) + psgSum) / 7
	if combined > 32767 {
		combined = 32767
	}
	if combined < -32768 {
		combined = -32768
	}
	sample := int16(combined)

	m.flushBuf[m.flushPos] = sample
	m.flushBuf[m.flushPos+1] = sample
	m.flushPos += 2

	if m.flushPos >= len(m.flushBuf) {
		if m.flush != nil {
			m.flush(m.flushBuf[:])
		}
		m.flushPos = 0
	}
}
