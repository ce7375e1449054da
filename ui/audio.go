// Package ui hosts the thin frontend glue around the emulation core:
// audio output and, via bridge/ebiten, video presentation.
package ui

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const audioSampleRate = 48000

// ringReader is an io.Reader backing an oto.Player, fed by QueueSamples.
// Reads past the available data return silence rather than blocking, so
// a slow emulator frame never stalls the audio callback.
type ringReader struct {
	mu  sync.Mutex
	buf []byte
}

func (r *ringReader) push(b []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = append(r.buf, b...)
	const maxBuffered = 1 << 16
	if len(r.buf) > maxBuffered {
		r.buf = r.buf[len(r.buf)-maxBuffered:]
	}
}

func (r *ringReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// AudioPlayer streams the mixer's interleaved stereo int16 samples to the
// host audio device.
type AudioPlayer struct {
	ctx    *oto.Context
	player *oto.Player
	ring   *ringReader
	buf    []byte
}

// NewAudioPlayer opens the host audio device at 48 kHz stereo 16-bit.
func NewAudioPlayer() (*AudioPlayer, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   audioSampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	<-ready

	ring := &ringReader{}
	player := ctx.NewPlayer(ring)
	player.SetBufferSize(4096)
	player.Play()

	return &AudioPlayer{ctx: ctx, player: player, ring: ring}, nil
}

// QueueSamples pushes interleaved stereo int16 samples produced by the
// mixer onto the playback ring buffer.
func (a *AudioPlayer) QueueSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	a.buf = a.buf[:0]
	for _, s := range samples {
		a.buf = append(a.buf, byte(s), byte(s>>8))
	}
	a.ring.push(a.buf)
}

// Close stops playback.
func (a *AudioPlayer) Close() {
	if a.player != nil {
		a.player.Close()
		a.player = nil
	}
}
