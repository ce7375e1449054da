//go:build !libretro

// Package ebiten provides an Ebiten-specific wrapper for the emulator.
package ebiten

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/mdcore/emu"
)

// hostSink is the emu.Host implementation the ebiten bridge feeds: it
// queues pushed audio for the CLI runner to drain after RunFrame returns.
// Frames are not buffered here; DrawToScreen reads the VDP framebuffer
// through System's accessors.
type hostSink struct {
	emu.DefaultHost
	audio []int16
}

func (h *hostSink) PlaySound(samples []int16) {
	h.audio = append(h.audio, samples...)
}

// Emulator wraps an emu.System with Ebiten-specific rendering.
// Audio is managed separately via ui.AudioPlayer.
type Emulator struct {
	sys  *emu.System
	sink *hostSink

	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions
}

// NewEmulator creates a new emulator instance with Ebiten rendering.
func NewEmulator(rom []byte, region emu.Region) (*Emulator, error) {
	sink := &hostSink{}
	sys, err := emu.InitSystem(rom, region, sink)
	if err != nil {
		return nil, err
	}
	return &Emulator{sys: sys, sink: sink}, nil
}

// Close releases the emulator's resources.
func (e *Emulator) Close() {}

// RunFrame advances the emulator by one video frame.
func (e *Emulator) RunFrame() { e.sys.RunFrame() }

// SetInput forwards polled pad state to the core.
func (e *Emulator) SetInput(up, down, left, right, a, b, c, start bool) {
	e.sys.SetInput(up, down, left, right, a, b, c, start)
}

// GetAudioSamples drains and returns the audio queued since the last
// call.
func (e *Emulator) GetAudioSamples() []int16 {
	s := e.sink.audio
	e.sink.audio = nil
	return s
}

// DrawToScreen renders the emulator framebuffer to the given screen,
// scaling and centering it and optionally cropping the VDP's blanked
// left column.
func (e *Emulator) DrawToScreen(screen *ebiten.Image, cropBorder bool) {
	activeHeight := e.sys.GetActiveHeight()

	if e.offscreen == nil || e.offscreen.Bounds().Dy() != activeHeight {
		e.offscreen = ebiten.NewImage(emu.ScreenWidth, activeHeight)
	}

	fb := e.sys.GetFramebuffer()
	stride := e.sys.GetFramebufferStride()
	requiredLen := stride * activeHeight
	if len(fb) < requiredLen {
		return
	}
	e.offscreen.WritePixels(fb[:requiredLen])

	var srcImage *ebiten.Image
	nativeW := float64(emu.ScreenWidth)

	if cropBorder && e.sys.LeftColumnBlankEnabled() {
		srcImage = e.offscreen.SubImage(image.Rect(8, 0, emu.ScreenWidth, activeHeight)).(*ebiten.Image)
		nativeW = float64(emu.ScreenWidth - 8)
	} else {
		srcImage = e.offscreen
	}

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	nativeH := float64(activeHeight)

	scaleX := float64(screenW) / nativeW
	scaleY := float64(screenH) / nativeH
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	scaledW := nativeW * scale
	scaledH := nativeH * scale
	offsetX := (float64(screenW) - scaledW) / 2
	offsetY := (float64(screenH) - scaledH) / 2

	e.drawOpts = ebiten.DrawImageOptions{}
	e.drawOpts.GeoM.Scale(scale, scale)
	e.drawOpts.GeoM.Translate(offsetX, offsetY)
	e.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(srcImage, &e.drawOpts)
}

// Layout reports the window size so Draw controls scaling itself.
func (e *Emulator) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
