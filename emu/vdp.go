package emu

import "image"

const (
	vramSize   = 0x10000
	cramSize   = 64
	vsramSize  = 40
	ScreenWidth = 320
)

// dmaMode tags the VDP's three DMA engine modes.
type dmaMode int

const (
	dmaNone dmaMode = iota
	dmaMemToVRAM
	dmaFill
	dmaCopy
)

// dmaBytesPerLine is the per-line DMA throughput table: fill/copy run
// faster during vblank and in H40 mode than during active display in
// H32.
var dmaBytesPerLine = map[bool]map[bool]int{
	true: { // vblank
		false: 205, // H32
		true:  204, // H40
	},
	false: { // active display
		false: 16,
		true:  18,
	},
}

type spritePixel struct {
	color      byte
	priority   bool
	collision  bool
}

// VDP is the video display processor: register file, VRAM/CRAM/VSRAM,
// the DMA engine, H/V counter, and the scanline compositor (scroll A/B,
// window, sprites, shadow/highlight, interlace).
type VDP struct {
	vram  [vramSize]byte
	cram  [cramSize]uint16 // 9-bit BGR
	vsram [vsramSize]uint16

	reg [24]byte

	code        byte
	addr        uint16
	writeLatch  bool
	firstWord   uint16

	readBuffer uint16

	status uint16

	vCounter, hCounter int
	lineCounter        int
	lineIntPending     bool
	frameIntPending    bool
	statusWasRead      bool

	totalScanlines int
	region         Region
	cyclesPerLine  int

	dmaState      dmaMode
	dmaLen        int
	dmaSrc        uint32
	dmaFillLatch  bool
	dmaLag        int
	mem           *Memory // for mem->VRAM DMA source reads

	oddFrame       bool
	inVBlank       bool
	frameCompleted bool

	framebuffer *image.RGBA
	bgPriority  [ScreenWidth]bool
	spriteLine  [ScreenWidth]spritePixel

	warn func(string, ...any)
}

func NewVDP(region Region, warn func(string, ...any)) *VDP {
	v := &VDP{region: region, warn: warn}
	v.SetTotalScanlines(region)
	v.framebuffer = image.NewRGBA(image.Rect(0, 0, ScreenWidth, 240))
	return v
}

func (v *VDP) warnf(format string, args ...any) {
	if v.warn != nil {
		v.warn(format, args...)
	}
}

func (v *VDP) SetTotalScanlines(r Region) {
	v.region = r
	if r == RegionPAL {
		v.totalScanlines = 313
	} else {
		v.totalScanlines = 262
	}
}

// AttachMemory gives the DMA engine access to the 68000 memory map for
// mem->VRAM transfers, which read one word from the 68000
// memory map at the source address.
func (v *VDP) AttachMemory(m *Memory) { v.mem = m }

func (v *VDP) h40() bool { return v.reg[12]&0x81 == 0x81 }

func (v *VDP) pointsPerLine() int {
	if v.reg[12]&0x01 != 0 {
		return 420
	}
	return 342
}

func (v *VDP) displayEnabled() bool  { return v.reg[1]&0x40 != 0 }
func (v *VDP) vintEnabled() bool     { return v.reg[1]&0x20 != 0 }
func (v *VDP) hintEnabled() bool     { return v.reg[0]&0x10 != 0 }
func (v *VDP) dmaEnabled() bool      { return v.reg[1]&0x10 != 0 }
func (v *VDP) v30() bool             { return v.reg[1]&0x08 != 0 }
func (v *VDP) shadowHighlight() bool { return v.reg[12]&0x08 != 0 }

func (v *VDP) interlaceMode() int {
	m := (v.reg[12] >> 1) & 0x03
	if m == 2 {
		v.warnf("emu: VDP illegal interlace mode 2, coercing to 0")
		return 0
	}
	return int(m)
}

// ActiveHeight reports the active display height from reg 1 bit 3: 224
// for V28, 240 for V30. A change to that bit takes effect at once; it is
// not held until the end of the frame.
func (v *VDP) ActiveHeight() int {
	if v.v30() {
		return 240
	}
	return 224
}

// WriteControl implements the two-write address/command latch machine.
func (v *VDP) WriteControl(word uint16) {
	if !v.writeLatch && word&0xC000 == 0x8000 {
		reg := (word >> 8) & 0x1F
		val := byte(word)
		if reg < 24 {
			v.setRegister(byte(reg), val)
		}
		return
	}

	if !v.writeLatch {
		v.firstWord = word
		v.writeLatch = true
		return
	}

	v.writeLatch = false
	second := word
	v.code = byte(v.firstWord>>14&0x03) | byte(second>>2&0x3C)
	v.addr = v.firstWord&0x3FFF | (second&0x0003)<<14

	if second&0x80 != 0 {
		v.startDMA(second)
	}

	if v.code&0x20 != 0 && (v.code&0x0F) == 0 {
		v.readBuffer = v.readVRAMWord(v.addr)
	}
}

func (v *VDP) setRegister(reg, val byte) {
	v.reg[reg] = val
	switch reg {
	case 12:
		if val&0x81 != 0x81 && val&0x81 != 0x00 {
			v.warnf("emu: VDP reg 12 RS0/RS1 disagree (%02X)", val)
		}
	case 19, 20:
		v.dmaLen = int(v.reg[19]) | int(v.reg[20])<<8
	case 21, 22, 23:
		v.dmaSrc = uint32(v.reg[21]) | uint32(v.reg[22])<<8 | uint32(v.reg[23]&0x7F)<<16
	}
}

func (v *VDP) startDMA(second uint16) {
	if !v.dmaEnabled() {
		v.warnf("emu: DMA command issued with DMA disabled")
		return
	}
	mode := (v.reg[23] >> 6) & 0x03
	switch {
	case mode&0x02 == 0:
		v.dmaState = dmaMemToVRAM
	case mode == 2:
		v.dmaState = dmaFill
		v.dmaFillLatch = true
	case mode == 3:
		v.dmaState = dmaCopy
	default:
		v.warnf("emu: DMA mismatched CD5/CD4 bits, dropping command")
		return
	}
	v.status |= 0x02 // DMA busy
}

// StepDMA services one DMA unit if a transfer is active and reports
// whether the 68000 must be stalled (mode 1 only) plus the cycle cost.
func (v *VDP) StepDMA() (stalled bool, cost int) {
	switch v.dmaState {
	case dmaMemToVRAM:
		if v.mem == nil || v.dmaLen == 0 {
			v.finishDMA()
			return false, 0
		}
		src := (v.dmaSrc - uint32(v.dmaLag)) * 2
		word := v.mem.ReadWord(src)
		v.writeVRAMWord(v.addr, word)
		v.advanceDMAPointers()
		if v.dmaLen == 0 {
			v.finishDMA()
		}
		return true, 8
	case dmaFill:
		if v.dmaLen == 0 {
			v.finishDMA()
			return false, 0
		}
		low := byte(v.dmaSrc)
		v.vram[v.addr%vramSize] = low
		v.advanceAddrOnly()
		v.dmaLen--
		if v.dmaLen == 0 {
			v.finishDMA()
		}
		return false, v.fillCopyCost()
	case dmaCopy:
		if v.dmaLen == 0 {
			v.finishDMA()
			return false, 0
		}
		b := v.vram[v.dmaSrc%vramSize]
		v.vram[v.addr%vramSize] = b
		v.dmaSrc++
		v.advanceAddrOnly()
		v.dmaLen--
		if v.dmaLen == 0 {
			v.finishDMA()
		}
		return false, v.fillCopyCost()
	}
	return false, 0
}

func (v *VDP) fillCopyCost() int {
	return dmaBytesPerLine[v.inVBlank][v.h40()]
}

func (v *VDP) advanceDMAPointers() {
	v.dmaSrc++
	v.dmaLen--
	v.advanceAddrOnly()
}

func (v *VDP) advanceAddrOnly() {
	v.addr += uint16(v.reg[15])
}

func (v *VDP) finishDMA() {
	v.dmaState = dmaNone
	v.status &^= 0x02
}

func (v *VDP) readVRAMWord(addr uint16) uint16 {
	a := addr % vramSize
	return uint16(v.vram[a])<<8 | uint16(v.vram[(a+1)%vramSize])
}

func (v *VDP) writeVRAMWord(addr uint16, word uint16) {
	a := addr % vramSize
	v.vram[a] = byte(word >> 8)
	v.vram[(a+1)%vramSize] = byte(word)
}

// ReadData/WriteData implement the data port (0xC00000/0xC00002).
func (v *VDP) ReadData() uint16 {
	val := v.readBuffer
	v.advanceAddrOnly()
	return val
}

func (v *VDP) WriteData(word uint16) {
	switch v.code & 0x0F {
	case 0x01: // VRAM write
		v.writeVRAMWord(v.addr, word)
	case 0x03: // CRAM write
		idx := (v.addr / 2) % cramSize
		v.cram[idx] = word & 0x1FF
	case 0x05: // VSRAM write
		idx := (v.addr / 2) % vsramSize
		v.vsram[idx] = word & 0x7FF
	default:
		v.warnf("emu: VDP data write with unsupported code %02X", v.code)
	}
	v.advanceAddrOnly()
	if v.dmaFillLatch {
		v.dmaFillLatch = false
		v.dmaSrc = uint32(word)
	}
}

// ReadByte/WriteByte/ReadWord/WriteWord adapt the 0xC00000-0xC0001F
// window for the memory map: data port at offset 0/2, control port at
// offset 4/6, HV counter at offset 8.
func (v *VDP) ReadByte(addr uint32) byte {
	w := v.ReadWord(addr &^ 1)
	if addr%2 == 0 {
		return byte(w >> 8)
	}
	return byte(w)
}

func (v *VDP) WriteByte(addr uint32, b byte) {
	// Byte writes to the VDP are rare and undefined on real hardware for
	// most ports; treat as a word write with the byte duplicated.
	v.WriteWord(addr&^1, uint16(b)<<8|uint16(b))
}

func (v *VDP) ReadWord(addr uint32) uint16 {
	switch addr & 0x1F {
	case 0x00, 0x02:
		return v.ReadData()
	case 0x04, 0x06:
		return v.ReadControl()
	case 0x08, 0x0A:
		return uint16(v.ReadHCounter())<<8 | uint16(v.ReadVCounter())
	default:
		return 0xFFFF
	}
}

func (v *VDP) WriteWord(addr uint32, word uint16) {
	switch addr & 0x1F {
	case 0x00, 0x02:
		v.WriteData(word)
	case 0x04, 0x06:
		v.WriteControl(word)
	}
}

// ReadControl returns the status word and clears the write latch and the
// sprite collision/overflow bits (0x20/0x40). The VInt-pending bit (0x80)
// is not cleared here; ClearFrameInterrupt clears it.
func (v *VDP) ReadControl() uint16 {
	s := v.status
	v.status &^= 0x0060 // clear sprite collision/overflow
	v.writeLatch = false
	v.statusWasRead = true
	return s
}

func (v *VDP) StatusWasRead() bool {
	r := v.statusWasRead
	v.statusWasRead = false
	return r
}

// ReadVCounter/ReadHCounter/SetVCounter implement the piecewise-ramp
// counters: the displayed value does not simply count
// scanlines/points when close to the blanking boundary.
func (v *VDP) ReadVCounter() byte {
	line := v.vCounter
	height := v.ActiveHeight()
	if v.region == RegionNTSC {
		if height == 224 {
			if line >= 0xEB {
				return byte(line - 0xEB + 0xE5)
			}
		} else {
			if line >= 0xFF {
				return byte(line - 0xFF + 0xD5)
			}
		}
	} else {
		if height == 224 {
			if line >= 0x102 {
				return byte(line - 0x102 + 0xCA)
			}
		} else {
			if line >= 0x10A {
				return byte(line - 0x10A + 0xD2)
			}
		}
	}
	return byte(line)
}

func (v *VDP) ReadHCounter() byte {
	return GetHCounterForCycle(v.hCounter, v.h40())
}

// GetHCounterForCycle maps a position within the line to the visible
// HCounter. In H32 it ramps 0x00-0x93 one step per cycle, then jumps to
// 0xEA and keeps counting; in H40 it ramps 0x00-0xB5 one step per two
// cycles, then jumps to 0xE4 and keeps counting. The result wraps at 8
// bits.
func GetHCounterForCycle(cycle int, h40 bool) byte {
	if h40 {
		if cycle <= 0xB5*2 {
			return byte(cycle / 2)
		}
		return byte(0xE4 + (cycle-0xB5*2)/2)
	}
	if cycle <= 0x93 {
		return byte(cycle)
	}
	return byte(0xE9 + (cycle - 0x93))
}

func (v *VDP) SetVCounter(line int) { v.vCounter = line }

// SetCyclesPerLine configures the master-cycle duration of one scanline
// for the current region/timing (computed once in emulator.go from
// RegionTiming.CPUClockHz/FPS/Scanlines).
func (v *VDP) SetCyclesPerLine(n int) { v.cyclesPerLine = n }

// Advance ticks the H counter by n master cycles, crossing scanline and
// frame boundaries as needed: rendering the completed line, updating
// the line-interrupt counter, and latching VBlank/VInt at the line
// after the active display ends.
func (v *VDP) Advance(n int) {
	if v.cyclesPerLine == 0 {
		return
	}
	v.hCounter += n
	for v.hCounter >= v.cyclesPerLine {
		v.hCounter -= v.cyclesPerLine
		v.endLine()
	}
}

func (v *VDP) endLine() {
	if v.vCounter < v.ActiveHeight() {
		v.RenderScanline(v.vCounter)
		v.UpdateLineCounter()
	} else {
		v.lineCounter = int(v.reg[10])
	}

	v.vCounter++
	if v.vCounter == v.ActiveHeight()+1 {
		v.SetVBlank(true)
	}
	if v.vCounter >= v.totalScanlines {
		v.vCounter = 0
		v.SetVBlank(false)
		v.oddFrame = !v.oddFrame
		v.frameCompleted = true
	}
}

// ConsumeFrameCompleted reports and clears the end-of-frame flag set
// when the VCounter wraps back to line 0.
func (v *VDP) ConsumeFrameCompleted() bool {
	r := v.frameCompleted
	v.frameCompleted = false
	return r
}

// InterruptPending reports whether the VInt or HInt line is asserted.
func (v *VDP) InterruptPending() (vint, hint bool) {
	return v.frameIntPending && v.vintEnabled(), v.lineIntPending && v.hintEnabled()
}

func (v *VDP) SetVBlank(in bool) {
	v.inVBlank = in
	if in {
		v.status |= 0x08
		v.frameIntPending = true
		v.status |= 0x80
	}
}

// ClearFrameInterrupt matches the open-question decision to clear VInt
// unconditionally at frame end rather than on a CPU status read.
func (v *VDP) ClearFrameInterrupt() {
	v.frameIntPending = false
	v.status &^= 0x80
}

func (v *VDP) UpdateLineCounter() {
	if v.lineCounter == 0 {
		v.lineCounter = int(v.reg[10])
		v.lineIntPending = true
	} else {
		v.lineCounter--
	}
}

// LeftColumnBlankEnabled reports reg 0 bit 5 (left-column mask for host
// cropping).
func (v *VDP) LeftColumnBlankEnabled() bool { return v.reg[0]&0x20 != 0 }

func (v *VDP) GetFramebuffer() []byte       { return v.framebuffer.Pix }
func (v *VDP) GetFramebufferStride() int    { return v.framebuffer.Stride }

func (v *VDP) cramToColor(idx uint16) [4]byte {
	c := v.cram[idx%cramSize]
	b := byte((c >> 6) & 0x07 * 36)
	g := byte((c >> 3) & 0x07 * 36)
	r := byte(c & 0x07 * 36)
	return [4]byte{r, g, b, 0xFF}
}

// RenderScanline composes one line in painter order:
// backdrop, scroll B/A low-priority (window substitution), sprites
// priority 0, scroll B/A high-priority, sprites priority 1.
func (v *VDP) RenderScanline(line int) {
	if line < 0 || line >= v.ActiveHeight() {
		return
	}
	for x := 0; x < ScreenWidth; x++ {
		v.bgPriority[x] = false
		v.spriteLine[x] = spritePixel{}
	}

	backdrop := v.cramToColor(uint16(v.reg[7] & 0x3F))
	for x := 0; x < ScreenWidth; x++ {
		v.setPixel(x, line, backdrop)
	}
	if !v.displayEnabled() {
		return
	}

	v.renderLayer(line, false, false) // scroll B low
	v.renderLayer(line, true, false)  // scroll A low (+ window)
	v.renderSprites(line, false)
	v.renderLayer(line, false, true) // scroll B high
	v.renderLayer(line, true, true)  // scroll A high
	v.renderSprites(line, true)
}

func (v *VDP) setPixel(x, y int, c [4]byte) {
	off := y*v.framebuffer.Stride + x*4
	copy(v.framebuffer.Pix[off:off+4], c[:])
}

// renderLayer draws scroll A or B for one priority pass. Scroll A cells
// inside the window rectangle (regs 17/18) are replaced by the window
// plane, which always behaves as scroll A with no per-tile scrolling.
func (v *VDP) renderLayer(line int, isA bool, priority bool) {
	nameTableBase := v.nameTableBase(isA)
	hScroll, vScroll := v.scrollFor(isA, line)

	for x := 0; x < ScreenWidth; x++ {
		if isA && v.inWindow(x, line) {
			v.drawTile(x, line, v.windowNameTableBase(), x, line, priority, true)
			continue
		}
		sx := (x - hScroll) & 0x3FF
		sy := (line + vScroll) & 0x3FF
		v.drawTile(x, line, nameTableBase, sx, sy, priority, isA)
	}
}

func (v *VDP) nameTableBase(isA bool) uint16 {
	if isA {
		return uint16(v.reg[2]&0x38) << 10
	}
	return uint16(v.reg[4]&0x07) << 13
}

func (v *VDP) windowNameTableBase() uint16 {
	return uint16(v.reg[3]&0x3E) << 10
}

func (v *VDP) inWindow(x, line int) bool {
	whp := v.reg[17]
	wvp := v.reg[18]
	right := whp&0x80 != 0
	down := wvp&0x80 != 0
	wx := int(whp&0x1F) * 16
	wy := int(wvp&0x1F) * 8
	inX := false
	if right {
		inX = x >= wx
	} else if wx > 0 {
		inX = x < wx
	}
	inY := false
	if down {
		inY = line >= wy
	} else if wy > 0 {
		inY = line < wy
	}
	return inX || inY
}

func (v *VDP) scrollFor(isA bool, line int) (int, int) {
	var vIdx int
	if !isA {
		vIdx = 1
	}
	vscroll := int(v.vsram[vIdx%vsramSize] & 0x3FF)

	mode := v.reg[11] & 0x03
	base := uint16(v.reg[13]) << 10
	var hscrollAddr uint16
	switch mode {
	case 0x02: // per-cell
		hscrollAddr = base + uint16(line/8)*4
	case 0x03: // per-line
		hscrollAddr = base + uint16(line)*4
	default: // full-screen
		hscrollAddr = base
	}
	if !isA {
		hscrollAddr += 2
	}
	hscroll := int(v.readVRAMWord(hscrollAddr) & 0x3FF)
	return hscroll, vscroll
}

func (v *VDP) drawTile(screenX, screenY int, nameBase uint16, sx, sy int, highPriority bool, isA bool) {
	cellX, cellY := sx/8, sy/8
	cellsPerRow := 64
	nameAddr := nameBase + uint16((cellY*cellsPerRow+cellX)*2)
	entry := v.readVRAMWord(nameAddr)

	pat := entry & 0x7FF
	hFlip := entry&0x0800 != 0
	vFlip := entry&0x1000 != 0
	palette := (entry >> 13) & 0x03
	prio := entry&0x8000 != 0

	if prio != highPriority {
		return
	}

	px, py := sx%8, sy%8
	if hFlip {
		px = 7 - px
	}
	if vFlip {
		py = 7 - py
	}

	tileAddr := uint16(pat)*32 + uint16(py)*4
	rowByte0 := v.vram[(tileAddr)%vramSize]
	rowByte1 := v.vram[(tileAddr+1)%vramSize]
	rowByte2 := v.vram[(tileAddr+2)%vramSize]
	rowByte3 := v.vram[(tileAddr+3)%vramSize]
	row := [4]byte{rowByte0, rowByte1, rowByte2, rowByte3}
	nibbleIdx := px / 2
	b := row[nibbleIdx]
	var colorIdx byte
	if px%2 == 0 {
		colorIdx = b >> 4
	} else {
		colorIdx = b & 0x0F
	}
	if colorIdx == 0 {
		return // transparent
	}

	cramIdx := uint16(palette)*16 + uint16(colorIdx)
	color := v.cramToColor(cramIdx)
	isShadowHi := cramIdx == 0x3E || cramIdx == 0x3F
	if v.shadowHighlight() && isShadowHi {
		return
	}
	v.setPixel(screenX, screenY, color)
	if highPriority {
		v.bgPriority[screenX] = true
	}
	_ = isA
}

// spriteAttr is one entry of the sprite attribute table.
type spriteAttr struct {
	y, x         int
	width, height int
	pattern      uint16
	hFlip, vFlip bool
	palette      byte
	priority     bool
	link         byte
}

func (v *VDP) satBase() uint16 { return uint16(v.reg[5]&0x7F) << 9 }

func (v *VDP) readSprite(idx int) spriteAttr {
	base := v.satBase() + uint16(idx)*8
	y := int(v.readVRAMWord(base) & 0x3FF)
	sizeLink := v.readVRAMWord(base + 2)
	height := (int(sizeLink>>8&0x03) + 1) * 8
	width := (int(sizeLink>>10&0x03) + 1) * 8
	link := byte(sizeLink)
	attr := v.readVRAMWord(base + 4)
	x := int(v.readVRAMWord(base+6) & 0x1FF)
	return spriteAttr{
		y: y - 128, x: x - 128,
		width: width, height: height,
		pattern: attr & 0x7FF,
		hFlip:   attr&0x0800 != 0,
		vFlip:   attr&0x1000 != 0,
		palette: byte(attr >> 13 & 0x03),
		priority: attr&0x8000 != 0,
		link:    link,
	}
}

// renderSprites walks the SAT linked list, enforcing the
// per-line sprite/dot limits and drawing only the requested priority
// pass.
func (v *VDP) renderSprites(line int, highPriority bool) {
	maxSprites := 64
	maxDots := 256
	if v.h40() {
		maxSprites = 80
		maxDots = 320
	}
	maxPerLine := 16
	if v.h40() {
		maxPerLine = 20
	}

	idx := 0
	visited := 0
	onLine := 0
	dots := 0
	first := true
	maskRest := false

	for visited < maxSprites {
		s := v.readSprite(idx)
		visited++
		if line >= s.y && line < s.y+s.height {
			onLine++
			if onLine > maxPerLine || dots+s.width > maxDots {
				break
			}
			if s.x == 0 {
				if first {
					// A first-slot sprite at X=0 masks nothing; the
					// previous line's dot overflow is not tracked.
				} else {
					maskRest = true
				}
			}
			first = false
			if !maskRest && s.priority == highPriority {
				v.drawSprite(s, line)
			}
			dots += s.width
		}
		if s.link == 0 {
			break
		}
		idx = int(s.link)
	}
}

func (v *VDP) drawSprite(s spriteAttr, line int) {
	row := line - s.y
	if s.vFlip {
		row = s.height - 1 - row
	}
	tileRow := row % 8
	tileBlockY := row / 8
	tilesWide := s.width / 8
	tilesTall := s.height / 8

	for col := 0; col < tilesWide; col++ {
		tCol := col
		if s.hFlip {
			tCol = tilesWide - 1 - col
		}
		patIdx := s.pattern + uint16(tCol*tilesTall+tileBlockY)
		tileAddr := patIdx*32 + uint16(tileRow)*4
		for px := 0; px < 8; px++ {
			screenX := s.x + col*8 + px
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}
			ppx := px
			if s.hFlip {
				ppx = 7 - px
			}
			b := v.vram[(tileAddr+uint16(ppx/2))%vramSize]
			var colorIdx byte
			if ppx%2 == 0 {
				colorIdx = b >> 4
			} else {
				colorIdx = b & 0x0F
			}
			if colorIdx == 0 {
				continue
			}
			cramIdx := uint16(s.palette)*16 + uint16(colorIdx)
			if v.bgPriority[screenX] && !s.priority {
				continue
			}
			v.setPixel(screenX, line, v.cramToColor(cramIdx))
		}
	}
}
