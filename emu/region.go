package emu

// Region selects NTSC or PAL timing for the console.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

func (r Region) String() string {
	if r == RegionPAL {
		return "PAL"
	}
	return "NTSC"
}

// RegionTiming holds the per-region clock (CPUClockHz) and frame shape.
type RegionTiming struct {
	CPUClockHz  int
	Scanlines   int
	FPS         float64
}

var NTSCTiming = RegionTiming{CPUClockHz: 53693175 / 15, Scanlines: 262, FPS: 60}
var PALTiming = RegionTiming{CPUClockHz: 53203424 / 15, Scanlines: 313, FPS: 50}

// GetTimingForRegion returns the clock/scanline shape for region r.
// CPUClockHz is the master clock divided by 15 (the Z80/PSG clock);
// InitSystem clocks the PSG at it and derives the VDP's cycles per line
// from it. The Z80 and FM dividers in z80driver.go and fm.go are fixed
// constants, not derived from it.
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// DefaultRegion is used when auto-detection from the ROM header is
// inconclusive.
const DefaultRegion = RegionNTSC

// DetectRegionFromROM inspects the header's country-code field (offset
// 0x1F0, one byte in the classic layout) and falls back to NTSC when the
// byte names no known territory.
func DetectRegionFromROM(rom []byte) Region {
	if len(rom) < 0x1F1 {
		return DefaultRegion
	}
	switch rom[0x1F0] {
	case 'E', 'F': // Europe
		return RegionPAL
	case 'J', 'U', 'A':
		return RegionNTSC
	default:
		return DefaultRegion
	}
}
