package emu

import "testing"

func TestRegionString(t *testing.T) {
	if RegionNTSC.String() != "NTSC" {
		t.Errorf("RegionNTSC.String() = %q, want NTSC", RegionNTSC.String())
	}
	if RegionPAL.String() != "PAL" {
		t.Errorf("RegionPAL.String() = %q, want PAL", RegionPAL.String())
	}
}

func TestGetTimingForRegion(t *testing.T) {
	if got := GetTimingForRegion(RegionNTSC); got != NTSCTiming {
		t.Errorf("GetTimingForRegion(NTSC) = %+v, want %+v", got, NTSCTiming)
	}
	if got := GetTimingForRegion(RegionPAL); got != PALTiming {
		t.Errorf("GetTimingForRegion(PAL) = %+v, want %+v", got, PALTiming)
	}
	if NTSCTiming.Scanlines != 262 || PALTiming.Scanlines != 313 {
		t.Errorf("unexpected scanline counts: NTSC=%d PAL=%d", NTSCTiming.Scanlines, PALTiming.Scanlines)
	}
}

func TestDetectRegionFromROM(t *testing.T) {
	rom := make([]byte, 0x1F1)
	rom[0x1F0] = 'J'
	if got := DetectRegionFromROM(rom); got != RegionNTSC {
		t.Errorf("DetectRegionFromROM('J') = %v, want RegionNTSC", got)
	}
	rom[0x1F0] = 'E'
	if got := DetectRegionFromROM(rom); got != RegionPAL {
		t.Errorf("DetectRegionFromROM('E') = %v, want RegionPAL", got)
	}
	rom[0x1F0] = 0x00
	if got := DetectRegionFromROM(rom); got != DefaultRegion {
		t.Errorf("DetectRegionFromROM(unknown) = %v, want DefaultRegion", got)
	}
}

func TestDetectRegionFromROMTooShort(t *testing.T) {
	if got := DetectRegionFromROM(make([]byte, 4)); got != DefaultRegion {
		t.Errorf("DetectRegionFromROM(short ROM) = %v, want DefaultRegion", got)
	}
}
