//go:build !libretro

package main

import (
	"flag"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	mdebiten "github.com/user-none/mdcore/bridge/ebiten"
	"github.com/user-none/mdcore/cli"
	"github.com/user-none/mdcore/emu"
	"github.com/user-none/mdcore/romloader"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	cropBorder := flag.Bool("crop-border", false, "crop left border when blank")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("usage: mdcore -rom <path>")
	}

	romData, _, err := romloader.LoadROM(*romPath)
	if err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}

	var region emu.Region
	switch strings.ToLower(*regionFlag) {
	case "auto":
		region = emu.DetectRegionFromROM(romData)
	case "ntsc":
		region = emu.RegionNTSC
	case "pal":
		region = emu.RegionPAL
	default:
		log.Fatalf("Invalid region: %s (use auto, ntsc, or pal)", *regionFlag)
	}

	timing := emu.GetTimingForRegion(region)
	e, err := mdebiten.NewEmulator(romData, region)
	if err != nil {
		log.Fatalf("Failed to init emulator: %v", err)
	}

	ebiten.SetWindowSize(emu.ScreenWidth*2, 224*2)
	ebiten.SetWindowTitle("mdcore")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(emu.ScreenWidth, 224, -1, -1)
	ebiten.SetTPS(int(timing.FPS))

	runner := cli.NewRunner(e, *cropBorder)
	defer runner.Close()
	defer e.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}
