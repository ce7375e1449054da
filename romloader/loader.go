// Package romloader handles loading cartridge ROM images from various
// sources, including compressed archives (ZIP, 7z, gzip, RAR).
package romloader

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// Magic bytes for format detection.
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// maxROMSize is a safety limit; the largest SSF2-banked cartridges this
// core supports top out well under this.
const maxROMSize = 10 * 1024 * 1024

// ErrNoROMFile is returned when no recognizable cartridge image is found
// inside an archive.
var ErrNoROMFile = errors.New("no Mega Drive ROM file found in archive")

// ErrUnsupportedFormat is returned for unrecognized file formats.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrFileTooLarge is returned when extracted content exceeds the size
// limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

type formatType int

const (
	formatUnknown formatType = iota
	formatRawMD
	formatZIP
	format7z
	formatGzip
	formatRAR
)

// LoadROM loads a ROM from a file path, automatically detecting and
// extracting from archives. Returns the ROM bytes, the display name of
// the ROM entry, and any error.
func LoadROM(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	format := detectFormat(header, path)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("failed to seek file: %w", err)
	}

	switch format {
	case formatRawMD:
		data, err := limitedRead(f)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read ROM: %w", err)
		}
		return data, filepath.Base(path), nil
	case formatZIP:
		return extractFromZIP(path)
	case format7z:
		return extractFrom7z(path)
	case formatGzip:
		return extractFromGzip(path)
	case formatRAR:
		return extractFromRAR(path)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func detectFormat(header []byte, path string) formatType {
	ext := strings.ToLower(filepath.Ext(path))

	if len(header) >= 4 {
		if bytes.HasPrefix(header, magicZIP) || bytes.HasPrefix(header, magicZIPEnd) {
			return formatZIP
		}
		if bytes.HasPrefix(header, magicRAR) {
			return formatRAR
		}
	}
	if len(header) >= 6 && bytes.HasPrefix(header, magic7z) {
		return format7z
	}
	if len(header) >= 2 && bytes.HasPrefix(header, magicGzip) {
		return formatGzip
	}

	switch ext {
	case ".bin", ".md", ".gen", ".smd":
		return formatRawMD
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz":
		return formatGzip
	case ".rar":
		return formatRAR
	}

	return formatUnknown
}

// isMDFile reports whether an archive entry name looks like a Mega
// Drive ROM image.
func isMDFile(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".bin") || strings.HasSuffix(n, ".md") ||
		strings.HasSuffix(n, ".gen") || strings.HasSuffix(n, ".smd")
}

func limitedRead(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, maxROMSize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxROMSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

func extractFromZIP(path string) ([]byte, string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isMDFile(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		return data, filepath.Base(f.Name), nil
	}
	return nil, "", ErrNoROMFile
}

func extractFrom7z(path string) ([]byte, string, error) {
	zr, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open 7z: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isMDFile(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		return data, filepath.Base(f.Name), nil
	}
	return nil, "", ErrNoROMFile
}

func extractFromGzip(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open gzip: %w", err)
	}
	defer gr.Close()

	data, err := limitedRead(gr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read gzip: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), ".gz")
	return data, name, nil
}
