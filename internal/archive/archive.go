// Package archive classifies downloaded artifacts by magic bytes and
// extracts them into a target directory, normalizing wrapper folders and
// blocking path escape.
package archive

import (
	"bytes"
	"fmt"
	"os"
)

// Format is the classified kind of a downloaded artifact.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatRar
	Format7z
	FormatGzip
	FormatBinary // native plugin binary, installed as-is
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatRar:
		return "rar"
	case Format7z:
		return "7z"
	case FormatGzip:
		return "gzip"
	case FormatBinary:
		return "binary"
	default:
		return "unknown"
	}
}

var magics = []struct {
	prefix []byte
	format Format
}{
	{[]byte{0x50, 0x4B, 0x03, 0x04}, FormatZip},
	{[]byte{0x50, 0x4B, 0x05, 0x06}, FormatZip}, // empty archive
	{[]byte("Rar!"), FormatRar},
	{[]byte{0x37, 0x7A, 0xBC, 0xAF}, Format7z},
	{[]byte{0x1F, 0x8B}, FormatGzip},
	{[]byte("MZ"), FormatBinary},
	{[]byte{0x7F, 'E', 'L', 'F'}, FormatBinary},
}

// DetectFormat classifies content by its leading bytes.
func DetectFormat(head []byte) Format {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.prefix) {
			return m.format
		}
	}
	return FormatUnknown
}

// detectFile reads just enough of a file to classify it.
func detectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	head := make([]byte, 8)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		return FormatUnknown, fmt.Errorf("reading artifact header: %w", err)
	}
	return DetectFormat(head[:n]), nil
}

// Installer extracts classified artifacts into a target directory.
type Installer struct{}

// NewInstaller creates an Installer.
func NewInstaller() *Installer {
	return &Installer{}
}
