// Package format defines the enumerations stored in artifact headers.
package format

import (
	"fmt"
	"strings"
)

type (
	ArtifactKind    uint8
	CompressionType uint8
)

const (
	KindCurve    ArtifactKind = 0x1 // KindCurve is a pooled curve table.
	KindSegments ArtifactKind = 0x2 // KindSegments is a bin segment table.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (k ArtifactKind) String() string {
	switch k {
	case KindCurve:
		return "Curve"
	case KindSegments:
		return "Segments"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression parses a compression name, case-insensitively. The empty
// string means CompressionNone.
func ParseCompression(name string) (CompressionType, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}
