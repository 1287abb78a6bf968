package imgutil

import (
	"fmt"
	"strings"
)

// Format is a requested output format. FormatOriginal keeps the source kind.
type Format string

const (
	FormatOriginal Format = "original"
	FormatJPEG     Format = "jpeg"
	FormatPNG      Format = "png"
	FormatWebP     Format = "webp"
	FormatTIFF     Format = "tiff"
	FormatBMP      Format = "bmp"
	FormatGIF      Format = "gif"
)

// Formats lists every accepted output format in display order.
var Formats = []Format{FormatOriginal, FormatJPEG, FormatPNG, FormatWebP, FormatTIFF, FormatBMP, FormatGIF}

// ParseFormat accepts the format names case-insensitively, plus the usual
// extension spellings ("jpg", "tif") and "keep" for the original format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "original", "keep":
		return FormatOriginal, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	case "bmp":
		return FormatBMP, nil
	case "gif":
		return FormatGIF, nil
	default:
		return "", fmt.Errorf("unknown output format %q", name)
	}
}

// Resolve returns the kind to encode, falling back to source for FormatOriginal.
func (f Format) Resolve(source Kind) Kind {
	switch f {
	case FormatOriginal:
		return source
	default:
		return KindFromExt(string(f))
	}
}
