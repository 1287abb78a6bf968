package metadata

import (
	"encoding/binary"
	"math"
)

const (
	bmpInfoHeaderOff = 14
	bmpXPPMOff       = 38
	bmpYPPMOff       = 42
)

// setBMPDPI writes the pixels-per-meter fields of a BITMAPINFOHEADER or later.
func setBMPDPI(data []byte, dpi int) ([]byte, bool) {
	if len(data) < bmpYPPMOff+4 || data[0] != 'B' || data[1] != 'M' {
		return data, false
	}
	if binary.LittleEndian.Uint32(data[bmpInfoHeaderOff:bmpInfoHeaderOff+4]) < 40 {
		return data, false
	}

	ppm := uint32(math.Round(float64(dpi) / metersPerInch))
	out := append([]byte{}, data...)
	binary.LittleEndian.PutUint32(out[bmpXPPMOff:], ppm)
	binary.LittleEndian.PutUint32(out[bmpYPPMOff:], ppm)
	return out, true
}
