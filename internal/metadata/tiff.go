package metadata

import (
	"encoding/binary"
	"errors"
)

const (
	tagOrientation    = 0x0112
	tagXResolution    = 0x011a
	tagYResolution    = 0x011b
	tagResolutionUnit = 0x0128

	typeShort    = 3
	typeRational = 5

	resolutionInch = 2
)

type ifdEntry struct {
	tag      uint16
	typ      uint16
	count    uint32
	valueOff int // offset of the 4-byte value/offset field
}

// readIFD0 parses the TIFF header and the first IFD of buf. EXIF blocks
// use the same layout, so this serves both.
func readIFD0(buf []byte) (binary.ByteOrder, []ifdEntry, error) {
	if len(buf) < 8 {
		return nil, nil, errors.New("tiff header too short")
	}

	var order binary.ByteOrder
	switch {
	case buf[0] == 'I' && buf[1] == 'I':
		order = binary.LittleEndian
	case buf[0] == 'M' && buf[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, nil, errors.New("invalid tiff byte order")
	}
	if order.Uint16(buf[2:4]) != 42 {
		return nil, nil, errors.New("invalid tiff magic")
	}

	ifdOff := int(order.Uint32(buf[4:8]))
	if ifdOff < 8 || ifdOff+2 > len(buf) {
		return nil, nil, errors.New("ifd0 offset out of range")
	}
	count := int(order.Uint16(buf[ifdOff : ifdOff+2]))
	if ifdOff+2+count*12 > len(buf) {
		return nil, nil, errors.New("ifd0 truncated")
	}

	entries := make([]ifdEntry, 0, count)
	for i := 0; i < count; i++ {
		base := ifdOff + 2 + i*12
		entries = append(entries, ifdEntry{
			tag:      order.Uint16(buf[base : base+2]),
			typ:      order.Uint16(buf[base+2 : base+4]),
			count:    order.Uint32(buf[base+4 : base+8]),
			valueOff: base + 8,
		})
	}
	return order, entries, nil
}

// resetOrientation returns a copy of the EXIF block with IFD0's Orientation
// set to 1 (top-left). Blocks without the tag are returned unchanged.
func resetOrientation(exifBlock []byte) ([]byte, error) {
	order, entries, err := readIFD0(exifBlock)
	if err != nil {
		return exifBlock, err
	}

	for _, e := range entries {
		if e.tag != tagOrientation || e.typ != typeShort || e.count != 1 {
			continue
		}
		out := append([]byte{}, exifBlock...)
		order.PutUint16(out[e.valueOff:e.valueOff+2], 1)
		return out, nil
	}
	return exifBlock, nil
}

// setTIFFDPI rewrites the resolution tags of an encoded TIFF file. It only
// patches existing tags and reports false when they are missing.
func setTIFFDPI(data []byte, dpi int) ([]byte, bool) {
	order, entries, err := readIFD0(data)
	if err != nil {
		return data, false
	}

	out := append([]byte{}, data...)
	found := 0
	for _, e := range entries {
		switch e.tag {
		case tagXResolution, tagYResolution:
			if e.typ != typeRational || e.count != 1 {
				continue
			}
			off := int(order.Uint32(out[e.valueOff : e.valueOff+4]))
			if off < 0 || off+8 > len(out) {
				continue
			}
			order.PutUint32(out[off:off+4], uint32(dpi))
			order.PutUint32(out[off+4:off+8], 1)
			found++
		case tagResolutionUnit:
			if e.typ == typeShort {
				order.PutUint16(out[e.valueOff:e.valueOff+2], resolutionInch)
			}
		}
	}
	if found < 2 {
		return data, false
	}
	return out, true
}
