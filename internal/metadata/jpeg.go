package metadata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegJFIFHeader = []byte("JFIF\x00")
)

// maxJPEGExif is the largest EXIF block that fits in a single APP1 segment.
const maxJPEGExif = 0xffff - 2 - 6

// extractJPEGExif walks the marker segments up to SOS and returns the payload
// of the first APP1 Exif segment without its "Exif\0\0" prefix.
func extractJPEGExif(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return nil, err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return nil, fmt.Errorf("invalid JPEG SOI")
	}

	for {
		markerPrefix, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		for markerPrefix != 0xff {
			markerPrefix, err = br.ReadByte()
			if err != nil {
				return nil, err
			}
		}

		marker, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		for marker == 0xff {
			marker, err = br.ReadByte()
			if err != nil {
				return nil, err
			}
		}

		if marker == 0xd9 || marker == 0xda { // EOI, SOS
			return nil, nil
		}
		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return nil, err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return nil, fmt.Errorf("invalid JPEG segment length")
		}
		payloadLen := segLen - 2

		if marker != 0xe1 {
			if _, err := io.CopyN(io.Discard, br, int64(payloadLen)); err != nil {
				return nil, err
			}
			continue
		}

		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, err
		}
		if bytes.HasPrefix(payload, jpegExifHeader) {
			return payload[len(jpegExifHeader):], nil
		}
	}
}

// injectJPEG inserts a JFIF density segment and an APP1 Exif segment right
// after SOI. An existing JFIF APP0 directly after SOI is patched in place.
func injectJPEG(data []byte, dpi int, exifBlock []byte) ([]byte, bool, bool, error) {
	if len(data) < 4 || data[0] != 0xff || data[1] != 0xd8 {
		return data, false, false, errors.New("invalid JPEG SOI")
	}

	var head bytes.Buffer
	rest := data[2:]
	dpiDone := false

	if dpi > 0 {
		if jfifLen, ok := leadingJFIF(rest); ok {
			patched := append([]byte{}, rest[:jfifLen]...)
			// units at payload offset 7, densities at 8 and 10.
			patched[4+7] = 1
			binary.BigEndian.PutUint16(patched[4+8:], clampUint16(dpi))
			binary.BigEndian.PutUint16(patched[4+10:], clampUint16(dpi))
			head.Write(patched)
			rest = rest[jfifLen:]
		} else {
			head.Write(jfifSegment(dpi))
		}
		dpiDone = true
	}

	exifDone := false
	if len(exifBlock) > 0 {
		if len(exifBlock) > maxJPEGExif {
			return data, false, false, fmt.Errorf("exif block of %d bytes exceeds a single APP1 segment", len(exifBlock))
		}
		head.Write([]byte{0xff, 0xe1})
		_ = binary.Write(&head, binary.BigEndian, uint16(2+len(jpegExifHeader)+len(exifBlock)))
		head.Write(jpegExifHeader)
		head.Write(exifBlock)
		exifDone = true
	}

	out := make([]byte, 0, len(data)+head.Len())
	out = append(out, 0xff, 0xd8)
	out = append(out, head.Bytes()...)
	out = append(out, rest...)
	return out, dpiDone, exifDone, nil
}

// leadingJFIF reports the full length (marker included) of a JFIF APP0
// segment at the start of buf.
func leadingJFIF(buf []byte) (int, bool) {
	if len(buf) < 4 || buf[0] != 0xff || buf[1] != 0xe0 {
		return 0, false
	}
	segLen := int(binary.BigEndian.Uint16(buf[2:4]))
	if segLen < 16 || len(buf) < 2+segLen {
		return 0, false
	}
	if !bytes.HasPrefix(buf[4:], jpegJFIFHeader) {
		return 0, false
	}
	return 2 + segLen, true
}

func jfifSegment(dpi int) []byte {
	var seg bytes.Buffer
	seg.Write([]byte{0xff, 0xe0})
	_ = binary.Write(&seg, binary.BigEndian, uint16(16))
	seg.Write(jpegJFIFHeader)
	seg.Write([]byte{0x01, 0x01}) // version 1.01
	seg.WriteByte(1)              // dots per inch
	_ = binary.Write(&seg, binary.BigEndian, clampUint16(dpi))
	_ = binary.Write(&seg, binary.BigEndian, clampUint16(dpi))
	seg.Write([]byte{0x00, 0x00}) // no thumbnail
	return seg.Bytes()
}

func clampUint16(v int) uint16 {
	if v > 0xffff {
		return 0xffff
	}
	if v < 0 {
		return 0
	}
	return uint16(v)
}
