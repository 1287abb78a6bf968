package metadata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"math"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

const metersPerInch = 0.0254

func extractPNGExif(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	sig := make([]byte, 8)
	if _, err := io.ReadFull(br, sig); err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, errors.New("invalid PNG signature")
	}

	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		typeBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, typeBuf); err != nil {
			return nil, err
		}

		switch string(typeBuf) {
		case "eXIf":
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return nil, err
			}
			return data, nil
		case "IDAT", "IEND":
			// eXIf after image data is not honoured by readers.
			return nil, nil
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return nil, err
			}
		}
	}
}

// injectPNG places pHYs and eXIf chunks right after IHDR.
func injectPNG(data []byte, dpi int, exifBlock []byte) ([]byte, bool, bool, error) {
	if len(data) < 8+12 || !bytes.Equal(data[:8], pngSignature) {
		return data, false, false, errors.New("invalid PNG signature")
	}
	if string(data[12:16]) != "IHDR" {
		return data, false, false, errors.New("PNG does not start with IHDR")
	}
	ihdrEnd := 8 + 12 + int(binary.BigEndian.Uint32(data[8:12]))
	if ihdrEnd > len(data) {
		return data, false, false, errors.New("truncated IHDR chunk")
	}

	var extra bytes.Buffer
	dpiDone := false
	if dpi > 0 {
		ppm := uint32(math.Round(float64(dpi) / metersPerInch))
		phys := make([]byte, 9)
		binary.BigEndian.PutUint32(phys[0:4], ppm)
		binary.BigEndian.PutUint32(phys[4:8], ppm)
		phys[8] = 1 // unit: meter
		extra.Write(buildPNGChunk("pHYs", phys))
		dpiDone = true
	}
	exifDone := false
	if len(exifBlock) > 0 {
		extra.Write(buildPNGChunk("eXIf", exifBlock))
		exifDone = true
	}

	out := make([]byte, 0, len(data)+extra.Len())
	out = append(out, data[:ihdrEnd]...)
	out = append(out, extra.Bytes()...)
	out = append(out, data[ihdrEnd:]...)
	return out, dpiDone, exifDone, nil
}

func buildPNGChunk(chunkType string, data []byte) []byte {
	chunkTypeBytes := []byte(chunkType)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(data)))
	crc := crc32.ChecksumIEEE(append(append([]byte{}, chunkTypeBytes...), data...))
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, crc)

	chunk := make([]byte, 0, 12+len(data))
	chunk = append(chunk, lenBuf...)
	chunk = append(chunk, chunkTypeBytes...)
	chunk = append(chunk, data...)
	chunk = append(chunk, crcBuf...)
	return chunk
}
