package metadata

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/chai2010/webp"
)

const webpExifChunk = "EXIF"

// extractWebPExif returns the EXIF chunk of a WebP file, or nil when it has
// none. libwebp reports a missing chunk as an error, so only a header that is
// not WebP at all is treated as a failure.
func extractWebPExif(data []byte) ([]byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, errors.New("invalid WebP header")
	}
	block, err := webp.GetMetadata(data, webpExifChunk)
	if err != nil || len(block) == 0 {
		return nil, nil
	}
	// Some writers keep the JPEG APP1 prefix.
	return bytes.TrimPrefix(block, jpegExifHeader), nil
}

func injectWebP(data []byte, exifBlock []byte) ([]byte, error) {
	out, err := webp.SetMetadata(data, exifBlock, webpExifChunk)
	if err != nil {
		return nil, fmt.Errorf("webp exif chunk: %w", err)
	}
	return out, nil
}
