package imgutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{"jpeg", pad([]byte{0xff, 0xd8, 0xff, 0xe0}), KindJPEG},
		{"png", pad(pngSig), KindPNG},
		{"tiff little endian", pad(tiffSigLE), KindTIFF},
		{"tiff big endian", pad(tiffSigBE), KindTIFF},
		{"gif", pad([]byte("GIF89a")), KindGIF},
		{"bmp", pad([]byte("BM")), KindBMP},
		{"webp", []byte("RIFF\x10\x00\x00\x00WEBP"), KindWebP},
		{"riff but not webp", []byte("RIFF\x10\x00\x00\x00WAVE"), KindUnknown},
		{"text", []byte("hello world!"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectHeader(tt.header)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDetectHeaderTooShort(t *testing.T) {
	_, err := DetectHeader([]byte{0xff, 0xd8})
	require.Error(t, err)

	_, err = SniffReader(bytes.NewReader([]byte("GIF")))
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":         FormatOriginal,
		"Original": FormatOriginal,
		"keep":     FormatOriginal,
		"JPG":      FormatJPEG,
		"jpeg":     FormatJPEG,
		"tif":      FormatTIFF,
		"webp":     FormatWebP,
		"bmp":      FormatBMP,
		"gif":      FormatGIF,
		"png":      FormatPNG,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseFormat("heic")
	require.Error(t, err)
}

func TestFormatResolve(t *testing.T) {
	require.Equal(t, KindPNG, FormatOriginal.Resolve(KindPNG))
	require.Equal(t, KindJPEG, FormatJPEG.Resolve(KindPNG))
	require.Equal(t, KindTIFF, FormatTIFF.Resolve(KindGIF))
	require.True(t, KindJPEG.Lossy())
	require.True(t, KindWebP.Lossy())
	require.False(t, KindPNG.Lossy())
	require.Equal(t, ".jpg", KindJPEG.Ext())
}

func TestSupported(t *testing.T) {
	require.True(t, Supported("a/b/photo.JPEG"))
	require.True(t, Supported("scan.tif"))
	require.False(t, Supported("notes.txt"))
	require.False(t, Supported("noext"))
}

func pad(prefix []byte) []byte {
	out := make([]byte, headerLen)
	copy(out, prefix)
	return out
}
