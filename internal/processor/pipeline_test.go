package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"pixresize/internal/metadata"
	"pixresize/internal/testutil"
	"pixresize/pkg/imgutil"
)

func singleJob(t *testing.T, src string, opts Options) Job {
	t.Helper()
	jobs := NewJobs([]string{src}, opts)
	require.Len(t, jobs, 1)
	return jobs[0]
}

func TestProcessJPEGKeepsExif(t *testing.T) {
	dir := t.TempDir()
	block := testutil.ExifTIFF(1)
	src := testutil.WriteFile(t, filepath.Join(dir, "photo.jpg"), testutil.JPEG(t, testutil.Gradient(40, 30), block))

	opts := validOptions(filepath.Join(dir, "out"))
	opts.Format = imgutil.FormatJPEG
	res := Process(singleJob(t, src, opts))
	require.True(t, res.OK(), "%v", res.Err)
	require.False(t, res.MetadataDegraded)
	require.Equal(t, filepath.Join(dir, "out", "photo_20x15.jpg"), res.Output)
	require.Equal(t, 20, res.Width)
	require.Equal(t, 15, res.Height)
	require.Equal(t, imgutil.KindJPEG, res.Kind)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)

	copied, err := metadata.Extract(out, imgutil.KindJPEG)
	require.NoError(t, err)
	require.Equal(t, block, copied)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 20, cfg.Width)
	require.Equal(t, 15, cfg.Height)
}

func TestProcessJPEGToBMPDropsExifQuietly(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, filepath.Join(dir, "photo.jpg"), testutil.JPEG(t, testutil.Gradient(40, 30), testutil.ExifTIFF(1)))

	opts := validOptions(filepath.Join(dir, "out"))
	opts.Format = imgutil.FormatBMP
	res := Process(singleJob(t, src, opts))
	require.True(t, res.OK(), "%v", res.Err)
	require.True(t, res.MetadataDegraded)
	require.Equal(t, ".bmp", filepath.Ext(res.Output))

	f, err := os.Open(res.Output)
	require.NoError(t, err)
	defer f.Close()
	img, err := bmp.Decode(f)
	require.NoError(t, err)
	require.Equal(t, image.Pt(20, 15), img.Bounds().Size())
}

func TestProcessWithoutPreserveSkipsExif(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, filepath.Join(dir, "photo.jpg"), testutil.JPEG(t, testutil.Gradient(40, 30), testutil.ExifTIFF(1)))

	opts := validOptions(filepath.Join(dir, "out"))
	opts.PreserveMetadata = false
	res := Process(singleJob(t, src, opts))
	require.True(t, res.OK(), "%v", res.Err)
	require.False(t, res.MetadataDegraded)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	copied, err := metadata.Extract(out, imgutil.KindJPEG)
	require.NoError(t, err)
	require.Nil(t, copied)
}

func TestProcessAppliesOrientation(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, filepath.Join(dir, "rotated.jpg"), testutil.JPEG(t, testutil.Gradient(40, 20), testutil.ExifTIFF(6)))

	opts := validOptions(filepath.Join(dir, "out"))
	res := Process(singleJob(t, src, opts))
	require.True(t, res.OK(), "%v", res.Err)
	require.Equal(t, 20, res.SourceWidth)
	require.Equal(t, 40, res.SourceHeight)
	require.Equal(t, filepath.Join(dir, "out", "rotated_10x20.jpg"), res.Output)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	copied, err := metadata.Extract(out, imgutil.KindJPEG)
	require.NoError(t, err)
	info, err := metadata.InspectEXIF(copied)
	require.NoError(t, err)
	require.Equal(t, 1, info.Orientation)
}

func TestProcessFlattensAlphaForJPEG(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{})
		}
	}
	src := testutil.WriteFile(t, filepath.Join(dir, "clear.png"), testutil.PNG(t, img))

	opts := validOptions(filepath.Join(dir, "out"))
	opts.Scale = Percentage(100)
	opts.Format = imgutil.FormatJPEG
	res := Process(singleJob(t, src, opts))
	require.True(t, res.OK(), "%v", res.Err)

	f, err := os.Open(res.Output)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := jpeg.Decode(f)
	require.NoError(t, err)
	r, g, b, _ := decoded.At(4, 4).RGBA()
	require.Greater(t, r>>8, uint32(240))
	require.Greater(t, g>>8, uint32(240))
	require.Greater(t, b>>8, uint32(240))
}

func TestProcessKeepOriginalPNG(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, filepath.Join(dir, "icon.PNG"), testutil.PNG(t, testutil.Gradient(30, 10)))

	opts := validOptions(filepath.Join(dir, "out"))
	opts.Scale = Absolute(15, 0)
	opts.Scale.LockAspect = true
	opts.DPI = 96
	res := Process(singleJob(t, src, opts))
	require.True(t, res.OK(), "%v", res.Err)
	require.Equal(t, filepath.Join(dir, "out", "icon_15x5.png"), res.Output)
	require.Equal(t, imgutil.KindPNG, res.Kind)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	require.Contains(t, string(out), "pHYs")
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, image.Pt(15, 5), img.Bounds().Size())
}

func TestProcessWebPUsesQuality(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, filepath.Join(dir, "shot.png"), testutil.PNG(t, testutil.Gradient(32, 32)))

	opts := validOptions(filepath.Join(dir, "out"))
	opts.Format = imgutil.FormatWebP
	opts.Quality = 40
	res := Process(singleJob(t, src, opts))
	require.True(t, res.OK(), "%v", res.Err)
	require.Equal(t, ".webp", filepath.Ext(res.Output))

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	img, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, image.Pt(16, 16), img.Bounds().Size())
}

func TestProcessWebPKeepsExif(t *testing.T) {
	dir := t.TempDir()
	block := testutil.ExifTIFF(1)

	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, testutil.Gradient(40, 30), &webp.Options{Quality: 90}))
	tagged, err := webp.SetMetadata(buf.Bytes(), block, "EXIF")
	require.NoError(t, err)
	src := testutil.WriteFile(t, filepath.Join(dir, "pic.webp"), tagged)

	res := Process(singleJob(t, src, validOptions(filepath.Join(dir, "out"))))
	require.True(t, res.OK(), "%v", res.Err)
	require.False(t, res.MetadataDegraded, "%v", res.Notes)
	require.Equal(t, imgutil.KindWebP, res.Kind)
	require.Equal(t, filepath.Join(dir, "out", "pic_20x15.webp"), res.Output)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	copied, err := metadata.Extract(out, imgutil.KindWebP)
	require.NoError(t, err)
	require.Equal(t, block, copied)
}

func TestProcessJPEGToWebPKeepsExif(t *testing.T) {
	dir := t.TempDir()
	block := testutil.ExifTIFF(1)
	src := testutil.WriteFile(t, filepath.Join(dir, "photo.jpg"), testutil.JPEG(t, testutil.Gradient(40, 30), block))

	opts := validOptions(filepath.Join(dir, "out"))
	opts.Format = imgutil.FormatWebP
	res := Process(singleJob(t, src, opts))
	require.True(t, res.OK(), "%v", res.Err)
	require.False(t, res.MetadataDegraded, "%v", res.Notes)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	copied, err := metadata.Extract(out, imgutil.KindWebP)
	require.NoError(t, err)
	require.Equal(t, block, copied)
}

func TestProcessFailures(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, filepath.Join(dir, "good.png"), testutil.PNG(t, testutil.Gradient(10, 10)))
	bad := testutil.WriteFile(t, filepath.Join(dir, "bad.jpg"), []byte("this is not an image at all"))
	truncated := testutil.WriteFile(t, filepath.Join(dir, "cut.png"), testutil.PNG(t, testutil.Gradient(10, 10))[:40])

	t.Run("decode", func(t *testing.T) {
		for _, src := range []string{bad, truncated, filepath.Join(dir, "missing.jpg")} {
			res := Process(singleJob(t, src, validOptions(filepath.Join(dir, "out"))))
			require.False(t, res.OK())
			require.Equal(t, KindDecodeError, res.Err.Kind, src)
			require.Empty(t, res.Output)
		}
	})

	t.Run("unknown filter", func(t *testing.T) {
		opts := validOptions(filepath.Join(dir, "out-filter"))
		opts.Filter = "SINC"
		res := Process(singleJob(t, good, opts))
		require.False(t, res.OK())
		require.Equal(t, KindUnknownFilter, res.Err.Kind)
		require.ErrorIs(t, res.Err, ErrUnknownFilter)
		_, err := os.Stat(filepath.Join(dir, "out-filter"))
		require.True(t, os.IsNotExist(err))
	})

	t.Run("write", func(t *testing.T) {
		blocker := testutil.WriteFile(t, filepath.Join(dir, "blocker"), []byte("file, not a directory"))
		res := Process(singleJob(t, good, validOptions(blocker)))
		require.False(t, res.OK())
		require.Equal(t, KindWriteError, res.Err.Kind)
	})

	t.Run("output equals input", func(t *testing.T) {
		src := testutil.WriteFile(t, filepath.Join(dir, "same_5x5.png"), testutil.PNG(t, testutil.Gradient(5, 5)))
		opts := validOptions(dir)
		opts.Scale = Percentage(100)
		job := singleJob(t, src, opts)
		job.Stem = "same"
		res := Process(job)
		require.False(t, res.OK())
		require.Equal(t, KindWriteError, res.Err.Kind)
	})
}

func TestProcessEncoderSizeLimits(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, filepath.Join(dir, "strip.png"), testutil.PNG(t, testutil.Gradient(40, 2)))

	cases := []struct {
		name   string
		format imgutil.Format
		width  int
		ok     bool
	}{
		{name: "webp over 16383", format: imgutil.FormatWebP, width: 16384},
		{name: "jpeg over 65535", format: imgutil.FormatJPEG, width: 65536},
		{name: "gif over 65535", format: imgutil.FormatGIF, width: 70000},
		{name: "png has no cap", format: imgutil.FormatPNG, width: 70000, ok: true},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions(filepath.Join(dir, "out"))
			opts.Format = tt.format
			opts.Scale = Absolute(tt.width, 1)
			res := Process(singleJob(t, src, opts))
			if tt.ok {
				require.True(t, res.OK(), "%v", res.Err)
				require.Equal(t, tt.width, res.Width)
				return
			}
			require.False(t, res.OK())
			require.Equal(t, KindEncodeError, res.Err.Kind)
			require.Empty(t, res.Output)
		})
	}
}

func TestCheckEncodable(t *testing.T) {
	require.NoError(t, checkEncodable(imgutil.KindWebP, 16383, 16383))
	require.Error(t, checkEncodable(imgutil.KindWebP, 10, 16384))
	require.NoError(t, checkEncodable(imgutil.KindJPEG, 65535, 1))
	require.Error(t, checkEncodable(imgutil.KindJPEG, 65536, 1))
	require.NoError(t, checkEncodable(imgutil.KindTIFF, 100000, 1))

	_, err := encode(image.NewNRGBA(image.Rect(0, 0, 16384, 1)), imgutil.KindWebP, 80)
	require.Error(t, err)
}

func TestProcessClampsTinyOutput(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, filepath.Join(dir, "strip.png"), testutil.PNG(t, testutil.Gradient(200, 4)))

	opts := validOptions(filepath.Join(dir, "out"))
	opts.Scale = Percentage(10)
	res := Process(singleJob(t, src, opts))
	require.True(t, res.OK(), "%v", res.Err)
	require.True(t, res.Clamped)
	require.Equal(t, 20, res.Width)
	require.Equal(t, 1, res.Height)
}
