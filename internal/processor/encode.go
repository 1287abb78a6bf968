package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"pixresize/pkg/imgutil"
)

// encoderLimits is the largest edge each encoder can store. Kinds without an
// entry have no practical limit.
var encoderLimits = map[imgutil.Kind]int{
	imgutil.KindJPEG: 65535,
	imgutil.KindGIF:  65535,
	imgutil.KindWebP: 16383,
}

// checkEncodable rejects sizes the encoder for kind cannot write.
func checkEncodable(kind imgutil.Kind, width, height int) error {
	limit, ok := encoderLimits[kind]
	if !ok {
		return nil
	}
	if width > limit || height > limit {
		return fmt.Errorf("%dx%d exceeds the %s limit of %d pixels per side", width, height, kind, limit)
	}
	return nil
}

// encode writes img as kind. quality only reaches lossy encoders.
func encode(img image.Image, kind imgutil.Kind, quality int) ([]byte, error) {
	b := img.Bounds()
	if err := checkEncodable(kind, b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var err error

	switch kind {
	case imgutil.KindJPEG:
		err = imaging.Encode(&buf, flatten(img), imaging.JPEG, imaging.JPEGQuality(quality))
	case imgutil.KindWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	case imgutil.KindPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case imgutil.KindGIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	case imgutil.KindTIFF:
		err = imaging.Encode(&buf, img, imaging.TIFF)
	case imgutil.KindBMP:
		err = imaging.Encode(&buf, img, imaging.BMP)
	default:
		err = fmt.Errorf("no encoder for %s", kind)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flatten composites img over white. JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// writeOutput replaces destPath atomically through a temp file in the same
// directory.
func writeOutput(destPath string, data []byte) error {
	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(destDir, ".pixresize-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return replaceFile(tmpFile.Name(), destPath)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
