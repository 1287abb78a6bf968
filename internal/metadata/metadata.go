// Package metadata carries resolution (DPI) and EXIF data from a source image
// onto a freshly encoded one. Nothing here fails a resize: whatever cannot be
// written is dropped and described in the returned Report.
package metadata

import (
	"bytes"
	"fmt"

	"pixresize/pkg/imgutil"
)

// Metadata is what the pipeline asks to carry onto an encoded image.
type Metadata struct {
	DPI  int
	EXIF []byte
}

// Report describes what Apply wrote and what it had to leave out.
type Report struct {
	DPIWritten  bool
	EXIFWritten bool
	EXIFOmitted bool
	Notes       []string
}

func (r *Report) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// CanEmbedEXIF reports whether kind has a segment for a verbatim EXIF block.
func CanEmbedEXIF(kind imgutil.Kind) bool {
	switch kind {
	case imgutil.KindJPEG, imgutil.KindPNG, imgutil.KindWebP:
		return true
	default:
		return false
	}
}

// CanEmbedDPI reports whether kind has a resolution field.
func CanEmbedDPI(kind imgutil.Kind) bool {
	switch kind {
	case imgutil.KindJPEG, imgutil.KindPNG, imgutil.KindTIFF, imgutil.KindBMP:
		return true
	default:
		return false
	}
}

// Extract returns the raw EXIF block of src, or nil when the file has none or
// its format does not store EXIF as a separable block.
func Extract(src []byte, kind imgutil.Kind) ([]byte, error) {
	switch kind {
	case imgutil.KindJPEG:
		return extractJPEGExif(bytes.NewReader(src))
	case imgutil.KindPNG:
		return extractPNGExif(bytes.NewReader(src))
	case imgutil.KindWebP:
		return extractWebPExif(src)
	default:
		return nil, nil
	}
}

// PrepareEXIF readies a source EXIF block for copying. When the pixels were
// already rotated upright, the Orientation tag is reset so viewers do not
// rotate a second time. The returned block is always safe to copy, even
// alongside an error: a block that cannot be parsed is passed through verbatim.
func PrepareEXIF(exifBlock []byte, oriented bool) ([]byte, EXIFInfo, error) {
	info, err := InspectEXIF(exifBlock)
	if err != nil {
		return exifBlock, info, err
	}
	if oriented && info.Orientation != 1 {
		out, err := resetOrientation(exifBlock)
		return out, info, err
	}
	return exifBlock, info, nil
}

// Apply writes meta into an encoded image of the given kind. It never fails;
// on any problem the untouched encoding is returned with a note.
func Apply(encoded []byte, kind imgutil.Kind, meta Metadata) (out []byte, report Report) {
	out = encoded
	defer func() {
		if r := recover(); r != nil {
			out = encoded
			report = Report{EXIFOmitted: len(meta.EXIF) > 0}
			report.note("metadata omitted: %v", r)
		}
	}()

	if len(meta.EXIF) > 0 && !CanEmbedEXIF(kind) {
		report.EXIFOmitted = true
		report.note("exif omitted: %s cannot embed EXIF", kind)
	}
	if meta.DPI > 0 && !CanEmbedDPI(kind) {
		report.note("dpi omitted: %s has no resolution field", kind)
	}

	switch kind {
	case imgutil.KindJPEG, imgutil.KindPNG:
		inject := injectJPEG
		if kind == imgutil.KindPNG {
			inject = injectPNG
		}
		res, dpiOK, exifOK, err := inject(encoded, meta.DPI, meta.EXIF)
		if err != nil && len(meta.EXIF) > 0 {
			report.EXIFOmitted = true
			report.note("exif omitted: %v", err)
			res, dpiOK, exifOK, err = inject(encoded, meta.DPI, nil)
		}
		if err != nil {
			report.note("dpi omitted: %v", err)
			return encoded, report
		}
		report.DPIWritten = dpiOK
		report.EXIFWritten = exifOK
		return res, report
	case imgutil.KindWebP:
		if len(meta.EXIF) > 0 {
			res, err := injectWebP(encoded, meta.EXIF)
			if err != nil {
				report.EXIFOmitted = true
				report.note("exif omitted: %v", err)
				return encoded, report
			}
			report.EXIFWritten = true
			return res, report
		}
	case imgutil.KindTIFF:
		if meta.DPI > 0 {
			res, ok := setTIFFDPI(encoded, meta.DPI)
			if !ok {
				report.note("dpi omitted: tiff resolution tags not found")
				return encoded, report
			}
			report.DPIWritten = true
			return res, report
		}
	case imgutil.KindBMP:
		if meta.DPI > 0 {
			res, ok := setBMPDPI(encoded, meta.DPI)
			if !ok {
				report.note("dpi omitted: unexpected bmp header")
				return encoded, report
			}
			report.DPIWritten = true
			return res, report
		}
	}

	return encoded, report
}
