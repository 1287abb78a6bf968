package processor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"pixresize/internal/metadata"
	"pixresize/pkg/imgutil"
)

// Process runs a single job: decode, size, resample, encode, carry metadata
// and write. Every failure is returned inside the Result; Process never
// panics on bad input and never touches files of other jobs.
func Process(job Job) Result {
	opts := job.Options
	res := Result{Index: job.Index, Path: job.Path, Display: job.Display}

	data, err := os.ReadFile(job.Path)
	if err != nil {
		res.Err = jobErr(KindDecodeError, err)
		return res
	}

	srcKind, err := imgutil.DetectHeader(data)
	if err != nil {
		res.Err = jobErr(KindDecodeError, err)
		return res
	}
	if srcKind == imgutil.KindUnknown {
		res.Err = jobErr(KindDecodeError, errors.New("unsupported image format"))
		return res
	}
	res.SourceKind = srcKind

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(opts.AutoOrient))
	if err != nil {
		res.Err = jobErr(KindDecodeError, err)
		return res
	}
	bounds := img.Bounds()
	res.SourceWidth, res.SourceHeight = bounds.Dx(), bounds.Dy()

	size, err := ComputeSize(res.SourceWidth, res.SourceHeight, opts.Scale)
	if err != nil {
		res.Err = jobErr(KindInvalidDimension, err)
		return res
	}
	if size.Clamped {
		res.Clamped = true
		res.Notes = append(res.Notes, fmt.Sprintf("size clamped to %dx%d", size.Width, size.Height))
	}

	filter, err := ResolveFilter(string(opts.Filter))
	if err != nil {
		res.Err = jobErr(KindUnknownFilter, err)
		return res
	}

	target := opts.Format.Resolve(srcKind)
	res.Kind = target
	if err := checkEncodable(target, size.Width, size.Height); err != nil {
		res.Err = jobErr(KindEncodeError, err)
		return res
	}

	if size.Width != res.SourceWidth || size.Height != res.SourceHeight {
		img = imaging.Resize(img, size.Width, size.Height, filter.Kernel)
	}
	res.Width, res.Height = size.Width, size.Height

	encoded, err := encode(img, target, opts.Quality)
	if err != nil {
		res.Err = jobErr(KindEncodeError, err)
		return res
	}

	meta := metadata.Metadata{DPI: opts.DPI}
	if opts.PreserveMetadata {
		block, notes := sourceEXIF(data, srcKind, opts.AutoOrient)
		meta.EXIF = block
		res.Notes = append(res.Notes, notes...)
	}
	encoded, report := metadata.Apply(encoded, target, meta)
	res.Notes = append(res.Notes, report.Notes...)
	res.MetadataDegraded = report.EXIFOmitted

	dest := filepath.Join(opts.OutputDir, outputName(job, size, target))
	if samePath(dest, job.Path) {
		res.Err = jobErr(KindWriteError, errors.New("output path resolves to input path; use a different output directory"))
		return res
	}
	if err := writeOutput(dest, encoded); err != nil {
		res.Err = jobErr(KindWriteError, err)
		return res
	}
	res.Output = dest

	return res
}

// sourceEXIF pulls the EXIF block out of the source file. Problems reading
// it only produce notes.
func sourceEXIF(data []byte, kind imgutil.Kind, oriented bool) ([]byte, []string) {
	block, err := metadata.Extract(data, kind)
	if err != nil {
		return nil, []string{fmt.Sprintf("exif unreadable: %v", err)}
	}
	if len(block) == 0 {
		return nil, nil
	}

	prepared, info, err := metadata.PrepareEXIF(block, oriented)
	if err != nil {
		return prepared, []string{fmt.Sprintf("exif copied without inspection: %v", err)}
	}
	return prepared, []string{fmt.Sprintf("exif: %d tags, orientation %d", info.Tags, info.Orientation)}
}

// outputName is <stem>_<w>x<h><ext>. Keeping the original format keeps the
// source extension spelling when it matches the actual content.
func outputName(job Job, size Size, target imgutil.Kind) string {
	ext := target.Ext()
	if job.Options.Format == imgutil.FormatOriginal {
		srcExt := strings.ToLower(filepath.Ext(job.Path))
		if imgutil.KindFromExt(srcExt) == target {
			ext = srcExt
		}
	}
	return fmt.Sprintf("%s_%dx%d%s", job.Stem, size.Width, size.Height, ext)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
