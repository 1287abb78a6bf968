package processor

import (
	"fmt"
	"math"
)

// maxRepresentable is the exclusive bound on a computed edge, so it always
// fits an int on every platform. Encoder limits are checked per format in
// encode.go.
const maxRepresentable = math.MaxInt32

// Size is a computed target size. Clamped is set when an axis rounded below
// one pixel and was raised to one.
type Size struct {
	Width   int
	Height  int
	Clamped bool
}

func Percentage(factor float64) ScaleSpec {
	return ScaleSpec{Mode: ScalePercent, Percent: factor}
}

// Absolute returns an absolute spec. A zero axis means "unset": it keeps the
// source value, or is derived from the other axis when the aspect is locked.
func Absolute(width, height int) ScaleSpec {
	return ScaleSpec{Mode: ScaleAbsolute, Width: width, Height: height}
}

func (s ScaleSpec) Validate() error {
	switch s.Mode {
	case ScalePercent:
		if !(s.Percent > 0) || math.IsInf(s.Percent, 0) {
			return fmt.Errorf("%w: percentage must be > 0, got %v", ErrInvalidDimension, s.Percent)
		}
	case ScaleAbsolute:
		if s.Width < 0 || s.Height < 0 {
			return fmt.Errorf("%w: negative size %dx%d", ErrInvalidDimension, s.Width, s.Height)
		}
		if s.Width == 0 && s.Height == 0 {
			return fmt.Errorf("%w: width or height is required", ErrInvalidDimension)
		}
	default:
		return fmt.Errorf("%w: unknown scale mode %d", ErrInvalidDimension, s.Mode)
	}
	return nil
}

// ComputeSize maps a source size through spec. It is pure and deterministic.
func ComputeSize(srcW, srcH int, spec ScaleSpec) (Size, error) {
	if srcW < 1 || srcH < 1 {
		return Size{}, fmt.Errorf("%w: source size %dx%d", ErrInvalidDimension, srcW, srcH)
	}
	if err := spec.Validate(); err != nil {
		return Size{}, err
	}

	var w, h int
	switch spec.Mode {
	case ScalePercent:
		fw := float64(srcW) * spec.Percent / 100
		fh := float64(srcH) * spec.Percent / 100
		if fw >= maxRepresentable || fh >= maxRepresentable {
			return Size{}, fmt.Errorf("%w: %v%% of %dx%d is not representable", ErrInvalidDimension, spec.Percent, srcW, srcH)
		}
		w, h = roundHalfUp(fw), roundHalfUp(fh)
	case ScaleAbsolute:
		w, h = absoluteSize(srcW, srcH, spec)
	}

	size := Size{Width: w, Height: h}
	if size.Width < 1 {
		size.Width = 1
		size.Clamped = true
	}
	if size.Height < 1 {
		size.Height = 1
		size.Clamped = true
	}
	if size.Width >= maxRepresentable || size.Height >= maxRepresentable {
		return Size{}, fmt.Errorf("%w: %dx%d is not representable", ErrInvalidDimension, size.Width, size.Height)
	}
	return size, nil
}

func absoluteSize(srcW, srcH int, spec ScaleSpec) (int, int) {
	w, h := spec.Width, spec.Height
	if !spec.LockAspect {
		if w == 0 {
			w = srcW
		}
		if h == 0 {
			h = srcH
		}
		return w, h
	}

	switch {
	case h == 0:
		return w, roundHalfUp(float64(srcH) * float64(w) / float64(srcW))
	case w == 0:
		return roundHalfUp(float64(srcW) * float64(h) / float64(srcH)), h
	}

	// Both given: fit inside the box, the tighter axis wins.
	srcRatio := float64(srcW) / float64(srcH)
	if float64(w)/float64(h) > srcRatio {
		return roundHalfUp(float64(h) * srcRatio), h
	}
	return w, roundHalfUp(float64(w) / srcRatio)
}

// roundHalfUp saturates at maxRepresentable so oversized results are
// rejected instead of wrapping.
func roundHalfUp(v float64) int {
	r := math.Floor(v + 0.5)
	if r >= maxRepresentable {
		return maxRepresentable
	}
	return int(r)
}
