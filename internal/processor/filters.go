package processor

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// Filter names a resampling kernel.
type Filter string

const (
	FilterLanczos  Filter = "LANCZOS"
	FilterBicubic  Filter = "BICUBIC"
	FilterBilinear Filter = "BILINEAR"
	FilterNearest  Filter = "NEAREST"
	FilterBox      Filter = "BOX"
	FilterHamming  Filter = "HAMMING"
)

// Filters lists the supported kernels, best quality first.
var Filters = []Filter{FilterLanczos, FilterBicubic, FilterHamming, FilterBilinear, FilterBox, FilterNearest}

var filterKernels = map[Filter]imaging.ResampleFilter{
	FilterLanczos:  imaging.Lanczos,
	FilterBicubic:  imaging.CatmullRom,
	FilterBilinear: imaging.Linear,
	FilterNearest:  imaging.NearestNeighbor,
	FilterBox:      imaging.Box,
	FilterHamming:  imaging.Hamming,
}

type FilterDescriptor struct {
	Name   Filter
	Kernel imaging.ResampleFilter
}

// ResolveFilter looks name up case-insensitively. There is no default:
// anything outside the table is ErrUnknownFilter.
func ResolveFilter(name string) (FilterDescriptor, error) {
	key := Filter(strings.ToUpper(strings.TrimSpace(name)))
	kernel, ok := filterKernels[key]
	if !ok {
		return FilterDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return FilterDescriptor{Name: key, Kernel: kernel}, nil
}
