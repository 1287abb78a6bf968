package processor

import "pixresize/pkg/imgutil"

type ScaleMode int

const (
	ScalePercent ScaleMode = iota
	ScaleAbsolute
)

func (m ScaleMode) String() string {
	if m == ScaleAbsolute {
		return "absolute"
	}
	return "percent"
}

// ScaleSpec is the resize rule shared by every job of a batch. Percent is
// used in ScalePercent mode; Width, Height and LockAspect in ScaleAbsolute.
type ScaleSpec struct {
	Mode       ScaleMode
	Percent    float64
	Width      int
	Height     int
	LockAspect bool
}

// Options is the configuration shared by all jobs of a batch.
type Options struct {
	Scale            ScaleSpec
	Filter           Filter         `validate:"required"`
	Format           imgutil.Format `validate:"required"`
	Quality          int            `validate:"min=1,max=100"`
	DPI              int            `validate:"gte=0"`
	PreserveMetadata bool
	AutoOrient       bool
	OutputDir        string `validate:"required"`
}

// Job is one source file plus everything needed to resize it. Jobs are built
// by NewJobs and never modified afterwards.
type Job struct {
	Index   int
	Path    string
	Display string
	Stem    string
	Options Options
}

type Result struct {
	Index        int
	Path         string
	Display      string
	Output       string
	SourceWidth  int
	SourceHeight int
	Width        int
	Height       int
	SourceKind   imgutil.Kind
	Kind         imgutil.Kind
	Err          *JobError
	Clamped      bool
	// MetadataDegraded is set when EXIF was present and requested but could
	// not be carried over. It never turns a success into a failure.
	MetadataDegraded bool
	Notes            []string
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Summary struct {
	Total            int
	Succeeded        int
	Failed           int
	Cancelled        int
	MetadataDegraded int
	Results          []Result
}

// Failures returns the failed results in submission order.
func (s Summary) Failures() []Result {
	var out []Result
	for _, res := range s.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

type ProgressUpdate struct {
	Completed int
	Total     int
	Result    Result
}
