package processor

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"pixresize/pkg/imgutil"
)

const (
	MinRecommendedDPI = 72
	MaxRecommendedDPI = 300
)

var validate = validator.New()

// Validate checks the shared configuration before any job runs.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (got %v)", ErrInvalidOptions, fe.Field(), fe.Tag()+optionalParam(fe.Param()), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := o.Scale.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if _, err := ResolveFilter(string(o.Filter)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if _, err := imgutil.ParseFormat(string(o.Format)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// Warnings lists settings that are accepted but outside the usual range.
func (o Options) Warnings() []string {
	var out []string
	if o.DPI != 0 && (o.DPI < MinRecommendedDPI || o.DPI > MaxRecommendedDPI) {
		out = append(out, fmt.Sprintf("dpi %d is outside the recommended %d-%d range", o.DPI, MinRecommendedDPI, MaxRecommendedDPI))
	}
	if o.Scale.Mode == ScalePercent && o.Scale.Percent > 500 {
		out = append(out, fmt.Sprintf("scaling to %v%% produces very large images", o.Scale.Percent))
	}
	return out
}

func optionalParam(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
