package metadata

import (
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// EXIFInfo is the small subset of tags the resizer looks at.
type EXIFInfo struct {
	Tags        int
	Orientation int
}

// InspectEXIF parses a raw EXIF block (TIFF header onwards).
func InspectEXIF(exifBlock []byte) (EXIFInfo, error) {
	info := EXIFInfo{Orientation: 1}

	tags, _, err := exif.GetFlatExifData(exifBlock, nil)
	if err != nil {
		if errorsIsNoExif(err) {
			return info, nil
		}
		return info, err
	}

	info.Tags = len(tags)
	for _, tag := range tags {
		if tag.TagId != tagOrientation {
			continue
		}
		if values, ok := tag.Value.([]uint16); ok && len(values) > 0 {
			info.Orientation = int(values[0])
		}
		break
	}

	return info, nil
}

func errorsIsNoExif(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
