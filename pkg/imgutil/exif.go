package imgutil

import (
	"errors"
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// Metadata is the subset of EXIF shown after an export.
type Metadata struct {
	Make        string
	Model       string
	Orientation int
	Taken       string
	Software    string
}

// ReadMetadata extracts camera and orientation tags from an encoded JPEG or
// DNG. Images without EXIF yield empty metadata and no error.
func ReadMetadata(data []byte) (Metadata, error) {
	md := Metadata{}

	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if isNoExif(err) {
			return md, nil
		}
		return md, err
	}
	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return md, err
	}

	for _, tag := range tags {
		value := strings.TrimSpace(tag.FormattedFirst)
		switch tag.TagName {
		case "Make":
			md.Make = value
		case "Model", "CameraModelName":
			md.Model = value
		case "Orientation":
			if n, err := strconv.Atoi(value); err == nil && md.Orientation == 0 {
				md.Orientation = n
			}
		case "DateTimeOriginal":
			md.Taken = value
		case "DateTime":
			if md.Taken == "" {
				md.Taken = value
			}
		case "Software":
			md.Software = value
		}
	}

	return md, nil
}

func isNoExif(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
