// Package exifdata wraps goexif behind the narrow contract phototriage
// needs: capture date, pixel dimensions, GPS coordinates, and user comment,
// each independently optional. Absence of a field is represented, never an
// error; only IO failures propagate.
package exifdata

import (
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"phototriage/internal/services"
)

// Coordinates is a GPS position in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Metadata holds the optional fields extracted from a file. Nil pointers and
// zero values mean the field was absent.
type Metadata struct {
	CapturedAt  *time.Time
	Width       int
	Height      int
	GPS         *Coordinates
	UserComment string
}

// Read extracts metadata from the file at path. Files without EXIF (or with
// unparseable EXIF) return an empty Metadata and no error; only failures to
// open the file are errors.
func Read(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrMetadata, "metadata", "open file", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF block, or a format goexif does not understand. Either
		// way the fields are simply absent.
		return Metadata{}, nil
	}

	var meta Metadata

	if dt, err := x.DateTime(); err == nil {
		captured := dt
		meta.CapturedAt = &captured
	}

	if tag, err := x.Get(exif.PixelXDimension); err == nil {
		if width, err := tag.Int(0); err == nil {
			meta.Width = width
		}
	}
	if tag, err := x.Get(exif.PixelYDimension); err == nil {
		if height, err := tag.Int(0); err == nil {
			meta.Height = height
		}
	}

	if lat, long, err := x.LatLong(); err == nil {
		meta.GPS = &Coordinates{Latitude: lat, Longitude: long}
	}

	if tag, err := x.Get(exif.UserComment); err == nil {
		if comment, err := tag.StringVal(); err == nil {
			meta.UserComment = sanitizeComment(comment)
		}
	}

	return meta, nil
}

// User comments carry an 8-byte character code prefix (e.g. "ASCII\x00\x00\x00")
// that some writers include verbatim.
func sanitizeComment(raw string) string {
	for _, prefix := range []string{"ASCII\x00\x00\x00", "UNICODE\x00", "JIS\x00\x00\x00\x00\x00"} {
		raw = strings.TrimPrefix(raw, prefix)
	}
	return strings.TrimRight(strings.TrimSpace(raw), "\x00")
}
