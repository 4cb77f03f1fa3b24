package utils

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// PhotoMetadata is what the client can determine about a photograph before
// uploading it: pixel dimensions plus the EXIF-derived capture time,
// GPS fix, and author string.
type PhotoMetadata struct {
	Width     *int     `json:"width,omitempty"`
	Height    *int     `json:"height,omitempty"`
	TakenAt   *int64   `json:"taken_at,omitempty"` // Unix timestamp
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Author    *string  `json:"author,omitempty"`
}

// Location formats the GPS fix the way the backend expects it: "lat,lon"
// with 6 decimal places, or nil when no fix was recorded.
func (m *PhotoMetadata) Location() *string {
	if m.Latitude == nil || m.Longitude == nil {
		return nil
	}
	s := strconv.FormatFloat(*m.Latitude, 'f', 6, 64) + "," + strconv.FormatFloat(*m.Longitude, 'f', 6, 64)
	return &s
}

// UploadMetadata builds the metadata map sent as the JSON-encoded text part
// of the multipart upload. Only determined keys are present; taken_at is
// ISO-8601 UTC.
func (m *PhotoMetadata) UploadMetadata() map[string]string {
	out := make(map[string]string)
	if m.TakenAt != nil {
		out["taken_at"] = time.Unix(*m.TakenAt, 0).UTC().Format(time.RFC3339)
	}
	if loc := m.Location(); loc != nil {
		out["location"] = *loc
	}
	if m.Author != nil && *m.Author != "" {
		out["author"] = *m.Author
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	// val string might have null chars at the end
	val := strings.TrimRight(tag.String(), "\x00")
	val = strings.Trim(val, `"`)
	if val == "" {
		return nil
	}
	return &val
}

// GetPhotoMetadata extracts dimensions and EXIF data from a photo file.
// A file without EXIF data is not an error; the result just carries fewer
// fields.
func GetPhotoMetadata(filePath string) (*PhotoMetadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("metadata: failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	config, format, err := image.DecodeConfig(file)
	var width, height *int
	if err == nil {
		w, h := config.Width, config.Height
		width = &w
		height = &h
		log.Printf("metadata: Decoded dimensions for %s (format: %s): %dx%d", filePath, format, *width, *height)
	} else {
		log.Printf("metadata: Warning - Could not decode config for dimensions of %s: %v", filePath, err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("metadata: failed to seek file %s: %w", filePath, err)
	}

	exifData, err := exif.Decode(file)
	if err != nil {
		// not necessarily a fatal error, file might just lack EXIF data
		log.Printf("metadata: No EXIF data found or error decoding EXIF for %s: %v", filePath, err)
		return &PhotoMetadata{Width: width, Height: height}, nil
	}

	meta := &PhotoMetadata{
		Width:  width,
		Height: height,
		Author: getString(exifData, exif.Artist),
	}

	dt, err := exifData.DateTime()
	if err == nil {
		ts := dt.Unix()
		meta.TakenAt = &ts
	} else {
		log.Printf("metadata: Could not read DateTimeOriginal for %s: %v", filePath, err)
	}

	lat, lon, err := exifData.LatLong()
	if err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lon
	}

	return meta, nil
}
