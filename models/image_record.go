package models

import "encoding/json"

// Processing status values owned by the analysis backend. The client never
// writes these, it only re-reads them.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusError      = "error"
)

// IsTerminalStatus reports whether the backend will make no further progress
// on an image in the given status.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusError
}

// ImageRecord is the backend's image resource as returned by the
// /api/v1/images endpoints. Wire names are snake_case; the client holds
// read-only copies.
type ImageRecord struct {
	ID               int              `json:"id"`
	Filename         string           `json:"filename"`
	OriginalFilename string           `json:"original_filename"`
	ContentType      string           `json:"content_type"`
	FileSize         int64            `json:"file_size"`
	S3Key            string           `json:"s3_key"`
	S3URL            string           `json:"s3_url"`
	S3Bucket         string           `json:"s3_bucket"`
	Width            int              `json:"width"`
	Height           int              `json:"height"`
	TakenAt          *string          `json:"taken_at,omitempty"`
	Location         *string          `json:"location,omitempty"` // "lat,lon"
	Author           *string          `json:"author,omitempty"`
	ProcessingStatus string           `json:"processing_status"`
	DescriptionText  *string          `json:"description_text,omitempty"`
	DetectedObjects  []DetectedObject `json:"detected_objects,omitempty"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at"`
}

// DetectedObject is one bounding box + label + confidence entry produced by
// the backend's AI pipeline for an image. Order within an ImageRecord is the
// backend's detection order.
type DetectedObject struct {
	BBox        []float64          `json:"bbox"` // [x1, y1, x2, y2] in source pixels
	Label       string             `json:"label"`
	Confidence  float64            `json:"confidence"`
	FragmentURL *string            `json:"fragment_url,omitempty"`
	Description *ObjectDescription `json:"description,omitempty"`
}

// UnmarshalJSON tolerates malformed description payloads: the backend has
// been observed sending a string (or null) where an object is expected. Only
// a JSON object is decoded; any other type is treated as absent rather than
// failing the whole record.
func (d *DetectedObject) UnmarshalJSON(data []byte) error {
	type alias struct {
		BBox        []float64       `json:"bbox"`
		Label       string          `json:"label"`
		Confidence  float64         `json:"confidence"`
		FragmentURL *string         `json:"fragment_url"`
		Description json.RawMessage `json:"description"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	d.BBox = a.BBox
	d.Label = a.Label
	d.Confidence = a.Confidence
	d.FragmentURL = a.FragmentURL
	d.Description = nil
	if len(a.Description) > 0 && a.Description[0] == '{' {
		var desc ObjectDescription
		if err := json.Unmarshal(a.Description, &desc); err == nil {
			d.Description = &desc
		}
	}
	return nil
}

// DownloadInfo is the response of GET /api/v1/images/{id}/download. The
// download URL is time-limited and may reference an internal storage host.
type DownloadInfo struct {
	DownloadURL string `json:"download_url"`
	ExpiresIn   int    `json:"expires_in"`
	Filename    string `json:"filename"`
}
