package models

// Soft-state markers mirror what the mobile client keeps in preferences:
// best-effort, non-authoritative records keyed by local photo URI.

// UploadMarker records that a local photo was sent to the backend and which
// server-assigned image id it received.
type UploadMarker struct {
	URI        string `gorm:"primaryKey" json:"uri"`
	ImageID    int    `gorm:"not null;index" json:"image_id"`
	UploadedAt int64  `gorm:"not null" json:"uploaded_at"`
}

func (UploadMarker) TableName() string {
	return "upload_markers"
}

// TrashMarker records a local soft-delete with its deletion timestamp. The
// photo file itself is untouched.
type TrashMarker struct {
	URI       string `gorm:"primaryKey" json:"uri"`
	DeletedAt int64  `gorm:"not null" json:"deleted_at"`
}

func (TrashMarker) TableName() string {
	return "trash_markers"
}

// ResultSnippet is the last processing outcome observed for an uploaded
// photo: the backend status plus its description text, if any.
type ResultSnippet struct {
	URI         string  `gorm:"primaryKey" json:"uri"`
	Status      string  `gorm:"not null" json:"status"`
	Description *string `gorm:"" json:"description,omitempty"`
	UpdatedAt   int64   `gorm:"not null" json:"updated_at"`
}

func (ResultSnippet) TableName() string {
	return "result_snippets"
}
