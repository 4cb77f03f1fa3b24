package models

// LocalPhoto is a photograph known to this device, keyed by its local
// storage URI. It is client-side bookkeeping only and has no server-side
// counterpart; the backend's ImageRecord stays authoritative once the photo
// is uploaded.
type LocalPhoto struct {
	URI        string  `gorm:"primaryKey" json:"uri"`
	Filename   string  `gorm:"not null" json:"filename"`
	StoredPath string  `gorm:"not null" json:"stored_path"` // relative path within the media store
	Metadata   *string `gorm:"" json:"metadata,omitempty"`  // JSON text of the upload metadata map
	Location   *string `gorm:"" json:"location,omitempty"`  // cached "lat,lon" fix
	CapturedAt *int64  `gorm:"index" json:"captured_at,omitempty"`
	CreatedAt  int64   `gorm:"not null" json:"created_at"`
}

func (LocalPhoto) TableName() string {
	return "local_photos"
}
