package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/arborlens/treehealth/models"
)

// MarkerRepository handles the upload and trash markers that track what a
// local photo has been through. All of it is soft state: losing a marker
// means re-doing work, never losing data.
type MarkerRepository struct {
	DB *gorm.DB
}

func NewMarkerRepository(db *gorm.DB) *MarkerRepository {
	return &MarkerRepository{DB: db}
}

// MarkUploaded records the server-assigned image id for a local photo.
// Re-uploading overwrites the previous marker.
func (r *MarkerRepository) MarkUploaded(uri string, imageID int) error {
	marker := models.UploadMarker{
		URI:        uri,
		ImageID:    imageID,
		UploadedAt: time.Now().Unix(),
	}
	err := r.DB.Save(&marker).Error
	if err != nil {
		return fmt.Errorf("failed to mark %s uploaded: %w", uri, err)
	}
	return nil
}

// GetUploadMarker retrieves the upload marker for a photo, or
// gorm.ErrRecordNotFound when it was never sent.
func (r *MarkerRepository) GetUploadMarker(uri string) (*models.UploadMarker, error) {
	var marker models.UploadMarker
	err := r.DB.Where("uri = ?", uri).First(&marker).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get upload marker for %s: %w", uri, err)
	}
	return &marker, nil
}

// IsUploaded reports whether the photo has an upload marker.
func (r *MarkerRepository) IsUploaded(uri string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.UploadMarker{}).Where("uri = ?", uri).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check upload marker for %s: %w", uri, err)
	}
	return count > 0, nil
}

// MarkTrashed records a soft-delete with its deletion timestamp.
func (r *MarkerRepository) MarkTrashed(uri string) error {
	marker := models.TrashMarker{
		URI:       uri,
		DeletedAt: time.Now().Unix(),
	}
	err := r.DB.Save(&marker).Error
	if err != nil {
		return fmt.Errorf("failed to mark %s trashed: %w", uri, err)
	}
	return nil
}

// IsTrashed reports whether the photo carries a trash marker.
func (r *MarkerRepository) IsTrashed(uri string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.TrashMarker{}).Where("uri = ?", uri).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check trash marker for %s: %w", uri, err)
	}
	return count > 0, nil
}

// Restore removes a trash marker.
func (r *MarkerRepository) Restore(uri string) error {
	result := r.DB.Where("uri = ?", uri).Delete(&models.TrashMarker{})
	if result.Error != nil {
		return fmt.Errorf("failed to restore %s: %w", uri, result.Error)
	}
	return nil
}
