package repository

import (
	"fmt"
	"sort"
	"time"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/arborlens/treehealth/database"
	"github.com/arborlens/treehealth/models"
)

// PhotoRepository handles database operations for LocalPhoto entities
type PhotoRepository struct {
	DB *gorm.DB
}

// NewPhotoRepository creates a new instance of PhotoRepository
func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

// GetByURI retrieves a local photo record by its storage URI
func (r *PhotoRepository) GetByURI(uri string) (*models.LocalPhoto, error) {
	var photo models.LocalPhoto
	err := r.DB.Where("uri = ?", uri).First(&photo).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get photo by uri %s: %w", uri, err)
	}
	return &photo, nil
}

// Create inserts a new local photo record
func (r *PhotoRepository) Create(photo *models.LocalPhoto) error {
	if photo.CreatedAt == 0 {
		photo.CreatedAt = time.Now().Unix()
	}
	if err := r.DB.Create(photo).Error; err != nil {
		return fmt.Errorf("failed to create photo record for %s: %w", photo.URI, err)
	}
	return nil
}

// SaveMetadata stores the serialized upload metadata for a photo
func (r *PhotoRepository) SaveMetadata(uri, metadataJSON string) error {
	result := r.DB.Model(&models.LocalPhoto{}).Where("uri = ?", uri).
		Update("metadata", metadataJSON)
	if result.Error != nil {
		return fmt.Errorf("failed to save metadata for %s: %w", uri, result.Error)
	}
	return nil
}

// SaveLocation caches a "lat,lon" fix for a photo
func (r *PhotoRepository) SaveLocation(uri, location string) error {
	result := r.DB.Model(&models.LocalPhoto{}).Where("uri = ?", uri).
		Update("location", location)
	if result.Error != nil {
		return fmt.Errorf("failed to save location for %s: %w", uri, result.Error)
	}
	return nil
}

// List returns local photos in the requested sort order, excluding any that
// carry a trash marker.
func (r *PhotoRepository) List(sortOrder string) ([]models.LocalPhoto, error) {
	if !database.IsValidSortOrder(sortOrder) {
		sortOrder = database.DefaultSortOrder
	}

	query := r.DB.Model(&models.LocalPhoto{}).
		Where("uri NOT IN (?)", r.DB.Model(&models.TrashMarker{}).Select("uri"))

	switch sortOrder {
	case database.SortFilenameAsc:
		query = query.Order("filename ASC")
	case database.SortDateAsc:
		query = query.Order("captured_at ASC, created_at ASC")
	case database.SortDateDesc:
		query = query.Order("captured_at DESC, created_at DESC")
	}

	var photos []models.LocalPhoto
	if err := query.Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	if sortOrder == database.SortFilenameNat {
		sort.SliceStable(photos, func(i, j int) bool {
			return natsort.Compare(photos[i].Filename, photos[j].Filename)
		})
	}

	return photos, nil
}

// Delete removes a local photo record by its URI
func (r *PhotoRepository) Delete(uri string) error {
	result := r.DB.Where("uri = ?", uri).Delete(&models.LocalPhoto{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete photo record for %s: %w", uri, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
