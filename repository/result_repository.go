package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/arborlens/treehealth/models"
)

// ResultRepository stores the last processing outcome observed per uploaded
// photo so the gallery can show status and description offline.
type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

// SaveSnippet upserts the latest observed status/description for a photo.
func (r *ResultRepository) SaveSnippet(uri, status string, description *string) error {
	snippet := models.ResultSnippet{
		URI:         uri,
		Status:      status,
		Description: description,
		UpdatedAt:   time.Now().Unix(),
	}
	if err := r.DB.Save(&snippet).Error; err != nil {
		return fmt.Errorf("failed to save result snippet for %s: %w", uri, err)
	}
	return nil
}

// GetSnippet retrieves the cached processing outcome for a photo, or
// gorm.ErrRecordNotFound when none was ever observed.
func (r *ResultRepository) GetSnippet(uri string) (*models.ResultSnippet, error) {
	var snippet models.ResultSnippet
	err := r.DB.Where("uri = ?", uri).First(&snippet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get result snippet for %s: %w", uri, err)
	}
	return &snippet, nil
}
