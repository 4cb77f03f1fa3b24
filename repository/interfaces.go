package repository

import (
	"github.com/arborlens/treehealth/models"
)

// PhotoRepositoryInterface defines the methods for local photo bookkeeping
type PhotoRepositoryInterface interface {
	GetByURI(uri string) (*models.LocalPhoto, error)
	Create(photo *models.LocalPhoto) error
	SaveMetadata(uri, metadataJSON string) error
	SaveLocation(uri, location string) error
	List(sortOrder string) ([]models.LocalPhoto, error)
	Delete(uri string) error
}

// MarkerRepositoryInterface defines the methods for upload/trash markers
type MarkerRepositoryInterface interface {
	MarkUploaded(uri string, imageID int) error
	GetUploadMarker(uri string) (*models.UploadMarker, error)
	IsUploaded(uri string) (bool, error)
	MarkTrashed(uri string) error
	IsTrashed(uri string) (bool, error)
	Restore(uri string) error
}

// ResultRepositoryInterface defines the methods for cached processing
// outcomes
type ResultRepositoryInterface interface {
	SaveSnippet(uri, status string, description *string) error
	GetSnippet(uri string) (*models.ResultSnippet, error)
}
