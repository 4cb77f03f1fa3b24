package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborlens/treehealth/media"
	"github.com/arborlens/treehealth/models"
	"github.com/arborlens/treehealth/repository"
	"github.com/arborlens/treehealth/workers"
)

const maxPhotoUploadBytes = 64 << 20 // 64 MiB

// PhotoHandler manages locally captured photographs: saving them, queueing
// uploads to the analysis backend, and the trash/restore soft-delete flow.
type PhotoHandler struct {
	Processor *media.Processor
	Store     media.Store
	Photos    repository.PhotoRepositoryInterface
	Markers   repository.MarkerRepositoryInterface
	Results   repository.ResultRepositoryInterface
	Uploader  *workers.UploadProcessor
}

// PhotoResponse joins a local photo record with its soft-state markers.
type PhotoResponse struct {
	models.LocalPhoto
	Uploaded      bool    `json:"uploaded"`
	ServerImageID *int    `json:"server_image_id,omitempty"`
	ResultStatus  *string `json:"result_status,omitempty"`
	ResultText    *string `json:"result_text,omitempty"`
}

// UploadPhoto accepts a multipart photo from a shell, stores it locally and
// queues it for backend upload + status monitoring.
func (ph *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_multipart", "could not parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "missing_file", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if !media.IsRasterImage(header.Filename) {
		WriteAPIError(w, http.StatusUnsupportedMediaType, "unsupported_type",
			fmt.Sprintf("'%s' is not a supported image type", header.Filename))
		return
	}

	relPath, err := ph.Processor.SavePhoto(header.Filename, file)
	if err != nil {
		log.Printf("handlers: failed to save uploaded photo: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "storage_error", "could not save photo")
		return
	}

	photo := &models.LocalPhoto{
		URI:        "local:" + uuid.NewString(),
		Filename:   header.Filename,
		StoredPath: relPath,
	}
	if err := ph.Photos.Create(photo); err != nil {
		log.Printf("handlers: failed to create photo record: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "could not record photo")
		return
	}

	absPath, err := ph.Store.GetFullPath(relPath)
	if err != nil {
		log.Printf("handlers: failed to resolve stored photo path: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "storage_error", "could not resolve photo path")
		return
	}

	contentType := header.Header.Get("Content-Type")
	queued := ph.Uploader.QueueJob(workers.UploadJob{
		PhotoURI:     photo.URI,
		AbsolutePath: absPath,
		Filename:     header.Filename,
		ContentType:  contentType,
		Author:       r.FormValue("author"),
	})
	if !queued {
		log.Printf("handlers: upload queue rejected job for %s", photo.URI)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"photo":  photo,
		"queued": queued,
	})
}

// ListPhotos returns local photos (trash excluded) with their upload
// markers and cached processing results. ?sort= accepts the
// database.Sort* constants.
func (ph *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := ph.Photos.List(r.URL.Query().Get("sort"))
	if err != nil {
		log.Printf("handlers: failed to list photos: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "could not list photos")
		return
	}

	responses := make([]PhotoResponse, 0, len(photos))
	for i := range photos {
		resp := PhotoResponse{LocalPhoto: photos[i]}

		if marker, err := ph.Markers.GetUploadMarker(photos[i].URI); err == nil {
			resp.Uploaded = true
			imageID := marker.ImageID
			resp.ServerImageID = &imageID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("handlers: failed to read upload marker for %s: %v", photos[i].URI, err)
		}

		if snippet, err := ph.Results.GetSnippet(photos[i].URI); err == nil {
			status := snippet.Status
			resp.ResultStatus = &status
			resp.ResultText = snippet.Description
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("handlers: failed to read result snippet for %s: %v", photos[i].URI, err)
		}

		responses = append(responses, resp)
	}

	writeJSON(w, http.StatusOK, responses)
}

// TrashPhoto soft-deletes a local photo. The stored file is kept.
func (ph *PhotoHandler) TrashPhoto(w http.ResponseWriter, r *http.Request) {
	uri, ok := photoURIParam(w, r)
	if !ok {
		return
	}

	if _, err := ph.Photos.GetByURI(uri); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "photo_not_found", "no photo with that uri")
			return
		}
		log.Printf("handlers: failed to look up photo %s: %v", uri, err)
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "could not look up photo")
		return
	}

	if err := ph.Markers.MarkTrashed(uri); err != nil {
		log.Printf("handlers: failed to trash %s: %v", uri, err)
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "could not trash photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestorePhoto removes a photo's trash marker.
func (ph *PhotoHandler) RestorePhoto(w http.ResponseWriter, r *http.Request) {
	uri, ok := photoURIParam(w, r)
	if !ok {
		return
	}

	if err := ph.Markers.Restore(uri); err != nil {
		log.Printf("handlers: failed to restore %s: %v", uri, err)
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "could not restore photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// photoURIParam extracts the URL-encoded photo URI path parameter.
func photoURIParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "photo_uri")
	uri, err := url.PathUnescape(raw)
	if err != nil || uri == "" {
		WriteAPIError(w, http.StatusBadRequest, "invalid_photo_uri", "photo uri must be a non-empty URL-encoded string")
		return "", false
	}
	return uri, true
}
