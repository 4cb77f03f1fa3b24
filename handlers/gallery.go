package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arborlens/treehealth/api"
	"github.com/arborlens/treehealth/cache"
)

// GalleryHandler exposes the backend's analyzed-image list to the UI
// shells, going through the shared result cache.
type GalleryHandler struct {
	Cache  *cache.ResultCache
	Client *api.Client
}

// ListGallery returns the image list, served from cache when fresh.
// ?refresh=true forces a refetch.
func (gh *GalleryHandler) ListGallery(w http.ResponseWriter, r *http.Request) {
	forceRefresh := r.URL.Query().Get("refresh") == "true"

	images, err := gh.Cache.Get(r.Context(), forceRefresh)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, images)
}

// GetGalleryImage returns one image record with its detected objects,
// fetched directly from the backend so the detail view is always current.
func (gh *GalleryHandler) GetGalleryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := imageIDParam(w, r)
	if !ok {
		return
	}

	record, err := gh.Client.GetImage(r.Context(), id)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	// fragment URLs may reference the internal storage host
	rewriter := gh.Client.Rewriter()
	for i := range record.DetectedObjects {
		record.DetectedObjects[i].FragmentURL = rewriter.RewritePtr(record.DetectedObjects[i].FragmentURL)
	}

	writeJSON(w, http.StatusOK, record)
}

// GetGalleryImageDownloadURL returns the time-limited public download URL
// for the image blob.
func (gh *GalleryHandler) GetGalleryImageDownloadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := imageIDParam(w, r)
	if !ok {
		return
	}

	expiresIn := 3600
	if v := r.URL.Query().Get("expires_in"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			expiresIn = parsed
		}
	}

	info, err := gh.Client.GetDownloadURL(r.Context(), id, expiresIn)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// DeleteGalleryImage removes the image server-side and invalidates the
// cached list.
func (gh *GalleryHandler) DeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := imageIDParam(w, r)
	if !ok {
		return
	}

	if err := gh.Client.DeleteImage(r.Context(), id); err != nil {
		writeBackendError(w, err)
		return
	}
	gh.Cache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// ReprocessGalleryImage asks the backend to re-run analysis and invalidates
// the cached list so the new status becomes visible.
func (gh *GalleryHandler) ReprocessGalleryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := imageIDParam(w, r)
	if !ok {
		return
	}

	if err := gh.Client.Reprocess(r.Context(), id); err != nil {
		writeBackendError(w, err)
		return
	}
	gh.Cache.Invalidate()
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "reprocessing started"})
}

// MapMarker is one gallery image that carries a parseable location.
type MapMarker struct {
	ImageID   int     `json:"image_id"`
	Filename  string  `json:"filename"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status"`
}

// MapMarkers returns one marker per cached image whose location string
// parses as "lat,lon". Images without a usable location are skipped.
func (gh *GalleryHandler) MapMarkers(w http.ResponseWriter, r *http.Request) {
	images, err := gh.Cache.Get(r.Context(), false)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	markers := make([]MapMarker, 0, len(images))
	for i := range images {
		lat, lon, ok := parseLocation(images[i].Location)
		if !ok {
			continue
		}
		markers = append(markers, MapMarker{
			ImageID:   images[i].ID,
			Filename:  images[i].OriginalFilename,
			Latitude:  lat,
			Longitude: lon,
			Status:    images[i].ProcessingStatus,
		})
	}

	writeJSON(w, http.StatusOK, markers)
}

// parseLocation splits a "lat,lon" string into coordinates.
func parseLocation(location *string) (lat, lon float64, ok bool) {
	if location == nil {
		return 0, 0, false
	}
	parts := strings.SplitN(*location, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func imageIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := chi.URLParam(r, "image_id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_image_id", "image id must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: failed to encode response: %v", err)
	}
}

// writeBackendError maps the api error taxonomy onto the local surface's
// standardized error body.
func writeBackendError(w http.ResponseWriter, err error) {
	var statusErr *api.StatusError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.StatusCode == http.StatusNotFound {
			WriteAPIError(w, http.StatusNotFound, "not_found", "image not found on the backend")
			return
		}
		WriteAPIError(w, http.StatusBadGateway, "backend_error", statusErr.Error())
	case errors.Is(err, api.ErrNetworkUnreachable):
		WriteAPIError(w, http.StatusServiceUnavailable, "network_unreachable", "no network connection; run /api/diagnostics for details")
	case errors.Is(err, api.ErrServerUnreachable):
		WriteAPIError(w, http.StatusServiceUnavailable, "server_unreachable", "analysis server is not reachable; run /api/diagnostics for details")
	default:
		WriteAPIError(w, http.StatusBadGateway, "backend_error", err.Error())
	}
}
