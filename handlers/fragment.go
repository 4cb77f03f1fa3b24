package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/arborlens/treehealth/api"
	"github.com/arborlens/treehealth/media"
)

// FragmentHandler serves cropped per-object sub-images. The source image is
// downloaded once per id through the fragment cache; derived crops are
// persisted through the media store so later requests are disk hits.
type FragmentHandler struct {
	Client    *api.Client
	Fragments *media.FragmentCache
	Processor *media.Processor
	Store     media.Store

	mu    sync.Mutex
	saved map[string]string // "{id}:{index}" -> relative fragment path
}

func NewFragmentHandler(client *api.Client, fragments *media.FragmentCache, processor *media.Processor, store media.Store) *FragmentHandler {
	return &FragmentHandler{
		Client:    client,
		Fragments: fragments,
		Processor: processor,
		Store:     store,
		saved:     make(map[string]string),
	}
}

// ServeFragment responds with the JPEG crop for one detected object,
// identified by image id and detection index.
func (fh *FragmentHandler) ServeFragment(w http.ResponseWriter, r *http.Request) {
	id, ok := imageIDParam(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "object_index"))
	if err != nil || index < 0 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_object_index", "object index must be a non-negative integer")
		return
	}

	key := fmt.Sprintf("%d:%d", id, index)
	if fh.serveSaved(w, key) {
		return
	}

	record, err := fh.Client.GetImage(r.Context(), id)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if index >= len(record.DetectedObjects) {
		WriteAPIError(w, http.StatusNotFound, "object_not_found",
			fmt.Sprintf("image %d has %d detected objects", id, len(record.DetectedObjects)))
		return
	}

	info, err := fh.Client.GetDownloadURL(r.Context(), id, 3600)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	src := fh.Fragments.Get(r.Context(), id, info.DownloadURL)
	if src == nil {
		WriteAPIError(w, http.StatusBadGateway, "image_unavailable", "source image could not be downloaded or decoded")
		return
	}

	bbox := record.DetectedObjects[index].BBox
	fragment := media.CropToBox(src, bbox)
	if fragment == nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_bbox",
			fmt.Sprintf("bounding box %v cannot be cropped", bbox))
		return
	}

	// persist for reuse; serving still works if this fails
	if relPath, saveErr := fh.Processor.SaveFragmentImage(fragment); saveErr == nil {
		fh.mu.Lock()
		fh.saved[key] = relPath
		fh.mu.Unlock()
	} else {
		log.Printf("handlers: could not persist fragment %s: %v", key, saveErr)
	}

	w.Header().Set("Content-Type", "image/jpeg")
	if err := media.EncodeJPEG(w, fragment); err != nil {
		log.Printf("handlers: failed to write fragment %s: %v", key, err)
	}
}

// serveSaved streams a previously persisted fragment file, if one exists.
func (fh *FragmentHandler) serveSaved(w http.ResponseWriter, key string) bool {
	fh.mu.Lock()
	relPath, ok := fh.saved[key]
	fh.mu.Unlock()
	if !ok {
		return false
	}

	file, _, err := fh.Store.Get(relPath)
	if err != nil {
		// file vanished; fall through to re-derivation
		fh.mu.Lock()
		delete(fh.saved, key)
		fh.mu.Unlock()
		return false
	}
	defer file.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := io.Copy(w, file); err != nil {
		log.Printf("handlers: failed to stream saved fragment %s: %v", key, err)
	}
	return true
}

// ClearFragmentCache drops all cached source images. Exposed so the shells
// can recover memory on demand.
func (fh *FragmentHandler) ClearFragmentCache(w http.ResponseWriter, r *http.Request) {
	fh.Fragments.Clear()
	fh.mu.Lock()
	fh.saved = make(map[string]string)
	fh.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
