package media

import (
	"fmt"
	"image"
	"io"
	"log"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	FragmentJpegQuality   = 90
	FragmentFileExtension = ".jpg"
)

// Processor derives and persists per-object fragments. It relies on a Store
// implementation for saving the results.
type Processor struct {
	store Store
}

func NewProcessor(store Store) *Processor {
	return &Processor{store: store}
}

// SaveFragment crops the bounding-box region out of src, encodes it as JPEG
// and saves it via the Store. Returns the relative path of the saved
// fragment file.
func (p *Processor) SaveFragment(src image.Image, bbox []float64) (string, error) {
	fragment := CropToBox(src, bbox)
	if fragment == nil {
		return "", fmt.Errorf("could not derive fragment for bbox %v", bbox)
	}
	return p.SaveFragmentImage(fragment)
}

// SaveFragmentImage encodes an already-derived fragment as JPEG and saves
// it via the Store. Callers that just cropped the fragment themselves use
// this to avoid cropping a second time.
func (p *Processor) SaveFragmentImage(fragment image.Image) (string, error) {
	reader, writer := io.Pipe()
	go func() {
		defer writer.Close()
		err := imaging.Encode(writer, fragment, imaging.JPEG, imaging.JPEGQuality(FragmentJpegQuality))
		if err != nil {
			log.Printf("processor: Failed to encode fragment: %v", err)
			writer.CloseWithError(fmt.Errorf("fragment encoding failed: %w", err))
		}
	}()

	fragmentUUID, err := uuid.NewRandom()
	if err != nil {
		reader.Close()
		return "", fmt.Errorf("failed to generate UUID for fragment: %w", err)
	}
	targetFilename := fragmentUUID.String() + FragmentFileExtension

	savedRelPath, err := p.store.Save(AssetTypeFragment, targetFilename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to save fragment via store: %w", err)
	}

	log.Printf("processor: Saved fragment at %s", savedRelPath)
	return savedRelPath, nil
}

// EncodeJPEG writes img to w as JPEG at fragment quality.
func EncodeJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(FragmentJpegQuality))
}

// SavePhoto stores an uploaded photograph's bytes in the photo area of the
// store, keeping the original filename's extension.
func (p *Processor) SavePhoto(filename string, data io.Reader) (string, error) {
	photoUUID, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID for photo: %w", err)
	}
	target := photoUUID.String() + extensionOrDefault(filename)

	savedRelPath, err := p.store.Save(AssetTypePhoto, target, data)
	if err != nil {
		return "", fmt.Errorf("failed to save photo via store: %w", err)
	}
	return savedRelPath, nil
}
