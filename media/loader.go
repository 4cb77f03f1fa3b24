package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// EXIF orientation values (tag 0x0112).
const (
	OrientationNormal      = 1
	OrientationFlipH       = 2
	OrientationRotate180   = 3
	OrientationFlipV       = 4
	OrientationTranspose   = 5
	OrientationRotate90CW  = 6
	OrientationTransverse  = 7
	OrientationRotate90CCW = 8
)

const defaultDownloadTimeout = 60 * time.Second

// Fetcher downloads the raw bytes at an absolute URL.
type Fetcher func(ctx context.Context, url string) ([]byte, error)

// Loader downloads full-resolution images and corrects their orientation.
// Decode failures are swallowed: every failure path returns nil, never an
// error, so display code can fall back without exception plumbing.
type Loader struct {
	fetch Fetcher
}

// NewRemoteLoader builds a loader on top of an existing byte fetcher,
// typically api.Client.FetchBytes.
func NewRemoteLoader(fetch Fetcher) *Loader {
	return &Loader{fetch: fetch}
}

// NewLoader builds a loader with its own HTTP client. Prefer
// NewRemoteLoader where a backend client is available so downloads share
// its transport configuration.
func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	return NewRemoteLoader(func(ctx context.Context, url string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("download returned HTTP %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
}

// LoadFull downloads the image at url, decodes it, reads the EXIF
// orientation tag and returns the orientation-corrected image. Returns nil
// on any download or decode failure.
func (l *Loader) LoadFull(ctx context.Context, url string) image.Image {
	data, err := l.fetch(ctx, url)
	if err != nil {
		log.Printf("media: failed to download image %s: %v", url, err)
		return nil
	}
	return DecodeOriented(data)
}

// DecodeOriented decodes image bytes and applies the EXIF orientation
// transform. Missing or unreadable EXIF means the image is used as-is.
// Returns nil if the image itself cannot be decoded.
func DecodeOriented(data []byte) image.Image {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("media: failed to decode image: %v", err)
		return nil
	}

	orientation := OrientationNormal
	if exifData, err := exif.Decode(bytes.NewReader(data)); err == nil {
		if tag, err := exifData.Get(exif.Orientation); err == nil && tag != nil {
			if v, err := tag.Int(0); err == nil {
				orientation = v
			}
		}
	}

	oriented := ApplyOrientation(img, orientation)
	if oriented != img {
		log.Printf("media: corrected orientation %d for %s image %dx%d", orientation, format, img.Bounds().Dx(), img.Bounds().Dy())
	}
	return oriented
}

// ApplyOrientation maps an EXIF orientation value to the corresponding
// rotation/flip transform. Unknown values leave the image untouched. The
// transforms allocate a new image; the source is returned only for the
// identity case so callers can drop it once the result is retained.
func ApplyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case OrientationFlipH:
		return imaging.FlipH(img)
	case OrientationRotate180:
		return imaging.Rotate180(img)
	case OrientationFlipV:
		return imaging.FlipV(img)
	case OrientationTranspose:
		return imaging.Transpose(img)
	case OrientationRotate90CW:
		// imaging rotates counter-clockwise; 270 CCW equals 90 CW
		return imaging.Rotate270(img)
	case OrientationTransverse:
		return imaging.Transverse(img)
	case OrientationRotate90CCW:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
