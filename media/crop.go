package media

import (
	"image"
	"log"

	"github.com/disintegration/imaging"
)

// CropToBox extracts the sub-image described by bbox [x1, y1, x2, y2] in
// source pixel coordinates. The crop origin is clamped to the image bounds
// and the extent to at least 1x1 and at most the remaining bounds, so boxes
// the backend reports past the image edges still yield a usable fragment.
// Returns nil when bbox does not have exactly four elements.
//
// Note: the clamping silently tolerates out-of-range boxes instead of
// rejecting them; see DESIGN.md before tightening this.
func CropToBox(src image.Image, bbox []float64) image.Image {
	if len(bbox) != 4 {
		log.Printf("media: invalid bbox length %d", len(bbox))
		return nil
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil
	}

	x1 := int(bbox[0])
	y1 := int(bbox[1])
	x2 := int(bbox[2])
	y2 := int(bbox[3])

	cropX := maxInt(0, minInt(x1, width-1))
	cropY := maxInt(0, minInt(y1, height-1))
	cropWidth := maxInt(1, minInt(x2-x1, width-cropX))
	cropHeight := maxInt(1, minInt(y2-y1, height-cropY))

	if cropWidth <= 0 || cropHeight <= 0 {
		log.Printf("media: degenerate crop extent for bbox %v", bbox)
		return nil
	}

	rect := image.Rect(
		bounds.Min.X+cropX,
		bounds.Min.Y+cropY,
		bounds.Min.X+cropX+cropWidth,
		bounds.Min.Y+cropY+cropHeight,
	)
	return imaging.Crop(src, rect)
}
