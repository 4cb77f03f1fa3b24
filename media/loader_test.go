package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orientedJPEG encodes img as JPEG and splices an EXIF APP1 segment carrying
// the given orientation value in after the SOI marker.
func orientedJPEG(t *testing.T, img image.Image, orientation int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	encoded := buf.Bytes()
	require.Equal(t, []byte{0xFF, 0xD8}, encoded[:2])

	// minimal little-endian TIFF: IFD0 with a single orientation entry
	tiff := []byte{
		'I', 'I', 0x2A, 0x00, // byte order, magic
		0x08, 0x00, 0x00, 0x00, // IFD0 offset
		0x01, 0x00, // entry count
		0x12, 0x01, 0x03, 0x00, // tag 0x0112, type SHORT
		0x01, 0x00, 0x00, 0x00, // value count
		byte(orientation), 0x00, 0x00, 0x00, // value, padded
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)

	out := append([]byte{}, encoded[:2]...)
	out = append(out, 0xFF, 0xE1, byte((len(payload)+2)>>8), byte(len(payload)+2))
	out = append(out, payload...)
	return append(out, encoded[2:]...)
}

func TestApplyOrientation_RotationsSwapDimensions(t *testing.T) {
	src := testImage(100, 80)

	for _, orientation := range []int{OrientationRotate90CW, OrientationRotate90CCW, OrientationTranspose, OrientationTransverse} {
		out := ApplyOrientation(src, orientation)
		assert.Equal(t, 80, out.Bounds().Dx(), "orientation %d", orientation)
		assert.Equal(t, 100, out.Bounds().Dy(), "orientation %d", orientation)
	}
}

func TestApplyOrientation_FlipsKeepDimensions(t *testing.T) {
	src := testImage(100, 80)

	for _, orientation := range []int{OrientationFlipH, OrientationFlipV, OrientationRotate180} {
		out := ApplyOrientation(src, orientation)
		assert.Equal(t, 100, out.Bounds().Dx(), "orientation %d", orientation)
		assert.Equal(t, 80, out.Bounds().Dy(), "orientation %d", orientation)
		assert.NotSame(t, src, out)
	}
}

func TestApplyOrientation_Rotate90CWMovesTopRightToTopLeft(t *testing.T) {
	src := testImage(100, 80)

	out := ApplyOrientation(src, OrientationRotate90CW)
	// source pixel (0, 79) (bottom-left) becomes the new top-left
	r, g, _, _ := out.At(out.Bounds().Min.X, out.Bounds().Min.Y).RGBA()
	assert.Equal(t, uint32(0), r>>8)
	assert.Equal(t, uint32(79), g>>8)
}

func TestApplyOrientation_IdentityAndUnknownValuesPassThrough(t *testing.T) {
	src := testImage(10, 10)

	assert.Equal(t, src, ApplyOrientation(src, OrientationNormal))
	assert.Equal(t, src, ApplyOrientation(src, 0))
	assert.Equal(t, src, ApplyOrientation(src, 9))
}

func TestDecodeOriented_PlainJPEGWithoutEXIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(40, 30), nil))

	out := DecodeOriented(buf.Bytes())
	require.NotNil(t, out)
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 30, out.Bounds().Dy())
}

func TestDecodeOriented_EXIFRotate90SwapsDimensions(t *testing.T) {
	data := orientedJPEG(t, testImage(40, 30), OrientationRotate90CW)

	out := DecodeOriented(data)
	require.NotNil(t, out)
	assert.Equal(t, 30, out.Bounds().Dx())
	assert.Equal(t, 40, out.Bounds().Dy())
}

func TestDecodeOriented_EXIFNormalKeepsDimensions(t *testing.T) {
	data := orientedJPEG(t, testImage(40, 30), OrientationNormal)

	out := DecodeOriented(data)
	require.NotNil(t, out)
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 30, out.Bounds().Dy())
}

func TestDecodeOriented_GarbageReturnsNil(t *testing.T) {
	assert.Nil(t, DecodeOriented([]byte("not an image")))
	assert.Nil(t, DecodeOriented(nil))
}

func TestLoadFull_UsesProvidedFetcher(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(20, 10), nil))

	var gotURL string
	loader := NewRemoteLoader(func(ctx context.Context, url string) ([]byte, error) {
		gotURL = url
		return buf.Bytes(), nil
	})

	img := loader.LoadFull(context.Background(), "https://storage.example.com/images/3.jpg")
	require.NotNil(t, img)
	assert.Equal(t, "https://storage.example.com/images/3.jpg", gotURL)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestLoadFull_FetchFailureReturnsNil(t *testing.T) {
	loader := NewRemoteLoader(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	assert.Nil(t, loader.LoadFull(context.Background(), "https://storage.example.com/images/3.jpg"))
}
