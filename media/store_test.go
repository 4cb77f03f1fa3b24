package media

import (
	"bytes"
	"image/jpeg"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStorage {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir(), map[AssetType]string{
		AssetTypePhoto:    "photos",
		AssetTypeFragment: "fragments",
	})
	require.NoError(t, err)
	return store
}

func TestLocalStorage_SaveAndGet(t *testing.T) {
	store := newTestStore(t)

	rel, err := store.Save(AssetTypePhoto, "a.jpg", strings.NewReader("jpegdata"))
	require.NoError(t, err)
	assert.Equal(t, "photos/a.jpg", rel)

	reader, info, err := store.Get(rel)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, int64(8), info.Size())

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))
}

func TestLocalStorage_SaveRejectsUnconfiguredType(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(AssetTypeUnknown, "a.jpg", strings.NewReader("x"))
	require.Error(t, err)

	_, err = store.Save(AssetTypePhoto, "", strings.NewReader("x"))
	require.Error(t, err)
}

func TestLocalStorage_SaveStripsDirectoryFromHint(t *testing.T) {
	store := newTestStore(t)

	rel, err := store.Save(AssetTypePhoto, "../../escape.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "photos/escape.jpg", rel)
}

func TestLocalStorage_GetFullPathRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetFullPath("../outside.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestLocalStorage_DeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	rel, err := store.Save(AssetTypeFragment, "f.jpg", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))

	_, _, err = store.Get(rel)
	require.Error(t, err)
}

func TestProcessor_SavePhotoKeepsExtension(t *testing.T) {
	store := newTestStore(t)
	p := NewProcessor(store)

	rel, err := p.SavePhoto("IMG_0042.PNG", strings.NewReader("pngdata"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "photos/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))

	rel, err = p.SavePhoto("noextension", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rel, ".jpg"))
}

func TestProcessor_SaveFragmentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	p := NewProcessor(store)

	rel, err := p.SaveFragment(testImage(100, 80), []float64{10, 10, 60, 50})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "fragments/"))

	reader, _, err := store.Get(rel)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestProcessor_SaveFragmentImagePersistsAsGiven(t *testing.T) {
	store := newTestStore(t)
	p := NewProcessor(store)

	rel, err := p.SaveFragmentImage(testImage(33, 21))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "fragments/"))

	reader, _, err := store.Get(rel)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 33, img.Bounds().Dx())
	assert.Equal(t, 21, img.Bounds().Dy())
}

func TestProcessor_SaveFragmentRejectsBadBox(t *testing.T) {
	p := NewProcessor(newTestStore(t))

	_, err := p.SaveFragment(testImage(10, 10), []float64{1, 2, 3})
	require.Error(t, err)
}

func TestIsRasterImage(t *testing.T) {
	assert.True(t, IsRasterImage("a.jpg"))
	assert.True(t, IsRasterImage("a.JPEG"))
	assert.True(t, IsRasterImage("a.png"))
	assert.False(t, IsRasterImage("a.heic"))
	assert.False(t, IsRasterImage("a.txt"))
	assert.False(t, IsRasterImage("noext"))
}
