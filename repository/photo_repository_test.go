package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbpkg "github.com/arborlens/treehealth/database"
	"github.com/arborlens/treehealth/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dbpkg.AutoMigrateModels(db))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newPhoto(uri, filename string, capturedAt int64) *models.LocalPhoto {
	photo := &models.LocalPhoto{
		URI:        uri,
		Filename:   filename,
		StoredPath: "photos/" + filename,
	}
	if capturedAt != 0 {
		photo.CapturedAt = &capturedAt
	}
	return photo
}

func TestPhotoRepository_CreateAndGetByURI(t *testing.T) {
	repo := NewPhotoRepository(setupTestDB(t))

	require.NoError(t, repo.Create(newPhoto("local:1", "a.jpg", 0)))

	got, err := repo.GetByURI("local:1")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", got.Filename)
	assert.NotZero(t, got.CreatedAt, "Create stamps created_at")

	_, err = repo.GetByURI("local:absent")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPhotoRepository_SaveMetadataAndLocation(t *testing.T) {
	repo := NewPhotoRepository(setupTestDB(t))
	require.NoError(t, repo.Create(newPhoto("local:1", "a.jpg", 0)))

	require.NoError(t, repo.SaveMetadata("local:1", `{"author":"x"}`))
	require.NoError(t, repo.SaveLocation("local:1", "55.751244,37.618423"))

	got, err := repo.GetByURI("local:1")
	require.NoError(t, err)
	require.NotNil(t, got.Metadata)
	assert.JSONEq(t, `{"author":"x"}`, *got.Metadata)
	require.NotNil(t, got.Location)
	assert.Equal(t, "55.751244,37.618423", *got.Location)
}

func TestPhotoRepository_ListExcludesTrashed(t *testing.T) {
	db := setupTestDB(t)
	photos := NewPhotoRepository(db)
	markers := NewMarkerRepository(db)

	require.NoError(t, photos.Create(newPhoto("local:1", "a.jpg", 100)))
	require.NoError(t, photos.Create(newPhoto("local:2", "b.jpg", 200)))
	require.NoError(t, markers.MarkTrashed("local:1"))

	list, err := photos.List(dbpkg.DefaultSortOrder)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "local:2", list[0].URI)

	require.NoError(t, markers.Restore("local:1"))
	list, err = photos.List(dbpkg.DefaultSortOrder)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPhotoRepository_ListSortOrders(t *testing.T) {
	repo := NewPhotoRepository(setupTestDB(t))
	require.NoError(t, repo.Create(newPhoto("local:1", "img10.jpg", 300)))
	require.NoError(t, repo.Create(newPhoto("local:2", "img2.jpg", 100)))
	require.NoError(t, repo.Create(newPhoto("local:3", "img1.jpg", 200)))

	list, err := repo.List(dbpkg.SortDateDesc)
	require.NoError(t, err)
	assert.Equal(t, []string{"img10.jpg", "img1.jpg", "img2.jpg"}, filenames(list))

	list, err = repo.List(dbpkg.SortDateAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"img2.jpg", "img1.jpg", "img10.jpg"}, filenames(list))

	list, err = repo.List(dbpkg.SortFilenameAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"img1.jpg", "img10.jpg", "img2.jpg"}, filenames(list))

	// natural order sorts img2 before img10
	list, err = repo.List(dbpkg.SortFilenameNat)
	require.NoError(t, err)
	assert.Equal(t, []string{"img1.jpg", "img2.jpg", "img10.jpg"}, filenames(list))

	// invalid sort falls back to the default order
	list, err = repo.List("bogus")
	require.NoError(t, err)
	assert.Equal(t, []string{"img10.jpg", "img1.jpg", "img2.jpg"}, filenames(list))
}

func filenames(photos []models.LocalPhoto) []string {
	out := make([]string, len(photos))
	for i := range photos {
		out[i] = photos[i].Filename
	}
	return out
}

func TestPhotoRepository_Delete(t *testing.T) {
	repo := NewPhotoRepository(setupTestDB(t))
	require.NoError(t, repo.Create(newPhoto("local:1", "a.jpg", 0)))

	require.NoError(t, repo.Delete("local:1"))
	_, err := repo.GetByURI("local:1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete("local:1"), gorm.ErrRecordNotFound)
}
