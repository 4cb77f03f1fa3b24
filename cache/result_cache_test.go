package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborlens/treehealth/models"
)

func record(id int) models.ImageRecord {
	return models.ImageRecord{ID: id, Filename: "tree.jpg", ProcessingStatus: models.StatusCompleted}
}

func TestGet_FreshEntryServedWithoutFetch(t *testing.T) {
	fetches := 0
	c := NewResultCache(func(ctx context.Context) ([]models.ImageRecord, error) {
		fetches++
		return []models.ImageRecord{record(1)}, nil
	}, time.Minute)

	first, err := c.Get(context.Background(), false)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, fetches)
	require.Len(t, second, 1)
	// same backing slice, not a refetched copy
	assert.Equal(t, &first[0], &second[0])
}

func TestGet_ExpiredEntryRefetched(t *testing.T) {
	fetches := 0
	c := NewResultCache(func(ctx context.Context) ([]models.ImageRecord, error) {
		fetches++
		return []models.ImageRecord{record(fetches)}, nil
	}, time.Minute)

	base := time.Now()
	c.now = func() time.Time { return base }

	_, err := c.Get(context.Background(), false)
	require.NoError(t, err)

	c.now = func() time.Time { return base.Add(61 * time.Second) }
	images, err := c.Get(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, fetches)
	assert.Equal(t, 2, images[0].ID)
}

func TestGet_ForceRefreshBypassesFreshEntry(t *testing.T) {
	fetches := 0
	c := NewResultCache(func(ctx context.Context) ([]models.ImageRecord, error) {
		fetches++
		return []models.ImageRecord{record(fetches)}, nil
	}, time.Minute)

	_, err := c.Get(context.Background(), false)
	require.NoError(t, err)
	images, err := c.Get(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, fetches)
	assert.Equal(t, 2, images[0].ID)
}

func TestGet_FailedFetchKeepsPreviousEntry(t *testing.T) {
	var fail bool
	c := NewResultCache(func(ctx context.Context) ([]models.ImageRecord, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return []models.ImageRecord{record(1)}, nil
	}, time.Minute)

	_, err := c.Get(context.Background(), false)
	require.NoError(t, err)

	fail = true
	_, err = c.Get(context.Background(), true)
	require.Error(t, err)

	cached := c.Peek()
	require.Len(t, cached, 1)
	assert.Equal(t, 1, cached[0].ID)
}

func TestGet_NilFetchResultStoredAsEmptyList(t *testing.T) {
	c := NewResultCache(func(ctx context.Context) ([]models.ImageRecord, error) {
		return nil, nil
	}, time.Minute)

	images, err := c.Get(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)
	// the empty result counts as cached, so no refetch within the window
	assert.NotNil(t, c.Peek())
}

func TestGet_ConcurrentCallersShareOneFetch(t *testing.T) {
	fetches := 0
	c := NewResultCache(func(ctx context.Context) ([]models.ImageRecord, error) {
		fetches++
		time.Sleep(20 * time.Millisecond)
		return []models.ImageRecord{record(1)}, nil
	}, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			images, err := c.Get(context.Background(), false)
			assert.NoError(t, err)
			assert.Len(t, images, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fetches)
}

func TestInvalidate(t *testing.T) {
	c := NewResultCache(func(ctx context.Context) ([]models.ImageRecord, error) {
		return []models.ImageRecord{record(1)}, nil
	}, time.Minute)

	_, err := c.Get(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, c.Peek())

	c.Invalidate()
	assert.Nil(t, c.Peek())
}
