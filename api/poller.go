package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/arborlens/treehealth/models"
)

// Default polling policy: 60 attempts at 5 second spacing, a five minute
// ceiling.
const (
	DefaultPollMaxAttempts = 60
	DefaultPollInterval    = 5 * time.Second
)

// MonitorProcessing polls the detail record for id until the backend
// reports a terminal processing status or maxAttempts is exhausted.
//
// onUpdate is invoked with every successfully fetched record, whatever its
// status, so callers can reflect intermediate states. A transient fetch
// failure consumes an attempt and the loop continues. Cancelling ctx stops
// the loop: no further requests are issued and onUpdate is not called again.
func (c *Client) MonitorProcessing(ctx context.Context, id, maxAttempts int, interval time.Duration, onUpdate func(*models.ImageRecord)) (*models.ImageRecord, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := c.GetImage(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// transient fetch failure: burn the attempt and keep polling
			log.Printf("api: poll attempt %d/%d for image %d failed: %v", attempt+1, maxAttempts, id, err)
		} else {
			if onUpdate != nil {
				onUpdate(record)
			}

			switch record.ProcessingStatus {
			case models.StatusCompleted:
				log.Printf("api: processing completed for image %d", id)
				return record, nil
			case models.StatusFailed, models.StatusError:
				log.Printf("api: processing failed for image %d", id)
				return nil, fmt.Errorf("%w: image %d", ErrProcessingFailed, id)
			default:
				log.Printf("api: image %d still %s (attempt %d/%d)", id, record.ProcessingStatus, attempt+1, maxAttempts)
			}
		}

		if attempt == maxAttempts-1 {
			break
		}
		if err := sleepCtx(ctx, interval); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: image %d after %d attempts", ErrProcessingTimeout, id, maxAttempts)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
