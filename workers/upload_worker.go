package workers

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/arborlens/treehealth/api"
	"github.com/arborlens/treehealth/cache"
	"github.com/arborlens/treehealth/config"
	"github.com/arborlens/treehealth/models"
	"github.com/arborlens/treehealth/realtime"
	"github.com/arborlens/treehealth/repository"
	"github.com/arborlens/treehealth/utils"
)

// UploadJob is one local photo queued for upload and status monitoring.
type UploadJob struct {
	PhotoURI     string
	AbsolutePath string
	Filename     string
	ContentType  string
	Author       string
}

// UploadProcessor uploads queued photos to the analysis backend and then
// polls each one's processing status until it settles, recording markers
// and result snippets along the way.
type UploadProcessor struct {
	JobQueue chan UploadJob
	Config   config.Config
	Client   *api.Client
	Photos   repository.PhotoRepositoryInterface
	Markers  repository.MarkerRepositoryInterface
	Results  repository.ResultRepositoryInterface
	Cache    *cache.ResultCache // invalidated after a completed upload
	Hub      *realtime.Hub      // optional; nil disables status events
	Wg       sync.WaitGroup
	Pending  map[string]bool
	Mutex    sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewUploadProcessor(cfg config.Config, client *api.Client, photos repository.PhotoRepositoryInterface, markers repository.MarkerRepositoryInterface, results repository.ResultRepositoryInterface, resultCache *cache.ResultCache, hub *realtime.Hub, queueSize, numWorkers int) *UploadProcessor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	proc := &UploadProcessor{
		JobQueue: make(chan UploadJob, queueSize),
		Config:   cfg,
		Client:   client,
		Photos:   photos,
		Markers:  markers,
		Results:  results,
		Cache:    resultCache,
		Hub:      hub,
		Pending:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}

	proc.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go proc.worker(i)
	}
	log.Printf("Started %d upload worker(s) with queue size %d", numWorkers, queueSize)
	return proc
}

func (up *UploadProcessor) worker(id int) {
	defer up.Wg.Done()
	log.Printf("Upload worker %d started", id)
	for {
		select {
		case job, ok := <-up.JobQueue:
			if !ok {
				log.Printf("Upload worker %d stopping: Job queue closed", id)
				return
			}
			log.Printf("Worker %d: Received upload job for: %s", id, job.PhotoURI)
			up.processJob(job)
			up.Mutex.Lock()
			delete(up.Pending, job.PhotoURI)
			up.Mutex.Unlock()

		case <-up.ctx.Done():
			log.Printf("Upload worker %d stopping: Stop signal received", id)
			return
		}
	}
}

func (up *UploadProcessor) processJob(job UploadJob) {
	if _, err := os.Stat(job.AbsolutePath); err != nil {
		log.Printf("Worker: Skipping upload for %s: cannot stat file: %v", job.PhotoURI, err)
		return
	}

	metadata := up.extractMetadata(job)

	file, err := os.Open(job.AbsolutePath)
	if err != nil {
		log.Printf("Worker: ERROR opening %s for upload: %v", job.PhotoURI, err)
		return
	}

	record, err := up.Client.Upload(up.ctx, job.Filename, job.ContentType, file, metadata)
	file.Close()
	if err != nil {
		log.Printf("Worker: ERROR uploading %s: %v", job.PhotoURI, err)
		up.notify(realtime.Event{Type: realtime.EventProcessingFailed, PhotoURI: job.PhotoURI, Error: err.Error()})
		return
	}

	if err := up.Markers.MarkUploaded(job.PhotoURI, record.ID); err != nil {
		log.Printf("Worker: ERROR recording upload marker for %s: %v", job.PhotoURI, err)
	}
	up.notify(realtime.Event{Type: realtime.EventUploadComplete, PhotoURI: job.PhotoURI, ImageID: record.ID, Status: record.ProcessingStatus})

	final, err := up.Client.MonitorProcessing(up.ctx, record.ID, up.Config.PollMaxAttempts, up.Config.PollInterval, func(r *models.ImageRecord) {
		if snErr := up.Results.SaveSnippet(job.PhotoURI, r.ProcessingStatus, r.DescriptionText); snErr != nil {
			log.Printf("Worker: ERROR saving result snippet for %s: %v", job.PhotoURI, snErr)
		}
		up.notify(realtime.Event{Type: realtime.EventProcessingUpdate, PhotoURI: job.PhotoURI, ImageID: r.ID, Status: r.ProcessingStatus})
	})
	if err != nil {
		log.Printf("Worker: processing did not complete for %s (image %d): %v", job.PhotoURI, record.ID, err)
		up.notify(realtime.Event{Type: realtime.EventProcessingFailed, PhotoURI: job.PhotoURI, ImageID: record.ID, Error: err.Error()})
		return
	}

	log.Printf("Worker: processing completed for %s (image %d, %d objects)", job.PhotoURI, final.ID, len(final.DetectedObjects))
	up.notify(realtime.Event{Type: realtime.EventProcessingDone, PhotoURI: job.PhotoURI, ImageID: final.ID, Status: final.ProcessingStatus})
	if up.Cache != nil {
		// the backend's list changed; make the next gallery read refetch
		up.Cache.Invalidate()
	}
}

func (up *UploadProcessor) notify(event realtime.Event) {
	if up.Hub != nil {
		up.Hub.Broadcast(event)
	}
}

// extractMetadata builds the upload metadata map from the photo's EXIF data
// and caches what it found in the local photo record. Extraction failures
// degrade to an upload without metadata.
func (up *UploadProcessor) extractMetadata(job UploadJob) map[string]string {
	meta, err := utils.GetPhotoMetadata(job.AbsolutePath)
	if err != nil {
		log.Printf("Worker: could not extract metadata for %s: %v", job.PhotoURI, err)
		return nil
	}
	if job.Author != "" {
		meta.Author = &job.Author
	}

	uploadMeta := meta.UploadMetadata()
	if len(uploadMeta) > 0 {
		if data, err := json.Marshal(uploadMeta); err == nil {
			if dbErr := up.Photos.SaveMetadata(job.PhotoURI, string(data)); dbErr != nil {
				log.Printf("Worker: ERROR caching metadata for %s: %v", job.PhotoURI, dbErr)
			}
		}
	}
	if loc := meta.Location(); loc != nil {
		if dbErr := up.Photos.SaveLocation(job.PhotoURI, *loc); dbErr != nil {
			log.Printf("Worker: ERROR caching location for %s: %v", job.PhotoURI, dbErr)
		}
	}
	return uploadMeta
}

// QueueJob queues an upload if one is not already pending for the photo
func (up *UploadProcessor) QueueJob(job UploadJob) bool {
	up.Mutex.Lock()
	if up.Pending[job.PhotoURI] {
		up.Mutex.Unlock()
		log.Printf("upload for %s already pending, skipping queue", job.PhotoURI)
		return false
	}
	up.Pending[job.PhotoURI] = true
	up.Mutex.Unlock()

	select {
	case up.JobQueue <- job:
		log.Printf("queued upload for: %s", job.PhotoURI)
		up.notify(realtime.Event{Type: realtime.EventUploadQueued, PhotoURI: job.PhotoURI})
		return true
	default:
		log.Printf("WARNING: upload job queue full, failed to queue job for: %s", job.PhotoURI)
		up.Mutex.Lock()
		delete(up.Pending, job.PhotoURI)
		up.Mutex.Unlock()
		return false
	}
}

// Stop cancels in-flight uploads and polls and waits for workers to exit.
func (up *UploadProcessor) Stop() {
	log.Println("stopping upload processor...")
	up.cancel()
	up.Wg.Wait()
	log.Println("all upload workers stopped")
}

// PendingCount reports how many jobs are queued or running.
func (up *UploadProcessor) PendingCount() int {
	up.Mutex.Lock()
	defer up.Mutex.Unlock()
	return len(up.Pending)
}
