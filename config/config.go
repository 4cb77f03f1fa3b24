package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultPhotosSubDir    = "photos"
	DefaultFragmentsSubDir = "fragments"
)

const (
	defaultCacheTTL         = 5 * time.Minute
	defaultPollMaxAttempts  = 60
	defaultPollInterval     = 5 * time.Second
	defaultUploadQueueSize  = 100
	defaultNumUploadWorkers = 2
	defaultRequestTimeout   = 30 * time.Second
)

type Config struct {
	// analysis backend
	APIBaseURL string

	// object storage URL rewriting: download URLs referencing the internal
	// endpoint are rewritten to the public one before use
	StorageInternalURL string
	StoragePublicURL   string

	// local soft-state database path
	DatabasePath string

	// media storage configuration
	MediaStoragePath string // primary root for local photos and cached fragments
	PhotosPath       string // full-calculated path for saved photos
	FragmentsPath    string // full-calculated path for cached fragment files

	// result cache settings
	CacheTTL time.Duration

	// processing-status poller settings
	PollMaxAttempts int
	PollInterval    time.Duration

	// upload worker settings
	UploadQueueSize  int
	NumUploadWorkers int

	// per-request HTTP timeout against the backend
	RequestTimeout time.Duration
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvDurationOrDefault(envVar string, defaultVal time.Duration) time.Duration {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(valStr)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %s. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	apiBase := getEnvOrDefault("API_BASE_URL", "http://localhost:8000")
	if _, err := url.Parse(apiBase); err != nil {
		return Config{}, fmt.Errorf("invalid API_BASE_URL '%s': %w", apiBase, err)
	}

	dbPath := getEnvOrDefault("DATABASE_PATH", "treehealth.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	photosSubDir := getEnvOrDefault("PHOTOS_SUBDIR", DefaultPhotosSubDir)
	absPhotosPath := filepath.Join(absMediaStorage, photosSubDir)

	fragmentsSubDir := getEnvOrDefault("FRAGMENTS_SUBDIR", DefaultFragmentsSubDir)
	absFragmentsPath := filepath.Join(absMediaStorage, fragmentsSubDir)

	cfg := Config{
		APIBaseURL:         apiBase,
		StorageInternalURL: getEnvOrDefault("STORAGE_INTERNAL_URL", "http://minio:9000"),
		StoragePublicURL:   getEnvOrDefault("STORAGE_PUBLIC_URL", ""),
		DatabasePath:       dbPath,
		MediaStoragePath:   absMediaStorage,
		PhotosPath:         absPhotosPath,
		FragmentsPath:      absFragmentsPath,
		CacheTTL:           getEnvDurationOrDefault("RESULT_CACHE_TTL", defaultCacheTTL),
		PollMaxAttempts:    getEnvIntOrDefault("POLL_MAX_ATTEMPTS", defaultPollMaxAttempts),
		PollInterval:       getEnvDurationOrDefault("POLL_INTERVAL", defaultPollInterval),
		UploadQueueSize:    getEnvIntOrDefault("UPLOAD_QUEUE_SIZE", defaultUploadQueueSize),
		NumUploadWorkers:   getEnvIntOrDefault("NUM_UPLOAD_WORKERS", defaultNumUploadWorkers),
		RequestTimeout:     getEnvDurationOrDefault("REQUEST_TIMEOUT", defaultRequestTimeout),
	}

	return cfg, nil
}
