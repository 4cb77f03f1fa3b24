package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/arborlens/treehealth/api"
	"github.com/arborlens/treehealth/cache"
	"github.com/arborlens/treehealth/config"
	"github.com/arborlens/treehealth/database"
	"github.com/arborlens/treehealth/handlers"
	"github.com/arborlens/treehealth/media"
	"github.com/arborlens/treehealth/models"
	"github.com/arborlens/treehealth/realtime"
	"github.com/arborlens/treehealth/repository"
	"github.com/arborlens/treehealth/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.PhotosPath, cfg.FragmentsPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	photoRepo := repository.NewPhotoRepository(db)
	markerRepo := repository.NewMarkerRepository(db)
	resultRepo := repository.NewResultRepository(db)

	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, cfg.StorageInternalURL, cfg.StoragePublicURL)

	resultCache := cache.NewResultCache(func(ctx context.Context) ([]models.ImageRecord, error) {
		return client.ListImages(ctx, 0, 500)
	}, cfg.CacheTTL)

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypePhoto:    filepath.Base(cfg.PhotosPath),
		media.AssetTypeFragment: filepath.Base(cfg.FragmentsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}
	mediaProcessor := media.NewProcessor(mediaStore)

	loader := media.NewRemoteLoader(client.FetchBytes)
	fragments := media.NewFragmentCache(loader)

	hub := realtime.NewHub()
	go hub.Run()

	log.Printf("Initializing upload worker pool (Workers: %d, Queue Size: %d)...", cfg.NumUploadWorkers, cfg.UploadQueueSize)
	uploader := workers.NewUploadProcessor(cfg, client, photoRepo, markerRepo, resultRepo, resultCache, hub, cfg.UploadQueueSize, cfg.NumUploadWorkers)
	defer uploader.Stop()

	log.Printf("Using backend: %s", cfg.APIBaseURL)
	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing photos in: %s", cfg.PhotosPath)
	log.Printf("Caching fragments in: %s", cfg.FragmentsPath)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	galleryHandler := &handlers.GalleryHandler{Cache: resultCache, Client: client}
	fragmentHandler := handlers.NewFragmentHandler(client, fragments, mediaProcessor, mediaStore)
	photoHandler := &handlers.PhotoHandler{
		Processor: mediaProcessor,
		Store:     mediaStore,
		Photos:    photoRepo,
		Markers:   markerRepo,
		Results:   resultRepo,
		Uploader:  uploader,
	}
	diagnosticsHandler := &handlers.DiagnosticsHandler{Client: client}

	r.Route("/api", func(r chi.Router) {
		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", galleryHandler.ListGallery)
			r.Get("/markers", galleryHandler.MapMarkers)
			r.Delete("/fragments", fragmentHandler.ClearFragmentCache)
			r.Route("/{image_id}", func(r chi.Router) {
				r.Get("/", galleryHandler.GetGalleryImage)
				r.Delete("/", galleryHandler.DeleteGalleryImage)
				r.Get("/download", galleryHandler.GetGalleryImageDownloadURL)
				r.Post("/reprocess", galleryHandler.ReprocessGalleryImage)
				r.Get("/fragments/{object_index}", fragmentHandler.ServeFragment)
			})
		})

		r.Route("/photos", func(r chi.Router) {
			r.Post("/", photoHandler.UploadPhoto)
			r.Get("/", photoHandler.ListPhotos)
			r.Route("/{photo_uri}", func(r chi.Router) {
				r.Delete("/", photoHandler.TrashPhoto)
				r.Post("/restore", photoHandler.RestorePhoto)
			})
		})

		r.Get("/diagnostics", diagnosticsHandler.GetDiagnostics)
		r.Get("/ws", hub.ServeWS)

		photosSubDir := filepath.Base(cfg.PhotosPath)
		r.Get("/files/"+photosSubDir+"/*", handlers.AssetServer(cfg.MediaStoragePath, photosSubDir, "/api/files/"+photosSubDir+"/"))
		log.Printf("Registered photo file server at /api/files/%s/*", photosSubDir)

		fragmentsSubDir := filepath.Base(cfg.FragmentsPath)
		r.Get("/files/"+fragmentsSubDir+"/*", handlers.AssetServer(cfg.MediaStoragePath, fragmentsSubDir, "/api/files/"+fragmentsSubDir+"/"))
		log.Printf("Registered fragment file server at /api/files/%s/*", fragmentsSubDir)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
