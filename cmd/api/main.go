package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/Esosek/tubely/internal/api"
	"github.com/Esosek/tubely/internal/assets"
	"github.com/Esosek/tubely/internal/auth"
	"github.com/Esosek/tubely/internal/config"
	"github.com/Esosek/tubely/internal/events"
	"github.com/Esosek/tubely/internal/health"
	"github.com/Esosek/tubely/internal/media"
	"github.com/Esosek/tubely/internal/observability"
	"github.com/Esosek/tubely/internal/storage"
)

const (
	ShutdownTimeout       = 30 * time.Second
	TracerShutdownTimeout = 5 * time.Second
	AWSConfigTimeout      = 10 * time.Second
)

func main() {
	log := observability.NewLogger()
	slog.SetDefault(log)

	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), "tubely-api", cfg)
	if err != nil {
		log.Error("Failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), TracerShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Error("Failed to shutdown tracer", "error", err)
		}
	}()

	// Initialize AWS clients
	ctx, cancel := context.WithTimeout(context.Background(), AWSConfigTimeout)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		log.Error("Failed to load AWS config", "error", err)
		os.Exit(1)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	s3Client := storage.NewS3Client(awsCfg, cfg.AWS.S3Bucket, cfg.Media.UploadTimeout)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AWS.SQSQueueURL != "" {
		publisher = events.NewSQSPublisher(awsCfg, cfg.AWS.SQSQueueURL)
		log.Info("SQS upload events enabled", "queue", cfg.AWS.SQSQueueURL)
	}

	// Initialize the metadata store
	store, err := storage.NewVideoStore(context.Background(), cfg)
	if err != nil {
		log.Error("Failed to initialize video store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("Video store initialized", "backend", string(cfg.Store.Backend))

	// Initialize the assets root
	assetManager, err := assets.NewManager(cfg.Assets.Root, cfg.AssetBaseURL())
	if err != nil {
		log.Error("Failed to initialize assets root", "error", err)
		os.Exit(1)
	}

	// Initialize JWT service
	jwtSecret, err := cfg.GetJWTSecret()
	if err != nil {
		log.Error("Failed to get JWT secret", "error", err)
		os.Exit(1)
	}
	jwtService, err := auth.NewJWTService(jwtSecret)
	if err != nil {
		log.Error("Failed to create JWT service", "error", err)
		os.Exit(1)
	}

	rateLimiter := auth.NewRateLimiter(auth.DefaultRateLimiterConfig())

	// Initialize health checker
	healthConfig := health.DefaultConfig("tubely-api", log)
	healthConfig.ObjectStore = s3Client
	healthConfig.Store = store
	healthChecker := health.NewChecker(healthConfig)

	handlers := api.NewHandlers(&api.HandlersConfig{
		Config:      cfg,
		Logger:      log,
		Store:       store,
		ObjectStore: s3Client,
		Assets:      assetManager,
		Prober:      media.NewFFProbe(log, cfg.Media.ProbeTimeout),
		Processor:   media.NewFFMPEG(log, cfg.Media.TranscodeTimeout),
		JWTService:  jwtService,
		RateLimiter: rateLimiter,
		Events:      publisher,
	})

	server, err := api.NewServer(&api.ServerConfig{
		Config:        cfg,
		Logger:        log,
		Handlers:      handlers,
		JWTService:    jwtService,
		RateLimiter:   rateLimiter,
		HealthChecker: healthChecker,
		AssetsRoot:    assetManager.Root(),
	})
	if err != nil {
		log.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Error("Server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel = context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server shutdown complete")
}
