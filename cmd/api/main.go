package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/formsnap/signup-api/config"
	"github.com/formsnap/signup-api/internal/drafts"
	"github.com/formsnap/signup-api/internal/form"
	"github.com/formsnap/signup-api/internal/handlers"
	"github.com/formsnap/signup-api/internal/middleware"
	"github.com/formsnap/signup-api/internal/services"
	"github.com/formsnap/signup-api/pkg/httpclient"
	"github.com/formsnap/signup-api/pkg/logger"
	"github.com/formsnap/signup-api/pkg/metrics"
	"github.com/formsnap/signup-api/pkg/profiling"
	"github.com/formsnap/signup-api/pkg/retry"
	"github.com/formsnap/signup-api/pkg/storage"
	"github.com/formsnap/signup-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Multipart overhead on top of the largest accepted avatar
const multipartSlack = 1 << 20

// registerFormRoutes registers the submission and draft routes
func registerFormRoutes(
	group *gin.RouterGroup,
	generalRateLimiter, submitRateLimiter *middleware.RateLimiter,
	submissionHandler *handlers.SubmissionHandler,
	draftHandler *handlers.DraftHandler,
) {
	uploadLimit := middleware.BodySizeLimitMiddleware(form.MaxAvatarBytes + multipartSlack)
	// JSON submissions carry base64 avatars, a third larger than the raw bytes
	jsonUploadLimit := middleware.BodySizeLimitMiddleware(form.MaxAvatarBytes*4/3 + multipartSlack)
	smallBody := middleware.BodySizeLimitMiddleware(16 * 1024)

	group.POST("/submissions", submitRateLimiter.Middleware(), jsonUploadLimit, submissionHandler.Submit)
	group.POST("/password-strength", generalRateLimiter.Middleware(), smallBody, submissionHandler.PasswordStrength)

	d := group.Group("/drafts", generalRateLimiter.Middleware())
	d.POST("", draftHandler.Create)
	d.GET("/:id", draftHandler.Get)
	d.PUT("/:id", smallBody, draftHandler.Update)
	d.POST("/:id/techs", draftHandler.AppendTech)
	d.PUT("/:id/techs/:index", smallBody, draftHandler.SetTech)
	d.DELETE("/:id/techs/:index", draftHandler.RemoveTech)
	d.POST("/:id/submit", submitRateLimiter.Middleware(), uploadLimit, draftHandler.Submit)
}

// probeStorage checks the bucket with retries until it is reachable or ctx ends.
func probeStorage(ctx context.Context, client *storage.Client, ready *atomic.Bool) {
	for {
		err := retry.Do(ctx, retry.StorageConfig(), "storage.CheckBucket", func() error {
			return client.CheckBucket(ctx)
		})
		if err == nil {
			ready.Store(true)
			logger.Info("Object storage reachable", zap.String("bucket", client.Bucket()))
			return
		}
		if ctx.Err() != nil {
			return
		}

		logger.Error("Object storage not reachable, will retry", zap.Error(err), zap.String("bucket", client.Bucket()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(30 * time.Second):
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting signup API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
		zap.String("upload_failure_policy", cfg.Submission.UploadFailurePolicy),
	)

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	tracerShutdown, err := tracing.InitTracer(cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.InitProfiler(cfg.Profiling, cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	metrics.RecordInfrastructureMetrics()

	httpClient := httpclient.NewStandardClient(time.Duration(cfg.Storage.HTTPTimeoutSeconds) * time.Second)

	storageClient, err := storage.NewClient(storage.Config{
		AccessKeyID:         cfg.Storage.AccessKeyID,
		SecretAccessKey:     cfg.Storage.SecretAccessKey,
		BucketName:          cfg.Storage.BucketName,
		Endpoint:            cfg.Storage.Endpoint,
		Region:              cfg.Storage.Region,
		UsePathStyle:        cfg.Storage.UsePathStyle,
		CacheControlSeconds: cfg.Storage.CacheControlSeconds,
	}, httpClient)
	if err != nil {
		logger.Fatal("Failed to initialize object storage client", zap.Error(err))
	}

	var storageReady atomic.Bool
	if cfg.Storage.ProbeOnStartup {
		go probeStorage(appCtx, storageClient, &storageReady)
	} else {
		storageReady.Store(true)
	}

	draftStore := drafts.NewStore(time.Duration(cfg.Drafts.TTLMinutes) * time.Minute)

	submissionService := services.NewSubmissionService(storageClient, cfg)
	draftService := services.NewDraftService(draftStore, submissionService)

	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	draftHandler := handlers.NewDraftHandler(draftService)
	healthHandler := handlers.NewHealthHandler(storageReady.Load)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.MaxMultipartMemory = form.MaxAvatarBytes + multipartSlack

	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}))

	generalRateLimiter := middleware.NewRateLimiter(appCtx, 50, 100) // 50 req/sec, burst of 100
	submitRateLimiter := middleware.NewRateLimiter(appCtx, 0.5, 5)   // 1 req/2s, burst of 5

	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	registerFormRoutes(v1, generalRateLimiter, submitRateLimiter, submissionHandler, draftHandler)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Covers the avatar upload to object storage
		WriteTimeout:   time.Duration(cfg.Storage.HTTPTimeoutSeconds+30) * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopApp()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
