package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/orgportal-api/api/swagger"
	"github.com/noah-isme/orgportal-api/internal/handler"
	"github.com/noah-isme/orgportal-api/internal/middleware"
	"github.com/noah-isme/orgportal-api/internal/models"
	"github.com/noah-isme/orgportal-api/internal/repository"
	"github.com/noah-isme/orgportal-api/internal/service"
	"github.com/noah-isme/orgportal-api/pkg/cache"
	"github.com/noah-isme/orgportal-api/pkg/config"
	"github.com/noah-isme/orgportal-api/pkg/database"
	"github.com/noah-isme/orgportal-api/pkg/jobs"
	"github.com/noah-isme/orgportal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/orgportal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/orgportal-api/pkg/middleware/requestid"
	"github.com/noah-isme/orgportal-api/pkg/storage"
)

// @title OrgPortal Document API
// @version 0.1.0
// @description Document repository with folder routing, versioning, access control and activity exports
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, listings will not be cached", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	folderRepo := repository.NewFolderRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	tagRepo := repository.NewTagRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	logRepo := repository.NewLogRepository(db)
	exportRepo := repository.NewExportRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	resolver := service.NewAccessService(cfg.Documents.AdminDepartment)
	identitySvc := service.NewIdentityService(cfg.Identity.TokenSecret, cfg.Identity.Issuer)
	folderSvc := service.NewFolderService(folderRepo, cfg.Documents.PublicFolder, validate, logr)
	employeeSvc := service.NewEmployeeService(employeeRepo)
	documentSvc := service.NewDocumentService(documentRepo, accessRepo, tagRepo, logRepo, employeeRepo, folderSvc, cacheRepo, resolver, metricsSvc, validate, logr, service.DocumentServiceConfig{
		ListCacheTTL:   cfg.Documents.ListCacheTTL,
		MaxUploadFiles: cfg.Documents.MaxUploadFiles,
		MaxTitleLength: cfg.Documents.MaxTitleLength,
	})
	versionSvc := service.NewVersionService(versionRepo, documentRepo, accessRepo, resolver, cacheRepo, metricsSvc, validate, logr)
	commentSvc := service.NewCommentService(commentRepo, documentRepo, accessRepo, resolver, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportRepo, documentRepo, accessRepo, logRepo, resolver, store, signer, metricsSvc, validate, logr)
		exportQueue = jobs.NewQueue("document-exports", exportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportQueue.Start(ctx)
		defer exportQueue.Stop()
		exportSvc.BindQueue(exportQueue)
	} else {
		exportSvc = service.NewExportService(exportRepo, documentRepo, accessRepo, logRepo, resolver, nil, nil, metricsSvc, validate, logr)
	}

	// Handlers.
	folderHandler := handler.NewFolderHandler(folderSvc, documentSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	versionHandler := handler.NewVersionHandler(versionSvc)
	commentHandler := handler.NewCommentHandler(commentSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	employeeHandler := handler.NewEmployeeHandler(employeeSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/exports/download", exportHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(identitySvc))
	{
		authed.GET("/me", employeeHandler.Me)

		authed.GET("/folders", folderHandler.List)
		authed.POST("/folders", folderHandler.Create)
		authed.GET("/folders/:id", folderHandler.Get)
		authed.DELETE("/folders/:id", folderHandler.Retire)
		authed.GET("/folders/:id/documents", folderHandler.Documents)

		authed.POST("/documents", documentHandler.Upload)
		authed.GET("/documents/:id", documentHandler.Get)
		authed.DELETE("/documents/:id", documentHandler.Delete)
		authed.POST("/documents/:id/access", documentHandler.Share)
		authed.POST("/documents/:id/archive", documentHandler.Archive)
		authed.GET("/documents/:id/logs", documentHandler.Logs)

		authed.GET("/documents/:id/versions", versionHandler.List)
		authed.POST("/documents/:id/versions", versionHandler.Add)
		authed.DELETE("/documents/versions/:versionId", versionHandler.Delete)

		authed.GET("/documents/:id/comments", commentHandler.List)
		authed.POST("/documents/:id/comments", commentHandler.Add)
		authed.DELETE("/documents/comments/:commentId", commentHandler.Delete)

		authed.POST("/documents/:id/exports", exportHandler.Create)
		authed.GET("/exports/:jobId", exportHandler.Status)
		authed.POST("/exports/cleanup", middleware.RequireRoles(models.RoleAdmin), exportHandler.Cleanup)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
