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
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-planner-api/api/swagger"
	"github.com/noah-isme/academic-planner-api/internal/handler"
	"github.com/noah-isme/academic-planner-api/internal/middleware"
	"github.com/noah-isme/academic-planner-api/internal/repository"
	"github.com/noah-isme/academic-planner-api/internal/service"
	"github.com/noah-isme/academic-planner-api/internal/state"
	"github.com/noah-isme/academic-planner-api/pkg/cache"
	"github.com/noah-isme/academic-planner-api/pkg/config"
	"github.com/noah-isme/academic-planner-api/pkg/database"
	"github.com/noah-isme/academic-planner-api/pkg/jobs"
	"github.com/noah-isme/academic-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/academic-planner-api/pkg/storage"
)

// @title Academic Planner API
// @version 1.0.0
// @description Enrollments, periods, grades, absences and calendar for students
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled && cacheRepo != nil)

	files, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare document storage", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := jobs.NewQueue("planner", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.Retries,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	validate := validator.New()
	settings := service.NewPlannerSettings(cfg.Planner)

	users := repository.NewUserRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	disciplineRepo := repository.NewDisciplineRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	todoRepo := repository.NewTodoRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	sessionRepo := repository.NewStudySessionRepository(db)

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	registry := state.NewRegistry(service.NavigationMetricsObserver(metrics), service.NavigationCacheObserver(cacheSvc))
	navigationSvc := service.NewNavigationService(registry, enrollmentRepo, periodRepo, validate, logr)

	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, cacheSvc, validate, logr, navigationSvc.ForgetEnrollment)
	periodSvc := service.NewPeriodService(service.PeriodServiceParams{
		Periods:     periodRepo,
		Enrollments: enrollmentRepo,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Queue:       queue,
		Navigation:  navigationSvc,
		Settings:    settings,
		Validator:   validate,
		Logger:      logr,
	})
	disciplineSvc := service.NewDisciplineService(disciplineRepo, periodRepo, cacheSvc, validate, logr)
	gradeSvc := service.NewGradeService(disciplineRepo, periodRepo, enrollmentRepo, cacheSvc, settings, validate, logr)
	absenceSvc := service.NewAbsenceService(service.AbsenceServiceParams{
		Absences:    absenceRepo,
		Disciplines: disciplineRepo,
		Periods:     periodRepo,
		Enrollments: enrollmentRepo,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Settings:    settings,
		Validator:   validate,
		Logger:      logr,
	})
	calendarSvc := service.NewCalendarService(service.CalendarServiceParams{
		Events:      calendarRepo,
		Periods:     periodRepo,
		Disciplines: disciplineRepo,
		Extractor:   service.NewExtractionClient(cfg.Extraction, logr),
		Settings:    settings,
		Validator:   validate,
		Logger:      logr,
	})
	todoSvc := service.NewTodoService(todoRepo, settings, validate, logr)
	curriculumSvc := service.NewCurriculumService(curriculumRepo, enrollmentRepo, disciplineRepo, settings, validate, logr)
	sessionSvc := service.NewStudySessionService(sessionRepo, disciplineRepo, validate, logr)
	documentSvc := service.NewDocumentService(service.DocumentServiceParams{
		Documents:   documentRepo,
		Enrollments: enrollmentRepo,
		Storage:     files,
		Signer:      storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL),
		Queue:       queue,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
		Config: service.DocumentServiceConfig{
			MaxFileSize:    cfg.Documents.MaxFileSizeBytes,
			AllowedMIMEs:   cfg.Documents.AllowedMIMEs,
			APIPrefix:      cfg.APIPrefix,
			PublicBaseURL:  cfg.Documents.PublicBaseURL,
			ThumbnailWidth: cfg.Documents.ThumbnailWidth,
		},
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Enrollments: enrollmentRepo,
		Periods:     periodRepo,
		Disciplines: disciplineRepo,
		Events:      calendarRepo,
		Reminders:   calendarSvc,
		AutoCloser:  periodSvc,
		Cache:       cacheSvc,
		Settings:    settings,
		Logger:      logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:  cfg.Dashboard.CacheTTL,
			AutoClose: cfg.Planner.AutoCloseOnDashboard,
		},
	})
	transcriptSvc := service.NewTranscriptService(enrollmentRepo, periodRepo, disciplineRepo, settings, logr)

	userSvc := service.NewUserService(users, cacheSvc, validate, logr, navigationSvc.Reset)

	queue.Handle(service.JobAutoClose, periodSvc.HandleAutoCloseJob)
	queue.Handle(service.JobDocumentThumbnail, documentSvc.HandleThumbnailJob)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Users:        handler.NewUserHandler(userSvc),
		Enrollments:  handler.NewEnrollmentHandler(enrollmentSvc),
		Periods:      handler.NewPeriodHandler(periodSvc),
		Disciplines:  handler.NewDisciplineHandler(disciplineSvc, gradeSvc),
		Absences:     handler.NewAbsenceHandler(absenceSvc),
		Calendar:     handler.NewCalendarHandler(calendarSvc),
		Todos:        handler.NewTodoHandler(todoSvc),
		Curriculum:   handler.NewCurriculumHandler(curriculumSvc),
		Documents:    handler.NewDocumentHandler(documentSvc),
		StudySession: handler.NewStudySessionHandler(sessionSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Transcript:   handler.NewTranscriptHandler(transcriptSvc),
		Navigation:   handler.NewNavigationHandler(navigationSvc),
		Metrics:      metricsHandler,
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Documents.MaxFileSizeBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, middleware.JWT(authSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
