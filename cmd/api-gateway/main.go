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

	_ "github.com/noah-isme/vaccination-tracker-api/api/swagger"
	"github.com/noah-isme/vaccination-tracker-api/internal/handler"
	"github.com/noah-isme/vaccination-tracker-api/internal/middleware"
	"github.com/noah-isme/vaccination-tracker-api/internal/repository"
	"github.com/noah-isme/vaccination-tracker-api/internal/service"
	"github.com/noah-isme/vaccination-tracker-api/pkg/cache"
	"github.com/noah-isme/vaccination-tracker-api/pkg/config"
	"github.com/noah-isme/vaccination-tracker-api/pkg/database"
	"github.com/noah-isme/vaccination-tracker-api/pkg/export"
	"github.com/noah-isme/vaccination-tracker-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/vaccination-tracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/vaccination-tracker-api/pkg/middleware/requestid"
)

// @title Vaccination Tracker API
// @version 1.0.0
// @description School immunization status and coverage analytics
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]handler.Pinger{"postgres": db}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			redisRepo := repository.NewCacheRepository(client, "vaccination-tracker")
			cacheRepo = redisRepo
			checks["redis"] = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	validate := validator.New()
	clock := service.NewClock(cfg.Location())

	schoolRepo := repository.NewSchoolRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	vaccineRepo := repository.NewVaccineRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	vaccinationRepo := repository.NewVaccinationRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	immunizationSvc := service.NewImmunizationService(studentRepo, vaccinationRepo, scheduleRepo, metricsSvc, logr, clock)
	studentSvc := service.NewStudentService(studentRepo, schoolRepo, immunizationSvc, auditRepo, cacheSvc, validate, logr, clock)
	vaccinationSvc := service.NewVaccinationService(vaccinationRepo, studentRepo, vaccineRepo, auditRepo, cacheSvc, validate, logr, clock)
	scheduleSvc := service.NewScheduleService(scheduleRepo, vaccineRepo, auditRepo, cacheSvc, validate, logr)
	catalogSvc := service.NewCatalogService(schoolRepo, vaccineRepo, auditRepo, cacheSvc, validate, logr)
	preferenceSvc := service.NewPreferenceService(preferenceRepo, auditRepo, cacheSvc, logr)
	dashboardSvc := service.NewDashboardService(immunizationSvc, preferenceSvc, cacheSvc, metricsSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(immunizationSvc, auditRepo, cfg.Export.MaxRows, logr, export.NewCSVExporter(), export.NewPDFExporter())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks, logr)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), authSvc, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Catalog:      handler.NewCatalogHandler(catalogSvc),
		Students:     handler.NewStudentHandler(studentSvc, immunizationSvc),
		Vaccinations: handler.NewVaccinationHandler(vaccinationSvc),
		Schedules:    handler.NewScheduleHandler(scheduleSvc),
		Dashboards:   handler.NewDashboardHandler(dashboardSvc),
		Preferences:  handler.NewPreferenceHandler(preferenceSvc),
		Exports:      handler.NewExportHandler(exportSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "timezone", cfg.Location().String())
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
