package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/cronoplan/cronoplan-api/api/swagger"
	"github.com/cronoplan/cronoplan-api/internal/handler"
	"github.com/cronoplan/cronoplan-api/internal/middleware"
	"github.com/cronoplan/cronoplan-api/internal/repository"
	"github.com/cronoplan/cronoplan-api/internal/service"
	"github.com/cronoplan/cronoplan-api/pkg/cache"
	"github.com/cronoplan/cronoplan-api/pkg/config"
	"github.com/cronoplan/cronoplan-api/pkg/database"
	"github.com/cronoplan/cronoplan-api/pkg/export"
	"github.com/cronoplan/cronoplan-api/pkg/logger"
	corsmiddleware "github.com/cronoplan/cronoplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cronoplan/cronoplan-api/pkg/middleware/requestid"
)

// @title Cronoplan API
// @version 1.0.0
// @description Personalized study-calendar generation service
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, plan cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	catalog := repository.NewLessonCatalogRepository(db)
	plans := repository.NewStudyPlanRepository(db)
	planCache := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	planSvc := service.NewPlanService(catalog, students, plans, db, planCache, metricsSvc, validate, logr, service.PlanServiceConfig{
		CacheTTL:     cfg.Planner.PlanCacheTTL,
		MaxVacations: cfg.Planner.MaxVacations,
		MaxPlanLabel: cfg.Planner.MaxPlanLabel,
	})
	exportSvc := service.NewExportService(plans, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	planHandler := handler.NewPlanHandler(planSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.POST("/study-plans/generate", planHandler.Generate)
	protected.GET("/study-plans/current", planHandler.Current)
	protected.DELETE("/study-plans/current", planHandler.Delete)
	if cfg.Planner.ExportEnabled {
		protected.GET("/study-plans/current/export", planHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
