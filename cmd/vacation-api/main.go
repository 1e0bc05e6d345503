package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/shiftworks/vacation-api/api/swagger"
	"github.com/shiftworks/vacation-api/internal/handler"
	"github.com/shiftworks/vacation-api/internal/middleware"
	"github.com/shiftworks/vacation-api/internal/repository"
	"github.com/shiftworks/vacation-api/internal/service"
	"github.com/shiftworks/vacation-api/pkg/cache"
	"github.com/shiftworks/vacation-api/pkg/config"
	"github.com/shiftworks/vacation-api/pkg/database"
	"github.com/shiftworks/vacation-api/pkg/jobs"
	"github.com/shiftworks/vacation-api/pkg/locks"
	"github.com/shiftworks/vacation-api/pkg/logger"
	corsmiddleware "github.com/shiftworks/vacation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/shiftworks/vacation-api/pkg/middleware/requestid"
)

// @title Vacation Calendar & Assignment API
// @version 1.0.0
// @description Rotation calendars, seniority entitlements, absence-ceiling admission and vacation assignment for shift groups
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
		// Redis only backs the bracket cache and the run lock; both degrade
		// to in-process behaviour without it.
		logr.Sugar().Warnw("redis unavailable, using in-process fallbacks", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	employeeRepo := repository.NewEmployeeRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	rotationRepo := repository.NewRotationRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	seniorityRepo := repository.NewSeniorityRepository(db)
	programRepo := repository.NewProgramRepository(db)
	vacationRepo := repository.NewVacationRepository(db)
	ceilingRepo := repository.NewCeilingRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	requestRepo := repository.NewReprogrammingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	notifier := service.NewLoggingNotifier(logr)
	eventQueue := jobs.NewQueue("events", service.NotifyHandler(notifier), jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
		Logger:     logr,
	})
	eventQueue.Start(context.Background())
	defer eventQueue.Stop()
	eventSvc := service.NewEventService(eventQueue, logr)

	runLock := locks.NewRunLock(redisClient, cfg.Assignment.RunLockTTL)

	rotationSvc := service.NewRotationService(rotationRepo, groupRepo, calendarRepo, db, validate, logr)
	entitlementSvc := service.NewEntitlementService(employeeRepo, seniorityRepo, cacheRepo, cfg.Ceiling.BracketCacheTTL, logr)
	ceilingSvc := service.NewCeilingService(employeeRepo, vacationRepo, ceilingRepo, cfg.Ceiling.DefaultMaxPercentage, logr)
	assignmentSvc := service.NewAssignmentService(groupRepo, employeeRepo, programRepo, entitlementSvc,
		ceilingSvc, calendarRepo, vacationRepo, db, runLock, eventSvc, cfg.Assignment.BlackoutWeeks, validate, logr)
	blockSvc := service.NewBlockService(blockRepo, employeeRepo, groupRepo, programRepo, entitlementSvc,
		ceilingSvc, calendarRepo, vacationRepo, db, service.BlockDefaults{
			Capacity:      cfg.Blocks.DefaultCapacity,
			DurationHours: cfg.Blocks.DefaultDurationHours,
		}, validate, logr)
	reprogrammingSvc := service.NewReprogrammingService(requestRepo, vacationRepo, calendarRepo, groupRepo,
		programRepo, ceilingSvc, db, eventSvc, validate, logr)
	employeeSvc := service.NewEmployeeService(employeeRepo, logr)

	calendarHandler := handler.NewCalendarHandler(rotationSvc)
	employeeHandler := handler.NewEmployeeHandler(employeeSvc)
	entitlementHandler := handler.NewEntitlementHandler(entitlementSvc, ceilingSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, metricsSvc)
	blockHandler := handler.NewBlockHandler(blockSvc, metricsSvc)
	reprogrammingHandler := handler.NewReprogrammingHandler(reprogrammingSvc, metricsSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Auth(cfg.JWT.Secret))
	{
		api.POST("/calendars/generate", calendarHandler.Generate)
		api.GET("/employees", employeeHandler.List)
		api.GET("/employees/:employeeId", employeeHandler.Get)
		api.GET("/employees/:employeeId/calendar", calendarHandler.List)
		api.GET("/employees/:employeeId/vacations", reprogrammingHandler.ListVacations)
		api.GET("/employees/:employeeId/entitlement", entitlementHandler.Resolve)
		api.POST("/entitlements/brackets/refresh", entitlementHandler.RefreshBrackets)
		api.GET("/groups/:groupId/ceiling", entitlementHandler.CheckCeiling)
		api.POST("/assignments/run", assignmentHandler.Run)
		api.GET("/blocks", blockHandler.List)
		api.POST("/blocks/generate", blockHandler.Generate)
		api.POST("/blocks/change", blockHandler.ChangeBlock)
		api.POST("/blocks/reserve", blockHandler.ReserveDates)
		api.POST("/reprogramming", reprogrammingHandler.Submit)
		api.GET("/reprogramming/escalations", reprogrammingHandler.ListEscalations)
		api.POST("/reprogramming/:requestId/decision", reprogrammingHandler.Decide)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
