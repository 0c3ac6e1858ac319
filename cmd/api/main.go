package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studioflow/pms-api/api/swagger"
	"github.com/studioflow/pms-api/internal/handler"
	"github.com/studioflow/pms-api/internal/middleware"
	"github.com/studioflow/pms-api/internal/models"
	"github.com/studioflow/pms-api/internal/repository"
	"github.com/studioflow/pms-api/internal/service"
	"github.com/studioflow/pms-api/pkg/cache"
	"github.com/studioflow/pms-api/pkg/config"
	"github.com/studioflow/pms-api/pkg/database"
	"github.com/studioflow/pms-api/pkg/logger"
	corsmiddleware "github.com/studioflow/pms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studioflow/pms-api/pkg/middleware/requestid"
	"github.com/studioflow/pms-api/pkg/storage"
)

// @title StudioFlow PMS API
// @version 1.0.0
// @description Dance studio management: roster, courses, enrollments, attendance and payment reconciliation
// @BasePath /api/pms
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	location, err := time.LoadLocation(cfg.Billing.Timezone)
	if err != nil {
		logr.Sugar().Warnw("unknown billing timezone, falling back to UTC", "timezone", cfg.Billing.Timezone)
		location = time.UTC
	}

	metricsSvc := service.NewMetricsService()

	// The API keeps serving without redis; composed views just recompute.
	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Billing.CourseStatusCacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metricsSvc, cfg.Billing.CourseStatusCacheTTL, logr, true)
	}

	var photos service.PhotoBackend
	if cfg.Storage.Enabled {
		store, err := storage.NewPhotoStore(context.Background(), cfg.Storage)
		if err != nil {
			logr.Sugar().Warnw("photo storage unavailable, photo endpoints disabled", "error", err)
		} else {
			photos = store
		}
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, photos, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, cacheSvc, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, cacheSvc, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, courseRepo, cacheSvc, cfg.Billing.CalendarMemoTTL, validate, logr)
	courseStatusSvc := service.NewCourseStatusService(courseRepo, enrollmentRepo, paymentRepo, studentRepo, attendanceSvc, cacheSvc, cfg.Billing.CourseStatusCacheTTL, cfg.Billing.HorizonMonths, location, logr)
	portalSvc := service.NewPortalService(studentRepo, enrollmentRepo, paymentRepo, courseRepo, attendanceSvc, photos, cacheSvc, cfg.Billing.CourseStatusCacheTTL, cfg.Billing.HorizonMonths, location, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, courseStatusSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	portalHandler := handler.NewPortalHandler(portalSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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

	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/ops/metrics", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Tenant())

	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/auth/register", middleware.RequireRole(models.RoleAdmin), authHandler.Register)

	protected.GET("/students", studentHandler.List)
	protected.POST("/students", studentHandler.Create)
	protected.GET("/students/:id", studentHandler.Get)
	protected.PUT("/students/:id", studentHandler.Update)
	protected.DELETE("/students/:id", middleware.RequireRole(models.RoleAdmin), studentHandler.Delete)
	protected.POST("/students/:id/photo", studentHandler.UploadPhoto)
	protected.GET("/students/:id/photo", studentHandler.Photo)
	protected.GET("/students/:id/portal", portalHandler.Get)
	protected.GET("/students/:id/attendance_calendar", attendanceHandler.Calendar)

	protected.GET("/courses", courseHandler.List)
	protected.POST("/courses", courseHandler.Create)
	protected.GET("/courses/:id", courseHandler.Get)
	protected.PUT("/courses/:id", courseHandler.Update)
	protected.DELETE("/courses/:id", middleware.RequireRole(models.RoleAdmin), courseHandler.Delete)
	protected.GET("/courses/:id/status", courseHandler.Status)
	protected.GET("/course_status", courseHandler.StatusBoard)

	protected.GET("/enrollments", enrollmentHandler.List)
	protected.POST("/enrollments", enrollmentHandler.Create)
	protected.GET("/enrollments/:id", enrollmentHandler.Get)
	protected.PUT("/enrollments/:id", enrollmentHandler.Update)
	protected.DELETE("/enrollments/:id", middleware.RequireRole(models.RoleAdmin), enrollmentHandler.Delete)
	protected.GET("/enrollments/:id/plan", enrollmentHandler.Plan)
	protected.POST("/enrollments/:id/renew", enrollmentHandler.Renew)

	protected.GET("/payments", paymentHandler.List)
	protected.POST("/payments", paymentHandler.Create)
	protected.GET("/payments/:id", paymentHandler.Get)
	protected.PUT("/payments/:id", paymentHandler.Update)
	protected.DELETE("/payments/:id", middleware.RequireRole(models.RoleAdmin), paymentHandler.Delete)
	protected.POST("/payments/quote", paymentHandler.Quote)
	protected.GET("/payments/by_teacher", paymentHandler.ByTeacher)
	protected.GET("/payments/export", paymentHandler.Export)

	protected.POST("/attendance", attendanceHandler.Mark)
	protected.DELETE("/attendance", attendanceHandler.Unmark)

	protected.GET("/teachers", teacherHandler.List)
	protected.POST("/teachers", middleware.RequireRole(models.RoleAdmin), teacherHandler.Create)
	protected.GET("/teachers/:id", teacherHandler.Get)
	protected.GET("/rooms", teacherHandler.Rooms)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
