package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/labwatch/labwatch-api/api/swagger"
	"github.com/labwatch/labwatch-api/internal/handler"
	internalmiddleware "github.com/labwatch/labwatch-api/internal/middleware"
	"github.com/labwatch/labwatch-api/internal/models"
	"github.com/labwatch/labwatch-api/internal/repository"
	"github.com/labwatch/labwatch-api/internal/service"
	"github.com/labwatch/labwatch-api/internal/taxonomy"
	"github.com/labwatch/labwatch-api/pkg/cache"
	"github.com/labwatch/labwatch-api/pkg/config"
	"github.com/labwatch/labwatch-api/pkg/database"
	"github.com/labwatch/labwatch-api/pkg/logger"
	corsmiddleware "github.com/labwatch/labwatch-api/pkg/middleware/cors"
	reqidmiddleware "github.com/labwatch/labwatch-api/pkg/middleware/requestid"
)

// @title Labwatch API
// @version 1.0.0
// @description Audit log dashboard backend for the laboratory information system
// @BasePath /api
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	// Redis only backs the user directory cache; the server runs without it.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, directory cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	order := taxonomy.New(cfg.Logs.ActionOrder)
	validate := validator.New()

	logRepo := repository.NewLogRepository(db, order, time.Now)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	logService := service.NewLogService(logRepo, order, logr)
	userService := service.NewUserService(userRepo, cacheRepo, cfg.Users.CacheTTL, logr)
	metricsService := service.NewMetricsService()

	router := newRouter(cfg, logr, metricsService, authService, logService, userService)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := router.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func newRouter(
	cfg *config.Config,
	logr *zap.Logger,
	metricsService *service.MetricsService,
	authService *service.AuthService,
	logService *service.LogService,
	userService *service.UserService,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	metricsHandler := handler.NewMetricsHandler(metricsService)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	secure := cfg.Env == config.EnvProduction
	authHandler := handler.NewAuthHandler(authService, cfg.JWT.CookieName, secure)
	logHandler := handler.NewLogHandler(logService, models.FilterLimits{
		DefaultLimit: cfg.Logs.DefaultLimit,
		MaxLimit:     cfg.Logs.MaxLimit,
	}, nil, nil)
	userHandler := handler.NewUserHandler(userService)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	authed := api.Group("", internalmiddleware.Auth(authService, cfg.JWT.CookieName))
	authed.GET("/auth/me", authHandler.Me)

	logs := authed.Group("/logs")
	if cfg.Logs.Record {
		logs.Use(internalmiddleware.RequestLog(logService, "listTransactions"))
	}
	logs.GET("", logHandler.List)
	logs.GET("/export", logHandler.Export)
	logs.GET("/actions", logHandler.Actions)

	authed.GET("/users", internalmiddleware.RequireAdmin(), userHandler.List)

	return r
}
