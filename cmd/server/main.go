package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"

	"inkwell/docs"
	"inkwell/internal/auth"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/handler"
	"inkwell/internal/logger"
	"inkwell/internal/middleware"
	"inkwell/internal/repository"
	"inkwell/internal/router"
	"inkwell/internal/service"
	"inkwell/internal/storage"
)

// @title Inkwell Blog API
// @version 1.0
// @description Blogging API with JWT authentication, owner scoped posts and admin moderation.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, dsn(cfg))
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB, cfg.ResetDB, log); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("redis unavailable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("image storage init: %w", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	blogRepo := repository.NewBlogRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	tokenStore := auth.NewTokenStore(cacheClient)
	hasher := auth.NewPasswordHasher(cfg.HashConcurrency, auth.BcryptCost)

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient)
	authService := service.NewAuthService(userRepo, userService, jwtService, tokenStore, hasher, images, log)
	blogService := service.NewBlogService(blogRepo, images, log)
	adminService := service.NewAdminService(userRepo, blogRepo, userService, images, log)

	// Initialize handlers
	uploads := handler.NewImageReader(cfg.MaxUploadBytes)
	authHandler := handler.NewAuthHandler(authService, log)
	userHandler := handler.NewUserHandler(authService, uploads, log)
	blogHandler := handler.NewBlogHandler(blogService, uploads, log)
	adminHandler := handler.NewAdminHandler(adminService, uploads, log)

	gate := middleware.NewAuthenticator(jwtService, tokenStore, userService, log)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, log, gate, authHandler, userHandler, blogHandler, adminHandler)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server listening", "addr", addr, "swagger", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

func dsn(cfg *config.Config) string {
	if cfg.DBDriver == "postgres" {
		return cfg.PostgresDSN
	}
	return cfg.MySQLDSN
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.StorageDriver != "s3" {
		return storage.NewLocalStore(cfg.UploadDir, "/uploads")
	}
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
