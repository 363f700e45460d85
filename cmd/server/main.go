package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gatehouse/identity-system/internal/api"
	"github.com/gatehouse/identity-system/internal/core/service"
	"github.com/gatehouse/identity-system/internal/infrastructure/config"
	mongostore "github.com/gatehouse/identity-system/internal/infrastructure/db/mongo"
	redisstore "github.com/gatehouse/identity-system/internal/infrastructure/db/redis"
	"github.com/gatehouse/identity-system/internal/infrastructure/queue"
	"github.com/gatehouse/identity-system/pkg/logger"
)

func main() {
	// Local development convenience; production relies on real env vars.
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx := context.Background()

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	if err := mongostore.EnsureUserIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("user index setup failed")
	}
	if err := mongostore.EnsureRoleIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("role index setup failed")
	}
	if err := mongostore.EnsureAuditIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("audit index setup failed")
	}

	userRepo := mongostore.NewUserRepository(db)

	// The "user" and "superuser" roles must exist before the first signup.
	roleService := service.NewRoleService(mongostore.NewRoleRepository(db), userRepo, log)
	if err := roleService.EnsureSystemRoles(ctx); err != nil {
		log.Fatal().Err(err).Msg("system role setup failed")
	}

	// Audit writes happen off the request path; workers drain until shutdown.
	auditService := service.NewAuditService(userRepo, mongostore.NewAuditRepository(db), log)
	dispatcher := queue.NewDispatcher(0, auditService, log)
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()
	dispatcher.Start(dispatcherCtx)

	e := api.NewRouter(cfg, db, rdb, dispatcher, auditService, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
}
