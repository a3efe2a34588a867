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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable/api/swagger"
	"github.com/noah-isme/sma-timetable/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/cache"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
	"github.com/noah-isme/sma-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Conflict detection, validation, bulk scheduling and repair for class and exam timetables
// @BasePath /
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

	ctx := context.Background()
	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var (
		db       *sqlx.DB
		sessions *repository.SessionRepository
		rooms    *repository.RoomRepository
		slots    *repository.TimeSlotRepository
	)
	if cfg.Timetable.PersistenceEnabled {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer db.Close()
		sessions = repository.NewSessionRepository(db)
		rooms = repository.NewRoomRepository(db)
		slots = repository.NewTimeSlotRepository(db)
		checks["postgres"] = db.PingContext
	}

	var store service.ProposalStore = service.NewMemoryProposalStore(cfg.Timetable.ProposalTTL)
	if cfg.Timetable.ProposalCacheEnabled {
		var client *redis.Client
		client, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		proposals := repository.NewProposalCacheRepository(client, logr)
		defer proposals.Close() //nolint:errcheck
		store = service.NewRedisProposalStore(proposals, cfg.Timetable.ProposalTTL, metrics, logr)
		checks["redis"] = cache.ReadinessCheck(client)
	}

	timetableSvc := newTimetableService(sessions, rooms, slots, db, store, metrics, logr, cfg.Timetable)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/metrics/snapshot", "/health", "/ready"))
	r.Use(corsmiddleware.New(cfg.CORS))

	ops := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	r.GET("/metrics/snapshot", ops.Snapshot)

	handler.NewTimetableHandler(timetableSvc).Register(r.Group(cfg.APIPrefix))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.Bool("persistence", cfg.Timetable.PersistenceEnabled),
			zap.Bool("proposal_cache", cfg.Timetable.ProposalCacheEnabled),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	case sig := <-signals:
		logr.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newTimetableService converts typed-nil repositories into nil interfaces so the
// service sees persistence as disabled when Postgres is not configured.
func newTimetableService(
	sessions *repository.SessionRepository,
	rooms *repository.RoomRepository,
	slots *repository.TimeSlotRepository,
	db *sqlx.DB,
	store service.ProposalStore,
	metrics *service.MetricsService,
	logr *zap.Logger,
	cfg config.TimetableConfig,
) *service.TimetableService {
	if db == nil {
		return service.NewTimetableService(nil, nil, nil, nil, store, metrics, validator.New(), logr, cfg)
	}
	return service.NewTimetableService(sessions, rooms, slots, db, store, metrics, validator.New(), logr, cfg)
}
