package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/edubot-backend/internal/data/db"
	edubothttp "github.com/yungbote/edubot-backend/internal/http"
	"github.com/yungbote/edubot-backend/internal/observability"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	dbService    *db.Service
	server       *edubothttp.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if logMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	dbService, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(theDB, log, serviceset)
	middleware := wireMiddleware(log, serviceset, metrics)
	router := wireRouter(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.server = edubothttp.NewServer(a.Router, edubothttp.ServerConfig{
		Addr:         ":" + a.Cfg.Port,
		WriteTimeout: a.Cfg.AITimeout*2 + 30*time.Second,
	})

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Server listening", "port", a.Cfg.Port)
		errCh <- a.server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
