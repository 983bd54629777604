package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/hansard-backend/internal/data/db"
	"github.com/yungbote/hansard-backend/internal/modules/debates/steps"
	"github.com/yungbote/hansard-backend/internal/observability"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

type App struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Cfg     Config
	Repos   Repos
	Clients Clients
	Runner  *steps.Runner

	otelShutdown func(context.Context) error
}

type Options struct {
	// NeedOpenAI is false when a run neither analyses nor indexes.
	NeedOpenAI bool
}

func New(opts Options) (*App, error) {
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

	shutdown := observability.InitOTel(context.Background(), log, cfg.Otel)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	theDB := pg.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	if err := db.EnsureIndexes(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres indexes: %w", err)
	}

	reposet := wireRepos(theDB, log)

	clients, err := wireClients(log, cfg, opts.NeedOpenAI)
	if err != nil {
		log.Sync()
		return nil, err
	}

	runner := wirePipeline(theDB, log, cfg, clients, reposet)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Runner:       runner,
		otelShutdown: shutdown,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Clients.RunBus != nil {
		_ = a.Clients.RunBus.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
