package app

import (
	"context"
	"fmt"

	"github.com/yungbote/aaos-backend/internal/data/db"
	server "github.com/yungbote/aaos-backend/internal/http"
	"github.com/yungbote/aaos-backend/internal/observability"
	"github.com/yungbote/aaos-backend/internal/platform/clock"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Repos    Repos
	Clients  Clients
	Services Services
	Server   *server.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := NewWithConfig(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

// NewWithConfig wires the app from an already loaded config.
func NewWithConfig(cfg Config, log *logger.Logger) (*App, error) {
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Otel.Endpoint,
		Insecure:    cfg.Otel.Insecure,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		SampleRatio: cfg.Otel.SampleRatio,
	})

	dbSvc, err := db.NewService(cfg.DB, log)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbSvc.DB()); err != nil {
		_ = dbSvc.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("migrate: %w", err)
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbSvc.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("init clients: %w", err)
	}

	reposet := wireRepos(dbSvc.DB(), log)
	svcs, err := wireServices(dbSvc.DB(), log, reposet, clients, clock.System())
	if err != nil {
		clients.Close()
		_ = dbSvc.Close()
		_ = otelShutdown(context.Background())
		return nil, err
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbSvc,
		Repos:        reposet,
		Clients:      clients,
		Services:     svcs,
		Server:       server.NewServer(wireRouter(log, cfg, svcs)),
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	startAuditForwarder(ctx, a.Log, a.Clients.AuditBus)
	a.Log.Info("Server listening", "addr", a.Cfg.Addr(), "driver", a.DB.Driver())
	return a.Server.Run(ctx, a.Cfg.Addr())
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.Clients.Close()
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("close database", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	a.Log.Sync()
}
