package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/coaching-sessions/internal/audit"
	"github.com/BruksfildServices01/coaching-sessions/internal/config"
	dbpkg "github.com/BruksfildServices01/coaching-sessions/internal/db"
	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/handlers"
	"github.com/BruksfildServices01/coaching-sessions/internal/infra/cache"
	infraRepo "github.com/BruksfildServices01/coaching-sessions/internal/infra/repository"
	"github.com/BruksfildServices01/coaching-sessions/internal/infra/video"
	"github.com/BruksfildServices01/coaching-sessions/internal/routes"
	"github.com/BruksfildServices01/coaching-sessions/internal/timezone"
	ucsession "github.com/BruksfildServices01/coaching-sessions/internal/usecase/session"
)

// App holds the process-wide singletons shared by the server and the CLI.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Repo     domain.Repository
	Audit    audit.Store
	Events   *audit.Dispatcher
	Cache    *cache.RedisRoomCache
	Provider domain.VideoProvider
	Calendar ucsession.Calendar
}

// New opens the configured store and optional cache. The caller owns Close.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Calendar: ucsession.NewCalendar(timezone.Location(cfg.Timezone), nil),
	}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		a.Repo = infraRepo.NewMemorySessionRepository()
		a.Audit = audit.NewRecorder()
	default:
		db, err := dbpkg.NewDB(cfg, logger)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.Repo = infraRepo.NewSessionGormRepository(db)
		a.Audit = audit.New(db)
	}

	if cfg.RedisURL != "" {
		c, err := cache.Open(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.Cache = c
	}

	a.Provider = video.NewDailyClient(video.Config{
		APIURL:  cfg.DailyAPIURL,
		APIKey:  cfg.DailyAPIKey,
		Domain:  cfg.DailyDomain,
		Timeout: cfg.VideoTimeout,
	}, &http.Client{Timeout: cfg.VideoTimeout})

	a.Events = audit.NewDispatcher(a.Audit, logger)
	return a, nil
}

// Migrate is a no-op for the in-memory store.
func (a *App) Migrate() error {
	if a.DB == nil {
		return nil
	}
	return dbpkg.Migrate(a.DB, a.Logger)
}

func (a *App) roomCache() domain.RoomCache {
	if a.Cache == nil {
		return nil
	}
	return a.Cache
}

func (a *App) healthChecks() map[string]handlers.Check {
	checks := map[string]handlers.Check{}
	if a.DB != nil {
		checks["database"] = func(ctx context.Context) error { return dbpkg.Ping(ctx, a.DB) }
	}
	if a.Cache != nil {
		checks["redis"] = a.Cache.Ping
	}
	return checks
}

func (a *App) RouteDeps() routes.Deps {
	return routes.Deps{
		Config:     a.Config,
		Logger:     a.Logger,
		Repo:       a.Repo,
		AuditStore: a.Audit,
		Audit:      a.Events,
		Provider:   a.Provider,
		Cache:      a.roomCache(),
		Calendar:   a.Calendar,
		Health:     a.healthChecks(),
	}
}

func (a *App) Reminders() *ucsession.ReminderScheduler {
	return ucsession.NewReminderScheduler(a.Repo, a.Events, a.Calendar, a.Logger)
}

func (a *App) Admission() *ucsession.GetAdmission {
	return ucsession.NewGetAdmission(a.Repo, a.Calendar)
}

// Close drains pending audit events and releases connections.
func (a *App) Close() {
	a.Events.Close()

	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn("closing redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.Logger.Sync()
}
