// Package app wires storage, the ordering engine, the cascade coordinator and
// every feature into one HTTP surface.
package app

import (
	"context"
	"log/slog"
	"path/filepath"

	"kanban/internal/cache"
	"kanban/internal/config"
	"kanban/internal/features/boards"
	"kanban/internal/features/cascade"
	"kanban/internal/features/columns"
	"kanban/internal/features/events"
	"kanban/internal/features/maintenance"
	"kanban/internal/features/members"
	"kanban/internal/features/ordering"
	"kanban/internal/features/projects"
	system_healthcheck "kanban/internal/features/system/healthcheck"
	"kanban/internal/features/tasks"
	"kanban/internal/features/users"
	"kanban/internal/storage"
	cache_utils "kanban/internal/util/cache"
	"kanban/internal/util/rate_limit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const snapshotCachePrefix = "kanban:snapshot:"

type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type App struct {
	Store       storage.Store
	Bus         *events.Bus
	Publisher   events.Publisher
	Engine      *ordering.Engine
	Coordinator *cascade.Coordinator
	Sweeper     *maintenance.SweeperBackgroundService
	RateLimiter rate_limit.RateLimiter

	controllers   []routeRegistrar
	valkey        valkey.Client
	stopPublisher func()
	logger        *slog.Logger
}

// New builds the application over an opened store. valkeyClient may be nil,
// in which case events stay in process and rate limits are per instance.
func New(
	ctx context.Context,
	env config.EnvVariables,
	store storage.Store,
	valkeyClient valkey.Client,
	logger *slog.Logger,
) *App {
	bus := events.NewBus(logger)
	publisher, stopPublisher := events.NewPublisher(ctx, env, valkeyClient, bus, logger)

	engine := ordering.NewEngine(store, logger)
	coordinator := cascade.NewCoordinator(store, env.ColumnDeletePolicy, logger)

	boardService := boards.NewBoardService(store, coordinator, publisher, logger)

	var rateLimiter rate_limit.RateLimiter = rate_limit.NewLocalRateLimiter(env.RateLimitRPS, env.RateLimitBurst)
	if valkeyClient != nil {
		boardService.WithSnapshotCache(cache_utils.NewCacheUtil[boards.BoardSnapshot](valkeyClient, snapshotCachePrefix))
		rateLimiter = rate_limit.NewValkeyRateLimiter(valkeyClient, env.RateLimitRPS, env.RateLimitBurst)
	}

	bus.OnBoardChanged(func(boardID uuid.UUID) {
		boardService.InvalidateSnapshot(context.Background(), boardID)
	})

	app := &App{
		Store:         store,
		Bus:           bus,
		Publisher:     publisher,
		Engine:        engine,
		Coordinator:   coordinator,
		Sweeper:       maintenance.NewSweeperBackgroundService(store, engine, publisher, env.SweepInterval, logger),
		RateLimiter:   rateLimiter,
		valkey:        valkeyClient,
		stopPublisher: stopPublisher,
		logger:        logger,
	}

	healthcheckService := system_healthcheck.NewHealthcheckService(store, diskPath(env), logger)
	if valkeyClient != nil {
		healthcheckService.WithCachePing(func(ctx context.Context) error {
			return cache.Ping(ctx, valkeyClient)
		})
	}

	app.controllers = []routeRegistrar{
		users.NewUserController(users.NewUserService(store, coordinator, logger)),
		projects.NewProjectController(projects.NewProjectService(store, coordinator, publisher, logger)),
		members.NewMemberController(members.NewMemberService(store, logger)),
		boards.NewBoardController(boardService),
		columns.NewColumnController(columns.NewColumnService(store, engine, coordinator, publisher, logger)),
		tasks.NewTaskController(tasks.NewTaskService(store, engine, publisher, logger)),
		events.NewEventsController(bus, store.Boards()),
		system_healthcheck.NewHealthcheckController(healthcheckService),
	}

	return app
}

// RegisterRoutes mounts every feature below router. Mutating routes are rate
// limited per client IP.
func (a *App) RegisterRoutes(router *gin.RouterGroup) {
	router.Use(rate_limit.Middleware(a.RateLimiter, a.logger))

	for _, controller := range a.controllers {
		controller.RegisterRoutes(router)
	}
}

func (a *App) StartBackgroundTasks() {
	a.logger.Info("Preparing to run background tasks...")

	a.Sweeper.StartWorkers()

	a.logger.Info("Background tasks started successfully")
}

// Close stops background work first, then releases valkey and the store.
func (a *App) Close() error {
	a.Sweeper.Stop()
	a.stopPublisher()

	if a.valkey != nil {
		a.valkey.Close()
	}

	return a.Store.Close()
}

// diskPath is the directory whose free space the health check reports.
func diskPath(env config.EnvVariables) string {
	switch env.StorageBackend {
	case config.StorageBackendFile:
		return env.DataDir
	case config.StorageBackendSqlite:
		return filepath.Dir(env.SqlitePath)
	default:
		return ""
	}
}
