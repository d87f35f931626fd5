package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kanban/internal/app"
	"kanban/internal/cache"
	"kanban/internal/config"
	"kanban/internal/features/maintenance"
	"kanban/internal/features/ordering"
	"kanban/internal/storage/backend"
	env_utils "kanban/internal/util/env"
	"kanban/internal/util/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/valkey-io/valkey-go"
)

// @title Kanban Backend API
// @version 1.0
// @description API for projects, boards, columns and tasks

// @host localhost:4005
// @BasePath /api/v1
// @schemes http
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := newServeCmd()

	rootCmd := &cobra.Command{
		Use:           "kanban",
		Short:         "Kanban board backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}

	rootCmd.AddCommand(serveCmd, newMigrateCmd(), newRenumberCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.GetLogger()
			env := config.GetEnv()
			config.StartListeningForShutdownSignal()

			ctx := context.Background()

			store, err := backend.Open(ctx, env, log)
			if err != nil {
				log.Error("Failed to open storage", "error", err)
				return err
			}

			valkeyClient, err := connectValkey(ctx, env, log)
			if err != nil {
				_ = store.Close()
				return err
			}

			application := app.New(ctx, env, store, valkeyClient, log)
			defer func() {
				if err := application.Close(); err != nil {
					log.Error("Failed to close application", "error", err)
				}
			}()

			gin.SetMode(gin.ReleaseMode)
			ginApp := gin.Default()

			ginApp.Use(gzip.Gzip(
				gzip.DefaultCompression,
				// event streams must not be buffered by the compressor
				gzip.WithExcludedPathsRegexs([]string{`.*/events$`}),
			))

			enableCors(ginApp, env)
			application.RegisterRoutes(ginApp.Group("/api/v1"))
			application.StartBackgroundTasks()

			startServerWithGracefulShutdown(log, ginApp, env, application.Bus.Close)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the relational schema",
		Long: `Create or upgrade the relational schema, including the one-time
backfill of column and task positions for databases created before
positions existed. File, s3 and memory storage have no schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.GetLogger()
			env := config.GetEnv()

			switch env.StorageBackend {
			case config.StorageBackendPostgres, config.StorageBackendSqlite:
			default:
				log.Info("Storage backend has no schema to migrate", "storage", env.StorageBackend)
				return nil
			}

			store, err := backend.Open(cmd.Context(), env, log)
			if err != nil {
				log.Error("Failed to run migrations", "error", err)
				return err
			}

			log.Info("Database migrations completed successfully")
			return store.Close()
		},
	}
}

func newRenumberCmd() *cobra.Command {
	var boardFlag string

	cmd := &cobra.Command{
		Use:   "renumber",
		Short: "Renumber column and task positions densely",
		Long: `Renumber columns of a board and tasks of each column to 0..n-1,
keeping their current order. Without --board every board is renumbered.

Examples:
  kanban renumber
  kanban renumber --board 6f1c1f7e-5b0a-4c55-9a57-0d7c2b0e4a11`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.GetLogger()
			env := config.GetEnv()

			var boardID *uuid.UUID
			if boardFlag != "" {
				parsed, err := uuid.Parse(boardFlag)
				if err != nil {
					return fmt.Errorf("invalid --board: %w", err)
				}
				boardID = &parsed
			}

			store, err := backend.Open(cmd.Context(), env, log)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			changed, err := maintenance.Renumber(cmd.Context(), store, ordering.NewEngine(store, log), boardID, log)
			if err != nil {
				return err
			}

			fmt.Printf("Renumbered %d record(s)\n", changed)
			return nil
		},
	}

	cmd.Flags().StringVar(&boardFlag, "board", "", "board id to renumber (default: all boards)")

	return cmd
}

// connectValkey returns nil when valkey is not configured. A configured but
// unreachable valkey is a startup error.
func connectValkey(ctx context.Context, env config.EnvVariables, log *slog.Logger) (valkey.Client, error) {
	if !env.IsValkeyEnabled() {
		log.Info("Valkey is not configured, board events stay in process")
		return nil, nil
	}

	client, err := cache.New(env)
	if err != nil {
		log.Error("Failed to connect to valkey", "error", err)
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := cache.Ping(pingCtx, client); err != nil {
		client.Close()
		log.Error("Valkey ping failed", "error", err)
		return nil, err
	}

	log.Info("Valkey connection test successful")
	return client, nil
}

// onShutdown runs as soon as shutdown starts. It must end long-lived
// requests, Shutdown itself never cancels them.
func startServerWithGracefulShutdown(
	log *slog.Logger,
	app *gin.Engine,
	env config.EnvVariables,
	onShutdown func(),
) {
	srv := &http.Server{
		Addr:    env.HttpAddr,
		Handler: app,
	}
	srv.RegisterOnShutdown(onShutdown)

	go func() {
		log.Info("Server started", "addr", env.HttpAddr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen:", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	// closing the bus ends open event streams
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown:", "error", err)
	}

	log.Info("Server gracefully stopped")
}

func enableCors(ginApp *gin.Engine, env config.EnvVariables) {
	if env.EnvMode != env_utils.EnvModeDevelopment {
		return
	}

	ginApp.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Length",
			"Content-Type",
			"Accept",
			"Accept-Language",
			"Accept-Encoding",
			"Cache-Control",
			"Last-Event-ID",
		},
		ExposeHeaders: []string{"X-RateLimit-Remaining", "Retry-After"},
	}))
}
