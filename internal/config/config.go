package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	env_utils "kanban/internal/util/env"
	"kanban/internal/util/logger"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var log = logger.GetLogger()

type StorageBackend string

const (
	StorageBackendPostgres StorageBackend = "postgres"
	StorageBackendSqlite   StorageBackend = "sqlite"
	StorageBackendFile     StorageBackend = "file"
	StorageBackendS3       StorageBackend = "s3"
	StorageBackendMemory   StorageBackend = "memory"
)

func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageBackendPostgres, StorageBackendSqlite, StorageBackendFile, StorageBackendS3, StorageBackendMemory:
		return true
	default:
		return false
	}
}

type ColumnDeletePolicy string

const (
	// ColumnDeletePolicyBlock refuses to delete a column that still owns tasks.
	ColumnDeletePolicyBlock ColumnDeletePolicy = "block"
	// ColumnDeletePolicyCascade deletes the column's tasks before the column.
	ColumnDeletePolicyCascade ColumnDeletePolicy = "cascade"
)

func (p ColumnDeletePolicy) IsValid() bool {
	return p == ColumnDeletePolicyBlock || p == ColumnDeletePolicyCascade
}

type EnvVariables struct {
	IsTesting       bool
	EnvMode         env_utils.EnvMode `env:"ENV_MODE"             env-default:"development"`
	BackendRootPath string            `env:"BACKEND_ROOT_PATH"`
	HttpAddr        string            `env:"HTTP_ADDR"            env-default:":4005"`

	// storage
	StorageBackend     StorageBackend     `env:"STORAGE_BACKEND"      env-default:"file"`
	DatabaseDsn        string             `env:"DATABASE_DSN"`
	SqlitePath         string             `env:"SQLITE_PATH"          env-default:"kanban.db"`
	DataDir            string             `env:"DATA_DIR"             env-default:"data"`
	S3Bucket           string             `env:"S3_BUCKET"`
	S3Region           string             `env:"S3_REGION"            env-default:"us-east-1"`
	S3Prefix           string             `env:"S3_PREFIX"            env-default:"kanban"`
	S3Endpoint         string             `env:"S3_ENDPOINT"`
	ColumnDeletePolicy ColumnDeletePolicy `env:"COLUMN_DELETE_POLICY" env-default:"block"`

	// cache (optional, enables cross-instance board events)
	ValkeyHost     string `env:"VALKEY_HOST"`
	ValkeyPort     string `env:"VALKEY_PORT"     env-default:"6379"`
	ValkeyUsername string `env:"VALKEY_USERNAME"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`
	ValkeyIsSsl    bool   `env:"VALKEY_IS_SSL"   env-default:"false"`

	// limits and background work
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS"   env-default:"20"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" env-default:"40"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL"   env-default:"10m"`
}

func (e EnvVariables) IsValkeyEnabled() bool {
	return e.ValkeyHost != ""
}

var (
	env     EnvVariables
	envOnce sync.Once
)

// GetEnv loads the configuration once per process and exits when it is invalid.
func GetEnv() EnvVariables {
	envOnce.Do(func() {
		loaded, err := Load()
		if err != nil {
			log.Error("Configuration could not be loaded", "error", err)
			os.Exit(1)
		}

		env = loaded
	})

	return env
}

// Load reads .env (when present) and the process environment into EnvVariables.
func Load() (EnvVariables, error) {
	var loaded EnvVariables

	cwd, err := os.Getwd()
	if err != nil {
		log.Warn("could not get current working directory", "error", err)
		cwd = "."
	}

	backendRoot := findBackendRoot(cwd)

	for _, path := range []string{filepath.Join(cwd, ".env"), filepath.Join(backendRoot, ".env")} {
		if err := godotenv.Load(path); err == nil {
			log.Info("Successfully loaded .env", "path", path)
			break
		}
	}

	if err := cleanenv.ReadEnv(&loaded); err != nil {
		return loaded, fmt.Errorf("failed to read environment: %w", err)
	}

	if loaded.BackendRootPath == "" {
		loaded.BackendRootPath = backendRoot
	}

	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			loaded.IsTesting = true
			break
		}
	}

	if err := loaded.Validate(); err != nil {
		return loaded, err
	}

	log.Info("Environment variables loaded successfully!",
		"mode", loaded.EnvMode,
		"storage", loaded.StorageBackend,
		"columnDeletePolicy", loaded.ColumnDeletePolicy)

	return loaded, nil
}

func (e EnvVariables) Validate() error {
	if !e.EnvMode.IsValid() {
		return fmt.Errorf("ENV_MODE is invalid: %q", e.EnvMode)
	}

	if !e.StorageBackend.IsValid() {
		return fmt.Errorf("STORAGE_BACKEND is invalid: %q", e.StorageBackend)
	}

	if !e.ColumnDeletePolicy.IsValid() {
		return fmt.Errorf("COLUMN_DELETE_POLICY is invalid: %q", e.ColumnDeletePolicy)
	}

	switch e.StorageBackend {
	case StorageBackendPostgres:
		if e.DatabaseDsn == "" {
			return errors.New("DATABASE_DSN is empty")
		}
	case StorageBackendSqlite:
		if e.SqlitePath == "" {
			return errors.New("SQLITE_PATH is empty")
		}
	case StorageBackendFile:
		if e.DataDir == "" {
			return errors.New("DATA_DIR is empty")
		}
	case StorageBackendS3:
		if e.S3Bucket == "" {
			return errors.New("S3_BUCKET is empty")
		}
	}

	if e.RateLimitRPS <= 0 || e.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if e.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", e.SweepInterval)
	}

	return nil
}

func findBackendRoot(cwd string) string {
	backendRoot := cwd
	for {
		if _, err := os.Stat(filepath.Join(backendRoot, "go.mod")); err == nil {
			return backendRoot
		}

		parent := filepath.Dir(backendRoot)
		if parent == backendRoot {
			return cwd
		}

		backendRoot = parent
	}
}
