package system_healthcheck

import (
	"context"
	"log/slog"
	"time"

	"kanban/internal/storage"

	"github.com/shirou/gopsutil/v4/disk"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"

	pingTimeout          = 5 * time.Second
	diskUsageWarnPercent = 95.0
)

type HealthcheckService struct {
	store     storage.Store
	diskPath  string
	cachePing func(ctx context.Context) error
	logger    *slog.Logger
}

// NewHealthcheckService reports disk usage of diskPath when it is not empty.
func NewHealthcheckService(store storage.Store, diskPath string, logger *slog.Logger) *HealthcheckService {
	return &HealthcheckService{store: store, diskPath: diskPath, logger: logger}
}

// WithCachePing adds a valkey check. A failing cache degrades the status but
// never marks the service down, events fall back to local delivery.
func (s *HealthcheckService) WithCachePing(ping func(ctx context.Context) error) *HealthcheckService {
	s.cachePing = ping
	return s
}

func (s *HealthcheckService) Check(ctx context.Context) *HealthcheckResponse {
	response := &HealthcheckResponse{
		Status:  StatusOK,
		Storage: StorageHealth{Backend: s.store.Name()},
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.store.Ping(pingCtx); err != nil {
		s.logger.Error("storage health check failed",
			slog.String("backend", s.store.Name()),
			slog.String("error", err.Error()))

		response.Status = StatusDown
		response.Storage.Error = err.Error()
	}

	if s.cachePing != nil {
		response.Cache = &CacheHealth{}

		if err := s.cachePing(pingCtx); err != nil {
			s.logger.Warn("cache health check failed", slog.String("error", err.Error()))

			response.Cache.Error = err.Error()
			if response.Status == StatusOK {
				response.Status = StatusDegraded
			}
		}
	}

	if s.diskPath == "" {
		return response
	}

	response.Disk = &DiskHealth{Path: s.diskPath}

	usage, err := disk.UsageWithContext(ctx, s.diskPath)
	if err != nil {
		response.Disk.Error = err.Error()
		return response
	}

	response.Disk.TotalBytes = usage.Total
	response.Disk.FreeBytes = usage.Free
	response.Disk.UsedPercent = usage.UsedPercent

	if usage.UsedPercent >= diskUsageWarnPercent && response.Status == StatusOK {
		response.Status = StatusDegraded
	}

	return response
}
