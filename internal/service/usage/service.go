// Package usage records per-user, per-endpoint accounting rows.
package usage

import (
	"context"
	"time"

	"log/slog"

	"github.com/moodsong/api/internal/domain"
	"github.com/moodsong/api/internal/repository"
)

const recordTimeout = 2 * time.Second

// Service persists usage rows best-effort: a failed insert is logged and
// never surfaces to the request that triggered it.
type Service struct {
	repo   repository.UsageRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.UsageRepository, logger *slog.Logger) Service {
	return Service{repo: repo, logger: logger}
}

// Record inserts one accounting row. It uses its own deadline so it can
// run after the originating request has completed.
func (s Service) Record(entry domain.EndpointUsage) {
	if s.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.InsertUsage(ctx, entry); err != nil {
		s.logger.Warn("usage insert failed", "endpoint", entry.Endpoint, "error", err)
	}
}
