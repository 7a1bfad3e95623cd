package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/models"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
)

type dashboardRosterRepository interface {
	ListRoster(ctx context.Context) ([]models.Student, error)
}

// DashboardService assembles the cached console snapshot. Writes anywhere in
// the system invalidate it, so a stale snapshot lives at most one cache TTL.
type DashboardService struct {
	rooms  *RoomService
	roster dashboardRosterRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(rooms *RoomService, roster dashboardRosterRepository, cache *CacheService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{rooms: rooms, roster: roster, cache: cache, logger: logger}
}

// Snapshot returns the dashboard view. The second return value reports
// whether it was served from cache.
func (s *DashboardService) Snapshot(ctx context.Context) (*models.DashboardSnapshot, bool, error) {
	var cached models.DashboardSnapshot
	if hit, err := s.cache.Get(ctx, cacheKeyDashboard, &cached); err == nil && hit {
		return &cached, true, nil
	}

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, false, err
	}
	roster, err := s.roster.ListRoster(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	if roster == nil {
		roster = []models.Student{}
	}

	snapshot := &models.DashboardSnapshot{
		Rooms:       rooms,
		Roster:      roster,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, cacheKeyDashboard, snapshot, 0); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return snapshot, false, nil
}
