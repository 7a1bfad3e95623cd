package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/events"
	"github.com/a1gato/olimpiad/internal/models"
	"github.com/a1gato/olimpiad/internal/repository"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

type roomStudentRepository interface {
	RoomRefs(ctx context.Context) ([]*string, error)
}

// OccupancyThresholds configure severity classification of a room's occupancy
// percentage.
type OccupancyThresholds struct {
	WarningPct  int
	CriticalPct int
}

// RoomService manages exam rooms and their derived occupancy view.
type RoomService struct {
	rooms      roomRepository
	students   roomStudentRepository
	feed       events.Publisher
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	thresholds OccupancyThresholds
}

// NewRoomService constructs a RoomService.
func NewRoomService(rooms roomRepository, students roomStudentRepository, feed events.Publisher, cache *CacheService, validate *validator.Validate, logger *zap.Logger, thresholds OccupancyThresholds) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if thresholds.WarningPct <= 0 {
		thresholds.WarningPct = 80
	}
	if thresholds.CriticalPct <= 0 {
		thresholds.CriticalPct = 100
	}
	return &RoomService{rooms: rooms, students: students, feed: feed, cache: cache, validator: validate, logger: logger, thresholds: thresholds}
}

// List returns every room with live occupancy attached. Counts come from one
// fetch of all student room references aggregated in memory, so the listing
// issues two queries total regardless of how many rooms exist.
func (s *RoomService) List(ctx context.Context) ([]models.RoomOccupancy, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}

	refs, err := s.students.RoomRefs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room assignments")
	}

	counts := make(map[string]int, len(rooms))
	for _, ref := range refs {
		if ref != nil {
			counts[*ref]++
		}
	}

	result := make([]models.RoomOccupancy, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, s.occupancyFor(room, counts[room.ID]))
	}
	return result, nil
}

// Get returns a single room with live occupancy.
func (s *RoomService) Get(ctx context.Context, id string) (*models.RoomOccupancy, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	refs, err := s.students.RoomRefs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room assignments")
	}
	count := 0
	for _, ref := range refs {
		if ref != nil && *ref == id {
			count++
		}
	}

	occ := s.occupancyFor(*room, count)
	return &occ, nil
}

// Create opens a new room.
func (s *RoomService) Create(ctx context.Context, req models.CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	room := &models.Room{Name: req.Name, Capacity: req.Capacity}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}

	s.afterWrite(ctx, models.EventInsert, room.ID)
	s.logger.Info("room created", zap.String("room_id", room.ID), zap.Int("capacity", room.Capacity))
	return room, nil
}

// Delete removes a room. The database rejects the delete while students are
// still assigned; that surfaces as a conflict telling the operator to move
// the students first.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrRoomInUse, "cannot delete room: students are assigned to it")
		}
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}

	s.afterWrite(ctx, models.EventDelete, id)
	s.logger.Info("room deleted", zap.String("room_id", id))
	return nil
}

func (s *RoomService) occupancyFor(room models.Room, count int) models.RoomOccupancy {
	pct := 0
	if room.Capacity > 0 {
		pct = int(math.Round(float64(count) / float64(room.Capacity) * 100))
	}
	severity := models.OccupancyNormal
	switch {
	case pct >= s.thresholds.CriticalPct:
		severity = models.OccupancyCritical
	case pct > s.thresholds.WarningPct:
		severity = models.OccupancyWarning
	}
	return models.RoomOccupancy{
		Room:         room,
		CurrentCount: count,
		OccupancyPct: pct,
		Severity:     severity,
		Full:         count >= room.Capacity,
	}
}

func (s *RoomService) afterWrite(ctx context.Context, action, roomID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("%s*", cacheKeyDashboard)); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}
	if s.feed != nil {
		s.feed.Publish(ctx, models.NewTableEvent(models.TableRooms, action, roomID))
	}
}
