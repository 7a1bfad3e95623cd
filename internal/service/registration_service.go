package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/events"
	"github.com/a1gato/olimpiad/internal/models"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
)

// Registration outcome labels for metrics.
const (
	registrationAccepted = "accepted"
	registrationRoomFull = "room_full"
	registrationFailed   = "failed"
)

type registrationRoomRepository interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type registrationStudentRepository interface {
	CountByRoom(ctx context.Context, roomID string) (int, error)
	Create(ctx context.Context, student *models.Student) error
}

// RegistrationService registers participants into rooms. Room capacity is
// re-validated with a live count immediately before the insert; two operators
// registering into the last seat at once can still both pass the check, so a
// room can briefly exceed capacity. The occupancy view surfaces that state
// rather than the database enforcing it.
type RegistrationService struct {
	rooms     registrationRoomRepository
	students  registrationStudentRepository
	feed      events.Publisher
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(rooms registrationRoomRepository, students registrationStudentRepository, feed events.Publisher, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RegistrationService{rooms: rooms, students: students, feed: feed, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Register validates the payload, confirms the target room still has a free
// seat, and inserts the student. Scores start unset.
func (s *RegistrationService) Register(ctx context.Context, req models.RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	room, err := s.rooms.FindByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	count, err := s.students.CountByRoom(ctx, room.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count room occupancy")
	}
	if count >= room.Capacity {
		s.metrics.RecordRegistration(registrationRoomFull)
		s.logger.Info("registration rejected, room full",
			zap.String("room_id", room.ID),
			zap.Int("count", count),
			zap.Int("capacity", room.Capacity))
		return nil, appErrors.Clone(appErrors.ErrRoomFull, fmt.Sprintf("room %q is full", room.Name))
	}

	student := &models.Student{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		ClassName: req.ClassName,
		RoomID:    &room.ID,
	}
	if err := s.students.Create(ctx, student); err != nil {
		s.metrics.RecordRegistration(registrationFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrRegistrationFailed.Code, appErrors.ErrRegistrationFailed.Status, "failed to register student")
	}

	s.metrics.RecordRegistration(registrationAccepted)
	s.afterWrite(ctx, models.EventInsert, student.ID)
	s.logger.Info("student registered",
		zap.String("student_id", student.ID),
		zap.String("room_id", room.ID),
		zap.Int("occupancy_before", count))
	return student, nil
}

func (s *RegistrationService) afterWrite(ctx context.Context, action, studentID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("%s*", cacheKeyDashboard)); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("%s*", cacheKeyLeaderboard)); err != nil {
			s.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
		}
	}
	if s.feed != nil {
		s.feed.Publish(ctx, models.NewTableEvent(models.TableStudents, action, studentID))
	}
}
