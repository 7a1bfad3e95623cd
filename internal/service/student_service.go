package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/events"
	"github.com/a1gato/olimpiad/internal/models"
	"github.com/a1gato/olimpiad/internal/repository"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

// StudentService exposes read and removal operations over registered
// participants. Registration itself lives in RegistrationService.
type StudentService struct {
	students studentRepository
	feed     events.Publisher
	cache    *CacheService
	logger   *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentRepository, feed events.Publisher, cache *CacheService, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, feed: feed, cache: cache, logger: logger}
}

// List returns students newest first, optionally filtered by room or a
// name/class search term.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	students, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Delete removes a student, freeing their room seat.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("%s*", cacheKeyDashboard)); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("%s*", cacheKeyLeaderboard)); err != nil {
			s.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
		}
	}
	if s.feed != nil {
		s.feed.Publish(ctx, models.NewTableEvent(models.TableStudents, models.EventDelete, id))
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}
