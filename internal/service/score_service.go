package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/events"
	"github.com/a1gato/olimpiad/internal/models"
	"github.com/a1gato/olimpiad/internal/repository"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
)

type scoreStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListRoster(ctx context.Context) ([]models.Student, error)
	UpdateScore(ctx context.Context, id string, section int, value *int, total *int) error
}

// ScoreService maintains the per-section score ledger. The stored total is
// always derived from the section values and written together with the
// section in the same statement, so readers never observe a total that
// disagrees with the sections.
type ScoreService struct {
	students scoreStudentRepository
	feed     events.Publisher
	cache    *CacheService
	logger   *zap.Logger
}

// NewScoreService constructs a ScoreService.
func NewScoreService(students scoreStudentRepository, feed events.Publisher, cache *CacheService, logger *zap.Logger) *ScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{students: students, feed: feed, cache: cache, logger: logger}
}

// UpdateScore writes one section mark for a student and recomputes the total.
// An empty value clears the section. The total counts an unset section as
// zero and is null only while both sections are null.
func (s *ScoreService) UpdateScore(ctx context.Context, studentID string, section int, req models.UpdateScoreRequest) (*models.Student, error) {
	if section != models.ScoreSection1 && section != models.ScoreSection2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown score section %d", section))
	}

	value, err := parseScoreValue(req.Value)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	other := student.Score2
	if section == models.ScoreSection2 {
		other = student.Score1
	}
	total := combineSections(value, other)

	if err := s.students.UpdateScore(ctx, studentID, section, value, total); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrScoreSaveFailed.Code, appErrors.ErrScoreSaveFailed.Status, "failed to save score")
	}

	if section == models.ScoreSection1 {
		student.Score1 = value
	} else {
		student.Score2 = value
	}
	student.Score = total

	s.afterWrite(ctx, studentID)
	s.logger.Info("score updated",
		zap.String("student_id", studentID),
		zap.Int("section", section))
	return student, nil
}

// Roster returns every student ordered for the marking screen. The console
// re-reads it after a failed save to fall back to authoritative state.
func (s *ScoreService) Roster(ctx context.Context) ([]models.Student, error) {
	roster, err := s.students.ListRoster(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

func (s *ScoreService) afterWrite(ctx context.Context, studentID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("%s*", cacheKeyDashboard)); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("%s*", cacheKeyLeaderboard)); err != nil {
			s.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
		}
	}
	if s.feed != nil {
		s.feed.Publish(ctx, models.NewTableEvent(models.TableStudents, models.EventUpdate, studentID))
	}
}

// parseScoreValue interprets the raw console input. Empty input clears the
// section; anything else must be a non-negative integer.
func parseScoreValue(raw string) (*int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, fmt.Errorf("score must be a whole number")
	}
	if n < 0 {
		return nil, fmt.Errorf("score must not be negative")
	}
	return &n, nil
}

// combineSections derives the stored total. Unset sections count as zero; the
// total stays null only while both sections are null.
func combineSections(a, b *int) *int {
	if a == nil && b == nil {
		return nil
	}
	sum := 0
	if a != nil {
		sum += *a
	}
	if b != nil {
		sum += *b
	}
	return &sum
}
