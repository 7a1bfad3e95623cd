package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/models"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
	"github.com/a1gato/olimpiad/pkg/export"
)

// Export formats accepted by the leaderboard endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type leaderboardRepository interface {
	Leaderboard(ctx context.Context, limit int) ([]models.RankedStudent, error)
}

// LeaderboardService serves the standings: students with a recorded total,
// highest first, capped at a configured size.
type LeaderboardService struct {
	students leaderboardRepository
	cache    *CacheService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
	limit    int
}

// NewLeaderboardService constructs a LeaderboardService.
func NewLeaderboardService(students leaderboardRepository, cache *CacheService, logger *zap.Logger, limit int) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 50
	}
	return &LeaderboardService{
		students: students,
		cache:    cache,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		limit:    limit,
	}
}

// Top returns the current standings. The second return value reports whether
// the response was served from cache.
func (s *LeaderboardService) Top(ctx context.Context) ([]models.RankedStudent, bool, error) {
	key := fmt.Sprintf("%s:%d", cacheKeyLeaderboard, s.limit)

	var cached []models.RankedStudent
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	ranked, err := s.students.Leaderboard(ctx, s.limit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}
	if ranked == nil {
		ranked = []models.RankedStudent{}
	}

	if err := s.cache.Set(ctx, key, ranked, 0); err != nil {
		s.logger.Warn("leaderboard cache write failed", zap.Error(err))
	}
	return ranked, false, nil
}

// Export renders the standings in the requested format and returns the bytes
// together with the response content type.
func (s *LeaderboardService) Export(ctx context.Context, format string) ([]byte, string, error) {
	ranked, _, err := s.Top(ctx)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Rank", "Name", "Class", "Room", "Section 1", "Section 2", "Total"},
		Rows:    make([]map[string]string, 0, len(ranked)),
	}
	for i, entry := range ranked {
		room := ""
		if entry.RoomName != nil {
			room = *entry.RoomName
		}
		data.Rows = append(data.Rows, map[string]string{
			"Rank":      strconv.Itoa(i + 1),
			"Name":      entry.FirstName + " " + entry.LastName,
			"Class":     entry.ClassName,
			"Room":      room,
			"Section 1": formatScore(entry.Score1),
			"Section 2": formatScore(entry.Score2),
			"Total":     formatScore(entry.Score),
		})
	}

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(data, "Olympiad Standings")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func formatScore(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
