package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a1gato/olimpiad/internal/models"
)

func studentRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "phone", "class_name", "room_id", "score_1", "score_2", "score", "created_at"})
}

func TestStudentRepositoryListFiltersByRoom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := studentRows(t).
		AddRow("st-1", "Aziz", "Karimov", "+998901234567", "9A", "room-1", nil, nil, nil, time.Now().UTC())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, phone, class_name, room_id, score_1, score_2, score, created_at FROM students WHERE room_id = $1 ORDER BY created_at DESC")).
		WithArgs("room-1").
		WillReturnRows(rows)

	students, err := repo.List(context.Background(), models.StudentFilter{RoomID: "room-1"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Aziz", students[0].FirstName)
	assert.Nil(t, students[0].Score)
}

func TestStudentRepositoryListSearchIsCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(first_name || ' ' || last_name) LIKE $1 OR LOWER(class_name) LIKE $1")).
		WithArgs("%karimov%").
		WillReturnRows(studentRows(t))

	_, err := repo.List(context.Background(), models.StudentFilter{Search: "Karimov"})
	require.NoError(t, err)
}

func TestStudentRepositoryCountByRoom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE room_id = $1")).
		WithArgs("room-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(29))

	count, err := repo.CountByRoom(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, 29, count)
}

func TestStudentRepositoryUpdateScoreSectionColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	value := 70
	total := 155

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET score_1 = $2, score = $3 WHERE id = $1")).
		WithArgs("st-1", &value, &total).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateScore(context.Background(), "st-1", models.ScoreSection1, &value, &total))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET score_2 = $2, score = $3 WHERE id = $1")).
		WithArgs("st-1", &value, &total).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateScore(context.Background(), "st-1", models.ScoreSection2, &value, &total))
}

func TestStudentRepositoryUpdateScoreUnknownSection(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	err := repo.UpdateScore(context.Background(), "st-1", 3, nil, nil)
	require.Error(t, err)
}

func TestStudentRepositoryUpdateScoreMissingStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET score_1 = $2, score = $3 WHERE id = $1")).
		WithArgs("st-404", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateScore(context.Background(), "st-404", models.ScoreSection1, nil, nil)
	assert.ErrorIs(t, err, ErrNoRowsAffected)
}

func TestStudentRepositoryRoomRefs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"room_id"}).
		AddRow("room-1").
		AddRow("room-1").
		AddRow(nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT room_id FROM students")).
		WillReturnRows(rows)

	refs, err := repo.RoomRefs(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Nil(t, refs[2])
}

func TestStudentRepositoryLeaderboard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "phone", "class_name", "room_id", "score_1", "score_2", "score", "created_at", "room_name"}).
		AddRow("st-1", "Aziz", "Karimov", "+998901234567", "9A", "room-1", 80, 75, 155, time.Now().UTC(), "Aula")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.score IS NOT NULL ORDER BY s.score DESC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(rows)

	ranked, err := repo.Leaderboard(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	require.NotNil(t, ranked[0].Score)
	assert.Equal(t, 155, *ranked[0].Score)
	require.NotNil(t, ranked[0].RoomName)
	assert.Equal(t, "Aula", *ranked[0].RoomName)
}
