package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/a1gato/olimpiad/internal/models"
)

// StudentRepository manages persistence for registered students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, first_name, last_name, phone, class_name, room_id, score_1, score_2, score, created_at"

// List returns students newest first, optionally filtered by room and a
// case-insensitive name/class search.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students", studentColumns)
	conditions := []string{}
	args := []interface{}{}

	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name || ' ' || last_name) LIKE $%d OR LOWER(class_name) LIKE $%d)", idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ListRoster returns all students ordered by last name, the order the marking
// screen displays them in.
func (r *StudentRepository) ListRoster(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students ORDER BY last_name", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return students, nil
}

// RoomRefs fetches only the room reference of every student. Occupancy is
// derived from this single full fetch with one in-memory aggregation rather
// than a count query per room. room_id is nullable, so rows scan through
// sql.NullString; unassigned students come back as nil entries.
func (r *StudentRepository) RoomRefs(ctx context.Context) ([]*string, error) {
	const query = `SELECT room_id FROM students`
	var rows []sql.NullString
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list room refs: %w", err)
	}
	refs := make([]*string, len(rows))
	for i, row := range rows {
		if row.Valid {
			id := row.String
			refs[i] = &id
		}
	}
	return refs, nil
}

// CountByRoom returns the authoritative live number of students assigned to a
// room. The registration workflow calls this immediately before inserting.
func (r *StudentRepository) CountByRoom(ctx context.Context, roomID string) (int, error) {
	const query = `SELECT COUNT(*) FROM students WHERE room_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, roomID); err != nil {
		return 0, fmt.Errorf("count students by room: %w", err)
	}
	return count, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1 LIMIT 1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student row.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, first_name, last_name, phone, class_name, room_id, score_1, score_2, score, created_at)
        VALUES (:id, :first_name, :last_name, :phone, :class_name, :room_id, :score_1, :score_2, :score, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// UpdateScore writes one section value together with the derived total in a
// single statement keyed by student ID.
func (r *StudentRepository) UpdateScore(ctx context.Context, id string, section int, value *int, total *int) error {
	var column string
	switch section {
	case models.ScoreSection1:
		column = "score_1"
	case models.ScoreSection2:
		column = "score_2"
	default:
		return fmt.Errorf("unknown score section %d", section)
	}
	query := fmt.Sprintf("UPDATE students SET %s = $2, score = $3 WHERE id = $1", column)
	result, err := r.db.ExecContext(ctx, query, id, value, total)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Leaderboard returns the top scored students, highest total first. Students
// without a total are excluded. Ties keep the database's stable order; no
// further tie-break is defined.
func (r *StudentRepository) Leaderboard(ctx context.Context, limit int) ([]models.RankedStudent, error) {
	const query = `SELECT s.id, s.first_name, s.last_name, s.phone, s.class_name, s.room_id, s.score_1, s.score_2, s.score, s.created_at, r.name AS room_name
        FROM students s LEFT JOIN rooms r ON r.id = s.room_id
        WHERE s.score IS NOT NULL ORDER BY s.score DESC LIMIT $1`
	var ranked []models.RankedStudent
	if err := r.db.SelectContext(ctx, &ranked, query, limit); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return ranked, nil
}
