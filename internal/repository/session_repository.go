package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

const sessionColumns = `id, day, start_time, end_time, unit_id, unit_code, unit_name, credit_hours, teaching_mode, venue, location, lecturer, chief_invigilator, class_id, class_name, group_id, group_name, headcount, semester_id, program_id, school_id, variant, created_at, updated_at`

// SessionRepository persists timetable sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByScope returns sessions for a semester/program/school, ordered by day and start time.
func (r *SessionRepository) ListByScope(ctx context.Context, exec sqlx.ExtContext, scope models.SessionScope) ([]models.Session, error) {
	var conditions []string
	var args []interface{}

	if scope.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("semester_id = $%d", len(args)+1))
		args = append(args, scope.SemesterID)
	}
	if scope.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("program_id = $%d", len(args)+1))
		args = append(args, scope.ProgramID)
	}
	if scope.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, scope.SchoolID)
	}
	if scope.Variant != "" {
		conditions = append(conditions, fmt.Sprintf("variant = $%d", len(args)+1))
		args = append(args, scope.Variant)
	}

	query := "SELECT " + sessionColumns + " FROM timetable_sessions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY day ASC, start_time ASC, id ASC"

	var sessions []models.Session
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable sessions: %w", err)
	}
	return sessions, nil
}

// BulkCreate inserts the sessions, assigning ids and timestamps where missing.
func (r *SessionRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_sessions (` + sessionColumns + `)
VALUES (:id, :day, :start_time, :end_time, :unit_id, :unit_code, :unit_name, :credit_hours, :teaching_mode, :venue, :location, :lecturer, :chief_invigilator, :class_id, :class_name, :group_id, :group_name, :headcount, :semester_id, :program_id, :school_id, :variant, :created_at, :updated_at)`

	for i := range sessions {
		s := &sessions[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.CreatedAt == nil {
			s.CreatedAt = &now
		}
		s.UpdatedAt = &now
		if _, err := sqlx.NamedExecContext(ctx, target, query, s); err != nil {
			return fmt.Errorf("insert timetable session %s: %w", s.ID, err)
		}
	}
	return nil
}

// UpdatePlacement rewrites the placement fields a repair may change.
func (r *SessionRepository) UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
UPDATE timetable_sessions
SET day = :day, start_time = :start_time, end_time = :end_time, venue = :venue, location = :location,
    teaching_mode = :teaching_mode, credit_hours = :credit_hours, updated_at = :updated_at
WHERE id = :id`

	for i := range sessions {
		s := &sessions[i]
		s.UpdatedAt = &now
		res, err := sqlx.NamedExecContext(ctx, target, query, s)
		if err != nil {
			return fmt.Errorf("update timetable session %s: %w", s.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update timetable session %s rows: %w", s.ID, err)
		}
		if affected == 0 {
			return fmt.Errorf("update timetable session %s: %w", s.ID, sql.ErrNoRows)
		}
	}
	return nil
}
