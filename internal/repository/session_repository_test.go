package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "day", "start_time", "end_time", "unit_id", "unit_code", "unit_name", "credit_hours", "teaching_mode", "venue", "location", "lecturer", "chief_invigilator", "class_id", "class_name", "group_id", "group_name", "headcount", "semester_id", "program_id", "school_id", "variant", "created_at", "updated_at"}).
		AddRow("s1", "MONDAY", "09:00", "11:00", "unit-1", "MTH101", "Maths", 2.0, "physical", "Room A", "East", "Dr. X", "", "class-1", "X-1", "", "", 30, "sem-1", "prog-1", "school-1", "class", now, now)
}

func TestSessionRepositoryListByScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_sessions WHERE semester_id = $1 AND school_id = $2 ORDER BY day ASC, start_time ASC, id ASC")).
		WithArgs("sem-1", "school-1").
		WillReturnRows(sessionRow())

	sessions, err := repo.ListByScope(context.Background(), nil, models.SessionScope{SemesterID: "sem-1", SchoolID: "school-1"})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "MTH101", sessions[0].UnitCode)
	assert.Equal(t, models.TeachingModePhysical, sessions[0].TeachingMode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListWithoutScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(`FROM timetable_sessions ORDER BY`).WillReturnRows(sessionRow())

	sessions, err := repo.ListByScope(context.Background(), nil, models.SessionScope{})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryBulkCreateWithinTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_sessions")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_sessions")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	sessions := []models.Session{{Day: "MONDAY", StartTime: "09:00", EndTime: "10:00"}, {ID: "fixed", Day: "TUESDAY"}}
	require.NoError(t, repo.BulkCreate(context.Background(), tx, sessions))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, sessions[0].ID)
	assert.Equal(t, "fixed", sessions[1].ID)
	require.NotNil(t, sessions[0].CreatedAt)
	assert.False(t, sessions[0].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdatePlacementMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_sessions")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_sessions")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePlacement(context.Background(), nil, []models.Session{{ID: "s1"}, {ID: "ghost"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomAndTimeSlotRepositories(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity, location FROM rooms WHERE school_id = $1 ORDER BY capacity ASC, name ASC")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "location"}).AddRow("r1", "Room A", 40, "East"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, start_time, end_time FROM time_slots ORDER BY day_order ASC, start_time ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "day", "start_time", "end_time"}).AddRow("t1", "MONDAY", "08:00", "10:00"))

	rooms, err := NewRoomRepository(db).List(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, 40, rooms[0].Capacity)

	slots, err := NewTimeSlotRepository(db).List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "MONDAY", slots[0].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}
