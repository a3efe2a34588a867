package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// TimeSlotRepository reads the schedulable time grid.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs a time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// List returns the slots of a school in grid order.
func (r *TimeSlotRepository) List(ctx context.Context, schoolID string) ([]models.TimeSlot, error) {
	query := `SELECT id, day, start_time, end_time FROM time_slots`
	var args []interface{}
	if schoolID != "" {
		query += ` WHERE school_id = $1`
		args = append(args, schoolID)
	}
	query += ` ORDER BY day_order ASC, start_time ASC`

	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}
