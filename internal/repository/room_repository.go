package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// RoomRepository reads venue reference data.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms for a school ordered by capacity. An empty school id returns every room.
func (r *RoomRepository) List(ctx context.Context, schoolID string) ([]models.Room, error) {
	query := `SELECT id, name, capacity, location FROM rooms`
	var args []interface{}
	if schoolID != "" {
		query += ` WHERE school_id = $1`
		args = append(args, schoolID)
	}
	query += ` ORDER BY capacity ASC, name ASC`

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
