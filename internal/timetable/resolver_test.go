package timetable

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func TestResolveOneReassignsVenue(t *testing.T) {
	sessions := []models.Session{
		classSession("s1", "A", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("s2", "B", "Room A", "class-2", "MONDAY", "10:00", "12:00"),
	}
	rooms := []models.Room{{ID: "a", Name: "Room A", Capacity: 40}, {ID: "b", Name: "Room B", Capacity: 40}}
	conflicts := Detect(sessions, DetectOptions{})
	require.Len(t, conflicts, 1)

	result := ResolveOne(conflicts[0], sessions, rooms, nil, ResolveOptions{})
	require.True(t, result.Success, result.Message)
	assert.Equal(t, ActionReassignVenue, result.Action)
	assert.Equal(t, "s2", result.TargetSessionID)
	assert.Equal(t, "Room B", result.Updated[1].Venue)
	assert.Equal(t, "Room A", sessions[1].Venue)
	assert.Equal(t, []Change{{SessionID: "s2", Field: "venue", OldValue: "Room A", NewValue: "Room B"}}, result.Changes)
	assert.Empty(t, Detect(result.Updated, DetectOptions{}))
}

func TestResolveOneAnchorLastModifiesFirstSession(t *testing.T) {
	sessions := []models.Session{
		classSession("s1", "A", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("s2", "B", "Room A", "class-2", "MONDAY", "10:00", "12:00"),
	}
	rooms := []models.Room{{Name: "Room A", Capacity: 40}, {Name: "Room B", Capacity: 40}}
	conflicts := Detect(sessions, DetectOptions{})

	result := ResolveOne(conflicts[0], sessions, rooms, nil, ResolveOptions{Anchor: AnchorLast})
	require.True(t, result.Success)
	assert.Equal(t, "s1", result.TargetSessionID)
	assert.Equal(t, "Room B", result.Updated[0].Venue)
}

func TestResolveOneMovesLecturerOverlapToLaterSlot(t *testing.T) {
	sessions := []models.Session{
		classSession("s1", "Dr. X", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("s2", "Dr. X", "Room B", "class-2", "MONDAY", "09:00", "11:00"),
	}
	slots := []models.TimeSlot{
		{ID: "t3", Day: "TUESDAY", StartTime: "09:00", EndTime: "11:00"},
		{ID: "t2", Day: "MONDAY", StartTime: "11:30", EndTime: "13:30"},
		{ID: "t1", Day: "MONDAY", StartTime: "09:00", EndTime: "11:00"},
	}
	conflicts := Detect(sessions, DetectOptions{})
	require.Len(t, conflicts, 1)

	result := ResolveOne(conflicts[0], sessions, nil, slots, ResolveOptions{})
	require.True(t, result.Success, result.Message)
	assert.Equal(t, ActionMoveSlot, result.Action)
	moved := result.Updated[1]
	assert.Equal(t, "MONDAY", moved.Day)
	assert.Equal(t, "11:30", moved.StartTime)
	assert.Equal(t, "13:30", moved.EndTime)
	assert.Equal(t, "Room B", moved.Venue)
	assert.Empty(t, Detect(result.Updated, DetectOptions{}))
}

func TestResolveOneFallsBackToNextDay(t *testing.T) {
	sessions := []models.Session{
		classSession("s1", "Dr. X", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("s2", "Dr. X", "Room B", "class-2", "MONDAY", "09:00", "11:00"),
	}
	slots := []models.TimeSlot{
		{ID: "t1", Day: "MONDAY", StartTime: "09:00", EndTime: "11:00"},
		{ID: "t2", Day: "TUESDAY", StartTime: "09:00", EndTime: "11:00"},
	}
	result := ResolveOne(Detect(sessions, DetectOptions{})[0], sessions, nil, slots, ResolveOptions{})
	require.True(t, result.Success)
	assert.Equal(t, "TUESDAY", result.Updated[1].Day)
}

func TestResolveOneShiftsLaterSessionForRest(t *testing.T) {
	sessions := []models.Session{
		classSession("s1", "Dr. X", "Remote", "class-1", "MONDAY", "09:00", "10:00"),
		classSession("s2", "Dr. X", "Remote", "class-2", "MONDAY", "10:05", "11:00"),
	}
	conflicts := Detect(sessions, DetectOptions{})
	require.Len(t, conflicts, 1)
	require.Equal(t, models.ConflictLecturerNoRest, conflicts[0].Type)

	result := ResolveOne(conflicts[0], sessions, nil, nil, ResolveOptions{})
	require.True(t, result.Success, result.Message)
	assert.Equal(t, ActionShiftStart, result.Action)
	assert.Equal(t, "s2", result.TargetSessionID)
	assert.Equal(t, "10:15", result.Updated[1].StartTime)
	assert.Equal(t, "11:10", result.Updated[1].EndTime)
}

func TestResolveOneFailureLeavesSessionsUntouched(t *testing.T) {
	sessions := []models.Session{
		classSession("s1", "Dr. X", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("s2", "Dr. X", "Room B", "class-2", "MONDAY", "09:00", "11:00"),
	}
	original := append([]models.Session{}, sessions...)

	result := ResolveOne(Detect(sessions, DetectOptions{})[0], sessions, nil, nil, ResolveOptions{})
	assert.False(t, result.Success)
	assert.Equal(t, original, result.Updated)
	assert.Equal(t, original, sessions)
	assert.Empty(t, result.Changes)
	assert.Contains(t, result.Message, "no feasible repair")
}

func TestResolveOneTargetsMinorityMode(t *testing.T) {
	sessions := []models.Session{
		classSession("p1", "A", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("p2", "B", "Room B", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("o1", "C", "Remote", "class-1", "MONDAY", "09:00", "11:00"),
	}
	sessions[0].TeachingMode = models.TeachingModePhysical
	sessions[1].TeachingMode = models.TeachingModePhysical
	sessions[2].TeachingMode = models.TeachingModeOnline
	opts := ResolveOptions{Config: models.ConstraintConfig{HonorExplicitMode: true}}

	var mixed models.Conflict
	for _, c := range Detect(sessions, DetectOptions{Config: opts.Config}) {
		if c.Type == models.ConflictMixedMode {
			mixed = c
		}
	}
	require.Equal(t, models.ConflictMixedMode, mixed.Type)

	result := ResolveOne(mixed, sessions, nil, nil, opts)
	assert.Equal(t, "o1", result.TargetSessionID)
}

func TestResolveOneUnknownSessions(t *testing.T) {
	result := ResolveOne(models.Conflict{Type: models.ConflictVenue, AffectedSessions: []string{"x", "y"}}, nil, nil, nil, ResolveOptions{})
	assert.False(t, result.Success)
	assert.Empty(t, result.TargetSessionID)
}

func TestResolveAllClearsVenueClashes(t *testing.T) {
	sessions := []models.Session{
		classSession("s1", "A", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("s2", "B", "Room A", "class-2", "MONDAY", "09:00", "11:00"),
		classSession("s3", "C", "Room A", "class-3", "MONDAY", "09:00", "11:00"),
	}
	rooms := []models.Room{{Name: "Room A", Capacity: 40}, {Name: "Room B", Capacity: 40}, {Name: "Room C", Capacity: 40}}

	result := ResolveAll(sessions, rooms, nil, ResolveOptions{})
	assert.Equal(t, 2, result.ResolvedCount)
	assert.Zero(t, result.FailedCount)
	assert.Empty(t, result.Remaining)
	assert.Len(t, result.ChangeLog, 2)
	assert.Empty(t, Detect(result.Sessions, DetectOptions{}))
	assert.Equal(t, "Room A", sessions[1].Venue)
}

func TestResolveAllStopsAtIterationCap(t *testing.T) {
	sessions := []models.Session{
		classSession("s1", "A", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("s2", "B", "Room A", "class-2", "MONDAY", "09:00", "11:00"),
		classSession("s3", "C", "Room A", "class-3", "MONDAY", "09:00", "11:00"),
	}
	rooms := []models.Room{{Name: "Room A", Capacity: 40}, {Name: "Room B", Capacity: 40}, {Name: "Room C", Capacity: 40}}

	result := ResolveAll(sessions, rooms, nil, ResolveOptions{MaxIterations: 1})
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, 1, result.ResolvedCount)
	assert.Equal(t, 1, result.FailedCount)
}

func TestResolveAllReportsInfeasibleConflicts(t *testing.T) {
	sessions := []models.Session{
		classSession("s1", "Dr. X", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
		classSession("s2", "Dr. X", "Room B", "class-2", "MONDAY", "09:00", "11:00"),
	}
	result := ResolveAll(sessions, nil, nil, ResolveOptions{})
	assert.Zero(t, result.ResolvedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, sessions, result.Sessions)
}

func TestResolveOneNeverReproducesResolvedConflict(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	rooms := roomsOf(30, 45, 60)
	slots := append(twoHourSlots(),
		models.TimeSlot{ID: "wed-1", Day: "WEDNESDAY", StartTime: "08:00", EndTime: "09:00"},
		models.TimeSlot{ID: "wed-2", Day: "WEDNESDAY", StartTime: "13:00", EndTime: "14:00"},
	)
	for round := 0; round < 60; round++ {
		sessions := make([]models.Session, 0, 5)
		for i := 0; i < 5; i++ {
			sessions = append(sessions, randomSession(rng, fmt.Sprintf("s%d", i)))
		}
		for _, c := range Detect(sessions, DetectOptions{}) {
			result := ResolveOne(c, sessions, rooms, slots, ResolveOptions{})
			if !result.Success {
				assert.Equal(t, sessions, result.Updated)
				continue
			}
			after := Detect(result.Updated, DetectOptions{})
			assert.Less(t, ConflictScore(after), ConflictScore(Detect(sessions, DetectOptions{})))
			for _, again := range after {
				if again.Type != c.Type {
					continue
				}
				both := again.Involves(c.AffectedSessions[0]) && again.Involves(c.AffectedSessions[1])
				assert.False(t, both, "round %d: %s reproduced", round, c.Type)
			}
		}
	}
}
