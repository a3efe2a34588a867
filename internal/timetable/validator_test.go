package timetable

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func TestValidateRejectsThirdPhysicalSession(t *testing.T) {
	existing := []models.Session{
		classSession("s1", "A", "Room A", "class-1", "MONDAY", "08:00", "10:00"),
		classSession("s2", "B", "Room B", "class-1", "MONDAY", "10:30", "12:30"),
	}
	candidate := classSession("new", "C", "Room C", "class-1", "MONDAY", "13:00", "15:00")

	result := Validate(candidate, existing, models.ConstraintConfig{MaxPhysicalPerDay: 2, MaxHoursPerDay: 8}, ValidateOptions{})
	assert.False(t, result.IsValid)
	require.Len(t, result.BlockingMessages, 1)
	assert.Contains(t, result.Message, "maximum of 2 physical sessions per day")
	assert.Contains(t, result.Message, "already has 2")
	assert.Equal(t, 3, result.Stats.PhysicalCount)
	assert.Equal(t, 6.0, result.Stats.TotalHours)
}

func TestValidateIncompleteCandidateIsPermissive(t *testing.T) {
	candidate := models.Session{ClassID: "class-1", StartTime: "09:00", EndTime: "10:00"}
	result := Validate(candidate, nil, models.ConstraintConfig{}, ValidateOptions{})
	assert.True(t, result.IsValid)
	assert.True(t, result.Incomplete)
}

func TestValidateRejectsInvertedTimes(t *testing.T) {
	candidate := classSession("new", "A", "Room A", "class-1", "MONDAY", "11:00", "10:00")
	result := Validate(candidate, nil, models.ConstraintConfig{}, ValidateOptions{})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Message, "must be after")
}

func TestValidateBlocksHighAndWarnsMedium(t *testing.T) {
	existing := []models.Session{
		classSession("s1", "Dr. X", "Room A", "class-1", "MONDAY", "09:00", "10:00"),
	}
	overlap := classSession("", "Dr. X", "Room B", "class-2", "MONDAY", "09:30", "10:30")
	result := Validate(overlap, existing, models.ConstraintConfig{}, ValidateOptions{})
	assert.False(t, result.IsValid)
	require.NotEmpty(t, result.Conflicts)
	assert.Contains(t, result.Conflicts[0].AffectedSessions, CandidateID)

	tight := classSession("new", "Dr. X", "Room B", "class-2", "MONDAY", "10:05", "11:00")
	result = Validate(tight, existing, models.ConstraintConfig{}, ValidateOptions{})
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Empty(t, result.BlockingMessages)
}

func TestValidateExcludesEditedSession(t *testing.T) {
	existing := []models.Session{
		classSession("s1", "Dr. X", "Room A", "class-1", "MONDAY", "09:00", "11:00"),
	}
	edited := classSession("draft", "Dr. X", "Room A", "class-1", "MONDAY", "09:30", "11:30")

	assert.False(t, Validate(edited, existing, models.ConstraintConfig{}, ValidateOptions{}).IsValid)
	assert.True(t, Validate(edited, existing, models.ConstraintConfig{}, ValidateOptions{ExcludeID: "s1"}).IsValid)

	edited.ID = "s1"
	assert.True(t, Validate(edited, existing, models.ConstraintConfig{}, ValidateOptions{}).IsValid)
}

func TestValidateSoftChecks(t *testing.T) {
	existing := []models.Session{
		classSession("s1", "A", "Remote", "class-1", "MONDAY", "08:00", "09:00"),
	}
	candidate := classSession("new", "B", "Remote", "class-1", "MONDAY", "09:00", "10:00")
	cfg := models.ConstraintConfig{
		MinHoursPerDay:        4,
		RequireMixedMode:      true,
		AvoidConsecutiveSlots: true,
		AllowBackToBack:       true,
	}

	result := Validate(candidate, existing, cfg, ValidateOptions{})
	assert.True(t, result.IsValid)
	assert.Len(t, result.Warnings, 3)
	assert.Equal(t, 2, result.Stats.OnlineCount)
}

func TestValidateOnlineCapAndHourCap(t *testing.T) {
	existing := []models.Session{
		classSession("s1", "A", "Remote", "class-1", "MONDAY", "08:00", "09:00"),
	}
	candidate := classSession("new", "B", "Remote", "class-1", "MONDAY", "12:00", "13:00")

	result := Validate(candidate, existing, models.ConstraintConfig{MaxOnlinePerDay: 1}, ValidateOptions{})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Message, "maximum of 1 online sessions per day")

	result = Validate(candidate, existing, models.ConstraintConfig{MaxHoursPerDay: 1.5}, ValidateOptions{})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Message, "teaching hours per day exceeded")
}

func TestValidateAgreesWithDetector(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	rooms := []models.Room{{Name: "Room 0", Capacity: 40}, {Name: "Room 1", Capacity: 60}}
	for _, variant := range []models.TimetableVariant{models.VariantClass, models.VariantExam} {
		for i := 0; i < 200; i++ {
			existing := make([]models.Session, 0, 4)
			for j := 0; j < 4; j++ {
				existing = append(existing, randomSession(rng, fmt.Sprintf("e%d", j)))
			}
			candidate := randomSession(rng, "cand")

			result := Validate(candidate, existing, models.ConstraintConfig{}, ValidateOptions{Variant: variant, Rooms: rooms})
			conflicts := Detect(append(append([]models.Session{}, existing...), candidate), DetectOptions{Variant: variant, Rooms: rooms})

			touchedHigh := false
			for _, c := range conflicts {
				if c.Severity == models.SeverityHigh && c.Involves("cand") {
					touchedHigh = true
				}
			}
			assert.Equal(t, touchedHigh, !result.IsValid)
		}
	}
}

func TestValidateWarnsWhenSittingOutgrowsRoom(t *testing.T) {
	candidate := classSession("big", "Inv A", "Room A", "class-1", "MONDAY", "09:00", "11:00")
	candidate.Headcount = 45
	rooms := []models.Room{{Name: "Room A", Capacity: 40}}

	result := Validate(candidate, nil, models.ConstraintConfig{}, ValidateOptions{Variant: models.VariantExam, Rooms: rooms})
	assert.True(t, result.IsValid)
	assert.Empty(t, Detect([]models.Session{candidate}, DetectOptions{Variant: models.VariantExam, Rooms: rooms}))
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "seats 45 but Room A holds only 40")

	candidate.Headcount = 40
	assert.Empty(t, Validate(candidate, nil, models.ConstraintConfig{}, ValidateOptions{Rooms: rooms}).Warnings)
}
