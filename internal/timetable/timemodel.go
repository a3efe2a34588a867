// Package timetable holds the pure scheduling engine: time arithmetic, conflict
// detection, admission validation, bulk placement and conflict repair. Every
// function works on caller-supplied values and returns new values; nothing here
// performs I/O or keeps state between calls.
package timetable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// PhysicalThresholdHours is the duration from which a session is taught in person.
const PhysicalThresholdHours = 2.0

const minutesPerDay = 24 * 60

var weekDays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

var dayNameIndex = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
	"SUNDAY":    7,
}

// NormalizeDay upper-cases and trims a weekday name.
func NormalizeDay(day string) string {
	return strings.ToUpper(strings.TrimSpace(day))
}

// DayIndex returns 1 for Monday through 7 for Sunday, 0 for unknown names.
func DayIndex(day string) int {
	return dayNameIndex[NormalizeDay(day)]
}

// NextDay returns the weekday after day, wrapping Sunday to Monday.
func NextDay(day string) string {
	idx := DayIndex(day)
	if idx == 0 {
		return weekDays[0]
	}
	return weekDays[idx%len(weekDays)]
}

// ToMinutes parses "HH:MM" (or "HH:MM:SS") into minutes since midnight.
// Malformed or empty input yields 0.
func ToMinutes(value string) int {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0
	}
	return hours*60 + minutes
}

// FormatMinutes renders minutes since midnight as "HH:MM", clamped to the day.
func FormatMinutes(total int) string {
	if total < 0 {
		total = 0
	}
	if total >= minutesPerDay {
		total = minutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Duration returns the length of [start, end) in hours. Negative results are not guarded.
func Duration(start, end string) float64 {
	return float64(ToMinutes(end)-ToMinutes(start)) / 60
}

// DeliveryModeFor derives the teaching mode from the session duration.
func DeliveryModeFor(start, end string) models.TeachingMode {
	if Duration(start, end) >= PhysicalThresholdHours {
		return models.TeachingModePhysical
	}
	return models.TeachingModeOnline
}

// EffectiveMode is the mode a session is treated as under cfg.
func EffectiveMode(s models.Session, cfg models.ConstraintConfig) models.TeachingMode {
	if cfg.HonorExplicitMode && s.TeachingMode != "" {
		return s.TeachingMode
	}
	return DeliveryModeFor(s.StartTime, s.EndTime)
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
// Touching boundaries do not overlap.
func Overlaps(startA, endA, startB, endB string) bool {
	return ToMinutes(startA) < ToMinutes(endB) && ToMinutes(startB) < ToMinutes(endA)
}

// IsBackToBack reports whether the gap between endA and startB is under threshold minutes.
func IsBackToBack(endA, startB string, thresholdMinutes int) bool {
	gap := ToMinutes(startB) - ToMinutes(endA)
	if gap < 0 {
		gap = -gap
	}
	return gap < thresholdMinutes
}

func sessionsOverlap(a, b models.Session) bool {
	return NormalizeDay(a.Day) == NormalizeDay(b.Day) && Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
}

// restViolated checks two non-overlapping sessions on the same day, earlier first.
func restViolated(a, b models.Session, threshold int) bool {
	earlier, later := a, b
	if ToMinutes(later.StartTime) < ToMinutes(earlier.StartTime) {
		earlier, later = later, earlier
	}
	return IsBackToBack(earlier.EndTime, later.StartTime, threshold)
}

func isRemoteVenue(venue string) bool {
	return strings.EqualFold(strings.TrimSpace(venue), models.RemoteVenue)
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
