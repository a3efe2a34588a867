package timetable

import (
	"fmt"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// CandidateID stands in for a candidate session that has no id yet.
const CandidateID = "candidate"

// ValidateOptions carries the optional inputs of an admission check.
type ValidateOptions struct {
	// ExcludeID drops the session being edited from the existing set.
	ExcludeID string
	Variant   models.TimetableVariant
	Rooms     []models.Room
}

// ProjectedStats describes the candidate's group day once the candidate is added.
type ProjectedStats struct {
	Day           string  `json:"day"`
	Audience      string  `json:"audience"`
	SessionCount  int     `json:"session_count"`
	PhysicalCount int     `json:"physical_count"`
	OnlineCount   int     `json:"online_count"`
	TotalHours    float64 `json:"total_hours"`
}

// ValidationResult is the outcome of admitting one session into a schedule.
type ValidationResult struct {
	IsValid bool `json:"is_valid"`
	// Incomplete marks the "not enough information yet" state. IsValid is
	// true in that state but nothing was checked.
	Incomplete       bool              `json:"incomplete,omitempty"`
	Message          string            `json:"message"`
	BlockingMessages []string          `json:"blocking_messages"`
	Warnings         []string          `json:"warnings"`
	Conflicts        []models.Conflict `json:"conflicts,omitempty"`
	Stats            ProjectedStats    `json:"stats"`
}

// Validate checks whether candidate can join existing under cfg. It never
// fails: every outcome is reported in the result.
func Validate(candidate models.Session, existing []models.Session, cfg models.ConstraintConfig, opts ValidateOptions) ValidationResult {
	result := ValidationResult{BlockingMessages: []string{}, Warnings: []string{}}
	if candidate.AudienceKey() == "" || NormalizeDay(candidate.Day) == "" || candidate.StartTime == "" || candidate.EndTime == "" {
		result.IsValid = true
		result.Incomplete = true
		result.Message = "not enough information to validate yet"
		return result
	}
	if candidate.ID == "" {
		candidate.ID = CandidateID
	}
	if ToMinutes(candidate.EndTime) <= ToMinutes(candidate.StartTime) {
		result.BlockingMessages = append(result.BlockingMessages, fmt.Sprintf("end time %s must be after start time %s", candidate.EndTime, candidate.StartTime))
		result.Message = result.BlockingMessages[0]
		return result
	}

	schedule := make([]models.Session, 0, len(existing)+1)
	for _, s := range existing {
		// the candidate replaces its own stored version when editing
		if (opts.ExcludeID != "" && s.ID == opts.ExcludeID) || s.ID == candidate.ID {
			continue
		}
		schedule = append(schedule, s)
	}
	schedule = append(schedule, candidate)

	for _, c := range Detect(schedule, DetectOptions{Variant: opts.Variant, Config: cfg, Rooms: opts.Rooms}) {
		if !c.Involves(candidate.ID) {
			continue
		}
		result.Conflicts = append(result.Conflicts, c)
		if c.Severity == models.SeverityHigh {
			result.BlockingMessages = append(result.BlockingMessages, c.Description)
		} else {
			result.Warnings = append(result.Warnings, c.Description)
		}
	}

	result.Stats = projectStats(candidate, schedule, cfg)
	checkDailyCaps(&result, candidate, schedule, cfg)
	checkSeating(&result, candidate, opts.Rooms)

	result.IsValid = len(result.BlockingMessages) == 0
	if result.IsValid {
		result.Message = "session can be scheduled"
	} else {
		result.Message = result.BlockingMessages[0]
	}
	return result
}

// checkSeating warns when the candidate alone outgrows its venue. The detector
// never flags a lone session, so this stays a warning and leaves IsValid alone.
func checkSeating(result *ValidationResult, candidate models.Session, rooms []models.Room) {
	if candidate.Headcount <= 0 || candidate.Venue == "" || isRemoteVenue(candidate.Venue) {
		return
	}
	capacity, known := roomCapacities(rooms)[normalizeKey(candidate.Venue)]
	if !known || candidate.Headcount <= capacity {
		return
	}
	result.Warnings = append(result.Warnings, fmt.Sprintf(
		"%s seats %d but %s holds only %d", describe(candidate), candidate.Headcount, candidate.Venue, capacity))
}

func sameAudienceDay(candidate models.Session, schedule []models.Session) []models.Session {
	audience := normalizeKey(candidate.AudienceKey())
	day := NormalizeDay(candidate.Day)
	var result []models.Session
	for _, s := range schedule {
		if normalizeKey(s.AudienceKey()) == audience && NormalizeDay(s.Day) == day {
			result = append(result, s)
		}
	}
	return result
}

func projectStats(candidate models.Session, schedule []models.Session, cfg models.ConstraintConfig) ProjectedStats {
	stats := ProjectedStats{Day: NormalizeDay(candidate.Day), Audience: candidate.AudienceKey()}
	for _, s := range sameAudienceDay(candidate, schedule) {
		stats.SessionCount++
		if EffectiveMode(s, cfg) == models.TeachingModePhysical {
			stats.PhysicalCount++
		} else {
			stats.OnlineCount++
		}
		if hours := Duration(s.StartTime, s.EndTime); hours > 0 {
			stats.TotalHours += hours
		}
	}
	return stats
}

func checkDailyCaps(result *ValidationResult, candidate models.Session, schedule []models.Session, cfg models.ConstraintConfig) {
	stats := result.Stats
	audience := audienceName(candidate)
	switch EffectiveMode(candidate, cfg) {
	case models.TeachingModePhysical:
		if cfg.MaxPhysicalPerDay > 0 && stats.PhysicalCount > cfg.MaxPhysicalPerDay {
			result.BlockingMessages = append(result.BlockingMessages, fmt.Sprintf(
				"maximum of %d physical sessions per day exceeded: %s already has %d on %s",
				cfg.MaxPhysicalPerDay, audience, stats.PhysicalCount-1, stats.Day))
		}
	case models.TeachingModeOnline:
		if cfg.MaxOnlinePerDay > 0 && stats.OnlineCount > cfg.MaxOnlinePerDay {
			result.BlockingMessages = append(result.BlockingMessages, fmt.Sprintf(
				"maximum of %d online sessions per day exceeded: %s already has %d on %s",
				cfg.MaxOnlinePerDay, audience, stats.OnlineCount-1, stats.Day))
		}
	}
	if cfg.MaxHoursPerDay > 0 && stats.TotalHours > cfg.MaxHoursPerDay {
		result.BlockingMessages = append(result.BlockingMessages, fmt.Sprintf(
			"maximum of %.1f teaching hours per day exceeded: %s would have %.1f on %s",
			cfg.MaxHoursPerDay, audience, stats.TotalHours, stats.Day))
	}
	if cfg.MinHoursPerDay > 0 && stats.TotalHours < cfg.MinHoursPerDay {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%s has %.1f teaching hours on %s, below the minimum of %.1f",
			audience, stats.TotalHours, stats.Day, cfg.MinHoursPerDay))
	}
	if cfg.RequireMixedMode && stats.SessionCount >= 2 && (stats.PhysicalCount == 0 || stats.OnlineCount == 0) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%s has only %s sessions on %s; mixed delivery is preferred",
			audience, EffectiveMode(candidate, cfg), stats.Day))
	}
	if cfg.AvoidConsecutiveSlots {
		start, end := ToMinutes(candidate.StartTime), ToMinutes(candidate.EndTime)
		for _, s := range sameAudienceDay(candidate, schedule) {
			if s.ID == candidate.ID {
				continue
			}
			if ToMinutes(s.EndTime) == start || ToMinutes(s.StartTime) == end {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"%s runs directly against %s for %s", describe(candidate), describe(s), audience))
			}
		}
	}
}
