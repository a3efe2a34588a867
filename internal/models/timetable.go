package models

import "time"

// TeachingMode describes how a session is delivered.
type TeachingMode string

const (
	TeachingModePhysical TeachingMode = "physical"
	TeachingModeOnline   TeachingMode = "online"
)

// RemoteVenue is the venue sentinel used by online sessions.
const RemoteVenue = "Remote"

// TimetableVariant selects which family of checks the detector runs.
type TimetableVariant string

const (
	VariantClass TimetableVariant = "class"
	VariantExam  TimetableVariant = "exam"
)

// Session is one scheduled occurrence of a class or an exam.
type Session struct {
	ID               string       `db:"id" json:"id"`
	Day              string       `db:"day" json:"day"`
	StartTime        string       `db:"start_time" json:"start_time"`
	EndTime          string       `db:"end_time" json:"end_time"`
	UnitID           string       `db:"unit_id" json:"unit_id,omitempty"`
	UnitCode         string       `db:"unit_code" json:"unit_code"`
	UnitName         string       `db:"unit_name" json:"unit_name,omitempty"`
	CreditHours      float64      `db:"credit_hours" json:"credit_hours,omitempty"`
	TeachingMode     TeachingMode `db:"teaching_mode" json:"teaching_mode,omitempty"`
	Venue            string       `db:"venue" json:"venue"`
	Location         string       `db:"location" json:"location,omitempty"`
	Lecturer         string       `db:"lecturer" json:"lecturer"`
	ChiefInvigilator string       `db:"chief_invigilator" json:"chief_invigilator,omitempty"`
	ClassID          string       `db:"class_id" json:"class_id"`
	ClassName        string       `db:"class_name" json:"class_name,omitempty"`
	GroupID          string       `db:"group_id" json:"group_id,omitempty"`
	GroupName        string       `db:"group_name" json:"group_name,omitempty"`
	Headcount        int          `db:"headcount" json:"headcount"`
	SemesterID       string       `db:"semester_id" json:"semester_id,omitempty"`
	ProgramID        string       `db:"program_id" json:"program_id,omitempty"`
	SchoolID         string       `db:"school_id" json:"school_id,omitempty"`
	Variant          string       `db:"variant" json:"variant,omitempty"`
	CreatedAt        *time.Time   `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt        *time.Time   `db:"updated_at" json:"updated_at,omitempty"`
}

// AudienceKey identifies the student group a session belongs to. A group id
// wins over the class id.
func (s Session) AudienceKey() string {
	if s.GroupID != "" {
		return s.GroupID
	}
	return s.ClassID
}

// Room is a bookable venue. Reference data owned by the hosting application.
type Room struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
	Location string `db:"location" json:"location,omitempty"`
}

// TimeSlot is a schedulable window on one day.
type TimeSlot struct {
	ID        string `db:"id" json:"id"`
	Day       string `db:"day" json:"day"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// ConstraintConfig carries the per-run scheduling rules. Zero caps are disabled.
type ConstraintConfig struct {
	MaxPhysicalPerDay     int     `json:"max_physical_per_day" validate:"min=0"`
	MaxOnlinePerDay       int     `json:"max_online_per_day" validate:"min=0"`
	MinHoursPerDay        float64 `json:"min_hours_per_day" validate:"min=0"`
	MaxHoursPerDay        float64 `json:"max_hours_per_day" validate:"min=0"`
	RequireMixedMode      bool    `json:"require_mixed_mode"`
	AvoidConsecutiveSlots bool    `json:"avoid_consecutive_slots"`
	MinimumRestMinutes    int     `json:"minimum_rest_minutes" validate:"min=0"`
	AllowBackToBack       bool    `json:"allow_back_to_back"`
	HonorExplicitMode     bool    `json:"honor_explicit_mode"`
}

// DefaultMinimumRestMinutes applies when the configuration leaves the rest window unset.
const DefaultMinimumRestMinutes = 15

// RestThreshold returns the configured rest window falling back to the default.
func (c ConstraintConfig) RestThreshold() int {
	if c.MinimumRestMinutes > 0 {
		return c.MinimumRestMinutes
	}
	return DefaultMinimumRestMinutes
}

// ConflictType enumerates detected violation categories.
type ConflictType string

const (
	ConflictLecturerOverlap     ConflictType = "lecturer_overlap"
	ConflictLecturerNoRest      ConflictType = "lecturer_no_rest"
	ConflictVenue               ConflictType = "venue_conflict"
	ConflictStudentGroupOverlap ConflictType = "student_group_overlap"
	ConflictStudentNoRest       ConflictType = "student_no_rest"
	ConflictUnitMultiSection    ConflictType = "unit_multi_section_conflict"
	ConflictMixedMode           ConflictType = "mixed_mode_conflict"
	ConflictClass               ConflictType = "class_conflict"
)

// ConflictSeverity grades a conflict. High blocks a commit, medium warns.
type ConflictSeverity string

const (
	SeverityHigh   ConflictSeverity = "high"
	SeverityMedium ConflictSeverity = "medium"
)

// Conflict is a computed constraint violation over a session set.
type Conflict struct {
	Type             ConflictType     `json:"type"`
	Severity         ConflictSeverity `json:"severity"`
	Description      string           `json:"description"`
	Day              string           `json:"day,omitempty"`
	AffectedSessions []string         `json:"affected_sessions"`
	Recommendation   string           `json:"recommendation,omitempty"`
	Meta             map[string]any   `json:"meta,omitempty"`
}

// Involves reports whether the session id is among the affected sessions.
func (c Conflict) Involves(sessionID string) bool {
	for _, id := range c.AffectedSessions {
		if id == sessionID {
			return true
		}
	}
	return false
}

// WorkItem is an unscheduled (class, unit) pairing awaiting placement.
type WorkItem struct {
	ClassID      string       `json:"class_id" validate:"required"`
	ClassName    string       `json:"class_name,omitempty"`
	GroupID      string       `json:"group_id,omitempty"`
	UnitID       string       `json:"unit_id" validate:"required"`
	UnitCode     string       `json:"unit_code,omitempty"`
	UnitName     string       `json:"unit_name,omitempty"`
	Lecturer     string       `json:"lecturer,omitempty"`
	Headcount    int          `json:"headcount" validate:"min=0"`
	TeachingMode TeachingMode `json:"teaching_mode,omitempty" validate:"omitempty,oneof=physical online"`
	SemesterID   string       `json:"semester_id,omitempty"`
	ProgramID    string       `json:"program_id,omitempty"`
	SchoolID     string       `json:"school_id,omitempty"`
}

// SessionScope narrows session loads to one semester/program/school.
type SessionScope struct {
	SemesterID string `json:"semester_id,omitempty" form:"semesterId"`
	ProgramID  string `json:"program_id,omitempty" form:"programId"`
	SchoolID   string `json:"school_id,omitempty" form:"schoolId"`
	Variant    string `json:"variant,omitempty" form:"variant"`
}

// IsZero reports whether no scope filter is set.
func (s SessionScope) IsZero() bool {
	return s.SemesterID == "" && s.ProgramID == "" && s.SchoolID == ""
}

// TimetableConflictError is returned when a write would break a hard constraint.
type TimetableConflictError struct {
	Message   string     `json:"message"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Error implements the error interface.
func (e *TimetableConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
