package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
)

// DetectConflictsRequest runs the detector over inline sessions or a stored scope.
type DetectConflictsRequest struct {
	Sessions []models.Session         `json:"sessions"`
	Scope    models.SessionScope      `json:"scope"`
	Variant  models.TimetableVariant  `json:"variant" validate:"omitempty,oneof=class exam"`
	Rooms    []models.Room            `json:"rooms"`
	Config   *models.ConstraintConfig `json:"config,omitempty"`
}

// DetectConflictsResponse lists conflicts with per-type counts.
type DetectConflictsResponse struct {
	SessionCount    int                         `json:"sessionCount"`
	Conflicts       []models.Conflict           `json:"conflicts"`
	Counts          map[models.ConflictType]int `json:"counts"`
	HasHighSeverity bool                        `json:"hasHighSeverity"`
}

// ValidateSessionRequest checks one proposed session against an existing schedule.
type ValidateSessionRequest struct {
	Candidate models.Session           `json:"candidate"`
	Existing  []models.Session         `json:"existing"`
	Scope     models.SessionScope      `json:"scope"`
	ExcludeID string                   `json:"excludeId"`
	Variant   models.TimetableVariant  `json:"variant" validate:"omitempty,oneof=class exam"`
	Rooms     []models.Room            `json:"rooms"`
	Config    *models.ConstraintConfig `json:"config,omitempty"`
}

// ScheduleRequest places work items into time slots and rooms as a proposal.
type ScheduleRequest struct {
	WorkItems          []models.WorkItem        `json:"workItems" validate:"required,min=1,dive"`
	TimeSlots          []models.TimeSlot        `json:"timeSlots"`
	Rooms              []models.Room            `json:"rooms"`
	SelectedClassrooms []string                 `json:"selectedClassrooms"`
	Existing           []models.Session         `json:"existing"`
	Scope              models.SessionScope      `json:"scope"`
	Strategy           string                   `json:"strategy" validate:"omitempty,oneof=balanced round_robin random"`
	Seed               *int64                   `json:"seed,omitempty"`
	Variant            models.TimetableVariant  `json:"variant" validate:"omitempty,oneof=class exam"`
	Config             *models.ConstraintConfig `json:"config,omitempty"`
}

// ScheduleResponse returns the stored proposal.
type ScheduleResponse struct {
	ProposalID  string                   `json:"proposalId"`
	Strategy    string                   `json:"strategy"`
	Created     []models.Session         `json:"created"`
	Skipped     []models.SkippedWorkItem `json:"skipped"`
	Assignments []timetable.Assignment   `json:"assignments"`
	ExpiresAt   time.Time                `json:"expiresAt"`
}

// CommitProposalRequest persists a stored proposal.
type CommitProposalRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// CommitProposalResponse reports what was persisted.
type CommitProposalResponse struct {
	ProposalID string            `json:"proposalId"`
	Committed  int               `json:"committed"`
	Sessions   []models.Session  `json:"sessions"`
	Warnings   []models.Conflict `json:"warnings,omitempty"`
}

// ResolveConflictRequest repairs one conflict. Either Conflict or ConflictIndex
// (into the detector output for the session set) picks the target.
type ResolveConflictRequest struct {
	Sessions      []models.Session         `json:"sessions"`
	Scope         models.SessionScope      `json:"scope"`
	Rooms         []models.Room            `json:"rooms"`
	TimeSlots     []models.TimeSlot        `json:"timeSlots"`
	Variant       models.TimetableVariant  `json:"variant" validate:"omitempty,oneof=class exam"`
	Config        *models.ConstraintConfig `json:"config,omitempty"`
	Anchor        string                   `json:"anchor" validate:"omitempty,oneof=anchor_first anchor_last"`
	Conflict      *models.Conflict         `json:"conflict,omitempty"`
	ConflictIndex *int                     `json:"conflictIndex,omitempty" validate:"omitempty,min=0"`
	Persist       bool                     `json:"persist"`
}

// ResolveConflictResponse wraps one repair outcome.
type ResolveConflictResponse struct {
	timetable.ResolveResult
	Sessions  []models.Session `json:"sessions"`
	Persisted bool             `json:"persisted"`
}

// ResolveAllRequest repairs conflicts until none remain or the cap is hit.
type ResolveAllRequest struct {
	Sessions      []models.Session         `json:"sessions"`
	Scope         models.SessionScope      `json:"scope"`
	Rooms         []models.Room            `json:"rooms"`
	TimeSlots     []models.TimeSlot        `json:"timeSlots"`
	Variant       models.TimetableVariant  `json:"variant" validate:"omitempty,oneof=class exam"`
	Config        *models.ConstraintConfig `json:"config,omitempty"`
	Anchor        string                   `json:"anchor" validate:"omitempty,oneof=anchor_first anchor_last"`
	MaxIterations int                      `json:"maxIterations" validate:"omitempty,min=1,max=1000"`
	Persist       bool                     `json:"persist"`
}

// ResolveAllResponse wraps the batch repair outcome.
type ResolveAllResponse struct {
	timetable.ResolveAllResult
	Persisted bool `json:"persisted"`
}

// ExportSessionsRequest renders sessions as CSV.
type ExportSessionsRequest struct {
	Sessions []models.Session    `json:"sessions"`
	Scope    models.SessionScope `json:"scope"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
