package models

import "time"

// SkippedWorkItem is a work item the scheduler could not place, with the reason.
type SkippedWorkItem struct {
	WorkItem WorkItem `json:"work_item"`
	Reason   string   `json:"reason"`
}

// ScheduleProposal is a bulk placement result awaiting commit.
type ScheduleProposal struct {
	ID          string            `json:"id"`
	Variant     TimetableVariant  `json:"variant"`
	Strategy    string            `json:"strategy"`
	Scope       SessionScope      `json:"scope"`
	Config      ConstraintConfig  `json:"config"`
	Created     []Session         `json:"created"`
	Skipped     []SkippedWorkItem `json:"skipped"`
	RequestedAt time.Time         `json:"requested_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// Expired reports whether the proposal is past its expiry at now.
func (p ScheduleProposal) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}
