package timetable

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// AnchorPolicy decides which affected session of a pairwise conflict stays put.
type AnchorPolicy string

const (
	// AnchorFirst keeps the first affected session and repairs the second.
	AnchorFirst AnchorPolicy = "anchor_first"
	// AnchorLast keeps the last affected session and repairs the first.
	AnchorLast AnchorPolicy = "anchor_last"
)

// DefaultMaxIterations caps ResolveAll when no explicit cap is configured.
const DefaultMaxIterations = 50

const (
	ActionReassignVenue = "reassign_venue"
	ActionMoveSlot      = "move_slot"
	ActionShiftStart    = "shift_start"
)

// ResolveOptions tunes a repair run.
type ResolveOptions struct {
	Variant       models.TimetableVariant
	Config        models.ConstraintConfig
	Anchor        AnchorPolicy
	MaxIterations int
}

func (o ResolveOptions) maxIterations() int {
	if o.MaxIterations > 0 {
		return o.MaxIterations
	}
	return DefaultMaxIterations
}

// Change is one field rewritten by a repair.
type Change struct {
	SessionID string `json:"session_id"`
	Field     string `json:"field"`
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
}

// ResolveResult reports the outcome of repairing one conflict. On failure
// Updated holds the sessions exactly as they were passed in.
type ResolveResult struct {
	Success         bool             `json:"success"`
	Conflict        models.Conflict  `json:"conflict"`
	Action          string           `json:"action,omitempty"`
	TargetSessionID string           `json:"target_session_id,omitempty"`
	Updated         []models.Session `json:"-"`
	Changes         []Change         `json:"changes"`
	Message         string           `json:"message"`
}

// ResolveAllResult summarises an iterative repair run.
type ResolveAllResult struct {
	ResolvedCount int               `json:"resolved_count"`
	FailedCount   int               `json:"failed_count"`
	Iterations    int               `json:"iterations"`
	Sessions      []models.Session  `json:"sessions"`
	ChangeLog     []ResolveResult   `json:"change_log"`
	Remaining     []models.Conflict `json:"remaining"`
}

// ConflictScore weighs a conflict set: high counts 10, medium counts 1.
func ConflictScore(conflicts []models.Conflict) int {
	score := 0
	for _, c := range conflicts {
		if c.Severity == models.SeverityHigh {
			score += 10
		} else {
			score++
		}
	}
	return score
}

type candidate struct {
	action  string
	session models.Session
}

type resolver struct {
	sessions []models.Session
	rooms    []models.Room
	slots    []models.TimeSlot
	opts     ResolveOptions
}

func (r resolver) detect(sessions []models.Session) []models.Conflict {
	return Detect(sessions, DetectOptions{Variant: r.opts.Variant, Config: r.opts.Config, Rooms: r.rooms})
}

// ResolveOne tries to repair a single conflict by changing one affected
// session. The repair is accepted only when the conflict disappears and the
// weighted conflict score of the whole set drops; otherwise nothing changes.
func ResolveOne(conflict models.Conflict, sessions []models.Session, rooms []models.Room, slots []models.TimeSlot, opts ResolveOptions) ResolveResult {
	r := resolver{sessions: sessions, rooms: rooms, slots: slots, opts: opts}
	result := ResolveResult{Conflict: conflict, Updated: sessions, Changes: []Change{}}

	targetIdx, anchorIdx := r.pickTarget(conflict)
	if targetIdx < 0 {
		result.Message = "conflict does not reference known sessions"
		return result
	}
	target := sessions[targetIdx]
	result.TargetSessionID = target.ID

	before := ConflictScore(r.detect(sessions))
	for _, cand := range r.candidates(conflict, targetIdx, anchorIdx) {
		updated := make([]models.Session, len(sessions))
		copy(updated, sessions)
		updated[targetIdx] = cand.session

		after := r.detect(updated)
		if reproduced(after, conflict, sessions[anchorIdx].ID, target.ID) || ConflictScore(after) >= before {
			continue
		}
		result.Success = true
		result.Action = cand.action
		result.Updated = updated
		result.Changes = diffSessions(target, cand.session)
		result.Message = fmt.Sprintf("%s resolved by %s on %s", conflict.Type, cand.action, describe(target))
		return result
	}
	result.Message = fmt.Sprintf("no feasible repair for %s", conflict.Type)
	return result
}

// ResolveAll repeatedly detects and repairs conflicts until none remain, no
// repair helps, or the iteration cap is reached. Conflicts still present at
// the end are counted as failed.
func ResolveAll(sessions []models.Session, rooms []models.Room, slots []models.TimeSlot, opts ResolveOptions) ResolveAllResult {
	current := make([]models.Session, len(sessions))
	copy(current, sessions)
	r := resolver{rooms: rooms, slots: slots, opts: opts}
	result := ResolveAllResult{ChangeLog: []ResolveResult{}}

	for result.Iterations < opts.maxIterations() {
		conflicts := r.detect(current)
		if len(conflicts) == 0 {
			break
		}
		result.Iterations++
		progressed := false
		for _, c := range conflicts {
			attempt := ResolveOne(c, current, rooms, slots, opts)
			if !attempt.Success {
				continue
			}
			current = attempt.Updated
			result.ResolvedCount++
			result.ChangeLog = append(result.ChangeLog, attempt)
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}

	result.Sessions = current
	result.Remaining = r.detect(current)
	if result.Remaining == nil {
		result.Remaining = []models.Conflict{}
	}
	result.FailedCount = len(result.Remaining)
	return result
}

// pickTarget returns the index of the session to modify and of the session
// kept as the anchor, or -1 when the conflict cannot be mapped.
func (r resolver) pickTarget(c models.Conflict) (int, int) {
	indexes := make([]int, 0, len(c.AffectedSessions))
	for _, id := range c.AffectedSessions {
		if idx := indexOfSession(r.sessions, id); idx >= 0 {
			indexes = append(indexes, idx)
		}
	}
	if len(indexes) < 2 {
		return -1, -1
	}

	switch c.Type {
	case models.ConflictLecturerNoRest, models.ConflictStudentNoRest:
		a, b := indexes[0], indexes[1]
		if ToMinutes(r.sessions[b].StartTime) < ToMinutes(r.sessions[a].StartTime) {
			a, b = b, a
		}
		return b, a
	case models.ConflictMixedMode:
		if idx, ok := r.minorityMode(indexes); ok {
			anchor := indexes[0]
			if anchor == idx {
				anchor = indexes[1]
			}
			return idx, anchor
		}
	}

	if r.opts.Anchor == AnchorLast {
		return indexes[0], indexes[len(indexes)-1]
	}
	return indexes[1], indexes[0]
}

func (r resolver) minorityMode(indexes []int) (int, bool) {
	counts := make(map[models.TeachingMode]int)
	for _, idx := range indexes {
		counts[EffectiveMode(r.sessions[idx], r.opts.Config)]++
	}
	physical, online := counts[models.TeachingModePhysical], counts[models.TeachingModeOnline]
	if physical == online {
		return -1, false
	}
	minority := models.TeachingModeOnline
	if physical < online {
		minority = models.TeachingModePhysical
	}
	for _, idx := range indexes {
		if EffectiveMode(r.sessions[idx], r.opts.Config) == minority {
			return idx, true
		}
	}
	return -1, false
}

func (r resolver) candidates(c models.Conflict, targetIdx, anchorIdx int) []candidate {
	target := r.sessions[targetIdx]
	var result []candidate
	switch c.Type {
	case models.ConflictVenue:
		result = append(result, r.venueCandidates(target)...)
	case models.ConflictLecturerNoRest, models.ConflictStudentNoRest:
		if shifted, ok := r.shiftCandidate(target, r.sessions[anchorIdx]); ok {
			result = append(result, shifted)
		}
	}
	return append(result, r.slotCandidates(target)...)
}

// venueCandidates offers every free room that seats the target, smallest first.
func (r resolver) venueCandidates(target models.Session) []candidate {
	var result []candidate
	for _, room := range selectRooms(r.rooms, nil) {
		if room.Capacity < target.Headcount || normalizeKey(room.Name) == normalizeKey(target.Venue) {
			continue
		}
		if venueBusy(r.sessions, room.Name, target, target.ID) {
			continue
		}
		moved := target
		moved.Venue = room.Name
		moved.Location = room.Location
		result = append(result, candidate{action: ActionReassignVenue, session: moved})
	}
	return result
}

// shiftCandidate pushes the later session to start after the rest window.
func (r resolver) shiftCandidate(later, earlier models.Session) (candidate, bool) {
	length := ToMinutes(later.EndTime) - ToMinutes(later.StartTime)
	start := ToMinutes(earlier.EndTime) + r.opts.Config.RestThreshold()
	end := start + length
	if length <= 0 || end >= minutesPerDay || start <= ToMinutes(later.StartTime) {
		return candidate{}, false
	}
	if len(r.slots) > 0 && !r.gridAllows(later.Day, start, end) {
		return candidate{}, false
	}
	moved, ok := r.place(later, later.Day, FormatMinutes(start), FormatMinutes(end))
	if !ok {
		return candidate{}, false
	}
	return candidate{action: ActionShiftStart, session: moved}, true
}

func (r resolver) gridAllows(day string, start, end int) bool {
	for _, slot := range r.slots {
		if NormalizeDay(slot.Day) != NormalizeDay(day) {
			continue
		}
		if ToMinutes(slot.StartTime) <= start && end <= ToMinutes(slot.EndTime) {
			return true
		}
	}
	return false
}

// slotCandidates walks the same day from the target's start onwards, then the
// earlier part of that day, then the following days in week order.
func (r resolver) slotCandidates(target models.Session) []candidate {
	byDay := make(map[string][]models.TimeSlot)
	for _, slot := range r.slots {
		day := NormalizeDay(slot.Day)
		byDay[day] = append(byDay[day], slot)
	}
	for day := range byDay {
		list := byDay[day]
		sort.SliceStable(list, func(i, j int) bool {
			return ToMinutes(list[i].StartTime) < ToMinutes(list[j].StartTime)
		})
	}

	var ordered []models.TimeSlot
	day := NormalizeDay(target.Day)
	start := ToMinutes(target.StartTime)
	var earlier []models.TimeSlot
	for _, slot := range byDay[day] {
		if ToMinutes(slot.StartTime) >= start {
			ordered = append(ordered, slot)
		} else {
			earlier = append(earlier, slot)
		}
	}
	ordered = append(ordered, earlier...)
	if DayIndex(day) == 0 {
		for _, d := range weekDays {
			ordered = append(ordered, byDay[d]...)
		}
	} else {
		next := day
		for i := 1; i < len(weekDays); i++ {
			next = NextDay(next)
			ordered = append(ordered, byDay[next]...)
		}
	}

	var result []candidate
	for _, slot := range ordered {
		if sameWindow(target, slot) || ToMinutes(slot.EndTime) <= ToMinutes(slot.StartTime) {
			continue
		}
		moved, ok := r.place(target, slot.Day, slot.StartTime, slot.EndTime)
		if !ok {
			continue
		}
		result = append(result, candidate{action: ActionMoveSlot, session: moved})
	}
	return result
}

// place moves target to the given window and picks a venue that fits there.
func (r resolver) place(target models.Session, day, start, end string) (models.Session, bool) {
	moved := target
	moved.Day = NormalizeDay(day)
	moved.StartTime = start
	moved.EndTime = end
	if !(r.opts.Config.HonorExplicitMode && target.TeachingMode != "") {
		moved.TeachingMode = DeliveryModeFor(start, end)
	}
	if target.CreditHours != 0 {
		moved.CreditHours = Duration(start, end)
	}

	if EffectiveMode(moved, r.opts.Config) == models.TeachingModeOnline {
		moved.Venue = models.RemoteVenue
		moved.Location = models.RemoteVenue
		return moved, true
	}
	if target.Venue != "" && !isRemoteVenue(target.Venue) && !venueBusy(r.sessions, target.Venue, moved, target.ID) {
		return moved, true
	}
	for _, room := range selectRooms(r.rooms, nil) {
		if room.Capacity < target.Headcount || venueBusy(r.sessions, room.Name, moved, target.ID) {
			continue
		}
		moved.Venue = room.Name
		moved.Location = room.Location
		return moved, true
	}
	return models.Session{}, false
}

// reproduced reports whether the same type of conflict still binds anchor and target.
func reproduced(conflicts []models.Conflict, original models.Conflict, anchorID, targetID string) bool {
	for _, c := range conflicts {
		if c.Type == original.Type && c.Involves(anchorID) && c.Involves(targetID) {
			return true
		}
	}
	return false
}

func indexOfSession(sessions []models.Session, id string) int {
	for idx, s := range sessions {
		if s.ID == id {
			return idx
		}
	}
	return -1
}

func diffSessions(before, after models.Session) []Change {
	fields := []struct {
		name     string
		from, to string
	}{
		{"day", before.Day, after.Day},
		{"start_time", before.StartTime, after.StartTime},
		{"end_time", before.EndTime, after.EndTime},
		{"venue", before.Venue, after.Venue},
		{"location", before.Location, after.Location},
		{"teaching_mode", string(before.TeachingMode), string(after.TeachingMode)},
	}
	changes := make([]Change, 0, len(fields))
	for _, f := range fields {
		if f.from == f.to {
			continue
		}
		changes = append(changes, Change{SessionID: before.ID, Field: f.name, OldValue: f.from, NewValue: f.to})
	}
	return changes
}
