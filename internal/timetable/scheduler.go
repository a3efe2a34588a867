package timetable

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// Strategy selects how the bulk scheduler orders candidate time slots.
type Strategy string

const (
	StrategyBalanced   Strategy = "balanced"
	StrategyRoundRobin Strategy = "round_robin"
	StrategyRandom     Strategy = "random"
)

// ParseStrategy maps a raw value onto a known strategy, defaulting to balanced.
func ParseStrategy(raw string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyRoundRobin:
		return StrategyRoundRobin
	case StrategyRandom:
		return StrategyRandom
	default:
		return StrategyBalanced
	}
}

// ReasonNoSuitableVenue is reported when no room can host a work item.
const ReasonNoSuitableVenue = "no suitable venue"

// ScheduleInput bundles everything one bulk placement run needs.
type ScheduleInput struct {
	WorkItems []models.WorkItem
	TimeSlots []models.TimeSlot
	Rooms     []models.Room
	Strategy  Strategy
	Existing  []models.Session
	Config    models.ConstraintConfig
	Variant   models.TimetableVariant
	// SelectedRooms restricts placement to rooms matching these ids or names.
	SelectedRooms []string
	// Rand drives the random strategy. Nil uses a fixed seed.
	Rand *rand.Rand
	// NewID generates session ids. Nil uses uuid.NewString.
	NewID func() string
}

// Assignment records which slot and room a work item landed in.
type Assignment struct {
	WorkItemIndex int    `json:"work_item_index"`
	SlotIndex     int    `json:"slot_index"`
	SlotID        string `json:"slot_id,omitempty"`
	RoomID        string `json:"room_id,omitempty"`
	SessionID     string `json:"session_id"`
}

// ScheduleResult lists the new sessions and the work items left out.
type ScheduleResult struct {
	Created     []models.Session         `json:"created"`
	Skipped     []models.SkippedWorkItem `json:"skipped"`
	Assignments []Assignment             `json:"assignments"`
}

// Schedule places each work item into a time slot and room. Existing sessions
// and work items are not modified; created sessions never conflict with one
// another.
func Schedule(in ScheduleInput) ScheduleResult {
	state := newPlacementState(in)
	result := ScheduleResult{Created: []models.Session{}, Skipped: []models.SkippedWorkItem{}, Assignments: []Assignment{}}

	for pos, itemIdx := range state.itemOrder() {
		item := in.WorkItems[itemIdx]
		if len(in.TimeSlots) == 0 {
			result.Skipped = append(result.Skipped, models.SkippedWorkItem{WorkItem: item, Reason: "no time slots available"})
			continue
		}

		placed := false
		reason := ""
		for _, slotIdx := range state.slotOrder(pos) {
			session, room, why := state.tryPlace(item, slotIdx)
			if why != "" {
				reason = why
				continue
			}
			state.commit(session, slotIdx)
			result.Created = append(result.Created, session)
			result.Assignments = append(result.Assignments, Assignment{
				WorkItemIndex: itemIdx,
				SlotIndex:     slotIdx,
				SlotID:        in.TimeSlots[slotIdx].ID,
				RoomID:        room.ID,
				SessionID:     session.ID,
			})
			placed = true
			break
		}
		if !placed {
			result.Skipped = append(result.Skipped, models.SkippedWorkItem{WorkItem: item, Reason: reason})
		}
	}
	return result
}

type placementState struct {
	in       ScheduleInput
	rooms    []models.Room
	rng      *rand.Rand
	newID    func() string
	pool     []models.Session
	created  map[string]struct{}
	dayLoad  map[string]int
	slotLoad map[int]int
}

func newPlacementState(in ScheduleInput) *placementState {
	s := &placementState{
		in:       in,
		rooms:    selectRooms(in.Rooms, in.SelectedRooms),
		rng:      in.Rand,
		newID:    in.NewID,
		pool:     make([]models.Session, len(in.Existing), len(in.Existing)+len(in.WorkItems)),
		created:  make(map[string]struct{}),
		dayLoad:  make(map[string]int),
		slotLoad: make(map[int]int),
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(1))
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	copy(s.pool, in.Existing)
	for _, existing := range in.Existing {
		s.dayLoad[NormalizeDay(existing.Day)]++
		for idx, slot := range in.TimeSlots {
			if sameWindow(existing, slot) {
				s.slotLoad[idx]++
			}
		}
	}
	return s
}

func (s *placementState) itemOrder() []int {
	if s.in.Strategy == StrategyRandom {
		return s.rng.Perm(len(s.in.WorkItems))
	}
	order := make([]int, len(s.in.WorkItems))
	for i := range order {
		order[i] = i
	}
	return order
}

// slotOrder lists every slot once, starting with the strategy's preferred pick.
func (s *placementState) slotOrder(pos int) []int {
	n := len(s.in.TimeSlots)
	order := make([]int, n)
	switch s.in.Strategy {
	case StrategyRoundRobin:
		for i := 0; i < n; i++ {
			order[i] = (pos + i) % n
		}
	case StrategyRandom:
		order = s.rng.Perm(n)
	default:
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			a, b := order[i], order[j]
			dayA := s.dayLoad[NormalizeDay(s.in.TimeSlots[a].Day)]
			dayB := s.dayLoad[NormalizeDay(s.in.TimeSlots[b].Day)]
			if dayA != dayB {
				return dayA < dayB
			}
			return s.slotLoad[a] < s.slotLoad[b]
		})
	}
	return order
}

func (s *placementState) tryPlace(item models.WorkItem, slotIdx int) (models.Session, models.Room, string) {
	slot := s.in.TimeSlots[slotIdx]
	if ToMinutes(slot.EndTime) <= ToMinutes(slot.StartTime) {
		return models.Session{}, models.Room{}, fmt.Sprintf("time slot %s has no duration", slot.ID)
	}
	session := s.sessionFor(item, slot)

	var room models.Room
	if EffectiveMode(session, s.in.Config) == models.TeachingModePhysical {
		var ok bool
		room, ok = s.pickRoom(session)
		if !ok {
			return models.Session{}, models.Room{}, ReasonNoSuitableVenue
		}
		session.Venue = room.Name
		session.Location = room.Location
	} else {
		session.Venue = models.RemoteVenue
		session.Location = models.RemoteVenue
	}

	check := Validate(session, s.pool, s.in.Config, ValidateOptions{Variant: s.in.Variant, Rooms: s.in.Rooms})
	if !check.IsValid {
		return models.Session{}, models.Room{}, check.Message
	}
	for _, c := range check.Conflicts {
		for _, id := range c.AffectedSessions {
			if _, mine := s.created[id]; mine && id != session.ID {
				return models.Session{}, models.Room{}, c.Description
			}
		}
	}
	return session, room, ""
}

func (s *placementState) sessionFor(item models.WorkItem, slot models.TimeSlot) models.Session {
	unitCode := item.UnitCode
	if unitCode == "" {
		unitCode = item.UnitID
	}
	// an explicit item mode only survives when the config honours it
	mode := DeliveryModeFor(slot.StartTime, slot.EndTime)
	if s.in.Config.HonorExplicitMode && item.TeachingMode != "" {
		mode = item.TeachingMode
	}
	return models.Session{
		ID:           s.newID(),
		Day:          NormalizeDay(slot.Day),
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		UnitID:       item.UnitID,
		UnitCode:     unitCode,
		UnitName:     item.UnitName,
		CreditHours:  Duration(slot.StartTime, slot.EndTime),
		TeachingMode: mode,
		Lecturer:     item.Lecturer,
		ClassID:      item.ClassID,
		ClassName:    item.ClassName,
		GroupID:      item.GroupID,
		Headcount:    item.Headcount,
		SemesterID:   item.SemesterID,
		ProgramID:    item.ProgramID,
		SchoolID:     item.SchoolID,
		Variant:      string(s.in.Variant),
	}
}

// pickRoom returns the smallest free room that seats the session.
func (s *placementState) pickRoom(session models.Session) (models.Room, bool) {
	for _, room := range s.rooms {
		if room.Capacity < session.Headcount {
			continue
		}
		if venueBusy(s.pool, room.Name, session, "") {
			continue
		}
		return room, true
	}
	return models.Room{}, false
}

func (s *placementState) commit(session models.Session, slotIdx int) {
	s.pool = append(s.pool, session)
	s.created[session.ID] = struct{}{}
	s.dayLoad[NormalizeDay(session.Day)]++
	s.slotLoad[slotIdx]++
}

// selectRooms applies the optional filter and sorts by ascending capacity.
func selectRooms(rooms []models.Room, selected []string) []models.Room {
	wanted := make(map[string]struct{}, len(selected))
	for _, key := range selected {
		if k := normalizeKey(key); k != "" {
			wanted[k] = struct{}{}
		}
	}
	result := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if len(wanted) > 0 {
			_, byID := wanted[normalizeKey(room.ID)]
			_, byName := wanted[normalizeKey(room.Name)]
			if !byID && !byName {
				continue
			}
		}
		result = append(result, room)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Capacity < result[j].Capacity
	})
	return result
}

// venueBusy reports whether venue hosts another session overlapping target.
func venueBusy(pool []models.Session, venue string, target models.Session, ignoreID string) bool {
	key := normalizeKey(venue)
	for _, s := range pool {
		if s.ID == ignoreID || normalizeKey(s.Venue) != key {
			continue
		}
		if sessionsOverlap(s, target) {
			return true
		}
	}
	return false
}

func sameWindow(s models.Session, slot models.TimeSlot) bool {
	return NormalizeDay(s.Day) == NormalizeDay(slot.Day) &&
		ToMinutes(s.StartTime) == ToMinutes(slot.StartTime) &&
		ToMinutes(s.EndTime) == ToMinutes(slot.EndTime)
}
