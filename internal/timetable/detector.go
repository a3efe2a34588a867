package timetable

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// DetectOptions tunes a detection run.
type DetectOptions struct {
	Variant models.TimetableVariant
	Config  models.ConstraintConfig
	// Rooms supplies venue capacities for exam capacity checks.
	Rooms []models.Room
}

func (o DetectOptions) exam() bool {
	return o.Variant == models.VariantExam
}

// Detect returns every constraint violation in sessions. The result is
// deterministic: categories come in a fixed order, groups in order of first
// appearance, and affected session ids in input order.
func Detect(sessions []models.Session, opts DetectOptions) []models.Conflict {
	d := detector{sessions: sessions, opts: opts, rest: opts.Config.RestThreshold()}
	d.lecturerConflicts()
	if !opts.exam() {
		d.unitMultiSectionConflicts()
	}
	d.venueConflicts()
	d.audienceConflicts()
	if !opts.exam() {
		d.mixedModeConflicts()
	}
	return d.conflicts
}

type detector struct {
	sessions  []models.Session
	opts      DetectOptions
	rest      int
	conflicts []models.Conflict
}

type grouping struct {
	keys    []string
	members map[string][]int
}

func groupSessions(sessions []models.Session, key func(models.Session) (string, bool)) grouping {
	g := grouping{members: make(map[string][]int)}
	for idx, s := range sessions {
		k, ok := key(s)
		if !ok {
			continue
		}
		if _, seen := g.members[k]; !seen {
			g.keys = append(g.keys, k)
		}
		g.members[k] = append(g.members[k], idx)
	}
	return g
}

func dayKey(s models.Session) (string, bool) {
	day := NormalizeDay(s.Day)
	return day, day != ""
}

func (d *detector) emit(c models.Conflict) {
	d.conflicts = append(d.conflicts, c)
}

func (d *detector) lecturerConflicts() {
	groups := groupSessions(d.sessions, func(s models.Session) (string, bool) {
		day, ok := dayKey(s)
		lecturer := normalizeKey(s.Lecturer)
		return lecturer + "|" + day, ok && lecturer != ""
	})
	for _, key := range groups.keys {
		members := groups.members[key]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := d.sessions[members[i]], d.sessions[members[j]]
				switch {
				case sessionsOverlap(a, b):
					d.emit(pairConflict(models.ConflictLecturerOverlap, models.SeverityHigh, a, b,
						fmt.Sprintf("Lecturer %s is double-booked: %s and %s", a.Lecturer, describe(a), describe(b)),
						"Assign a different lecturer or move one session to a free time slot"))
				case !d.opts.Config.AllowBackToBack && restViolated(a, b, d.rest):
					d.emit(pairConflict(models.ConflictLecturerNoRest, models.SeverityMedium, a, b,
						fmt.Sprintf("Lecturer %s has under %d minutes between %s and %s", a.Lecturer, d.rest, describe(a), describe(b)),
						fmt.Sprintf("Leave at least %d minutes between the lecturer's sessions", d.rest)))
				}
			}
		}
	}
}

func (d *detector) unitMultiSectionConflicts() {
	groups := groupSessions(d.sessions, func(s models.Session) (string, bool) {
		day, ok := dayKey(s)
		unit := normalizeKey(s.UnitCode)
		key := strings.Join([]string{unit, day, strconv.Itoa(ToMinutes(s.StartTime)), strconv.Itoa(ToMinutes(s.EndTime))}, "|")
		return key, ok && unit != ""
	})
	for _, key := range groups.keys {
		members := groups.members[key]
		sections := make(map[string]struct{})
		for _, idx := range members {
			s := d.sessions[idx]
			sections[s.ClassID+"|"+s.GroupID] = struct{}{}
		}
		if len(sections) < 2 {
			continue
		}
		first := d.sessions[members[0]]
		d.emit(models.Conflict{
			Type:             models.ConflictUnitMultiSection,
			Severity:         models.SeverityHigh,
			Description:      fmt.Sprintf("Unit %s is offered to %d sections at the same time on %s %s-%s", first.UnitCode, len(sections), NormalizeDay(first.Day), first.StartTime, first.EndTime),
			Day:              NormalizeDay(first.Day),
			AffectedSessions: d.ids(members),
			Recommendation:   "Stagger the sections or merge them into a single cross-listed session",
			Meta:             map[string]any{"unit_code": first.UnitCode, "sections": len(sections)},
		})
	}
}

func (d *detector) venueConflicts() {
	groups := groupSessions(d.sessions, func(s models.Session) (string, bool) {
		day, ok := dayKey(s)
		venue := normalizeKey(s.Venue)
		return venue + "|" + day, ok && venue != "" && !isRemoteVenue(s.Venue)
	})
	capacities := roomCapacities(d.opts.Rooms)
	for _, key := range groups.keys {
		members := groups.members[key]
		if len(members) < 2 {
			continue
		}
		venue := d.sessions[members[0]].Venue
		if capacity, known := capacities[normalizeKey(venue)]; d.opts.exam() && known {
			d.capacityConflicts(members, venue, capacity)
			continue
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := d.sessions[members[i]], d.sessions[members[j]]
				if !sessionsOverlap(a, b) {
					continue
				}
				d.emit(pairConflict(models.ConflictVenue, models.SeverityHigh, a, b,
					fmt.Sprintf("Venue %s is double-booked: %s and %s", venue, describe(a), describe(b)),
					"Move one session to another available venue"))
			}
		}
	}
}

// capacityConflicts checks chains of overlapping exam sittings in one venue.
func (d *detector) capacityConflicts(members []int, venue string, capacity int) {
	ordered := make([]int, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ToMinutes(d.sessions[ordered[i]].StartTime) < ToMinutes(d.sessions[ordered[j]].StartTime)
	})

	var cluster []int
	clusterEnd := 0
	flush := func() {
		if len(cluster) >= 2 {
			d.checkCluster(cluster, venue, capacity)
		}
		cluster = nil
	}
	for _, idx := range ordered {
		s := d.sessions[idx]
		if len(cluster) > 0 && ToMinutes(s.StartTime) >= clusterEnd {
			flush()
		}
		if len(cluster) == 0 {
			clusterEnd = ToMinutes(s.EndTime)
		} else if end := ToMinutes(s.EndTime); end > clusterEnd {
			clusterEnd = end
		}
		cluster = append(cluster, idx)
	}
	flush()
}

// checkCluster reports the busiest moment of a cluster when the sittings live
// at that moment outnumber the seats. Sittings that never meet are not summed.
func (d *detector) checkCluster(cluster []int, venue string, capacity int) {
	var peak []int
	headcount := 0
	for _, at := range cluster {
		instant := ToMinutes(d.sessions[at].StartTime)
		var live []int
		total := 0
		for _, idx := range cluster {
			s := d.sessions[idx]
			if ToMinutes(s.StartTime) <= instant && instant < ToMinutes(s.EndTime) {
				live = append(live, idx)
				total += s.Headcount
			}
		}
		if len(live) >= 2 && total > headcount {
			peak, headcount = live, total
		}
	}
	if len(peak) < 2 || headcount <= capacity {
		return
	}

	// affected ids follow input order, not start order
	sort.Ints(peak)
	overflow := headcount - capacity
	first := d.sessions[peak[0]]
	d.emit(models.Conflict{
		Type:             models.ConflictVenue,
		Severity:         models.SeverityHigh,
		Description:      fmt.Sprintf("Venue %s holds %d but %d candidates sit concurrently on %s (overflow %d)", venue, capacity, headcount, NormalizeDay(first.Day), overflow),
		Day:              NormalizeDay(first.Day),
		AffectedSessions: d.ids(peak),
		Recommendation:   fmt.Sprintf("Move %d candidates to a larger venue or split the sitting", overflow),
		Meta:             map[string]any{"venue": venue, "capacity": capacity, "headcount": headcount, "overflow": overflow},
	})
}

func (d *detector) audienceConflicts() {
	groups := groupSessions(d.sessions, func(s models.Session) (string, bool) {
		day, ok := dayKey(s)
		audience := normalizeKey(s.AudienceKey())
		return audience + "|" + day, ok && audience != ""
	})
	overlapType := models.ConflictStudentGroupOverlap
	if d.opts.exam() {
		overlapType = models.ConflictClass
	}
	for _, key := range groups.keys {
		members := groups.members[key]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := d.sessions[members[i]], d.sessions[members[j]]
				audience := audienceName(a)
				switch {
				case sessionsOverlap(a, b):
					d.emit(pairConflict(overlapType, models.SeverityHigh, a, b,
						fmt.Sprintf("%s is booked into %s and %s at once", audience, describe(a), describe(b)),
						"Move one session so the group can attend both"))
				case !d.opts.Config.AllowBackToBack && restViolated(a, b, d.rest):
					d.emit(pairConflict(models.ConflictStudentNoRest, models.SeverityMedium, a, b,
						fmt.Sprintf("%s has under %d minutes between %s and %s", audience, d.rest, describe(a), describe(b)),
						fmt.Sprintf("Leave at least %d minutes between the group's sessions", d.rest)))
				}
			}
		}
	}
}

func (d *detector) mixedModeConflicts() {
	groups := groupSessions(d.sessions, func(s models.Session) (string, bool) {
		day, ok := dayKey(s)
		class := normalizeKey(s.ClassID)
		key := strings.Join([]string{class, day, strconv.Itoa(ToMinutes(s.StartTime)), strconv.Itoa(ToMinutes(s.EndTime))}, "|")
		return key, ok && class != ""
	})
	for _, key := range groups.keys {
		members := groups.members[key]
		modes := make(map[models.TeachingMode]int)
		for _, idx := range members {
			modes[EffectiveMode(d.sessions[idx], d.opts.Config)]++
		}
		if len(modes) < 2 {
			continue
		}
		first := d.sessions[members[0]]
		d.emit(models.Conflict{
			Type:             models.ConflictMixedMode,
			Severity:         models.SeverityMedium,
			Description:      fmt.Sprintf("Class %s mixes physical and online delivery on %s %s-%s", audienceName(first), NormalizeDay(first.Day), first.StartTime, first.EndTime),
			Day:              NormalizeDay(first.Day),
			AffectedSessions: d.ids(members),
			Recommendation:   "Deliver concurrent sessions of the class in a single mode",
			Meta: map[string]any{
				"physical": modes[models.TeachingModePhysical],
				"online":   modes[models.TeachingModeOnline],
			},
		})
	}
}

func (d *detector) ids(indexes []int) []string {
	ids := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		ids = append(ids, d.sessions[idx].ID)
	}
	return ids
}

func pairConflict(kind models.ConflictType, severity models.ConflictSeverity, a, b models.Session, description, recommendation string) models.Conflict {
	return models.Conflict{
		Type:             kind,
		Severity:         severity,
		Description:      description,
		Day:              NormalizeDay(a.Day),
		AffectedSessions: []string{a.ID, b.ID},
		Recommendation:   recommendation,
	}
}

func roomCapacities(rooms []models.Room) map[string]int {
	result := make(map[string]int, len(rooms)*2)
	for _, room := range rooms {
		if room.Capacity <= 0 {
			continue
		}
		if room.Name != "" {
			result[normalizeKey(room.Name)] = room.Capacity
		}
		if room.ID != "" {
			result[normalizeKey(room.ID)] = room.Capacity
		}
	}
	return result
}

func describe(s models.Session) string {
	label := s.UnitCode
	if label == "" {
		label = s.ID
	}
	return fmt.Sprintf("%s (%s %s-%s)", label, NormalizeDay(s.Day), s.StartTime, s.EndTime)
}

func audienceName(s models.Session) string {
	switch {
	case s.GroupName != "":
		return s.GroupName
	case s.GroupID != "":
		return s.GroupID
	case s.ClassName != "":
		return s.ClassName
	default:
		return s.ClassID
	}
}

// HasHighSeverity reports whether any conflict blocks a commit.
func HasHighSeverity(conflicts []models.Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == models.SeverityHigh {
			return true
		}
	}
	return false
}

// CountByType tallies conflicts per category.
func CountByType(conflicts []models.Conflict) map[models.ConflictType]int {
	counts := make(map[models.ConflictType]int)
	for _, c := range conflicts {
		counts[c.Type]++
	}
	return counts
}
