package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	"github.com/noah-isme/sma-timetable/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/export"
)

type timetableSessionStore interface {
	ListByScope(ctx context.Context, exec sqlx.ExtContext, scope models.SessionScope) ([]models.Session, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, sessions []models.Session) error
	UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, sessions []models.Session) error
}

type roomLister interface {
	List(ctx context.Context, schoolID string) ([]models.Room, error)
}

type timeSlotLister interface {
	List(ctx context.Context, schoolID string) ([]models.TimeSlot, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableService hosts the timetable engine: it loads sessions and reference
// data, runs detection, validation, scheduling and repair, and persists the results.
type TimetableService struct {
	sessions  timetableSessionStore
	rooms     roomLister
	slots     timeSlotLister
	tx        txProvider
	store     ProposalStore
	metrics   *MetricsService
	exporter  *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.TimetableConfig
	now       func() time.Time
	newID     func() string
}

// NewTimetableService wires the timetable service. Repositories and the
// transaction provider may be nil when persistence is disabled; requests must
// then carry their data inline.
func NewTimetableService(
	sessions timetableSessionStore,
	rooms roomLister,
	slots timeSlotLister,
	tx txProvider,
	store ProposalStore,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if store == nil {
		store = NewMemoryProposalStore(cfg.ProposalTTL)
	}
	if cfg.ResolverMaxIter <= 0 {
		cfg.ResolverMaxIter = timetable.DefaultMaxIterations
	}
	return &TimetableService{
		sessions:  sessions,
		rooms:     rooms,
		slots:     slots,
		tx:        tx,
		store:     store,
		metrics:   metrics,
		exporter:  export.NewCSVExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// DefaultConstraints returns the configured constraint defaults.
func (s *TimetableService) DefaultConstraints() models.ConstraintConfig {
	c := s.cfg.Constraints
	return models.ConstraintConfig{
		MaxPhysicalPerDay:     c.MaxPhysicalPerDay,
		MaxOnlinePerDay:       c.MaxOnlinePerDay,
		MinHoursPerDay:        c.MinHoursPerDay,
		MaxHoursPerDay:        c.MaxHoursPerDay,
		RequireMixedMode:      c.RequireMixedMode,
		AvoidConsecutiveSlots: c.AvoidConsecutiveSlots,
		MinimumRestMinutes:    c.MinimumRestMinutes,
		AllowBackToBack:       c.AllowBackToBack,
	}
}

func (s *TimetableService) constraints(override *models.ConstraintConfig) models.ConstraintConfig {
	if override != nil {
		return *override
	}
	return s.DefaultConstraints()
}

func variantOf(requested models.TimetableVariant, scope models.SessionScope) models.TimetableVariant {
	if requested != "" {
		return requested
	}
	if models.TimetableVariant(scope.Variant) == models.VariantExam {
		return models.VariantExam
	}
	return models.VariantClass
}

func (s *TimetableService) validate(payload interface{}, message string) error {
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

func (s *TimetableService) loadSessions(ctx context.Context, exec sqlx.ExtContext, inline []models.Session, scope models.SessionScope) ([]models.Session, error) {
	if len(inline) > 0 || scope.IsZero() {
		if err := checkSessionIDs(inline); err != nil {
			return nil, err
		}
		return inline, nil
	}
	if s.sessions == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "session persistence is disabled; send sessions inline")
	}
	start := time.Now()
	sessions, err := s.sessions.ListByScope(ctx, exec, scope)
	s.metrics.ObserveDBQuery("timetable_sessions_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable sessions")
	}
	return sessions, nil
}

// checkSessionIDs rejects inline sessions the engine could not tell apart.
// Conflicts, repairs and persistence are all keyed by session id.
func checkSessionIDs(sessions []models.Session) error {
	seen := make(map[string]struct{}, len(sessions))
	for i, session := range sessions {
		id := strings.TrimSpace(session.ID)
		if id == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %d has no id", i))
		}
		if _, dup := seen[id]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session id %q appears more than once", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *TimetableService) loadRooms(ctx context.Context, inline []models.Room, schoolID string) ([]models.Room, error) {
	if len(inline) > 0 || s.rooms == nil {
		return inline, nil
	}
	rooms, err := s.rooms.List(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	return rooms, nil
}

func (s *TimetableService) loadTimeSlots(ctx context.Context, inline []models.TimeSlot, schoolID string) ([]models.TimeSlot, error) {
	if len(inline) > 0 || s.slots == nil {
		return inline, nil
	}
	slots, err := s.slots.List(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	return slots, nil
}

// Detect reports every conflict in the session set.
func (s *TimetableService) Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error) {
	if err := s.validate(req, "invalid detect payload"); err != nil {
		return nil, err
	}
	sessions, err := s.loadSessions(ctx, nil, req.Sessions, req.Scope)
	if err != nil {
		return nil, err
	}
	rooms, err := s.loadRooms(ctx, req.Rooms, req.Scope.SchoolID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	conflicts := timetable.Detect(sessions, timetable.DetectOptions{
		Variant: variantOf(req.Variant, req.Scope),
		Config:  s.constraints(req.Config),
		Rooms:   rooms,
	})
	s.metrics.ObserveEngine(OperationDetect, time.Since(start))
	s.metrics.RecordConflicts(conflicts)

	s.logger.Debug("timetable conflicts detected", zap.Int("sessions", len(sessions)), zap.Int("conflicts", len(conflicts)))

	return &dto.DetectConflictsResponse{
		SessionCount:    len(sessions),
		Conflicts:       conflicts,
		Counts:          timetable.CountByType(conflicts),
		HasHighSeverity: timetable.HasHighSeverity(conflicts),
	}, nil
}

// Validate checks one candidate session against the existing schedule.
func (s *TimetableService) Validate(ctx context.Context, req dto.ValidateSessionRequest) (*timetable.ValidationResult, error) {
	if err := s.validate(req, "invalid validate payload"); err != nil {
		return nil, err
	}
	existing, err := s.loadSessions(ctx, nil, req.Existing, req.Scope)
	if err != nil {
		return nil, err
	}
	rooms, err := s.loadRooms(ctx, req.Rooms, req.Scope.SchoolID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := timetable.Validate(req.Candidate, existing, s.constraints(req.Config), timetable.ValidateOptions{
		ExcludeID: req.ExcludeID,
		Variant:   variantOf(req.Variant, req.Scope),
		Rooms:     rooms,
	})
	s.metrics.ObserveEngine(OperationValidate, time.Since(start))
	return &result, nil
}

// Schedule places the work items and stores the outcome as a proposal.
func (s *TimetableService) Schedule(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := s.validate(req, "invalid schedule payload"); err != nil {
		return nil, err
	}
	if s.cfg.MaxWorkItems > 0 && len(req.WorkItems) > s.cfg.MaxWorkItems {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d work items may be scheduled per run", s.cfg.MaxWorkItems))
	}

	existing, err := s.loadSessions(ctx, nil, req.Existing, req.Scope)
	if err != nil {
		return nil, err
	}
	rooms, err := s.loadRooms(ctx, req.Rooms, req.Scope.SchoolID)
	if err != nil {
		return nil, err
	}
	slots, err := s.loadTimeSlots(ctx, req.TimeSlots, req.Scope.SchoolID)
	if err != nil {
		return nil, err
	}

	rawStrategy := req.Strategy
	if rawStrategy == "" {
		rawStrategy = s.cfg.DefaultStrategy
	}
	strategy := timetable.ParseStrategy(rawStrategy)
	seed := s.now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	variant := variantOf(req.Variant, req.Scope)
	cfg := s.constraints(req.Config)

	start := time.Now()
	result := timetable.Schedule(timetable.ScheduleInput{
		WorkItems:     req.WorkItems,
		TimeSlots:     slots,
		Rooms:         rooms,
		Strategy:      strategy,
		Existing:      existing,
		Config:        cfg,
		Variant:       variant,
		SelectedRooms: req.SelectedClassrooms,
		Rand:          rand.New(rand.NewSource(seed)),
		NewID:         s.newID,
	})
	s.metrics.ObserveEngine(OperationSchedule, time.Since(start))
	s.metrics.RecordSchedulerOutcome(len(result.Created), len(result.Skipped))

	for i := range result.Created {
		stampScope(&result.Created[i], req.Scope, variant)
	}

	now := s.now().UTC()
	proposal := models.ScheduleProposal{
		ID:          s.newID(),
		Variant:     variant,
		Strategy:    string(strategy),
		Scope:       req.Scope,
		Config:      cfg,
		Created:     result.Created,
		Skipped:     result.Skipped,
		RequestedAt: now,
		ExpiresAt:   now.Add(s.cfg.ProposalTTL),
	}
	if err := s.store.Save(ctx, proposal); err != nil {
		return nil, err
	}

	s.logger.Info("timetable schedule run",
		zap.String("proposal_id", proposal.ID),
		zap.String("strategy", proposal.Strategy),
		zap.String("variant", string(variant)),
		zap.Int("work_items", len(req.WorkItems)),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)),
	)

	return &dto.ScheduleResponse{
		ProposalID:  proposal.ID,
		Strategy:    proposal.Strategy,
		Created:     result.Created,
		Skipped:     result.Skipped,
		Assignments: result.Assignments,
		ExpiresAt:   proposal.ExpiresAt,
	}, nil
}

func stampScope(session *models.Session, scope models.SessionScope, variant models.TimetableVariant) {
	if session.SemesterID == "" {
		session.SemesterID = scope.SemesterID
	}
	if session.ProgramID == "" {
		session.ProgramID = scope.ProgramID
	}
	if session.SchoolID == "" {
		session.SchoolID = scope.SchoolID
	}
	if session.Variant == "" {
		session.Variant = string(variant)
	}
}

// GetProposal returns a stored proposal.
func (s *TimetableService) GetProposal(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposal id is required")
	}
	return s.store.Get(ctx, id)
}

// CommitProposal persists a proposal after re-checking it against the current timetable.
func (s *TimetableService) CommitProposal(ctx context.Context, req dto.CommitProposalRequest) (*dto.CommitProposalResponse, error) {
	if err := s.validate(req, "invalid commit payload"); err != nil {
		return nil, err
	}
	proposal, err := s.store.Get(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	if s.sessions == nil || s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "timetable persistence is disabled")
	}
	if len(proposal.Created) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposal has no sessions to commit")
	}
	rooms, err := s.loadRooms(ctx, nil, proposal.Scope.SchoolID)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := s.loadSessions(ctx, tx, nil, proposal.Scope)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	all := append(append(make([]models.Session, 0, len(current)+len(proposal.Created)), current...), proposal.Created...)
	conflicts := timetable.Detect(all, timetable.DetectOptions{Variant: proposal.Variant, Config: proposal.Config, Rooms: rooms})
	s.metrics.ObserveEngine(OperationCommit, time.Since(start))

	blocking, warnings := touchingConflicts(conflicts, proposal.Created)
	if len(blocking) > 0 {
		s.metrics.RecordConflicts(blocking)
		s.logger.Warn("timetable proposal commit blocked",
			zap.String("proposal_id", proposal.ID),
			zap.Int("conflicts", len(blocking)),
		)
		conflictErr := &models.TimetableConflictError{Message: "proposal conflicts with the current timetable", Conflicts: blocking}
		err = appErrors.Wrap(conflictErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflictErr.Message)
		return nil, err
	}

	created := append([]models.Session(nil), proposal.Created...)
	if err = s.sessions.BulkCreate(ctx, tx, created); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable sessions")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return nil, err
	}

	if delErr := s.store.Delete(ctx, proposal.ID); delErr != nil {
		s.logger.Warn("failed to drop committed proposal", zap.String("proposal_id", proposal.ID), zap.Error(delErr))
	}
	s.logger.Info("timetable proposal committed", zap.String("proposal_id", proposal.ID), zap.Int("sessions", len(created)))

	return &dto.CommitProposalResponse{
		ProposalID: proposal.ID,
		Committed:  len(created),
		Sessions:   created,
		Warnings:   warnings,
	}, nil
}

// touchingConflicts splits the conflicts involving a created session into
// high-severity blockers and medium warnings.
func touchingConflicts(conflicts []models.Conflict, created []models.Session) (blocking, warnings []models.Conflict) {
	ids := make(map[string]struct{}, len(created))
	for _, c := range created {
		ids[c.ID] = struct{}{}
	}
	for _, c := range conflicts {
		touched := false
		for _, id := range c.AffectedSessions {
			if _, ok := ids[id]; ok {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}
		if c.Severity == models.SeverityHigh {
			blocking = append(blocking, c)
		} else {
			warnings = append(warnings, c)
		}
	}
	return blocking, warnings
}

type resolveContext struct {
	sessions []models.Session
	rooms    []models.Room
	slots    []models.TimeSlot
	opts     timetable.ResolveOptions
}

func (s *TimetableService) resolveInputs(ctx context.Context, sessions []models.Session, scope models.SessionScope, rooms []models.Room, slots []models.TimeSlot) (resolveContext, error) {
	var rc resolveContext
	var err error
	if rc.sessions, err = s.loadSessions(ctx, nil, sessions, scope); err != nil {
		return rc, err
	}
	if rc.rooms, err = s.loadRooms(ctx, rooms, scope.SchoolID); err != nil {
		return rc, err
	}
	if rc.slots, err = s.loadTimeSlots(ctx, slots, scope.SchoolID); err != nil {
		return rc, err
	}
	return rc, nil
}

// Resolve repairs one conflict. An infeasible repair returns ErrUnresolvable
// alongside the populated response.
func (s *TimetableService) Resolve(ctx context.Context, req dto.ResolveConflictRequest) (*dto.ResolveConflictResponse, error) {
	if err := s.validate(req, "invalid resolve payload"); err != nil {
		return nil, err
	}
	rc, err := s.resolveInputs(ctx, req.Sessions, req.Scope, req.Rooms, req.TimeSlots)
	if err != nil {
		return nil, err
	}
	opts := timetable.ResolveOptions{
		Variant: variantOf(req.Variant, req.Scope),
		Config:  s.constraints(req.Config),
		Anchor:  timetable.AnchorPolicy(req.Anchor),
	}

	var target models.Conflict
	if req.Conflict != nil {
		target = *req.Conflict
	} else {
		conflicts := timetable.Detect(rc.sessions, timetable.DetectOptions{Variant: opts.Variant, Config: opts.Config, Rooms: rc.rooms})
		if len(conflicts) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no conflicts to resolve")
		}
		idx := 0
		if req.ConflictIndex != nil {
			idx = *req.ConflictIndex
		}
		if idx >= len(conflicts) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("conflict index %d out of range (%d conflicts)", idx, len(conflicts)))
		}
		target = conflicts[idx]
	}

	start := time.Now()
	result := timetable.ResolveOne(target, rc.sessions, rc.rooms, rc.slots, opts)
	s.metrics.ObserveEngine(OperationResolve, time.Since(start))

	resp := &dto.ResolveConflictResponse{ResolveResult: result, Sessions: result.Updated}
	if !result.Success {
		s.metrics.RecordResolverRun(0, 1)
		return resp, appErrors.Clone(appErrors.ErrUnresolvable, result.Message)
	}
	s.metrics.RecordResolverRun(1, 0)

	if req.Persist {
		if err := s.persistPlacements(ctx, changedSessions(result.Updated, result.Changes)); err != nil {
			return nil, err
		}
		resp.Persisted = true
	}

	s.logger.Info("timetable conflict resolved",
		zap.String("type", string(target.Type)),
		zap.String("action", result.Action),
		zap.String("session_id", result.TargetSessionID),
		zap.Bool("persisted", resp.Persisted),
	)
	return resp, nil
}

// ResolveAll repairs conflicts until none remain, no repair applies, or the iteration cap is hit.
func (s *TimetableService) ResolveAll(ctx context.Context, req dto.ResolveAllRequest) (*dto.ResolveAllResponse, error) {
	if err := s.validate(req, "invalid resolve-all payload"); err != nil {
		return nil, err
	}
	rc, err := s.resolveInputs(ctx, req.Sessions, req.Scope, req.Rooms, req.TimeSlots)
	if err != nil {
		return nil, err
	}
	maxIter := req.MaxIterations
	if maxIter <= 0 {
		maxIter = s.cfg.ResolverMaxIter
	}
	opts := timetable.ResolveOptions{
		Variant:       variantOf(req.Variant, req.Scope),
		Config:        s.constraints(req.Config),
		Anchor:        timetable.AnchorPolicy(req.Anchor),
		MaxIterations: maxIter,
	}

	start := time.Now()
	result := timetable.ResolveAll(rc.sessions, rc.rooms, rc.slots, opts)
	s.metrics.ObserveEngine(OperationResolveAll, time.Since(start))
	s.metrics.RecordResolverRun(result.ResolvedCount, result.FailedCount)

	resp := &dto.ResolveAllResponse{ResolveAllResult: result}
	if req.Persist && result.ResolvedCount > 0 {
		var changes []timetable.Change
		for _, entry := range result.ChangeLog {
			changes = append(changes, entry.Changes...)
		}
		if err := s.persistPlacements(ctx, changedSessions(result.Sessions, changes)); err != nil {
			return nil, err
		}
		resp.Persisted = true
	}

	s.logger.Info("timetable resolve-all run",
		zap.Int("iterations", result.Iterations),
		zap.Int("resolved", result.ResolvedCount),
		zap.Int("failed", result.FailedCount),
		zap.Int("remaining", len(result.Remaining)),
		zap.Bool("persisted", resp.Persisted),
	)
	return resp, nil
}

func changedSessions(sessions []models.Session, changes []timetable.Change) []models.Session {
	ids := make(map[string]struct{}, len(changes))
	for _, c := range changes {
		ids[c.SessionID] = struct{}{}
	}
	changed := make([]models.Session, 0, len(ids))
	for _, session := range sessions {
		if _, ok := ids[session.ID]; ok {
			changed = append(changed, session)
		}
	}
	return changed
}

func (s *TimetableService) persistPlacements(ctx context.Context, sessions []models.Session) (err error) {
	if len(sessions) == 0 {
		return nil
	}
	if s.sessions == nil || s.tx == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "timetable persistence is disabled")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.sessions.UpdatePlacement(ctx, tx, sessions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "timetable session not found")
			return err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable sessions")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return err
	}
	return nil
}

var sessionExportHeaders = []string{
	"id", "day", "start_time", "end_time", "unit_code", "unit_name", "teaching_mode",
	"venue", "lecturer", "class_id", "group_id", "headcount",
}

// ExportSessions renders the session set as CSV ordered by day and start time.
func (s *TimetableService) ExportSessions(ctx context.Context, req dto.ExportSessionsRequest) (*dto.ExportFile, error) {
	sessions, err := s.loadSessions(ctx, nil, req.Sessions, req.Scope)
	if err != nil {
		return nil, err
	}
	ordered := append([]models.Session(nil), sessions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := timetable.DayIndex(ordered[i].Day), timetable.DayIndex(ordered[j].Day)
		if di != dj {
			return di < dj
		}
		return timetable.ToMinutes(ordered[i].StartTime) < timetable.ToMinutes(ordered[j].StartTime)
	})

	cfg := s.DefaultConstraints()
	dataset := export.Dataset{Headers: sessionExportHeaders}
	for _, session := range ordered {
		dataset.AddRow(map[string]string{
			"id":            session.ID,
			"day":           timetable.NormalizeDay(session.Day),
			"start_time":    session.StartTime,
			"end_time":      session.EndTime,
			"unit_code":     session.UnitCode,
			"unit_name":     session.UnitName,
			"teaching_mode": string(timetable.EffectiveMode(session, cfg)),
			"venue":         session.Venue,
			"lecturer":      session.Lecturer,
			"class_id":      session.ClassID,
			"group_id":      session.GroupID,
			"headcount":     strconv.Itoa(session.Headcount),
		})
	}
	return s.render("timetable-sessions.csv", dataset)
}

var conflictExportHeaders = []string{"type", "severity", "day", "affected_sessions", "description", "recommendation"}

// ExportConflicts renders the detector output as CSV.
func (s *TimetableService) ExportConflicts(ctx context.Context, req dto.DetectConflictsRequest) (*dto.ExportFile, error) {
	detected, err := s.Detect(ctx, req)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{Headers: conflictExportHeaders}
	for _, c := range detected.Conflicts {
		dataset.AddRow(map[string]string{
			"type":              string(c.Type),
			"severity":          string(c.Severity),
			"day":               c.Day,
			"affected_sessions": export.JoinCell(c.AffectedSessions),
			"description":       c.Description,
			"recommendation":    c.Recommendation,
		})
	}
	return s.render("timetable-conflicts.csv", dataset)
}

func (s *TimetableService) render(filename string, dataset export.Dataset) (*dto.ExportFile, error) {
	data, err := s.exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &dto.ExportFile{Filename: filename, ContentType: export.ContentTypeCSV, Data: data}, nil
}
