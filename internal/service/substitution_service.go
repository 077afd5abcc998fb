package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/substitution"
	"github.com/noah-isme/sma-substitution-api/pkg/cache"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/export"
)

const dateLayout = "2006-01-02"

type teacherRoster interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type classLister interface {
	ListAll(ctx context.Context) ([]models.Class, error)
}

type lessonLister interface {
	ListAll(ctx context.Context) ([]models.Lesson, error)
}

type overlayReader interface {
	ListOn(ctx context.Context, date time.Time) ([]models.CalendarOverlay, error)
}

type absenceStore interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.Absence, error)
	Upsert(ctx context.Context, absence *models.Absence) error
}

type substitutionSaver interface {
	SaveForDate(ctx context.Context, date time.Time, records []models.Substitution) error
}

// SubstitutionSources groups the repositories a board is built from and saved to.
type SubstitutionSources struct {
	Teachers      teacherRoster
	Classes       classLister
	Lessons       lessonLister
	Overlays      overlayReader
	Absences      absenceStore
	Substitutions substitutionSaver
}

// SubstitutionConfig tunes board lifetime and ranking caching.
type SubstitutionConfig struct {
	PeriodsPerDay   int
	BoardTTL        time.Duration
	RankingCacheTTL time.Duration
}

// SubstitutionService runs the planning boards behind the substitution wizard.
type SubstitutionService struct {
	src       SubstitutionSources
	cache     *CacheService
	metrics   *MetricsService
	store     *boardStore
	cfg       SubstitutionConfig
	exporters map[string]export.Exporter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubstitutionService wires a SubstitutionService. cache and metrics may be nil.
func NewSubstitutionService(
	src SubstitutionSources,
	cacheSvc *CacheService,
	metrics *MetricsService,
	cfg SubstitutionConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PeriodsPerDay <= 0 {
		cfg.PeriodsPerDay = substitution.DefaultPeriodsPerDay
	}
	csv, pdf := export.NewCSVExporter(), export.NewPDFExporter()
	return &SubstitutionService{
		src:     src,
		cache:   cacheSvc,
		metrics: metrics,
		store:   newBoardStore(cfg.BoardTTL),
		cfg:     cfg,
		exporters: map[string]export.Exporter{
			csv.Extension(): csv,
			pdf.Extension(): pdf,
		},
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Slots lists every lesson needing cover on the date.
func (s *SubstitutionService) Slots(ctx context.Context, date string) (*dto.SlotListResponse, error) {
	var resp *dto.SlotListResponse
	err := s.withBoard(ctx, date, func(b *substitution.Board, _ string) error {
		views := b.Slots()
		items := make([]dto.SlotItem, 0, len(views))
		for _, v := range views {
			items = append(items, s.slotItem(b, v))
		}
		resp = &dto.SlotListResponse{Date: date, BoardVersion: b.Version(), Slots: items}
		return nil
	})
	return resp, err
}

// Candidates ranks the candidates for one slot.
func (s *SubstitutionService) Candidates(ctx context.Context, date, absentTeacherID string, period int, rawFilter string) (*dto.CandidateListResponse, error) {
	filter, err := substitution.ParseFilter(rawFilter)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	slot := substitution.SlotKey{AbsentTeacherID: absentTeacherID, Period: period}

	var resp *dto.CandidateListResponse
	err = s.withBoard(ctx, date, func(b *substitution.Board, generation string) error {
		key := rankingKey(date, generation, b.Version(), slot, filter)
		var cached dto.CandidateListResponse
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			resp = &cached
			return nil
		}

		ranked, err := b.RankCandidates(slot, filter)
		if err != nil {
			return translateEngineError(err)
		}
		if ranked == nil {
			ranked = []substitution.CandidateAssessment{}
		}
		resp = &dto.CandidateListResponse{
			Date:         date,
			Slot:         slot,
			Filter:       filter,
			BoardVersion: b.Version(),
			Candidates:   ranked,
		}
		_ = s.cache.Set(ctx, key, resp, s.cfg.RankingCacheTTL)
		return nil
	})
	return resp, err
}

// Assign puts a substitute on a slot.
func (s *SubstitutionService) Assign(ctx context.Context, date, absentTeacherID string, period int, req dto.AssignRequest) (*dto.SlotResolutionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	slot := substitution.SlotKey{AbsentTeacherID: absentTeacherID, Period: period}

	var resp *dto.SlotResolutionResponse
	err := s.mutate(ctx, date, func(b *substitution.Board) error {
		if err := b.Assign(slot, req.SubstituteID); err != nil {
			s.recordRejection(err)
			return translateEngineError(err)
		}
		s.metrics.RecordAssignment(OutcomeAssigned)
		s.logger.Info("substitute assigned",
			zap.String("date", date),
			zap.String("slot_teacher", slot.AbsentTeacherID),
			zap.Int("period", slot.Period),
			zap.String("substitute", req.SubstituteID),
		)
		resp = s.resolutionResponse(b, slot, true, "")
		return nil
	})
	return resp, err
}

// Unassign clears a slot back to unresolved.
func (s *SubstitutionService) Unassign(ctx context.Context, date, absentTeacherID string, period int) (*dto.SlotResolutionResponse, error) {
	slot := substitution.SlotKey{AbsentTeacherID: absentTeacherID, Period: period}

	var resp *dto.SlotResolutionResponse
	err := s.mutate(ctx, date, func(b *substitution.Board) error {
		if err := b.Unassign(slot); err != nil {
			return translateEngineError(err)
		}
		s.metrics.RecordAssignment(OutcomeUnassigned)
		s.logger.Info("slot cleared",
			zap.String("date", date),
			zap.String("slot_teacher", slot.AbsentTeacherID),
			zap.Int("period", slot.Period),
		)
		resp = s.resolutionResponse(b, slot, true, "")
		return nil
	})
	return resp, err
}

// ToggleAssistant flips classroom assistant coverage. A class without an assistant is reported, not failed.
func (s *SubstitutionService) ToggleAssistant(ctx context.Context, date, absentTeacherID string, period int) (*dto.SlotResolutionResponse, error) {
	slot := substitution.SlotKey{AbsentTeacherID: absentTeacherID, Period: period}

	var resp *dto.SlotResolutionResponse
	err := s.mutate(ctx, date, func(b *substitution.Board) error {
		_, err := b.ToggleAssistantCoverage(slot)
		var noAssistant *substitution.NoAssistantConfiguredError
		switch {
		case errors.As(err, &noAssistant):
			s.metrics.RecordAssignment(OutcomeNoAssist)
			resp = s.resolutionResponse(b, slot, false, err.Error())
			return nil
		case err != nil:
			return translateEngineError(err)
		}
		s.metrics.RecordAssignment(OutcomeAssistant)
		s.logger.Info("assistant coverage toggled",
			zap.String("date", date),
			zap.String("slot_teacher", slot.AbsentTeacherID),
			zap.Int("period", slot.Period),
		)
		resp = s.resolutionResponse(b, slot, true, "")
		return nil
	})
	return resp, err
}

// ToggleMerge flips merging the slot's class into the target class.
func (s *SubstitutionService) ToggleMerge(ctx context.Context, date, absentTeacherID string, period int, req dto.MergeRequest) (*dto.SlotResolutionResponse, error) {
	slot := substitution.SlotKey{AbsentTeacherID: absentTeacherID, Period: period}

	var resp *dto.SlotResolutionResponse
	err := s.mutate(ctx, date, func(b *substitution.Board) error {
		if _, err := b.ToggleClassMerge(slot, strings.TrimSpace(req.TargetClassID)); err != nil {
			return translateEngineError(err)
		}
		s.metrics.RecordAssignment(OutcomeMerge)
		s.logger.Info("class merge toggled",
			zap.String("date", date),
			zap.String("slot_teacher", slot.AbsentTeacherID),
			zap.Int("period", slot.Period),
			zap.String("target_class", req.TargetClassID),
		)
		resp = s.resolutionResponse(b, slot, true, "")
		return nil
	})
	return resp, err
}

// BulkAssign gives every open slot of one absent teacher to the same substitute.
func (s *SubstitutionService) BulkAssign(ctx context.Context, date string, req dto.BulkAssignRequest) (*dto.BulkAssignResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}

	var resp *dto.BulkAssignResponse
	err := s.mutate(ctx, date, func(b *substitution.Board) error {
		result, err := b.BulkAssignForTeacher(ctx, req.AbsentTeacherID, req.SubstituteID)
		if err != nil {
			return translateEngineError(err)
		}
		s.metrics.RecordBatchSlots("assigned", len(result.Assigned))
		s.metrics.RecordBatchSlots("skipped", len(result.Skipped))
		s.metrics.RecordBatchSlots("failed", len(result.Failed))
		s.logger.Info("bulk assignment",
			zap.String("date", date),
			zap.String("slot_teacher", req.AbsentTeacherID),
			zap.String("substitute", req.SubstituteID),
			zap.Int("assigned", len(result.Assigned)),
			zap.Int("failed", len(result.Failed)),
		)
		resp = &dto.BulkAssignResponse{
			Assigned:     nonNilSlots(result.Assigned),
			Skipped:      nonNilSlots(result.Skipped),
			Failed:       failureItems(result.Failed),
			BoardVersion: b.Version(),
		}
		return nil
	})
	return resp, err
}

// AutoAssign fills the day greedily with the best eligible candidate per slot.
func (s *SubstitutionService) AutoAssign(ctx context.Context, date string) (*dto.AutoAssignResponse, error) {
	var resp *dto.AutoAssignResponse
	err := s.mutate(ctx, date, func(b *substitution.Board) error {
		report, err := b.BatchAutoAssign(ctx)
		if err != nil {
			return translateEngineError(err)
		}
		s.metrics.RecordBatchSlots("assigned", len(report.Assigned))
		s.metrics.RecordBatchSlots("unresolved", len(report.Unresolved))
		s.metrics.RecordBatchSlots("failed", len(report.Failed))
		s.logger.Info("automatic assignment",
			zap.String("date", date),
			zap.Int("assigned", len(report.Assigned)),
			zap.Int("unresolved", len(report.Unresolved)),
		)
		placements := report.Assigned
		if placements == nil {
			placements = []substitution.Placement{}
		}
		resp = &dto.AutoAssignResponse{
			Assigned:     placements,
			Unresolved:   nonNilSlots(report.Unresolved),
			Failed:       failureItems(report.Failed),
			BoardVersion: b.Version(),
		}
		return nil
	})
	return resp, err
}

// Snapshot returns every slot of the day with its resolution.
func (s *SubstitutionService) Snapshot(ctx context.Context, date string) (*dto.SnapshotResponse, error) {
	var resp *dto.SnapshotResponse
	err := s.withBoard(ctx, date, func(b *substitution.Board, _ string) error {
		views := b.Slots()
		entries := make([]dto.SnapshotEntry, 0, len(views))
		for _, v := range views {
			entries = append(entries, dto.SnapshotEntry{Slot: v.Slot, Resolution: s.resolutionItem(b, v.Resolution)})
		}
		resp = &dto.SnapshotResponse{Date: date, BoardVersion: b.Version(), Entries: entries}
		return nil
	})
	return resp, err
}

// Save persists the day's substitute assignments, replacing what was stored for the date before.
func (s *SubstitutionService) Save(ctx context.Context, date string) (*dto.SaveResponse, error) {
	var resp *dto.SaveResponse
	err := s.withBoard(ctx, date, func(b *substitution.Board, _ string) error {
		now := s.now().UTC()
		resp = &dto.SaveResponse{
			Date:         date,
			Saved:        []models.Substitution{},
			NotPersisted: []dto.SnapshotEntry{},
			Unresolved:   []substitution.SlotKey{},
			SavedAt:      now,
		}
		for _, v := range b.Slots() {
			switch v.Resolution.Kind {
			case substitution.SubstituteAssigned:
				resp.Saved = append(resp.Saved, models.Substitution{
					ID:                  uuid.NewString(),
					AbsentTeacherID:     v.Slot.AbsentTeacherID,
					Period:              v.Slot.Period,
					Date:                b.Date(),
					SubstituteTeacherID: v.Resolution.SubstituteID,
					CreatedAt:           now,
				})
			case substitution.Unresolved:
				resp.Unresolved = append(resp.Unresolved, v.Slot)
			default:
				resp.NotPersisted = append(resp.NotPersisted, dto.SnapshotEntry{Slot: v.Slot, Resolution: s.resolutionItem(b, v.Resolution)})
			}
		}

		start := time.Now()
		if err := s.src.Substitutions.SaveForDate(ctx, b.Date(), resp.Saved); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save substitutions")
		}
		s.metrics.ObserveDBQuery("save_substitutions", time.Since(start))
		s.logger.Info("substitutions saved",
			zap.String("date", date),
			zap.Int("saved", len(resp.Saved)),
			zap.Int("unresolved", len(resp.Unresolved)),
		)
		return nil
	})
	return resp, err
}

// Export renders the day's cover sheet as csv (default) or pdf.
func (s *SubstitutionService) Export(ctx context.Context, date, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	var file *dto.ExportFile
	err := s.withBoard(ctx, date, func(b *substitution.Board, _ string) error {
		body, err := exporter.Render(s.coverSheet(b))
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render cover sheet")
		}
		file = &dto.ExportFile{
			Filename:    fmt.Sprintf("cover-%s.%s", date, exporter.Extension()),
			ContentType: exporter.ContentType(),
			Body:        body,
		}
		return nil
	})
	return file, err
}

// Pool lists the reserve pool.
func (s *SubstitutionService) Pool(ctx context.Context, date string) (*dto.PoolResponse, error) {
	var resp *dto.PoolResponse
	err := s.withBoard(ctx, date, func(b *substitution.Board, _ string) error {
		resp = s.poolResponse(b)
		return nil
	})
	return resp, err
}

// ActivatePool adds a teacher to the reserve pool. Teachers with no lessons that day need explicit confirmation.
func (s *SubstitutionService) ActivatePool(ctx context.Context, date string, req dto.PoolRequest) (*dto.PoolChangeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pool payload")
	}

	var resp *dto.PoolChangeResponse
	err := s.mutate(ctx, date, func(b *substitution.Board) error {
		if _, ok := b.Teacher(req.TeacherID); !ok {
			return translateEngineError(substitution.ErrUnknownTeacher)
		}
		if !inPool(b.PoolPartition(), req.TeacherID) && !b.Timetable().HasLessons(req.TeacherID, b.Weekday()) && !req.Confirm {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher has no lessons on this day; resend with confirm=true to add them on call")
		}
		changed, err := b.ActivatePool(req.TeacherID)
		if err != nil {
			return translateEngineError(err)
		}
		s.logger.Info("pool member added", zap.String("date", date), zap.String("teacher", req.TeacherID), zap.Bool("changed", changed))
		resp = &dto.PoolChangeResponse{TeacherID: req.TeacherID, Changed: changed, Pool: *s.poolResponse(b)}
		return nil
	})
	return resp, err
}

// DeactivatePool removes a teacher from the reserve pool.
func (s *SubstitutionService) DeactivatePool(ctx context.Context, date, teacherID string) (*dto.PoolChangeResponse, error) {
	var resp *dto.PoolChangeResponse
	err := s.mutate(ctx, date, func(b *substitution.Board) error {
		changed, err := b.DeactivatePool(teacherID)
		if err != nil {
			return translateEngineError(err)
		}
		s.logger.Info("pool member removed", zap.String("date", date), zap.String("teacher", teacherID), zap.Bool("changed", changed))
		resp = &dto.PoolChangeResponse{TeacherID: teacherID, Changed: changed, Pool: *s.poolResponse(b)}
		return nil
	})
	return resp, err
}

// RecordAbsence stores an absence and, when the date's board is open, applies it immediately.
func (s *SubstitutionService) RecordAbsence(ctx context.Context, req dto.RecordAbsenceRequest) (*dto.AbsenceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}
	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	for _, p := range []*int{req.StartPeriod, req.EndPeriod} {
		if p != nil && *p > s.cfg.PeriodsPerDay {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period must be between 1 and %d", s.cfg.PeriodsPerDay))
		}
	}
	if req.StartPeriod != nil && req.EndPeriod != nil && *req.StartPeriod > *req.EndPeriod {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startPeriod must not be after endPeriod")
	}

	teacher, err := s.src.Teachers.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is inactive")
	}

	key := day.Format(dateLayout)
	entry := s.store.peek(key)
	if entry != nil {
		defer s.store.release(entry)
	}
	// An open board built before the teacher joined the roster cannot take the absence; rebuild it instead.
	rebuild := false
	if entry != nil {
		_, known := entry.board.Teacher(req.EmployeeID)
		rebuild = !known
	}

	absence := &models.Absence{
		EmployeeID:  req.EmployeeID,
		Date:        day,
		StartPeriod: req.StartPeriod,
		EndPeriod:   req.EndPeriod,
	}
	if err := s.src.Absences.Upsert(ctx, absence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record absence")
	}

	resp := &dto.AbsenceResponse{Absence: *absence, Released: []substitution.SlotKey{}}
	switch {
	case rebuild:
		entry.board = nil
		s.invalidate(ctx, key)
	case entry != nil:
		released, err := entry.board.AddAbsence(*absence)
		if err != nil {
			return nil, translateEngineError(err)
		}
		resp.Released = nonNilSlots(released)
		s.invalidate(ctx, key)
	}
	s.logger.Info("absence recorded",
		zap.String("date", key),
		zap.String("teacher", req.EmployeeID),
		zap.Bool("board_open", entry != nil),
		zap.Bool("board_rebuild", rebuild),
		zap.Int("released", len(resp.Released)),
	)
	return resp, nil
}

// ListAbsences returns the absences recorded for a date.
func (s *SubstitutionService) ListAbsences(ctx context.Context, date string) ([]models.Absence, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	absences, err := s.src.Absences.ListByDate(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	if absences == nil {
		absences = []models.Absence{}
	}
	return absences, nil
}

// Reload discards the in-memory board for a date so the next call rebuilds it from storage.
func (s *SubstitutionService) Reload(date string) error {
	day, err := parseDate(date)
	if err != nil {
		return err
	}
	s.store.drop(day.Format(dateLayout))
	s.metrics.SetBoardsOpen(s.store.size())
	return nil
}

func (s *SubstitutionService) withBoard(ctx context.Context, date string, fn func(b *substitution.Board, generation string) error) error {
	day, err := parseDate(date)
	if err != nil {
		return err
	}
	entry := s.store.acquire(day.Format(dateLayout))
	defer s.store.release(entry)

	if entry.board == nil {
		board, err := s.loadBoard(ctx, day)
		if err != nil {
			return err
		}
		entry.board = board
		entry.generation = uuid.NewString()[:8]
		s.metrics.SetBoardsOpen(s.store.size())
	}
	return fn(entry.board, entry.generation)
}

// mutate runs fn against the board and drops cached rankings for the date afterwards.
func (s *SubstitutionService) mutate(ctx context.Context, date string, fn func(b *substitution.Board) error) error {
	err := s.withBoard(ctx, date, func(b *substitution.Board, _ string) error {
		return fn(b)
	})
	if err == nil {
		s.invalidate(ctx, date)
	}
	return err
}

func (s *SubstitutionService) invalidate(ctx context.Context, date string) {
	_ = s.cache.Invalidate(ctx, cache.Key("ranking", date)+":*")
}

func (s *SubstitutionService) loadBoard(ctx context.Context, day time.Time) (*substitution.Board, error) {
	start := time.Now()
	wrap := func(err error, what string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
	}

	teachers, err := s.src.Teachers.ListActive(ctx)
	if err != nil {
		return nil, wrap(err, "teachers")
	}
	classes, err := s.src.Classes.ListAll(ctx)
	if err != nil {
		return nil, wrap(err, "classes")
	}
	lessons, err := s.src.Lessons.ListAll(ctx)
	if err != nil {
		return nil, wrap(err, "timetable")
	}
	overlays, err := s.src.Overlays.ListOn(ctx, day)
	if err != nil {
		return nil, wrap(err, "calendar")
	}
	absences, err := s.src.Absences.ListByDate(ctx, day)
	if err != nil {
		return nil, wrap(err, "absences")
	}
	s.metrics.ObserveDBQuery("load_board", time.Since(start))

	board := substitution.NewBoard(substitution.BoardInput{
		Date:          day,
		PeriodsPerDay: s.cfg.PeriodsPerDay,
		Teachers:      teachers,
		Classes:       classes,
		Lessons:       lessons,
		Overlays:      overlays,
		Absences:      absences,
	})
	s.logger.Info("board opened",
		zap.String("date", day.Format(dateLayout)),
		zap.Int("teachers", len(teachers)),
		zap.Int("absent", len(board.Absentees())),
		zap.Int("overlays", len(overlays)),
	)
	return board, nil
}

func (s *SubstitutionService) recordRejection(err error) {
	var conflict *substitution.ConflictError
	var ineligible *substitution.IneligibleCandidateError
	switch {
	case errors.As(err, &conflict):
		s.metrics.RecordAssignment(OutcomeConflict)
	case errors.As(err, &ineligible):
		s.metrics.RecordAssignment(OutcomeIneligible)
	}
}

func (s *SubstitutionService) resolutionResponse(b *substitution.Board, slot substitution.SlotKey, applied bool, reason string) *dto.SlotResolutionResponse {
	res, _ := b.Resolution(slot)
	return &dto.SlotResolutionResponse{
		Slot:         slot,
		Resolution:   s.resolutionItem(b, res),
		Applied:      applied,
		Reason:       reason,
		BoardVersion: b.Version(),
	}
}

func (s *SubstitutionService) resolutionItem(b *substitution.Board, r substitution.Resolution) dto.ResolutionItem {
	item := dto.ResolutionItem{Kind: r.Kind, SubstituteID: r.SubstituteID, TargetClassID: r.TargetClassID}
	if t, ok := b.Teacher(r.SubstituteID); ok {
		item.SubstituteName = t.FullName
	}
	if c, ok := b.Class(r.TargetClassID); ok {
		item.TargetClassName = c.Name
	}
	return item
}

func (s *SubstitutionService) slotItem(b *substitution.Board, v substitution.SlotView) dto.SlotItem {
	item := dto.SlotItem{
		AbsentTeacherID: v.Slot.AbsentTeacherID,
		Period:          v.Slot.Period,
		ClassID:         v.Lesson.ClassID,
		Subject:         v.Lesson.Subject,
		LessonKind:      v.Lesson.Kind,
		Resolution:      s.resolutionItem(b, v.Resolution),
	}
	if t, ok := b.Teacher(v.Slot.AbsentTeacherID); ok {
		item.AbsentTeacherName = t.FullName
	}
	if c, ok := b.Class(v.Lesson.ClassID); ok {
		item.ClassName = c.Name
	}
	return item
}

func (s *SubstitutionService) poolResponse(b *substitution.Board) *dto.PoolResponse {
	partition := b.PoolPartition()
	member := func(id string, onCall bool) dto.PoolMember {
		m := dto.PoolMember{TeacherID: id, OnCall: onCall}
		if t, ok := b.Teacher(id); ok {
			m.TeacherName = t.FullName
		}
		return m
	}
	resp := &dto.PoolResponse{
		Available:    make([]dto.PoolMember, 0, len(partition.Available)),
		OnCall:       make([]dto.PoolMember, 0, len(partition.OnCall)),
		BoardVersion: b.Version(),
	}
	for _, id := range partition.Available {
		resp.Available = append(resp.Available, member(id, false))
	}
	for _, id := range partition.OnCall {
		resp.OnCall = append(resp.OnCall, member(id, true))
	}
	return resp
}

// Cover sheet columns.
const (
	colAbsent      = "Absent teacher"
	colPeriod      = "Period"
	colClass       = "Class"
	colSubject     = "Subject"
	colCover       = "Cover"
	colArrangement = "Arrangement"
)

func (s *SubstitutionService) coverSheet(b *substitution.Board) export.Dataset {
	order := make(map[string]int)
	for i, id := range b.Absentees() {
		order[id] = i
	}
	views := b.Slots()
	sort.SliceStable(views, func(i, j int) bool {
		oi, oj := order[views[i].Slot.AbsentTeacherID], order[views[j].Slot.AbsentTeacherID]
		if oi != oj {
			return oi < oj
		}
		return views[i].Slot.Period < views[j].Slot.Period
	})

	rows := make([]map[string]string, 0, len(views))
	for _, v := range views {
		item := s.slotItem(b, v)
		row := map[string]string{
			colAbsent:  item.AbsentTeacherName,
			colPeriod:  strconv.Itoa(item.Period),
			colClass:   item.ClassName,
			colSubject: item.Subject,
		}
		switch v.Resolution.Kind {
		case substitution.SubstituteAssigned:
			row[colCover] = item.Resolution.SubstituteName
			row[colArrangement] = "substitute"
		case substitution.AssistantCovered:
			row[colCover] = "classroom assistant"
			row[colArrangement] = "assistant"
		case substitution.ClassMerged:
			row[colArrangement] = "merged into " + item.Resolution.TargetClassName
		default:
			row[colArrangement] = "UNCOVERED"
		}
		rows = append(rows, row)
	}

	return export.Dataset{
		Title:    "Substitution cover sheet",
		Subtitle: fmt.Sprintf("%s %s, board version %d", b.Weekday(), b.Date().Format(dateLayout), b.Version()),
		Headers:  []string{colAbsent, colPeriod, colClass, colSubject, colCover, colArrangement},
		Rows:     rows,
		GroupBy:  colAbsent,
	}
}

func rankingKey(date, generation string, version uint64, slot substitution.SlotKey, filter substitution.Filter) string {
	return cache.Key("ranking", date, generation, fmt.Sprintf("v%d", version), slot.AbsentTeacherID, strconv.Itoa(slot.Period), string(filter))
}

func parseDate(raw string) (time.Time, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	return day, nil
}

func inPool(p substitution.PoolPartition, teacherID string) bool {
	for _, ids := range [][]string{p.Available, p.OnCall} {
		for _, id := range ids {
			if id == teacherID {
				return true
			}
		}
	}
	return false
}

func nonNilSlots(slots []substitution.SlotKey) []substitution.SlotKey {
	if slots == nil {
		return []substitution.SlotKey{}
	}
	return slots
}

func failureItems(failures []substitution.SlotFailure) []dto.SlotFailureItem {
	items := make([]dto.SlotFailureItem, 0, len(failures))
	for _, f := range failures {
		appErr := appErrors.FromError(translateEngineError(f.Err))
		items = append(items, dto.SlotFailureItem{Slot: f.Slot, Code: appErr.Code, Message: appErr.Message})
	}
	return items
}

// translateEngineError maps board errors onto API errors.
func translateEngineError(err error) error {
	if err == nil {
		return nil
	}
	var conflict *substitution.ConflictError
	var ineligible *substitution.IneligibleCandidateError
	switch {
	case errors.As(err, &conflict):
		return appErrors.Clone(appErrors.ErrConflict, err.Error()).WithDetails(map[string]interface{}{
			"substituteId": conflict.SubstituteID,
			"period":       conflict.Period,
			"heldBy":       conflict.HeldBy,
		})
	case errors.As(err, &ineligible):
		return appErrors.Clone(appErrors.ErrIneligible, err.Error()).WithDetails(map[string]interface{}{
			"candidateId": ineligible.CandidateID,
			"status":      ineligible.Status,
			"label":       ineligible.Status.Label(),
		})
	case errors.Is(err, substitution.ErrUnknownTeacher),
		errors.Is(err, substitution.ErrUnknownClass),
		errors.Is(err, substitution.ErrUnknownSlot):
		return appErrors.Clone(appErrors.ErrNotFound, err.Error())
	case errors.Is(err, substitution.ErrPeriodOutOfRange),
		errors.Is(err, substitution.ErrInvalidMergeTarget):
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "request cancelled")
	}
	return appErrors.FromError(err)
}
