package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"festivalscheduling/internal/domain"
	"festivalscheduling/internal/importer"
	"festivalscheduling/internal/schedule"
)

type scheduleService struct {
	festivalRepo   domain.FestivalRepository
	sessionRepo    domain.SessionRepository
	teacherRepo    domain.TeacherRepository
	sheets         domain.SheetFetcher
	notifier       domain.ReviewNotifier
	recorder       Recorder
	locks          *keyedMutex
	logger         *slog.Logger
	contextTimeout time.Duration
}

// ScheduleDeps groups the collaborators of the schedule service.
type ScheduleDeps struct {
	Festivals domain.FestivalRepository
	Sessions  domain.SessionRepository
	Teachers  domain.TeacherRepository
	Sheets    domain.SheetFetcher
	Notifier  domain.ReviewNotifier
	Recorder  Recorder
	Logger    *slog.Logger
}

// NewScheduleService returns a ScheduleService. Sheets and Notifier may be nil:
// sheet imports are then rejected and flagged sessions are only logged.
func NewScheduleService(deps ScheduleDeps, timeout time.Duration) domain.ScheduleService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &scheduleService{
		festivalRepo:   deps.Festivals,
		sessionRepo:    deps.Sessions,
		teacherRepo:    deps.Teachers,
		sheets:         deps.Sheets,
		notifier:       deps.Notifier,
		recorder:       recorderOrNoop(deps.Recorder),
		locks:          newKeyedMutex(),
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *scheduleService) ListSessions(ctx context.Context, festivalID, callerID string) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID); err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.ListByFestivalID(ctx, festivalID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return schedule.SortSessions(sessions), nil
}

func (s *scheduleService) GetPublicSchedule(ctx context.Context, slug string) (*domain.PublicSchedule, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	festival, err := s.festivalRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get festival: %w", err)
	}
	sessions, err := s.sessionRepo.ListByFestivalID(ctx, festival.ID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	teachers, err := s.teacherRepo.ListByFestivalID(ctx, festival.ID)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	if teachers == nil {
		teachers = []*domain.Teacher{}
	}

	out := &domain.PublicSchedule{Festival: festival, Teachers: teachers, Days: []domain.DaySchedule{}}
	dayIndex := make(map[string]int)
	for _, session := range schedule.SortSessions(sessions) {
		i, ok := dayIndex[session.Day]
		if !ok {
			i = len(out.Days)
			dayIndex[session.Day] = i
			out.Days = append(out.Days, domain.DaySchedule{Day: session.Day, Sessions: []*domain.PublicSession{}})
		}
		out.Days[i].Sessions = append(out.Days[i].Sessions, toPublicSession(session))
	}
	return out, nil
}

func toPublicSession(s *domain.Session) *domain.PublicSession {
	ps := &domain.PublicSession{
		ID:          s.ID,
		Title:       s.Title,
		Day:         s.Day,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Description: s.Description,
		Location:    s.Location,
		TeacherIDs:  s.TeacherIDs,
		Capacity:    s.Capacity,
	}
	if ps.TeacherIDs == nil {
		ps.TeacherIDs = []string{}
	}
	if s.Capacity != nil {
		remaining := max(*s.Capacity-s.BookedSeats(), 0)
		ps.RemainingSeats = &remaining
	}
	return ps
}

func (s *scheduleService) CreateSession(ctx context.Context, callerID string, session *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	festival, err := ownedFestival(ctx, s.festivalRepo, session.FestivalID, callerID)
	if err != nil {
		return err
	}
	if err := s.prepareSession(ctx, festival, session); err != nil {
		return err
	}
	if session.DisplayOrder == nil {
		order := 0.0
		session.DisplayOrder = &order
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *scheduleService) UpdateSession(ctx context.Context, festivalID, sessionID, callerID string, update domain.SessionUpdate) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	festival, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID)
	if err != nil {
		return nil, err
	}
	session, err := festivalSession(ctx, s.sessionRepo, festivalID, sessionID)
	if err != nil {
		return nil, err
	}
	applySessionUpdate(session, update)
	if err := s.prepareSession(ctx, festival, session); err != nil {
		return nil, err
	}
	session.UpdatedAt = time.Now()
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

func applySessionUpdate(session *domain.Session, u domain.SessionUpdate) {
	if u.Title != nil {
		session.Title = *u.Title
	}
	if u.Day != nil {
		session.Day = *u.Day
	}
	if u.StartTime != nil {
		session.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		session.EndTime = *u.EndTime
	}
	if u.DisplayOrder != nil {
		v := *u.DisplayOrder
		session.DisplayOrder = &v
	}
	if u.Description != nil {
		session.Description = *u.Description
	}
	if u.Location != nil {
		session.Location = *u.Location
	}
	if u.Capacity != nil {
		v := *u.Capacity
		session.Capacity = &v
	}
	if u.TeacherIDs != nil {
		session.TeacherIDs = u.TeacherIDs
	}
}

// prepareSession canonicalizes and validates a manually written session.
func (s *scheduleService) prepareSession(ctx context.Context, festival *domain.Festival, session *domain.Session) error {
	session.Title = strings.TrimSpace(session.Title)
	session.Description = strings.TrimSpace(session.Description)
	session.Location = strings.TrimSpace(session.Location)
	if errs := schedule.CanonicalizeSession(session, festival.StartDate); len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	switch {
	case session.Title == "":
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	case session.Day == "":
		return fmt.Errorf("%w: day is required", domain.ErrInvalidInput)
	case session.StartTime == "" || session.EndTime == "":
		return fmt.Errorf("%w: start and end time are required", domain.ErrInvalidInput)
	}
	if !strings.Contains(session.StartTime, "T") && !strings.Contains(session.EndTime, "T") &&
		session.EndTime <= session.StartTime {
		return fmt.Errorf("%w: end time must be after start time", domain.ErrInvalidInput)
	}
	if session.Capacity != nil && *session.Capacity < 0 {
		return fmt.Errorf("%w: capacity cannot be negative", domain.ErrInvalidInput)
	}
	if session.TeacherIDs == nil {
		session.TeacherIDs = []string{}
	}
	if len(session.TeacherIDs) == 0 {
		return nil
	}
	teachers, err := s.teacherRepo.ListByFestivalID(ctx, festival.ID)
	if err != nil {
		return fmt.Errorf("list teachers: %w", err)
	}
	known := make(map[string]bool, len(teachers))
	for _, t := range teachers {
		known[t.ID] = true
	}
	for _, id := range session.TeacherIDs {
		if !known[id] {
			return fmt.Errorf("%w: teacher %s does not belong to this festival", domain.ErrInvalidInput, id)
		}
	}
	return nil
}

func (s *scheduleService) DeleteSession(ctx context.Context, festivalID, sessionID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID); err != nil {
		return err
	}
	session, err := festivalSession(ctx, s.sessionRepo, festivalID, sessionID)
	if err != nil {
		return err
	}
	if session.HasBookings() {
		return domain.ErrProtectedDeletion
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrProtectedDeletion) {
			return err
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *scheduleService) ReorderSessions(ctx context.Context, festivalID, callerID string, updates []domain.DisplayOrderUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if len(updates) == 0 {
		return fmt.Errorf("%w: no display orders given", domain.ErrInvalidInput)
	}
	if _, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID); err != nil {
		return err
	}

	unlock := s.locks.Lock(festivalID)
	defer unlock()

	sessions, err := s.sessionRepo.ListByFestivalID(ctx, festivalID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	owned := make(map[string]bool, len(sessions))
	for _, session := range sessions {
		owned[session.ID] = true
	}
	for _, u := range updates {
		if !owned[u.SessionID] {
			return fmt.Errorf("%w: session %s does not belong to this festival", domain.ErrInvalidInput, u.SessionID)
		}
	}
	if err := s.sessionRepo.UpdateDisplayOrders(ctx, festivalID, updates); err != nil {
		return fmt.Errorf("update display orders: %w", err)
	}
	return nil
}

func (s *scheduleService) NormalizeDisplayOrders(ctx context.Context, festivalID, callerID string) ([]domain.DisplayOrderChange, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(festivalID)
	defer unlock()

	sessions, err := s.sessionRepo.ListByFestivalID(ctx, festivalID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	changes := schedule.NormalizeDisplayOrders(sessions)
	if len(changes) > 0 {
		if err := s.sessionRepo.UpdateDisplayOrders(ctx, festivalID, schedule.ChangesToUpdates(changes)); err != nil {
			return nil, fmt.Errorf("update display orders: %w", err)
		}
	}
	s.recorder.ObserveNormalize(len(changes))
	if changes == nil {
		changes = []domain.DisplayOrderChange{}
	}
	return changes, nil
}

func (s *scheduleService) PreviewImport(ctx context.Context, festivalID, callerID string, src domain.ImportSource) (report *domain.ImportReport, err error) {
	defer func() { s.recorder.ObserveImport(domain.ImportModePreview, report, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	festival, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID)
	if err != nil {
		return nil, err
	}
	incoming, warnings, skipped, err := s.parseImport(ctx, festival, src)
	if err != nil {
		return nil, err
	}
	current, err := s.sessionRepo.ListByFestivalID(ctx, festival.ID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return buildReport(domain.ImportModePreview, reconcile(current, incoming), warnings, skipped), nil
}

func (s *scheduleService) ApplyImport(ctx context.Context, festivalID, callerID string, src domain.ImportSource) (report *domain.ImportReport, err error) {
	defer func() { s.recorder.ObserveImport(domain.ImportModeApply, report, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	festival, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID)
	if err != nil {
		return nil, err
	}
	incoming, warnings, skipped, err := s.parseImport(ctx, festival, src)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(festivalID)
	defer unlock()

	// The plan is built inside the write transaction, against sessions read
	// under the festival lock.
	plan, refused, err := s.sessionRepo.ApplyMergePlan(ctx, festivalID, func(current []*domain.Session) (*domain.MergePlan, error) {
		plan := reconcile(current, incoming)
		now := time.Now()
		for i, m := range plan.ToUpdate {
			merged := *m.Incoming
			merged.UpdatedAt = now
			plan.ToUpdate[i].Incoming = schedule.MergeSession(m.Existing, &merged)
		}
		for _, session := range plan.ToCreate {
			session.CreatedAt = now
			session.UpdatedAt = now
			if session.DisplayOrder == nil {
				order := 0.0
				session.DisplayOrder = &order
			}
		}
		return plan, nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply import: %w", err)
	}
	if len(refused) > 0 {
		// Booked between planning and the guarded delete.
		plan.ToDelete = slices.DeleteFunc(plan.ToDelete, func(session *domain.Session) bool {
			return slices.Contains(refused, session)
		})
		plan.ToKeep = append(plan.ToKeep, refused...)
	}

	report = buildReport(domain.ImportModeApply, plan, warnings, skipped)
	if len(plan.ToKeep) > 0 {
		s.notifyFlagged(ctx, festival, plan.ToKeep)
	}
	s.logger.InfoContext(ctx, "import applied",
		"festival_id", festivalID,
		"updated", report.Summary.ToUpdate,
		"created", report.Summary.ToCreate,
		"kept", report.Summary.ToKeep,
		"deleted", report.Summary.ToDelete,
	)
	return report, nil
}

func (s *scheduleService) notifyFlagged(ctx context.Context, festival *domain.Festival, flagged []*domain.Session) {
	if s.notifier == nil {
		s.logger.WarnContext(ctx, "sessions kept for review", "festival_id", festival.ID, "count", len(flagged))
		return
	}
	if err := s.notifier.NotifyFlaggedSessions(ctx, festival, flagged); err != nil {
		s.logger.ErrorContext(ctx, "notify flagged sessions", "festival_id", festival.ID, "error", err)
	}
}

// parseImport reads the source into sessions, resolving teacher names.
func (s *scheduleService) parseImport(ctx context.Context, festival *domain.Festival, src domain.ImportSource) ([]*domain.Session, []domain.RowWarning, int, error) {
	body, err := s.openSource(ctx, src)
	if err != nil {
		return nil, nil, 0, err
	}
	parsed, err := importer.ParseCSV(body, importer.ParseOptions{Anchor: festival.StartDate})
	if err != nil {
		return nil, nil, 0, err
	}

	teachers, err := s.teacherRepo.ListByFestivalID(ctx, festival.ID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("list teachers: %w", err)
	}
	teacherIDs := make(map[string]string, len(teachers))
	for _, t := range teachers {
		teacherIDs[strings.ToLower(t.Name)] = t.ID
	}

	warnings := parsed.Warnings
	incoming := make([]*domain.Session, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		session := &domain.Session{
			FestivalID:   festival.ID,
			Title:        row.Title,
			Day:          row.Day,
			StartTime:    row.StartTime,
			EndTime:      row.EndTime,
			DisplayOrder: row.DisplayOrder,
			Description:  row.Description,
			Location:     row.Location,
			Capacity:     row.Capacity,
		}
		if len(row.TeacherNames) > 0 {
			session.TeacherIDs = []string{}
			for _, name := range row.TeacherNames {
				id, ok := teacherIDs[strings.ToLower(name)]
				if !ok {
					warnings = append(warnings, domain.RowWarning{
						Line:    row.Line,
						Kind:    domain.WarningUnknownTeacher,
						Message: fmt.Sprintf("teacher %q not found", name),
					})
					continue
				}
				session.TeacherIDs = append(session.TeacherIDs, id)
			}
		}
		incoming = append(incoming, session)
	}

	return incoming, warnings, parsed.SkippedRows, nil
}

func reconcile(current, incoming []*domain.Session) *domain.MergePlan {
	plan := schedule.Reconcile(current, incoming)
	schedule.GuardDeletions(plan)
	return plan
}

func (s *scheduleService) openSource(ctx context.Context, src domain.ImportSource) (io.Reader, error) {
	if src.Body != nil {
		return src.Body, nil
	}
	if src.SheetID == "" {
		return nil, fmt.Errorf("%w: import needs a CSV body or a sheet id", domain.ErrInvalidInput)
	}
	if s.sheets == nil {
		return nil, fmt.Errorf("%w: sheet import is not configured", domain.ErrInvalidInput)
	}
	data, err := s.sheets.FetchCSV(ctx, src.SheetID, src.GID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	return bytes.NewReader(data), nil
}

func buildReport(mode string, plan *domain.MergePlan, warnings []domain.RowWarning, skipped int) *domain.ImportReport {
	if warnings == nil {
		warnings = []domain.RowWarning{}
	}
	for _, kept := range plan.ToKeep {
		warnings = append(warnings, domain.RowWarning{
			Kind:    domain.WarningProtectedSession,
			Message: fmt.Sprintf("%q on %s %s has bookings and was kept", kept.Title, kept.Day, kept.StartTime),
		})
	}
	flagged := make([]domain.FlaggedSession, 0, len(plan.ToKeep))
	for _, kept := range plan.ToKeep {
		flagged = append(flagged, domain.FlaggedSession{
			ID:          kept.ID,
			Title:       kept.Title,
			Day:         kept.Day,
			StartTime:   kept.StartTime,
			BookedSeats: kept.BookedSeats(),
		})
	}
	return &domain.ImportReport{
		Mode:        mode,
		Summary:     schedule.Summarize(plan, schedule.DefaultSampleSize),
		SkippedRows: skipped,
		Warnings:    warnings,
		Flagged:     flagged,
	}
}
