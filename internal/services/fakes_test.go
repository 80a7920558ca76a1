package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"festivalscheduling/internal/domain"
)

// fakeFestivalRepo is an in-memory FestivalRepository for tests.
type fakeFestivalRepo struct {
	byID   map[string]*domain.Festival
	nextID int
	err    error
}

func newFakeFestivalRepo(festivals ...*domain.Festival) *fakeFestivalRepo {
	f := &fakeFestivalRepo{byID: make(map[string]*domain.Festival), nextID: 1}
	for _, fest := range festivals {
		f.byID[fest.ID] = fest
	}
	return f
}

func (f *fakeFestivalRepo) Create(ctx context.Context, festival *domain.Festival) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Slug == festival.Slug {
			return domain.ErrAlreadyExists
		}
	}
	festival.ID = fmt.Sprintf("fest-%d", f.nextID)
	f.nextID++
	f.byID[festival.ID] = festival
	return nil
}

func (f *fakeFestivalRepo) GetByID(ctx context.Context, id string) (*domain.Festival, error) {
	if f.err != nil {
		return nil, f.err
	}
	if fest, ok := f.byID[id]; ok {
		return fest, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeFestivalRepo) GetBySlug(ctx context.Context, slug string) (*domain.Festival, error) {
	for _, fest := range f.byID {
		if fest.Slug == slug {
			return fest, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeFestivalRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Festival, error) {
	var out []*domain.Festival
	for _, fest := range f.byID {
		if fest.OwnerID == ownerID {
			out = append(out, fest)
		}
	}
	return out, nil
}

func (f *fakeFestivalRepo) Update(ctx context.Context, id string, u domain.FestivalUpdate) (*domain.Festival, error) {
	fest, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *fest
	if u.Name != nil {
		cp.Name = *u.Name
	}
	if u.Description != nil {
		cp.Description = u.Description
	}
	if u.StartDate != nil {
		cp.StartDate = u.StartDate
	}
	if u.EndDate != nil {
		cp.EndDate = u.EndDate
	}
	if u.Timezone != nil {
		cp.Timezone = *u.Timezone
	}
	if u.BookingEnabled != nil {
		cp.BookingEnabled = *u.BookingEnabled
	}
	f.byID[id] = &cp
	return &cp, nil
}

func (f *fakeFestivalRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeSessionRepo is an in-memory SessionRepository that keeps bookings on the
// sessions, like the Postgres repository does when loading relations.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions []*domain.Session
	nextID   int
	applied  int
	// beforeLock runs once when ApplyMergePlan is entered, before the festival
	// lock is held, to let another writer commit first.
	beforeLock func()
	// beforeApply runs inside ApplyMergePlan before deletions, to simulate a
	// booking landing between planning and writing.
	beforeApply func(r *fakeSessionRepo)
	applyErr    error
}

func newFakeSessionRepo(sessions ...*domain.Session) *fakeSessionRepo {
	return &fakeSessionRepo{sessions: sessions, nextID: 1}
}

func (f *fakeSessionRepo) find(id string) *domain.Session {
	for _, s := range f.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (f *fakeSessionRepo) insert(s *domain.Session) {
	if s.ID == "" {
		s.ID = fmt.Sprintf("new-%d", f.nextID)
		f.nextID++
	}
	f.sessions = append(f.sessions, s)
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insert(s)
	return nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s := f.find(id); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSessionRepo) ListByFestivalID(ctx context.Context, festivalID string) ([]*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Session
	for _, s := range f.sessions {
		if s.FestivalID == festivalID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.sessions {
		if existing.ID == s.ID {
			cp := *s
			f.sessions[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.find(id)
	if s == nil {
		return domain.ErrNotFound
	}
	if s.HasBookings() {
		return domain.ErrProtectedDeletion
	}
	f.remove(id)
	return nil
}

func (f *fakeSessionRepo) remove(id string) {
	f.sessions = slices.DeleteFunc(f.sessions, func(s *domain.Session) bool { return s.ID == id })
}

func (f *fakeSessionRepo) UpdateDisplayOrders(ctx context.Context, festivalID string, updates []domain.DisplayOrderUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range updates {
		s := f.find(u.SessionID)
		if s == nil || s.FestivalID != festivalID {
			return domain.ErrNotFound
		}
	}
	for _, u := range updates {
		v := u.DisplayOrder
		f.find(u.SessionID).DisplayOrder = &v
	}
	return nil
}

func (f *fakeSessionRepo) ApplyMergePlan(ctx context.Context, festivalID string, planner domain.MergePlanner) (*domain.MergePlan, []*domain.Session, error) {
	if hook := f.beforeLock; hook != nil {
		f.beforeLock = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return nil, nil, f.applyErr
	}
	f.applied++
	var current []*domain.Session
	for _, s := range f.sessions {
		if s.FestivalID == festivalID {
			cp := *s
			current = append(current, &cp)
		}
	}
	plan, err := planner(current)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range plan.ToUpdate {
		for i, existing := range f.sessions {
			if existing.ID == m.Incoming.ID {
				cp := *m.Incoming
				f.sessions[i] = &cp
			}
		}
	}
	for _, s := range plan.ToCreate {
		s.FestivalID = festivalID
		cp := *s
		f.insert(&cp)
		s.ID = cp.ID
	}
	if f.beforeApply != nil {
		f.beforeApply(f)
	}
	var refused []*domain.Session
	for _, s := range plan.ToDelete {
		stored := f.find(s.ID)
		if stored == nil {
			continue
		}
		if stored.HasBookings() {
			refused = append(refused, s)
			continue
		}
		f.remove(s.ID)
	}
	return plan, refused, nil
}

func (f *fakeSessionRepo) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s.Title)
	}
	return out
}

// fakeTeacherRepo is an in-memory TeacherRepository for tests.
type fakeTeacherRepo struct {
	teachers []*domain.Teacher
	nextID   int
}

func newFakeTeacherRepo(teachers ...*domain.Teacher) *fakeTeacherRepo {
	return &fakeTeacherRepo{teachers: teachers, nextID: 1}
}

func (f *fakeTeacherRepo) Create(ctx context.Context, t *domain.Teacher) error {
	for _, existing := range f.teachers {
		if existing.FestivalID == t.FestivalID && existing.Name == t.Name {
			return fmt.Errorf("%w: teacher %q", domain.ErrAlreadyExists, t.Name)
		}
	}
	t.ID = fmt.Sprintf("teacher-%d", f.nextID)
	f.nextID++
	f.teachers = append(f.teachers, t)
	return nil
}

func (f *fakeTeacherRepo) GetByID(ctx context.Context, id string) (*domain.Teacher, error) {
	for _, t := range f.teachers {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTeacherRepo) ListByFestivalID(ctx context.Context, festivalID string) ([]*domain.Teacher, error) {
	var out []*domain.Teacher
	for _, t := range f.teachers {
		if t.FestivalID == festivalID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTeacherRepo) Delete(ctx context.Context, id string) error {
	for i, t := range f.teachers {
		if t.ID == id {
			f.teachers = append(f.teachers[:i], f.teachers[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeBookingRepo stores bookings and enforces capacity against a session repo.
type fakeBookingRepo struct {
	mu       sync.Mutex
	sessions *fakeSessionRepo
	byID     map[string]*domain.Booking
	nextID   int
}

func newFakeBookingRepo(sessions *fakeSessionRepo) *fakeBookingRepo {
	return &fakeBookingRepo{sessions: sessions, byID: make(map[string]*domain.Booking), nextID: 1}
}

func (f *fakeBookingRepo) CreateWithinCapacity(ctx context.Context, b *domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions.mu.Lock()
	defer f.sessions.mu.Unlock()
	s := f.sessions.find(b.SessionID)
	if s == nil {
		return domain.ErrNotFound
	}
	if s.Capacity != nil && s.BookedSeats()+len(b.AttendeeNames) > *s.Capacity {
		return domain.ErrCapacityExceeded
	}
	b.ID = fmt.Sprintf("booking-%d", f.nextID)
	f.nextID++
	f.byID[b.ID] = b
	s.Bookings = append(s.Bookings, b)
	return nil
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.byID[id]; ok {
		return b, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBookingRepo) ListBySessionID(ctx context.Context, sessionID string, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*domain.Booking
	for _, b := range f.byID {
		if b.SessionID == sessionID {
			all = append(all, b)
		}
	}
	slices.SortFunc(all, func(a, b *domain.Booking) int { return a.CreatedAt.Compare(b.CreatedAt) })
	start := min(params.Offset(), len(all))
	end := min(start+params.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	f.sessions.mu.Lock()
	defer f.sessions.mu.Unlock()
	if s := f.sessions.find(b.SessionID); s != nil {
		s.Bookings = slices.DeleteFunc(s.Bookings, func(x *domain.Booking) bool { return x.ID == id })
	}
	return nil
}

// fakeHasher "hashes" by prefixing.
type fakeHasher struct{}

func (fakeHasher) Hash(secret string) (string, error) { return "hashed:" + secret, nil }
func (fakeHasher) Compare(hash, secret string) error {
	if hash != "hashed:"+secret {
		return errors.New("mismatch")
	}
	return nil
}

// fakeEmailService records sent emails.
type fakeEmailService struct {
	mu         sync.Mutex
	loginCodes []*domain.LoginCodeEmailData
	bookings   []*domain.BookingConfirmationEmailData
	err        error
}

func (f *fakeEmailService) SendLoginCode(ctx context.Context, data *domain.LoginCodeEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.loginCodes = append(f.loginCodes, data)
	return nil
}

func (f *fakeEmailService) SendBookingConfirmation(ctx context.Context, data *domain.BookingConfirmationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.bookings = append(f.bookings, data)
	return nil
}

// fakeRecorder counts observations.
type fakeRecorder struct {
	mu        sync.Mutex
	imports   []string
	bookings  []string
	normalize []int
}

func (f *fakeRecorder) ObserveImport(mode string, report *domain.ImportReport, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	f.imports = append(f.imports, mode+":"+outcome)
}

func (f *fakeRecorder) ObserveBooking(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, outcome)
}

func (f *fakeRecorder) ObserveNormalize(changed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.normalize = append(f.normalize, changed)
}

// fakeNotifier records flagged notifications.
type fakeNotifier struct {
	mu      sync.Mutex
	flagged [][]*domain.Session
	err     error
}

func (f *fakeNotifier) NotifyFlaggedSessions(ctx context.Context, festival *domain.Festival, flagged []*domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flagged = append(f.flagged, flagged)
	return f.err
}

// fakeSheetFetcher serves canned CSV.
type fakeSheetFetcher struct {
	data []byte
	err  error
}

func (f *fakeSheetFetcher) FetchCSV(ctx context.Context, sheetID, gid string) ([]byte, error) {
	return f.data, f.err
}

func testFestival() *domain.Festival {
	start := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)
	return &domain.Festival{
		ID:             "fest-1",
		Name:           "Salsa Weekend",
		Slug:           "salsa",
		OwnerID:        "owner-1",
		StartDate:      &start,
		Timezone:       "UTC",
		BookingEnabled: true,
	}
}

func testSession(id, title, day, start string) *domain.Session {
	return &domain.Session{
		ID:         id,
		FestivalID: "fest-1",
		Title:      title,
		Day:        day,
		StartTime:  start,
		EndTime:    "23:00",
		TeacherIDs: []string{},
	}
}

func withBooking(s *domain.Session) *domain.Session {
	s.Bookings = append(s.Bookings, &domain.Booking{ID: "b-" + s.ID, SessionID: s.ID, AttendeeNames: []string{"Ana"}})
	return s
}

func ptr[T any](v T) *T { return &v }
