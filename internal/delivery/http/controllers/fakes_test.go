package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"festivalscheduling/internal/delivery/http/helpers"
	"festivalscheduling/internal/delivery/http/middleware"
	"festivalscheduling/internal/domain"

	"github.com/stretchr/testify/require"
)

const (
	testUserID     = "0b6f5a40-3c55-4f7e-9a71-6c0a5d5e1a01"
	testFestivalID = "5d1c8f0e-7a4b-4c1e-8a0d-2f3b4c5d6e7f"
	testSessionID  = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	testTeacherID  = "1f2e3d4c-5b6a-4978-8a9b-0c1d2e3f4a5b"
	testBookingID  = "c0ffee00-1234-4abc-9def-0123456789ab"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// testRequest builds a request with optional JSON body, authenticated user and path values.
func testRequest(method, target, body, userID string, pathValues map[string]string) *http.Request {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	return req
}

// decodeEnvelope decodes the response envelope and, when dst is non-nil, its data.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dst any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	if dst != nil {
		require.Nil(t, envelope.Error, "success response must have error nil")
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, dst))
	}
	return envelope
}

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	getByIDUser         *domain.User
	getByIDErr          error
	updateErr           error
	lastUpdate          *domain.User
	requestLoginCodeErr error
	lastEmail           string
	lastCode            string
	verifyToken         string
	verifyUser          *domain.User
	verifyErr           error
}

func (f *fakeUserService) RequestLoginCode(ctx context.Context, email string) error {
	f.lastEmail = email
	return f.requestLoginCodeErr
}

func (f *fakeUserService) VerifyLoginCode(ctx context.Context, email, code string) (string, *domain.User, error) {
	f.lastEmail, f.lastCode = email, code
	if f.verifyErr != nil {
		return "", nil, f.verifyErr
	}
	return f.verifyToken, f.verifyUser, nil
}

func (f *fakeUserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u := *f.getByIDUser
	return &u, nil
}

func (f *fakeUserService) Update(ctx context.Context, user *domain.User) error {
	f.lastUpdate = user
	return f.updateErr
}

// fakeFestivalService implements domain.FestivalService for handler tests.
type fakeFestivalService struct {
	festival    *domain.Festival
	festivals   []*domain.Festival
	err         error
	lastCreated *domain.Festival
	lastUpdate  domain.FestivalUpdate
	lastID      string
	lastCaller  string
}

func (f *fakeFestivalService) CreateFestival(ctx context.Context, festival *domain.Festival) error {
	f.lastCreated = festival
	if f.err != nil {
		return f.err
	}
	festival.ID = testFestivalID
	return nil
}

func (f *fakeFestivalService) GetFestival(ctx context.Context, festivalID, callerID string) (*domain.Festival, error) {
	f.lastID, f.lastCaller = festivalID, callerID
	return f.festival, f.err
}

func (f *fakeFestivalService) GetFestivalBySlug(ctx context.Context, slug string) (*domain.Festival, error) {
	return f.festival, f.err
}

func (f *fakeFestivalService) ListMyFestivals(ctx context.Context, ownerID string) ([]*domain.Festival, error) {
	f.lastCaller = ownerID
	return f.festivals, f.err
}

func (f *fakeFestivalService) UpdateFestival(ctx context.Context, festivalID, callerID string, update domain.FestivalUpdate) (*domain.Festival, error) {
	f.lastID, f.lastCaller, f.lastUpdate = festivalID, callerID, update
	return f.festival, f.err
}

func (f *fakeFestivalService) DeleteFestival(ctx context.Context, festivalID, callerID string) error {
	f.lastID, f.lastCaller = festivalID, callerID
	return f.err
}

// fakeScheduleService implements domain.ScheduleService for handler tests.
type fakeScheduleService struct {
	sessions    []*domain.Session
	session     *domain.Session
	schedule    *domain.PublicSchedule
	changes     []domain.DisplayOrderChange
	report      *domain.ImportReport
	err         error
	lastCaller  string
	lastSlug    string
	lastCreated *domain.Session
	lastUpdate  domain.SessionUpdate
	lastOrders  []domain.DisplayOrderUpdate
	lastMode    string
	lastSource  domain.ImportSource
	lastBody    string
}

func (f *fakeScheduleService) ListSessions(ctx context.Context, festivalID, callerID string) ([]*domain.Session, error) {
	f.lastCaller = callerID
	return f.sessions, f.err
}

func (f *fakeScheduleService) GetPublicSchedule(ctx context.Context, slug string) (*domain.PublicSchedule, error) {
	f.lastSlug = slug
	return f.schedule, f.err
}

func (f *fakeScheduleService) CreateSession(ctx context.Context, callerID string, session *domain.Session) error {
	f.lastCaller, f.lastCreated = callerID, session
	if f.err != nil {
		return f.err
	}
	session.ID = testSessionID
	return nil
}

func (f *fakeScheduleService) UpdateSession(ctx context.Context, festivalID, sessionID, callerID string, update domain.SessionUpdate) (*domain.Session, error) {
	f.lastCaller, f.lastUpdate = callerID, update
	return f.session, f.err
}

func (f *fakeScheduleService) DeleteSession(ctx context.Context, festivalID, sessionID, callerID string) error {
	f.lastCaller = callerID
	return f.err
}

func (f *fakeScheduleService) ReorderSessions(ctx context.Context, festivalID, callerID string, updates []domain.DisplayOrderUpdate) error {
	f.lastCaller, f.lastOrders = callerID, updates
	return f.err
}

func (f *fakeScheduleService) NormalizeDisplayOrders(ctx context.Context, festivalID, callerID string) ([]domain.DisplayOrderChange, error) {
	f.lastCaller = callerID
	return f.changes, f.err
}

func (f *fakeScheduleService) PreviewImport(ctx context.Context, festivalID, callerID string, src domain.ImportSource) (*domain.ImportReport, error) {
	return f.runImport(domain.ImportModePreview, src)
}

func (f *fakeScheduleService) ApplyImport(ctx context.Context, festivalID, callerID string, src domain.ImportSource) (*domain.ImportReport, error) {
	return f.runImport(domain.ImportModeApply, src)
}

func (f *fakeScheduleService) runImport(mode string, src domain.ImportSource) (*domain.ImportReport, error) {
	f.lastMode, f.lastSource = mode, src
	if src.Body != nil {
		b, _ := io.ReadAll(src.Body)
		f.lastBody = string(b)
	}
	if f.err != nil {
		return nil, f.err
	}
	report := *f.report
	report.Mode = mode
	return &report, nil
}

// fakeBookingService implements domain.BookingService for handler tests.
type fakeBookingService struct {
	booking    *domain.Booking
	token      string
	list       []*domain.Booking
	total      int
	err        error
	lastSlug   string
	lastNames  []string
	lastToken  string
	lastParams domain.PaginationParams
}

func (f *fakeBookingService) CreateBooking(ctx context.Context, slug, sessionID, email string, attendeeNames []string) (*domain.Booking, string, error) {
	f.lastSlug, f.lastNames = slug, attendeeNames
	if f.err != nil {
		return nil, "", f.err
	}
	return f.booking, f.token, nil
}

func (f *fakeBookingService) ListSessionBookings(ctx context.Context, festivalID, sessionID, callerID string, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	f.lastParams = params
	return f.list, f.total, f.err
}

func (f *fakeBookingService) CancelBooking(ctx context.Context, bookingID, token string) error {
	f.lastToken = token
	return f.err
}

// fakeTeacherService implements domain.TeacherService for handler tests.
type fakeTeacherService struct {
	teachers    []*domain.Teacher
	failed      []string
	err         error
	lastCreated *domain.Teacher
	lastBulk    []*domain.Teacher
}

func (f *fakeTeacherService) CreateTeacher(ctx context.Context, callerID string, teacher *domain.Teacher) error {
	f.lastCreated = teacher
	if f.err != nil {
		return f.err
	}
	teacher.ID = testTeacherID
	return nil
}

func (f *fakeTeacherService) ListTeachers(ctx context.Context, festivalID, callerID string) ([]*domain.Teacher, error) {
	return f.teachers, f.err
}

func (f *fakeTeacherService) DeleteTeacher(ctx context.Context, festivalID, teacherID, callerID string) error {
	return f.err
}

func (f *fakeTeacherService) BulkCreateTeachers(ctx context.Context, festivalID, callerID string, teachers []*domain.Teacher) ([]*domain.Teacher, []string, error) {
	f.lastBulk = teachers
	if f.err != nil {
		return nil, nil, f.err
	}
	return teachers[:len(teachers)-len(f.failed)], f.failed, nil
}
