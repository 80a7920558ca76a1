package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"festivalscheduling/internal/domain"
)

const (
	cancelTokenBytes = 24
	maxAttendees     = 20
)

type bookingService struct {
	festivalRepo   domain.FestivalRepository
	sessionRepo    domain.SessionRepository
	bookingRepo    domain.BookingRepository
	hasher         domain.SecretHasher
	emailService   domain.EmailService
	recorder       Recorder
	publicBaseURL  string
	logger         *slog.Logger
	contextTimeout time.Duration
}

// BookingDeps groups the collaborators of the booking service.
type BookingDeps struct {
	Festivals domain.FestivalRepository
	Sessions  domain.SessionRepository
	Bookings  domain.BookingRepository
	Hasher    domain.SecretHasher
	Email     domain.EmailService
	Recorder  Recorder
	Logger    *slog.Logger
	// PublicBaseURL prefixes the cancellation link sent to attendees.
	PublicBaseURL string
}

// NewBookingService returns a BookingService.
func NewBookingService(deps BookingDeps, timeout time.Duration) domain.BookingService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &bookingService{
		festivalRepo:   deps.Festivals,
		sessionRepo:    deps.Sessions,
		bookingRepo:    deps.Bookings,
		hasher:         deps.Hasher,
		emailService:   deps.Email,
		recorder:       recorderOrNoop(deps.Recorder),
		publicBaseURL:  strings.TrimRight(deps.PublicBaseURL, "/"),
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, slug, sessionID, email string, attendeeNames []string) (*domain.Booking, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	booking, token, err := s.createBooking(ctx, slug, sessionID, email, attendeeNames)
	switch {
	case err == nil:
		s.recorder.ObserveBooking(BookingCreated)
	case errors.Is(err, domain.ErrCapacityExceeded):
		s.recorder.ObserveBooking(BookingCapacityExceeded)
	default:
		s.recorder.ObserveBooking(BookingRejected)
	}
	return booking, token, err
}

func (s *bookingService) createBooking(ctx context.Context, slug, sessionID, email string, attendeeNames []string) (*domain.Booking, string, error) {
	email = normalizeEmail(email)
	if !emailRegexp.MatchString(email) {
		return nil, "", fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	names := cleanNames(attendeeNames)
	if len(names) == 0 {
		return nil, "", fmt.Errorf("%w: at least one attendee name is required", domain.ErrInvalidInput)
	}
	if len(names) > maxAttendees {
		return nil, "", fmt.Errorf("%w: at most %d attendees per booking", domain.ErrInvalidInput, maxAttendees)
	}

	festival, err := s.festivalRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get festival: %w", err)
	}
	if !festival.BookingEnabled {
		return nil, "", domain.ErrBookingDisabled
	}
	session, err := festivalSession(ctx, s.sessionRepo, festival.ID, sessionID)
	if err != nil {
		return nil, "", err
	}

	token, err := generateToken(cancelTokenBytes)
	if err != nil {
		return nil, "", fmt.Errorf("generate cancel token: %w", err)
	}
	tokenHash, err := s.hasher.Hash(token)
	if err != nil {
		return nil, "", fmt.Errorf("hash cancel token: %w", err)
	}
	booking := domain.NewBooking(festival.ID, session.ID, email, names, time.Now())
	booking.CancelTokenHash = tokenHash
	if err := s.bookingRepo.CreateWithinCapacity(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) || errors.Is(err, domain.ErrNotFound) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("create booking: %w", err)
	}

	s.sendConfirmation(ctx, festival, session, booking, token)
	return booking, token, nil
}

func (s *bookingService) sendConfirmation(ctx context.Context, festival *domain.Festival, session *domain.Session, booking *domain.Booking, token string) {
	if s.emailService == nil {
		return
	}
	data := &domain.BookingConfirmationEmailData{
		Email:         booking.Email,
		FestivalName:  festival.Name,
		SessionTitle:  session.Title,
		Day:           session.Day,
		StartTime:     session.StartTime,
		Location:      session.Location,
		AttendeeNames: booking.AttendeeNames,
		CancelURL:     s.cancelURL(booking.ID, token),
	}
	if err := s.emailService.SendBookingConfirmation(ctx, data); err != nil {
		s.logger.ErrorContext(ctx, "send booking confirmation", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) cancelURL(bookingID, token string) string {
	return fmt.Sprintf("%s/bookings/%s/cancel?token=%s", s.publicBaseURL, url.PathEscape(bookingID), url.QueryEscape(token))
}

func (s *bookingService) ListSessionBookings(ctx context.Context, festivalID, sessionID, callerID string, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID); err != nil {
		return nil, 0, err
	}
	if _, err := festivalSession(ctx, s.sessionRepo, festivalID, sessionID); err != nil {
		return nil, 0, err
	}
	bookings, total, err := s.bookingRepo.ListBySessionID(ctx, sessionID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []*domain.Booking{}
	}
	return bookings, total, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrForbidden
	}
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get booking: %w", err)
	}
	if err := s.hasher.Compare(booking.CancelTokenHash, token); err != nil {
		return domain.ErrForbidden
	}
	if err := s.bookingRepo.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete booking: %w", err)
	}
	s.recorder.ObserveBooking(BookingCancelled)
	return nil
}

// cleanNames trims names and drops empty ones.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
