package domain

import (
	"context"
	"time"
)

// Booking reserves seats in a session for one or more attendees.
// swagger:model Booking
type Booking struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	FestivalID      string    `json:"festival_id"`
	AttendeeNames   []string  `json:"attendee_names"`
	Email           string    `json:"email"`
	CancelTokenHash string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewBooking returns a new Booking. ID is typically set by the repository on create.
func NewBooking(festivalID, sessionID, email string, attendeeNames []string, createdAt time.Time) *Booking {
	return &Booking{
		FestivalID:    festivalID,
		SessionID:     sessionID,
		Email:         email,
		AttendeeNames: attendeeNames,
		CreatedAt:     createdAt,
	}
}

// BookingRepository defines storage operations for bookings.
type BookingRepository interface {
	// CreateWithinCapacity inserts the booking unless it would push the session's booked seats
	// above its capacity (no capacity means unlimited). It returns ErrCapacityExceeded in that
	// case and ErrNotFound when the session is gone.
	CreateWithinCapacity(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	// ListBySessionID returns one page of a session's bookings, oldest first, and the total count.
	ListBySessionID(ctx context.Context, sessionID string, params PaginationParams) ([]*Booking, int, error)
	Delete(ctx context.Context, id string) error
}

// BookingService defines attendee-facing booking operations.
type BookingService interface {
	// CreateBooking books seats in a session of the festival identified by slug. It returns the
	// booking and the plain cancellation token, which is only ever shown once.
	CreateBooking(ctx context.Context, slug, sessionID, email string, attendeeNames []string) (*Booking, string, error)
	ListSessionBookings(ctx context.Context, festivalID, sessionID, callerID string, params PaginationParams) ([]*Booking, int, error)
	CancelBooking(ctx context.Context, bookingID, token string) error
}

// SecretHasher hashes and verifies short-lived secrets such as booking cancellation tokens.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}
