package domain

import "errors"

// Sentinel errors shared by services, repositories and controllers.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyExists = errors.New("already exists")
)

// Import and scheduling errors.
var (
	// ErrMalformedRow marks an import row missing one of title, day, start or end.
	ErrMalformedRow = errors.New("malformed row")
	// ErrAmbiguousDateKey marks a day or time value that cannot be turned into a comparable key.
	ErrAmbiguousDateKey = errors.New("ambiguous date key")
	// ErrProtectedDeletion is returned when a write would delete a session that has bookings.
	ErrProtectedDeletion = errors.New("session has bookings and cannot be deleted")
)

// Booking errors.
var (
	ErrCapacityExceeded = errors.New("session capacity exceeded")
	ErrBookingDisabled  = errors.New("booking is not enabled for this festival")
)
