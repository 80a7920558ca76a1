package domain

import (
	"context"
	"time"
)

// Festival is a tenant's event: it owns sessions, teachers and bookings and is
// served publicly under its slug.
// swagger:model Festival
type Festival struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	OwnerID        string     `json:"owner_id"`
	Description    *string    `json:"description,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Timezone       string     `json:"timezone"`
	BookingEnabled bool       `json:"booking_enabled"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewFestival returns a new Festival with the given fields. ID is typically set by the repository on create.
func NewFestival(name, slug, ownerID string, createdAt, updatedAt time.Time) *Festival {
	return &Festival{
		Name:      name,
		Slug:      slug,
		OwnerID:   ownerID,
		Timezone:  "UTC",
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// FestivalUpdate carries the optional fields of a festival update. Nil fields are left untouched.
type FestivalUpdate struct {
	Name           *string
	Description    *string
	StartDate      *time.Time
	EndDate        *time.Time
	Timezone       *string
	BookingEnabled *bool
}

// Empty reports whether the update changes nothing.
func (u FestivalUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.StartDate == nil &&
		u.EndDate == nil && u.Timezone == nil && u.BookingEnabled == nil
}

// FestivalRepository defines the interface for festival storage.
type FestivalRepository interface {
	Create(ctx context.Context, festival *Festival) error
	GetByID(ctx context.Context, id string) (*Festival, error)
	GetBySlug(ctx context.Context, slug string) (*Festival, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Festival, error)
	Update(ctx context.Context, id string, update FestivalUpdate) (*Festival, error)
	Delete(ctx context.Context, id string) error
}

// FestivalService defines the business logic for managing festivals.
type FestivalService interface {
	CreateFestival(ctx context.Context, festival *Festival) error
	GetFestival(ctx context.Context, festivalID, callerID string) (*Festival, error)
	GetFestivalBySlug(ctx context.Context, slug string) (*Festival, error)
	ListMyFestivals(ctx context.Context, ownerID string) ([]*Festival, error)
	UpdateFestival(ctx context.Context, festivalID, callerID string, update FestivalUpdate) (*Festival, error)
	DeleteFestival(ctx context.Context, festivalID, callerID string) error
}
