package domain

import (
	"context"
	"time"
)

// MissingDisplayOrder is the rank used for sessions without a display order, so they sort last in their slot.
const MissingDisplayOrder = 999999

// Session is one timetable entry within a festival.
//
// Day is an ISO date ("2025-11-14") or, for legacy rows, a weekday name.
// StartTime and EndTime are bare times ("09:00") or full ISO datetimes.
// DisplayOrder breaks ties between sessions sharing a start; nil sorts last.
// swagger:model Session
type Session struct {
	ID           string     `json:"id"`
	FestivalID   string     `json:"festival_id"`
	Title        string     `json:"title"`
	Day          string     `json:"day"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	DisplayOrder *float64   `json:"display_order"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	Capacity     *int       `json:"capacity"`
	TeacherIDs   []string   `json:"teacher_ids"`
	Bookings     []*Booking `json:"bookings,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewSession returns a new Session with display order 0. ID is typically set by the repository on create.
func NewSession(festivalID, title, day, startTime, endTime string, createdAt, updatedAt time.Time) *Session {
	order := 0.0
	return &Session{
		FestivalID:   festivalID,
		Title:        title,
		Day:          day,
		StartTime:    startTime,
		EndTime:      endTime,
		DisplayOrder: &order,
		TeacherIDs:   []string{},
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// HasBookings reports whether at least one booking exists for the session.
// Such a session is protected from deletion during reconciliation.
func (s *Session) HasBookings() bool {
	return len(s.Bookings) > 0
}

// BookedSeats counts attendee names across all bookings.
func (s *Session) BookedSeats() int {
	n := 0
	for _, b := range s.Bookings {
		n += len(b.AttendeeNames)
	}
	return n
}

// Rank returns the display order, or MissingDisplayOrder when unset.
func (s *Session) Rank() float64 {
	if s.DisplayOrder == nil {
		return MissingDisplayOrder
	}
	return *s.DisplayOrder
}

// SessionUpdate carries the optional fields of a manual session edit. Nil fields are left untouched.
type SessionUpdate struct {
	Title        *string
	Day          *string
	StartTime    *string
	EndTime      *string
	DisplayOrder *float64
	Description  *string
	Location     *string
	Capacity     *int
	TeacherIDs   []string
}

// DisplayOrderUpdate assigns a display order to one session.
type DisplayOrderUpdate struct {
	SessionID    string  `json:"session_id"`
	DisplayOrder float64 `json:"display_order"`
}

// DisplayOrderChange records a display order rewritten by normalization.
type DisplayOrderChange struct {
	SessionID string   `json:"session_id"`
	Previous  *float64 `json:"previous"`
	Next      float64  `json:"next"`
}

// SessionRepository defines the interface for session storage.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	// ListByFestivalID returns the festival's sessions with bookings and teacher IDs loaded,
	// in creation order.
	ListByFestivalID(ctx context.Context, festivalID string) ([]*Session, error)
	Update(ctx context.Context, session *Session) error
	// Delete removes a session that has no bookings. It returns ErrProtectedDeletion otherwise.
	Delete(ctx context.Context, id string) error
	// UpdateDisplayOrders writes all updates for one festival in a single transaction.
	UpdateDisplayOrders(ctx context.Context, festivalID string, updates []DisplayOrderUpdate) error
	// ApplyMergePlan locks the festival, reads its sessions, builds a plan from them with
	// planner and writes it, all in one transaction. It returns the plan as written and the
	// sessions whose deletion was refused because they gained bookings.
	ApplyMergePlan(ctx context.Context, festivalID string, planner MergePlanner) (plan *MergePlan, refused []*Session, err error)
}

// MergePlanner builds a reconciliation plan against the sessions currently stored.
type MergePlanner func(current []*Session) (*MergePlan, error)

// DaySchedule groups a day's sessions in display order.
type DaySchedule struct {
	Day      string           `json:"day"`
	Sessions []*PublicSession `json:"sessions"`
}

// PublicSession is a session as shown on the public schedule page; attendee data is omitted.
type PublicSession struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Day            string   `json:"day"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	Description    string   `json:"description"`
	Location       string   `json:"location"`
	TeacherIDs     []string `json:"teacher_ids"`
	Capacity       *int     `json:"capacity"`
	RemainingSeats *int     `json:"remaining_seats"`
}

// PublicSchedule is the published timetable of a festival.
type PublicSchedule struct {
	Festival *Festival     `json:"festival"`
	Teachers []*Teacher    `json:"teachers"`
	Days     []DaySchedule `json:"days"`
}

// ScheduleService defines the business logic for a festival's timetable.
type ScheduleService interface {
	ListSessions(ctx context.Context, festivalID, callerID string) ([]*Session, error)
	GetPublicSchedule(ctx context.Context, slug string) (*PublicSchedule, error)
	CreateSession(ctx context.Context, callerID string, session *Session) error
	UpdateSession(ctx context.Context, festivalID, sessionID, callerID string, update SessionUpdate) (*Session, error)
	DeleteSession(ctx context.Context, festivalID, sessionID, callerID string) error
	ReorderSessions(ctx context.Context, festivalID, callerID string, updates []DisplayOrderUpdate) error
	NormalizeDisplayOrders(ctx context.Context, festivalID, callerID string) ([]DisplayOrderChange, error)
	PreviewImport(ctx context.Context, festivalID, callerID string, src ImportSource) (*ImportReport, error)
	ApplyImport(ctx context.Context, festivalID, callerID string, src ImportSource) (*ImportReport, error)
}
