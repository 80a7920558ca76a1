package domain

import (
	"context"
	"time"
)

// Teacher is a teacher or speaker assigned to festival sessions.
// swagger:model Teacher
type Teacher struct {
	ID         string    `json:"id"`
	FestivalID string    `json:"festival_id"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	PhotoURL   string    `json:"photo_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewTeacher returns a new Teacher with the given fields. ID is typically set by the repository on create.
func NewTeacher(festivalID, name, bio, photoURL string, createdAt, updatedAt time.Time) *Teacher {
	return &Teacher{
		FestivalID: festivalID,
		Name:       name,
		Bio:        bio,
		PhotoURL:   photoURL,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// TeacherRepository defines storage for teachers.
type TeacherRepository interface {
	Create(ctx context.Context, teacher *Teacher) error
	GetByID(ctx context.Context, id string) (*Teacher, error)
	ListByFestivalID(ctx context.Context, festivalID string) ([]*Teacher, error)
	Delete(ctx context.Context, id string) error
}

// TeacherService defines the business logic for festival teachers.
type TeacherService interface {
	CreateTeacher(ctx context.Context, callerID string, teacher *Teacher) error
	ListTeachers(ctx context.Context, festivalID, callerID string) ([]*Teacher, error)
	DeleteTeacher(ctx context.Context, festivalID, teacherID, callerID string) error
	// BulkCreateTeachers creates each teacher independently: a failed item is reported in failed
	// and does not stop the batch.
	BulkCreateTeachers(ctx context.Context, festivalID, callerID string, teachers []*Teacher) (created []*Teacher, failed []string, err error)
}
