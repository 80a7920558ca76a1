package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"festivalscheduling/internal/domain"
)

type teacherRepository struct {
	DB *sql.DB
}

func NewTeacherRepository(db *sql.DB) domain.TeacherRepository {
	return &teacherRepository{DB: db}
}

func (r *teacherRepository) Create(ctx context.Context, t *domain.Teacher) error {
	query := `
		INSERT INTO teachers (festival_id, name, bio, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, t.FestivalID, t.Name, t.Bio, t.PhotoURL, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: teacher %q", domain.ErrAlreadyExists, t.Name)
	}
	return err
}

func (r *teacherRepository) GetByID(ctx context.Context, id string) (*domain.Teacher, error) {
	query := `
		SELECT id, festival_id, name, bio, photo_url, created_at, updated_at
		FROM teachers
		WHERE id = $1
	`
	t := &domain.Teacher{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.FestivalID, &t.Name, &t.Bio, &t.PhotoURL, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *teacherRepository) ListByFestivalID(ctx context.Context, festivalID string) ([]*domain.Teacher, error) {
	query := `
		SELECT id, festival_id, name, bio, photo_url, created_at, updated_at
		FROM teachers
		WHERE festival_id = $1
		ORDER BY name
	`
	rows, err := r.DB.QueryContext(ctx, query, festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := make([]*domain.Teacher, 0)
	for rows.Next() {
		t := &domain.Teacher{}
		if err := rows.Scan(&t.ID, &t.FestivalID, &t.Name, &t.Bio, &t.PhotoURL, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

func (r *teacherRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
