package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"festivalscheduling/internal/domain"
)

const festivalColumns = `id, name, slug, owner_id, description, start_date, end_date, timezone, booking_enabled, created_at, updated_at`

type festivalRepository struct {
	DB *sql.DB
}

func NewFestivalRepository(db *sql.DB) domain.FestivalRepository {
	return &festivalRepository{
		DB: db,
	}
}

func scanFestival(row rowScanner) (*domain.Festival, error) {
	f := &domain.Festival{}
	var descNull sql.NullString
	var startNull, endNull sql.NullTime
	err := row.Scan(
		&f.ID, &f.Name, &f.Slug, &f.OwnerID, &descNull, &startNull, &endNull,
		&f.Timezone, &f.BookingEnabled, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if descNull.Valid {
		f.Description = &descNull.String
	}
	if startNull.Valid {
		f.StartDate = &startNull.Time
	}
	if endNull.Valid {
		f.EndDate = &endNull.Time
	}
	return f, nil
}

func (r *festivalRepository) Create(ctx context.Context, f *domain.Festival) error {
	query := `
		INSERT INTO festivals (name, slug, owner_id, description, start_date, end_date, timezone, booking_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		f.Name, f.Slug, f.OwnerID, f.Description, f.StartDate, f.EndDate, f.Timezone, f.BookingEnabled, f.CreatedAt, f.UpdatedAt,
	).Scan(&f.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: slug %q is taken", domain.ErrAlreadyExists, f.Slug)
	}
	return err
}

func (r *festivalRepository) GetByID(ctx context.Context, id string) (*domain.Festival, error) {
	query := `SELECT ` + festivalColumns + ` FROM festivals WHERE id = $1`
	return scanFestival(r.DB.QueryRowContext(ctx, query, id))
}

func (r *festivalRepository) GetBySlug(ctx context.Context, slug string) (*domain.Festival, error) {
	query := `SELECT ` + festivalColumns + ` FROM festivals WHERE slug = $1`
	return scanFestival(r.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(slug))))
}

func (r *festivalRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Festival, error) {
	query := `
		SELECT ` + festivalColumns + `
		FROM festivals
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	festivals := make([]*domain.Festival, 0)
	for rows.Next() {
		f, err := scanFestival(rows)
		if err != nil {
			return nil, err
		}
		festivals = append(festivals, f)
	}
	return festivals, rows.Err()
}

func (r *festivalRepository) Update(ctx context.Context, id string, u domain.FestivalUpdate) (*domain.Festival, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.StartDate != nil {
		set("start_date", *u.StartDate)
	}
	if u.EndDate != nil {
		set("end_date", *u.EndDate)
	}
	if u.Timezone != nil {
		set("timezone", *u.Timezone)
	}
	if u.BookingEnabled != nil {
		set("booking_enabled", *u.BookingEnabled)
	}
	if n == 1 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE festivals SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, festivalColumns)
	return scanFestival(r.DB.QueryRowContext(ctx, query, args...))
}

func (r *festivalRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM festivals WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
