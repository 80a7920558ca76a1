package postgres

import (
	"context"
	"database/sql"
	"errors"

	"festivalscheduling/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type bookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) domain.BookingRepository {
	return &bookingRepository{DB: db}
}

func (r *bookingRepository) CreateWithinCapacity(ctx context.Context, b *domain.Booking) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The row lock makes concurrent bookings of one session take turns.
	var capacity sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT capacity FROM sessions WHERE id = $1 FOR UPDATE`, b.SessionID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if capacity.Valid {
		var booked int64
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(cardinality(attendee_names)), 0) FROM bookings WHERE session_id = $1`, b.SessionID).Scan(&booked)
		if err != nil {
			return err
		}
		if booked+int64(len(b.AttendeeNames)) > capacity.Int64 {
			return domain.ErrCapacityExceeded
		}
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	query := `
		INSERT INTO bookings (id, session_id, festival_id, attendee_names, email, cancel_token_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, query,
		b.ID, b.SessionID, b.FestivalID, pq.Array(b.AttendeeNames), b.Email, b.CancelTokenHash, b.CreatedAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT id, session_id, festival_id, attendee_names, email, cancel_token_hash, created_at
		FROM bookings
		WHERE id = $1
	`
	b := &domain.Booking{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.SessionID, &b.FestivalID, pq.Array(&b.AttendeeNames), &b.Email, &b.CancelTokenHash, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) ListBySessionID(ctx context.Context, sessionID string, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	query := `
		SELECT id, session_id, festival_id, attendee_names, email, created_at, COUNT(*) OVER() AS total
		FROM bookings
		WHERE session_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, sessionID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	total := 0
	for rows.Next() {
		b := &domain.Booking{}
		if err := rows.Scan(&b.ID, &b.SessionID, &b.FestivalID, pq.Array(&b.AttendeeNames), &b.Email, &b.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(bookings) == 0 && params.Offset() > 0 {
		// Past the last page the window count is not available.
		if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE session_id = $1`, sessionID).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return bookings, total, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
