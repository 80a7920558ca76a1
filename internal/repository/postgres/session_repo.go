package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"festivalscheduling/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const sessionColumns = `id, festival_id, title, day, start_time, end_time, display_order, description, location, capacity, created_at, updated_at`

// queryer is the part of *sql.DB and *sql.Tx used by the session queries.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) domain.SessionRepository {
	return &SessionRepository{
		DB: db,
	}
}

func scanSession(row rowScanner) (*domain.Session, error) {
	s := &domain.Session{}
	var orderNull sql.NullFloat64
	var capacityNull sql.NullInt64
	err := row.Scan(
		&s.ID, &s.FestivalID, &s.Title, &s.Day, &s.StartTime, &s.EndTime,
		&orderNull, &s.Description, &s.Location, &capacityNull, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if orderNull.Valid {
		s.DisplayOrder = &orderNull.Float64
	}
	if capacityNull.Valid {
		c := int(capacityNull.Int64)
		s.Capacity = &c
	}
	s.TeacherIDs = []string{}
	return s, nil
}

// lockFestival serialises schedule writes of one festival across processes
// until the transaction ends.
func lockFestival(ctx context.Context, tx *sql.Tx, festivalID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, festivalID)
	return err
}

func insertSession(ctx context.Context, q queryer, s *domain.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	query := `
		INSERT INTO sessions (id, festival_id, title, day, start_time, end_time, display_order, description, location, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := q.ExecContext(ctx, query,
		s.ID, s.FestivalID, s.Title, s.Day, s.StartTime, s.EndTime,
		s.DisplayOrder, s.Description, s.Location, s.Capacity, s.CreatedAt, s.UpdatedAt,
	); err != nil {
		return err
	}
	return replaceTeachers(ctx, q, s.ID, s.TeacherIDs)
}

func updateSession(ctx context.Context, q queryer, s *domain.Session) error {
	query := `
		UPDATE sessions
		SET title = $2, day = $3, start_time = $4, end_time = $5, display_order = $6,
		    description = $7, location = $8, capacity = $9, updated_at = NOW()
		WHERE id = $1
	`
	result, err := q.ExecContext(ctx, query,
		s.ID, s.Title, s.Day, s.StartTime, s.EndTime, s.DisplayOrder, s.Description, s.Location, s.Capacity,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return replaceTeachers(ctx, q, s.ID, s.TeacherIDs)
}

// replaceTeachers rewrites the teacher links of a session.
func replaceTeachers(ctx context.Context, q queryer, sessionID string, teacherIDs []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM session_teachers WHERE session_id = $1`, sessionID); err != nil {
		return err
	}
	if len(teacherIDs) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO session_teachers (session_id, teacher_id) SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
		sessionID, pq.Array(teacherIDs))
	return err
}

// deleteUnbooked deletes a session only while it has no bookings.
func deleteUnbooked(ctx context.Context, q queryer, sessionID string) (bool, error) {
	query := `
		DELETE FROM sessions
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM bookings WHERE session_id = $1)
	`
	result, err := q.ExecContext(ctx, query, sessionID)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertSession(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	s, err := scanSession(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := loadRelations(ctx, r.DB, []*domain.Session{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) ListByFestivalID(ctx context.Context, festivalID string) ([]*domain.Session, error) {
	return listSessions(ctx, r.DB, festivalID)
}

func listSessions(ctx context.Context, q queryer, festivalID string) ([]*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE festival_id = $1
		ORDER BY created_at, id
	`
	rows, err := q.QueryContext(ctx, query, festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadRelations(ctx, q, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// loadRelations fills teacher IDs and bookings of the given sessions.
func loadRelations(ctx context.Context, q queryer, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Session, len(sessions))
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	teacherRows, err := q.QueryContext(ctx,
		`SELECT session_id, teacher_id FROM session_teachers WHERE session_id = ANY($1) ORDER BY teacher_id`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer teacherRows.Close()
	for teacherRows.Next() {
		var sessionID, teacherID string
		if err := teacherRows.Scan(&sessionID, &teacherID); err != nil {
			return err
		}
		if s := byID[sessionID]; s != nil {
			s.TeacherIDs = append(s.TeacherIDs, teacherID)
		}
	}
	if err := teacherRows.Err(); err != nil {
		return err
	}

	bookingRows, err := q.QueryContext(ctx, `
		SELECT id, session_id, festival_id, attendee_names, email, created_at
		FROM bookings
		WHERE session_id = ANY($1)
		ORDER BY created_at, id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer bookingRows.Close()
	for bookingRows.Next() {
		b := &domain.Booking{}
		if err := bookingRows.Scan(&b.ID, &b.SessionID, &b.FestivalID, pq.Array(&b.AttendeeNames), &b.Email, &b.CreatedAt); err != nil {
			return err
		}
		if s := byID[b.SessionID]; s != nil {
			s.Bookings = append(s.Bookings, b)
		}
	}
	return bookingRows.Err()
}

func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := updateSession(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	deleted, err := deleteUnbooked(ctx, r.DB, id)
	if err != nil {
		return err
	}
	if deleted {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrProtectedDeletion
	}
	return domain.ErrNotFound
}

func (r *SessionRepository) UpdateDisplayOrders(ctx context.Context, festivalID string, updates []domain.DisplayOrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := lockFestival(ctx, tx, festivalID); err != nil {
		return fmt.Errorf("lock festival: %w", err)
	}
	query := `
		UPDATE sessions SET display_order = $1, updated_at = NOW()
		WHERE id = $2 AND festival_id = $3
	`
	for _, u := range updates {
		result, err := tx.ExecContext(ctx, query, u.DisplayOrder, u.SessionID, festivalID)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("session %s: %w", u.SessionID, domain.ErrNotFound)
		}
	}
	return tx.Commit()
}

// ApplyMergePlan holds the festival's advisory lock for the whole transaction,
// so the sessions handed to planner are the ones the plan is written over.
func (r *SessionRepository) ApplyMergePlan(ctx context.Context, festivalID string, planner domain.MergePlanner) (*domain.MergePlan, []*domain.Session, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()
	if err := lockFestival(ctx, tx, festivalID); err != nil {
		return nil, nil, fmt.Errorf("lock festival: %w", err)
	}
	current, err := listSessions(ctx, tx, festivalID)
	if err != nil {
		return nil, nil, fmt.Errorf("list sessions: %w", err)
	}
	plan, err := planner(current)
	if err != nil {
		return nil, nil, err
	}

	for _, m := range plan.ToUpdate {
		if err := updateSession(ctx, tx, m.Incoming); err != nil {
			return nil, nil, fmt.Errorf("update session %s: %w", m.Incoming.ID, err)
		}
	}
	for _, s := range plan.ToCreate {
		s.FestivalID = festivalID
		if err := insertSession(ctx, tx, s); err != nil {
			return nil, nil, fmt.Errorf("create session %q: %w", s.Title, err)
		}
	}
	var refused []*domain.Session
	for _, s := range plan.ToDelete {
		deleted, err := deleteUnbooked(ctx, tx, s.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("delete session %s: %w", s.ID, err)
		}
		if !deleted {
			refused = append(refused, s)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return plan, refused, nil
}
