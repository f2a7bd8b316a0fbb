package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/taskwire/taskwire/internal/model"
)

// EventPatch carries the fields of an event update. Nil fields are left
// unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Recurrence  *string
}

// CreateEvent inserts a new event owned by userID and returns it with
// server-assigned id and creation timestamp. Start/end ordering is not
// checked.
func (s *Store) CreateEvent(ctx context.Context, userID, title, description string, start, end time.Time, recurrence string) (*model.Event, error) {
	event := &model.Event{
		ID:          model.NewID(),
		UserID:      userID,
		Title:       title,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		Recurrence:  recurrence,
		CreatedAt:   time.Now().UTC(),
	}

	query := `
	INSERT INTO events (id, user_id, title, description, start_date, end_date, recurrence, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.Title,
		event.Description,
		formatStoredTime(event.StartDate),
		formatStoredTime(event.EndDate),
		event.Recurrence,
		formatStoredTime(event.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	return event, nil
}

// GetEvent returns the event with the given id owned by userID, or
// ErrNotFound.
func (s *Store) GetEvent(ctx context.Context, userID, id string) (*model.Event, error) {
	query := `
	SELECT id, user_id, title, description, start_date, end_date, recurrence, created_at
	FROM events
	WHERE id = ? AND user_id = ?
	`
	row := s.conn.QueryRowContext(ctx, query, id, userID)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return event, nil
}

// ListEvents returns userID's events newest-first by start date.
// Pagination behaves like ListTasks.
func (s *Store) ListEvents(ctx context.Context, userID string, page Page) ([]*model.Event, int, error) {
	query := `
	SELECT id, user_id, title, description, start_date, end_date, recurrence, created_at
	FROM events
	WHERE user_id = ?
	ORDER BY start_date DESC, id DESC
	`
	args := []any{userID}

	if !page.IsZero() {
		page = page.Normalize()
		query += " LIMIT ? OFFSET ?"
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate events: %w", err)
	}

	if page.IsZero() {
		return events, len(events), nil
	}

	total, err := s.CountEvents(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// CountEvents returns the number of events owned by userID.
func (s *Store) CountEvents(ctx context.Context, userID string) (int, error) {
	var total int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return total, nil
}

// UpdateEvent applies patch to the event matching id and userID in a
// single owner-scoped statement, then returns the updated record.
func (s *Store) UpdateEvent(ctx context.Context, userID, id string, patch EventPatch) (*model.Event, error) {
	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, formatStoredTime(*patch.StartDate))
	}
	if patch.EndDate != nil {
		sets = append(sets, "end_date = ?")
		args = append(args, formatStoredTime(*patch.EndDate))
	}
	if patch.Recurrence != nil {
		sets = append(sets, "recurrence = ?")
		args = append(args, *patch.Recurrence)
	}

	if len(sets) == 0 {
		return s.GetEvent(ctx, userID, id)
	}

	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = ? AND user_id = ?`,
		strings.Join(sets, ", "))
	args = append(args, id, userID)

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetEvent(ctx, userID, id)
}

// DeleteEvent removes the event matching id and userID, or ErrNotFound.
func (s *Store) DeleteEvent(ctx context.Context, userID, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM events WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(row scanner) (*model.Event, error) {
	var event model.Event
	var start, end, created string

	err := row.Scan(&event.ID, &event.UserID, &event.Title, &event.Description,
		&start, &end, &event.Recurrence, &created)
	if err != nil {
		return nil, err
	}

	if event.StartDate, err = parseStoredTime(start); err != nil {
		return nil, err
	}
	if event.EndDate, err = parseStoredTime(end); err != nil {
		return nil, err
	}
	if event.CreatedAt, err = parseStoredTime(created); err != nil {
		return nil, err
	}

	return &event, nil
}
