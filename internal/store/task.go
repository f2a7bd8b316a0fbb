package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/taskwire/taskwire/internal/model"
)

// TaskPatch carries the fields of a task update. Nil fields are left
// unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Completed   *bool
}

// CreateTask inserts a new task owned by userID and returns it with
// server-assigned id and creation timestamp.
func (s *Store) CreateTask(ctx context.Context, userID, title, description string, dueDate time.Time) (*model.Task, error) {
	task := &model.Task{
		ID:          model.NewID(),
		UserID:      userID,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		CreatedAt:   time.Now().UTC(),
	}

	query := `
	INSERT INTO tasks (id, user_id, title, description, due_date, completed, created_at)
	VALUES (?, ?, ?, ?, ?, 0, ?)
	`
	_, err := s.conn.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		formatStoredTime(task.DueDate),
		formatStoredTime(task.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	return task, nil
}

// GetTask returns the task with the given id owned by userID, or
// ErrNotFound.
func (s *Store) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	query := `
	SELECT id, user_id, title, description, due_date, completed, created_at
	FROM tasks
	WHERE id = ? AND user_id = ?
	`
	row := s.conn.QueryRowContext(ctx, query, id, userID)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return task, nil
}

// ListTasks returns userID's tasks newest-first by creation time.
//
// With a zero page every task is returned and total equals the slice
// length. With pagination, skip = (page-1)*size records are skipped and
// total is the user's full task count.
func (s *Store) ListTasks(ctx context.Context, userID string, page Page) ([]*model.Task, int, error) {
	query := `
	SELECT id, user_id, title, description, due_date, completed, created_at
	FROM tasks
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC
	`
	args := []any{userID}

	if !page.IsZero() {
		page = page.Normalize()
		query += " LIMIT ? OFFSET ?"
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	if page.IsZero() {
		return tasks, len(tasks), nil
	}

	total, err := s.CountTasks(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// CountTasks returns the number of tasks owned by userID.
func (s *Store) CountTasks(ctx context.Context, userID string) (int, error) {
	var total int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return total, nil
}

// UpdateTask applies patch to the task matching id and userID in a
// single owner-scoped statement, then returns the updated record.
// A mismatch on either id or owner is ErrNotFound.
func (s *Store) UpdateTask(ctx context.Context, userID, id string, patch TaskPatch) (*model.Task, error) {
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
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, formatStoredTime(*patch.DueDate))
	}
	if patch.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolToInt(*patch.Completed))
	}

	if len(sets) == 0 {
		return s.GetTask(ctx, userID, id)
	}

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = ? AND user_id = ?`,
		strings.Join(sets, ", "))
	args = append(args, id, userID)

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetTask(ctx, userID, id)
}

// DeleteTask removes the task matching id and userID. Deleting a
// missing (or foreign) task is ErrNotFound; delete is not idempotent.
func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
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

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*model.Task, error) {
	var task model.Task
	var due, created string
	var completed int

	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
		&due, &completed, &created)
	if err != nil {
		return nil, err
	}

	if task.DueDate, err = parseStoredTime(due); err != nil {
		return nil, err
	}
	if task.CreatedAt, err = parseStoredTime(created); err != nil {
		return nil, err
	}
	task.Completed = completed != 0

	return &task, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
