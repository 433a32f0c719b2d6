package repo

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/models"
)

// ErrTaskNotFound is returned when no task matched both the id and the
// owning user. A task owned by someone else is indistinguishable from a
// missing one.
var ErrTaskNotFound = errors.New("task not found")

const dueDateLayout = "2006-01-02"

// TaskPatch is a partial update. A nil pointer means the field was absent
// from the request and stays untouched. DueDateSet distinguishes an absent
// due_date from an explicit null (DueDateSet true, DueDate nil clears it).
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
	DueDateSet  bool
}

// Empty reports whether the patch touches no columns.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && !p.DueDateSet
}

type TaskRepo struct {
	DB *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{DB: db}
}

// ListForUser returns the user's tasks, most recently touched first, joined
// with the owner's display fields. Other users' tasks are never included.
func (r *TaskRepo) ListForUser(ctx context.Context, userID int) ([]models.Task, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.title, t.description, t.status, t.priority, t.due_date,
		       t.created_at, t.updated_at,
		       u.username, u.first_name, u.last_name
		FROM tasks t
		JOIN users u ON t.user_id = u.id
		WHERE t.user_id = $1
		ORDER BY t.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		var due sql.NullTime
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority, &due,
			&t.CreatedAt, &t.UpdatedAt,
			&t.Username, &t.FirstName, &t.LastName,
		); err != nil {
			return nil, err
		}
		if due.Valid {
			s := due.Time.Format(dueDateLayout)
			t.DueDate = &s
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Create inserts a task owned by userID and returns the generated id.
// An empty priority falls back to medium; a nil dueDate is stored as NULL.
func (r *TaskRepo) Create(ctx context.Context, userID int, title, description, priority string, dueDate *string) (int, error) {
	if priority == "" {
		priority = models.PriorityMedium
	}

	var id int
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO tasks (user_id, title, description, priority, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, userID, title, description, priority, dueDate).Scan(&id)
	return id, err
}

// updateColumns is the fixed allow-list for partial updates. Only these
// column names are ever concatenated into SQL; values are always bound.
var updateColumns = []string{"title", "description", "status", "priority", "due_date"}

// Update applies a partial patch to the task with taskID owned by userID.
// The ownership check and the write are one atomic statement. An empty
// patch verifies ownership and succeeds without touching updated_at.
func (r *TaskRepo) Update(ctx context.Context, taskID, userID int, patch TaskPatch) error {
	if patch.Empty() {
		var id int
		err := r.DB.QueryRowContext(ctx,
			`SELECT id FROM tasks WHERE id = $1 AND user_id = $2`,
			taskID, userID,
		).Scan(&id)
		if err == sql.ErrNoRows {
			return ErrTaskNotFound
		}
		return err
	}

	present := map[string]interface{}{}
	if patch.Title != nil {
		present["title"] = *patch.Title
	}
	if patch.Description != nil {
		present["description"] = *patch.Description
	}
	if patch.Status != nil {
		present["status"] = *patch.Status
	}
	if patch.Priority != nil {
		present["priority"] = *patch.Priority
	}
	if patch.DueDateSet {
		present["due_date"] = patch.DueDate
	}

	var sets []string
	var values []interface{}
	for _, col := range updateColumns {
		v, ok := present[col]
		if !ok {
			continue
		}
		values = append(values, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(values)))
	}
	sets = append(sets, "updated_at = now()")

	values = append(values, taskID, userID)
	query := "UPDATE tasks SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(values)-1) +
		" AND user_id = $" + strconv.Itoa(len(values))

	result, err := r.DB.ExecContext(ctx, query, values...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes the task with taskID owned by userID.
func (r *TaskRepo) Delete(ctx context.Context, taskID, userID int) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Stats aggregates the user's tasks by status and priority plus an overdue
// count (due before today, not completed). TotalTasks is the sum of the
// status counts.
func (r *TaskRepo) Stats(ctx context.Context, userID int) (*models.TaskStats, error) {
	stats := &models.TaskStats{
		StatusCounts:   map[string]int{},
		PriorityCounts: map[string]int{},
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE user_id = $1
		GROUP BY status
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.StatusCounts[status] = count
		stats.TotalTasks += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := r.DB.QueryContext(ctx, `
		SELECT priority, COUNT(*)
		FROM tasks
		WHERE user_id = $1
		GROUP BY priority
	`, userID)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var priority string
		var count int
		if err := prows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		stats.PriorityCounts[priority] = count
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	err = r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM tasks
		WHERE user_id = $1
		AND due_date < CURRENT_DATE
		AND status <> 'completed'
	`, userID).Scan(&stats.OverdueCount)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// ParseDueDate validates a YYYY-MM-DD due date string.
func ParseDueDate(s string) (time.Time, error) {
	return time.Parse(dueDateLayout, s)
}
