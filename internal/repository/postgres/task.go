package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
)

const taskColumns = `id, title, description, project_id, status, priority, due_date,
	assigned_to, voice_note, comments, created_by, created_at, updated_at`

// bumpUpdatedAt keeps updated_at strictly increasing even when the clock
// does not move between two writes.
const bumpUpdatedAt = `updated_at = GREATEST(now(), updated_at + interval '1 microsecond')`

// PostgresTaskRepository implements repositories.TaskRepository
type PostgresTaskRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(config *RepositoryConfig) repositories.TaskRepository {
	return &PostgresTaskRepository{pool: config.Pool, tables: config.Tables}
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.ProjectID,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.AssignedTo,
		&t.VoiceNote,
		&t.Comments,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.Comments == nil {
		t.Comments = []models.Comment{}
	}
	return &t, nil
}

// Create inserts a task
func (r *PostgresTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.Comments == nil {
		task.Comments = []models.Comment{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (title, description, project_id, status, priority, due_date,
			assigned_to, voice_note, comments, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, r.tables.Tasks)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.ProjectID,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedTo,
		task.VoiceNote,
		task.Comments,
		task.CreatedBy,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s: %w", task.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task by ID
func (r *PostgresTaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, taskColumns, r.tables.Tasks)

	task, err := scanTask(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "task", id, "get task")
	}
	return task, nil
}

// ListByProject returns tasks of a project ordered by created_at DESC
func (r *PostgresTaskRepository) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, taskColumns, r.tables.Tasks)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, projectID)
	if err != nil {
		if IsPgInvalidTextError(err) {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// ListUpcoming returns dated tasks across the user's projects
func (r *PostgresTaskRepository) ListUpcoming(ctx context.Context, userID string, after time.Time, limit int) ([]models.UpcomingTask, error) {
	query := fmt.Sprintf(`
		SELECT t.id, t.title, t.description, t.project_id, t.status, t.priority, t.due_date,
			t.assigned_to, t.voice_note, t.comments, t.created_by, t.created_at, t.updated_at,
			p.name
		FROM %s t
		JOIN %s p ON p.id = t.project_id
		WHERE p.team @> ARRAY[$1::text] AND t.due_date > $2
		ORDER BY t.due_date ASC
		LIMIT $3
	`, r.tables.Tasks, r.tables.Projects)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.UpcomingTask{}
	for rows.Next() {
		var u models.UpcomingTask
		t := &u.Task
		err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.ProjectID, &t.Status, &t.Priority, &t.DueDate,
			&t.AssignedTo, &t.VoiceNote, &t.Comments, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
			&u.ProjectName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan upcoming task: %w", err)
		}
		if t.Comments == nil {
			t.Comments = []models.Comment{}
		}
		tasks = append(tasks, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate upcoming tasks: %w", err)
	}
	return tasks, nil
}

// Update writes the mutable task fields. Comments are not touched here.
func (r *PostgresTaskRepository) Update(ctx context.Context, task *models.Task, expectedUpdatedAt *time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, status = $3, priority = $4,
			due_date = $5, assigned_to = $6, %s
		WHERE id = $7 AND ($8::timestamptz IS NULL OR updated_at = $8)
		RETURNING updated_at
	`, r.tables.Tasks, bumpUpdatedAt)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedTo,
		task.ID,
		expectedUpdatedAt,
	).Scan(&task.UpdatedAt)

	if err == nil {
		return nil
	}
	if !IsPgNoRowsError(err) {
		return fmt.Errorf("update task: %w", err)
	}

	current, getErr := r.GetByID(ctx, task.ID)
	if getErr != nil {
		return getErr
	}
	return staleWriteError("task", task.ID, current.UpdatedAt)
}

// Delete removes a task
func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Tasks)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return notFoundOr(err, "task", id, "delete task")
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AddComment appends a comment in one statement
func (r *PostgresTaskRepository) AddComment(ctx context.Context, taskID string, comment models.Comment) (*models.Task, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET comments = comments || jsonb_build_array($2::jsonb), %s
		WHERE id = $1
		RETURNING %s
	`, r.tables.Tasks, bumpUpdatedAt, taskColumns)

	task, err := scanTask(GetExecutor(ctx, r.pool).QueryRow(ctx, query, taskID, comment))
	if err != nil {
		return nil, notFoundOr(err, "task", taskID, "add comment")
	}
	return task, nil
}

// UpdateComment rewrites the text of one comment, preserving array order
func (r *PostgresTaskRepository) UpdateComment(ctx context.Context, taskID, commentID, text string, at time.Time) (*models.Task, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET comments = (
			SELECT COALESCE(jsonb_agg(
				CASE WHEN c->>'id' = $2
					THEN c || jsonb_build_object('text', $3::text, 'updated_at', $4::timestamptz)
					ELSE c
				END ORDER BY ord), '[]'::jsonb)
			FROM jsonb_array_elements(comments) WITH ORDINALITY AS e(c, ord)
		), %s
		WHERE id = $1 AND comments @> jsonb_build_array(jsonb_build_object('id', $2::text))
		RETURNING %s
	`, r.tables.Tasks, bumpUpdatedAt, taskColumns)

	task, err := scanTask(GetExecutor(ctx, r.pool).QueryRow(ctx, query, taskID, commentID, text, at))
	if err != nil {
		return nil, r.commentError(ctx, err, taskID, commentID, "update comment")
	}
	return task, nil
}

// DeleteComment removes one comment, preserving the order of the rest
func (r *PostgresTaskRepository) DeleteComment(ctx context.Context, taskID, commentID string) (*models.Task, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET comments = (
			SELECT COALESCE(jsonb_agg(c ORDER BY ord), '[]'::jsonb)
			FROM jsonb_array_elements(comments) WITH ORDINALITY AS e(c, ord)
			WHERE c->>'id' <> $2
		), %s
		WHERE id = $1 AND comments @> jsonb_build_array(jsonb_build_object('id', $2::text))
		RETURNING %s
	`, r.tables.Tasks, bumpUpdatedAt, taskColumns)

	task, err := scanTask(GetExecutor(ctx, r.pool).QueryRow(ctx, query, taskID, commentID))
	if err != nil {
		return nil, r.commentError(ctx, err, taskID, commentID, "delete comment")
	}
	return task, nil
}

// commentError tells a missing task from a missing comment
func (r *PostgresTaskRepository) commentError(ctx context.Context, err error, taskID, commentID, op string) error {
	if !IsPgNoRowsError(err) {
		return notFoundOr(err, "task", taskID, op)
	}
	if _, getErr := r.GetByID(ctx, taskID); getErr != nil {
		return getErr
	}
	return fmt.Errorf("comment %s: %w", commentID, domain.ErrNotFound)
}

// SetVoiceNote replaces the task's voice note
func (r *PostgresTaskRepository) SetVoiceNote(ctx context.Context, taskID string, note *models.VoiceNote) (*models.Task, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET voice_note = $2, %s
		WHERE id = $1
		RETURNING %s
	`, r.tables.Tasks, bumpUpdatedAt, taskColumns)

	task, err := scanTask(GetExecutor(ctx, r.pool).QueryRow(ctx, query, taskID, note))
	if err != nil {
		return nil, notFoundOr(err, "task", taskID, "set voice note")
	}
	return task, nil
}
