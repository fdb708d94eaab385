package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
)

const progressColumns = `id, project_id, description, progress, images, audio_notes, created_by, created_at, updated_at`

// PostgresProgressRepository implements repositories.ProgressRepository
type PostgresProgressRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewProgressRepository creates a new progress update repository
func NewProgressRepository(config *RepositoryConfig) repositories.ProgressRepository {
	return &PostgresProgressRepository{pool: config.Pool, tables: config.Tables}
}

func scanProgress(row pgx.Row) (*models.ProgressUpdate, error) {
	var p models.ProgressUpdate
	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.Description,
		&p.Progress,
		&p.Images,
		&p.AudioNotes,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.AudioNotes == nil {
		p.AudioNotes = []string{}
	}
	return &p, nil
}

// Create inserts a progress update
func (r *PostgresProgressRepository) Create(ctx context.Context, update *models.ProgressUpdate) error {
	if update.Images == nil {
		update.Images = []string{}
	}
	if update.AudioNotes == nil {
		update.AudioNotes = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, description, progress, images, audio_notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.ProgressUpdates)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		update.ProjectID,
		update.Description,
		update.Progress,
		update.Images,
		update.AudioNotes,
		update.CreatedBy,
		update.CreatedAt,
		update.UpdatedAt,
	).Scan(&update.ID, &update.CreatedAt, &update.UpdatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s: %w", update.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create progress update: %w", err)
	}
	return nil
}

// GetByID retrieves a progress update
func (r *PostgresProgressRepository) GetByID(ctx context.Context, id string) (*models.ProgressUpdate, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, progressColumns, r.tables.ProgressUpdates)

	p, err := scanProgress(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "progress update", id, "get progress update")
	}
	return p, nil
}

// ListByProject returns a project's updates, newest first
func (r *PostgresProgressRepository) ListByProject(ctx context.Context, projectID string) ([]models.ProgressUpdate, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE project_id = $1 ORDER BY created_at DESC
	`, progressColumns, r.tables.ProgressUpdates)
	return r.list(ctx, query, projectID)
}

// ListByCreator returns the updates a user authored, newest first
func (r *PostgresProgressRepository) ListByCreator(ctx context.Context, userID string) ([]models.ProgressUpdate, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE created_by = $1 ORDER BY created_at DESC
	`, progressColumns, r.tables.ProgressUpdates)
	return r.list(ctx, query, userID)
}

func (r *PostgresProgressRepository) list(ctx context.Context, query string, args ...any) ([]models.ProgressUpdate, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		if IsPgInvalidTextError(err) {
			return []models.ProgressUpdate{}, nil
		}
		return nil, fmt.Errorf("list progress updates: %w", err)
	}
	defer rows.Close()

	updates := []models.ProgressUpdate{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress update: %w", err)
		}
		updates = append(updates, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress updates: %w", err)
	}
	return updates, nil
}

// Update writes all mutable fields. Last write wins.
func (r *PostgresProgressRepository) Update(ctx context.Context, update *models.ProgressUpdate) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET description = $1, progress = $2, images = $3, audio_notes = $4, %s
		WHERE id = $5
		RETURNING updated_at
	`, r.tables.ProgressUpdates, bumpUpdatedAt)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		update.Description,
		update.Progress,
		update.Images,
		update.AudioNotes,
		update.ID,
	).Scan(&update.UpdatedAt)
	if err != nil {
		return notFoundOr(err, "progress update", update.ID, "update progress update")
	}
	return nil
}

// Delete removes a progress update
func (r *PostgresProgressRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.ProgressUpdates)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return notFoundOr(err, "progress update", id, "delete progress update")
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("progress update %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AppendImage adds an image URL
func (r *PostgresProgressRepository) AppendImage(ctx context.Context, id, url string) (*models.ProgressUpdate, error) {
	return r.appendTo(ctx, "images", id, url)
}

// AppendAudio adds an audio note URL
func (r *PostgresProgressRepository) AppendAudio(ctx context.Context, id, url string) (*models.ProgressUpdate, error) {
	return r.appendTo(ctx, "audio_notes", id, url)
}

// appendTo appends to a fixed array column; column is never user input
func (r *PostgresProgressRepository) appendTo(ctx context.Context, column, id, url string) (*models.ProgressUpdate, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = array_append(%s, $2), %s
		WHERE id = $1
		RETURNING %s
	`, r.tables.ProgressUpdates, column, column, bumpUpdatedAt, progressColumns)

	p, err := scanProgress(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, url))
	if err != nil {
		return nil, notFoundOr(err, "progress update", id, "append "+column)
	}
	return p, nil
}
