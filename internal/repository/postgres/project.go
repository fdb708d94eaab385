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

const projectColumns = `id, name, description, client, location, start_date, end_date,
	budget, status, progress, team, created_by, created_at, updated_at`

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Client,
		&p.Location,
		&p.StartDate,
		&p.EndDate,
		&p.Budget,
		&p.Status,
		&p.Progress,
		&p.Team,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Team == nil {
		p.Team = []string{}
	}
	return &p, nil
}

// Create creates a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, client, location, start_date, end_date,
			budget, status, progress, team, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.Client,
		project.Location,
		project.StartDate,
		project.EndDate,
		project.Budget,
		project.Status,
		project.Progress,
		project.Team,
		project.CreatedBy,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, projectColumns, r.tables.Projects)

	project, err := scanProject(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "project", id, "get project")
	}
	return project, nil
}

// ListForMember retrieves the user's projects, newest first.
// The containment predicate is served by the GIN index on team.
func (r *PostgresProjectRepository) ListForMember(ctx context.Context, userID string) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE team @> ARRAY[$1::text]
		ORDER BY created_at DESC
	`, projectColumns, r.tables.Projects)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// Update writes every mutable field and refreshes updated_at from the row
func (r *PostgresProjectRepository) Update(ctx context.Context, project *models.Project, expectedUpdatedAt *time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, client = $3, location = $4,
			start_date = $5, end_date = $6, budget = $7, status = $8,
			progress = $9, team = $10,
			updated_at = GREATEST($11, updated_at + interval '1 microsecond')
		WHERE id = $12 AND ($13::timestamptz IS NULL OR updated_at = $13)
		RETURNING updated_at
	`, r.tables.Projects)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.Client,
		project.Location,
		project.StartDate,
		project.EndDate,
		project.Budget,
		project.Status,
		project.Progress,
		project.Team,
		project.UpdatedAt,
		project.ID,
		expectedUpdatedAt,
	).Scan(&project.UpdatedAt)

	if err == nil {
		return nil
	}
	if !IsPgNoRowsError(err) {
		return fmt.Errorf("update project: %w", err)
	}

	// Distinguish a missing row from a failed precondition
	current, getErr := r.GetByID(ctx, project.ID)
	if getErr != nil {
		return getErr
	}
	return staleWriteError("project", project.ID, current.UpdatedAt)
}

// Delete removes a project; tasks and progress updates cascade
func (r *PostgresProjectRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Projects)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return notFoundOr(err, "project", id, "delete project")
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// PostgresIndexInspector implements repositories.IndexInspector using pg_index
type PostgresIndexInspector struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewIndexInspector creates an index inspector
func NewIndexInspector(config *RepositoryConfig) repositories.IndexInspector {
	return &PostgresIndexInspector{pool: config.Pool, tables: config.Tables}
}

// ProjectTeamIndexReady reports false while CREATE INDEX CONCURRENTLY is
// still running. A missing index counts as ready since the query still
// answers correctly without it.
func (i *PostgresIndexInspector) ProjectTeamIndexReady(ctx context.Context) (bool, error) {
	query := `
		SELECT ix.indisvalid AND ix.indisready
		FROM pg_index ix
		JOIN pg_class c ON c.oid = ix.indexrelid
		WHERE c.relname = $1
	`

	var ready bool
	err := i.pool.QueryRow(ctx, query, i.tables.ProjectTeamIndex()).Scan(&ready)
	if err != nil {
		if IsPgNoRowsError(err) {
			return true, nil
		}
		return false, fmt.Errorf("inspect project team index: %w", err)
	}
	return ready, nil
}
