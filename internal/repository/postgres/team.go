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

const teamColumns = `id, name, description, members, projects, settings, created_by, created_at, updated_at`

// lastAdminGuard is true when $2 is the only admin of the row being updated
const lastAdminGuard = `(
	members @> jsonb_build_array(jsonb_build_object('user_id', $2::text, 'role', 'admin'))
	AND (SELECT count(*) FROM jsonb_array_elements(members) m WHERE m->>'role' = 'admin') <= 1
)`

// PostgresTeamRepository implements repositories.TeamRepository
type PostgresTeamRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(config *RepositoryConfig) repositories.TeamRepository {
	return &PostgresTeamRepository{pool: config.Pool, tables: config.Tables}
}

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.Members,
		&t.Projects,
		&t.Settings,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.Members == nil {
		t.Members = []models.TeamMember{}
	}
	if t.Projects == nil {
		t.Projects = []string{}
	}
	return &t, nil
}

// Create inserts a team
func (r *PostgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	if team.Projects == nil {
		team.Projects = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, members, projects, settings, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Teams)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		team.Name,
		team.Description,
		team.Members,
		team.Projects,
		team.Settings,
		team.CreatedBy,
		team.CreatedAt,
		team.UpdatedAt,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// GetByID retrieves a team by ID
func (r *PostgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, teamColumns, r.tables.Teams)

	team, err := scanTeam(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "team", id, "get team")
	}
	return team, nil
}

// ListByCreator returns teams created by userID
func (r *PostgresTeamRepository) ListByCreator(ctx context.Context, userID string) ([]models.Team, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE created_by = $1
		ORDER BY created_at DESC
	`, teamColumns, r.tables.Teams)
	return r.list(ctx, query, userID)
}

// ListByMember returns teams whose member list contains userID
func (r *PostgresTeamRepository) ListByMember(ctx context.Context, userID string) ([]models.Team, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE members @> jsonb_build_array(jsonb_build_object('user_id', $1::text))
		ORDER BY created_at DESC
	`, teamColumns, r.tables.Teams)
	return r.list(ctx, query, userID)
}

func (r *PostgresTeamRepository) list(ctx context.Context, query string, args ...any) ([]models.Team, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

// Update writes name, description and settings
func (r *PostgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, settings = $3,
			updated_at = GREATEST($4, updated_at + interval '1 microsecond')
		WHERE id = $5
		RETURNING updated_at
	`, r.tables.Teams)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		team.Name,
		team.Description,
		team.Settings,
		team.UpdatedAt,
		team.ID,
	).Scan(&team.UpdatedAt)
	if err != nil {
		return notFoundOr(err, "team", team.ID, "update team")
	}
	return nil
}

// Delete removes a team
func (r *PostgresTeamRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Teams)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return notFoundOr(err, "team", id, "delete team")
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AddMember appends the member unless already present
func (r *PostgresTeamRepository) AddMember(ctx context.Context, teamID string, member models.TeamMember) (*models.Team, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET members = CASE
				WHEN members @> jsonb_build_array(jsonb_build_object('user_id', $2::text)) THEN members
				ELSE members || jsonb_build_array($3::jsonb)
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Teams, teamColumns)

	team, err := scanTeam(GetExecutor(ctx, r.pool).QueryRow(ctx, query, teamID, member.UserID, member))
	if err != nil {
		return nil, notFoundOr(err, "team", teamID, "add member")
	}
	return team, nil
}

// RemoveMember removes the user unless they are the last admin. The guard
// is evaluated against the row being updated, so concurrent removals of
// two admins cannot leave the team without one.
func (r *PostgresTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) (*models.Team, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET members = (
				SELECT COALESCE(jsonb_agg(m ORDER BY ord), '[]'::jsonb)
				FROM jsonb_array_elements(members) WITH ORDINALITY AS e(m, ord)
				WHERE m->>'user_id' <> $2
			),
			updated_at = now()
		WHERE id = $1
			AND members @> jsonb_build_array(jsonb_build_object('user_id', $2::text))
			AND NOT %s
		RETURNING %s
	`, r.tables.Teams, lastAdminGuard, teamColumns)

	team, err := scanTeam(GetExecutor(ctx, r.pool).QueryRow(ctx, query, teamID, userID))
	if err != nil {
		return nil, r.membershipError(ctx, err, teamID, userID, "remove member")
	}
	return team, nil
}

// UpdateMemberRole sets one member's role in place
func (r *PostgresTeamRepository) UpdateMemberRole(ctx context.Context, teamID, userID string, role models.MemberRole) (*models.Team, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET members = (
				SELECT COALESCE(jsonb_agg(
					CASE WHEN m->>'user_id' = $2 THEN jsonb_set(m, '{role}', to_jsonb($3::text)) ELSE m END
					ORDER BY ord), '[]'::jsonb)
				FROM jsonb_array_elements(members) WITH ORDINALITY AS e(m, ord)
			),
			updated_at = now()
		WHERE id = $1
			AND members @> jsonb_build_array(jsonb_build_object('user_id', $2::text))
			AND ($3 = 'admin' OR NOT %s)
		RETURNING %s
	`, r.tables.Teams, lastAdminGuard, teamColumns)

	team, err := scanTeam(GetExecutor(ctx, r.pool).QueryRow(ctx, query, teamID, userID, string(role)))
	if err != nil {
		return nil, r.membershipError(ctx, err, teamID, userID, "update member role")
	}
	return team, nil
}

// membershipError classifies a guarded membership update that matched no row
func (r *PostgresTeamRepository) membershipError(ctx context.Context, err error, teamID, userID, op string) error {
	if !IsPgNoRowsError(err) {
		return notFoundOr(err, "team", teamID, op)
	}
	team, getErr := r.GetByID(ctx, teamID)
	if getErr != nil {
		return getErr
	}
	if team.Member(userID) == nil {
		return fmt.Errorf("member %s of team %s: %w", userID, teamID, domain.ErrNotFound)
	}
	return fmt.Errorf("%w: Cannot remove the last admin", domain.ErrValidation)
}

// AddProject appends projectID to the team's projects if missing
func (r *PostgresTeamRepository) AddProject(ctx context.Context, teamID, projectID string) (*models.Team, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET projects = CASE WHEN $2 = ANY(projects) THEN projects ELSE array_append(projects, $2) END,
			updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Teams, teamColumns)

	team, err := scanTeam(GetExecutor(ctx, r.pool).QueryRow(ctx, query, teamID, projectID))
	if err != nil {
		return nil, notFoundOr(err, "team", teamID, "add project")
	}
	return team, nil
}

// RemoveProject drops projectID from the team's projects
func (r *PostgresTeamRepository) RemoveProject(ctx context.Context, teamID, projectID string) (*models.Team, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET projects = array_remove(projects, $2), updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Teams, teamColumns)

	team, err := scanTeam(GetExecutor(ctx, r.pool).QueryRow(ctx, query, teamID, projectID))
	if err != nil {
		return nil, notFoundOr(err, "team", teamID, "remove project")
	}
	return team, nil
}

// DetachProject removes projectID from all teams
func (r *PostgresTeamRepository) DetachProject(ctx context.Context, projectID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET projects = array_remove(projects, $1), updated_at = now()
		WHERE $1 = ANY(projects)
	`, r.tables.Teams)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, projectID); err != nil {
		return fmt.Errorf("detach project from teams: %w", err)
	}
	return nil
}
