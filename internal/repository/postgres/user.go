package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
)

const userColumns = `id, email, name, role, photo_url, phone, created_at, updated_at`

// PostgresUserRepository implements repositories.UserRepository
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewUserRepository creates a new user profile repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{pool: config.Pool, tables: config.Tables}
}

func scanUser(row pgx.Row) (*models.UserProfile, error) {
	var u models.UserProfile
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PhotoURL, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a profile
func (r *PostgresUserRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, name, role, photo_url, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		profile.ID,
		profile.Email,
		profile.Name,
		profile.Role,
		profile.PhotoURL,
		profile.Phone,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("profile for user %s already exists", profile.ID),
				ResourceType: "user",
				ResourceID:   profile.ID,
			}
		}
		return fmt.Errorf("create user profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by user ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, r.tables.Users)

	u, err := scanUser(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "user", id, "get user profile")
	}
	return u, nil
}

// GetByIDs returns the profiles found among ids
func (r *PostgresUserRepository) GetByIDs(ctx context.Context, ids []string) ([]models.UserProfile, error) {
	if len(ids) == 0 {
		return []models.UserProfile{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id::text = ANY($1)`, userColumns, r.tables.Users)
	return r.list(ctx, query, ids)
}

// Update writes the mutable profile fields
func (r *PostgresUserRepository) Update(ctx context.Context, profile *models.UserProfile) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, photo_url = $2, phone = $3, updated_at = $4
		WHERE id = $5
	`, r.tables.Users)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		profile.Name,
		profile.PhotoURL,
		profile.Phone,
		profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", profile.ID, domain.ErrNotFound)
	}
	return nil
}

// List returns all profiles ordered by name
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.UserProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY name ASC`, userColumns, r.tables.Users)
	return r.list(ctx, query)
}

func (r *PostgresUserRepository) list(ctx context.Context, query string, args ...any) ([]models.UserProfile, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.UserProfile{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// PostgresCredentialRepository implements repositories.CredentialRepository
type PostgresCredentialRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewCredentialRepository creates a credential repository for the local provider
func NewCredentialRepository(config *RepositoryConfig) repositories.CredentialRepository {
	return &PostgresCredentialRepository{pool: config.Pool, tables: config.Tables}
}

// Create stores a credential. Emails are unique case-insensitively.
func (r *PostgresCredentialRepository) Create(ctx context.Context, cred *models.Credential) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, email, password_hash, disabled, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Credentials)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		cred.UserID,
		strings.ToLower(cred.Email),
		cred.PasswordHash,
		cred.Disabled,
		cred.CreatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("email %s already registered", cred.Email),
				ResourceType: "credential",
			}
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

// GetByEmail looks up a credential by email
func (r *PostgresCredentialRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	query := fmt.Sprintf(`
		SELECT user_id, email, password_hash, disabled, created_at
		FROM %s
		WHERE email = $1
	`, r.tables.Credentials)

	var c models.Credential
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&c.UserID, &c.Email, &c.PasswordHash, &c.Disabled, &c.CreatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "credential", email, "get credential")
	}
	return &c, nil
}
