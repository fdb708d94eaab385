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

const documentColumns = `id, name, type, file_url, public_id, size, tags, uploaded_by, uploaded_at, project_id`

// PostgresDocumentRepository implements repositories.DocumentRepository
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{pool: config.Pool, tables: config.Tables}
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Type,
		&d.FileURL,
		&d.PublicID,
		&d.Size,
		&d.Tags,
		&d.UploadedBy,
		&d.UploadedAt,
		&d.ProjectID,
	)
	if err != nil {
		return nil, err
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

// Create stores a document record
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, type, file_url, public_id, size, tags, uploaded_by, uploaded_at, project_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, uploaded_at
	`, r.tables.Documents)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		doc.Name,
		doc.Type,
		doc.FileURL,
		doc.PublicID,
		doc.Size,
		doc.Tags,
		doc.UploadedBy,
		doc.UploadedAt,
		doc.ProjectID,
	).Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("project for document: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	doc, err := scanDocument(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "document", id, "get document")
	}
	return doc, nil
}

// ListVisible returns documents the user may see, newest first
func (r *PostgresDocumentRepository) ListVisible(ctx context.Context, userID string, projectID *string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE (uploaded_by = $1
			OR project_id IN (SELECT id FROM %s WHERE team @> ARRAY[$1::text]))
			AND ($2::uuid IS NULL OR project_id = $2::uuid)
		ORDER BY uploaded_at DESC
	`, documentColumns, r.tables.Documents, r.tables.Projects)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID, projectID)
	if err != nil {
		if IsPgInvalidTextError(err) {
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Update writes name, type and tags
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $1, type = $2, tags = $3 WHERE id = $4`, r.tables.Documents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, doc.Name, doc.Type, doc.Tags, doc.ID)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a document record
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return notFoundOr(err, "document", id, "delete document")
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
