package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitetrack/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix          string
	Users           string
	Credentials     string
	Projects        string
	Tasks           string
	Teams           string
	Documents       string
	ProgressUpdates string
	UserSettings    string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix:          prefix,
		Users:           fmt.Sprintf("%susers", prefix),
		Credentials:     fmt.Sprintf("%scredentials", prefix),
		Projects:        fmt.Sprintf("%sprojects", prefix),
		Tasks:           fmt.Sprintf("%stasks", prefix),
		Teams:           fmt.Sprintf("%steams", prefix),
		Documents:       fmt.Sprintf("%sdocuments", prefix),
		ProgressUpdates: fmt.Sprintf("%sprogress_updates", prefix),
		UserSettings:    fmt.Sprintf("%suser_settings", prefix),
	}
}

// ProjectTeamIndex is the name of the GIN index serving team containment queries
func (t *TableNames) ProjectTeamIndex() string {
	return t.Projects + "_team_idx"
}

// ChangeChannel is the NOTIFY channel carrying row changes for this prefix
func (t *TableNames) ChangeChannel() string {
	return t.Prefix + "sitetrack_changes"
}

// CreateConnectionPool creates a pgx connection pool.
//
// Port 6543 is the Supabase transaction pooler (PgBouncer), which does not
// support prepared statements. For it the pool switches to
// QueryExecModeCacheDescribe, which still uses the extended protocol so
// JSONB and array parameters encode correctly. An explicit
// default_query_exec_mode in the URL takes precedence.
//
// LISTEN needs a session-level connection, so the realtime listener must be
// pointed at the direct port (5432) even when queries go through the pooler.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
