package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplySchema creates tables, indexes and change-notification triggers if
// they do not exist. The project team index is built CONCURRENTLY so a
// large table stays writable; until it finishes, project subscriptions
// report the index_building state.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, stmt := range schemaStatements(tables) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	// Must run outside a transaction block, as its own statement
	teamIndex := fmt.Sprintf(`CREATE INDEX CONCURRENTLY IF NOT EXISTS %s ON %s USING GIN (team)`,
		tables.ProjectTeamIndex(), tables.Projects)
	if _, err := pool.Exec(ctx, teamIndex); err != nil {
		return fmt.Errorf("create project team index: %w", err)
	}

	return nil
}

// DropSchema drops all tables in reverse dependency order
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{
		tables.ProgressUpdates,
		tables.Documents,
		tables.Tasks,
		tables.Teams,
		tables.Projects,
		tables.UserSettings,
		tables.Credentials,
		tables.Users,
	} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP FUNCTION IF EXISTS %snotify_change() CASCADE", tables.Prefix)); err != nil {
		return fmt.Errorf("drop notify function: %w", err)
	}
	return nil
}

// LiveTables lists the logical names of tables that publish change events
var LiveTables = []string{"users", "projects", "tasks", "teams", "documents", "progress_updates"}

func schemaStatements(t *TableNames) []string {
	p := t.Prefix
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + t.Users + ` (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			photo_url TEXT,
			phone TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.Credentials + ` (
			user_id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			disabled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.Projects + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			client TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ,
			budget DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (budget >= 0),
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'on-hold')),
			progress INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
			team TEXT[] NOT NULL DEFAULT '{}',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.Tasks + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			project_id UUID NOT NULL REFERENCES ` + t.Projects + `(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in-progress', 'completed')),
			priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
			due_date TIMESTAMPTZ,
			assigned_to TEXT NOT NULL,
			voice_note JSONB,
			comments JSONB NOT NULL DEFAULT '[]',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.Teams + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			members JSONB NOT NULL DEFAULT '[]',
			projects TEXT[] NOT NULL DEFAULT '{}',
			settings JSONB NOT NULL DEFAULT '{"allow_member_invites": true, "default_role": "member"}',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.Documents + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			file_url TEXT NOT NULL,
			public_id TEXT NOT NULL,
			size BIGINT NOT NULL DEFAULT 0,
			tags TEXT[] NOT NULL DEFAULT '{}',
			uploaded_by TEXT NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			project_id UUID REFERENCES ` + t.Projects + `(id) ON DELETE SET NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.ProgressUpdates + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			project_id UUID NOT NULL REFERENCES ` + t.Projects + `(id) ON DELETE CASCADE,
			description TEXT NOT NULL DEFAULT '',
			progress INTEGER NOT NULL CHECK (progress BETWEEN 0 AND 100),
			images TEXT[] NOT NULL DEFAULT '{}',
			audio_notes TEXT[] NOT NULL DEFAULT '{}',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.UserSettings + ` (
			user_id TEXT PRIMARY KEY,
			notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			dark_mode_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			language TEXT NOT NULL DEFAULT 'en',
			timezone TEXT NOT NULL DEFAULT 'UTC',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_` + p + `projects_created_at ON ` + t.Projects + `(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `tasks_project_created ON ` + t.Tasks + `(project_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `tasks_due_date ON ` + t.Tasks + `(due_date) WHERE due_date IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `teams_created_by ON ` + t.Teams + `(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `teams_members ON ` + t.Teams + ` USING GIN (members jsonb_path_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `documents_uploaded ON ` + t.Documents + `(uploaded_by, uploaded_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `documents_project ON ` + t.Documents + `(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `progress_project_created ON ` + t.ProgressUpdates + `(project_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `users_name ON ` + t.Users + `(name)`,

		// Publishes {table, op, id, project_id, team} for every row change.
		// TG_ARGV[0] carries the unprefixed table name.
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION %[1]snotify_change() RETURNS trigger AS $$
		DECLARE
			rec JSONB;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				rec := to_jsonb(OLD);
			ELSE
				rec := to_jsonb(NEW);
			END IF;
			PERFORM pg_notify('%[2]s', jsonb_build_object(
				'table', TG_ARGV[0],
				'op', TG_OP,
				'id', COALESCE(rec->>'id', rec->>'user_id'),
				'project_id', rec->>'project_id',
				'team', COALESCE(rec->'team', '[]'::jsonb)
			)::text);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`, p, t.ChangeChannel()),
	}

	for _, name := range LiveTables {
		table := p + name
		trigger := table + "_notify"
		stmts = append(stmts,
			fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, trigger, table),
			fmt.Sprintf(`CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s
				FOR EACH ROW EXECUTE FUNCTION %snotify_change('%s')`, trigger, table, p, name),
		)
	}

	return stmts
}
