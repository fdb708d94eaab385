package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"sitetrack/internal/auth"
	"sitetrack/internal/config"
	"sitetrack/internal/events"
	"sitetrack/internal/media"
	"sitetrack/internal/realtime"
	"sitetrack/internal/repository/postgres"
	"sitetrack/internal/seed"
	"sitetrack/internal/service"
	serviceAuth "sitetrack/internal/service/auth"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed data")
	clearData := flag.Bool("clear-data", false, "Clear projects, tasks, teams, documents and progress updates (keep users and schema)")
	resetUsers := flag.Bool("reset-users", false, "Delete the fixture's users before seeding them again")
	fixturePath := flag.String("fixture", "", "Path to a YAML fixture (defaults to the embedded demo data)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData || *resetUsers) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables, --clear-data or --reset-users) in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Parse the fixture before touching the database
	var fixture *seed.Fixture
	if !*schemaOnly && !*clearData {
		fixture, err = loadFixture(*fixturePath)
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.ApplySchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	log.Println("🧹 Clearing existing project data...")
	if err := clearProjectData(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	if *clearData {
		log.Println("✅ Data cleared successfully")
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	credentialRepo := postgres.NewCredentialRepository(repoConfig)
	projectRepo := postgres.NewProjectRepository(repoConfig)
	indexInspector := postgres.NewIndexInspector(repoConfig)
	taskRepo := postgres.NewTaskRepository(repoConfig)
	teamRepo := postgres.NewTeamRepository(repoConfig)
	docRepo := postgres.NewDocumentRepository(repoConfig)
	progressRepo := postgres.NewProgressRepository(repoConfig)
	settingsRepo := postgres.NewUserSettingsRepository(repoConfig)
	txManager := postgres.NewTransactionManager(repoConfig)

	var identities seed.UserEnsurer
	var admin *auth.AdminClient
	if cfg.AuthProvider == "local" {
		identities = auth.NewLocalProvider(credentialRepo, cfg.JWTSecret, cfg.TokenTTL)
	} else {
		if cfg.SupabaseServiceKey == "" {
			log.Fatalf("SUPABASE_SERVICE_KEY is required to seed users with AUTH_PROVIDER=supabase")
		}
		admin = auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		identities = admin
	}

	if *resetUsers {
		log.Println("🗑️  Removing fixture users...")
		if err := resetFixtureUsers(ctx, pool, tables, admin, fixture); err != nil {
			log.Fatalf("Failed to reset users: %v", err)
		}
	}

	// Seeding never publishes notifications; uploads are not exercised
	hub := realtime.NewHub(logger)
	publisher := events.NewNoopPublisher(logger)
	mediaClient := media.NewClient(media.Config{
		CloudName:    cfg.CloudinaryCloudName,
		UploadPreset: cfg.CloudinaryUploadPreset,
		APIURL:       cfg.CloudinaryAPIURL,
		DeliveryURL:  cfg.CloudinaryDeliveryURL,
	}, logger)

	authorizer := serviceAuth.NewMemberAuthorizer(projectRepo, taskRepo, progressRepo, docRepo, teamRepo)
	seeder := seed.NewSeeder(
		identities,
		userRepo,
		service.NewProjectService(projectRepo, teamRepo, indexInspector, hub, txManager, authorizer, logger),
		service.NewTaskService(taskRepo, hub, authorizer, mediaClient, publisher, logger),
		service.NewProgressService(progressRepo, authorizer, mediaClient, publisher, logger),
		service.NewTeamService(teamRepo, userRepo, authorizer, publisher, logger),
		service.NewUserSettingsService(settingsRepo, logger),
		logger,
	)

	log.Println("📝 Seeding users, projects and teams...")
	summary, err := seeder.Run(ctx, fixture)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✅ Users: %d, projects: %d, tasks: %d, comments: %d, progress updates: %d, teams: %d",
		summary.Users, summary.Projects, summary.Tasks, summary.Comments, summary.Updates, summary.Teams)
	log.Println("🎉 Seeding complete!")
}

func loadFixture(path string) (*seed.Fixture, error) {
	var r io.Reader = bytes.NewReader(demoFixture)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return seed.LoadFixture(r)
}

// clearProjectData deletes everything except users, credentials and settings.
// Child tables go first.
func clearProjectData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{
		tables.ProgressUpdates,
		tables.Documents,
		tables.Tasks,
		tables.Teams,
		tables.Projects,
	} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
		log.Printf("   cleared %s", table)
	}
	return nil
}

// resetFixtureUsers removes the fixture's profiles and identities so they
// are recreated with the fixture's passwords.
func resetFixtureUsers(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, admin *auth.AdminClient, fixture *seed.Fixture) error {
	emails := make([]string, 0, len(fixture.Users))
	for _, u := range fixture.Users {
		emails = append(emails, strings.ToLower(strings.TrimSpace(u.Email)))
	}

	if _, err := pool.Exec(ctx,
		"DELETE FROM "+tables.UserSettings+" WHERE user_id IN (SELECT id FROM "+tables.Users+" WHERE email = ANY($1))",
		emails); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, "DELETE FROM "+tables.Users+" WHERE email = ANY($1)", emails); err != nil {
		return err
	}

	if admin == nil {
		_, err := pool.Exec(ctx, "DELETE FROM "+tables.Credentials+" WHERE email = ANY($1)", emails)
		return err
	}
	for _, email := range emails {
		if err := admin.DeleteUserByEmail(ctx, email); err != nil {
			log.Printf("Warning: could not delete %s: %v", email, err)
		}
	}
	return nil
}
