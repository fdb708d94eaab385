package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"sitetrack/internal/auth"
	"sitetrack/internal/config"
	"sitetrack/internal/events"
	"sitetrack/internal/handler"
	"sitetrack/internal/handler/sse"
	"sitetrack/internal/media"
	"sitetrack/internal/middleware"
	"sitetrack/internal/realtime"
	"sitetrack/internal/repository/postgres"
	"sitetrack/internal/service"
	serviceAuth "sitetrack/internal/service/auth"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup structured logging
	logOutput, closeLog, err := config.SetupLogOutput(cfg.LogDir, cfg.LogMaxFiles)
	if err != nil {
		log.Fatalf("Failed to set up log output: %v", err)
	}
	defer closeLog()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"auth_provider", cfg.AuthProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create pgx connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.ApplySchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// Create repositories
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

	// Realtime: one LISTEN connection feeds the in-process hub
	hub := realtime.NewHub(logger)
	listenConfig, err := pgx.ParseConfig(cfg.ListenURL)
	if err != nil {
		log.Fatalf("Failed to parse listen URL: %v", err)
	}
	listener := realtime.NewListener(listenConfig, tables.ChangeChannel(), postgres.LiveTables, hub, logger)
	go func() {
		if err := listener.Run(ctx); err != nil {
			logger.Error("change listener stopped", "error", err)
		}
	}()

	// Identity
	var (
		provider auth.IdentityProvider
		verifier auth.JWTVerifier
	)
	switch cfg.AuthProvider {
	case "local":
		provider = auth.NewLocalProvider(credentialRepo, cfg.JWTSecret, cfg.TokenTTL)
		verifier, err = auth.NewHMACVerifier(cfg.JWTSecret, logger)
	default:
		provider = auth.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseKey)
		verifier, err = auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	}
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer verifier.Close()

	// Redis is optional outside prod: without it logins are not throttled
	// and logout only revokes at the identity provider
	var (
		limiter  auth.AttemptLimiter
		denyList auth.TokenDenyList
	)
	if cfg.RedisAddr != "" {
		rdb, err := auth.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		switch {
		case err == nil:
			defer rdb.Close()
			limiter = auth.NewRedisAttemptLimiter(rdb, cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
			denyList = auth.NewRedisDenyList(rdb)
			logger.Info("redis connected", "addr", cfg.RedisAddr)
		case cfg.Environment == "prod":
			log.Fatalf("Failed to connect to redis: %v", err)
		default:
			logger.Warn("redis unavailable, login throttling and token revocation disabled", "error", err)
		}
	}

	// Events
	publisher, err := events.NewPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	// Media CDN
	mediaClient := media.NewClient(media.Config{
		CloudName:    cfg.CloudinaryCloudName,
		UploadPreset: cfg.CloudinaryUploadPreset,
		APIURL:       cfg.CloudinaryAPIURL,
		DeliveryURL:  cfg.CloudinaryDeliveryURL,
	}, logger)

	// Services
	authorizer := serviceAuth.NewMemberAuthorizer(projectRepo, taskRepo, progressRepo, docRepo, teamRepo)
	sessionService := service.NewSessionService(provider, verifier, limiter, denyList, userRepo, hub, logger)
	projectService := service.NewProjectService(projectRepo, teamRepo, indexInspector, hub, txManager, authorizer, logger)
	taskService := service.NewTaskService(taskRepo, hub, authorizer, mediaClient, publisher, logger)
	teamService := service.NewTeamService(teamRepo, userRepo, authorizer, publisher, logger)
	docService := service.NewDocumentService(docRepo, authorizer, mediaClient, logger)
	progressService := service.NewProgressService(progressRepo, authorizer, mediaClient, publisher, logger)
	settingsService := service.NewUserSettingsService(settingsRepo, logger)
	dashboardService := service.NewDashboardService(projectRepo, taskRepo, logger)

	logger.Info("services initialized")

	// Handlers
	sseConfig := sse.DefaultConfig()
	authHandler := handler.NewAuthHandler(sessionService, sseConfig, logger)
	projectHandler := handler.NewProjectHandler(projectService, sseConfig, logger)
	taskHandler := handler.NewTaskHandler(taskService, sseConfig, logger)
	teamHandler := handler.NewTeamHandler(teamService, logger)
	docHandler := handler.NewDocumentHandler(docService, logger)
	progressHandler := handler.NewProgressHandler(progressService, logger)
	mediaHandler := handler.NewMediaHandler(mediaClient, logger)
	settingsHandler := handler.NewUserSettingsHandler(settingsService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck(pool, logger))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", authHandler.Me)
	mux.HandleFunc("PATCH /api/auth/me", authHandler.UpdateMe)
	mux.HandleFunc("GET /api/auth/stream", authHandler.StreamAuthState)
	mux.HandleFunc("GET /api/members", authHandler.ListMembers)

	// Project routes
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/stream", projectHandler.StreamProjects)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)
	mux.HandleFunc("PATCH /api/projects/{id}", projectHandler.UpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", projectHandler.DeleteProject)

	// Task routes
	mux.HandleFunc("GET /api/projects/{id}/tasks", taskHandler.ListTasks)
	mux.HandleFunc("POST /api/projects/{id}/tasks", taskHandler.CreateTask)
	mux.HandleFunc("GET /api/projects/{id}/tasks/stream", taskHandler.StreamTasks)
	mux.HandleFunc("GET /api/tasks/upcoming", taskHandler.ListUpcomingTasks)
	mux.HandleFunc("GET /api/tasks/{id}", taskHandler.GetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", taskHandler.UpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", taskHandler.DeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/comments", taskHandler.AddComment)
	mux.HandleFunc("PATCH /api/tasks/{id}/comments/{commentID}", taskHandler.UpdateComment)
	mux.HandleFunc("DELETE /api/tasks/{id}/comments/{commentID}", taskHandler.DeleteComment)
	mux.HandleFunc("POST /api/tasks/{id}/voice-note", taskHandler.AttachVoiceNote)

	// Team routes
	mux.HandleFunc("GET /api/teams", teamHandler.ListTeams)
	mux.HandleFunc("POST /api/teams", teamHandler.CreateTeam)
	mux.HandleFunc("GET /api/teams/{id}", teamHandler.GetTeam)
	mux.HandleFunc("PATCH /api/teams/{id}", teamHandler.UpdateTeam)
	mux.HandleFunc("DELETE /api/teams/{id}", teamHandler.DeleteTeam)
	mux.HandleFunc("POST /api/teams/{id}/members", teamHandler.AddMember)
	mux.HandleFunc("PATCH /api/teams/{id}/members/{userID}", teamHandler.UpdateMemberRole)
	mux.HandleFunc("DELETE /api/teams/{id}/members/{userID}", teamHandler.RemoveMember)
	mux.HandleFunc("POST /api/teams/{id}/projects/{projectID}", teamHandler.AddProject)
	mux.HandleFunc("DELETE /api/teams/{id}/projects/{projectID}", teamHandler.RemoveProject)

	// Document routes
	mux.HandleFunc("GET /api/documents", docHandler.ListDocuments)
	mux.HandleFunc("POST /api/documents", docHandler.UploadDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	// Progress routes
	mux.HandleFunc("GET /api/projects/{id}/progress", progressHandler.ListProgress)
	mux.HandleFunc("POST /api/projects/{id}/progress", progressHandler.CreateProgressUpdate)
	mux.HandleFunc("GET /api/progress/mine", progressHandler.ListMyProgress)
	mux.HandleFunc("PATCH /api/progress/{id}", progressHandler.UpdateProgressUpdate)
	mux.HandleFunc("DELETE /api/progress/{id}", progressHandler.DeleteProgressUpdate)
	mux.HandleFunc("POST /api/progress/{id}/photos", progressHandler.AttachPhoto)
	mux.HandleFunc("POST /api/progress/{id}/audio", progressHandler.AttachAudio)

	// Media routes
	mux.HandleFunc("POST /api/media/images", mediaHandler.UploadImage)
	mux.HandleFunc("POST /api/media/audio", mediaHandler.UploadAudio)
	mux.HandleFunc("GET /api/media/url", mediaHandler.AssetURL)

	// Settings and dashboard
	mux.HandleFunc("GET /api/users/me/settings", settingsHandler.GetSettings)
	mux.HandleFunc("PATCH /api/users/me/settings", settingsHandler.UpdateSettings)
	mux.HandleFunc("GET /api/dashboard", dashboardHandler.GetDashboard)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Metrics → Routes
	h = middleware.Metrics(h)
	h = middleware.AuthMiddleware(verifier, denyList, logger,
		"/health",
		"/metrics",
		"POST /api/auth/login",
		"POST /api/auth/register",
	)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
		// Streams end when the process is signalled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
