package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"sitetrack/internal/config"
	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/domain/services"
)

// indexPollInterval is how often an index_building subscription rechecks
const indexPollInterval = 5 * time.Second

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo repositories.ProjectRepository
	teamRepo    repositories.TeamRepository
	indexes     repositories.IndexInspector
	feed        repositories.ChangeFeed
	txManager   repositories.TransactionManager
	authorizer  services.ResourceAuthorizer
	logger      *slog.Logger
	poll        time.Duration
	now         func() time.Time
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	teamRepo repositories.TeamRepository,
	indexes repositories.IndexInspector,
	feed repositories.ChangeFeed,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		teamRepo:    teamRepo,
		indexes:     indexes,
		feed:        feed,
		txManager:   txManager,
		authorizer:  authorizer,
		logger:      logger,
		poll:        indexPollInterval,
		now:         time.Now,
	}
}

// CreateProject creates a new project with the creator on its team
func (s *projectService) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	if req.Status == "" {
		req.Status = models.ProjectActive
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	now := s.now().UTC()
	project := &models.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Client:      strings.TrimSpace(req.Client),
		Location:    strings.TrimSpace(req.Location),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		Status:      req.Status,
		Progress:    req.Progress,
		Team:        models.NormalizeTeam(req.UserID, req.Team),
		CreatedBy:   req.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"id", project.ID,
		"name", project.Name,
		"user_id", req.UserID,
		"team_size", len(project.Team),
	)

	return project, nil
}

// GetProject retrieves a project visible to the user
func (s *projectService) GetProject(ctx context.Context, id, userID string) (*models.Project, error) {
	return s.authorizer.CanAccessProject(ctx, userID, id)
}

// ListProjects retrieves the user's projects with filtering applied
func (s *projectService) ListProjects(ctx context.Context, userID string, f models.ProjectFilter) (*services.ProjectList, error) {
	projects, err := s.projectRepo.ListForMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &services.ProjectList{
		Projects: models.FilterProjects(projects, f),
		Counts:   models.CountProjects(projects),
	}, nil
}

// SubscribeProjects streams the user's project list. While the team index
// is still being built the snapshot carries the index_building state and
// the stream polls until the index is ready.
func (s *projectService) SubscribeProjects(ctx context.Context, userID string) (<-chan models.ProjectSnapshot, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	var visible map[string]struct{}

	q := &liveQuery[models.ProjectSnapshot]{
		kind:   "projects",
		events: s.feed.Subscribe(ctx, "projects"),
		relevant: func(ev repositories.ChangeEvent) bool {
			if slices.Contains(ev.Team, userID) {
				return true
			}
			// removals from the team or deletes of a listed project
			_, listed := visible[ev.ID]
			return listed
		},
		build: func(ctx context.Context, seq uint64) (models.ProjectSnapshot, bool, error) {
			snap, err := s.projectSnapshot(ctx, userID, seq)
			if err != nil {
				return snap, false, err
			}
			visible = make(map[string]struct{}, len(snap.Projects))
			for _, p := range snap.Projects {
				visible[p.ID] = struct{}{}
			}
			return snap, snap.State == models.SnapshotIndexBuilding, nil
		},
		poll:   s.poll,
		logger: s.logger,
	}

	return q.start(ctx)
}

func (s *projectService) projectSnapshot(ctx context.Context, userID string, seq uint64) (models.ProjectSnapshot, error) {
	ready, err := s.indexes.ProjectTeamIndexReady(ctx)
	if err != nil {
		return models.ProjectSnapshot{}, fmt.Errorf("check project index: %w", err)
	}
	if !ready {
		return models.ProjectSnapshot{
			State:    models.SnapshotIndexBuilding,
			Seq:      seq,
			Projects: []models.Project{},
			Hint:     models.IndexBuildingHint,
		}, nil
	}

	projects, err := s.projectRepo.ListForMember(ctx, userID)
	if err != nil {
		return models.ProjectSnapshot{}, err
	}

	return models.ProjectSnapshot{
		State:    models.SnapshotLive,
		Seq:      seq,
		Projects: projects,
		Counts:   models.CountProjects(projects),
	}, nil
}

// UpdateProject applies a merge-patch to a project
func (s *projectService) UpdateProject(ctx context.Context, id, userID string, req *services.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.authorizer.CanAccessProject(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Client != nil {
		project.Client = strings.TrimSpace(*req.Client)
	}
	if req.Location != nil {
		project.Location = strings.TrimSpace(*req.Location)
	}
	if req.StartDate != nil {
		project.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	if req.Budget != nil {
		project.Budget = *req.Budget
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.Progress != nil {
		project.Progress = *req.Progress
	}
	if req.Team != nil {
		project.Team = models.NormalizeTeam(project.CreatedBy, req.Team)
	}

	if err := s.validateProject(project); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	// the repository keeps updated_at strictly increasing past this value
	project.UpdatedAt = s.now().UTC()
	if err := s.projectRepo.Update(ctx, project, req.ExpectedUpdatedAt); err != nil {
		return nil, err
	}

	s.logger.Info("project updated",
		"id", project.ID,
		"user_id", userID,
		"status", project.Status,
	)

	return project, nil
}

// DeleteProject deletes a project and detaches it from every team.
// Tasks and progress updates are removed by the store.
func (s *projectService) DeleteProject(ctx context.Context, id, userID string) error {
	// not-found surfaces here on a repeated delete
	if _, err := s.authorizer.CanAccessProject(ctx, userID, id); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.teamRepo.DetachProject(ctx, id); err != nil {
			return err
		}
		return s.projectRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("project deleted",
		"id", id,
		"user_id", userID,
	)

	return nil
}

// validateCreateRequest validates a create project request
func (s *projectService) validateCreateRequest(req *services.CreateProjectRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxProjectNameLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Client, validation.Required, validation.By(notBlank)),
		validation.Field(&req.Location, validation.Required, validation.By(notBlank)),
		validation.Field(&req.StartDate, validation.Required),
		validation.Field(&req.EndDate, validation.By(endAfter(req.StartDate))),
		validation.Field(&req.Budget, validation.Min(0.0)),
		validation.Field(&req.Status, validation.By(validProjectStatus)),
		validation.Field(&req.Progress, validation.Min(0), validation.Max(100)),
	)
}

// validateProject validates a project after a patch has been applied
func (s *projectService) validateProject(p *models.Project) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name,
			validation.Required,
			validation.Length(1, config.MaxProjectNameLength),
		),
		validation.Field(&p.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&p.Client, validation.Required),
		validation.Field(&p.Location, validation.Required),
		validation.Field(&p.EndDate, validation.By(endAfter(p.StartDate))),
		validation.Field(&p.Budget, validation.Min(0.0)),
		validation.Field(&p.Status, validation.By(validProjectStatus)),
		validation.Field(&p.Progress, validation.Min(0), validation.Max(100)),
	)
}

func validProjectStatus(value interface{}) error {
	status, _ := value.(models.ProjectStatus)
	if !status.Valid() {
		return fmt.Errorf("must be one of active, completed, on-hold")
	}
	return nil
}

// endAfter checks an optional end date against the start date
func endAfter(start time.Time) validation.RuleFunc {
	return func(value interface{}) error {
		end, _ := value.(*time.Time)
		if end != nil && end.Before(start) {
			return fmt.Errorf("must not be before the start date")
		}
		return nil
	}
}

// notBlank rejects whitespace-only strings
func notBlank(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("must be a string")
	}
	if strings.TrimSpace(str) == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}
