package service

import (
	"context"
	"log/slog"
	"time"

	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/domain/services"
)

type dashboardService struct {
	projectRepo repositories.ProjectRepository
	taskRepo    repositories.TaskRepository
	logger      *slog.Logger
	now         func() time.Time
}

// NewDashboardService creates the home screen summary service
func NewDashboardService(
	projectRepo repositories.ProjectRepository,
	taskRepo repositories.TaskRepository,
	logger *slog.Logger,
) services.DashboardService {
	return &dashboardService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *dashboardService) GetDashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	now := s.now()

	projects, err := s.projectRepo.ListForMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.taskRepo.ListUpcoming(ctx, userID, now, models.DashboardSize)
	if err != nil {
		return nil, err
	}

	d := models.BuildDashboard(projects, upcoming, now)
	return &d, nil
}
