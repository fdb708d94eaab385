package services

import (
	"context"

	"sitetrack/internal/domain/models"
)

type DashboardService interface {
	GetDashboard(ctx context.Context, userID string) (*models.Dashboard, error)
}
