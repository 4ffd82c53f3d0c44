package service

import (
	"context"
	"time"

	"invoicedash/internal/dashboard"
	"invoicedash/internal/domain"
	"invoicedash/internal/port"
)

// DefaultAnalyticsDays is the analytics window used when none is requested.
const DefaultAnalyticsDays = 7

// DashboardService provides aggregate views of the invoice collection.
type DashboardService interface {
	Metrics(ctx context.Context) (*domain.DashboardMetrics, error)
	Analytics(ctx context.Context, days int) (*domain.Analytics, error)
}

type dashboardService struct {
	repo port.InvoiceRepository
	now  func() time.Time
}

// NewDashboardService creates a new DashboardService implementation.
func NewDashboardService(repo port.InvoiceRepository) DashboardService {
	return &dashboardService{repo: repo, now: time.Now}
}

func (s *dashboardService) Metrics(_ context.Context) (*domain.DashboardMetrics, error) {
	m := s.repo.Metrics()
	return &m, nil
}

func (s *dashboardService) Analytics(_ context.Context, days int) (*domain.Analytics, error) {
	if days <= 0 {
		days = DefaultAnalyticsDays
	}
	a := dashboard.ComputeAnalytics(s.repo.List(), s.now(), days)
	return &a, nil
}
