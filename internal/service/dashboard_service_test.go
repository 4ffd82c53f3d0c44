package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedash/internal/domain"
	"invoicedash/internal/service"
	"invoicedash/internal/store"
)

func TestDashboardService_Metrics(t *testing.T) {
	repo := store.New()
	for _, inv := range []domain.Invoice{
		seededInvoice("a", 90, domain.StatusApproved),
		seededInvoice("b", 50, domain.StatusReview),
		seededInvoice("c", 85, domain.StatusApproved),
	} {
		_, err := repo.Add(inv)
		require.NoError(t, err)
	}
	svc := service.NewDashboardService(repo)

	m, err := svc.Metrics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, m.TotalInvoices)
	assert.InDelta(t, 66.67, m.AutoApprovalRate, 0.01)
	assert.InDelta(t, 75.0, m.AverageConfidence, 0.001)
}

func TestDashboardService_AnalyticsDefaultsWindow(t *testing.T) {
	svc := service.NewDashboardService(store.New())

	a, err := svc.Analytics(context.Background(), 0)

	require.NoError(t, err)
	assert.Len(t, a.DailyProcessed, service.DefaultAnalyticsDays)
	assert.Len(t, a.ConfidenceDistribution, 5)
	assert.Empty(t, a.VendorBreakdown)
}

func TestSettingsService_Thresholds(t *testing.T) {
	repo := store.New()
	svc := service.NewSettingsService(repo, zerolog.Nop())
	ctx := context.Background()

	got, err := svc.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThresholds(), *got)

	updated, err := svc.SetThresholds(ctx, domain.ConfidenceThresholds{AutoApprove: 90, Review: 70}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 90.0, updated.AutoApprove)
	assert.Equal(t, 90.0, repo.Thresholds().AutoApprove)

	_, err = svc.SetThresholds(ctx, domain.ConfidenceThresholds{AutoApprove: 50, Review: 70}, "admin")
	assert.ErrorIs(t, err, domain.ErrInvalidThresholds)
	assert.Equal(t, 90.0, repo.Thresholds().AutoApprove)
}
