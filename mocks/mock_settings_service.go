package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicedash/internal/domain"
)

// MockSettingsService is a mock implementation of service.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Thresholds(ctx context.Context) (*domain.ConfidenceThresholds, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConfidenceThresholds), args.Error(1)
}

func (m *MockSettingsService) SetThresholds(ctx context.Context, t domain.ConfidenceThresholds, actor string) (*domain.ConfidenceThresholds, error) {
	args := m.Called(ctx, t, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConfidenceThresholds), args.Error(1)
}
