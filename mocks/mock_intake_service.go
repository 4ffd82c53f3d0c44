package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicedash/internal/domain"
	"invoicedash/internal/service"
)

// MockIntakeService is a mock implementation of service.IntakeService.
type MockIntakeService struct {
	mock.Mock
}

func (m *MockIntakeService) Process(ctx context.Context, req service.UploadRequest) (*domain.Invoice, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockIntakeService) Submit(ctx context.Context, req service.UploadRequest) (*domain.UploadJob, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadJob), args.Error(1)
}

func (m *MockIntakeService) Job(ctx context.Context, id string) (*domain.UploadJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadJob), args.Error(1)
}

func (m *MockIntakeService) Validate(ctx context.Context, invoiceID string) (*domain.ValidationResult, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}

func (m *MockIntakeService) DocumentLink(ctx context.Context, invoiceID string) (*service.DocumentLink, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentLink), args.Error(1)
}

func (m *MockIntakeService) Run(ctx context.Context) {
	m.Called(ctx)
}
