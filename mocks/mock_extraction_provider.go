package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicedash/internal/domain"
	"invoicedash/internal/port"
)

// MockExtractionProvider is a mock implementation of port.ExtractionProvider.
type MockExtractionProvider struct {
	mock.Mock
}

func (m *MockExtractionProvider) Upload(ctx context.Context, doc port.Document) (*port.UploadResult, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.UploadResult), args.Error(1)
}

func (m *MockExtractionProvider) Extract(ctx context.Context, invoiceID, fileName string) (*port.ExtractionResult, error) {
	args := m.Called(ctx, invoiceID, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractionResult), args.Error(1)
}

func (m *MockExtractionProvider) Validate(ctx context.Context, invoiceID string) (*domain.ValidationResult, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}
