package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spreport/domain/contracts"
)

// MockRunRepository is a mock implementation of RunRepository for testing
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) CreateRun(ctx context.Context, run *contracts.ReportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) CompleteRun(ctx context.Context, runID int64, rowCount, errorCount int64) error {
	args := m.Called(ctx, runID, rowCount, errorCount)
	return args.Error(0)
}

func (m *MockRunRepository) SaveFailure(ctx context.Context, failure *contracts.RunFailure) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, limit int) ([]*contracts.ReportRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*contracts.ReportRun), args.Error(1)
}
