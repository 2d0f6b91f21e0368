package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/alexvogt/chesscoach/internal/models"
)

// MockErrorRepository is a mock implementation of repository.ErrorRepository
type MockErrorRepository struct {
	mock.Mock
}

func (m *MockErrorRepository) ErrorsForGame(ctx context.Context, gameID int64) ([]models.Error, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Error), args.Error(1)
}

func (m *MockErrorRepository) List(ctx context.Context, filter models.ErrorFilter) ([]models.Error, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Error), args.Error(1)
}

func (m *MockErrorRepository) CommitAnalysis(ctx context.Context, gameID int64, errs []models.Error) error {
	args := m.Called(ctx, gameID, errs)
	return args.Error(0)
}
