package datastore

import (
	"context"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store for testing.
type MockStore struct {
	mock.Mock
}

var _ contract.Store = &MockStore{} // Compile-time check

// LoadHypotheses implements the Store interface.
func (m *MockStore) LoadHypotheses(ctx context.Context) ([]schema.Hypothesis, error) {
	args := m.Called(ctx)
	hypotheses, _ := args.Get(0).([]schema.Hypothesis)
	return hypotheses, args.Error(1)
}

// SaveHypothesis implements the Store interface.
func (m *MockStore) SaveHypothesis(ctx context.Context, h schema.Hypothesis) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

// LoadVariables implements the Store interface.
func (m *MockStore) LoadVariables(ctx context.Context) ([]schema.Variable, error) {
	args := m.Called(ctx)
	vars, _ := args.Get(0).([]schema.Variable)
	return vars, args.Error(1)
}

// SaveVariable implements the Store interface.
func (m *MockStore) SaveVariable(ctx context.Context, v schema.Variable) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

// LoadDataPoints implements the Store interface.
func (m *MockStore) LoadDataPoints(ctx context.Context, variableIDs ...string) ([]schema.DataPoint, error) {
	args := m.Called(ctx, variableIDs)
	points, _ := args.Get(0).([]schema.DataPoint)
	return points, args.Error(1)
}

// SaveDataPoint implements the Store interface.
func (m *MockStore) SaveDataPoint(ctx context.Context, dp schema.DataPoint) error {
	args := m.Called(ctx, dp)
	return args.Error(0)
}

// SaveDataPoints implements the Store interface.
func (m *MockStore) SaveDataPoints(ctx context.Context, dps []schema.DataPoint) error {
	args := m.Called(ctx, dps)
	return args.Error(0)
}

// GetStatus implements the Store interface.
func (m *MockStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Clear implements the Store interface.
func (m *MockStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close implements the Store interface.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
