package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"lcevc.dev/pkg/conformance/internal/adapter"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// MockManifestStore is a mock type for the ManifestStore type.
type MockManifestStore struct {
	mock.Mock
}

// LoadBatch provides a mock function with given fields: ctx, files.
func (_m *MockManifestStore) LoadBatch(ctx context.Context, files adapter.BatchFiles) (m.Batch, error) {
	ret := _m.Called(ctx, files)

	var batch m.Batch
	if v, ok := ret.Get(0).(m.Batch); ok {
		batch = v
	}

	return batch, ret.Error(1)
}

// LoadTests provides a mock function with given fields: ctx, path.
func (_m *MockManifestStore) LoadTests(ctx context.Context, path m.Path) ([]m.TestDefinition, error) {
	ret := _m.Called(ctx, path)

	var tests []m.TestDefinition
	if v, ok := ret.Get(0).([]m.TestDefinition); ok {
		tests = v
	}

	return tests, ret.Error(1)
}

// LoadCodecs provides a mock function with given fields: ctx, path.
func (_m *MockManifestStore) LoadCodecs(ctx context.Context, path m.Path) ([]m.CodecSpec, error) {
	ret := _m.Called(ctx, path)

	var codecs []m.CodecSpec
	if v, ok := ret.Get(0).([]m.CodecSpec); ok {
		codecs = v
	}

	return codecs, ret.Error(1)
}

// LoadSequenceTable provides a mock function with given fields: ctx, path.
func (_m *MockManifestStore) LoadSequenceTable(ctx context.Context, path m.Path) (m.SequenceTable, error) {
	ret := _m.Called(ctx, path)

	var table m.SequenceTable
	if v, ok := ret.Get(0).(m.SequenceTable); ok {
		table = v
	}

	return table, ret.Error(1)
}

// LoadParameters provides a mock function with given fields: ctx, path.
func (_m *MockManifestStore) LoadParameters(ctx context.Context, path m.Path) (m.ParameterSet, error) {
	ret := _m.Called(ctx, path)

	var params m.ParameterSet
	if v, ok := ret.Get(0).(m.ParameterSet); ok {
		params = v
	}

	return params, ret.Error(1)
}

// NewMockManifestStore creates a new instance of MockManifestStore. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockManifestStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockManifestStore {
	mck := &MockManifestStore{}
	mck.Mock.Test(t)

	t.Cleanup(func() { mck.AssertExpectations(t) })

	return mck
}
