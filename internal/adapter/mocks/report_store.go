package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// MockReportStore is a mock type for the ReportStore type.
type MockReportStore struct {
	mock.Mock
}

// SaveHashes provides a mock function with given fields: ctx, path, report.
func (_m *MockReportStore) SaveHashes(ctx context.Context, path m.Path, report m.HashReport) error {
	ret := _m.Called(ctx, path, report)
	return ret.Error(0)
}

// LoadHashes provides a mock function with given fields: ctx, path.
func (_m *MockReportStore) LoadHashes(ctx context.Context, path m.Path) (m.HashReport, error) {
	ret := _m.Called(ctx, path)

	var report m.HashReport
	if v, ok := ret.Get(0).(m.HashReport); ok {
		report = v
	}

	return report, ret.Error(1)
}

// NewMockReportStore creates a new instance of MockReportStore. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockReportStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockReportStore {
	mck := &MockReportStore{}
	mck.Mock.Test(t)

	t.Cleanup(func() { mck.AssertExpectations(t) })

	return mck
}
