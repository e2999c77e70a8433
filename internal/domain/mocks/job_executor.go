package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// MockJobExecutor is a mock type for the JobExecutor type.
type MockJobExecutor struct {
	mock.Mock
}

// RunJob provides a mock function with given fields: ctx, job.
func (_m *MockJobExecutor) RunJob(ctx context.Context, job m.JobDescriptor) (m.JobResult, error) {
	ret := _m.Called(ctx, job)

	if fn, ok := ret.Get(0).(func(context.Context, m.JobDescriptor) (m.JobResult, error)); ok {
		return fn(ctx, job)
	}

	var result m.JobResult
	if v, ok := ret.Get(0).(m.JobResult); ok {
		result = v
	}

	return result, ret.Error(1)
}

// NewMockJobExecutor creates a new instance of MockJobExecutor. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockJobExecutor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockJobExecutor {
	mck := &MockJobExecutor{}
	mck.Mock.Test(t)

	t.Cleanup(func() { mck.AssertExpectations(t) })

	return mck
}
