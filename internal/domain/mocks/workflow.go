// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"lcevc.dev/pkg/conformance/internal/domain"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// MockWorkflow is a mock type for the Workflow type.
type MockWorkflow struct {
	mock.Mock
}

// Run provides a mock function with given fields: ctx, args.
func (_m *MockWorkflow) Run(ctx context.Context, args domain.RunArgs) (m.BatchReport, error) {
	ret := _m.Called(ctx, args)

	var report m.BatchReport
	if v, ok := ret.Get(0).(m.BatchReport); ok {
		report = v
	}

	return report, ret.Error(1)
}

// Decode provides a mock function with given fields: ctx, args.
func (_m *MockWorkflow) Decode(ctx context.Context, args domain.DecodeArgs) (m.DecodeReport, error) {
	ret := _m.Called(ctx, args)

	var report m.DecodeReport
	if v, ok := ret.Get(0).(m.DecodeReport); ok {
		report = v
	}

	return report, ret.Error(1)
}

// Compare provides a mock function with given fields: ctx, args.
func (_m *MockWorkflow) Compare(ctx context.Context, args domain.CompareArgs) (m.HashComparison, error) {
	ret := _m.Called(ctx, args)

	var comparison m.HashComparison
	if v, ok := ret.Get(0).(m.HashComparison); ok {
		comparison = v
	}

	return comparison, ret.Error(1)
}

// NewMockWorkflow creates a new instance of MockWorkflow. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	mck := &MockWorkflow{}
	mck.Mock.Test(t)

	t.Cleanup(func() { mck.AssertExpectations(t) })

	return mck
}
