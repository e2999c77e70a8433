// Package mocks provides testify mocks of the adapter interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"lcevc.dev/pkg/conformance/internal/adapter"
)

// MockProcessAdapter is a mock type for the ProcessAdapter type.
type MockProcessAdapter struct {
	mock.Mock
}

// Run provides a mock function with given fields: ctx, spec.
func (_m *MockProcessAdapter) Run(ctx context.Context, spec adapter.ProcessSpec) (bool, error) {
	ret := _m.Called(ctx, spec)

	if fn, ok := ret.Get(0).(func(context.Context, adapter.ProcessSpec) (bool, error)); ok {
		return fn(ctx, spec)
	}

	return ret.Bool(0), ret.Error(1)
}

// NewMockProcessAdapter creates a new instance of MockProcessAdapter. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockProcessAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProcessAdapter {
	m := &MockProcessAdapter{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
