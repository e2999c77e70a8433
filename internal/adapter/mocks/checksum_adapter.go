package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// MockChecksumAdapter is a mock type for the ChecksumAdapter type.
type MockChecksumAdapter struct {
	mock.Mock
}

// XXH3 provides a mock function with given fields: ctx, path.
func (_m *MockChecksumAdapter) XXH3(ctx context.Context, path m.Path) (string, error) {
	ret := _m.Called(ctx, path)
	return ret.String(0), ret.Error(1)
}

// MD5 provides a mock function with given fields: ctx, path.
func (_m *MockChecksumAdapter) MD5(ctx context.Context, path m.Path) (string, error) {
	ret := _m.Called(ctx, path)
	return ret.String(0), ret.Error(1)
}

// NewMockChecksumAdapter creates a new instance of MockChecksumAdapter. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockChecksumAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChecksumAdapter {
	mck := &MockChecksumAdapter{}
	mck.Mock.Test(t)

	t.Cleanup(func() { mck.AssertExpectations(t) })

	return mck
}
