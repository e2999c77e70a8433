// Package mocks provides testify mocks of the controller interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"lcevc.dev/pkg/conformance/internal/controller"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// MockUI is a mock type for the UI type.
type MockUI struct {
	mock.Mock
}

// Start provides a mock function with given fields: ctx, options.
func (_m *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// Close provides a mock function with given fields: ctx.
func (_m *MockUI) Close(ctx context.Context) {
	_m.Called(ctx)
}

// Wait provides a mock function with given fields: ctx.
func (_m *MockUI) Wait(ctx context.Context) {
	_m.Called(ctx)
}

// DisplayBatchInfo provides a mock function with given fields: ctx, jobs, workers.
func (_m *MockUI) DisplayBatchInfo(ctx context.Context, jobs int, workers int) {
	_m.Called(ctx, jobs, workers)
}

// DisplayJobStarted provides a mock function with given fields: ctx, job.
func (_m *MockUI) DisplayJobStarted(ctx context.Context, job m.JobDescriptor) {
	_m.Called(ctx, job)
}

// DisplayJobCompleted provides a mock function with given fields: ctx, job, result.
func (_m *MockUI) DisplayJobCompleted(ctx context.Context, job m.JobDescriptor, result m.JobResult) {
	_m.Called(ctx, job, result)
}

// DisplayBatchSummary provides a mock function with given fields: ctx, report.
func (_m *MockUI) DisplayBatchSummary(ctx context.Context, report m.BatchReport) {
	_m.Called(ctx, report)
}

// DisplayDecodeResult provides a mock function with given fields: ctx, result.
func (_m *MockUI) DisplayDecodeResult(ctx context.Context, result m.DecodeResult) {
	_m.Called(ctx, result)
}

// DisplayDecodeSummary provides a mock function with given fields: ctx, report.
func (_m *MockUI) DisplayDecodeSummary(ctx context.Context, report m.DecodeReport) {
	_m.Called(ctx, report)
}

// DisplayComparison provides a mock function with given fields: ctx, comparison.
func (_m *MockUI) DisplayComparison(ctx context.Context, comparison m.HashComparison) {
	_m.Called(ctx, comparison)
}

// NewMockUI creates a new instance of MockUI. It also registers a cleanup
// function to assert the mocks expectations.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	mck := &MockUI{}
	mck.Mock.Test(t)

	t.Cleanup(func() { mck.AssertExpectations(t) })

	return mck
}
