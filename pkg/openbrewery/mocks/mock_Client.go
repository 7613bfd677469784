// Package mocks provides test doubles for the openbrewery client.
package mocks

import (
	"context"

	model "github.com/sells-group/brewery-sync/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ListBreweries provides a mock function with given fields: ctx, state, page, perPage
func (_m *MockClient) ListBreweries(ctx context.Context, state string, page int, perPage int) ([]model.Brewery, error) {
	ret := _m.Called(ctx, state, page, perPage)

	if len(ret) == 0 {
		panic("no return value specified for ListBreweries")
	}

	var r0 []model.Brewery
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int, int) ([]model.Brewery, error)); ok {
		return rf(ctx, state, page, perPage)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, int, int) []model.Brewery); ok {
		r0 = rf(ctx, state, page, perPage)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.Brewery)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, int, int) error); ok {
		r1 = rf(ctx, state, page, perPage)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
