// Package mocks provides test doubles for the yelp client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
	yelp "github.com/BerylCAtieno/opportunity-analyzer/internal/yelp"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Chat provides a mock function with given fields: ctx, req
func (_m *MockClient) Chat(ctx context.Context, req yelp.ChatRequest) (*yelp.ChatResult, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Chat")
	}

	var r0 *yelp.ChatResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*yelp.ChatResult)
	}

	return r0, ret.Error(1)
}

// BusinessDetails provides a mock function with given fields: ctx, ids
func (_m *MockClient) BusinessDetails(ctx context.Context, ids []string) []models.Business {
	ret := _m.Called(ctx, ids)

	if len(ret) == 0 {
		panic("no return value specified for BusinessDetails")
	}

	var r0 []models.Business
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Business)
	}

	return r0
}

// Reviews provides a mock function with given fields: ctx, ids
func (_m *MockClient) Reviews(ctx context.Context, ids []string) models.ReviewMap {
	ret := _m.Called(ctx, ids)

	if len(ret) == 0 {
		panic("no return value specified for Reviews")
	}

	var r0 models.ReviewMap
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(models.ReviewMap)
	}

	return r0
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
