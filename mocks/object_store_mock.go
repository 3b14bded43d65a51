package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, contentType string, r io.Reader) (int64, error) {
	args := m.Called(ctx, key, contentType, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockObjectStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(io.ReadCloser), args.Error(1)
}
