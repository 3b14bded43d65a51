package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"ats-expert/internal/convert"
)

type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Convert(ctx context.Context, r io.Reader) ([]convert.ImagePart, error) {
	args := m.Called(ctx, r)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]convert.ImagePart), args.Error(1)
}
