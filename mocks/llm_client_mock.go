package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ats-expert/internal/llm"
)

type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
