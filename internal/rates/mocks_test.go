package rates

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRateSource struct {
	mock.Mock
	name string
}

func NewMockRateSource(name string) *MockRateSource {
	return &MockRateSource{name: name}
}

func (m *MockRateSource) Name() string { return m.name }

func (m *MockRateSource) FetchRates(ctx context.Context) (map[string]PairRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]PairRate), args.Error(1)
}
