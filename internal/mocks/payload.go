package mocks

import (
	"io"

	"github.com/brettbedarf/nodefs"
	"github.com/stretchr/testify/mock"
)

// MockPayload implements nodefs.Payload for testing across packages
type MockPayload struct {
	mock.Mock
}

func (m *MockPayload) ReadAt(p []byte, off int64) (int, error) {
	args := m.Called(p, off)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func([]byte, int64) int); ok {
		return fn(p, off), args.Error(1)
	}

	if args.Get(0) == nil {
		return 0, args.Error(1)
	}
	return args.Get(0).(int), args.Error(1)
}

func (m *MockPayload) Len() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *MockPayload) Open() (io.ReadCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockPayload) Slice(offset, length int64) (nodefs.Payload, error) {
	args := m.Called(offset, length)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(nodefs.Payload), args.Error(1)
}

func (m *MockPayload) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ nodefs.Payload = (*MockPayload)(nil)

// MockPayloadProvider implements nodefs.PayloadProvider for testing across packages
type MockPayloadProvider struct {
	mock.Mock
}

func (m *MockPayloadProvider) Payload(config []byte) (nodefs.Payload, error) {
	args := m.Called(config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(nodefs.Payload), args.Error(1)
}

var _ nodefs.PayloadProvider = (*MockPayloadProvider)(nil)
