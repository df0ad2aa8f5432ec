package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vcfo/pkg/contracts/domain"
	"vcfo/pkg/contracts/events"
)

// MockRecordStore is a mock implementation of store.RecordStore
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Replace(ctx context.Context, ownerID string, records []domain.FinancialRecord) error {
	args := m.Called(ctx, ownerID, records)
	return args.Error(0)
}

func (m *MockRecordStore) List(ctx context.Context, ownerID string) ([]domain.FinancialRecord, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FinancialRecord), args.Error(1)
}

func (m *MockRecordStore) Delete(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func (m *MockRecordStore) Owners(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRecordStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPublisher is a mock implementation of EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ownerID string, msgType events.MessageType, data interface{}) error {
	args := m.Called(ctx, ownerID, msgType, data)
	return args.Error(0)
}

// fakeRenderer returns canned PDF bytes and keeps the last document
type fakeRenderer struct {
	html []byte
	pdf  []byte
	err  error
}

func (f *fakeRenderer) RenderPDF(_ context.Context, html []byte) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return f.pdf, nil
}
