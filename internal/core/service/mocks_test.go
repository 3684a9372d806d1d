package service_test

import (
	"context"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListMenu(
	ctx context.Context, f domain.MenuFilter,
) ([]domain.MenuItem, error) {
	args := m.Called(ctx, f)
	vs, _ := args.Get(0).([]domain.MenuItem)
	return vs, args.Error(1)
}

func (m *MockCatalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	vs, _ := args.Get(0).([]domain.Category)
	return vs, args.Error(1)
}

func (m *MockCatalog) MenuItem(ctx context.Context, id string) (domain.MenuItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.MenuItem), args.Error(1)
}

func (m *MockCatalog) Customizations(
	ctx context.Context, productID string, ids []string,
) ([]domain.Customization, error) {
	args := m.Called(ctx, productID, ids)
	vs, _ := args.Get(0).([]domain.Customization)
	return vs, args.Error(1)
}

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) CreateAccount(
	ctx context.Context, a domain.NewAccount,
) (domain.User, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockAccounts) CreateSession(
	ctx context.Context, c domain.Credentials,
) (domain.Session, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockAccounts) DeleteSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAccounts) UserBySession(ctx context.Context, token string) (domain.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockAccounts) UpdateUser(
	ctx context.Context, userID string, upd domain.ProfileUpdate,
) (domain.User, error) {
	args := m.Called(ctx, userID, upd)
	return args.Get(0).(domain.User), args.Error(1)
}

type MockEventsProducer struct {
	mock.Mock
}

func (m *MockEventsProducer) ProduceCartEvent(
	ctx context.Context, evt domain.CartEvent,
) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type MockSnapshotStorage struct {
	mock.Mock
}

func (m *MockSnapshotStorage) StoreSnapshots(
	ctx context.Context, vs []domain.CartSnapshot,
) error {
	args := m.Called(ctx, vs)
	return args.Error(0)
}

func (m *MockSnapshotStorage) LoadSnapshot(
	ctx context.Context, userID string,
) (domain.CartSnapshot, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.CartSnapshot), args.Error(1)
}

type MockPopularity struct {
	mock.Mock
}

func (m *MockPopularity) AddedCount(productID string) (int64, error) {
	args := m.Called(productID)
	return args.Get(0).(int64), args.Error(1)
}
