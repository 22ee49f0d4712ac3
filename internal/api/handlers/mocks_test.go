package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

// --- Mocks ---

// MockDealService implements services.IDealService
type MockDealService struct {
	mock.Mock
}

func (m *MockDealService) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDealService) SeedFromListings(ctx context.Context, listings []models.Listing) error {
	args := m.Called(ctx, listings)
	return args.Error(0)
}

func (m *MockDealService) Reset(ctx context.Context, listings []models.Listing) error {
	args := m.Called(ctx, listings)
	return args.Error(0)
}

func (m *MockDealService) CreateDeal(ctx context.Context, snapshot models.ListingSnapshot) (*models.Deal, error) {
	args := m.Called(ctx, snapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *MockDealService) FindByContractCode(ctx context.Context, code string) (*models.Deal, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *MockDealService) FindByPaymentCode(ctx context.Context, code string) (*models.Deal, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *MockDealService) Sign(ctx context.Context, contractCode string) (string, error) {
	args := m.Called(ctx, contractCode)
	return args.String(0), args.Error(1)
}

func (m *MockDealService) MarkPaid(ctx context.Context, paymentCode string) error {
	args := m.Called(ctx, paymentCode)
	return args.Error(0)
}

// MockUserService implements services.IUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) EnsureDemoAccounts(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) BecomeLandlord(ctx context.Context, userID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindUserByID(ctx context.Context, id utils.SixID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
