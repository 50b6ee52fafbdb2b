package service

import (
	"context"
	"time"

	"sitehub/internal/microservices/http-api/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockNoteRepository mocks the NoteRepository interface
type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Create(ctx context.Context, note *models.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNoteRepository) GetByID(ctx context.Context, userID, noteID string) (*models.Note, error) {
	args := m.Called(ctx, userID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Note), args.Error(1)
}

func (m *MockNoteRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Note, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Note), args.Error(1)
}

func (m *MockNoteRepository) MarkAsRead(ctx context.Context, userID, noteID string) (bool, error) {
	args := m.Called(ctx, userID, noteID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNoteRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPlanRepository mocks the PlanRepository interface
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) ListGlobal(ctx context.Context) ([]models.GlobalPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GlobalPlan), args.Error(1)
}

func (m *MockPlanRepository) UpsertGlobal(ctx context.Context, list []models.GlobalPlan) error {
	args := m.Called(ctx, list)
	return args.Error(0)
}

func (m *MockPlanRepository) GetSite(ctx context.Context, userID string, blogID int64) (*models.Site, error) {
	args := m.Called(ctx, userID, blogID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Site), args.Error(1)
}

func (m *MockPlanRepository) ClaimSite(ctx context.Context, site *models.Site) (bool, error) {
	args := m.Called(ctx, site)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlanRepository) UpsertSite(ctx context.Context, site *models.Site) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

func (m *MockPlanRepository) ListSiteIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockPlanRepository) ListSitePlans(ctx context.Context, blogID int64) ([]models.SitePlan, error) {
	args := m.Called(ctx, blogID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SitePlan), args.Error(1)
}

func (m *MockPlanRepository) ReplaceSitePlans(ctx context.Context, blogID int64, list []models.SitePlan) error {
	args := m.Called(ctx, blogID, list)
	return args.Error(0)
}

// MockCatalogCache mocks the CatalogCache interface
type MockCatalogCache struct {
	mock.Mock
}

func (m *MockCatalogCache) Get(ctx context.Context) ([]models.GlobalPlan, bool, error) {
	args := m.Called(ctx)
	var list []models.GlobalPlan
	if v := args.Get(0); v != nil {
		list = v.([]models.GlobalPlan)
	}
	return list, args.Bool(1), args.Error(2)
}

func (m *MockCatalogCache) Set(ctx context.Context, list []models.GlobalPlan) error {
	args := m.Called(ctx, list)
	return args.Error(0)
}

func (m *MockCatalogCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type stubRefresher struct {
	accept bool
	queued []int64
}

func (r *stubRefresher) Enqueue(blogID int64) bool {
	if r.accept {
		r.queued = append(r.queued, blogID)
	}
	return r.accept
}
