package handler

import (
	"context"
	"time"

	"sitehub/internal/core/plans"
	"sitehub/internal/ingestion/planupdate"
	"sitehub/internal/microservices/http-api/dto"
	"sitehub/internal/microservices/http-api/models"
	"sitehub/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

const testUserID = "68f3b8be-5bd8-4c6c-9919-a4614b2731b3"

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	args := m.Called(username, password, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	args := m.Called(username, password)
	var user *models.User
	if v := args.Get(1); v != nil {
		user = v.(*models.User)
	}
	return args.String(0), user, args.Error(2)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*shared.AuthClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.AuthClaims), args.Error(1)
}

func (m *MockAuthService) AccessTokenTTL() time.Duration {
	return 15 * time.Minute
}

// MockNoteService mocks the NoteService interface
type MockNoteService struct {
	mock.Mock
}

func (m *MockNoteService) List(ctx context.Context, userID string, unreadOnly bool) ([]dto.NoteResponse, error) {
	args := m.Called(userID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.NoteResponse), args.Error(1)
}

func (m *MockNoteService) Open(ctx context.Context, userID, noteID string) (*dto.NoteNavigation, error) {
	args := m.Called(userID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.NoteNavigation), args.Error(1)
}

func (m *MockNoteService) MarkAsRead(ctx context.Context, userID, noteID string) error {
	args := m.Called(userID, noteID)
	return args.Error(0)
}

func (m *MockNoteService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNoteService) Create(ctx context.Context, note *models.Note) error {
	args := m.Called(note)
	return args.Error(0)
}

// MockPlanService mocks the PlanService interface
type MockPlanService struct {
	mock.Mock
}

func (m *MockPlanService) Catalog(ctx context.Context) (plans.GlobalPlanSet, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(plans.GlobalPlanSet), args.Error(1)
}

func (m *MockPlanService) ConnectSite(ctx context.Context, userID string, blogID int64, req dto.ConnectSiteRequest) (*dto.SiteResponse, error) {
	args := m.Called(userID, blogID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SiteResponse), args.Error(1)
}

func (m *MockPlanService) CheckSite(ctx context.Context, userID string, blogID int64) error {
	args := m.Called(userID, blogID)
	return args.Error(0)
}

func (m *MockPlanService) BrowseSite(ctx context.Context, userID string, blogID int64, restoredPosition int) (*dto.SitePlansResponse, error) {
	args := m.Called(userID, blogID, restoredPosition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SitePlansResponse), args.Error(1)
}

func (m *MockPlanService) PurchaseState(ctx context.Context, userID string, blogID int64, position int) (plans.PurchaseState, error) {
	args := m.Called(userID, blogID, position)
	return args.Get(0).(plans.PurchaseState), args.Error(1)
}

func (m *MockPlanService) RequestRefresh(ctx context.Context, userID string, blogID int64) error {
	args := m.Called(userID, blogID)
	return args.Error(0)
}

type stubEvents struct {
	events []planupdate.Event
}

// Subscribe hands out a channel already holding the events and closed,
// so the stream ends once they are written
func (s *stubEvents) Subscribe(blogID int64) (<-chan planupdate.Event, func()) {
	ch := make(chan planupdate.Event, len(s.events))
	for _, ev := range s.events {
		if ev.Blog() == blogID {
			ch <- ev
		}
	}
	close(ch)
	return ch, func() {}
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func mockAuthMiddleware(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(shared.CtxUserID, testUserID)
		c.Set(shared.CtxRole, role)
		c.Next()
	}
}
