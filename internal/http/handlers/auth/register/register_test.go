package register

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, identity models.Identity, name string) (*models.User, error) {
	args := m.Called(ctx, identity, name)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRegisterHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	identity := &models.Identity{Subject: "sub-1", Email: "bob@example.com"}
	name := "Bob"

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "registered with name",
			body: `{"name":"Bob"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, *identity, "Bob").Return(&models.User{
					ID: "u2", Email: "bob@example.com", Name: &name,
					SubscriptionStatus: models.StatusFree, Role: models.RoleUser,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody: `{"id":"u2","email":"bob@example.com","name":"Bob","image":null,
				"subscriptionStatus":"FREE","role":"USER","isBlocked":false}`,
		},
		{
			name: "already registered",
			body: `{}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, *identity, "").Return(nil, services.ErrAlreadyRegistered)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"Already registered"}`,
		},
		{
			name: "empty body falls back to token name",
			body: ``,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, *identity, "").Return(&models.User{
					ID: "u3", Email: "bob@example.com", Role: models.RoleUser,
					SubscriptionStatus: models.StatusFree,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody: `{"id":"u3","email":"bob@example.com","name":null,"image":null,
				"subscriptionStatus":"FREE","role":"USER","isBlocked":false}`,
		},
		{
			name:           "malformed body",
			body:           `{"name":`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name:           "name too long",
			body:           `{"name":"` + strings.Repeat("a", 101) + `"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Name is too long"}`,
		},
		{
			name: "storage failure",
			body: `{"name":"Bob"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, *identity, "Bob").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"Failed to register"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
			req = req.WithContext(middlewarectx.WithIdentity(req.Context(), identity))
			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
