package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Profile(ctx context.Context, identity models.Identity) (*models.User, error) {
	args := m.Called(ctx, identity)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestProfileHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	identity := &models.Identity{Subject: "sub-1", Email: "ann@example.com"}
	name := "Ann"

	tests := []struct {
		name           string
		identity       *models.Identity
		user           *models.User
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "existing user",
			identity: identity,
			user: &models.User{
				ID: "u1", Email: "ann@example.com", Name: &name,
				SubscriptionStatus: models.StatusFree, Role: models.RoleUser,
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"id":"u1","email":"ann@example.com","name":"Ann","image":null,
				"subscriptionStatus":"FREE","role":"USER","isBlocked":false}`,
		},
		{
			name:           "needs registration",
			identity:       identity,
			err:            fmt.Errorf("services.auth.Profile: %w", storage.ErrUserNotFound),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"User not found","code":"NEEDS_REGISTRATION"}`,
		},
		{
			name:           "blocked user",
			identity:       identity,
			user:           &models.User{ID: "u1", IsBlocked: true},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"user is blocked"}`,
		},
		{
			name:           "storage failure",
			identity:       identity,
			err:            errors.New("db down"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"Failed to load profile"}`,
		},
		{
			name:           "no identity",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.identity != nil {
				svc.On("Profile", mock.Anything, *tt.identity).Return(tt.user, tt.err)
			}

			req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), tt.identity))
			}
			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}
