package save

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
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/cities"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Save(ctx context.Context, user *models.User, cityName string, country *string) (*models.SavedCity, error) {
	args := m.Called(ctx, user, cityName, country)
	res, _ := args.Get(0).(*models.SavedCity)
	return res, args.Error(1)
}

func TestSaveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := &models.User{ID: "u1"}
	country := "Belarus"

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "saved",
			body: `{"cityName":"Minsk","country":"Belarus"}`,
			setupMock: func(m *MockService) {
				m.On("Save", mock.Anything, user, "Minsk", &country).
					Return(&models.SavedCity{ID: "c1", CityName: "Minsk", Country: &country}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":"c1","cityName":"Minsk","country":"Belarus"}`,
		},
		{
			name: "saved by city alias",
			body: `{"city":"Brest"}`,
			setupMock: func(m *MockService) {
				m.On("Save", mock.Anything, user, "Brest", (*string)(nil)).
					Return(&models.SavedCity{ID: "c2", CityName: "Brest"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":"c2","cityName":"Brest","country":null}`,
		},
		{
			name: "cityName wins over city",
			body: `{"cityName":"Grodno","city":"Brest"}`,
			setupMock: func(m *MockService) {
				m.On("Save", mock.Anything, user, "Grodno", (*string)(nil)).
					Return(&models.SavedCity{ID: "c3", CityName: "Grodno"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":"c3","cityName":"Grodno","country":null}`,
		},
		{
			name:           "bad json",
			body:           `not a json`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name: "missing city",
			body: `{}`,
			setupMock: func(m *MockService) {
				m.On("Save", mock.Anything, user, "", (*string)(nil)).Return(nil, services.ErrCityNameRequired)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"cityName required"}`,
		},
		{
			name: "limit reached",
			body: `{"cityName":"Gomel"}`,
			setupMock: func(m *MockService) {
				m.On("Save", mock.Anything, user, "Gomel", (*string)(nil)).Return(nil, services.ErrLimitReached)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"Limit reached","code":"LIMIT","limit":3}`,
		},
		{
			name: "storage error",
			body: `{"cityName":"Gomel"}`,
			setupMock: func(m *MockService) {
				m.On("Save", mock.Anything, user, "Gomel", (*string)(nil)).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"Failed to save city"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/saved-cities", strings.NewReader(tt.body))
			req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
