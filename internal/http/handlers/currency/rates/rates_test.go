package rates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Rates(ctx context.Context, isPremium bool) (*models.CurrencyRates, error) {
	args := m.Called(ctx, isPremium)
	res, _ := args.Get(0).(*models.CurrencyRates)
	return res, args.Error(1)
}

func TestRatesHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	usd := models.CurrencyInfo{Code: "USD", Name: "Доллар США", Rate: 3.2, Scale: 1}

	tests := []struct {
		name           string
		user           *models.User
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "anonymous",
			setupMock: func(m *MockService) {
				m.On("Rates", mock.Anything, false).Return(&models.CurrencyRates{
					Rates: []models.CurrencyInfo{usd}, AllRates: []models.CurrencyInfo{usd},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"isPremium":false`,
		},
		{
			name: "premium user",
			user: &models.User{SubscriptionStatus: models.StatusPremium},
			setupMock: func(m *MockService) {
				m.On("Rates", mock.Anything, true).Return(&models.CurrencyRates{IsPremium: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"isPremium":true`,
		},
		{
			name: "upstream failure",
			setupMock: func(m *MockService) {
				m.On("Rates", mock.Anything, false).Return(nil, errors.New("nbrb down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"Failed to fetch exchange rates"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/currency", nil)
			if tt.user != nil {
				req = req.WithContext(middlewarectx.WithUser(req.Context(), tt.user))
			}
			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
