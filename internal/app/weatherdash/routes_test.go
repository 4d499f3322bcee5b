package weatherdash

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/jwt"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	authservice "github.com/magabrotheeeer/weather-dashboard/internal/services/auth"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

const testSecret = "test-secret"

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

func (m *memoryUsers) CreateUser(_ context.Context, nu models.NewUser) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[nu.Email]; ok {
		return nil, storage.ErrUserExists
	}
	name := nu.Name
	u := &models.User{
		ID:                 "id-" + nu.Email,
		Email:              nu.Email,
		Name:               &name,
		Role:               nu.Role,
		SubscriptionStatus: models.StatusFree,
	}
	m.users[nu.Email] = u
	return u, nil
}

func token(t *testing.T, email string) string {
	t.Helper()
	claims := jwt.IdentityClaims{
		Email: email,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "sub-" + email,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func newRouter(users *memoryUsers) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	RegisterRoutes(
		router,
		logger,
		jwt.NewParser(testSecret),
		Services{Auth: authservice.NewAuthService(users, []string{"boss@example.com"}, logger)},
		rate.NewLimiter(rate.Inf, 1),
		nil,
	)
	return router
}

func TestRoutesAccessControl(t *testing.T) {
	users := &memoryUsers{users: map[string]*models.User{
		"blocked@example.com": {ID: "b1", Email: "blocked@example.com", Role: models.RoleUser, IsBlocked: true},
	}}
	router := newRouter(users)

	tests := []struct {
		name           string
		method         string
		path           string
		email          string
		body           string
		expectedStatus int
		expectedError  string
		expectedCode   string
	}{
		{
			name:           "saved cities need a token",
			method:         http.MethodGet,
			path:           "/api/v1/saved-cities",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "unauthorized",
		},
		{
			name:           "blocked user is rejected",
			method:         http.MethodGet,
			path:           "/api/v1/saved-cities",
			email:          "blocked@example.com",
			expectedStatus: http.StatusForbidden,
			expectedError:  "user is blocked",
		},
		{
			name:           "admin routes reject regular users",
			method:         http.MethodGet,
			path:           "/api/v1/admin/stats",
			email:          "ann@example.com",
			expectedStatus: http.StatusForbidden,
			expectedError:  "forbidden",
		},
		{
			name:           "comparison is premium only",
			method:         http.MethodGet,
			path:           "/api/v1/weather/compare?city=Minsk&city=Brest",
			email:          "ann@example.com",
			expectedStatus: http.StatusForbidden,
			expectedError:  "Premium subscription required",
			expectedCode:   "PREMIUM_REQUIRED",
		},
		{
			name:           "export is premium only",
			method:         http.MethodGet,
			path:           "/api/v1/currency/export",
			email:          "ann@example.com",
			expectedStatus: http.StatusForbidden,
			expectedCode:   "PREMIUM_REQUIRED",
			expectedError:  "Premium subscription required",
		},
		{
			name:           "profile does not create users",
			method:         http.MethodGet,
			path:           "/api/v1/auth/profile",
			email:          "new@example.com",
			expectedStatus: http.StatusNotFound,
			expectedError:  "User not found",
			expectedCode:   "NEEDS_REGISTRATION",
		},
		{
			name:           "webhook without signature",
			method:         http.MethodPost,
			path:           "/api/v1/stripe/webhook",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid signature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.email != "" {
				req.Header.Set("Authorization", token(t, tt.email))
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedError, body["error"])
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["code"])
			}
		})
	}

	_, err := users.GetUserByEmail(context.Background(), "new@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestRoutesRegisterThenResolve(t *testing.T) {
	users := &memoryUsers{users: map[string]*models.User{}}
	router := newRouter(users)
	auth := token(t, "boss@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"name":"Boss"}`))
	req.Header.Set("Authorization", auth)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var profile models.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, "Boss", *profile.Name)
	assert.Equal(t, models.RoleAdmin, profile.Role)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{}`))
	req.Header.Set("Authorization", auth)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"status":"Error","error":"Already registered"}`, rr.Body.String())
}

func TestRoutesInfrastructure(t *testing.T) {
	router := newRouter(&memoryUsers{users: map[string]*models.User{}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
