package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/auth"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.NewUser) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func TestAuthService_Resolve(t *testing.T) {
	existing := &models.User{ID: "u1", Email: "user@example.com", Role: models.RoleUser}

	tests := []struct {
		name     string
		identity models.Identity
		setup    func(m *UserRepoMock)
		wantID   string
		wantErr  bool
	}{
		{
			name:     "existing user",
			identity: models.Identity{Email: "User@Example.com"},
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "user@example.com").Return(existing, nil).Once()
			},
			wantID: "u1",
		},
		{
			name:     "first sign in creates user with metadata name",
			identity: models.Identity{Email: "new@example.com", Name: "Ivan", AvatarURL: "https://example.com/a.png"},
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "new@example.com").Return(nil, storage.ErrUserNotFound).Once()
				m.On("CreateUser", mock.Anything, models.NewUser{
					Email: "new@example.com", Name: "Ivan", Image: ptr("https://example.com/a.png"), Role: models.RoleUser,
				}).Return(&models.User{ID: "u2", Role: models.RoleUser}, nil).Once()
			},
			wantID: "u2",
		},
		{
			name:     "name falls back to local part",
			identity: models.Identity{Email: "petr.ivanov@example.com"},
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "petr.ivanov@example.com").Return(nil, storage.ErrUserNotFound).Once()
				m.On("CreateUser", mock.Anything, models.NewUser{
					Email: "petr.ivanov@example.com", Name: "petr.ivanov", Role: models.RoleUser,
				}).Return(&models.User{ID: "u3", Role: models.RoleUser}, nil).Once()
			},
			wantID: "u3",
		},
		{
			name:     "allowlisted email becomes admin",
			identity: models.Identity{Email: "admin@example.com"},
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "admin@example.com").Return(nil, storage.ErrUserNotFound).Once()
				m.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.NewUser) bool {
					return u.Role == models.RoleAdmin
				})).Return(&models.User{ID: "u4", Role: models.RoleAdmin}, nil).Once()
			},
			wantID: "u4",
		},
		{
			name:     "concurrent creation reads the winner",
			identity: models.Identity{Email: "race@example.com"},
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "race@example.com").Return(nil, storage.ErrUserNotFound).Once()
				m.On("CreateUser", mock.Anything, mock.Anything).Return(nil, storage.ErrUserExists).Once()
				m.On("GetUserByEmail", mock.Anything, "race@example.com").Return(&models.User{ID: "u5"}, nil).Once()
			},
			wantID: "u5",
		},
		{
			name:     "storage failure",
			identity: models.Identity{Email: "user@example.com"},
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setup(repo)
			svc := services.NewAuthService(repo, []string{" Admin@Example.com"}, newNoopLogger())

			user, err := svc.Resolve(context.Background(), tt.identity)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Profile(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, storage.ErrUserNotFound).Once()
	svc := services.NewAuthService(repo, nil, newNoopLogger())

	_, err := svc.Profile(context.Background(), models.Identity{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name     string
		bodyName string
		setup    func(m *UserRepoMock)
		wantErr  error
	}{
		{
			name:     "already registered",
			bodyName: "Ivan",
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "user@example.com").Return(&models.User{ID: "u1"}, nil).Once()
			},
			wantErr: services.ErrAlreadyRegistered,
		},
		{
			name:     "body name wins over metadata",
			bodyName: "  Custom Name  ",
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, storage.ErrUserNotFound).Once()
				m.On("CreateUser", mock.Anything, models.NewUser{
					Email: "user@example.com", Name: "Custom Name", Role: models.RoleUser,
				}).Return(&models.User{ID: "u1"}, nil).Once()
			},
		},
		{
			name:     "blank body name uses metadata",
			bodyName: "   ",
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, storage.ErrUserNotFound).Once()
				m.On("CreateUser", mock.Anything, models.NewUser{
					Email: "user@example.com", Name: "Meta Name", Role: models.RoleUser,
				}).Return(&models.User{ID: "u1"}, nil).Once()
			},
		},
		{
			name: "lost race reports already registered",
			setup: func(m *UserRepoMock) {
				m.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, storage.ErrUserNotFound).Once()
				m.On("CreateUser", mock.Anything, mock.Anything).Return(nil, storage.ErrUserExists).Once()
			},
			wantErr: services.ErrAlreadyRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setup(repo)
			svc := services.NewAuthService(repo, nil, newNoopLogger())

			user, err := svc.Register(context.Background(),
				models.Identity{Email: "user@example.com", Name: "Meta Name"}, tt.bodyName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_IsAdminEmail(t *testing.T) {
	svc := services.NewAuthService(nil, []string{"a@example.com", "", "B@example.com"}, newNoopLogger())

	assert.True(t, svc.IsAdminEmail("A@example.com"))
	assert.True(t, svc.IsAdminEmail("b@example.com"))
	assert.False(t, svc.IsAdminEmail(""))
	assert.False(t, svc.IsAdminEmail("c@example.com"))
}
