package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/internal/services"
	"canteen/internal/session"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockAdminRepository is a mock implementation of repositories.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	args := m.Called(admin)
	return args.Error(0)
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

const testJWTSecret = "test_jwt_secret"

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newAuth(users repositories.UserRepository, merchants repositories.MerchantRepository, admins repositories.AdminRepository) (*services.AuthService, *session.MemoryStore) {
	sessions := session.NewMemoryStore()
	return services.NewAuthService(users, merchants, admins, sessions, testJWTSecret, time.Hour), sessions
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuth(mockRepo, nil, nil)
	ctx := context.Background()

	in := services.RegisterUserInput{Username: "testuser", Password: "password123", Name: "Test"}

	mockRepo.On("GetByUsername", "testuser").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := authService.RegisterUser(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByUsername", "testuser").Return(&models.User{Username: "testuser"}, nil).Once()
	_, err = authService.RegisterUser(ctx, in)
	assert.ErrorIs(t, err, services.ErrUsernameTaken)

	// Test a race lost to the unique index
	mockRepo.On("GetByUsername", "racer").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(repositories.ErrDuplicate).Once()
	_, err = authService.RegisterUser(ctx, services.RegisterUserInput{Username: "racer", Password: "password123", Name: "R"})
	assert.ErrorIs(t, err, services.ErrUsernameTaken)

	// Test validation
	_, err = authService.RegisterUser(ctx, services.RegisterUserInput{Username: "ab", Password: "1"})
	assert.ErrorIs(t, err, services.ErrValidation)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuth(mockRepo, nil, nil)
	ctx := context.Background()

	stored := &models.User{ID: 1, Username: "testuser", Name: "Test", Password: hashed(t, "password123")}
	mockRepo.On("GetByUsername", "testuser").Return(stored, nil)
	mockRepo.On("GetByUsername", "nonexistent").Return(nil, repositories.ErrNotFound)

	token, p, err := authService.Login(ctx, session.KindUser, services.Credentials{Username: "testuser", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, session.Principal{Kind: session.KindUser, ID: 1, Name: "Test"}, p)

	got, err := authService.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, _, err = authService.Login(ctx, session.KindUser, services.Credentials{Username: "testuser", Password: "wrong"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, _, err = authService.Login(ctx, session.KindUser, services.Credentials{Username: "nonexistent", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuth(mockRepo, nil, nil)
	ctx := context.Background()

	mockRepo.On("GetByUsername", "testuser").Return(&models.User{ID: 1, Password: hashed(t, "password123")}, nil)
	token, _, err := authService.Login(ctx, session.KindUser, services.Credentials{Username: "testuser", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, token))
	_, err = authService.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	assert.NoError(t, authService.Logout(ctx, "garbage"))
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	authService, sessions := newAuth(nil, nil, nil)
	ctx := context.Background()

	sign := func(secret string, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	require.NoError(t, sessions.Save(ctx, "sid-1", session.Principal{Kind: session.KindUser, ID: 1}, time.Hour))

	tests := map[string]string{
		"malformed":     "not-a-token",
		"wrong secret":  sign("other", jwt.MapClaims{"sid": "sid-1", "kind": "user", "exp": time.Now().Add(time.Hour).Unix()}),
		"expired":       sign(testJWTSecret, jwt.MapClaims{"sid": "sid-1", "kind": "user", "exp": time.Now().Add(-time.Hour).Unix()}),
		"unknown sid":   sign(testJWTSecret, jwt.MapClaims{"sid": "sid-2", "kind": "user", "exp": time.Now().Add(time.Hour).Unix()}),
		"kind mismatch": sign(testJWTSecret, jwt.MapClaims{"sid": "sid-1", "kind": "admin", "exp": time.Now().Add(time.Hour).Unix()}),
		"no kind":       sign(testJWTSecret, jwt.MapClaims{"sid": "sid-1", "exp": time.Now().Add(time.Hour).Unix()}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := authService.ValidateToken(ctx, token)
			assert.ErrorIs(t, err, services.ErrUnauthenticated)
		})
	}

	valid := sign(testJWTSecret, jwt.MapClaims{"sid": "sid-1", "kind": "user", "exp": time.Now().Add(time.Hour).Unix()})
	p, err := authService.ValidateToken(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, uint(1), p.ID)
}

func TestAuthService_MerchantLoginGates(t *testing.T) {
	d := newTestDB(t)
	authService, _ := newAuth(d.store.Users(), d.store.Merchants(), d.store.Admins())
	ctx := context.Background()

	m, err := authService.RegisterMerchant(ctx, services.RegisterMerchantInput{Username: "noodle-bar", Password: "secret1", Name: "Noodle Bar"})
	require.NoError(t, err)
	assert.Equal(t, models.MerchantPending, m.Status)

	cred := services.Credentials{Username: "noodle-bar", Password: "secret1"}
	_, _, err = authService.Login(ctx, session.KindMerchant, cred)
	assert.ErrorIs(t, err, services.ErrMerchantPending)

	_, err = d.store.Merchants().UpdateStatus(ctx, m.ID, models.MerchantPending, models.MerchantRejected)
	require.NoError(t, err)
	_, _, err = authService.Login(ctx, session.KindMerchant, cred)
	assert.ErrorIs(t, err, services.ErrMerchantRejected)

	_, err = d.store.Merchants().UpdateStatus(ctx, m.ID, models.MerchantRejected, models.MerchantApproved)
	require.NoError(t, err)
	token, p, err := authService.Login(ctx, session.KindMerchant, cred)
	require.NoError(t, err)
	assert.Equal(t, session.KindMerchant, p.Kind)

	got, err := authService.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.KindMerchant, got.Kind)

	_, err = authService.RegisterMerchant(ctx, services.RegisterMerchantInput{Username: "noodle-bar", Password: "secret1", Name: "Copy"})
	assert.ErrorIs(t, err, services.ErrUsernameTaken)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	mockRepo := new(MockAdminRepository)
	authService, _ := newAuth(nil, nil, mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByUsername", "admin").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Admin")).Return(nil).Once()
	require.NoError(t, authService.EnsureAdmin(ctx, "admin", "s3cret"))

	mockRepo.On("GetByUsername", "admin").Return(&models.Admin{ID: 1, Username: "admin"}, nil).Once()
	require.NoError(t, authService.EnsureAdmin(ctx, "admin", "s3cret"))

	require.NoError(t, authService.EnsureAdmin(ctx, "admin", ""))
	mockRepo.AssertExpectations(t)
}
