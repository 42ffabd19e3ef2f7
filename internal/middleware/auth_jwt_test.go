package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/token"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// "0123456789abcdef0123456789abcdef" のbase64（32バイト）
const testSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) SaveRefreshToken(ctx context.Context, userID string, tok string, ttl time.Duration) error {
	args := m.Called(ctx, userID, tok, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockTokenStore) HasRefreshToken(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tok string, ttl time.Duration) error {
	args := m.Called(ctx, tok, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsBlacklisted(ctx context.Context, tok string) (bool, error) {
	args := m.Called(ctx, tok)
	return args.Bool(0), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func newTestProvider(t *testing.T) *token.Provider {
	t.Helper()
	p, err := token.NewProvider(testSecret, 15*time.Minute, 14*24*time.Hour)
	require.NoError(t, err)
	return p
}

func testUser() *model.User {
	return &model.User{
		ID:       "user-1",
		Email:    "hello@example.com",
		Nickname: "hello",
		Role:     model.RoleUser,
		Provider: model.ProviderGoogle,
	}
}

// 最終ハンドラ。ここまで到達したらcontextの中身を返す。
func principalEcho(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": c.Get(CtxUserIDKey),
		"role":    c.Get(CtxUserRoleKey),
	})
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authz string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(h)(c)
	require.NoError(t, err)
	return rec
}

func TestAuthJWT_NoHeaderPassesThroughAnonymous(t *testing.T) {
	provider := newTestProvider(t)
	store := new(MockTokenStore)
	userRepo := new(MockUserRepository)

	rec := doRequest(t, AuthJWT(provider, store, userRepo), "", func(c echo.Context) error {
		// principalは載っていない
		assert.Nil(t, c.Get(CtxUserIDKey))
		return c.NoContent(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertNotCalled(t, "IsBlacklisted", mock.Anything, mock.Anything)
}

func TestAuthJWT_ValidAccessToken(t *testing.T) {
	provider := newTestProvider(t)
	store := new(MockTokenStore)
	userRepo := new(MockUserRepository)

	accessToken, err := provider.IssueAccessToken("user-1", string(model.RoleUser))
	require.NoError(t, err)

	store.On("IsBlacklisted", mock.Anything, accessToken).Return(false, nil)
	userRepo.On("FindByID", mock.Anything, "user-1").Return(testUser(), nil)

	rec := doRequest(t, AuthJWT(provider, store, userRepo), "Bearer "+accessToken, func(c echo.Context) error {
		// logoutが使う生tokenもcontextに載っている
		assert.Equal(t, accessToken, c.Get(CtxAccessTokenKey))
		return principalEcho(c)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"user-1"`)
	assert.Contains(t, rec.Body.String(), `"role":"USER"`)
}

func TestAuthJWT_BlacklistedTokenRejected(t *testing.T) {
	provider := newTestProvider(t)
	store := new(MockTokenStore)
	userRepo := new(MockUserRepository)

	accessToken, err := provider.IssueAccessToken("user-1", string(model.RoleUser))
	require.NoError(t, err)

	// 署名は有効でもブラックリストにあれば拒否
	store.On("IsBlacklisted", mock.Anything, accessToken).Return(true, nil)

	rec := doRequest(t, AuthJWT(provider, store, userRepo), "Bearer "+accessToken, principalEcho)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAuthJWT_BlacklistCheckFailure(t *testing.T) {
	provider := newTestProvider(t)
	store := new(MockTokenStore)
	userRepo := new(MockUserRepository)

	accessToken, err := provider.IssueAccessToken("user-1", string(model.RoleUser))
	require.NoError(t, err)

	store.On("IsBlacklisted", mock.Anything, accessToken).Return(false, assert.AnError)

	rec := doRequest(t, AuthJWT(provider, store, userRepo), "Bearer "+accessToken, principalEcho)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthJWT_ExpiredTokenRejected(t *testing.T) {
	// 負のTTLで最初から期限切れのtokenを作る
	expiredProvider, err := token.NewProvider(testSecret, -time.Minute, 14*24*time.Hour)
	require.NoError(t, err)
	accessToken, err := expiredProvider.IssueAccessToken("user-1", string(model.RoleUser))
	require.NoError(t, err)

	provider := newTestProvider(t)
	store := new(MockTokenStore)
	userRepo := new(MockUserRepository)
	store.On("IsBlacklisted", mock.Anything, accessToken).Return(false, nil)

	rec := doRequest(t, AuthJWT(provider, store, userRepo), "Bearer "+accessToken, principalEcho)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAuthJWT_GarbageTokenRejected(t *testing.T) {
	provider := newTestProvider(t)
	store := new(MockTokenStore)
	userRepo := new(MockUserRepository)

	store.On("IsBlacklisted", mock.Anything, "not-a-jwt").Return(false, nil)

	rec := doRequest(t, AuthJWT(provider, store, userRepo), "Bearer not-a-jwt", principalEcho)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_RefreshTokenAsBearerRejected(t *testing.T) {
	provider := newTestProvider(t)
	store := new(MockTokenStore)
	userRepo := new(MockUserRepository)

	refreshToken, err := provider.IssueRefreshToken("user-1")
	require.NoError(t, err)

	// 署名は正しいがtype=refreshなので拒否
	store.On("IsBlacklisted", mock.Anything, refreshToken).Return(false, nil)

	rec := doRequest(t, AuthJWT(provider, store, userRepo), "Bearer "+refreshToken, principalEcho)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAuthJWT_DeletedUserRejected(t *testing.T) {
	provider := newTestProvider(t)
	store := new(MockTokenStore)
	userRepo := new(MockUserRepository)

	accessToken, err := provider.IssueAccessToken("user-gone", string(model.RoleUser))
	require.NoError(t, err)

	store.On("IsBlacklisted", mock.Anything, accessToken).Return(false, nil)
	userRepo.On("FindByID", mock.Anything, "user-gone").Return(nil, repository.ErrUserNotFound)

	rec := doRequest(t, AuthJWT(provider, store, userRepo), "Bearer "+accessToken, principalEcho)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleGuard(t *testing.T) {
	tests := []struct {
		name     string
		role     interface{}
		wantCode int
	}{
		{name: "ADMINは通る", role: string(model.RoleAdmin), wantCode: http.StatusOK},
		{name: "USERは403", role: string(model.RoleUser), wantCode: http.StatusForbidden},
		{name: "principal無しは401", role: nil, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != nil {
				c.Set(CtxUserRoleKey, tt.role)
			}

			err := AdminRoleGuard()(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
