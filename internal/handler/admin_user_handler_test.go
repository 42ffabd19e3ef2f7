package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminHandlerEnv struct {
	handler  *AdminUserHandler
	store    *MockTokenStore
	userRepo *MockUserRepository
}

func newAdminHandlerEnv(t *testing.T) *adminHandlerEnv {
	t.Helper()
	provider := newTestProvider(t)
	store := new(MockTokenStore)
	userRepo := new(MockUserRepository)
	sessionUC := usecase.NewSessionUsecase(provider, store, userRepo)
	userUC := usecase.NewUserUsecase(userRepo)
	return &adminHandlerEnv{
		handler:  NewAdminUserHandler(userUC, sessionUC),
		store:    store,
		userRepo: userRepo,
	}
}

func adminContext(t *testing.T, method, target, id string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestAdminUserHandler_GetUser(t *testing.T) {
	env := newAdminHandlerEnv(t)
	env.userRepo.On("FindByID", mock.Anything, "user-1").Return(testUser(), nil)

	c, rec := adminContext(t, http.MethodGet, "/admin/users/user-1", "user-1")
	require.NoError(t, env.handler.GetUser(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"user-1"`)
}

func TestAdminUserHandler_GetUser_NotFound(t *testing.T) {
	env := newAdminHandlerEnv(t)
	env.userRepo.On("FindByID", mock.Anything, "nobody").Return(nil, repository.ErrUserNotFound)

	c, rec := adminContext(t, http.MethodGet, "/admin/users/nobody", "nobody")
	require.NoError(t, env.handler.GetUser(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUserHandler_GetSession(t *testing.T) {
	tests := []struct {
		name     string
		loggedIn bool
	}{
		{name: "refresh tokenあり", loggedIn: true},
		{name: "refresh tokenなし", loggedIn: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newAdminHandlerEnv(t)
			env.store.On("HasRefreshToken", mock.Anything, "user-1").Return(tt.loggedIn, nil)

			c, rec := adminContext(t, http.MethodGet, "/admin/users/user-1/session", "user-1")
			require.NoError(t, env.handler.GetSession(c))

			assert.Equal(t, http.StatusOK, rec.Code)
			if tt.loggedIn {
				assert.Contains(t, rec.Body.String(), `"loggedIn":true`)
			} else {
				assert.Contains(t, rec.Body.String(), `"loggedIn":false`)
			}
		})
	}
}

func TestAdminUserHandler_ForceLogout(t *testing.T) {
	env := newAdminHandlerEnv(t)
	env.store.On("DeleteRefreshToken", mock.Anything, "user-1").Return(nil)

	c, rec := adminContext(t, http.MethodPost, "/admin/users/user-1/force-logout", "user-1")
	require.NoError(t, env.handler.ForceLogout(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "force logout success")
	// access tokenを持っていないのでblacklist登録は起きない
	env.store.AssertNotCalled(t, "BlacklistAccessToken", mock.Anything, mock.Anything, mock.Anything)
}
