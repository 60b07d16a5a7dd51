package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"github.com/grmr/account-service/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAdminService is a mock implementation of AdminService
type mockAdminService struct {
	user      *models.User
	users     []models.User
	err       error
	caller    *service.Claims
	userID    string
	createReq *models.CreateUserRequest
	updateReq *models.UpdateUserRequest
	called    string
}

func (m *mockAdminService) CreateUser(ctx context.Context, caller *service.Claims, req *models.CreateUserRequest) (*models.User, error) {
	m.called, m.caller, m.createReq = "CreateUser", caller, req
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockAdminService) ListUsers(ctx context.Context, caller *service.Claims) ([]models.User, error) {
	m.called, m.caller = "ListUsers", caller
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

func (m *mockAdminService) UpdateUser(ctx context.Context, caller *service.Claims, userID string, req *models.UpdateUserRequest) (*models.User, error) {
	m.called, m.caller, m.userID, m.updateReq = "UpdateUser", caller, userID, req
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockAdminService) DeleteUser(ctx context.Context, caller *service.Claims, userID string) error {
	m.called, m.caller, m.userID = "DeleteUser", caller, userID
	return m.err
}

func setupAdminHandler() (*testEnv, *mockAdminService, http.Handler) {
	env := newTestEnv()
	svc := &mockAdminService{
		user: &models.User{ID: "user-2", Name: "Bob", Email: "b@x.com", Role: models.RoleUser, Active: true},
	}
	return env, svc, newTestRouter(NewAdminHandler(svc, env.gate, zap.NewNop()))
}

func TestAdminHandler_Guards(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		role           models.Role
		anonymous      bool
		expectedStatus int
		expectedAudits int
	}{
		{name: "create user as admin", method: http.MethodPost, path: "/grmr/admin/create-user", role: models.RoleAdmin, expectedStatus: http.StatusCreated},
		{name: "create user as user", method: http.MethodPost, path: "/grmr/admin/create-user", role: models.RoleUser, expectedStatus: http.StatusForbidden, expectedAudits: 1},
		{name: "create user anonymous", method: http.MethodPost, path: "/grmr/admin/create-user", anonymous: true, expectedStatus: http.StatusUnauthorized},
		{name: "delete user as admin", method: http.MethodDelete, path: "/grmr/admin/delete-user/user-2", role: models.RoleAdmin, expectedStatus: http.StatusOK},
		{name: "delete user as user", method: http.MethodDelete, path: "/grmr/admin/delete-user/user-2", role: models.RoleUser, expectedStatus: http.StatusForbidden, expectedAudits: 1},
		{name: "list users as user", method: http.MethodGet, path: "/grmr/get-users", role: models.RoleUser, expectedStatus: http.StatusOK},
		{name: "list users anonymous", method: http.MethodGet, path: "/grmr/get-users", anonymous: true, expectedStatus: http.StatusUnauthorized},
		{name: "update user as user", method: http.MethodPut, path: "/grmr/users/update-user/user-2", role: models.RoleUser, expectedStatus: http.StatusOK},
		{name: "update user anonymous", method: http.MethodPut, path: "/grmr/users/update-user/user-2", anonymous: true, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, svc, router := setupAdminHandler()
			token := ""
			if !tt.anonymous {
				token = env.token(t, "caller-1", "caller@x.com", tt.role)
			}

			w := doRequest(t, router, tt.method, tt.path,
				map[string]string{"name": "Bob", "email": "b@x.com", "password": "p1"}, token)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Len(t, env.recorder.entries, tt.expectedAudits)
			if tt.expectedStatus >= 400 {
				assert.Empty(t, svc.called)
			}
		})
	}
}

func TestAdminHandler_CreateUser(t *testing.T) {
	env, svc, router := setupAdminHandler()
	token := env.token(t, "admin-1", "root@x.com", models.RoleAdmin)

	w := doRequest(t, router, http.MethodPost, "/grmr/admin/create-user",
		map[string]string{"name": "Bob", "email": "b@x.com", "password": "p1", "role": "admin"}, token)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.RoleAdmin, svc.createReq.Role)
	assert.Equal(t, "admin-1", svc.caller.UserID())

	var body UserResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "user created successfully", body.Message)
	assert.Equal(t, "user-2", body.User.ID)
	assert.NotContains(t, w.Body.String(), "token")
}

func TestAdminHandler_ListUsers(t *testing.T) {
	t.Run("returns users", func(t *testing.T) {
		env, svc, router := setupAdminHandler()
		svc.users = []models.User{{ID: "u1", Email: "a@x.com"}, {ID: "u2", Email: "b@x.com"}}

		w := doRequest(t, router, http.MethodGet, "/grmr/get-users", nil, env.token(t, "u1", "a@x.com", models.RoleUser))

		require.Equal(t, http.StatusOK, w.Code)
		var body UserListResponse
		decodeBody(t, w, &body)
		assert.Len(t, body.Users, 2)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		env, _, router := setupAdminHandler()

		w := doRequest(t, router, http.MethodGet, "/grmr/get-users", nil, env.token(t, "u1", "a@x.com", models.RoleUser))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"users":[]}`, w.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		env, svc, router := setupAdminHandler()
		svc.err = errors.New("database error")

		w := doRequest(t, router, http.MethodGet, "/grmr/get-users", nil, env.token(t, "u1", "a@x.com", models.RoleUser))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "database error")
	})
}

func TestAdminHandler_UpdateUser(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		serviceErr     error
		expectedStatus int
	}{
		{name: "success", body: map[string]any{"role": "admin", "active": false}, expectedStatus: http.StatusOK},
		{name: "malformed body", body: "nope", expectedStatus: http.StatusBadRequest},
		{name: "unknown user", body: map[string]any{"name": "Bobby"}, serviceErr: models.ErrUserNotFound, expectedStatus: http.StatusNotFound},
		{name: "email taken", body: map[string]any{"email": "a@x.com"}, serviceErr: services.ErrDuplicateEmail, expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, svc, router := setupAdminHandler()
			svc.err = tt.serviceErr
			token := env.token(t, "admin-1", "root@x.com", models.RoleAdmin)

			w := doRequest(t, router, http.MethodPut, "/grmr/users/update-user/user-2", tt.body, token)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.name == "success" {
				assert.Equal(t, "user-2", svc.userID)
				require.NotNil(t, svc.updateReq.Role)
				assert.Equal(t, models.RoleAdmin, *svc.updateReq.Role)
				require.NotNil(t, svc.updateReq.Active)
				assert.False(t, *svc.updateReq.Active)
				assert.Nil(t, svc.updateReq.Name)
			}
		})
	}
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env, svc, router := setupAdminHandler()

		w := doRequest(t, router, http.MethodDelete, "/grmr/admin/delete-user/user-2", nil,
			env.token(t, "admin-1", "root@x.com", models.RoleAdmin))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-2", svc.userID)
	})

	t.Run("unknown user", func(t *testing.T) {
		env, svc, router := setupAdminHandler()
		svc.err = models.ErrUserNotFound

		w := doRequest(t, router, http.MethodDelete, "/grmr/admin/delete-user/missing", nil,
			env.token(t, "admin-1", "root@x.com", models.RoleAdmin))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-admin is rejected and recorded", func(t *testing.T) {
		env, svc, router := setupAdminHandler()

		w := doRequest(t, router, http.MethodDelete, "/grmr/admin/delete-user/user-2", nil,
			env.token(t, "user-1", "a@x.com", models.RoleUser))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, svc.called)
		require.Len(t, env.recorder.entries, 1)
		assert.Equal(t, models.ActionUnauthorizedAttempt, env.recorder.entries[0].Action)
		assert.Equal(t, "user-1", env.recorder.entries[0].ActorID)
	})
}
