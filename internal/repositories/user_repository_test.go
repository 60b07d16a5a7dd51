package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/grmr/account-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var userRowColumns = []string{"id", "name", "email", "password_hash", "role", "active", "avatar", "created_at", "updated_at"}

// setupUserTestRepository creates a user repository with a mock database
func setupUserTestRepository(t *testing.T) (*userRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewUserRepository(db, zap.NewNop())
	repo.now = func() time.Time { return fixedNow }

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func aliceRow() *sqlmock.Rows {
	return sqlmock.NewRows(userRowColumns).
		AddRow("user-1", "Alice", "a@x.com", "hashedpassword", "user", true, "", fixedNow, fixedNow)
}

func TestNewUserRepository(t *testing.T) {
	db := &sql.DB{}
	logger := zap.NewNop()

	repo := NewUserRepository(db, logger)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
	assert.Equal(t, logger, repo.logger)
	assert.NotNil(t, repo.now)
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		user          *models.User
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		anyError      bool
	}{
		{
			name: "success",
			user: &models.User{
				ID:           "user-1",
				Name:         "Alice",
				Email:        "a@x.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleUser,
				Active:       true,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("user-1", "Alice", "a@x.com", "hashedpassword", models.RoleUser, true, "", fixedNow, fixedNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "duplicate email",
			user: &models.User{
				ID:           "user-2",
				Name:         "Alice",
				Email:        "a@x.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleUser,
				Active:       true,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("user-2", "Alice", "a@x.com", "hashedpassword", models.RoleUser, true, "", fixedNow, fixedNow).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'users.email'"})
			},
			expectedError: models.ErrDuplicateEmail,
		},
		{
			name: "database error on insert",
			user: &models.User{
				ID:           "user-3",
				Name:         "Bob",
				Email:        "b@x.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleAdmin,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("user-3", "Bob", "b@x.com", "hashedpassword", models.RoleAdmin, false, "", fixedNow, fixedNow).
					WillReturnError(errors.New("database error"))
			},
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.user)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.anyError:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, models.ErrDuplicateEmail)
			default:
				assert.NoError(t, err)
				assert.Equal(t, fixedNow, tt.user.CreatedAt)
				assert.Equal(t, fixedNow, tt.user.UpdatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Create_GeneratesID(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "Alice", "a@x.com", "hash", models.RoleUser, true, "", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Name: "Alice", Email: "a@x.com", PasswordHash: "hash", Role: models.RoleUser, Active: true}
	require.NoError(t, repo.Create(context.Background(), user))

	assert.Len(t, user.ID, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		anyError      bool
		expectedUser  *models.User
	}{
		{
			name:  "success",
			email: "a@x.com",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name, email, password_hash, role, active, avatar, created_at, updated_at FROM users WHERE email = \? LIMIT 1`).
					WithArgs("a@x.com").
					WillReturnRows(aliceRow())
			},
			expectedUser: &models.User{
				ID:           "user-1",
				Name:         "Alice",
				Email:        "a@x.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleUser,
				Active:       true,
				CreatedAt:    fixedNow,
				UpdatedAt:    fixedNow,
			},
		},
		{
			name:  "user not found",
			email: "nobody@x.com",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE email = \?`).
					WithArgs("nobody@x.com").
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrUserNotFound,
		},
		{
			name:  "database error",
			email: "a@x.com",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE email = \?`).
					WithArgs("a@x.com").
					WillReturnError(errors.New("connection refused"))
			},
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			user, err := repo.GetByEmail(context.Background(), tt.email)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			case tt.anyError:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, models.ErrUserNotFound)
				assert.Nil(t, user)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedUser, user)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \? LIMIT 1`).
			WithArgs("user-1").
			WillReturnRows(aliceRow())

		user, err := repo.GetByID(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.True(t, user.Active)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user not found", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		user, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetAll(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows(userRowColumns).
			AddRow("user-1", "Alice", "a@x.com", "hash1", "user", true, "", fixedNow, fixedNow).
			AddRow("admin-1", "Root", "root@x.com", "hash2", "admin", true, "uploads/avatars/a.png", fixedNow, fixedNow)
		mock.ExpectQuery(`SELECT .* FROM users ORDER BY created_at ASC, id ASC`).WillReturnRows(rows)

		users, err := repo.GetAll(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, models.RoleAdmin, users[1].Role)
		assert.Equal(t, "uploads/avatars/a.png", users[1].Avatar)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .* FROM users`).WillReturnRows(sqlmock.NewRows(userRowColumns))

		users, err := repo.GetAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .* FROM users`).WillReturnError(errors.New("database error"))

		users, err := repo.GetAll(context.Background())
		assert.Error(t, err)
		assert.Nil(t, users)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Update(t *testing.T) {
	name := "Alicia"
	email := "alicia@x.com"
	role := models.RoleAdmin
	active := false

	tests := []struct {
		name          string
		req           *models.UpdateUserRequest
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		anyError      bool
	}{
		{
			name: "all fields",
			req:  &models.UpdateUserRequest{Name: &name, Email: &email, Role: &role, Active: &active},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET name = \?, email = \?, role = \?, active = \?, updated_at = \? WHERE id = \?`).
					WithArgs("Alicia", "alicia@x.com", models.RoleAdmin, false, fixedNow, "user-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
					WithArgs("user-1").
					WillReturnRows(sqlmock.NewRows(userRowColumns).
						AddRow("user-1", "Alicia", "alicia@x.com", "hash", "admin", false, "", fixedNow, fixedNow))
			},
		},
		{
			name: "role only",
			req:  &models.UpdateUserRequest{Role: &role},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET role = \?, updated_at = \? WHERE id = \?`).
					WithArgs(models.RoleAdmin, fixedNow, "user-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
					WithArgs("user-1").
					WillReturnRows(aliceRow())
			},
		},
		{
			name: "empty update only reads",
			req:  &models.UpdateUserRequest{},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
					WithArgs("user-1").
					WillReturnRows(aliceRow())
			},
		},
		{
			name: "duplicate email",
			req:  &models.UpdateUserRequest{Email: &email},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET email = \?, updated_at = \? WHERE id = \?`).
					WithArgs("alicia@x.com", fixedNow, "user-1").
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
			},
			expectedError: models.ErrDuplicateEmail,
		},
		{
			name: "user vanished",
			req:  &models.UpdateUserRequest{Name: &name},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET name = \?, updated_at = \? WHERE id = \?`).
					WithArgs("Alicia", fixedNow, "user-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
					WithArgs("user-1").
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrUserNotFound,
		},
		{
			name: "database error",
			req:  &models.UpdateUserRequest{Name: &name},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users`).WillReturnError(errors.New("database error"))
			},
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			user, err := repo.Update(context.Background(), "user-1", tt.req)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			case tt.anyError:
				assert.Error(t, err)
				assert.Nil(t, user)
			default:
				require.NoError(t, err)
				assert.Equal(t, "user-1", user.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_UpdateAvatar(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		anyError      bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET avatar = \?, updated_at = \? WHERE id = \?`).
					WithArgs("uploads/avatars/avatar-1.png", fixedNow, "user-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "user not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET avatar`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: models.ErrUserNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET avatar`).
					WillReturnError(errors.New("database error"))
			},
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.UpdateAvatar(context.Background(), "user-1", "uploads/avatars/avatar-1.png")

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.anyError:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Delete(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		anyError      bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM users WHERE id = \?`).
					WithArgs("user-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "user not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM users WHERE id = \?`).
					WithArgs("user-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: models.ErrUserNotFound,
		},
		{
			name: "rows affected error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM users WHERE id = \?`).
					WithArgs("user-1").
					WillReturnResult(sqlmock.NewErrorResult(errors.New("rows affected error")))
			},
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Delete(context.Background(), "user-1")

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.anyError:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
