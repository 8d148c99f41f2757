package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelance/internal/models"
)

var userRowColumns = []string{
	"id", "username", "email", "password_hash", "role", "first_name", "last_name",
	"age", "phone_number", "biography", "avatar_url", "created_at", "skill_ids",
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestUserRepositoryCreateCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(anyArgs(10)...).
		WillReturnRows(mock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))
	mock.ExpectExec("DELETE FROM user_skills").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO user_skills").
		WithArgs(int64(7), []int64{1, 2}).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	repo := NewUserRepository(mock)
	user := &models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         models.UserRoleClient,
		SkillIDs:     []int64{1, 2},
	}
	require.NoError(t, repo.Create(context.Background(), user))

	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateMapsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "username", constraint: "users_username_key", want: ErrDuplicateUsername},
		{name: "email", constraint: "users_email_key", want: ErrDuplicateEmail},
		{name: "other", constraint: "some_other_key", want: ErrConstraint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectBegin()
			mock.ExpectQuery("INSERT INTO users").
				WithArgs(anyArgs(10)...).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})
			mock.ExpectRollback()

			repo := NewUserRepository(mock)
			err = repo.Create(context.Background(), &models.User{Username: "alice", Role: models.UserRoleClient})

			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepositoryCreateMapsStringTooLong(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(anyArgs(10)...).
		WillReturnError(&pgconn.PgError{Code: "22001", Message: "value too long for type character varying(50)"})
	mock.ExpectRollback()

	err = NewUserRepository(mock).Create(context.Background(), &models.User{Username: "alice", Role: models.UserRoleClient})
	assert.ErrorIs(t, err, ErrConstraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	age := 30
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM users u WHERE u.username").
		WithArgs("alice").
		WillReturnRows(mock.NewRows(userRowColumns).AddRow(
			int64(1), "alice", "alice@example.com", "hash", models.UserRoleFreelancer, "Alice", "Smith",
			&age, (*string)(nil), (*string)(nil), (*string)(nil), created, []int64{3},
		))

	user, err := NewUserRepository(mock).FindByUsername(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, models.UserRoleFreelancer, user.Role)
	require.NotNil(t, user.Age)
	assert.Equal(t, 30, *user.Age)
	assert.Nil(t, user.PhoneNumber)
	assert.Equal(t, []int64{3}, user.SkillIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByUsernameNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM users u WHERE u.username").
		WithArgs("ghost").
		WillReturnRows(mock.NewRows(userRowColumns))

	_, err = NewUserRepository(mock).FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateMissingRowRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	name := "Bob"
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET first_name = \\$2 WHERE id = \\$1").
		WithArgs(int64(42), "Bob").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err = NewUserRepository(mock).Update(context.Background(), 42, models.UserPatch{FirstName: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, NewUserRepository(mock).Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT\\s+EXISTS").
		WithArgs("alice", "new@example.com").
		WillReturnRows(mock.NewRows([]string{"username", "email"}).AddRow(true, false))

	usernameTaken, emailTaken, err := NewUserRepository(mock).Exists(context.Background(), "alice", "new@example.com")
	require.NoError(t, err)
	assert.True(t, usernameTaken)
	assert.False(t, emailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
