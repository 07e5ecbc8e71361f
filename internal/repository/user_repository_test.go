package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/filmstack/movie-review-api/internal/model"
)

func newTestUser(email string) model.User {
	return model.User{
		Email:        email,
		PasswordHash: "hash",
		FullName:     "Jane Doe",
		Enabled:      true,
	}
}

func TestUserRepoCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'jane@example.com' for key 'uq_users_email'"))
	mock.ExpectRollback()

	repo := NewUserRepo(db)
	u := newTestUser("Jane@Example.com")
	err = repo.Create(context.Background(), &u, nil)
	require.ErrorIs(t, err, ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "jane@example.com", "hash", "Jane Doe", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_roles (user_id, role_id) VALUES (?,?)")).
		WithArgs(sqlmock.AnyArg(), "role-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, email, password_hash, full_name, enabled, created_at FROM users WHERE id=").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "enabled", "created_at"}).
			AddRow("u-1", "jane@example.com", "hash", "Jane Doe", true, time.Now()))

	repo := NewUserRepo(db)
	u := newTestUser("  Jane@Example.com ")
	require.NoError(t, repo.Create(context.Background(), &u, []string{"role-1"}))
	require.Equal(t, "jane@example.com", u.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, email, password_hash, full_name, enabled, created_at FROM users WHERE email=").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewUserRepo(db)
	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoDeleteWithReviewsConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_roles WHERE user_id=").
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM users WHERE id=").
		WithArgs("u-1").
		WillReturnError(errors.New("Error 1451: Cannot delete or update a parent row: a foreign key constraint fails"))
	mock.ExpectRollback()

	repo := NewUserRepo(db)
	err = repo.Delete(context.Background(), "u-1")
	require.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_roles WHERE user_id=").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM users WHERE id=").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewUserRepo(db)
	require.ErrorIs(t, repo.Delete(context.Background(), "ghost"), ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoEffectivePermissions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT DISTINCT p.name").
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("MOVIE_VIEW").
			AddRow("REVIEW_CREATE"))

	repo := NewUserRepo(db)
	names, err := repo.EffectivePermissions(context.Background(), " Jane@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, []string{"MOVIE_VIEW", "REVIEW_CREATE"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}
