package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/filmstack/movie-review-api/internal/repository"
)

func userHandlerWithDB(t *testing.T) (*UserHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserHandler(testCfg, repository.NewUserRepo(db), repository.NewRoleRepo(db), nil), mock
}

func TestUserCreateValidation(t *testing.T) {
	h, _ := userHandlerWithDB(t)

	cases := []struct {
		body string
		want string
	}{
		{`{}`, "email is required"},
		{`{"email":"not-an-address"}`, "email must be a valid address"},
		{`{"email":"jane@example.com"}`, "password is required"},
		{`{"email":"jane@example.com","password":"s3cret"}`, "full name is required"},
	}
	for _, tc := range cases {
		rec := postJSON(t, h.Create, "/api/users", tc.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		require.Contains(t, rec.Body.String(), tc.want)
	}
}

func TestUserCreateUnknownRole(t *testing.T) {
	h, mock := userHandlerWithDB(t)

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs("ROLE_WIZARD").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}))

	rec := postJSON(t, h.Create, "/api/users",
		`{"email":"jane@example.com","password":"s3cret","fullName":"Jane Doe","roleNames":["ROLE_WIZARD"]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Role not found: ROLE_WIZARD")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmailConflicts(t *testing.T) {
	h, mock := userHandlerWithDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'jane@example.com'"))
	mock.ExpectRollback()

	rec := postJSON(t, h.Create, "/api/users",
		`{"email":"jane@example.com","password":"s3cret","fullName":"Jane Doe"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "email already exists")
}

func TestUserDeleteWithReviewsConflicts(t *testing.T) {
	h, mock := userHandlerWithDB(t)

	mock.ExpectQuery("SELECT id, email, password_hash, full_name, enabled, created_at FROM users WHERE id=").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "jane@example.com", "hash", "Jane Doe", true, time.Now()))
	mock.ExpectQuery("SELECT r.id, r.name, COALESCE").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_roles WHERE user_id=").
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM users WHERE id=").
		WithArgs("u-1").
		WillReturnError(errors.New("Error 1451: Cannot delete or update a parent row"))
	mock.ExpectRollback()

	rec := doJSON(t, h.Delete, http.MethodDelete, "/api/users/u-1", "", "id", "u-1")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "user still has reviews")
}

func TestUserGetByIDFlattensPermissions(t *testing.T) {
	h, mock := userHandlerWithDB(t)

	mock.ExpectQuery("SELECT id, email, password_hash, full_name, enabled, created_at FROM users WHERE id=").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "jane@example.com", "hash", "Jane Doe", true, time.Now()))
	mock.ExpectQuery("SELECT r.id, r.name, COALESCE").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow("r-1", "ROLE_USER", ""))
	mock.ExpectQuery("SELECT p.id, p.name").
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("p-1", "MOVIE_VIEW").
			AddRow("p-2", "REVIEW_VIEW"))

	rec := doJSON(t, h.GetByID, http.MethodGet, "/api/users/u-1", "", "id", "u-1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `"roles":[{"id":"r-1","name":"ROLE_USER"}]`)
	require.Contains(t, body, `"name":"MOVIE_VIEW"`)
	require.Contains(t, body, `"name":"REVIEW_VIEW"`)
	// Password hash must never appear in a response.
	require.NotContains(t, body, "hash")
}
