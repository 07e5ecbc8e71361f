package handler

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/filmstack/movie-review-api/internal/repository"
)

func roleHandlerWithDB(t *testing.T) (*RoleHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRoleHandler(repository.NewRoleRepo(db), repository.NewPermissionRepo(db), nil), mock
}

func expectRoleByID(mock sqlmock.Sqlmock, id, name string, permNames ...string) {
	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow(id, name, ""))
	rows := sqlmock.NewRows([]string{"id", "name"})
	for i, pn := range permNames {
		rows.AddRow("p-"+string(rune('1'+i)), pn)
	}
	mock.ExpectQuery("SELECT p.id, p.name").
		WithArgs(id).
		WillReturnRows(rows)
}

func TestRoleLinkPermissionsAllOrNothing(t *testing.T) {
	h, mock := roleHandlerWithDB(t)

	expectRoleByID(mock, "r-1", "ROLE_EDITOR")
	// Only one of the two requested ids resolves.
	mock.ExpectQuery("SELECT id, name FROM permissions WHERE id IN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("p-1", "MOVIE_UPDATE"))

	rec := doJSON(t, h.LinkPermissions, http.MethodPost, "/api/roles/r-1/permissions",
		`{"permissionIds":["p-1","p-ghost"]}`, "id", "r-1")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Some permissions not found: p-1, p-ghost")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleLinkPermissionsAppliesUnion(t *testing.T) {
	h, mock := roleHandlerWithDB(t)

	expectRoleByID(mock, "r-1", "ROLE_EDITOR", "MOVIE_VIEW")
	mock.ExpectQuery("SELECT id, name FROM permissions WHERE id IN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("p-2", "MOVIE_UPDATE"))
	mock.ExpectExec("INSERT IGNORE INTO role_permissions").
		WithArgs("r-1", "p-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectRoleByID(mock, "r-1", "ROLE_EDITOR", "MOVIE_UPDATE", "MOVIE_VIEW")

	rec := doJSON(t, h.LinkPermissions, http.MethodPost, "/api/roles/r-1/permissions",
		`{"permissionIds":["p-2"]}`, "id", "r-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "MOVIE_UPDATE")
	require.Contains(t, rec.Body.String(), "MOVIE_VIEW")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleLinkPermissionsToleratesRepeatedIDs(t *testing.T) {
	h, mock := roleHandlerWithDB(t)

	expectRoleByID(mock, "r-1", "ROLE_EDITOR")
	// The same id twice still resolves; INSERT IGNORE absorbs the repeat.
	mock.ExpectQuery("SELECT id, name FROM permissions WHERE id IN").
		WithArgs("p-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("p-2", "MOVIE_UPDATE"))
	mock.ExpectExec("INSERT IGNORE INTO role_permissions").
		WithArgs("r-1", "p-2", "r-1", "p-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectRoleByID(mock, "r-1", "ROLE_EDITOR", "MOVIE_UPDATE")

	rec := doJSON(t, h.LinkPermissions, http.MethodPost, "/api/roles/r-1/permissions",
		`{"permissionIds":["p-2","p-2"]}`, "id", "r-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "MOVIE_UPDATE")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleUnlinkMissingPermissionIsNoop(t *testing.T) {
	h, mock := roleHandlerWithDB(t)

	expectRoleByID(mock, "r-1", "ROLE_EDITOR", "MOVIE_VIEW")
	mock.ExpectExec("DELETE FROM role_permissions WHERE role_id=").
		WithArgs("r-1", "p-ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	expectRoleByID(mock, "r-1", "ROLE_EDITOR", "MOVIE_VIEW")

	rec := doJSON(t, h.UnlinkPermission, http.MethodDelete, "/api/roles/r-1/permissions/p-ghost",
		"", "id", "r-1", "permissionId", "p-ghost")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "MOVIE_VIEW")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleCreateRequiresName(t *testing.T) {
	h, _ := roleHandlerWithDB(t)

	rec := postJSON(t, h.Create, "/api/roles", `{"description":"no name"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "name is required")
}

func TestRoleDeleteAck(t *testing.T) {
	h, mock := roleHandlerWithDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM role_permissions WHERE role_id=").
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM user_roles WHERE role_id=").
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM roles WHERE id=").
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := doJSON(t, h.Delete, http.MethodDelete, "/api/roles/r-1", "", "id", "r-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Role deleted successfully")
	require.Contains(t, rec.Body.String(), `"success":true`)
}
