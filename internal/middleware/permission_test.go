package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/filmstack/movie-review-api/internal/repository"
)

const permQuery = "SELECT DISTINCT p.name"

func newPermTestContext(t *testing.T, email string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if email != "" {
		c.Set("email", email)
	}
	return c, rec
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRequireGrantsWhenPermissionPresent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(permQuery).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("MOVIE_VIEW"))

	p := NewPermissions(repository.NewUserRepo(db), nil, time.Minute)
	c, rec := newPermTestContext(t, "jane@example.com")
	require.NoError(t, p.Require("MOVIE_VIEW")(okHandler)(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireDeniesWithGenericMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(permQuery).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("MOVIE_VIEW"))

	p := NewPermissions(repository.NewUserRepo(db), nil, time.Minute)
	c, rec := newPermTestContext(t, "jane@example.com")
	require.NoError(t, p.Require("MOVIE_DELETE")(okHandler)(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
	// The missing permission name must not leak into the response body.
	require.NotContains(t, rec.Body.String(), "MOVIE_DELETE")
	require.Contains(t, rec.Body.String(), "you do not have permission")
}

func TestRequireWithoutIdentityIsUnauthorized(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewPermissions(repository.NewUserRepo(db), nil, time.Minute)
	c, rec := newPermTestContext(t, "")
	require.NoError(t, p.Require("MOVIE_VIEW")(okHandler)(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireServesSecondRequestFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Only one database round trip despite two requests.
	mock.ExpectQuery(permQuery).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("MOVIE_VIEW"))

	p := NewPermissions(repository.NewUserRepo(db), rdb, time.Minute)
	for i := 0; i < 2; i++ {
		c, rec := newPermTestContext(t, "jane@example.com")
		require.NoError(t, p.Require("MOVIE_VIEW")(okHandler)(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.NoError(t, mock.ExpectationsWereMet())
	require.True(t, mr.Exists("perm:jane@example.com"))
}

func TestInvalidateDropsCachedSet(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(permQuery).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("MOVIE_VIEW"))
	mock.ExpectQuery(permQuery).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("MOVIE_VIEW").AddRow("MOVIE_DELETE"))

	p := NewPermissions(repository.NewUserRepo(db), rdb, time.Minute)

	c, rec := newPermTestContext(t, "jane@example.com")
	require.NoError(t, p.Require("MOVIE_DELETE")(okHandler)(c))
	require.Equal(t, http.StatusForbidden, rec.Code)

	// After invalidation the next check resolves the widened set.
	p.Invalidate(c.Request().Context(), "jane@example.com")
	c, rec = newPermTestContext(t, "jane@example.com")
	require.NoError(t, p.Require("MOVIE_DELETE")(okHandler)(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateAllClearsNamespaceOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, mr.Set("perm:jane@example.com", `["MOVIE_VIEW"]`))
	require.NoError(t, mr.Set("perm:sam@example.com", `["MOVIE_VIEW"]`))
	require.NoError(t, mr.Set("cache:unrelated", "keep"))

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewPermissions(repository.NewUserRepo(db), rdb, time.Minute)
	p.InvalidateAll(context.Background())

	require.False(t, mr.Exists("perm:jane@example.com"))
	require.False(t, mr.Exists("perm:sam@example.com"))
	require.True(t, mr.Exists("cache:unrelated"))
}
