package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/filmstack/movie-review-api/internal/repository"
)

func seederWithDB(t *testing.T) (*Seeder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Seeder{
		Users:       repository.NewUserRepo(db),
		Roles:       repository.NewRoleRepo(db),
		Permissions: repository.NewPermissionRepo(db),
		Movies:      repository.NewMovieRepo(db),
		BcryptCost:  4,
	}, mock
}

func TestSeedMoviesSkipsNonEmptyTable(t *testing.T) {
	s, mock := seederWithDB(t)
	s.MoviePath = "does-not-matter.json"

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	require.NoError(t, s.seedMovies(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedMoviesMissingFileIsSkipped(t *testing.T) {
	s, mock := seederWithDB(t)
	s.MoviePath = filepath.Join(t.TempDir(), "missing.json")

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	require.NoError(t, s.seedMovies(context.Background()))
}

func TestSeedMoviesLoadsDataset(t *testing.T) {
	s, mock := seederWithDB(t)

	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"title":"Northbound","year":2021,"genre":"Thriller","images":[]},
		{"title":"Static","year":2023,"genre":"Horror","images":[{"name":"poster","imageUrl":"https://img.example.com/p.jpg"}]}
	]`), 0o644))
	s.MoviePath = path

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO movies").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO movies").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO movie_images").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.seedMovies(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureRoleRepairsDriftedSet(t *testing.T) {
	s, mock := seederWithDB(t)

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs("ROLE_USER").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow("r-1", "ROLE_USER", "Read-only catalog access"))
	// Drifted: the stored set lost REVIEW_VIEW.
	mock.ExpectQuery("SELECT p.id, p.name").
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("p-1", "MOVIE_VIEW"))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM role_permissions WHERE role_id=").
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO role_permissions").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, s.ensureRole(context.Background(), "ROLE_USER", "Read-only catalog access", []string{"p-1", "p-2"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureRoleLeavesMatchingSetAlone(t *testing.T) {
	s, mock := seederWithDB(t)

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs("ROLE_USER").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow("r-1", "ROLE_USER", "Read-only catalog access"))
	mock.ExpectQuery("SELECT p.id, p.name").
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("p-1", "MOVIE_VIEW").
			AddRow("p-2", "REVIEW_VIEW"))

	require.NoError(t, s.ensureRole(context.Background(), "ROLE_USER", "Read-only catalog access", []string{"p-2", "p-1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSameSetIgnoresOrder(t *testing.T) {
	require.True(t, sameSet([]string{"a", "b"}, []string{"b", "a"}))
	require.False(t, sameSet([]string{"a"}, []string{"a", "b"}))
	require.False(t, sameSet([]string{"a", "c"}, []string{"a", "b"}))
	require.True(t, sameSet(nil, nil))
}
