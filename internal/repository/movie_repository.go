package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/filmstack/movie-review-api/internal/model"
)

// MovieRepo provides CRUD operations for movies and their owned
// images. Deleting a movie cascades to movie_images and reviews in a
// single transaction so a half-deleted movie is never observable.
type MovieRepo struct{ DB *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{DB: db} }

// Create inserts a movie row and assigns a fresh UUID. Images are not
// written here; they enter only through CreateWithImages (seeding).
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	m.ID = uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO movies (id, title, description, director, genre, year) VALUES (?,?,?,?,?,?)",
		m.ID, m.Title, nullable(m.Description), nullable(m.Director), m.Genre, m.Year)
	if err != nil {
		return err
	}
	return r.DB.QueryRowContext(ctx, "SELECT created_at FROM movies WHERE id=?", m.ID).Scan(&m.CreatedAt)
}

// CreateWithImages inserts the movie and its image list in one
// all-or-nothing transaction. Used by the startup seeder for the
// composite write.
func (r *MovieRepo) CreateWithImages(ctx context.Context, m *model.Movie) error {
	m.ID = uuid.NewString()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO movies (id, title, description, director, genre, year) VALUES (?,?,?,?,?,?)",
		m.ID, m.Title, nullable(m.Description), nullable(m.Director), m.Genre, m.Year); err != nil {
		return err
	}
	if len(m.Images) > 0 {
		query := "INSERT INTO movie_images (id, movie_id, name, image_url) VALUES "
		args := make([]interface{}, 0, len(m.Images)*4)
		for i := range m.Images {
			m.Images[i].ID = uuid.NewString()
			m.Images[i].MovieID = m.ID
			if i > 0 {
				query += ","
			}
			query += "(?,?,?,?)"
			args = append(args, m.Images[i].ID, m.ID, m.Images[i].Name, m.Images[i].ImageURL)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID fetches a movie with its images and review summaries hydrated.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (model.Movie, error) {
	var m model.Movie
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, title, COALESCE(description,''), COALESCE(director,''), genre, year, created_at
FROM movies WHERE id=? LIMIT 1`, id).
		Scan(&m.ID, &m.Title, &m.Description, &m.Director, &m.Genre, &m.Year, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Movie{}, ErrMovieNotFound
	}
	if err != nil {
		return model.Movie{}, err
	}
	if err := r.hydrate(ctx, &m); err != nil {
		return model.Movie{}, err
	}
	return m, nil
}

// List returns all movies with images and review summaries hydrated.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, title, COALESCE(description,''), COALESCE(director,''), genre, year, created_at
FROM movies ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Director, &m.Genre, &m.Year, &m.CreatedAt); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range movies {
		if err := r.hydrate(ctx, &movies[i]); err != nil {
			return nil, err
		}
	}
	return movies, nil
}

// Update overwrites all mutable fields of the movie.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE movies SET title=?, description=?, director=?, genre=?, year=? WHERE id=?",
		m.Title, nullable(m.Description), nullable(m.Director), m.Genre, m.Year, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id=?", m.ID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrMovieNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes the movie with its images and reviews in one
// transaction.
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE movie_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM movie_images WHERE movie_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return tx.Commit()
}

// Count returns the number of movie rows. The seeder uses it to decide
// whether the bulk dataset load should run.
func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n)
	return n, err
}

// hydrate loads the movie's images and review summaries (review id,
// rating, comment, author id and name).
func (r *MovieRepo) hydrate(ctx context.Context, m *model.Movie) error {
	imgRows, err := r.DB.QueryContext(ctx,
		"SELECT id, movie_id, name, image_url, created_at FROM movie_images WHERE movie_id=? ORDER BY created_at, id", m.ID)
	if err != nil {
		return err
	}
	defer imgRows.Close()

	m.Images = []model.MovieImage{}
	for imgRows.Next() {
		var img model.MovieImage
		if err := imgRows.Scan(&img.ID, &img.MovieID, &img.Name, &img.ImageURL, &img.CreatedAt); err != nil {
			return err
		}
		m.Images = append(m.Images, img)
	}
	if err := imgRows.Err(); err != nil {
		return err
	}

	revRows, err := r.DB.QueryContext(ctx,
		`SELECT rv.id, rv.user_id, rv.movie_id, rv.rating, rv.comment, rv.created_at, u.full_name
FROM reviews rv JOIN users u ON u.id = rv.user_id
WHERE rv.movie_id=? ORDER BY rv.created_at, rv.id`, m.ID)
	if err != nil {
		return err
	}
	defer revRows.Close()

	m.Reviews = []model.Review{}
	for revRows.Next() {
		var rv model.Review
		if err := revRows.Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UserFullName); err != nil {
			return err
		}
		m.Reviews = append(m.Reviews, rv)
	}
	return revRows.Err()
}
