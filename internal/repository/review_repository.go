package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/filmstack/movie-review-api/internal/model"
)

// ReviewRepo provides CRUD operations for reviews. Every read joins
// the author and movie so views can show names without extra lookups.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewSelect = `SELECT rv.id, rv.user_id, rv.movie_id, rv.rating, rv.comment, rv.created_at, u.full_name, m.title
FROM reviews rv
JOIN users u ON u.id = rv.user_id
JOIN movies m ON m.id = rv.movie_id`

// Create inserts a review with a fresh UUID. The caller must have
// resolved the user and movie references beforehand.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	rv.ID = uuid.NewString()
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (id, user_id, movie_id, rating, comment) VALUES (?,?,?,?,?)",
		rv.ID, rv.UserID, rv.MovieID, rv.Rating, rv.Comment); err != nil {
		return err
	}
	got, err := r.GetByID(ctx, rv.ID)
	if err != nil {
		return err
	}
	*rv = got
	return nil
}

// GetByID fetches a single review with author and movie names joined.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (model.Review, error) {
	var rv model.Review
	err := r.DB.QueryRowContext(ctx, reviewSelect+" WHERE rv.id=? LIMIT 1", id).
		Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UserFullName, &rv.MovieTitle)
	if err == sql.ErrNoRows {
		return model.Review{}, ErrReviewNotFound
	}
	return rv, err
}

// List returns all reviews ordered by creation time.
func (r *ReviewRepo) List(ctx context.Context) ([]model.Review, error) {
	return r.query(ctx, reviewSelect+" ORDER BY rv.created_at, rv.id")
}

// ListByMovie returns all reviews of one movie.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID string) ([]model.Review, error) {
	return r.query(ctx, reviewSelect+" WHERE rv.movie_id=? ORDER BY rv.created_at, rv.id", movieID)
}

// ListByUser returns all reviews written by one user.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID string) ([]model.Review, error) {
	return r.query(ctx, reviewSelect+" WHERE rv.user_id=? ORDER BY rv.created_at, rv.id", userID)
}

// Update overwrites rating and comment. The user and movie references
// are immutable after creation.
func (r *ReviewRepo) Update(ctx context.Context, id string, rating int, comment string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reviews SET rating=?, comment=? WHERE id=?", rating, comment, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM reviews WHERE id=?", id).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrReviewNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a single review.
func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepo) query(ctx context.Context, q string, args ...interface{}) ([]model.Review, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UserFullName, &rv.MovieTitle); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
