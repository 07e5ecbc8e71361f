package model

import "time"

// Review is a rating plus comment left by one user for one movie.
// Both references are required and immutable after creation; only
// rating and comment may be overwritten by an update.  Rating is
// bounded to [1,10].
//
// Fields:
//  ID           – UUID primary key.
//  UserID       – author of the review.
//  MovieID      – reviewed movie.
//  Rating       – integer score between 1 and 10 inclusive.
//  Comment      – free-text body.
//  CreatedAt    – timestamp of creation.
//  UserFullName – denormalized author name for summary views.
//  MovieTitle   – denormalized movie title for summary views.
type Review struct {
    ID           string    // reviews.id
    UserID       string    // reviews.user_id
    MovieID      string    // reviews.movie_id
    Rating       int       // reviews.rating
    Comment      string    // reviews.comment
    CreatedAt    time.Time // reviews.created_at
    UserFullName string    // users.full_name (joined)
    MovieTitle   string    // movies.title (joined)
}
