package model

import "time"

// Movie represents a catalog entry stored in the `movies` table.
// A movie owns an ordered list of images and a list of reviews;
// both are cascade-deleted with the movie.  Genre is stored as a
// comma-joined free-text string.
//
// Fields:
//  ID          – UUID primary key.
//  Title       – movie title (required).
//  Description – optional synopsis.
//  Director    – optional director name.
//  Genre       – comma-separated genres.
//  Year        – release year.
//  CreatedAt   – timestamp of creation.
//  Images      – owned movie_images rows (hydrated on demand).
//  Reviews     – reviews referencing this movie (hydrated on demand).
type Movie struct {
    ID          string       // movies.id
    Title       string       // movies.title
    Description string       // movies.description (empty when NULL)
    Director    string       // movies.director (empty when NULL)
    Genre       string       // movies.genre
    Year        int          // movies.year
    CreatedAt   time.Time    // movies.created_at
    Images      []MovieImage // movie_images join (may be nil)
    Reviews     []Review     // reviews join (may be nil)
}
