package model

import "time"

// MovieImage is a poster or still owned by exactly one movie.  It is
// removed together with its movie.
type MovieImage struct {
    ID        string    // movie_images.id
    MovieID   string    // movie_images.movie_id
    Name      string    // movie_images.name
    ImageURL  string    // movie_images.image_url
    CreatedAt time.Time // movie_images.created_at
}
