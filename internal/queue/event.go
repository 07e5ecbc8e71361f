// Package queue defines message payloads exchanged over the message broker.
package queue

// ReviewCreatedEvent is published when a review is successfully stored.
// It carries the denormalized movie title and reviewer name so downstream
// consumers can log or notify without querying the primary database.
type ReviewCreatedEvent struct {
	ReviewID     string `json:"review_id"`
	MovieID      string `json:"movie_id"`
	MovieTitle   string `json:"movie_title"`
	UserID       string `json:"user_id"`
	UserFullName string `json:"user_full_name"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	CreatedAt    string `json:"created_at"`
}
