package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/filmstack/movie-review-api/internal/model"
	q "github.com/filmstack/movie-review-api/internal/queue"
	"github.com/filmstack/movie-review-api/internal/repository"
	queue_publisher "github.com/filmstack/movie-review-api/internal/service"
)

// ReviewHandler implements /api/reviews. Creation resolves both
// foreign references before any write and publishes a review.created
// event once the row is stored; reads are public.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Users   *repository.UserRepo
	Movies  *repository.MovieRepo

	// publish is swapped in tests; defaults to the RabbitMQ publisher.
	publish func(ctx context.Context, event q.ReviewCreatedEvent) error
}

func NewReviewHandler(reviews *repository.ReviewRepo, users *repository.UserRepo, movies *repository.MovieRepo) *ReviewHandler {
	if reviews == nil || users == nil || movies == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{
		Reviews: reviews,
		Users:   users,
		Movies:  movies,
		publish: queue_publisher.PublishReviewCreated,
	}
}

type reviewReq struct {
	MovieID string `json:"movieId"`
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type reviewResp struct {
	ID           string    `json:"id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	MovieID      string    `json:"movieId"`
	MovieTitle   string    `json:"movieTitle"`
	UserID       string    `json:"userId"`
	UserFullName string    `json:"userFullName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Create handles POST /api/reviews.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if msg := validateReview(&req); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	ctx := c.Request().Context()
	if _, err := h.Users.GetByID(ctx, req.UserID); err != nil {
		if err == repository.ErrUserNotFound {
			return notFound(c, "User", req.UserID)
		}
		return internal(c, err)
	}
	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		if err == repository.ErrMovieNotFound {
			return notFound(c, "Movie", req.MovieID)
		}
		return internal(c, err)
	}

	rv := model.Review{
		UserID:  req.UserID,
		MovieID: req.MovieID,
		Rating:  req.Rating,
		Comment: strings.TrimSpace(req.Comment),
	}
	if err := h.Reviews.Create(ctx, &rv); err != nil {
		return internal(c, err)
	}

	// Fire-and-forget: a broker outage must not fail the request.
	event := q.ReviewCreatedEvent{
		ReviewID:     rv.ID,
		MovieID:      rv.MovieID,
		MovieTitle:   rv.MovieTitle,
		UserID:       rv.UserID,
		UserFullName: rv.UserFullName,
		Rating:       rv.Rating,
		Comment:      rv.Comment,
		CreatedAt:    rv.CreatedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.publish(ctx, event)
	}()

	return c.JSON(http.StatusOK, toReviewResp(rv))
}

// GetByID handles GET /api/reviews/:id (public).
func (h *ReviewHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	rv, err := h.Reviews.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return notFound(c, "Review", id)
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResp(rv))
}

// List handles GET /api/reviews (public).
func (h *ReviewHandler) List(c echo.Context) error {
	reviews, err := h.Reviews.List(c.Request().Context())
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResps(reviews))
}

// ListByMovie handles GET /api/reviews/movie/:id (public).
func (h *ReviewHandler) ListByMovie(c echo.Context) error {
	reviews, err := h.Reviews.ListByMovie(c.Request().Context(), c.Param("id"))
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResps(reviews))
}

// ListByUser handles GET /api/reviews/user/:id (public).
func (h *ReviewHandler) ListByUser(c echo.Context) error {
	reviews, err := h.Reviews.ListByUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResps(reviews))
}

// Update handles PUT /api/reviews/:id. Only rating and comment change;
// the user and movie references are immutable.
func (h *ReviewHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 10 {
		return fail(c, http.StatusBadRequest, "rating must be between 1 and 10")
	}
	if strings.TrimSpace(req.Comment) == "" {
		return fail(c, http.StatusBadRequest, "comment is required")
	}

	ctx := c.Request().Context()
	if err := h.Reviews.Update(ctx, id, req.Rating, strings.TrimSpace(req.Comment)); err != nil {
		if err == repository.ErrReviewNotFound {
			return notFound(c, "Review", id)
		}
		return internal(c, err)
	}
	rv, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResp(rv))
}

// Delete handles DELETE /api/reviews/:id.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.Reviews.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrReviewNotFound {
			return notFound(c, "Review", id)
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Review deleted successfully",
		"id":      id,
	})
}

func validateReview(req *reviewReq) string {
	if strings.TrimSpace(req.MovieID) == "" {
		return "movieId is required"
	}
	if strings.TrimSpace(req.UserID) == "" {
		return "userId is required"
	}
	if req.Rating < 1 || req.Rating > 10 {
		return "rating must be between 1 and 10"
	}
	if strings.TrimSpace(req.Comment) == "" {
		return "comment is required"
	}
	return ""
}

func toReviewResp(rv model.Review) reviewResp {
	return reviewResp{
		ID:           rv.ID,
		Rating:       rv.Rating,
		Comment:      rv.Comment,
		MovieID:      rv.MovieID,
		MovieTitle:   rv.MovieTitle,
		UserID:       rv.UserID,
		UserFullName: rv.UserFullName,
		CreatedAt:    rv.CreatedAt,
	}
}

func toReviewResps(reviews []model.Review) []reviewResp {
	out := make([]reviewResp, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, toReviewResp(rv))
	}
	return out
}
