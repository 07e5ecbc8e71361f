package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/filmstack/movie-review-api/internal/model"
	"github.com/filmstack/movie-review-api/internal/repository"
)

// MovieHandler implements /api/movies CRUD. Movie views embed image and
// review summaries; the review summaries carry no movie back-reference
// so serialization stays bounded.
type MovieHandler struct {
	Movies *repository.MovieRepo
}

func NewMovieHandler(movies *repository.MovieRepo) *MovieHandler {
	if movies == nil {
		panic("nil repository passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: movies}
}

type movieReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Director    string `json:"director"`
	Genre       string `json:"genre"`
	Year        int    `json:"year"`
}

type movieImageResp struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type movieResp struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Director    string           `json:"director,omitempty"`
	Genre       string           `json:"genre"`
	Year        int              `json:"year"`
	Images      []movieImageResp `json:"images"`
	Reviews     []reviewSummary  `json:"reviews"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Create handles POST /api/movies. Images are not accepted here; they
// enter through the seed dataset only.
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if msg := validateMovie(&req); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	m := model.Movie{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Director:    strings.TrimSpace(req.Director),
		Genre:       strings.TrimSpace(req.Genre),
		Year:        req.Year,
	}
	ctx := c.Request().Context()
	if err := h.Movies.Create(ctx, &m); err != nil {
		return internal(c, err)
	}
	created, err := h.Movies.GetByID(ctx, m.ID)
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toMovieResp(created))
}

// GetByID handles GET /api/movies/:id.
func (h *MovieHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrMovieNotFound {
			return notFound(c, "Movie", id)
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toMovieResp(m))
}

// List handles GET /api/movies.
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return internal(c, err)
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResp(m))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /api/movies/:id with a full-field overwrite.
func (h *MovieHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if msg := validateMovie(&req); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	ctx := c.Request().Context()
	m := model.Movie{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Director:    strings.TrimSpace(req.Director),
		Genre:       strings.TrimSpace(req.Genre),
		Year:        req.Year,
	}
	if err := h.Movies.Update(ctx, &m); err != nil {
		if err == repository.ErrMovieNotFound {
			return notFound(c, "Movie", id)
		}
		return internal(c, err)
	}
	updated, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toMovieResp(updated))
}

// Delete handles DELETE /api/movies/:id. Images and reviews go with the
// movie in one transaction.
func (h *MovieHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrMovieNotFound {
			return notFound(c, "Movie", id)
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Movie deleted successfully",
		"id":      id,
	})
}

func validateMovie(req *movieReq) string {
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	if req.Year == 0 {
		return "year is required"
	}
	return ""
}

func toMovieResp(m model.Movie) movieResp {
	images := make([]movieImageResp, 0, len(m.Images))
	for _, img := range m.Images {
		images = append(images, movieImageResp{ID: img.ID, Name: img.Name, ImageURL: img.ImageURL})
	}
	reviews := make([]reviewSummary, 0, len(m.Reviews))
	for _, rv := range m.Reviews {
		reviews = append(reviews, reviewSummary{
			ID:           rv.ID,
			Rating:       rv.Rating,
			Comment:      rv.Comment,
			UserID:       rv.UserID,
			UserFullName: rv.UserFullName,
		})
	}
	return movieResp{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Director:    m.Director,
		Genre:       m.Genre,
		Year:        m.Year,
		Images:      images,
		Reviews:     reviews,
		CreatedAt:   m.CreatedAt,
	}
}
