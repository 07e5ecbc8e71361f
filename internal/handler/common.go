package handler // handler defines http handlers

import (
    "log"
    "net/http"
    "sort"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/filmstack/movie-review-api/internal/model"
)

// errorBody is the application-wide error payload returned on every
// non-2xx response (login's empty 401 being the one exception).
type errorBody struct {
    Timestamp time.Time `json:"timestamp"`
    Status    int       `json:"status"`
    Error     string    `json:"error"`
    Message   string    `json:"message"`
    Path      string    `json:"path"`
}

// fail writes the standard error body for the given status and message.
func fail(c echo.Context, status int, message string) error {
    return c.JSON(status, errorBody{
        Timestamp: time.Now().UTC(),
        Status:    status,
        Error:     http.StatusText(status),
        Message:   message,
        Path:      c.Request().URL.Path,
    })
}

// notFound writes a 404 carrying the missing entity kind and id.
func notFound(c echo.Context, what, id string) error {
    return fail(c, http.StatusNotFound, what+" not found: "+id)
}

// internal logs the underlying error and writes a generic 500 so
// internals never leak to the client.
func internal(c echo.Context, err error) error {
    log.Printf("[%s %s] unexpected error: %v", c.Request().Method, c.Request().URL.Path, err)
    return fail(c, http.StatusInternalServerError, "internal server error")
}

// ----- shared view shapes -----

type permissionSummary struct {
    ID   string `json:"id"`
    Name string `json:"name"`
}

type roleSummary struct {
    ID   string `json:"id"`
    Name string `json:"name"`
}

type reviewSummary struct {
    ID           string `json:"id"`
    Rating       int    `json:"rating"`
    Comment      string `json:"comment"`
    UserID       string `json:"userId"`
    UserFullName string `json:"userFullName"`
}

func toPermissionSummaries(perms []model.Permission) []permissionSummary {
    out := make([]permissionSummary, 0, len(perms))
    for _, p := range perms {
        out = append(out, permissionSummary{ID: p.ID, Name: p.Name})
    }
    return out
}

// sortPermissions orders summaries by name so flattened sets render
// deterministically regardless of map iteration order.
func sortPermissions(perms []permissionSummary) {
    sort.Slice(perms, func(i, j int) bool { return perms[i].Name < perms[j].Name })
}
