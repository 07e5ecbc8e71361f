package handler

import (
    "context"  // provides context with cancellation for DB calls
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/filmstack/movie-review-api/internal/config"     // app configuration
    "github.com/filmstack/movie-review-api/internal/repository" // DB repositories
    "github.com/filmstack/movie-review-api/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for the login endpoint.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string `json:"token"`
}

// Login verifies credentials and mints a bearer token. Every failure
// mode — unknown email, wrong password, disabled account — answers an
// empty 401 so the response never reveals which part was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.NoContent(http.StatusUnauthorized)
		}
		return internal(c, err)
	}
	if !u.Enabled || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.NoContent(http.StatusUnauthorized)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, loginResp{Token: access.Token})
}
