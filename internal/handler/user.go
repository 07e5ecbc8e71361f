package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/filmstack/movie-review-api/internal/config"
	"github.com/filmstack/movie-review-api/internal/middleware"
	"github.com/filmstack/movie-review-api/internal/model"
	"github.com/filmstack/movie-review-api/internal/repository"
	"github.com/filmstack/movie-review-api/internal/utils"
)

// UserHandler implements the /api/users CRUD surface. Role links are
// set from role names on create/update; the flattened permission view
// is recomputed from the hydrated roles on every read.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Roles *repository.RoleRepo
	Authz *middleware.Permissions
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, roles *repository.RoleRepo, authz *middleware.Permissions) *UserHandler {
	if users == nil || roles == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: users, Roles: roles, Authz: authz}
}

type userReq struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FullName  string   `json:"fullName"`
	RoleNames []string `json:"roleNames"`
}

type userResp struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	FullName    string              `json:"fullName"`
	Enabled     bool                `json:"enabled"`
	Roles       []roleSummary       `json:"roles"`
	Permissions []permissionSummary `json:"permissions"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if msg := validateUser(&req); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	ctx := c.Request().Context()
	roleIDs, err := h.resolveRoles(c, req.RoleNames)
	if err != nil {
		return err // response already written
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return internal(c, err)
	}
	u := model.User{Email: req.Email, PasswordHash: hash, FullName: req.FullName, Enabled: true}
	if err := h.Users.Create(ctx, &u, roleIDs); err != nil {
		if err == repository.ErrEmailExists {
			return fail(c, http.StatusConflict, "email already exists")
		}
		return internal(c, err)
	}

	created, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return internal(c, err)
	}
	if h.Authz != nil {
		h.Authz.Invalidate(ctx, created.Email)
	}
	return c.JSON(http.StatusOK, toUserResp(created))
}

// GetByID handles GET /api/users/:id.
func (h *UserHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return notFound(c, "User", id)
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// GetByEmail handles GET /api/users/email/:email.
func (h *UserHandler) GetByEmail(c echo.Context) error {
	email := c.Param("email")
	u, err := h.Users.GetByEmail(c.Request().Context(), email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return notFound(c, "User", email)
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// List handles GET /api/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return internal(c, err)
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /api/users/:id. It overwrites full name, password
// and the role set; the email stays as stored.
func (h *UserHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req userReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Password) == "" {
		return fail(c, http.StatusBadRequest, "password is required")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return fail(c, http.StatusBadRequest, "full name is required")
	}

	ctx := c.Request().Context()
	existing, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return notFound(c, "User", id)
		}
		return internal(c, err)
	}

	roleIDs, err := h.resolveRoles(c, req.RoleNames)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return internal(c, err)
	}
	existing.FullName = strings.TrimSpace(req.FullName)
	existing.PasswordHash = hash
	if err := h.Users.Update(ctx, &existing, roleIDs); err != nil {
		if err == repository.ErrUserNotFound {
			return notFound(c, "User", id)
		}
		return internal(c, err)
	}

	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	if h.Authz != nil {
		h.Authz.Invalidate(ctx, updated.Email)
	}
	return c.JSON(http.StatusOK, toUserResp(updated))
}

// Delete handles DELETE /api/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return notFound(c, "User", id)
		}
		return internal(c, err)
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrUserNotFound:
			return notFound(c, "User", id)
		case repository.ErrConflict:
			return fail(c, http.StatusConflict, "user still has reviews")
		}
		return internal(c, err)
	}
	if h.Authz != nil {
		h.Authz.Invalidate(ctx, u.Email)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User deleted successfully",
		"id":      id,
	})
}

// resolveRoles maps role names to ids; an unknown name writes a 404 and
// returns a non-nil error so callers stop.
func (h *UserHandler) resolveRoles(c echo.Context, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		role, err := h.Roles.GetByName(c.Request().Context(), name)
		if err != nil {
			if err == repository.ErrRoleNotFound {
				return nil, notFound(c, "Role", name)
			}
			return nil, internal(c, err)
		}
		ids = append(ids, role.ID)
	}
	return ids, nil
}

func validateUser(req *userReq) string {
	if req.Email == "" {
		return "email is required"
	}
	if !strings.Contains(req.Email, "@") {
		return "email must be a valid address"
	}
	if strings.TrimSpace(req.Password) == "" {
		return "password is required"
	}
	if strings.TrimSpace(req.FullName) == "" {
		return "full name is required"
	}
	return ""
}

func toUserResp(u model.User) userResp {
	roles := make([]roleSummary, 0, len(u.Roles))
	permSet := map[string]permissionSummary{}
	for _, r := range u.Roles {
		roles = append(roles, roleSummary{ID: r.ID, Name: r.Name})
		for _, p := range r.Permissions {
			permSet[p.ID] = permissionSummary{ID: p.ID, Name: p.Name}
		}
	}
	perms := make([]permissionSummary, 0, len(permSet))
	for _, p := range permSet {
		perms = append(perms, p)
	}
	sortPermissions(perms)
	return userResp{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Enabled:     u.Enabled,
		Roles:       roles,
		Permissions: perms,
		CreatedAt:   u.CreatedAt,
	}
}
