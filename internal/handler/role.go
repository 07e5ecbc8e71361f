package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/filmstack/movie-review-api/internal/middleware"
	"github.com/filmstack/movie-review-api/internal/model"
	"github.com/filmstack/movie-review-api/internal/repository"
)

// RoleHandler implements /api/roles including the permission link and
// unlink sub-routes. Batch attach is all-or-nothing: one unresolvable
// id fails the whole call before anything is applied. Detaching an
// unlinked permission is deliberately a silent no-op.
type RoleHandler struct {
	Roles       *repository.RoleRepo
	Permissions *repository.PermissionRepo
	Authz       *middleware.Permissions
}

func NewRoleHandler(roles *repository.RoleRepo, perms *repository.PermissionRepo, authz *middleware.Permissions) *RoleHandler {
	if roles == nil || perms == nil {
		panic("nil repository passed to NewRoleHandler")
	}
	return &RoleHandler{Roles: roles, Permissions: perms, Authz: authz}
}

type roleReq struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	PermissionNames []string `json:"permissionNames"`
}

type linkReq struct {
	PermissionIDs []string `json:"permissionIds"`
}

type roleResp struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Permissions []permissionSummary `json:"permissions"`
}

// Create handles POST /api/roles. Optional permissionNames are resolved
// by name; any unknown name fails the call.
func (h *RoleHandler) Create(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}

	ctx := c.Request().Context()
	permIDs := make([]string, 0, len(req.PermissionNames))
	for _, name := range req.PermissionNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := h.Permissions.GetByName(ctx, name)
		if err != nil {
			if err == repository.ErrPermissionNotFound {
				return notFound(c, "Permission", name)
			}
			return internal(c, err)
		}
		permIDs = append(permIDs, p.ID)
	}

	role := model.Role{Name: req.Name, Description: strings.TrimSpace(req.Description)}
	if err := h.Roles.Create(ctx, &role, permIDs); err != nil {
		if err == repository.ErrRoleNameExists {
			return fail(c, http.StatusConflict, "role name already exists")
		}
		return internal(c, err)
	}
	created, err := h.Roles.GetByID(ctx, role.ID)
	if err != nil {
		return internal(c, err)
	}
	if h.Authz != nil {
		h.Authz.InvalidateAll(ctx)
	}
	return c.JSON(http.StatusOK, toRoleResp(created))
}

// GetByID handles GET /api/roles/:id.
func (h *RoleHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	role, err := h.Roles.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrRoleNotFound {
			return notFound(c, "Role", id)
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toRoleResp(role))
}

// List handles GET /api/roles.
func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.Roles.List(c.Request().Context())
	if err != nil {
		return internal(c, err)
	}
	out := make([]roleResp, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleResp(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /api/roles/:id and overwrites name and
// description. The permission set only changes via link/unlink.
func (h *RoleHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}

	ctx := c.Request().Context()
	if err := h.Roles.Update(ctx, id, req.Name, strings.TrimSpace(req.Description)); err != nil {
		switch err {
		case repository.ErrRoleNotFound:
			return notFound(c, "Role", id)
		case repository.ErrRoleNameExists:
			return fail(c, http.StatusConflict, "role name already exists")
		}
		return internal(c, err)
	}
	role, err := h.Roles.GetByID(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toRoleResp(role))
}

// Delete handles DELETE /api/roles/:id.
func (h *RoleHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	if err := h.Roles.Delete(ctx, id); err != nil {
		if err == repository.ErrRoleNotFound {
			return notFound(c, "Role", id)
		}
		return internal(c, err)
	}
	if h.Authz != nil {
		h.Authz.InvalidateAll(ctx)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Role deleted successfully",
		"id":      id,
	})
}

// LinkPermissions handles POST /api/roles/:id/permissions. All given
// ids must resolve or the whole call fails with nothing applied.
func (h *RoleHandler) LinkPermissions(c echo.Context) error {
	id := c.Param("id")
	var req linkReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if len(req.PermissionIDs) == 0 {
		return fail(c, http.StatusBadRequest, "permissionIds is required")
	}

	ctx := c.Request().Context()
	if _, err := h.Roles.GetByID(ctx, id); err != nil {
		if err == repository.ErrRoleNotFound {
			return notFound(c, "Role", id)
		}
		return internal(c, err)
	}
	if _, err := h.Permissions.GetByIDs(ctx, req.PermissionIDs); err != nil {
		if err == repository.ErrPermissionNotFound {
			return fail(c, http.StatusNotFound, "Some permissions not found: "+strings.Join(req.PermissionIDs, ", "))
		}
		return internal(c, err)
	}
	if err := h.Roles.AttachPermissions(ctx, id, req.PermissionIDs); err != nil {
		return internal(c, err)
	}

	role, err := h.Roles.GetByID(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	if h.Authz != nil {
		h.Authz.InvalidateAll(ctx)
	}
	return c.JSON(http.StatusOK, toRoleResp(role))
}

// UnlinkPermission handles DELETE /api/roles/:id/permissions/:permissionId.
// Removing a permission that is not linked (or does not exist) is not an
// error; the current role view is returned untouched.
func (h *RoleHandler) UnlinkPermission(c echo.Context) error {
	id := c.Param("id")
	permID := c.Param("permissionId")

	ctx := c.Request().Context()
	if _, err := h.Roles.GetByID(ctx, id); err != nil {
		if err == repository.ErrRoleNotFound {
			return notFound(c, "Role", id)
		}
		return internal(c, err)
	}
	if err := h.Roles.DetachPermission(ctx, id, permID); err != nil {
		return internal(c, err)
	}

	role, err := h.Roles.GetByID(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	if h.Authz != nil {
		h.Authz.InvalidateAll(ctx)
	}
	return c.JSON(http.StatusOK, toRoleResp(role))
}

func toRoleResp(r model.Role) roleResp {
	return roleResp{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: toPermissionSummaries(r.Permissions),
	}
}
