package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/filmstack/movie-review-api/internal/middleware"
	"github.com/filmstack/movie-review-api/internal/model"
	"github.com/filmstack/movie-review-api/internal/repository"
)

// PermissionHandler implements /api/permissions CRUD.
type PermissionHandler struct {
	Permissions *repository.PermissionRepo
	Authz       *middleware.Permissions
}

func NewPermissionHandler(perms *repository.PermissionRepo, authz *middleware.Permissions) *PermissionHandler {
	if perms == nil {
		panic("nil repository passed to NewPermissionHandler")
	}
	return &PermissionHandler{Permissions: perms, Authz: authz}
}

type permissionReq struct {
	Name string `json:"name"`
}

// Create handles POST /api/permissions.
func (h *PermissionHandler) Create(c echo.Context) error {
	var req permissionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}

	p := model.Permission{Name: req.Name}
	if err := h.Permissions.Create(c.Request().Context(), &p); err != nil {
		if err == repository.ErrPermissionNameExists {
			return fail(c, http.StatusConflict, "permission name already exists")
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, permissionSummary{ID: p.ID, Name: p.Name})
}

// GetByID handles GET /api/permissions/:id.
func (h *PermissionHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	p, err := h.Permissions.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrPermissionNotFound {
			return notFound(c, "Permission", id)
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, permissionSummary{ID: p.ID, Name: p.Name})
}

// List handles GET /api/permissions.
func (h *PermissionHandler) List(c echo.Context) error {
	perms, err := h.Permissions.List(c.Request().Context())
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, toPermissionSummaries(perms))
}

// Update handles PUT /api/permissions/:id.
func (h *PermissionHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req permissionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}

	ctx := c.Request().Context()
	if err := h.Permissions.Update(ctx, id, req.Name); err != nil {
		switch err {
		case repository.ErrPermissionNotFound:
			return notFound(c, "Permission", id)
		case repository.ErrPermissionNameExists:
			return fail(c, http.StatusConflict, "permission name already exists")
		}
		return internal(c, err)
	}
	if h.Authz != nil {
		h.Authz.InvalidateAll(ctx)
	}
	p, err := h.Permissions.GetByID(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, permissionSummary{ID: p.ID, Name: p.Name})
}

// Delete handles DELETE /api/permissions/:id. Any role links pointing
// at the permission are removed with it.
func (h *PermissionHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	if err := h.Permissions.Delete(ctx, id); err != nil {
		if err == repository.ErrPermissionNotFound {
			return notFound(c, "Permission", id)
		}
		return internal(c, err)
	}
	if h.Authz != nil {
		h.Authz.InvalidateAll(ctx)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Permission deleted successfully",
		"id":      id,
	})
}
