package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/filmstack/movie-review-api/internal/handler"    // import the handlers that implement business logic
	"github.com/filmstack/movie-review-api/internal/middleware" // import middleware for JWT authentication and permission enforcement
)

// Handlers bundles every handler the route table needs so main only
// passes a single value into RegisterAPI.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Roles       *handler.RoleHandler
	Permissions *handler.PermissionHandler
	Movies      *handler.MovieHandler
	Reviews     *handler.ReviewHandler
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// This endpoint can be used by load balancers or monitoring systems to
	// verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the login endpoint.  It lives outside /api so it
// never passes through the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST("/auth/login", a.Login)
}

// RegisterAPI registers the protected route table under /api.
//
// Every route passes through JWTAuth; write endpoints additionally require
// the matching permission via authz.Require.  Review reads are the one
// exception to the permission rule: they are fully public (no token at all)
// so a catalog page can render for guests, which is why they are registered
// on the bare Echo instance instead of the /api group.
//
// extra holds cross-cutting middleware (rate limiting) applied to the whole
// group; entries may be nil when the backing Redis is unavailable.  JWTAuth
// registers first so the extras see the authenticated subject: the rate
// limiter buckets per subject and would otherwise treat every caller as a
// guest.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, authz *middleware.Permissions, extra ...echo.MiddlewareFunc) {
	api := e.Group("/api")
	api.Use(middleware.JWTAuth(jwtSecret))
	for _, mw := range extra {
		if mw != nil {
			api.Use(mw)
		}
	}

	// Users.
	api.POST("/users", h.Users.Create, authz.Require("USER_CREATE"))
	api.GET("/users", h.Users.List, authz.Require("USER_VIEW"))
	api.GET("/users/:id", h.Users.GetByID, authz.Require("USER_VIEW"))
	api.GET("/users/email/:email", h.Users.GetByEmail, authz.Require("USER_VIEW"))
	api.PUT("/users/:id", h.Users.Update, authz.Require("USER_UPDATE"))
	api.DELETE("/users/:id", h.Users.Delete, authz.Require("USER_DELETE"))

	// Roles, including the permission attach/detach sub-routes.  Changing
	// which permissions a role carries is an update to the role, so the
	// link endpoints sit behind ROLE_UPDATE rather than PERMISSION_UPDATE.
	api.POST("/roles", h.Roles.Create, authz.Require("ROLE_CREATE"))
	api.GET("/roles", h.Roles.List, authz.Require("ROLE_VIEW"))
	api.GET("/roles/:id", h.Roles.GetByID, authz.Require("ROLE_VIEW"))
	api.PUT("/roles/:id", h.Roles.Update, authz.Require("ROLE_UPDATE"))
	api.DELETE("/roles/:id", h.Roles.Delete, authz.Require("ROLE_DELETE"))
	api.POST("/roles/:id/permissions", h.Roles.LinkPermissions, authz.Require("ROLE_UPDATE"))
	api.DELETE("/roles/:id/permissions/:permissionId", h.Roles.UnlinkPermission, authz.Require("ROLE_UPDATE"))

	// Permissions.
	api.POST("/permissions", h.Permissions.Create, authz.Require("PERMISSION_CREATE"))
	api.GET("/permissions", h.Permissions.List, authz.Require("PERMISSION_VIEW"))
	api.GET("/permissions/:id", h.Permissions.GetByID, authz.Require("PERMISSION_VIEW"))
	api.PUT("/permissions/:id", h.Permissions.Update, authz.Require("PERMISSION_UPDATE"))
	api.DELETE("/permissions/:id", h.Permissions.Delete, authz.Require("PERMISSION_DELETE"))

	// Movies.
	api.POST("/movies", h.Movies.Create, authz.Require("MOVIE_CREATE"))
	api.GET("/movies", h.Movies.List, authz.Require("MOVIE_VIEW"))
	api.GET("/movies/:id", h.Movies.GetByID, authz.Require("MOVIE_VIEW"))
	api.PUT("/movies/:id", h.Movies.Update, authz.Require("MOVIE_UPDATE"))
	api.DELETE("/movies/:id", h.Movies.Delete, authz.Require("MOVIE_DELETE"))

	// Review writes.
	api.POST("/reviews", h.Reviews.Create, authz.Require("REVIEW_CREATE"))
	api.PUT("/reviews/:id", h.Reviews.Update, authz.Require("REVIEW_UPDATE"))
	api.DELETE("/reviews/:id", h.Reviews.Delete, authz.Require("REVIEW_DELETE"))
}

// RegisterPublic registers the unauthenticated review read endpoints.  The
// optional cache middleware keeps hot listings out of the database.
func RegisterPublic(e *echo.Echo, r *handler.ReviewHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}
	e.GET("/api/reviews", r.List, mws...)
	e.GET("/api/reviews/:id", r.GetByID, mws...)
	e.GET("/api/reviews/movie/:id", r.ListByMovie, mws...)
	e.GET("/api/reviews/user/:id", r.ListByUser, mws...)
}
