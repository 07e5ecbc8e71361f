package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/filmstack/movie-review-api/internal/repository"
)

// permKeyPrefix namespaces the cached permission sets in Redis.
const permKeyPrefix = "perm:"

// Permissions gates protected routes on flat permission-set membership.
// The acting identity's effective set is the union of permissions across
// all attached roles, resolved with one join query and cached per user
// in Redis for a short TTL.  A nil Redis client disables the cache and
// every request hits the database.
type Permissions struct {
	Users *repository.UserRepo
	RDB   *redis.Client
	TTL   time.Duration
}

// NewPermissions constructs the authorization gate. rdb may be nil.
func NewPermissions(users *repository.UserRepo, rdb *redis.Client, ttl time.Duration) *Permissions {
	if users == nil {
		panic("nil user repository passed to NewPermissions")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Permissions{Users: users, RDB: rdb, TTL: ttl}
}

// Require returns a middleware granting access iff the authenticated
// user's effective permission set contains name.  It assumes JWTAuth
// already stored the subject email under "email".  Denials respond with
// a generic message; the concrete missing permission is only logged.
func (p *Permissions) Require(name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, ok := c.Get("email").(string)
			if !ok || email == "" {
				return errJSON(c, http.StatusUnauthorized, "missing bearer token")
			}
			set, err := p.effectiveSet(c.Request().Context(), email)
			if err != nil {
				log.Printf("authz: resolving permissions for %s failed: %v", email, err)
				return errJSON(c, http.StatusInternalServerError, "internal server error")
			}
			if !set[name] {
				log.Printf("authz: %s lacks %s for %s %s", email, name, c.Request().Method, c.Request().URL.Path)
				return errJSON(c, http.StatusForbidden, "you do not have permission to perform this action")
			}
			return next(c)
		}
	}
}

// Invalidate drops one user's cached permission set, e.g. after the
// user's role links changed.
func (p *Permissions) Invalidate(ctx context.Context, email string) {
	if p.RDB == nil {
		return
	}
	if err := p.RDB.Del(ctx, permKeyPrefix+email).Err(); err != nil {
		log.Printf("authz: invalidate %s failed: %v", email, err)
	}
}

// InvalidateAll drops every cached permission set.  Role and permission
// mutations affect an unknown set of users, so the whole namespace goes.
func (p *Permissions) InvalidateAll(ctx context.Context) {
	if p.RDB == nil {
		return
	}
	iter := p.RDB.Scan(ctx, 0, permKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := p.RDB.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("authz: invalidate %s failed: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("authz: scanning permission cache failed: %v", err)
	}
}

// effectiveSet returns the user's flattened permission names, served
// from Redis when a fresh entry exists.
func (p *Permissions) effectiveSet(ctx context.Context, email string) (map[string]bool, error) {
	if p.RDB != nil {
		if raw, err := p.RDB.Get(ctx, permKeyPrefix+email).Bytes(); err == nil {
			var names []string
			if json.Unmarshal(raw, &names) == nil {
				return toSet(names), nil
			}
		}
	}
	names, err := p.Users.EffectivePermissions(ctx, email)
	if err != nil {
		return nil, err
	}
	if p.RDB != nil {
		if raw, err := json.Marshal(names); err == nil {
			if err := p.RDB.SetEx(ctx, permKeyPrefix+email, raw, p.TTL).Err(); err != nil {
				log.Printf("authz: caching permissions for %s failed: %v", email, err)
			}
		}
	}
	return toSet(names), nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
