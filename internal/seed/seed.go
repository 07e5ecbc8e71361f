// Package seed converges the database to the baseline state the API needs
// on every start: the permission catalog, the two built-in roles, the
// bootstrap admin account, and an initial movie dataset. Every step is
// idempotent, so restarting the server never duplicates rows, and manual
// changes to the built-in roles are repaired rather than preserved.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/filmstack/movie-review-api/internal/model"
	"github.com/filmstack/movie-review-api/internal/repository"
	"github.com/filmstack/movie-review-api/internal/utils"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin123"
	adminFullName = "Admin User"

	roleAdmin = "ROLE_ADMIN"
	roleUser  = "ROLE_USER"
)

// resources and actions span the whole permission catalog; the cross
// product yields the 20 permission names the API checks against.
var (
	resources = []string{"USER", "ROLE", "PERMISSION", "MOVIE", "REVIEW"}
	actions   = []string{"_CREATE", "_DELETE", "_UPDATE", "_VIEW"}
)

// Seeder wires the repositories the convergence steps write through.
type Seeder struct {
	Users       *repository.UserRepo
	Roles       *repository.RoleRepo
	Permissions *repository.PermissionRepo
	Movies      *repository.MovieRepo

	BcryptCost int
	// MoviePath points at the JSON dataset loaded when the movies table
	// is empty. An empty or missing file skips the movie step.
	MoviePath string
}

// Run performs all convergence steps in dependency order. A failure in
// any step aborts the remainder; the caller decides whether that is fatal.
func (s *Seeder) Run(ctx context.Context) error {
	perms, err := s.ensurePermissions(ctx)
	if err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}
	if err := s.ensureRole(ctx, roleAdmin, "Full administrative access", allIDs(perms)); err != nil {
		return fmt.Errorf("seed %s: %w", roleAdmin, err)
	}
	if err := s.ensureRole(ctx, roleUser, "Read-only catalog access", viewIDs(perms)); err != nil {
		return fmt.Errorf("seed %s: %w", roleUser, err)
	}
	if err := s.ensureAdmin(ctx); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	if err := s.seedMovies(ctx); err != nil {
		return fmt.Errorf("seed movies: %w", err)
	}
	return nil
}

// ensurePermissions creates any missing catalog permission and returns the
// full catalog keyed by name.
func (s *Seeder) ensurePermissions(ctx context.Context) (map[string]model.Permission, error) {
	out := make(map[string]model.Permission, len(resources)*len(actions))
	for _, res := range resources {
		for _, act := range actions {
			name := res + act
			p, err := s.Permissions.GetByName(ctx, name)
			if err == repository.ErrPermissionNotFound {
				p = model.Permission{Name: name}
				if err := s.Permissions.Create(ctx, &p); err != nil {
					return nil, err
				}
				log.Printf("seed: created permission %s", name)
			} else if err != nil {
				return nil, err
			}
			out[name] = p
		}
	}
	return out, nil
}

// ensureRole creates the role when absent and otherwise repairs its
// permission set when it has drifted from the expected one.
func (s *Seeder) ensureRole(ctx context.Context, name, description string, permissionIDs []string) error {
	role, err := s.Roles.GetByName(ctx, name)
	if err == repository.ErrRoleNotFound {
		role = model.Role{Name: name, Description: description}
		if err := s.Roles.Create(ctx, &role, permissionIDs); err != nil {
			return err
		}
		log.Printf("seed: created role %s with %d permissions", name, len(permissionIDs))
		return nil
	}
	if err != nil {
		return err
	}

	current := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		current = append(current, p.ID)
	}
	if sameSet(current, permissionIDs) {
		return nil
	}
	if err := s.Roles.ReplacePermissions(ctx, role.ID, permissionIDs); err != nil {
		return err
	}
	log.Printf("seed: repaired permission set of role %s (%d -> %d permissions)", name, len(current), len(permissionIDs))
	return nil
}

// ensureAdmin creates the bootstrap admin account when no user with the
// admin email exists. An existing account is left untouched, including
// its password.
func (s *Seeder) ensureAdmin(ctx context.Context) error {
	_, err := s.Users.GetByEmail(ctx, adminEmail)
	if err == nil {
		return nil
	}
	if err != repository.ErrUserNotFound {
		return err
	}

	admin, err := s.Roles.GetByName(ctx, roleAdmin)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(adminPassword, s.BcryptCost)
	if err != nil {
		return err
	}
	u := model.User{
		Email:        adminEmail,
		PasswordHash: hash,
		FullName:     adminFullName,
		Enabled:      true,
	}
	if err := s.Users.Create(ctx, &u, []string{admin.ID}); err != nil {
		return err
	}
	log.Printf("seed: created bootstrap admin %s", adminEmail)
	return nil
}

// seedMovie mirrors one entry of the JSON dataset file.
type seedMovie struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Director    string `json:"director"`
	Genre       string `json:"genre"`
	Year        int    `json:"year"`
	Images      []struct {
		Name     string `json:"name"`
		ImageURL string `json:"imageUrl"`
	} `json:"images"`
}

// seedMovies bulk-loads the movie dataset, but only into an empty table.
// Once any movie exists the dataset is never consulted again, so operator
// edits and deletions stick.
func (s *Seeder) seedMovies(ctx context.Context) error {
	n, err := s.Movies.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if s.MoviePath == "" {
		return nil
	}

	raw, err := os.ReadFile(s.MoviePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("seed: movie dataset %s not found, skipping", s.MoviePath)
			return nil
		}
		return err
	}
	var entries []seedMovie
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parse %s: %w", s.MoviePath, err)
	}

	for _, e := range entries {
		m := model.Movie{
			Title:       e.Title,
			Description: e.Description,
			Director:    e.Director,
			Genre:       e.Genre,
			Year:        e.Year,
		}
		for _, img := range e.Images {
			m.Images = append(m.Images, model.MovieImage{Name: img.Name, ImageURL: img.ImageURL})
		}
		if err := s.Movies.CreateWithImages(ctx, &m); err != nil {
			return fmt.Errorf("insert %q: %w", e.Title, err)
		}
	}
	log.Printf("seed: loaded %d movies from %s", len(entries), s.MoviePath)
	return nil
}

func allIDs(perms map[string]model.Permission) []string {
	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return ids
}

func viewIDs(perms map[string]model.Permission) []string {
	ids := make([]string, 0, len(resources))
	for _, res := range resources {
		if p, ok := perms[res+"_VIEW"]; ok {
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			return false
		}
	}
	return true
}
