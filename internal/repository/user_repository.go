package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/filmstack/movie-review-api/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts the user together with its role links in one
// transaction and assigns a fresh UUID. PasswordHash must already be
// hashed by the caller.
func (r *UserRepo) Create(ctx context.Context, u *model.User, roleIDs []string) error {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, full_name, enabled) VALUES (?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Enabled); err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	if err := insertUserRoles(ctx, tx, u.ID, roleIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return r.scanOne(ctx, u, "id", u.ID)
}

// GetByID fetches a user by id with its roles and role permissions hydrated.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	if err := r.scanOne(ctx, &u, "id", id); err != nil {
		return model.User{}, err
	}
	if err := r.hydrateRoles(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email with roles hydrated.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	if err := r.scanOne(ctx, &u, "email", strings.ToLower(strings.TrimSpace(email))); err != nil {
		return model.User{}, err
	}
	if err := r.hydrateRoles(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// List returns all users with their roles and role permissions hydrated.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, email, password_hash, full_name, enabled, created_at FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Enabled, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range users {
		if err := r.hydrateRoles(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Update overwrites the user's mutable fields (full name, password
// hash) and replaces the role set in one transaction. Email stays as
// stored.
func (r *UserRepo) Update(ctx context.Context, u *model.User, roleIDs []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET full_name=?, password_hash=? WHERE id=?",
		u.FullName, u.PasswordHash, u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op
		// update, so confirm existence explicitly.
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", u.ID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrUserNotFound
			}
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", u.ID); err != nil {
		return err
	}
	if err := insertUserRoles(ctx, tx, u.ID, roleIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the user and its role links. Reviews keep a
// restricting foreign key, so deleting an author with reviews fails
// with ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		if isRestricted(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return tx.Commit()
}

// EffectivePermissions returns the deduplicated permission names the
// user holds through all attached roles. Used by the authorization
// middleware.
func (r *UserRepo) EffectivePermissions(ctx context.Context, email string) ([]string, error) {
	const q = `SELECT DISTINCT p.name
FROM users u
JOIN user_roles ur ON ur.user_id = u.id
JOIN role_permissions rp ON rp.role_id = ur.role_id
JOIN permissions p ON p.id = rp.permission_id
WHERE u.email = ? AND u.enabled = 1`
	rows, err := r.DB.QueryContext(ctx, q, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// scanOne selects a single user row by the given column.
func (r *UserRepo) scanOne(ctx context.Context, u *model.User, col, val string) error {
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, password_hash, full_name, enabled, created_at FROM users WHERE "+col+"=? LIMIT 1",
		val).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Enabled, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	return err
}

// hydrateRoles loads the user's roles and each role's permissions.
func (r *UserRepo) hydrateRoles(ctx context.Context, u *model.User) error {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.name, COALESCE(r.description,'')
FROM roles r JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = ? ORDER BY r.name`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	u.Roles = []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return err
		}
		u.Roles = append(u.Roles, role)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range u.Roles {
		perms, err := rolePermissions(ctx, r.DB, u.Roles[i].ID)
		if err != nil {
			return err
		}
		u.Roles[i].Permissions = perms
	}
	return nil
}

// insertUserRoles bulk-inserts user_roles rows inside tx. An empty
// slice is a no-op.
func insertUserRoles(ctx context.Context, tx *sql.Tx, userID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}
	query := "INSERT INTO user_roles (user_id, role_id) VALUES "
	args := make([]interface{}, 0, len(roleIDs)*2)
	for i, rid := range roleIDs {
		if i > 0 {
			query += ","
		}
		query += "(?,?)"
		args = append(args, userID, rid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
