package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/filmstack/movie-review-api/internal/model"
)

// RoleRepo provides CRUD operations for roles and manages the
// role_permissions join set. Attaching permissions is incremental,
// detaching removes a single link and tolerates a missing one.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

var ErrRoleNameExists = errors.New("role name already exists")

// Create inserts the role and links the given permission ids in one
// transaction. A fresh UUID is assigned to the role.
func (r *RoleRepo) Create(ctx context.Context, role *model.Role, permissionIDs []string) error {
	role.ID = uuid.NewString()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO roles (id, name, description) VALUES (?,?,?)",
		role.ID, role.Name, nullable(role.Description)); err != nil {
		if isDuplicate(err) {
			return ErrRoleNameExists
		}
		return err
	}
	if err := insertRolePermissions(ctx, tx, role.ID, permissionIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID fetches a role by id with its permissions hydrated.
func (r *RoleRepo) GetByID(ctx context.Context, id string) (model.Role, error) {
	return r.getBy(ctx, "id", id)
}

// GetByName fetches a role by its unique name with permissions hydrated.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	return r.getBy(ctx, "name", name)
}

// List returns all roles with their permissions hydrated.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, COALESCE(description,'') FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range roles {
		perms, err := rolePermissions(ctx, r.DB, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

// Update overwrites the role's name and description. The permission
// set is only changed through Attach/Detach/Replace.
func (r *RoleRepo) Update(ctx context.Context, id, name, description string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE roles SET name=?, description=? WHERE id=?",
		name, nullable(description), id)
	if err != nil {
		if isDuplicate(err) {
			return ErrRoleNameExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM roles WHERE id=?", id).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrRoleNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes the role together with its join rows in both
// role_permissions and user_roles.
func (r *RoleRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions WHERE role_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE role_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM roles WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoleNotFound
	}
	return tx.Commit()
}

// AttachPermissions adds the given permission ids to the role's set.
// Already-linked ids are skipped (INSERT IGNORE), so the call is a
// set union. The caller must have validated that every id resolves.
func (r *RoleRepo) AttachPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	query := "INSERT IGNORE INTO role_permissions (role_id, permission_id) VALUES "
	args := make([]interface{}, 0, len(permissionIDs)*2)
	for i, pid := range permissionIDs {
		if i > 0 {
			query += ","
		}
		query += "(?,?)"
		args = append(args, roleID, pid)
	}
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

// DetachPermission removes a single permission link. Removing an
// unlinked permission is not an error; zero affected rows is fine.
func (r *RoleRepo) DetachPermission(ctx context.Context, roleID, permissionID string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM role_permissions WHERE role_id=? AND permission_id=?",
		roleID, permissionID)
	return err
}

// ReplacePermissions overwrites the role's permission set with exactly
// the given ids in one transaction. Used by the startup seeder to
// converge drifted sets.
func (r *RoleRepo) ReplacePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions WHERE role_id=?", roleID); err != nil {
		return err
	}
	if err := insertRolePermissions(ctx, tx, roleID, permissionIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *RoleRepo) getBy(ctx context.Context, col, val string) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, COALESCE(description,'') FROM roles WHERE "+col+"=? LIMIT 1",
		val).Scan(&role.ID, &role.Name, &role.Description)
	if err == sql.ErrNoRows {
		return model.Role{}, ErrRoleNotFound
	}
	if err != nil {
		return model.Role{}, err
	}
	perms, err := rolePermissions(ctx, r.DB, role.ID)
	if err != nil {
		return model.Role{}, err
	}
	role.Permissions = perms
	return role, nil
}

// rolePermissions loads the permissions linked to a role, ordered by name.
func rolePermissions(ctx context.Context, db *sql.DB, roleID string) ([]model.Permission, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT p.id, p.name
FROM permissions p JOIN role_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id = ? ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []model.Permission{}
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// insertRolePermissions bulk-inserts role_permissions rows inside tx.
func insertRolePermissions(ctx context.Context, tx *sql.Tx, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	query := "INSERT INTO role_permissions (role_id, permission_id) VALUES "
	args := make([]interface{}, 0, len(permissionIDs)*2)
	for i, pid := range permissionIDs {
		if i > 0 {
			query += ","
		}
		query += "(?,?)"
		args = append(args, roleID, pid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// nullable converts an empty string to NULL for optional text columns.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
