package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/filmstack/movie-review-api/internal/model"
)

type PermissionRepo struct{ DB *sql.DB }

func NewPermissionRepo(db *sql.DB) *PermissionRepo { return &PermissionRepo{DB: db} }

var ErrPermissionNameExists = errors.New("permission name already exists")

// Create inserts a permission with a fresh UUID.
func (r *PermissionRepo) Create(ctx context.Context, p *model.Permission) error {
	p.ID = uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO permissions (id, name) VALUES (?,?)", p.ID, p.Name)
	if isDuplicate(err) {
		return ErrPermissionNameExists
	}
	return err
}

// GetByID fetches a permission by id.
func (r *PermissionRepo) GetByID(ctx context.Context, id string) (model.Permission, error) {
	return r.getBy(ctx, "id", id)
}

// GetByName fetches a permission by its unique name.
func (r *PermissionRepo) GetByName(ctx context.Context, name string) (model.Permission, error) {
	return r.getBy(ctx, "name", name)
}

// GetByIDs fetches all permissions matching the given ids. When any id
// does not resolve, ErrPermissionNotFound is returned and nothing else;
// callers use this to fail batch attach as a whole.
func (r *PermissionRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Permission, error) {
	// Duplicates in the request collapse to one lookup each; only truly
	// unresolvable ids fail the call.
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return []model.Permission{}, nil
	}
	query := "SELECT id, name FROM permissions WHERE id IN ("
	args := make([]interface{}, 0, len(unique))
	for i, id := range unique {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"

	rows, err := r.DB.QueryContext(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(perms) != len(unique) {
		return nil, ErrPermissionNotFound
	}
	return perms, nil
}

// List returns all permissions ordered by name.
func (r *PermissionRepo) List(ctx context.Context) ([]model.Permission, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name FROM permissions ORDER BY name")
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

// Update overwrites the permission name.
func (r *PermissionRepo) Update(ctx context.Context, id, name string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE permissions SET name=? WHERE id=?", name, id)
	if err != nil {
		if isDuplicate(err) {
			return ErrPermissionNameExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM permissions WHERE id=?", id).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrPermissionNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes the permission and any role links pointing at it.
func (r *PermissionRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions WHERE permission_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM permissions WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPermissionNotFound
	}
	return tx.Commit()
}

func (r *PermissionRepo) getBy(ctx context.Context, col, val string) (model.Permission, error) {
	var p model.Permission
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name FROM permissions WHERE "+col+"=? LIMIT 1", val).Scan(&p.ID, &p.Name)
	if err == sql.ErrNoRows {
		return model.Permission{}, ErrPermissionNotFound
	}
	return p, err
}
