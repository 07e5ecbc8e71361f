package model

// Role represents a row in the `roles` table.  A role is a named
// bundle of permissions assignable to users through the user_roles
// join table.  When the normalized permission set is needed, the
// repository hydrates Permissions from role_permissions.
//
// Fields:
//  ID          – UUID primary key of the role.
//  Name        – unique role name (e.g. ROLE_ADMIN, ROLE_USER).
//  Description – optional human readable description.
//  Permissions – permissions attached via role_permissions (may be nil).
type Role struct {
    ID          string       // roles.id
    Name        string       // roles.name
    Description string       // roles.description (empty when NULL)
    Permissions []Permission // role_permissions join (may be nil)
}
