package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
// Roles are loaded from the `user_roles` join table and may be
// empty when a repository method does not hydrate them.
//
// Fields:
//  ID           – UUID primary key of the user.
//  Email        – unique email address (login identifier).
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name shown in views.
//  Enabled      – whether the account may authenticate.
//  CreatedAt    – timestamp of creation.
//  Roles        – roles attached via user_roles (hydrated on demand).
type User struct {
    ID           string    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    FullName     string    // users.full_name
    Enabled      bool      // users.enabled
    CreatedAt    time.Time // users.created_at
    Roles        []Role    // user_roles join (may be nil)
}
