package model

// Permission is a named atomic capability (e.g. MOVIE_CREATE) checked
// for membership when authorizing requests.  Rows live in the
// `permissions` table; the name is unique.
type Permission struct {
    ID   string // permissions.id
    Name string // permissions.name
}
