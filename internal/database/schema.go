package database

import (
	"context"
	"database/sql"
)

// schema lists every table the application owns. CHAR(36) primary keys
// hold UUIDs assigned at creation; join tables carry composite keys.
// Reviews restrict user deletion (an author with reviews cannot be
// removed) while movie cascades are handled transactionally by the
// movie repository.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id CHAR(36) NOT NULL,
  email VARCHAR(255) NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  full_name VARCHAR(100) NOT NULL DEFAULT '',
  enabled TINYINT(1) NOT NULL DEFAULT 1,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS roles (
  id CHAR(36) NOT NULL,
  name VARCHAR(50) NOT NULL,
  description VARCHAR(200) NULL,
  PRIMARY KEY (id),
  UNIQUE KEY uq_roles_name (name)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS permissions (
  id CHAR(36) NOT NULL,
  name VARCHAR(100) NOT NULL,
  PRIMARY KEY (id),
  UNIQUE KEY uq_permissions_name (name)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS user_roles (
  user_id CHAR(36) NOT NULL,
  role_id CHAR(36) NOT NULL,
  PRIMARY KEY (user_id, role_id),
  CONSTRAINT fk_user_roles_user FOREIGN KEY (user_id) REFERENCES users (id),
  CONSTRAINT fk_user_roles_role FOREIGN KEY (role_id) REFERENCES roles (id)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS role_permissions (
  role_id CHAR(36) NOT NULL,
  permission_id CHAR(36) NOT NULL,
  PRIMARY KEY (role_id, permission_id),
  CONSTRAINT fk_role_permissions_role FOREIGN KEY (role_id) REFERENCES roles (id),
  CONSTRAINT fk_role_permissions_permission FOREIGN KEY (permission_id) REFERENCES permissions (id)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS movies (
  id CHAR(36) NOT NULL,
  title VARCHAR(255) NOT NULL,
  description VARCHAR(1024) NULL,
  director VARCHAR(255) NULL,
  genre VARCHAR(100) NOT NULL DEFAULT '',
  year INT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS movie_images (
  id CHAR(36) NOT NULL,
  movie_id CHAR(36) NOT NULL,
  name VARCHAR(128) NOT NULL DEFAULT '',
  image_url VARCHAR(512) NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY idx_movie_images_movie (movie_id),
  CONSTRAINT fk_movie_images_movie FOREIGN KEY (movie_id) REFERENCES movies (id)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS reviews (
  id CHAR(36) NOT NULL,
  user_id CHAR(36) NOT NULL,
  movie_id CHAR(36) NOT NULL,
  rating INT NOT NULL,
  comment VARCHAR(1000) NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY idx_reviews_movie (movie_id),
  KEY idx_reviews_user (user_id),
  CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users (id),
  CONSTRAINT fk_reviews_movie FOREIGN KEY (movie_id) REFERENCES movies (id)
) ENGINE=InnoDB`,
}

// EnsureSchema creates any missing tables. Statements are idempotent so
// running this on every process start is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
