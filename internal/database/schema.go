package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables owned by the access core.  Assignments and
// refresh tokens reference exactly one of users/coaches (CHECK constraint)
// and are removed together with their principal (ON DELETE CASCADE).  The
// unique keys on (user_id, permission_id) and (coach_id, permission_id) are
// what make concurrent duplicate assigns fail; MySQL treats NULLs as
// distinct, so the user and coach halves do not collide.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		username      VARCHAR(50)  COLLATE utf8mb4_bin NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('admin','user','coach') NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username),
		KEY ix_users_role (role)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS coaches (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		username      VARCHAR(50)  COLLATE utf8mb4_bin NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_coaches_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS permissions (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		permission_name VARCHAR(100) NOT NULL,
		description     VARCHAR(255) NULL,
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_permissions_name (permission_name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,

	`CREATE TABLE IF NOT EXISTS permission_assignments (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id       BIGINT UNSIGNED NULL,
		coach_id      BIGINT UNSIGNED NULL,
		permission_id BIGINT UNSIGNED NOT NULL,
		assigned_by   BIGINT UNSIGNED NULL,
		assigned_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_assign_user (user_id, permission_id),
		UNIQUE KEY uq_assign_coach (coach_id, permission_id),
		CONSTRAINT chk_assign_target CHECK ((user_id IS NULL) <> (coach_id IS NULL)),
		CONSTRAINT fk_assign_user  FOREIGN KEY (user_id)  REFERENCES users(id)   ON DELETE CASCADE,
		CONSTRAINT fk_assign_coach FOREIGN KEY (coach_id) REFERENCES coaches(id) ON DELETE CASCADE,
		CONSTRAINT fk_assign_perm  FOREIGN KEY (permission_id) REFERENCES permissions(id) ON DELETE CASCADE,
		CONSTRAINT fk_assign_by    FOREIGN KEY (assigned_by) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		token_hash CHAR(64) NOT NULL,
		user_id    BIGINT UNSIGNED NULL,
		coach_id   BIGINT UNSIGNED NULL,
		expires_at DATETIME NOT NULL,
		is_revoked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY ix_refresh_user (user_id),
		KEY ix_refresh_coach (coach_id),
		CONSTRAINT chk_refresh_owner CHECK ((user_id IS NULL) <> (coach_id IS NULL)),
		CONSTRAINT fk_refresh_user  FOREIGN KEY (user_id)  REFERENCES users(id)   ON DELETE CASCADE,
		CONSTRAINT fk_refresh_coach FOREIGN KEY (coach_id) REFERENCES coaches(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.  Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
