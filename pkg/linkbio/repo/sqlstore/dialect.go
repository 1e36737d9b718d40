package sqlstore

import (
	"fmt"
	"strings"
)

// Dialect selects the driver and DDL used by the repository.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectLibSQL Dialect = "libsql"
	DialectMySQL  Dialect = "mysql"
)

// ParseDialect maps a name to a Dialect
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(name)); d {
	case DialectSQLite, DialectLibSQL, DialectMySQL:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported sql dialect: %s", name)
	}
}

func (d Dialect) driverName() string {
	return string(d)
}

func (d Dialect) schema() []string {
	if d == DialectMySQL {
		return mysqlSchema
	}
	return sqliteSchema
}

func (d Dialect) upsertOwnerQuery() string {
	insert := `INSERT INTO owners (id, subject, name, email, login_method, role, created_at, updated_at, last_signed_in)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if d == DialectMySQL {
		return insert + ` ON DUPLICATE KEY UPDATE
			name = VALUES(name), email = VALUES(email), login_method = VALUES(login_method),
			role = VALUES(role), updated_at = VALUES(updated_at), last_signed_in = VALUES(last_signed_in)`
	}
	return insert + ` ON CONFLICT (subject) DO UPDATE SET
		name = excluded.name, email = excluded.email, login_method = excluded.login_method,
		role = excluded.role, updated_at = excluded.updated_at, last_signed_in = excluded.last_signed_in`
}

func (d Dialect) upsertProfileQuery() string {
	insert := `INSERT INTO profiles (id, owner_id, display_name, bio, instagram_handle, profile_image_url,
		background_image_url, background_color, social_links, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if d == DialectMySQL {
		return insert + ` ON DUPLICATE KEY UPDATE
			display_name = VALUES(display_name), bio = VALUES(bio), instagram_handle = VALUES(instagram_handle),
			profile_image_url = VALUES(profile_image_url), background_image_url = VALUES(background_image_url),
			background_color = VALUES(background_color), social_links = VALUES(social_links),
			updated_at = VALUES(updated_at)`
	}
	return insert + ` ON CONFLICT (owner_id) DO UPDATE SET
		display_name = excluded.display_name, bio = excluded.bio, instagram_handle = excluded.instagram_handle,
		profile_image_url = excluded.profile_image_url, background_image_url = excluded.background_image_url,
		background_color = excluded.background_color, social_links = excluded.social_links,
		updated_at = excluded.updated_at`
}

// Timestamps are stored as unix microseconds in every dialect.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL UNIQUE,
		name TEXT,
		email TEXT,
		login_method TEXT,
		role TEXT NOT NULL DEFAULT 'other',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		last_signed_in INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL UNIQUE REFERENCES owners(id) ON DELETE CASCADE,
		display_name TEXT NOT NULL,
		bio TEXT,
		instagram_handle TEXT,
		profile_image_url TEXT,
		background_image_url TEXT,
		background_color TEXT,
		social_links TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		description TEXT,
		is_priority INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS links_owner_id_idx ON links (owner_id)`,
	`CREATE TABLE IF NOT EXISTS carousel_images (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
		image_url TEXT NOT NULL,
		title TEXT,
		link_url TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS carousel_images_owner_id_idx ON carousel_images (owner_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT,
		image_url TEXT NOT NULL,
		affiliate_url TEXT NOT NULL,
		price TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS products_owner_id_idx ON products (owner_id)`,
	`CREATE TABLE IF NOT EXISTS subscribers (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		subscribed_at INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT subscribers_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS link_clicks (
		id TEXT PRIMARY KEY,
		link_id TEXT NOT NULL,
		clicked_at INTEGER NOT NULL,
		ip_address TEXT,
		user_agent TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS link_clicks_link_id_idx ON link_clicks (link_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		id CHAR(36) PRIMARY KEY,
		subject VARCHAR(255) NOT NULL,
		name TEXT,
		email VARCHAR(320),
		login_method VARCHAR(64),
		role VARCHAR(16) NOT NULL DEFAULT 'other',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		last_signed_in BIGINT NOT NULL,
		UNIQUE KEY owners_subject_key (subject)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id CHAR(36) PRIMARY KEY,
		owner_id CHAR(36) NOT NULL,
		display_name VARCHAR(100) NOT NULL,
		bio TEXT,
		instagram_handle VARCHAR(100),
		profile_image_url TEXT,
		background_image_url TEXT,
		background_color VARCHAR(32),
		social_links TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		UNIQUE KEY profiles_owner_id_key (owner_id),
		FOREIGN KEY (owner_id) REFERENCES owners(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS links (
		id CHAR(36) PRIMARY KEY,
		owner_id CHAR(36) NOT NULL,
		title VARCHAR(200) NOT NULL,
		url TEXT NOT NULL,
		description TEXT,
		is_priority BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order INT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		INDEX links_owner_id_idx (owner_id),
		FOREIGN KEY (owner_id) REFERENCES owners(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS carousel_images (
		id CHAR(36) PRIMARY KEY,
		owner_id CHAR(36) NOT NULL,
		image_url TEXT NOT NULL,
		title VARCHAR(200),
		link_url TEXT,
		sort_order INT NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		INDEX carousel_images_owner_id_idx (owner_id),
		FOREIGN KEY (owner_id) REFERENCES owners(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
		id CHAR(36) PRIMARY KEY,
		owner_id CHAR(36) NOT NULL,
		name VARCHAR(200) NOT NULL,
		description TEXT,
		image_url TEXT NOT NULL,
		affiliate_url TEXT NOT NULL,
		price VARCHAR(50),
		sort_order INT NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		INDEX products_owner_id_idx (owner_id),
		FOREIGN KEY (owner_id) REFERENCES owners(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS subscribers (
		id CHAR(36) PRIMARY KEY,
		email VARCHAR(320) NOT NULL,
		subscribed_at BIGINT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE KEY subscribers_email_key (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS link_clicks (
		id CHAR(36) PRIMARY KEY,
		link_id CHAR(36) NOT NULL,
		clicked_at BIGINT NOT NULL,
		ip_address VARCHAR(45),
		user_agent TEXT,
		INDEX link_clicks_link_id_idx (link_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
