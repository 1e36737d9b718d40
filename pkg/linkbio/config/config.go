package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"github.com/tendant/simple-linkbio/pkg/linkbio/auth"
	s3media "github.com/tendant/simple-linkbio/pkg/linkbio/media/s3"
)

// Database types
const (
	DatabaseMemory   = "memory"
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
	DatabaseLibSQL   = "libsql"
	DatabaseMySQL    = "mysql"
)

// Media store types
const (
	MediaMemory     = "memory"
	MediaFS         = "fs"
	MediaS3         = "s3"
	MediaCloudinary = "cloudinary"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		LogLevel:     "info",
		DatabaseType: DatabaseMemory,
		AutoMigrate:  true,
		Media: MediaConfig{
			Type:      MediaMemory,
			URLPrefix: "/media",
		},
		MaxUploadSize:         linkbio.DefaultMaxUploadSize,
		PublicWritesPerMinute: 30,
		Auth: AuthConfig{
			SessionTTL:    auth.DefaultSessionTTL,
			AfterLoginURL: "/",
		},
	}
}

// ServerConfig represents server configuration for the link-in-bio service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	LogLevel    string // debug, info, warn, error

	// Database configuration
	DatabaseType string // memory, postgres, sqlite, libsql, mysql
	DatabaseURL  string // connection string or driver DSN
	DBSchema     string // Postgres search_path (optional)
	AutoMigrate  bool   // create tables on startup

	Media MediaConfig

	// Events are published to Redis when RedisURL is set
	RedisURL     string
	RedisChannel string

	// PublishedOwnerID is the owner whose page the public surface serves
	PublishedOwnerID uuid.UUID
	// AdminSubject is the login subject that claims PublishedOwnerID
	AdminSubject string

	MaxUploadSize         int64
	AllowedOrigins        []string
	TrustProxy            bool
	PublicWritesPerMinute int

	Auth AuthConfig
}

// MediaConfig selects and configures the upload store
type MediaConfig struct {
	Type      string // memory, fs, s3, cloudinary
	BaseDir   string // fs
	URLPrefix string // memory and fs: path the API serves uploads under
	S3        s3media.Config

	CloudinaryURL    string
	CloudinaryFolder string
}

// AuthConfig configures owner sessions and login methods
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	AfterLoginURL string

	// OAuth login is enabled when ClientID is set
	OAuth auth.OAuthConfig

	// Password login is enabled when PasswordHash is set; it signs in AdminSubject
	PasswordHash string
	PasswordName string
}

// IsProduction reports whether the server runs in production
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case DatabaseMemory:
	case DatabasePostgres, DatabaseSQLite, DatabaseLibSQL, DatabaseMySQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	switch c.Media.Type {
	case MediaMemory:
	case MediaFS:
		if c.Media.BaseDir == "" {
			return errors.New("media base directory is required for fs storage")
		}
	case MediaS3:
		if c.Media.S3.Bucket == "" {
			return errors.New("media bucket is required for s3 storage")
		}
	case MediaCloudinary:
		if c.Media.CloudinaryURL == "" {
			return errors.New("cloudinary URL is required for cloudinary storage")
		}
	default:
		return fmt.Errorf("unsupported media type: %s", c.Media.Type)
	}

	if c.MaxUploadSize <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.IsProduction() && c.Auth.SessionSecret == "" {
		return errors.New("session secret is required in production")
	}
	if c.Auth.SessionSecret != "" && len(c.Auth.SessionSecret) < 16 {
		return errors.New("session secret must be at least 16 bytes")
	}
	if c.Auth.OAuth.ClientID != "" && (c.Auth.OAuth.ClientSecret == "" || c.Auth.OAuth.RedirectURL == "") {
		return errors.New("oauth client secret and redirect url are required when oauth is enabled")
	}
	// Without either, any account at the provider could sign in and read subscribers.
	if c.Auth.OAuth.ClientID != "" && c.PublishedOwnerID == uuid.Nil && len(c.Auth.OAuth.AllowedEmails) == 0 {
		return errors.New("oauth requires a published owner id or an allowed email list")
	}
	if c.Auth.PasswordHash != "" && c.AdminSubject == "" {
		return errors.New("admin subject is required for password login")
	}

	return nil
}
