package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-linkbio/pkg/linkbio/auth"
	s3media "github.com/tendant/simple-linkbio/pkg/linkbio/media/s3"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		c.Environment = env
		return nil
	}
}

// WithDatabase sets the database type and connection string
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseURL detects the database type from a URL such as
// postgres://..., sqlite://path or libsql://...
func WithDatabaseURL(url string) Option {
	return func(c *ServerConfig) error {
		dbType, dsn, err := parseDatabaseURL(url)
		if err != nil {
			return err
		}
		c.DatabaseType = dbType
		c.DatabaseURL = dsn
		return nil
	}
}

// WithDatabaseSchema sets the Postgres search_path
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate toggles schema creation on startup
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithPublishedOwner sets the owner whose page is served publicly
func WithPublishedOwner(id uuid.UUID) Option {
	return func(c *ServerConfig) error {
		c.PublishedOwnerID = id
		return nil
	}
}

// WithAdminSubject sets the login subject that claims the published owner
func WithAdminSubject(subject string) Option {
	return func(c *ServerConfig) error {
		c.AdminSubject = subject
		return nil
	}
}

// WithMemoryMedia keeps uploads in process memory
func WithMemoryMedia() Option {
	return func(c *ServerConfig) error {
		c.Media = MediaConfig{Type: MediaMemory, URLPrefix: mediaPrefix(c)}
		return nil
	}
}

// WithFilesystemMedia stores uploads under baseDir
func WithFilesystemMedia(baseDir string) Option {
	return func(c *ServerConfig) error {
		c.Media = MediaConfig{Type: MediaFS, BaseDir: baseDir, URLPrefix: mediaPrefix(c)}
		return nil
	}
}

// WithS3Media stores uploads in an S3-compatible bucket
func WithS3Media(cfg s3media.Config) Option {
	return func(c *ServerConfig) error {
		c.Media = MediaConfig{Type: MediaS3, S3: cfg, URLPrefix: mediaPrefix(c)}
		return nil
	}
}

// WithCloudinaryMedia stores uploads in Cloudinary
func WithCloudinaryMedia(cloudinaryURL, folder string) Option {
	return func(c *ServerConfig) error {
		c.Media = MediaConfig{
			Type:             MediaCloudinary,
			CloudinaryURL:    cloudinaryURL,
			CloudinaryFolder: folder,
			URLPrefix:        mediaPrefix(c),
		}
		return nil
	}
}

// WithMediaURLPrefix sets the path memory and fs uploads are served under
func WithMediaURLPrefix(prefix string) Option {
	return func(c *ServerConfig) error {
		c.Media.URLPrefix = prefix
		return nil
	}
}

func mediaPrefix(c *ServerConfig) string {
	if c.Media.URLPrefix == "" {
		return "/media"
	}
	return c.Media.URLPrefix
}

// WithRedisEvents publishes content events to a Redis channel
func WithRedisEvents(url, channel string) Option {
	return func(c *ServerConfig) error {
		c.RedisURL = url
		c.RedisChannel = channel
		return nil
	}
}

// WithSessionSecret sets the HMAC secret and lifetime of owner sessions
func WithSessionSecret(secret string, ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		c.Auth.SessionSecret = secret
		if ttl > 0 {
			c.Auth.SessionTTL = ttl
		}
		return nil
	}
}

// WithOAuth enables OAuth login
func WithOAuth(cfg auth.OAuthConfig) Option {
	return func(c *ServerConfig) error {
		c.Auth.OAuth = cfg
		return nil
	}
}

// WithPasswordLogin enables password login for the admin subject using a bcrypt hash
func WithPasswordLogin(hash, name string) Option {
	return func(c *ServerConfig) error {
		if hash == "" {
			return fmt.Errorf("password hash is required")
		}
		c.Auth.PasswordHash = hash
		c.Auth.PasswordName = name
		return nil
	}
}

// WithAllowedOrigins enables CORS for the given browser origins
func WithAllowedOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.AllowedOrigins = origins
		return nil
	}
}

// WithTrustProxy takes client addresses from forwarding headers
func WithTrustProxy(trust bool) Option {
	return func(c *ServerConfig) error {
		c.TrustProxy = trust
		return nil
	}
}

// WithPublicWriteLimit sets the per-client limit on clicks and sign-ups; 0 disables it
func WithPublicWriteLimit(perMinute int) Option {
	return func(c *ServerConfig) error {
		c.PublicWritesPerMinute = perMinute
		return nil
	}
}

// WithMaxUploadSize sets the upload limit in bytes
func WithMaxUploadSize(size int64) Option {
	return func(c *ServerConfig) error {
		c.MaxUploadSize = size
		return nil
	}
}
