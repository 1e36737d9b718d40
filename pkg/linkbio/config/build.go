package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"github.com/tendant/simple-linkbio/pkg/linkbio/api"
	"github.com/tendant/simple-linkbio/pkg/linkbio/auth"
	redisevents "github.com/tendant/simple-linkbio/pkg/linkbio/events/redis"
	cloudinarymedia "github.com/tendant/simple-linkbio/pkg/linkbio/media/cloudinary"
	fsmedia "github.com/tendant/simple-linkbio/pkg/linkbio/media/fs"
	memorymedia "github.com/tendant/simple-linkbio/pkg/linkbio/media/memory"
	s3media "github.com/tendant/simple-linkbio/pkg/linkbio/media/s3"
	memoryrepo "github.com/tendant/simple-linkbio/pkg/linkbio/repo/memory"
	"github.com/tendant/simple-linkbio/pkg/linkbio/repo/postgres"
	"github.com/tendant/simple-linkbio/pkg/linkbio/repo/sqlstore"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

// Runtime holds the components built from a ServerConfig
type Runtime struct {
	Service    linkbio.Service
	Repository linkbio.Repository
	Media      linkbio.MediaStore
	Sessions   *auth.Sessions
	OAuth      *auth.OAuthLogin
	Password   *auth.PasswordLogin

	config  *ServerConfig
	logger  *slog.Logger
	ping    func(ctx context.Context) error
	closers []func()
}

// Build creates the repository, media store, event sink, service and
// login methods described by the configuration.
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{config: c, logger: logger}

	if err := rt.buildRepository(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	media, err := c.buildMediaStore()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create media store: %w", err)
	}
	rt.Media = media

	events := linkbio.NewNoopEventSink()
	if c.RedisURL != "" {
		sink, client, err := redisevents.NewFromURL(c.RedisURL, c.RedisChannel)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { client.Close() })
		events = sink
	}

	svc, err := linkbio.New(
		linkbio.WithRepository(rt.Repository),
		linkbio.WithMediaStore(media),
		linkbio.WithEventSink(events),
		linkbio.WithLogger(logger),
		linkbio.WithPublishedOwner(c.PublishedOwnerID),
		linkbio.WithAdminSubject(c.AdminSubject),
		linkbio.WithMaxUploadSize(c.MaxUploadSize),
	)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	rt.Service = svc

	if err := rt.buildAuth(); err != nil {
		rt.Close()
		return nil, err
	}

	return rt, nil
}

func (rt *Runtime) buildRepository(ctx context.Context) error {
	c := rt.config
	switch c.DatabaseType {
	case DatabaseMemory:
		rt.Repository = memoryrepo.New()
		rt.ping = func(context.Context) error { return nil }
		return nil

	case DatabasePostgres:
		poolConfig, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to parse database URL: %w", err)
		}
		if c.DBSchema != "" {
			schema := c.DBSchema
			poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
				_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
				return err
			}
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("failed to create database pool: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.ping = pool.Ping
		rt.Repository = postgres.NewWithPool(pool)

	case DatabaseSQLite, DatabaseLibSQL, DatabaseMySQL:
		dialect, err := sqlstore.ParseDialect(c.DatabaseType)
		if err != nil {
			return err
		}
		repo, err := sqlstore.Open(dialect, c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open %s database: %w", c.DatabaseType, err)
		}
		rt.closers = append(rt.closers, func() { repo.Close() })
		rt.ping = repo.Ping
		rt.Repository = repo

	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	if m, ok := rt.Repository.(migrator); ok && c.AutoMigrate {
		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate %s schema: %w", c.DatabaseType, err)
		}
		rt.logger.Info("database schema ready", "type", c.DatabaseType)
	}
	return nil
}

func (c *ServerConfig) buildMediaStore() (linkbio.MediaStore, error) {
	switch c.Media.Type {
	case MediaMemory:
		return memorymedia.New(c.Media.URLPrefix), nil
	case MediaFS:
		return fsmedia.New(fsmedia.Config{BaseDir: c.Media.BaseDir, URLPrefix: c.Media.URLPrefix})
	case MediaS3:
		return s3media.New(c.Media.S3)
	case MediaCloudinary:
		return cloudinarymedia.New(cloudinarymedia.Config{URL: c.Media.CloudinaryURL, Folder: c.Media.CloudinaryFolder})
	default:
		return nil, fmt.Errorf("unsupported media type: %s", c.Media.Type)
	}
}

func (rt *Runtime) buildAuth() error {
	c := rt.config
	secret := c.Auth.SessionSecret
	if secret == "" {
		generated, err := randomSecret()
		if err != nil {
			return err
		}
		secret = generated
		rt.logger.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}

	sessions, err := auth.NewSessions(secret,
		auth.WithTTL(c.Auth.SessionTTL),
		auth.WithSecureCookie(c.IsProduction()),
	)
	if err != nil {
		return fmt.Errorf("failed to create sessions: %w", err)
	}
	rt.Sessions = sessions

	if c.Auth.OAuth.ClientID != "" {
		oauthConfig := c.Auth.OAuth
		oauthConfig.SecureCookie = c.IsProduction()
		login, err := auth.NewOAuthLogin(oauthConfig)
		if err != nil {
			return fmt.Errorf("failed to configure oauth: %w", err)
		}
		rt.OAuth = login
	}

	if c.Auth.PasswordHash != "" {
		login, err := auth.NewPasswordLogin(c.AdminSubject, c.Auth.PasswordName, c.Auth.PasswordHash)
		if err != nil {
			return fmt.Errorf("failed to configure password login: %w", err)
		}
		rt.Password = login
	}

	if rt.OAuth == nil && rt.Password == nil {
		rt.logger.Warn("no login method configured; the dashboard is unreachable")
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Router builds the HTTP handler for the runtime
func (rt *Runtime) Router() (http.Handler, error) {
	c := rt.config
	routerConfig := api.RouterConfig{
		Service:               rt.Service,
		Sessions:              rt.Sessions,
		OAuth:                 rt.OAuth,
		Password:              rt.Password,
		AfterLoginURL:         c.Auth.AfterLoginURL,
		AllowedOrigins:        c.AllowedOrigins,
		TrustProxy:            c.TrustProxy,
		PublicWritesPerMinute: c.PublicWritesPerMinute,
		MaxUploadSize:         c.MaxUploadSize,
		Logger:                rt.logger,
	}
	if reader, ok := rt.Media.(linkbio.MediaReader); ok {
		routerConfig.Media = reader
		routerConfig.MediaPath = c.Media.URLPrefix
	}
	return api.NewRouter(routerConfig)
}

// Ping checks that the database answers within five seconds
func (rt *Runtime) Ping(ctx context.Context) error {
	if rt.ping == nil {
		return errors.New("database not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rt.ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", linkbio.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases database pools and clients in reverse order
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
