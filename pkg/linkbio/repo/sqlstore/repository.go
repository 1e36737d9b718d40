package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Repository implements linkbio.Repository on database/sql for SQLite,
// libSQL (Turso) and MySQL.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database handle
func New(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// Open opens a database for dialect. The connection is lazy; use Ping or
// Migrate to verify it.
func Open(dialect Dialect, dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("dsn is required")
	}
	switch dialect {
	case DialectSQLite:
		if !strings.Contains(dsn, "_pragma=foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
	case DialectMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
		}
		// zero-row updates are detected by matched rather than changed rows
		cfg.ClientFoundRows = true
		dsn = cfg.FormatDSN()
	case DialectLibSQL:
	default:
		return nil, fmt.Errorf("unsupported sql dialect: %s", dialect)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}
	return New(db, dialect), nil
}

// DB returns the underlying handle
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the underlying handle
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping verifies connectivity
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return r.handleSQLError("ping", err, nil)
	}
	return nil
}

// Migrate creates the tables and indexes if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.schema() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return r.handleSQLError("migrate", err, nil)
		}
	}
	return nil
}

func (r *Repository) handleSQLError(operation string, err error, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			if strings.Contains(sqliteErr.Error(), "subscribers.email") {
				return linkbio.ErrDuplicateEmail
			}
			return fmt.Errorf("duplicate entry in %s: %w", operation, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return linkbio.ErrOwnerNotFound
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_CANTOPEN:
			return fmt.Errorf("%w: %s: %v", linkbio.ErrStoreUnavailable, operation, err)
		}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062: // ER_DUP_ENTRY
			if strings.Contains(mysqlErr.Message, "subscribers_email_key") {
				return linkbio.ErrDuplicateEmail
			}
			return fmt.Errorf("duplicate entry in %s: %w", operation, err)
		case 1452: // ER_NO_REFERENCED_ROW_2
			return linkbio.ErrOwnerNotFound
		case 1146: // ER_NO_SUCH_TABLE
			return fmt.Errorf("table does not exist - database migration required")
		}
	}

	// libSQL reports remote failures as plain text
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: subscribers.email"):
		return linkbio.ErrDuplicateEmail
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return linkbio.ErrOwnerNotFound
	}

	var netErr *net.OpError
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s: %v", linkbio.ErrStoreUnavailable, operation, err)
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) expectRow(operation string, res sql.Result, err error, notFound error) error {
	if err != nil {
		return r.handleSQLError(operation, err, notFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return r.handleSQLError(operation, err, notFound)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func micros(t time.Time) int64 {
	return t.UnixMicro()
}

// unixTime scans a unix microsecond column into a time.Time
type unixTime struct {
	dst *time.Time
}

func (u unixTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*u.dst = time.UnixMicro(v).UTC()
	case []byte:
		var n int64
		if _, err := fmt.Sscan(string(v), &n); err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", v, err)
		}
		*u.dst = time.UnixMicro(n).UTC()
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// Owner operations

const ownerColumns = `id, subject, name, email, login_method, role, created_at, updated_at, last_signed_in`

func scanOwner(row scanner) (*linkbio.Owner, error) {
	var owner linkbio.Owner
	var role string
	if err := row.Scan(&owner.ID, &owner.Subject, &owner.Name, &owner.Email, &owner.LoginMethod, &role,
		unixTime{&owner.CreatedAt}, unixTime{&owner.UpdatedAt}, unixTime{&owner.LastSignedIn}); err != nil {
		return nil, err
	}
	owner.Role = linkbio.Role(role)
	return &owner, nil
}

func (r *Repository) UpsertOwner(ctx context.Context, owner *linkbio.Owner) (*linkbio.Owner, error) {
	_, err := r.db.ExecContext(ctx, r.dialect.upsertOwnerQuery(),
		owner.ID, owner.Subject, nullable(owner.Name), nullable(owner.Email), nullable(owner.LoginMethod),
		string(owner.Role), micros(owner.CreatedAt), micros(owner.UpdatedAt), micros(owner.LastSignedIn))
	if err != nil {
		return nil, r.handleSQLError("upsert owner", err, nil)
	}

	stored, err := scanOwner(r.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE subject = ?`, owner.Subject))
	if err != nil {
		return nil, r.handleSQLError("upsert owner", err, linkbio.ErrOwnerNotFound)
	}
	return stored, nil
}

func (r *Repository) GetOwner(ctx context.Context, id uuid.UUID) (*linkbio.Owner, error) {
	owner, err := scanOwner(r.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = ?`, id))
	if err != nil {
		return nil, r.handleSQLError("get owner", err, linkbio.ErrOwnerNotFound)
	}
	return owner, nil
}

// Profile operations

func (r *Repository) GetProfile(ctx context.Context, ownerID uuid.UUID) (*linkbio.Profile, error) {
	query := `
		SELECT id, owner_id, display_name, bio, instagram_handle, profile_image_url,
		       background_image_url, background_color, social_links, created_at, updated_at
		FROM profiles WHERE owner_id = ?`

	var profile linkbio.Profile
	var socialLinks string
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&profile.ID, &profile.OwnerID, &profile.DisplayName, &profile.Bio, &profile.InstagramHandle,
		&profile.ProfileImageURL, &profile.BackgroundImageURL, &profile.BackgroundColor,
		&socialLinks, unixTime{&profile.CreatedAt}, unixTime{&profile.UpdatedAt})
	if err != nil {
		return nil, r.handleSQLError("get profile", err, linkbio.ErrProfileNotFound)
	}
	if err := json.Unmarshal([]byte(socialLinks), &profile.SocialLinks); err != nil {
		return nil, fmt.Errorf("failed to decode social links: %w", err)
	}
	return &profile, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, profile *linkbio.Profile) error {
	socialLinks := profile.SocialLinks
	if socialLinks == nil {
		socialLinks = linkbio.SocialLinks{}
	}
	encoded, err := json.Marshal(socialLinks)
	if err != nil {
		return fmt.Errorf("failed to encode social links: %w", err)
	}

	_, err = r.db.ExecContext(ctx, r.dialect.upsertProfileQuery(),
		profile.ID, profile.OwnerID, profile.DisplayName, nullable(profile.Bio), nullable(profile.InstagramHandle),
		nullable(profile.ProfileImageURL), nullable(profile.BackgroundImageURL), nullable(profile.BackgroundColor),
		string(encoded), micros(profile.CreatedAt), micros(profile.UpdatedAt))
	if err != nil {
		return r.handleSQLError("upsert profile", err, nil)
	}
	return nil
}

// Link operations

const linkColumns = `id, owner_id, title, url, description, is_priority, is_active, sort_order, created_at, updated_at`

func scanLink(row scanner) (*linkbio.Link, error) {
	var link linkbio.Link
	if err := row.Scan(&link.ID, &link.OwnerID, &link.Title, &link.URL, &link.Description,
		&link.IsPriority, &link.IsActive, &link.SortOrder,
		unixTime{&link.CreatedAt}, unixTime{&link.UpdatedAt}); err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *Repository) CreateLink(ctx context.Context, link *linkbio.Link) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID, link.OwnerID, link.Title, link.URL, nullable(link.Description),
		link.IsPriority, link.IsActive, link.SortOrder, micros(link.CreatedAt), micros(link.UpdatedAt))
	if err != nil {
		return r.handleSQLError("create link", err, nil)
	}
	return nil
}

func (r *Repository) GetLink(ctx context.Context, id uuid.UUID) (*linkbio.Link, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id))
	if err != nil {
		return nil, r.handleSQLError("get link", err, linkbio.ErrLinkNotFound)
	}
	return link, nil
}

func (r *Repository) UpdateLink(ctx context.Context, link *linkbio.Link) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE links SET title = ?, url = ?, description = ?, is_priority = ?,
			is_active = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		link.Title, link.URL, nullable(link.Description), link.IsPriority,
		link.IsActive, link.SortOrder, micros(link.UpdatedAt), link.ID)
	return r.expectRow("update link", res, err, linkbio.ErrLinkNotFound)
}

func (r *Repository) DeleteLink(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	return r.expectRow("delete link", res, err, linkbio.ErrLinkNotFound)
}

func (r *Repository) ListLinks(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.Link, error) {
	return queryAll(ctx, r, "list links", scanLink,
		`SELECT `+linkColumns+` FROM links WHERE owner_id = ? ORDER BY id`, ownerID)
}

// Carousel operations

const carouselColumns = `id, owner_id, image_url, title, link_url, sort_order, is_active, created_at, updated_at`

func scanCarouselImage(row scanner) (*linkbio.CarouselImage, error) {
	var image linkbio.CarouselImage
	if err := row.Scan(&image.ID, &image.OwnerID, &image.ImageURL, &image.Title, &image.LinkURL,
		&image.SortOrder, &image.IsActive, unixTime{&image.CreatedAt}, unixTime{&image.UpdatedAt}); err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *Repository) CreateCarouselImage(ctx context.Context, image *linkbio.CarouselImage) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO carousel_images (`+carouselColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		image.ID, image.OwnerID, image.ImageURL, nullable(image.Title), nullable(image.LinkURL),
		image.SortOrder, image.IsActive, micros(image.CreatedAt), micros(image.UpdatedAt))
	if err != nil {
		return r.handleSQLError("create carousel image", err, nil)
	}
	return nil
}

func (r *Repository) GetCarouselImage(ctx context.Context, id uuid.UUID) (*linkbio.CarouselImage, error) {
	image, err := scanCarouselImage(r.db.QueryRowContext(ctx, `SELECT `+carouselColumns+` FROM carousel_images WHERE id = ?`, id))
	if err != nil {
		return nil, r.handleSQLError("get carousel image", err, linkbio.ErrCarouselImageNotFound)
	}
	return image, nil
}

func (r *Repository) UpdateCarouselImage(ctx context.Context, image *linkbio.CarouselImage) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE carousel_images SET image_url = ?, title = ?, link_url = ?, sort_order = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		image.ImageURL, nullable(image.Title), nullable(image.LinkURL), image.SortOrder,
		image.IsActive, micros(image.UpdatedAt), image.ID)
	return r.expectRow("update carousel image", res, err, linkbio.ErrCarouselImageNotFound)
}

func (r *Repository) DeleteCarouselImage(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM carousel_images WHERE id = ?`, id)
	return r.expectRow("delete carousel image", res, err, linkbio.ErrCarouselImageNotFound)
}

func (r *Repository) ListCarouselImages(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.CarouselImage, error) {
	return queryAll(ctx, r, "list carousel images", scanCarouselImage,
		`SELECT `+carouselColumns+` FROM carousel_images WHERE owner_id = ? ORDER BY id`, ownerID)
}

// Product operations

const productColumns = `id, owner_id, name, description, image_url, affiliate_url, price, sort_order, is_active, created_at, updated_at`

func scanProduct(row scanner) (*linkbio.Product, error) {
	var product linkbio.Product
	if err := row.Scan(&product.ID, &product.OwnerID, &product.Name, &product.Description,
		&product.ImageURL, &product.AffiliateURL, &product.Price, &product.SortOrder, &product.IsActive,
		unixTime{&product.CreatedAt}, unixTime{&product.UpdatedAt}); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *linkbio.Product) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID, product.OwnerID, product.Name, nullable(product.Description), product.ImageURL,
		product.AffiliateURL, nullable(product.Price), product.SortOrder, product.IsActive,
		micros(product.CreatedAt), micros(product.UpdatedAt))
	if err != nil {
		return r.handleSQLError("create product", err, nil)
	}
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*linkbio.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		return nil, r.handleSQLError("get product", err, linkbio.ErrProductNotFound)
	}
	return product, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *linkbio.Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET name = ?, description = ?, image_url = ?, affiliate_url = ?, price = ?,
			sort_order = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		product.Name, nullable(product.Description), product.ImageURL, product.AffiliateURL,
		nullable(product.Price), product.SortOrder, product.IsActive, micros(product.UpdatedAt), product.ID)
	return r.expectRow("update product", res, err, linkbio.ErrProductNotFound)
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return r.expectRow("delete product", res, err, linkbio.ErrProductNotFound)
}

func (r *Repository) ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.Product, error) {
	return queryAll(ctx, r, "list products", scanProduct,
		`SELECT `+productColumns+` FROM products WHERE owner_id = ? ORDER BY id`, ownerID)
}

// Subscriber operations

const subscriberColumns = `id, email, subscribed_at, is_active`

func scanSubscriber(row scanner) (*linkbio.Subscriber, error) {
	var subscriber linkbio.Subscriber
	if err := row.Scan(&subscriber.ID, &subscriber.Email, unixTime{&subscriber.SubscribedAt}, &subscriber.IsActive); err != nil {
		return nil, err
	}
	return &subscriber, nil
}

func (r *Repository) CreateSubscriber(ctx context.Context, subscriber *linkbio.Subscriber) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO subscribers (`+subscriberColumns+`) VALUES (?, ?, ?, ?)`,
		subscriber.ID, subscriber.Email, micros(subscriber.SubscribedAt), subscriber.IsActive)
	if err != nil {
		return r.handleSQLError("create subscriber", err, nil)
	}
	return nil
}

func (r *Repository) GetSubscriber(ctx context.Context, id uuid.UUID) (*linkbio.Subscriber, error) {
	subscriber, err := scanSubscriber(r.db.QueryRowContext(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE id = ?`, id))
	if err != nil {
		return nil, r.handleSQLError("get subscriber", err, linkbio.ErrSubscriberNotFound)
	}
	return subscriber, nil
}

func (r *Repository) UpdateSubscriber(ctx context.Context, subscriber *linkbio.Subscriber) error {
	res, err := r.db.ExecContext(ctx, `UPDATE subscribers SET email = ?, is_active = ? WHERE id = ?`,
		subscriber.Email, subscriber.IsActive, subscriber.ID)
	return r.expectRow("update subscriber", res, err, linkbio.ErrSubscriberNotFound)
}

func (r *Repository) ListSubscribers(ctx context.Context, activeOnly bool) ([]*linkbio.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY subscribed_at DESC, id DESC`
	return queryAll(ctx, r, "list subscribers", scanSubscriber, query)
}

// Click operations

func (r *Repository) RecordClick(ctx context.Context, click *linkbio.LinkClick) error {
	// selecting from links inserts nothing when the link does not exist
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO link_clicks (id, link_id, clicked_at, ip_address, user_agent)
		SELECT ?, id, ?, ?, ? FROM links WHERE id = ?`,
		click.ID, micros(click.ClickedAt), nullable(click.IPAddress), nullable(click.UserAgent), click.LinkID)
	return r.expectRow("record click", res, err, linkbio.ErrLinkNotFound)
}

func (r *Repository) CountClicksByLink(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.LinkClickStat, error) {
	query := `
		SELECT l.id, l.title, l.is_priority, l.sort_order, COUNT(c.id)
		FROM links l
		LEFT JOIN link_clicks c ON c.link_id = l.id
		WHERE l.owner_id = ?
		GROUP BY l.id, l.title, l.is_priority, l.sort_order
		ORDER BY l.id`
	return queryAll(ctx, r, "count clicks", func(row scanner) (*linkbio.LinkClickStat, error) {
		var stat linkbio.LinkClickStat
		if err := row.Scan(&stat.LinkID, &stat.Title, &stat.IsPriority, &stat.SortOrder, &stat.ClickCount); err != nil {
			return nil, err
		}
		return &stat, nil
	}, query, ownerID)
}

func queryAll[T any](ctx context.Context, r *Repository, operation string, scan func(scanner) (*T, error), query string, args ...interface{}) ([]*T, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.handleSQLError(operation, err, nil)
	}
	defer rows.Close()

	var items []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, r.handleSQLError(operation, err, nil)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handleSQLError(operation, err, nil)
	}
	return items, nil
}

var _ linkbio.Repository = (*Repository)(nil)
