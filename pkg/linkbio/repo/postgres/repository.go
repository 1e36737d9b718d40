package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

//go:embed schema.sql
var schema string

// Schema returns the DDL applied by Migrate
func Schema() string {
	return schema
}

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements linkbio.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate creates the tables and indexes if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return r.handlePostgresError("migrate", err, nil)
	}
	return nil
}

// Error handling helper. notFound is returned for pgx.ErrNoRows.
func (r *Repository) handlePostgresError(operation string, err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if pgErr.ConstraintName == "subscribers_email_key" {
				return linkbio.ErrDuplicateEmail
			}
			return fmt.Errorf("duplicate entry in %s: %s", operation, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return linkbio.ErrOwnerNotFound
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	var connectErr *pgconn.ConnectError
	var netErr *net.OpError
	if errors.As(err, &connectErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s: %v", linkbio.ErrStoreUnavailable, operation, err)
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) expectRow(operation string, tag pgconn.CommandTag, err error, notFound error) error {
	if err != nil {
		return r.handlePostgresError(operation, err, notFound)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// Owner operations

const ownerColumns = `id, subject, name, email, login_method, role, created_at, updated_at, last_signed_in`

func scanOwner(row scanner) (*linkbio.Owner, error) {
	var owner linkbio.Owner
	var role string
	if err := row.Scan(&owner.ID, &owner.Subject, &owner.Name, &owner.Email, &owner.LoginMethod,
		&role, &owner.CreatedAt, &owner.UpdatedAt, &owner.LastSignedIn); err != nil {
		return nil, err
	}
	owner.Role = linkbio.Role(role)
	return &owner, nil
}

func (r *Repository) UpsertOwner(ctx context.Context, owner *linkbio.Owner) (*linkbio.Owner, error) {
	query := `
		INSERT INTO owners (` + ownerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (subject) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email, login_method = EXCLUDED.login_method,
			role = EXCLUDED.role, updated_at = EXCLUDED.updated_at, last_signed_in = EXCLUDED.last_signed_in
		RETURNING ` + ownerColumns

	stored, err := scanOwner(r.db.QueryRow(ctx, query,
		owner.ID, owner.Subject, owner.Name, owner.Email, owner.LoginMethod,
		string(owner.Role), owner.CreatedAt, owner.UpdatedAt, owner.LastSignedIn))
	if err != nil {
		return nil, r.handlePostgresError("upsert owner", err, nil)
	}
	return stored, nil
}

func (r *Repository) GetOwner(ctx context.Context, id uuid.UUID) (*linkbio.Owner, error) {
	owner, err := scanOwner(r.db.QueryRow(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = $1`, id))
	if err != nil {
		return nil, r.handlePostgresError("get owner", err, linkbio.ErrOwnerNotFound)
	}
	return owner, nil
}

// Profile operations

func (r *Repository) GetProfile(ctx context.Context, ownerID uuid.UUID) (*linkbio.Profile, error) {
	query := `
		SELECT id, owner_id, display_name, bio, instagram_handle, profile_image_url,
		       background_image_url, background_color, social_links, created_at, updated_at
		FROM profiles WHERE owner_id = $1`

	var profile linkbio.Profile
	var socialLinks []byte
	err := r.db.QueryRow(ctx, query, ownerID).Scan(
		&profile.ID, &profile.OwnerID, &profile.DisplayName, &profile.Bio, &profile.InstagramHandle,
		&profile.ProfileImageURL, &profile.BackgroundImageURL, &profile.BackgroundColor,
		&socialLinks, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, r.handlePostgresError("get profile", err, linkbio.ErrProfileNotFound)
	}
	if err := json.Unmarshal(socialLinks, &profile.SocialLinks); err != nil {
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

	query := `
		INSERT INTO profiles (
			id, owner_id, display_name, bio, instagram_handle, profile_image_url,
			background_image_url, background_color, social_links, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)
		ON CONFLICT (owner_id) DO UPDATE SET
			display_name = EXCLUDED.display_name, bio = EXCLUDED.bio,
			instagram_handle = EXCLUDED.instagram_handle, profile_image_url = EXCLUDED.profile_image_url,
			background_image_url = EXCLUDED.background_image_url, background_color = EXCLUDED.background_color,
			social_links = EXCLUDED.social_links, updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query,
		profile.ID, profile.OwnerID, profile.DisplayName, profile.Bio, profile.InstagramHandle,
		profile.ProfileImageURL, profile.BackgroundImageURL, profile.BackgroundColor,
		string(encoded), profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("upsert profile", err, nil)
	}
	return nil
}

// Link operations

const linkColumns = `id, owner_id, title, url, description, is_priority, is_active, sort_order, created_at, updated_at`

func scanLink(row scanner) (*linkbio.Link, error) {
	var link linkbio.Link
	err := row.Scan(&link.ID, &link.OwnerID, &link.Title, &link.URL, &link.Description,
		&link.IsPriority, &link.IsActive, &link.SortOrder, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *Repository) CreateLink(ctx context.Context, link *linkbio.Link) error {
	query := `INSERT INTO links (` + linkColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		link.ID, link.OwnerID, link.Title, link.URL, link.Description,
		link.IsPriority, link.IsActive, link.SortOrder, link.CreatedAt, link.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create link", err, nil)
	}
	return nil
}

func (r *Repository) GetLink(ctx context.Context, id uuid.UUID) (*linkbio.Link, error) {
	link, err := scanLink(r.db.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id))
	if err != nil {
		return nil, r.handlePostgresError("get link", err, linkbio.ErrLinkNotFound)
	}
	return link, nil
}

func (r *Repository) UpdateLink(ctx context.Context, link *linkbio.Link) error {
	query := `
		UPDATE links SET
			title = $2, url = $3, description = $4, is_priority = $5,
			is_active = $6, sort_order = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		link.ID, link.Title, link.URL, link.Description, link.IsPriority,
		link.IsActive, link.SortOrder, link.UpdatedAt)
	return r.expectRow("update link", tag, err, linkbio.ErrLinkNotFound)
}

func (r *Repository) DeleteLink(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	return r.expectRow("delete link", tag, err, linkbio.ErrLinkNotFound)
}

func (r *Repository) ListLinks(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.Link, error) {
	rows, err := r.db.Query(ctx, `SELECT `+linkColumns+` FROM links WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("list links", err, nil)
	}
	defer rows.Close()

	var links []*linkbio.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, r.handlePostgresError("list links", err, nil)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list links", err, nil)
	}
	return links, nil
}

// Carousel operations

const carouselColumns = `id, owner_id, image_url, title, link_url, sort_order, is_active, created_at, updated_at`

func scanCarouselImage(row scanner) (*linkbio.CarouselImage, error) {
	var image linkbio.CarouselImage
	err := row.Scan(&image.ID, &image.OwnerID, &image.ImageURL, &image.Title, &image.LinkURL,
		&image.SortOrder, &image.IsActive, &image.CreatedAt, &image.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *Repository) CreateCarouselImage(ctx context.Context, image *linkbio.CarouselImage) error {
	query := `INSERT INTO carousel_images (` + carouselColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		image.ID, image.OwnerID, image.ImageURL, image.Title, image.LinkURL,
		image.SortOrder, image.IsActive, image.CreatedAt, image.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create carousel image", err, nil)
	}
	return nil
}

func (r *Repository) GetCarouselImage(ctx context.Context, id uuid.UUID) (*linkbio.CarouselImage, error) {
	image, err := scanCarouselImage(r.db.QueryRow(ctx, `SELECT `+carouselColumns+` FROM carousel_images WHERE id = $1`, id))
	if err != nil {
		return nil, r.handlePostgresError("get carousel image", err, linkbio.ErrCarouselImageNotFound)
	}
	return image, nil
}

func (r *Repository) UpdateCarouselImage(ctx context.Context, image *linkbio.CarouselImage) error {
	query := `
		UPDATE carousel_images SET
			image_url = $2, title = $3, link_url = $4, sort_order = $5, is_active = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		image.ID, image.ImageURL, image.Title, image.LinkURL, image.SortOrder, image.IsActive, image.UpdatedAt)
	return r.expectRow("update carousel image", tag, err, linkbio.ErrCarouselImageNotFound)
}

func (r *Repository) DeleteCarouselImage(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM carousel_images WHERE id = $1`, id)
	return r.expectRow("delete carousel image", tag, err, linkbio.ErrCarouselImageNotFound)
}

func (r *Repository) ListCarouselImages(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.CarouselImage, error) {
	rows, err := r.db.Query(ctx, `SELECT `+carouselColumns+` FROM carousel_images WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("list carousel images", err, nil)
	}
	defer rows.Close()

	var images []*linkbio.CarouselImage
	for rows.Next() {
		image, err := scanCarouselImage(rows)
		if err != nil {
			return nil, r.handlePostgresError("list carousel images", err, nil)
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list carousel images", err, nil)
	}
	return images, nil
}

// Product operations

const productColumns = `id, owner_id, name, description, image_url, affiliate_url, price, sort_order, is_active, created_at, updated_at`

func scanProduct(row scanner) (*linkbio.Product, error) {
	var product linkbio.Product
	err := row.Scan(&product.ID, &product.OwnerID, &product.Name, &product.Description,
		&product.ImageURL, &product.AffiliateURL, &product.Price, &product.SortOrder,
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *linkbio.Product) error {
	query := `INSERT INTO products (` + productColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.Exec(ctx, query,
		product.ID, product.OwnerID, product.Name, product.Description, product.ImageURL,
		product.AffiliateURL, product.Price, product.SortOrder, product.IsActive,
		product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create product", err, nil)
	}
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*linkbio.Product, error) {
	product, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, r.handlePostgresError("get product", err, linkbio.ErrProductNotFound)
	}
	return product, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *linkbio.Product) error {
	query := `
		UPDATE products SET
			name = $2, description = $3, image_url = $4, affiliate_url = $5, price = $6,
			sort_order = $7, is_active = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		product.ID, product.Name, product.Description, product.ImageURL, product.AffiliateURL,
		product.Price, product.SortOrder, product.IsActive, product.UpdatedAt)
	return r.expectRow("update product", tag, err, linkbio.ErrProductNotFound)
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return r.expectRow("delete product", tag, err, linkbio.ErrProductNotFound)
}

func (r *Repository) ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("list products", err, nil)
	}
	defer rows.Close()

	var products []*linkbio.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, r.handlePostgresError("list products", err, nil)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list products", err, nil)
	}
	return products, nil
}

// Subscriber operations

const subscriberColumns = `id, email, subscribed_at, is_active`

func scanSubscriber(row scanner) (*linkbio.Subscriber, error) {
	var subscriber linkbio.Subscriber
	if err := row.Scan(&subscriber.ID, &subscriber.Email, &subscriber.SubscribedAt, &subscriber.IsActive); err != nil {
		return nil, err
	}
	return &subscriber, nil
}

func (r *Repository) CreateSubscriber(ctx context.Context, subscriber *linkbio.Subscriber) error {
	_, err := r.db.Exec(ctx, `INSERT INTO subscribers (`+subscriberColumns+`) VALUES ($1, $2, $3, $4)`,
		subscriber.ID, subscriber.Email, subscriber.SubscribedAt, subscriber.IsActive)
	if err != nil {
		return r.handlePostgresError("create subscriber", err, nil)
	}
	return nil
}

func (r *Repository) GetSubscriber(ctx context.Context, id uuid.UUID) (*linkbio.Subscriber, error) {
	subscriber, err := scanSubscriber(r.db.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, id))
	if err != nil {
		return nil, r.handlePostgresError("get subscriber", err, linkbio.ErrSubscriberNotFound)
	}
	return subscriber, nil
}

func (r *Repository) UpdateSubscriber(ctx context.Context, subscriber *linkbio.Subscriber) error {
	tag, err := r.db.Exec(ctx, `UPDATE subscribers SET email = $2, is_active = $3 WHERE id = $1`,
		subscriber.ID, subscriber.Email, subscriber.IsActive)
	return r.expectRow("update subscriber", tag, err, linkbio.ErrSubscriberNotFound)
}

func (r *Repository) ListSubscribers(ctx context.Context, activeOnly bool) ([]*linkbio.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY subscribed_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list subscribers", err, nil)
	}
	defer rows.Close()

	var subscribers []*linkbio.Subscriber
	for rows.Next() {
		subscriber, err := scanSubscriber(rows)
		if err != nil {
			return nil, r.handlePostgresError("list subscribers", err, nil)
		}
		subscribers = append(subscribers, subscriber)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list subscribers", err, nil)
	}
	return subscribers, nil
}

// Click operations

func (r *Repository) RecordClick(ctx context.Context, click *linkbio.LinkClick) error {
	query := `
		INSERT INTO link_clicks (id, link_id, clicked_at, ip_address, user_agent)
		SELECT $1::uuid, $2::uuid, $3::timestamptz, $4::varchar, $5::text
		WHERE EXISTS (SELECT 1 FROM links WHERE id = $2)`
	tag, err := r.db.Exec(ctx, query, click.ID, click.LinkID, click.ClickedAt, click.IPAddress, click.UserAgent)
	return r.expectRow("record click", tag, err, linkbio.ErrLinkNotFound)
}

func (r *Repository) CountClicksByLink(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.LinkClickStat, error) {
	query := `
		SELECT l.id, l.title, l.is_priority, l.sort_order, COUNT(c.id)
		FROM links l
		LEFT JOIN link_clicks c ON c.link_id = l.id
		WHERE l.owner_id = $1
		GROUP BY l.id, l.title, l.is_priority, l.sort_order
		ORDER BY l.id`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("count clicks", err, nil)
	}
	defer rows.Close()

	var stats []*linkbio.LinkClickStat
	for rows.Next() {
		var stat linkbio.LinkClickStat
		if err := rows.Scan(&stat.LinkID, &stat.Title, &stat.IsPriority, &stat.SortOrder, &stat.ClickCount); err != nil {
			return nil, r.handlePostgresError("count clicks", err, nil)
		}
		stats = append(stats, &stat)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("count clicks", err, nil)
	}
	return stats, nil
}

var _ linkbio.Repository = (*Repository)(nil)
