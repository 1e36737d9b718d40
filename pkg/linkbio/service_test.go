package linkbio_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"github.com/tendant/simple-linkbio/pkg/linkbio/media/memory"
	repomemory "github.com/tendant/simple-linkbio/pkg/linkbio/repo/memory"
)

type recordingSink struct {
	mu     sync.Mutex
	events []linkbio.Event
}

func (r *recordingSink) Publish(ctx context.Context, event linkbio.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []linkbio.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]linkbio.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// unavailableRepository fails every call it overrides with ErrStoreUnavailable.
type unavailableRepository struct {
	linkbio.Repository
}

func storeDown() error {
	return fmt.Errorf("dial tcp 127.0.0.1:5432: %w", linkbio.ErrStoreUnavailable)
}

func (unavailableRepository) GetProfile(ctx context.Context, ownerID uuid.UUID) (*linkbio.Profile, error) {
	return nil, storeDown()
}

func (unavailableRepository) ListLinks(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.Link, error) {
	return nil, storeDown()
}

func (unavailableRepository) ListCarouselImages(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.CarouselImage, error) {
	return nil, storeDown()
}

func (unavailableRepository) ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.Product, error) {
	return nil, storeDown()
}

func (unavailableRepository) ListSubscribers(ctx context.Context, activeOnly bool) ([]*linkbio.Subscriber, error) {
	return nil, storeDown()
}

func (unavailableRepository) CountClicksByLink(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.LinkClickStat, error) {
	return nil, storeDown()
}

func (unavailableRepository) CreateLink(ctx context.Context, link *linkbio.Link) error {
	return storeDown()
}

func (unavailableRepository) CreateSubscriber(ctx context.Context, subscriber *linkbio.Subscriber) error {
	return storeDown()
}

func newOwnerID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id
}

func setupService(t *testing.T, publishedOwner uuid.UUID, extra ...linkbio.Option) (linkbio.Service, linkbio.Repository, *recordingSink) {
	t.Helper()
	repo := repomemory.New()
	sink := &recordingSink{}
	options := append([]linkbio.Option{
		linkbio.WithRepository(repo),
		linkbio.WithEventSink(sink),
		linkbio.WithPublishedOwner(publishedOwner),
	}, extra...)
	svc, err := linkbio.New(options...)
	require.NoError(t, err)
	return svc, repo, sink
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []linkbio.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []linkbio.Option{},
			expectError: true,
		},
		{
			name:        "with repository should succeed",
			options:     []linkbio.Option{linkbio.WithRepository(repomemory.New())},
			expectError: false,
		},
		{
			name: "with repository and media store should succeed",
			options: []linkbio.Option{
				linkbio.WithRepository(repomemory.New()),
				linkbio.WithMediaStore(memory.New("/media/")),
				linkbio.WithEventSink(linkbio.NewNoopEventSink()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := linkbio.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestLinkLifecycle(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	svc, _, sink := setupService(t, owner)

	link, err := svc.CreateLink(ctx, owner, linkbio.CreateLinkRequest{
		Title: "Test Link",
		URL:   "https://example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, owner, link.OwnerID)
	assert.False(t, link.IsPriority)
	assert.True(t, link.IsActive)
	assert.Equal(t, 0, link.SortOrder)
	assert.Nil(t, link.Description)

	all, err := svc.ListLinks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Test Link", all[0].Title)

	updated, err := svc.UpdateLink(ctx, owner, link.ID, linkbio.UpdateLinkRequest{
		Title:      strPtr("Renamed"),
		IsPriority: boolPtr(true),
		IsActive:   boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "https://example.com", updated.URL)
	assert.True(t, updated.IsPriority)

	public, err := svc.ListPublicLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)

	managed, err := svc.ListLinks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, managed, 1)
	assert.False(t, managed[0].IsActive)

	require.NoError(t, svc.DeleteLink(ctx, owner, link.ID))
	managed, err = svc.ListLinks(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, managed)

	assert.Equal(t, []linkbio.EventType{
		linkbio.EventLinkCreated,
		linkbio.EventLinkUpdated,
		linkbio.EventLinkDeleted,
	}, sink.types())
}

func TestPublicLinksOrdering(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	svc, _, _ := setupService(t, owner)

	create := func(title string, priority bool, order int, active bool) {
		_, err := svc.CreateLink(ctx, owner, linkbio.CreateLinkRequest{
			Title:      title,
			URL:        "https://example.com/" + title,
			IsPriority: boolPtr(priority),
			SortOrder:  intPtr(order),
			IsActive:   boolPtr(active),
		})
		require.NoError(t, err)
	}
	create("two", false, 2, true)
	create("one", false, 1, true)
	create("pinned", true, 9, true)
	create("off", false, 0, false)

	links, err := svc.ListPublicLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pinned", "one", "two"}, linkTitles(links))
}

func TestUpdateMissingResourceReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	svc, _, _ := setupService(t, owner)
	missing := newOwnerID(t)

	_, err := svc.UpdateLink(ctx, owner, missing, linkbio.UpdateLinkRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, linkbio.ErrLinkNotFound)

	_, err = svc.UpdateCarouselImage(ctx, owner, missing, linkbio.UpdateCarouselImageRequest{})
	assert.ErrorIs(t, err, linkbio.ErrCarouselImageNotFound)

	_, err = svc.UpdateProduct(ctx, owner, missing, linkbio.UpdateProductRequest{})
	assert.ErrorIs(t, err, linkbio.ErrProductNotFound)

	assert.ErrorIs(t, svc.DeleteLink(ctx, owner, missing), linkbio.ErrNotFound)
}

func TestOwnershipIsCheckedBeforeMutation(t *testing.T) {
	ctx := context.Background()
	ownerA := newOwnerID(t)
	ownerB := newOwnerID(t)
	svc, repo, _ := setupService(t, ownerB)

	link, err := svc.CreateLink(ctx, ownerB, linkbio.CreateLinkRequest{Title: "B's link", URL: "https://b.example.com"})
	require.NoError(t, err)
	product, err := svc.CreateProduct(ctx, ownerB, linkbio.CreateProductRequest{
		Name: "B's product", ImageURL: "https://b.example.com/p.png", AffiliateURL: "https://shop.example.com/p",
	})
	require.NoError(t, err)
	image, err := svc.CreateCarouselImage(ctx, ownerB, linkbio.CreateCarouselImageRequest{ImageURL: "https://b.example.com/c.png"})
	require.NoError(t, err)

	_, err = svc.UpdateLink(ctx, ownerA, link.ID, linkbio.UpdateLinkRequest{Title: strPtr("hijacked")})
	assert.ErrorIs(t, err, linkbio.ErrForbidden)
	assert.ErrorIs(t, err, linkbio.ErrUnauthorized)
	assert.ErrorIs(t, svc.DeleteLink(ctx, ownerA, link.ID), linkbio.ErrForbidden)
	_, err = svc.UpdateProduct(ctx, ownerA, product.ID, linkbio.UpdateProductRequest{Name: strPtr("hijacked")})
	assert.ErrorIs(t, err, linkbio.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, ownerA, product.ID), linkbio.ErrForbidden)
	_, err = svc.UpdateCarouselImage(ctx, ownerA, image.ID, linkbio.UpdateCarouselImageRequest{IsActive: boolPtr(false)})
	assert.ErrorIs(t, err, linkbio.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteCarouselImage(ctx, ownerA, image.ID), linkbio.ErrForbidden)

	stored, err := repo.GetLink(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "B's link", stored.Title)
	storedProduct, err := repo.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "B's product", storedProduct.Name)
	storedImage, err := repo.GetCarouselImage(ctx, image.ID)
	require.NoError(t, err)
	assert.True(t, storedImage.IsActive)
}

func TestAnonymousCallerIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t, newOwnerID(t))

	_, err := svc.CreateLink(ctx, uuid.Nil, linkbio.CreateLinkRequest{Title: "x", URL: "https://example.com"})
	assert.ErrorIs(t, err, linkbio.ErrUnauthorized)
	_, err = svc.ListLinks(ctx, uuid.Nil)
	assert.ErrorIs(t, err, linkbio.ErrUnauthorized)
	_, err = svc.UpdateProfile(ctx, uuid.Nil, linkbio.UpdateProfileRequest{DisplayName: "x"})
	assert.ErrorIs(t, err, linkbio.ErrUnauthorized)
	_, err = svc.LinkStats(ctx, uuid.Nil, 0)
	assert.ErrorIs(t, err, linkbio.ErrUnauthorized)
}

func TestProfileUpsert(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	svc, _, _ := setupService(t, owner)

	profile, err := svc.GetPublicProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	created, err := svc.UpdateProfile(ctx, owner, linkbio.UpdateProfileRequest{
		DisplayName: "Jane",
		Bio:         strPtr("Hello"),
		SocialLinks: linkbio.SocialLinks{"youtube": "https://youtube.com/@jane", "mastodon": "https://mastodon.social/@jane"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", created.DisplayName)

	updated, err := svc.UpdateProfile(ctx, owner, linkbio.UpdateProfileRequest{
		DisplayName:     "Jane Doe",
		InstagramHandle: strPtr("jane"),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "Hello", *updated.Bio)
	assert.Equal(t, "https://mastodon.social/@jane", updated.SocialLinks["mastodon"])

	cleared, err := svc.UpdateProfile(ctx, owner, linkbio.UpdateProfileRequest{DisplayName: "Jane Doe", Bio: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.Bio)

	public, err := svc.GetPublicProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, public)
	assert.Equal(t, "Jane Doe", public.DisplayName)
	assert.Equal(t, linkbio.SocialLinks{"youtube": "https://youtube.com/@jane", "mastodon": "https://mastodon.social/@jane"}, public.SocialLinks)

	_, err = svc.UpdateProfile(ctx, owner, linkbio.UpdateProfileRequest{})
	assert.ErrorIs(t, err, linkbio.ErrValidation)
}

func TestProductOptionalFieldsRoundTrip(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	svc, _, _ := setupService(t, owner)

	_, err := svc.CreateProduct(ctx, owner, linkbio.CreateProductRequest{
		Name:         "Lens",
		ImageURL:     "https://cdn.example.com/lens.jpg",
		AffiliateURL: "https://shop.example.com/lens",
	})
	require.NoError(t, err)

	products, err := svc.ListProducts(ctx, owner)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Lens", products[0].Name)
	assert.Equal(t, "https://cdn.example.com/lens.jpg", products[0].ImageURL)
	assert.Equal(t, "https://shop.example.com/lens", products[0].AffiliateURL)
	assert.Nil(t, products[0].Description)
	assert.Nil(t, products[0].Price)
	assert.True(t, products[0].IsActive)
}

func TestNewsletterSubscribe(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	svc, _, _ := setupService(t, owner)

	subscriber, err := svc.Subscribe(ctx, linkbio.SubscribeRequest{Email: "fan@example.com"})
	require.NoError(t, err)
	assert.True(t, subscriber.IsActive)

	_, err = svc.Subscribe(ctx, linkbio.SubscribeRequest{Email: " FAN@example.com"})
	assert.ErrorIs(t, err, linkbio.ErrDuplicateEmail)

	_, err = svc.Subscribe(ctx, linkbio.SubscribeRequest{Email: "invalid-email"})
	assert.ErrorIs(t, err, linkbio.ErrValidation)

	_, err = svc.Subscribe(ctx, linkbio.SubscribeRequest{Email: "second@example.com"})
	require.NoError(t, err)

	list, err := svc.ListSubscribers(ctx, owner, linkbio.ListSubscribersRequest{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second@example.com", list[0].Email)

	_, err = svc.UpdateSubscriber(ctx, owner, subscriber.ID, linkbio.UpdateSubscriberRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)
	active, err := svc.ListSubscribers(ctx, owner, linkbio.ListSubscribersRequest{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "second@example.com", active[0].Email)

	_, err = svc.ListSubscribers(ctx, newOwnerID(t), linkbio.ListSubscribersRequest{})
	assert.ErrorIs(t, err, linkbio.ErrForbidden)
}

func TestClickTrackingAndStats(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	svc, _, _ := setupService(t, owner)

	popular, err := svc.CreateLink(ctx, owner, linkbio.CreateLinkRequest{Title: "Popular", URL: "https://example.com/p"})
	require.NoError(t, err)
	quiet, err := svc.CreateLink(ctx, owner, linkbio.CreateLinkRequest{Title: "Quiet", URL: "https://example.com/q"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.TrackClick(ctx, linkbio.TrackClickRequest{LinkID: popular.ID, UserAgent: strPtr("test-agent")})
		require.NoError(t, err)
	}

	_, err = svc.TrackClick(ctx, linkbio.TrackClickRequest{LinkID: newOwnerID(t)})
	assert.ErrorIs(t, err, linkbio.ErrLinkNotFound)

	stats, err := svc.LinkStats(ctx, owner, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalClicks)
	require.Len(t, stats.Links, 2)
	assert.Equal(t, popular.ID, stats.Links[0].LinkID)
	assert.Equal(t, int64(3), stats.Links[0].ClickCount)
	assert.Equal(t, quiet.ID, stats.Links[1].LinkID)
	assert.Equal(t, int64(0), stats.Links[1].ClickCount)

	top, err := svc.LinkStats(ctx, owner, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), top.TotalClicks)
	assert.Len(t, top.Links, 1)
}

func TestResolveLink(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	other := newOwnerID(t)
	svc, _, _ := setupService(t, owner)

	active, err := svc.CreateLink(ctx, owner, linkbio.CreateLinkRequest{Title: "a", URL: "https://example.com/a"})
	require.NoError(t, err)
	inactive, err := svc.CreateLink(ctx, owner, linkbio.CreateLinkRequest{Title: "b", URL: "https://example.com/b", IsActive: boolPtr(false)})
	require.NoError(t, err)
	foreign, err := svc.CreateLink(ctx, other, linkbio.CreateLinkRequest{Title: "c", URL: "https://example.com/c"})
	require.NoError(t, err)

	resolved, err := svc.ResolveLink(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", resolved.URL)

	_, err = svc.ResolveLink(ctx, inactive.ID)
	assert.ErrorIs(t, err, linkbio.ErrLinkNotFound)
	_, err = svc.ResolveLink(ctx, foreign.ID)
	assert.ErrorIs(t, err, linkbio.ErrLinkNotFound)

	// clicks follow the same visibility as the redirect
	_, err = svc.TrackClick(ctx, linkbio.TrackClickRequest{LinkID: inactive.ID})
	assert.ErrorIs(t, err, linkbio.ErrLinkNotFound)
	_, err = svc.TrackClick(ctx, linkbio.TrackClickRequest{LinkID: foreign.ID})
	assert.ErrorIs(t, err, linkbio.ErrLinkNotFound)
	_, err = svc.TrackClick(ctx, linkbio.TrackClickRequest{LinkID: active.ID})
	assert.NoError(t, err)

	stats, err := svc.LinkStats(ctx, other, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalClicks)
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	svc, err := linkbio.New(
		linkbio.WithRepository(unavailableRepository{Repository: repomemory.New()}),
		linkbio.WithPublishedOwner(owner),
	)
	require.NoError(t, err)

	t.Run("reads degrade to empty", func(t *testing.T) {
		profile, err := svc.GetPublicProfile(ctx)
		assert.NoError(t, err)
		assert.Nil(t, profile)

		links, err := svc.ListPublicLinks(ctx)
		assert.NoError(t, err)
		assert.Empty(t, links)

		images, err := svc.ListPublicCarouselImages(ctx)
		assert.NoError(t, err)
		assert.Empty(t, images)

		products, err := svc.ListPublicProducts(ctx)
		assert.NoError(t, err)
		assert.Empty(t, products)

		managed, err := svc.ListLinks(ctx, owner)
		assert.NoError(t, err)
		assert.Empty(t, managed)

		stats, err := svc.LinkStats(ctx, owner, 0)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), stats.TotalClicks)
	})

	t.Run("writes fail loudly", func(t *testing.T) {
		_, err := svc.CreateLink(ctx, owner, linkbio.CreateLinkRequest{Title: "x", URL: "https://example.com"})
		assert.ErrorIs(t, err, linkbio.ErrStoreUnavailable)

		_, err = svc.Subscribe(ctx, linkbio.SubscribeRequest{Email: "fan@example.com"})
		assert.ErrorIs(t, err, linkbio.ErrStoreUnavailable)

		_, err = svc.UpdateProfile(ctx, owner, linkbio.UpdateProfileRequest{DisplayName: "x"})
		assert.ErrorIs(t, err, linkbio.ErrStoreUnavailable)
	})
}

func TestPublicSurfaceWithoutPublishedOwner(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t, uuid.Nil)

	profile, err := svc.GetPublicProfile(ctx)
	assert.NoError(t, err)
	assert.Nil(t, profile)

	links, err := svc.ListPublicLinks(ctx)
	assert.NoError(t, err)
	assert.Empty(t, links)
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	published := newOwnerID(t)
	svc, _, _ := setupService(t, published, linkbio.WithAdminSubject("google:admin"))

	admin, err := svc.SignIn(ctx, linkbio.SignInRequest{Subject: "google:admin", Email: strPtr("admin@example.com")})
	require.NoError(t, err)
	assert.Equal(t, published, admin.ID)
	assert.Equal(t, linkbio.RoleOwner, admin.Role)

	again, err := svc.SignIn(ctx, linkbio.SignInRequest{Subject: "google:admin", Name: strPtr("Admin")})
	require.NoError(t, err)
	assert.Equal(t, published, again.ID)
	require.NotNil(t, again.Name)
	assert.Equal(t, "Admin", *again.Name)

	visitor, err := svc.SignIn(ctx, linkbio.SignInRequest{Subject: "google:visitor"})
	require.NoError(t, err)
	assert.NotEqual(t, published, visitor.ID)
	assert.Equal(t, linkbio.RoleOther, visitor.Role)

	fetched, err := svc.GetOwner(ctx, visitor.ID)
	require.NoError(t, err)
	assert.Equal(t, "google:visitor", fetched.Subject)

	_, err = svc.SignIn(ctx, linkbio.SignInRequest{})
	assert.ErrorIs(t, err, linkbio.ErrValidation)
}

func TestUploadMedia(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	store := memory.New("/media/")
	svc, _, _ := setupService(t, owner, linkbio.WithMediaStore(store), linkbio.WithMaxUploadSize(1024))

	object, err := svc.UploadMedia(ctx, owner, linkbio.UploadMediaRequest{
		FileName:    "avatar.png",
		ContentType: "image/png",
		Size:        4,
		Body:        bytes.NewReader([]byte("\x89PNG")),
	})
	require.NoError(t, err)
	assert.Contains(t, object.Key, owner.String()+"/")
	assert.True(t, len(object.URL) > 0)
	assert.Equal(t, "image/png", object.ContentType)

	_, err = svc.UploadMedia(ctx, owner, linkbio.UploadMediaRequest{
		FileName: "notes.txt", ContentType: "text/plain", Size: 4, Body: bytes.NewReader([]byte("text")),
	})
	assert.ErrorIs(t, err, linkbio.ErrUnsupportedMedia)

	_, err = svc.UploadMedia(ctx, owner, linkbio.UploadMediaRequest{
		FileName: "big.jpg", ContentType: "image/jpeg", Size: 2048, Body: bytes.NewReader(make([]byte, 2048)),
	})
	assert.ErrorIs(t, err, linkbio.ErrValidation)

	noMedia, _, _ := setupService(t, owner)
	_, err = noMedia.UploadMedia(ctx, owner, linkbio.UploadMediaRequest{
		FileName: "a.png", ContentType: "image/png", Size: 1, Body: bytes.NewReader([]byte("x")),
	})
	assert.ErrorIs(t, err, linkbio.ErrMediaUnavailable)
}

func TestDeleteMedia(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	store := memory.New("/media/")
	svc, _, sink := setupService(t, owner, linkbio.WithMediaStore(store))

	object, err := svc.UploadMedia(ctx, owner, linkbio.UploadMediaRequest{
		FileName: "avatar.png", ContentType: "image/png", Size: 4, Body: bytes.NewReader([]byte("\x89PNG")),
	})
	require.NoError(t, err)

	err = svc.DeleteMedia(ctx, newOwnerID(t), object.Key)
	assert.ErrorIs(t, err, linkbio.ErrForbidden)
	err = svc.DeleteMedia(ctx, uuid.Nil, object.Key)
	assert.ErrorIs(t, err, linkbio.ErrUnauthorized)
	err = svc.DeleteMedia(ctx, owner, "../etc/passwd")
	assert.ErrorIs(t, err, linkbio.ErrValidation)

	require.NoError(t, svc.DeleteMedia(ctx, owner, object.Key))
	_, _, err = store.Open(ctx, object.Key)
	assert.ErrorIs(t, err, linkbio.ErrMediaNotFound)
	assert.Contains(t, sink.types(), linkbio.EventMediaDeleted)

	err = svc.DeleteMedia(ctx, owner, object.Key)
	assert.ErrorIs(t, err, linkbio.ErrNotFound)
}

func TestParseMediaKey(t *testing.T) {
	owner := newOwnerID(t)
	id := newOwnerID(t)

	gotOwner, gotID, err := linkbio.ParseMediaKey(linkbio.MediaKey(owner, id, "image/webp"))
	require.NoError(t, err)
	assert.Equal(t, owner, gotOwner)
	assert.Equal(t, id, gotID)

	for _, key := range []string{"", "missing-slash.png", owner.String() + "/a/b.png", "x/" + id.String() + ".png", owner.String() + "/avatar.png"} {
		_, _, err := linkbio.ParseMediaKey(key)
		assert.ErrorIs(t, err, linkbio.ErrValidation, key)
	}
}

func TestClockOption(t *testing.T) {
	ctx := context.Background()
	owner := newOwnerID(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := setupService(t, owner, linkbio.WithClock(func() time.Time { return fixed }))

	link, err := svc.CreateLink(ctx, owner, linkbio.CreateLinkRequest{Title: "x", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, fixed, link.CreatedAt)
}
