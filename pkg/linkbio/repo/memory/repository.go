package memory

import (
	"bytes"
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

// Repository implements linkbio.Repository using in-memory storage
type Repository struct {
	mu               sync.RWMutex
	owners           map[uuid.UUID]*linkbio.Owner
	ownersBySubject  map[string]uuid.UUID
	profiles         map[uuid.UUID]*linkbio.Profile // owner_id -> profile
	links            map[uuid.UUID]*linkbio.Link
	carouselImages   map[uuid.UUID]*linkbio.CarouselImage
	products         map[uuid.UUID]*linkbio.Product
	subscribers      map[uuid.UUID]*linkbio.Subscriber
	subscriberEmails map[string]uuid.UUID
	clicks           []*linkbio.LinkClick
}

// New creates a new in-memory repository
func New() linkbio.Repository {
	return &Repository{
		owners:           make(map[uuid.UUID]*linkbio.Owner),
		ownersBySubject:  make(map[string]uuid.UUID),
		profiles:         make(map[uuid.UUID]*linkbio.Profile),
		links:            make(map[uuid.UUID]*linkbio.Link),
		carouselImages:   make(map[uuid.UUID]*linkbio.CarouselImage),
		products:         make(map[uuid.UUID]*linkbio.Product),
		subscribers:      make(map[uuid.UUID]*linkbio.Subscriber),
		subscriberEmails: make(map[string]uuid.UUID),
	}
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// Owner operations

func (r *Repository) UpsertOwner(ctx context.Context, owner *linkbio.Owner) (*linkbio.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.ownersBySubject[owner.Subject]; exists {
		existing := r.owners[id]
		existing.Name = owner.Name
		existing.Email = owner.Email
		existing.LoginMethod = owner.LoginMethod
		existing.Role = owner.Role
		existing.UpdatedAt = owner.UpdatedAt
		existing.LastSignedIn = owner.LastSignedIn
		ownerCopy := *existing
		return &ownerCopy, nil
	}

	ownerCopy := *owner
	r.owners[owner.ID] = &ownerCopy
	r.ownersBySubject[owner.Subject] = owner.ID
	result := ownerCopy
	return &result, nil
}

func (r *Repository) GetOwner(ctx context.Context, id uuid.UUID) (*linkbio.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, exists := r.owners[id]
	if !exists {
		return nil, linkbio.ErrOwnerNotFound
	}
	ownerCopy := *owner
	return &ownerCopy, nil
}

// Profile operations

func copyProfile(p *linkbio.Profile) *linkbio.Profile {
	profileCopy := *p
	if p.SocialLinks != nil {
		profileCopy.SocialLinks = maps.Clone(p.SocialLinks)
	}
	return &profileCopy
}

func (r *Repository) GetProfile(ctx context.Context, ownerID uuid.UUID) (*linkbio.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[ownerID]
	if !exists {
		return nil, linkbio.ErrProfileNotFound
	}
	return copyProfile(profile), nil
}

func (r *Repository) UpsertProfile(ctx context.Context, profile *linkbio.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyProfile(profile)
	if existing, exists := r.profiles[profile.OwnerID]; exists {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	r.profiles[profile.OwnerID] = stored
	return nil
}

// Link operations

func (r *Repository) CreateLink(ctx context.Context, link *linkbio.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	linkCopy := *link
	r.links[link.ID] = &linkCopy
	return nil
}

func (r *Repository) GetLink(ctx context.Context, id uuid.UUID) (*linkbio.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, exists := r.links[id]
	if !exists {
		return nil, linkbio.ErrLinkNotFound
	}
	linkCopy := *link
	return &linkCopy, nil
}

func (r *Repository) UpdateLink(ctx context.Context, link *linkbio.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.ID]; !exists {
		return linkbio.ErrLinkNotFound
	}
	linkCopy := *link
	r.links[link.ID] = &linkCopy
	return nil
}

func (r *Repository) DeleteLink(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[id]; !exists {
		return linkbio.ErrLinkNotFound
	}
	delete(r.links, id)
	return nil
}

func (r *Repository) ListLinks(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*linkbio.Link
	for _, link := range r.links {
		if link.OwnerID == ownerID {
			linkCopy := *link
			result = append(result, &linkCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return lessID(result[i].ID, result[j].ID) })
	return result, nil
}

// Carousel operations

func (r *Repository) CreateCarouselImage(ctx context.Context, image *linkbio.CarouselImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	imageCopy := *image
	r.carouselImages[image.ID] = &imageCopy
	return nil
}

func (r *Repository) GetCarouselImage(ctx context.Context, id uuid.UUID) (*linkbio.CarouselImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	image, exists := r.carouselImages[id]
	if !exists {
		return nil, linkbio.ErrCarouselImageNotFound
	}
	imageCopy := *image
	return &imageCopy, nil
}

func (r *Repository) UpdateCarouselImage(ctx context.Context, image *linkbio.CarouselImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.carouselImages[image.ID]; !exists {
		return linkbio.ErrCarouselImageNotFound
	}
	imageCopy := *image
	r.carouselImages[image.ID] = &imageCopy
	return nil
}

func (r *Repository) DeleteCarouselImage(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.carouselImages[id]; !exists {
		return linkbio.ErrCarouselImageNotFound
	}
	delete(r.carouselImages, id)
	return nil
}

func (r *Repository) ListCarouselImages(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.CarouselImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*linkbio.CarouselImage
	for _, image := range r.carouselImages {
		if image.OwnerID == ownerID {
			imageCopy := *image
			result = append(result, &imageCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return lessID(result[i].ID, result[j].ID) })
	return result, nil
}

// Product operations

func (r *Repository) CreateProduct(ctx context.Context, product *linkbio.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	productCopy := *product
	r.products[product.ID] = &productCopy
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*linkbio.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, linkbio.ErrProductNotFound
	}
	productCopy := *product
	return &productCopy, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *linkbio.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; !exists {
		return linkbio.ErrProductNotFound
	}
	productCopy := *product
	r.products[product.ID] = &productCopy
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		return linkbio.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *Repository) ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*linkbio.Product
	for _, product := range r.products {
		if product.OwnerID == ownerID {
			productCopy := *product
			result = append(result, &productCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return lessID(result[i].ID, result[j].ID) })
	return result, nil
}

// Subscriber operations

func (r *Repository) CreateSubscriber(ctx context.Context, subscriber *linkbio.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subscriberEmails[subscriber.Email]; exists {
		return linkbio.ErrDuplicateEmail
	}
	subscriberCopy := *subscriber
	r.subscribers[subscriber.ID] = &subscriberCopy
	r.subscriberEmails[subscriber.Email] = subscriber.ID
	return nil
}

func (r *Repository) GetSubscriber(ctx context.Context, id uuid.UUID) (*linkbio.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscriber, exists := r.subscribers[id]
	if !exists {
		return nil, linkbio.ErrSubscriberNotFound
	}
	subscriberCopy := *subscriber
	return &subscriberCopy, nil
}

func (r *Repository) UpdateSubscriber(ctx context.Context, subscriber *linkbio.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.subscribers[subscriber.ID]
	if !exists {
		return linkbio.ErrSubscriberNotFound
	}
	if existing.Email != subscriber.Email {
		if _, taken := r.subscriberEmails[subscriber.Email]; taken {
			return linkbio.ErrDuplicateEmail
		}
		delete(r.subscriberEmails, existing.Email)
		r.subscriberEmails[subscriber.Email] = subscriber.ID
	}
	subscriberCopy := *subscriber
	r.subscribers[subscriber.ID] = &subscriberCopy
	return nil
}

func (r *Repository) ListSubscribers(ctx context.Context, activeOnly bool) ([]*linkbio.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*linkbio.Subscriber
	for _, subscriber := range r.subscribers {
		if activeOnly && !subscriber.IsActive {
			continue
		}
		subscriberCopy := *subscriber
		result = append(result, &subscriberCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].SubscribedAt.Equal(result[j].SubscribedAt) {
			return result[i].SubscribedAt.After(result[j].SubscribedAt)
		}
		return lessID(result[j].ID, result[i].ID)
	})
	return result, nil
}

// Click operations

func (r *Repository) RecordClick(ctx context.Context, click *linkbio.LinkClick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[click.LinkID]; !exists {
		return linkbio.ErrLinkNotFound
	}
	clickCopy := *click
	r.clicks = append(r.clicks, &clickCopy)
	return nil
}

func (r *Repository) CountClicksByLink(ctx context.Context, ownerID uuid.UUID) ([]*linkbio.LinkClickStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[uuid.UUID]int64)
	for _, click := range r.clicks {
		counts[click.LinkID]++
	}

	var result []*linkbio.LinkClickStat
	for _, link := range r.links {
		if link.OwnerID != ownerID {
			continue
		}
		result = append(result, &linkbio.LinkClickStat{
			LinkID:     link.ID,
			Title:      link.Title,
			IsPriority: link.IsPriority,
			SortOrder:  link.SortOrder,
			ClickCount: counts[link.ID],
		})
	}
	sort.Slice(result, func(i, j int) bool { return lessID(result[i].LinkID, result[j].LinkID) })
	return result, nil
}
