package linkbio

import (
	"bytes"
	"cmp"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// Mode selects which entities a caller may see.
type Mode int

const (
	// ModePublic keeps only active entities.
	ModePublic Mode = iota
	// ModeManaged keeps every entity, active or not.
	ModeManaged
)

func (m Mode) String() string {
	switch m {
	case ModePublic:
		return "public"
	case ModeManaged:
		return "managed"
	default:
		return "unknown"
	}
}

// OrderLinks returns the links visible in mode, priority links first, then by
// ascending sort order, then by ID. The input slice is not modified.
func OrderLinks(links []*Link, mode Mode) []*Link {
	return visible(links, mode, func(l *Link) bool { return l.IsActive }, compareLinks)
}

// OrderCarouselImages returns the carousel images visible in mode by
// ascending sort order, then by ID.
func OrderCarouselImages(images []*CarouselImage, mode Mode) []*CarouselImage {
	return visible(images, mode,
		func(c *CarouselImage) bool { return c.IsActive },
		func(a, b *CarouselImage) int { return compareSortOrder(a.SortOrder, b.SortOrder, a.ID, b.ID) })
}

// OrderProducts returns the products visible in mode by ascending sort order,
// then by ID.
func OrderProducts(products []*Product, mode Mode) []*Product {
	return visible(products, mode,
		func(p *Product) bool { return p.IsActive },
		func(a, b *Product) int { return compareSortOrder(a.SortOrder, b.SortOrder, a.ID, b.ID) })
}

func compareLinks(a, b *Link) int {
	if a.IsPriority != b.IsPriority {
		if a.IsPriority {
			return -1
		}
		return 1
	}
	return compareSortOrder(a.SortOrder, b.SortOrder, a.ID, b.ID)
}

func compareSortOrder(a, b int, aID, bID uuid.UUID) int {
	if c := cmp.Compare(a, b); c != 0 {
		return c
	}
	return bytes.Compare(aID[:], bID[:])
}

func visible[T any](items []T, mode Mode, active func(T) bool, compare func(a, b T) int) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if mode == ModePublic && !active(item) {
			continue
		}
		out = append(out, item)
	}
	slices.SortStableFunc(out, compare)
	return out
}

// orderClickStats sorts by click count descending, ties by link display order.
func orderClickStats(stats []*LinkClickStat) {
	slices.SortStableFunc(stats, func(a, b *LinkClickStat) int {
		if c := cmp.Compare(b.ClickCount, a.ClickCount); c != 0 {
			return c
		}
		if a.IsPriority != b.IsPriority {
			if a.IsPriority {
				return -1
			}
			return 1
		}
		return compareSortOrder(a.SortOrder, b.SortOrder, a.LinkID, b.LinkID)
	})
}
