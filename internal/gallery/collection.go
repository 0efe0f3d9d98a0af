// Package gallery holds the ordered image sequence edited on a raffle screen.
//
// A Collection is immutable. Every operation returns a new Collection whose
// image orders are re-derived from position, so after any operation the
// orders of N images are exactly 0..N-1 in display order.
package gallery

import (
	"fmt"
	"sort"

	"go-raffle-images/pkg/models"
)

// Collection is an immutable ordered sequence of images
type Collection struct {
	images []models.ImageRecord
}

// Empty returns a collection without images
func Empty() Collection {
	return Collection{}
}

// FromSorted builds a collection from records already in display order
func FromSorted(records []models.ImageRecord) Collection {
	return reindex(records)
}

// FromServer builds a collection from a freshly fetched list. Records without
// an order take their position in the list; the result is sorted by order.
func FromServer(records []models.ImageRecord) Collection {
	withOrder := make([]models.ImageRecord, len(records))
	for i, r := range records {
		withOrder[i] = r.WithOrder(r.Order(i))
	}
	return sortByOrder(withOrder)
}

// Merge combines locally staged images with images fetched from the server.
// Local records win on id conflicts; server records not present locally are
// appended, taking max existing order + 1 when they carry no order.
func Merge(local, server []models.ImageRecord) Collection {
	merged := make([]models.ImageRecord, 0, len(local)+len(server))
	seen := make(map[int64]struct{}, len(local))
	maxOrder := -1

	for i, r := range local {
		r = r.WithOrder(r.Order(i))
		if *r.ImageOrder > maxOrder {
			maxOrder = *r.ImageOrder
		}
		seen[r.ID] = struct{}{}
		merged = append(merged, r)
	}

	for _, r := range server {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		if r.ImageOrder == nil {
			r = r.WithOrder(maxOrder + 1)
		}
		if *r.ImageOrder > maxOrder {
			maxOrder = *r.ImageOrder
		}
		seen[r.ID] = struct{}{}
		merged = append(merged, r)
	}

	return sortByOrder(merged)
}

// Len returns the number of images
func (c Collection) Len() int {
	return len(c.images)
}

// Images returns a copy of the images in display order
func (c Collection) Images() []models.ImageRecord {
	out := make([]models.ImageRecord, len(c.images))
	for i, r := range c.images {
		out[i] = r.WithOrder(*r.ImageOrder)
	}
	return out
}

// At returns the image at index
func (c Collection) At(index int) (models.ImageRecord, bool) {
	if index < 0 || index >= len(c.images) {
		return models.ImageRecord{}, false
	}
	r := c.images[index]
	return r.WithOrder(*r.ImageOrder), true
}

// Append adds records after the existing images; the i-th new record gets order Len()+i
func (c Collection) Append(records ...models.ImageRecord) Collection {
	next := make([]models.ImageRecord, 0, len(c.images)+len(records))
	next = append(next, c.images...)
	next = append(next, records...)
	return reindex(next)
}

// Remove drops the image at index
func (c Collection) Remove(index int) (Collection, error) {
	if index < 0 || index >= len(c.images) {
		return c, fmt.Errorf("index %d out of range [0,%d)", index, len(c.images))
	}
	next := make([]models.ImageRecord, 0, len(c.images)-1)
	next = append(next, c.images[:index]...)
	next = append(next, c.images[index+1:]...)
	return reindex(next), nil
}

// Move takes the image at from and reinserts it at to
func (c Collection) Move(from, to int) (Collection, error) {
	n := len(c.images)
	if from < 0 || from >= n {
		return c, fmt.Errorf("source index %d out of range [0,%d)", from, n)
	}
	if to < 0 || to >= n {
		return c, fmt.Errorf("target index %d out of range [0,%d)", to, n)
	}
	if from == to {
		return c, nil
	}

	moved := c.images[from]
	rest := make([]models.ImageRecord, 0, n-1)
	rest = append(rest, c.images[:from]...)
	rest = append(rest, c.images[from+1:]...)

	next := make([]models.ImageRecord, 0, n)
	next = append(next, rest[:to]...)
	next = append(next, moved)
	next = append(next, rest[to:]...)
	return reindex(next), nil
}

// IsContiguous reports whether the orders are exactly 0..N-1 in display order
func (c Collection) IsContiguous() bool {
	for i, r := range c.images {
		if r.ImageOrder == nil || *r.ImageOrder != i {
			return false
		}
	}
	return true
}

func sortByOrder(records []models.ImageRecord) Collection {
	sorted := make([]models.ImageRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order(0) < sorted[j].Order(0)
	})
	return reindex(sorted)
}

func reindex(records []models.ImageRecord) Collection {
	out := make([]models.ImageRecord, len(records))
	for i, r := range records {
		out[i] = r.WithOrder(i)
	}
	return Collection{images: out}
}
