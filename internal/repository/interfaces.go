package repository

import (
	"context"
	"time"
)

// ImageRepository defines the interface for image metadata access
type ImageRepository interface {
	// Create stores a new unattached image and assigns its id
	Create(ctx context.Context, img *Image) error

	// Get returns one image by id
	Get(ctx context.Context, id int64) (*Image, error)

	// ListUnattached returns an owner's images not yet attached to a raffle, oldest first
	ListUnattached(ctx context.Context, ownerID string) ([]*Image, error)

	// ListByRaffle returns a raffle's images by image order
	ListByRaffle(ctx context.Context, raffleID int64) ([]*Image, error)

	// CountForOwner counts an owner's unattached images
	CountForOwner(ctx context.Context, ownerID string) (int, error)

	// Delete removes an image
	Delete(ctx context.Context, id int64) error

	// AttachOrdered attaches the listed images to a raffle with their orders,
	// in one transaction. Images previously attached but not listed are detached.
	AttachOrdered(ctx context.Context, raffleID int64, orders []ImageOrder) error

	Close() error
}

// Image is one stored image
type Image struct {
	ID         int64
	OwnerID    string
	RaffleID   *int64
	BlobKey    string
	URL        string
	FileName   string
	MimeType   string
	Size       int64
	ImageOrder *int
	CreatedAt  time.Time
}

// ImageOrder assigns a position to one image
type ImageOrder struct {
	ID    int64
	Order int
}
