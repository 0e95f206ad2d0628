package domain

import "context"

type ProductRepository interface {
	// Create inserts the product and returns the storage-assigned id.
	Create(ctx context.Context, product *Product) (string, error)
	// FindByQuery executes a catalog query and returns rows pre-joined with
	// the owning farmer's public profile, the category name and the images.
	FindByQuery(ctx context.Context, query Query) ([]*Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	// FindByFarmer returns all listings owned by a farmer, newest first,
	// including archived and incomplete ones.
	FindByFarmer(ctx context.Context, farmerID string) ([]*Product, error)
	UpdateStatus(ctx context.Context, id string, status ListingStatus) error
	// AddImages inserts the image batch as one collection.
	AddImages(ctx context.Context, images []Image) error
}

type ImageStorage interface {
	// Upload stores the blob under key and returns its public URL.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type ProductCache interface {
	Get(ctx context.Context, id string) (*Product, error)
	Set(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
}

type EventPublisher interface {
	ListingCreated(ctx context.Context, product *Product) error
	ListingArchived(ctx context.Context, id string) error
}

// Notifier raises user-visible notifications. Fire and forget: callers never
// consume a return value.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}
