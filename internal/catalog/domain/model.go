package domain

import "time"

type ListingStatus string

const (
	StatusAvailable ListingStatus = "available"
	StatusArchived  ListingStatus = "archived"
	// StatusIncomplete marks a listing whose record was created but whose
	// image batch never finished uploading. Such listings are excluded from
	// the catalog and wait for manual remediation by the owner.
	StatusIncomplete ListingStatus = "incomplete"
)

// Product is a single produce listing owned by a farmer. ID, FarmerID and
// CreatedAt are set at creation and never change afterwards.
type Product struct {
	ID           string
	FarmerID     string
	CategoryID   string
	Title        string
	Description  string
	PricePerUnit float64
	Unit         string
	Province     string
	Status       ListingStatus
	Images       []Image
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Joined read-model fields, populated by catalog queries only.
	Farmer       *FarmerProfile
	CategoryName string
}

// PrimaryImage returns the designated representative image, or nil when the
// product has no images yet.
func (p *Product) PrimaryImage() *Image {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	return nil
}

// Image belongs to a product by back-reference. UploadOrder is the position
// in the batch supplied at creation; position 0 is always the primary image.
type Image struct {
	ID          string
	ProductID   string
	URL         string
	IsPrimary   bool
	UploadOrder int
	CreatedAt   time.Time
}

// FarmerProfile carries the public profile fields joined onto catalog rows.
type FarmerProfile struct {
	ID        string
	FullName  string
	Province  string
	AvatarURL string
}

// Draft is the caller-supplied part of a new listing. Status and owner are
// never taken from the draft; the creator forces them.
type Draft struct {
	CategoryID   string
	Title        string
	Description  string
	PricePerUnit float64
	Unit         string
	Province     string
}

// ImageUpload is a raw file blob handed to the listing creator.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
