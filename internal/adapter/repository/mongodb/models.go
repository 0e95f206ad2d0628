package mongodb

import (
	"time"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
)

// productDocument stores a product in MongoDB. IDs are hex strings assigned
// before insert, which keeps cross-collection references joinable by $lookup.
type productDocument struct {
	ID           string               `bson:"_id,omitempty"`
	FarmerID     string               `bson:"farmer_id"`
	CategoryID   string               `bson:"category_id"`
	Title        string               `bson:"title"`
	Description  string               `bson:"description"`
	PricePerUnit float64              `bson:"price_per_unit"`
	Unit         string               `bson:"unit"`
	Province     string               `bson:"province"`
	Status       domain.ListingStatus `bson:"status"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`

	// Populated by the catalog aggregation only.
	Images   []imageDocument   `bson:"images,omitempty"`
	Farmer   *farmerDocument   `bson:"farmer,omitempty"`
	Category *categoryDocument `bson:"category,omitempty"`
}

type imageDocument struct {
	ID          string    `bson:"_id,omitempty"`
	ProductID   string    `bson:"product_id"`
	URL         string    `bson:"url"`
	IsPrimary   bool      `bson:"is_primary"`
	UploadOrder int       `bson:"upload_order"`
	CreatedAt   time.Time `bson:"created_at"`
}

type farmerDocument struct {
	ID        string `bson:"_id,omitempty"`
	FullName  string `bson:"full_name"`
	Province  string `bson:"province"`
	AvatarURL string `bson:"avatar_url"`
}

type categoryDocument struct {
	ID   string `bson:"_id,omitempty"`
	Name string `bson:"name"`
}

func toProductDocument(p *domain.Product) *productDocument {
	return &productDocument{
		ID:           p.ID,
		FarmerID:     p.FarmerID,
		CategoryID:   p.CategoryID,
		Title:        p.Title,
		Description:  p.Description,
		PricePerUnit: p.PricePerUnit,
		Unit:         p.Unit,
		Province:     p.Province,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toDomainProduct(d *productDocument) *domain.Product {
	p := &domain.Product{
		ID:           d.ID,
		FarmerID:     d.FarmerID,
		CategoryID:   d.CategoryID,
		Title:        d.Title,
		Description:  d.Description,
		PricePerUnit: d.PricePerUnit,
		Unit:         d.Unit,
		Province:     d.Province,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Images:       make([]domain.Image, 0, len(d.Images)),
	}
	for _, img := range d.Images {
		p.Images = append(p.Images, toDomainImage(&img))
	}
	if d.Farmer != nil {
		p.Farmer = &domain.FarmerProfile{
			ID:        d.Farmer.ID,
			FullName:  d.Farmer.FullName,
			Province:  d.Farmer.Province,
			AvatarURL: d.Farmer.AvatarURL,
		}
	}
	if d.Category != nil {
		p.CategoryName = d.Category.Name
	}
	return p
}

func toDomainProducts(docs []*productDocument) []*domain.Product {
	products := make([]*domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, toDomainProduct(doc))
	}
	return products
}

func toImageDocument(img *domain.Image) *imageDocument {
	return &imageDocument{
		ID:          img.ID,
		ProductID:   img.ProductID,
		URL:         img.URL,
		IsPrimary:   img.IsPrimary,
		UploadOrder: img.UploadOrder,
		CreatedAt:   img.CreatedAt,
	}
}

func toDomainImage(d *imageDocument) domain.Image {
	return domain.Image{
		ID:          d.ID,
		ProductID:   d.ProductID,
		URL:         d.URL,
		IsPrimary:   d.IsPrimary,
		UploadOrder: d.UploadOrder,
		CreatedAt:   d.CreatedAt,
	}
}
